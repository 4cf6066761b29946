package interpreter

import (
	"math"
	"math/bits"
)

// This file holds the pure numeric kernels the main dispatch loop calls
// into: one function per instruction family, operating on the raw uint64
// stack encoding so the loop itself never has to care about signedness or
// float bit patterns.

func i32Clz(v uint32) uint32    { return uint32(bits.LeadingZeros32(v)) }
func i32Ctz(v uint32) uint32    { return uint32(bits.TrailingZeros32(v)) }
func i32Popcnt(v uint32) uint32 { return uint32(bits.OnesCount32(v)) }

func i64Clz(v uint64) uint64    { return uint64(bits.LeadingZeros64(v)) }
func i64Ctz(v uint64) uint64    { return uint64(bits.TrailingZeros64(v)) }
func i64Popcnt(v uint64) uint64 { return uint64(bits.OnesCount64(v)) }

func i32Rotl(v uint32, n uint32) uint32 { return bits.RotateLeft32(v, int(n&31)) }
func i32Rotr(v uint32, n uint32) uint32 { return bits.RotateLeft32(v, -int(n&31)) }
func i64Rotl(v uint64, n uint64) uint64 { return bits.RotateLeft64(v, int(n&63)) }
func i64Rotr(v uint64, n uint64) uint64 { return bits.RotateLeft64(v, -int(n&63)) }

// i32DivS implements signed 32-bit division, trapping on divide-by-zero and
// on the one representable overflow, MinInt32 / -1.
func i32DivS(a, b int32) (int32, bool) {
	if b == 0 {
		return 0, false
	}
	if a == math.MinInt32 && b == -1 {
		return 0, false
	}
	return a / b, true
}

func i32RemS(a, b int32) (int32, bool) {
	if b == 0 {
		return 0, false
	}
	if a == math.MinInt32 && b == -1 {
		return 0, true
	}
	return a % b, true
}

func i64DivS(a, b int64) (int64, bool) {
	if b == 0 {
		return 0, false
	}
	if a == math.MinInt64 && b == -1 {
		return 0, false
	}
	return a / b, true
}

func i64RemS(a, b int64) (int64, bool) {
	if b == 0 {
		return 0, false
	}
	if a == math.MinInt64 && b == -1 {
		return 0, true
	}
	return a % b, true
}

func f32Min(a, b float32) float32 {
	if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
		return float32(math.NaN())
	}
	if a == 0 && b == 0 {
		if math.Signbit(float64(a)) || math.Signbit(float64(b)) {
			return float32(math.Copysign(0, -1))
		}
		return 0
	}
	if a < b {
		return a
	}
	return b
}

func f32Max(a, b float32) float32 {
	if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
		return float32(math.NaN())
	}
	if a == 0 && b == 0 {
		if !math.Signbit(float64(a)) || !math.Signbit(float64(b)) {
			return 0
		}
		return float32(math.Copysign(0, -1))
	}
	if a > b {
		return a
	}
	return b
}

func f64Min(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	if a == 0 && b == 0 {
		if math.Signbit(a) || math.Signbit(b) {
			return math.Copysign(0, -1)
		}
		return 0
	}
	if a < b {
		return a
	}
	return b
}

func f64Max(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	if a == 0 && b == 0 {
		if !math.Signbit(a) || !math.Signbit(b) {
			return 0
		}
		return math.Copysign(0, -1)
	}
	if a > b {
		return a
	}
	return b
}

// truncF32ToI32S converts f, trapping on NaN and on any magnitude outside
// [-2^31, 2^31) rather than silently saturating.
func truncF32ToI32S(f float32) (int32, bool) {
	f64 := float64(f)
	if math.IsNaN(f64) {
		return 0, false
	}
	t := math.Trunc(f64)
	if t < -2147483648 || t >= 2147483648 {
		return 0, false
	}
	return int32(t), true
}

func truncF32ToI32U(f float32) (uint32, bool) {
	f64 := float64(f)
	if math.IsNaN(f64) {
		return 0, false
	}
	t := math.Trunc(f64)
	if t < 0 || t >= 4294967296 {
		return 0, false
	}
	return uint32(t), true
}

func truncF64ToI32S(f float64) (int32, bool) {
	if math.IsNaN(f) {
		return 0, false
	}
	t := math.Trunc(f)
	if t < -2147483648 || t >= 2147483648 {
		return 0, false
	}
	return int32(t), true
}

func truncF64ToI32U(f float64) (uint32, bool) {
	if math.IsNaN(f) {
		return 0, false
	}
	t := math.Trunc(f)
	if t < 0 || t >= 4294967296 {
		return 0, false
	}
	return uint32(t), true
}

func truncF32ToI64S(f float32) (int64, bool) {
	f64 := float64(f)
	if math.IsNaN(f64) {
		return 0, false
	}
	t := math.Trunc(f64)
	if t < -9223372036854775808 || t >= 9223372036854775808 {
		return 0, false
	}
	return int64(t), true
}

func truncF32ToI64U(f float32) (uint64, bool) {
	f64 := float64(f)
	if math.IsNaN(f64) {
		return 0, false
	}
	t := math.Trunc(f64)
	if t < 0 || t >= 18446744073709551616 {
		return 0, false
	}
	return uint64(t), true
}

func truncF64ToI64S(f float64) (int64, bool) {
	if math.IsNaN(f) {
		return 0, false
	}
	t := math.Trunc(f)
	if t < -9223372036854775808 || t >= 9223372036854775808 {
		return 0, false
	}
	return int64(t), true
}

func truncF64ToI64U(f float64) (uint64, bool) {
	if math.IsNaN(f) {
		return 0, false
	}
	t := math.Trunc(f)
	if t < 0 || t >= 18446744073709551616 {
		return 0, false
	}
	return uint64(t), true
}

func nearest32(f float32) float32 { return float32(math.RoundToEven(float64(f))) }
func nearest64(f float64) float64 { return math.RoundToEven(f) }

func b2u64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
