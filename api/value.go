package api

import "math"

// Values on the operand stack and in Function.Call are raw 64-bit payloads;
// these helpers convert to/from the Go numeric types, preserving NaN bit
// patterns exactly (reinterpret, not a numeric conversion).

// EncodeI32 encodes a signed int32 as an api.ValueTypeI32.
func EncodeI32(input int32) uint64 {
	return uint64(uint32(input))
}

// DecodeI32 decodes an api.ValueTypeI32 to a signed int32.
func DecodeI32(input uint64) int32 {
	return int32(input)
}

// EncodeU32 encodes an unsigned uint32 as an api.ValueTypeI32.
func EncodeU32(input uint32) uint64 {
	return uint64(input)
}

// DecodeU32 decodes an api.ValueTypeI32 to an unsigned uint32.
func DecodeU32(input uint64) uint32 {
	return uint32(input)
}

// EncodeF32 encodes a float32 as an api.ValueTypeF32, preserving NaN bits.
func EncodeF32(input float32) uint64 {
	return uint64(math.Float32bits(input))
}

// DecodeF32 decodes an api.ValueTypeF32 to a float32, preserving NaN bits.
func DecodeF32(input uint64) float32 {
	return math.Float32frombits(uint32(input))
}

// EncodeF64 encodes a float64 as an api.ValueTypeF64, preserving NaN bits.
func EncodeF64(input float64) uint64 {
	return math.Float64bits(input)
}

// DecodeF64 decodes an api.ValueTypeF64 to a float64, preserving NaN bits.
func DecodeF64(input uint64) float64 {
	return math.Float64frombits(input)
}
