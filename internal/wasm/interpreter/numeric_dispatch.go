package interpreter

import (
	"math"

	"github.com/wasmrt/wasmcore/internal/wasm"
)

// execNumeric handles every opcode that is neither control flow, a variable
// access, nor a load/store: comparisons, arithmetic, bitwise ops, and
// conversions, one per case exactly as the binary format's own opcode table
// lists them.
func (s *execState) execNumeric(op byte) {
	switch op {
	case opI32Eqz:
		s.push(b2u64(uint32(s.pop()) == 0))
	case opI32Eq:
		b, a := uint32(s.pop()), uint32(s.pop())
		s.push(b2u64(a == b))
	case opI32Ne:
		b, a := uint32(s.pop()), uint32(s.pop())
		s.push(b2u64(a != b))
	case opI32LtS:
		b, a := int32(s.pop()), int32(s.pop())
		s.push(b2u64(a < b))
	case opI32LtU:
		b, a := uint32(s.pop()), uint32(s.pop())
		s.push(b2u64(a < b))
	case opI32GtS:
		b, a := int32(s.pop()), int32(s.pop())
		s.push(b2u64(a > b))
	case opI32GtU:
		b, a := uint32(s.pop()), uint32(s.pop())
		s.push(b2u64(a > b))
	case opI32LeS:
		b, a := int32(s.pop()), int32(s.pop())
		s.push(b2u64(a <= b))
	case opI32LeU:
		b, a := uint32(s.pop()), uint32(s.pop())
		s.push(b2u64(a <= b))
	case opI32GeS:
		b, a := int32(s.pop()), int32(s.pop())
		s.push(b2u64(a >= b))
	case opI32GeU:
		b, a := uint32(s.pop()), uint32(s.pop())
		s.push(b2u64(a >= b))

	case opI64Eqz:
		s.push(b2u64(s.pop() == 0))
	case opI64Eq:
		b, a := s.pop(), s.pop()
		s.push(b2u64(a == b))
	case opI64Ne:
		b, a := s.pop(), s.pop()
		s.push(b2u64(a != b))
	case opI64LtS:
		b, a := int64(s.pop()), int64(s.pop())
		s.push(b2u64(a < b))
	case opI64LtU:
		b, a := s.pop(), s.pop()
		s.push(b2u64(a < b))
	case opI64GtS:
		b, a := int64(s.pop()), int64(s.pop())
		s.push(b2u64(a > b))
	case opI64GtU:
		b, a := s.pop(), s.pop()
		s.push(b2u64(a > b))
	case opI64LeS:
		b, a := int64(s.pop()), int64(s.pop())
		s.push(b2u64(a <= b))
	case opI64LeU:
		b, a := s.pop(), s.pop()
		s.push(b2u64(a <= b))
	case opI64GeS:
		b, a := int64(s.pop()), int64(s.pop())
		s.push(b2u64(a >= b))
	case opI64GeU:
		b, a := s.pop(), s.pop()
		s.push(b2u64(a >= b))

	case opF32Eq:
		b, a := float32FromBits(s.pop()), float32FromBits(s.pop())
		s.push(b2u64(a == b))
	case opF32Ne:
		b, a := float32FromBits(s.pop()), float32FromBits(s.pop())
		s.push(b2u64(a != b))
	case opF32Lt:
		b, a := float32FromBits(s.pop()), float32FromBits(s.pop())
		s.push(b2u64(a < b))
	case opF32Gt:
		b, a := float32FromBits(s.pop()), float32FromBits(s.pop())
		s.push(b2u64(a > b))
	case opF32Le:
		b, a := float32FromBits(s.pop()), float32FromBits(s.pop())
		s.push(b2u64(a <= b))
	case opF32Ge:
		b, a := float32FromBits(s.pop()), float32FromBits(s.pop())
		s.push(b2u64(a >= b))

	case opF64Eq:
		b, a := float64FromBits(s.pop()), float64FromBits(s.pop())
		s.push(b2u64(a == b))
	case opF64Ne:
		b, a := float64FromBits(s.pop()), float64FromBits(s.pop())
		s.push(b2u64(a != b))
	case opF64Lt:
		b, a := float64FromBits(s.pop()), float64FromBits(s.pop())
		s.push(b2u64(a < b))
	case opF64Gt:
		b, a := float64FromBits(s.pop()), float64FromBits(s.pop())
		s.push(b2u64(a > b))
	case opF64Le:
		b, a := float64FromBits(s.pop()), float64FromBits(s.pop())
		s.push(b2u64(a <= b))
	case opF64Ge:
		b, a := float64FromBits(s.pop()), float64FromBits(s.pop())
		s.push(b2u64(a >= b))

	case opI32Clz:
		s.push(uint64(i32Clz(uint32(s.pop()))))
	case opI32Ctz:
		s.push(uint64(i32Ctz(uint32(s.pop()))))
	case opI32Popcnt:
		s.push(uint64(i32Popcnt(uint32(s.pop()))))
	case opI32Add:
		b, a := uint32(s.pop()), uint32(s.pop())
		s.push(uint64(a + b))
	case opI32Sub:
		b, a := uint32(s.pop()), uint32(s.pop())
		s.push(uint64(a - b))
	case opI32Mul:
		b, a := uint32(s.pop()), uint32(s.pop())
		s.push(uint64(a * b))
	case opI32DivS:
		b, a := int32(s.pop()), int32(s.pop())
		r, ok := i32DivS(a, b)
		trapDivIfNot(ok, b)
		s.push(uint64(uint32(r)))
	case opI32DivU:
		b, a := uint32(s.pop()), uint32(s.pop())
		if b == 0 {
			panic(wasm.ErrTrapIntegerDivideByZero)
		}
		s.push(uint64(a / b))
	case opI32RemS:
		b, a := int32(s.pop()), int32(s.pop())
		r, ok := i32RemS(a, b)
		trapDivIfNot(ok, b)
		s.push(uint64(uint32(r)))
	case opI32RemU:
		b, a := uint32(s.pop()), uint32(s.pop())
		if b == 0 {
			panic(wasm.ErrTrapIntegerDivideByZero)
		}
		s.push(uint64(a % b))
	case opI32And:
		b, a := uint32(s.pop()), uint32(s.pop())
		s.push(uint64(a & b))
	case opI32Or:
		b, a := uint32(s.pop()), uint32(s.pop())
		s.push(uint64(a | b))
	case opI32Xor:
		b, a := uint32(s.pop()), uint32(s.pop())
		s.push(uint64(a ^ b))
	case opI32Shl:
		b, a := uint32(s.pop()), uint32(s.pop())
		s.push(uint64(a << (b & 31)))
	case opI32ShrS:
		b, a := uint32(s.pop()), int32(s.pop())
		s.push(uint64(uint32(a >> (b & 31))))
	case opI32ShrU:
		b, a := uint32(s.pop()), uint32(s.pop())
		s.push(uint64(a >> (b & 31)))
	case opI32Rotl:
		b, a := uint32(s.pop()), uint32(s.pop())
		s.push(uint64(i32Rotl(a, b)))
	case opI32Rotr:
		b, a := uint32(s.pop()), uint32(s.pop())
		s.push(uint64(i32Rotr(a, b)))

	case opI64Clz:
		s.push(i64Clz(s.pop()))
	case opI64Ctz:
		s.push(i64Ctz(s.pop()))
	case opI64Popcnt:
		s.push(i64Popcnt(s.pop()))
	case opI64Add:
		b, a := s.pop(), s.pop()
		s.push(a + b)
	case opI64Sub:
		b, a := s.pop(), s.pop()
		s.push(a - b)
	case opI64Mul:
		b, a := s.pop(), s.pop()
		s.push(a * b)
	case opI64DivS:
		b, a := int64(s.pop()), int64(s.pop())
		r, ok := i64DivS(a, b)
		trapDivIfNot64(ok, b)
		s.push(uint64(r))
	case opI64DivU:
		b, a := s.pop(), s.pop()
		if b == 0 {
			panic(wasm.ErrTrapIntegerDivideByZero)
		}
		s.push(a / b)
	case opI64RemS:
		b, a := int64(s.pop()), int64(s.pop())
		r, ok := i64RemS(a, b)
		trapDivIfNot64(ok, b)
		s.push(uint64(r))
	case opI64RemU:
		b, a := s.pop(), s.pop()
		if b == 0 {
			panic(wasm.ErrTrapIntegerDivideByZero)
		}
		s.push(a % b)
	case opI64And:
		b, a := s.pop(), s.pop()
		s.push(a & b)
	case opI64Or:
		b, a := s.pop(), s.pop()
		s.push(a | b)
	case opI64Xor:
		b, a := s.pop(), s.pop()
		s.push(a ^ b)
	case opI64Shl:
		b, a := s.pop(), s.pop()
		s.push(a << (b & 63))
	case opI64ShrS:
		b, a := s.pop(), int64(s.pop())
		s.push(uint64(a >> (b & 63)))
	case opI64ShrU:
		b, a := s.pop(), s.pop()
		s.push(a >> (b & 63))
	case opI64Rotl:
		b, a := s.pop(), s.pop()
		s.push(i64Rotl(a, b))
	case opI64Rotr:
		b, a := s.pop(), s.pop()
		s.push(i64Rotr(a, b))

	case opF32Abs:
		s.push(bitsFromFloat32(float32(math.Abs(float64(float32FromBits(s.pop()))))))
	case opF32Neg:
		s.push(bitsFromFloat32(-float32FromBits(s.pop())))
	case opF32Ceil:
		s.push(bitsFromFloat32(float32(math.Ceil(float64(float32FromBits(s.pop()))))))
	case opF32Floor:
		s.push(bitsFromFloat32(float32(math.Floor(float64(float32FromBits(s.pop()))))))
	case opF32Trunc:
		s.push(bitsFromFloat32(float32(math.Trunc(float64(float32FromBits(s.pop()))))))
	case opF32Nearest:
		s.push(bitsFromFloat32(nearest32(float32FromBits(s.pop()))))
	case opF32Sqrt:
		s.push(bitsFromFloat32(float32(math.Sqrt(float64(float32FromBits(s.pop()))))))
	case opF32Add:
		b, a := float32FromBits(s.pop()), float32FromBits(s.pop())
		s.push(bitsFromFloat32(a + b))
	case opF32Sub:
		b, a := float32FromBits(s.pop()), float32FromBits(s.pop())
		s.push(bitsFromFloat32(a - b))
	case opF32Mul:
		b, a := float32FromBits(s.pop()), float32FromBits(s.pop())
		s.push(bitsFromFloat32(a * b))
	case opF32Div:
		b, a := float32FromBits(s.pop()), float32FromBits(s.pop())
		s.push(bitsFromFloat32(a / b))
	case opF32Min:
		b, a := float32FromBits(s.pop()), float32FromBits(s.pop())
		s.push(bitsFromFloat32(f32Min(a, b)))
	case opF32Max:
		b, a := float32FromBits(s.pop()), float32FromBits(s.pop())
		s.push(bitsFromFloat32(f32Max(a, b)))
	case opF32Copysign:
		b, a := float32FromBits(s.pop()), float32FromBits(s.pop())
		s.push(bitsFromFloat32(float32(math.Copysign(float64(a), float64(b)))))

	case opF64Abs:
		s.push(bitsFromFloat64(math.Abs(float64FromBits(s.pop()))))
	case opF64Neg:
		s.push(bitsFromFloat64(-float64FromBits(s.pop())))
	case opF64Ceil:
		s.push(bitsFromFloat64(math.Ceil(float64FromBits(s.pop()))))
	case opF64Floor:
		s.push(bitsFromFloat64(math.Floor(float64FromBits(s.pop()))))
	case opF64Trunc:
		s.push(bitsFromFloat64(math.Trunc(float64FromBits(s.pop()))))
	case opF64Nearest:
		s.push(bitsFromFloat64(nearest64(float64FromBits(s.pop()))))
	case opF64Sqrt:
		s.push(bitsFromFloat64(math.Sqrt(float64FromBits(s.pop()))))
	case opF64Add:
		b, a := float64FromBits(s.pop()), float64FromBits(s.pop())
		s.push(bitsFromFloat64(a + b))
	case opF64Sub:
		b, a := float64FromBits(s.pop()), float64FromBits(s.pop())
		s.push(bitsFromFloat64(a - b))
	case opF64Mul:
		b, a := float64FromBits(s.pop()), float64FromBits(s.pop())
		s.push(bitsFromFloat64(a * b))
	case opF64Div:
		b, a := float64FromBits(s.pop()), float64FromBits(s.pop())
		s.push(bitsFromFloat64(a / b))
	case opF64Min:
		b, a := float64FromBits(s.pop()), float64FromBits(s.pop())
		s.push(bitsFromFloat64(f64Min(a, b)))
	case opF64Max:
		b, a := float64FromBits(s.pop()), float64FromBits(s.pop())
		s.push(bitsFromFloat64(f64Max(a, b)))
	case opF64Copysign:
		b, a := float64FromBits(s.pop()), float64FromBits(s.pop())
		s.push(bitsFromFloat64(math.Copysign(a, b)))

	case opI32WrapI64:
		s.push(uint64(uint32(s.pop())))
	case opI32TruncF32S:
		r, ok := truncF32ToI32S(float32FromBits(s.pop()))
		trapIfInvalidConversion(ok)
		s.push(uint64(uint32(r)))
	case opI32TruncF32U:
		r, ok := truncF32ToI32U(float32FromBits(s.pop()))
		trapIfInvalidConversion(ok)
		s.push(uint64(r))
	case opI32TruncF64S:
		r, ok := truncF64ToI32S(float64FromBits(s.pop()))
		trapIfInvalidConversion(ok)
		s.push(uint64(uint32(r)))
	case opI32TruncF64U:
		r, ok := truncF64ToI32U(float64FromBits(s.pop()))
		trapIfInvalidConversion(ok)
		s.push(uint64(r))
	case opI64ExtendI32S:
		s.push(uint64(int64(int32(s.pop()))))
	case opI64ExtendI32U:
		s.push(uint64(uint32(s.pop())))
	case opI64TruncF32S:
		r, ok := truncF32ToI64S(float32FromBits(s.pop()))
		trapIfInvalidConversion(ok)
		s.push(uint64(r))
	case opI64TruncF32U:
		r, ok := truncF32ToI64U(float32FromBits(s.pop()))
		trapIfInvalidConversion(ok)
		s.push(r)
	case opI64TruncF64S:
		r, ok := truncF64ToI64S(float64FromBits(s.pop()))
		trapIfInvalidConversion(ok)
		s.push(uint64(r))
	case opI64TruncF64U:
		r, ok := truncF64ToI64U(float64FromBits(s.pop()))
		trapIfInvalidConversion(ok)
		s.push(r)
	case opF32ConvertI32S:
		s.push(bitsFromFloat32(float32(int32(s.pop()))))
	case opF32ConvertI32U:
		s.push(bitsFromFloat32(float32(uint32(s.pop()))))
	case opF32ConvertI64S:
		s.push(bitsFromFloat32(float32(int64(s.pop()))))
	case opF32ConvertI64U:
		s.push(bitsFromFloat32(float32(s.pop())))
	case opF32DemoteF64:
		s.push(bitsFromFloat32(float32(float64FromBits(s.pop()))))
	case opF64ConvertI32S:
		s.push(bitsFromFloat64(float64(int32(s.pop()))))
	case opF64ConvertI32U:
		s.push(bitsFromFloat64(float64(uint32(s.pop()))))
	case opF64ConvertI64S:
		s.push(bitsFromFloat64(float64(int64(s.pop()))))
	case opF64ConvertI64U:
		s.push(bitsFromFloat64(float64(s.pop())))
	case opF64PromoteF32:
		s.push(bitsFromFloat64(float64(float32FromBits(s.pop()))))
	case opI32ReinterpretF32:
		s.push(s.pop())
	case opI64ReinterpretF64:
		s.push(s.pop())
	case opF32ReinterpretI32:
		s.push(s.pop())
	case opF64ReinterpretI64:
		s.push(s.pop())

	default:
		panic(wasm.ErrIllegalOpcode)
	}
}

func trapDivIfNot(ok bool, divisor int32) {
	if ok {
		return
	}
	if divisor == 0 {
		panic(wasm.ErrTrapIntegerDivideByZero)
	}
	panic(wasm.ErrTrapIntegerOverflow)
}

func trapDivIfNot64(ok bool, divisor int64) {
	if ok {
		return
	}
	if divisor == 0 {
		panic(wasm.ErrTrapIntegerDivideByZero)
	}
	panic(wasm.ErrTrapIntegerOverflow)
}

func trapIfInvalidConversion(ok bool) {
	if !ok {
		panic(wasm.ErrTrapInvalidConversion)
	}
}
