package wasm

// evalConstExpr evaluates the tiny constant-expression language allowed for
// global initializers, element-segment offsets, and data-segment offsets:
// constant pushes and global.get of an imported immutable global, combined
// with integer add/sub/mul, leaving exactly one value at `end`.
//
// resolvedGlobals is the instance's global vector as populated so far: a
// global.get target must be an entry already placed into it, and must be an
// import; a module-defined global is rejected as an unknown global.
func evalConstExpr(mod *Module, offset uint32, resolvedGlobals []*Global) (uint64, ValueType, *Error) {
	c := newCursor(mod.Bytes, offset)
	var stack []uint64
	var types []ValueType

	push := func(v uint64, t ValueType) {
		stack = append(stack, v)
		types = append(types, t)
	}

	for {
		op, err := c.u8()
		if err != nil {
			return 0, 0, err
		}
		switch op {
		case opI32Const:
			v, err := c.s32leb()
			if err != nil {
				return 0, 0, err
			}
			push(uint64(uint32(v)), ValueTypeI32)
		case opI64Const:
			v, err := c.s64leb()
			if err != nil {
				return 0, 0, err
			}
			push(uint64(v), ValueTypeI64)
		case opF32Const:
			b, err := c.bytes(4)
			if err != nil {
				return 0, 0, err
			}
			push(uint64(le32(b)), ValueTypeF32)
		case opF64Const:
			b, err := c.bytes(8)
			if err != nil {
				return 0, 0, err
			}
			push(le64(b), ValueTypeF64)
		case opGlobalGet:
			idx, err := c.u32leb()
			if err != nil {
				return 0, 0, err
			}
			if int(idx) >= len(resolvedGlobals) || mod.Globals[idx].Import == nil {
				return 0, 0, ErrUnknownGlobal
			}
			g := resolvedGlobals[idx]
			if g.Mutable {
				return 0, 0, ErrConstantExpressionRequired
			}
			push(g.Get(), g.Type)
		case opI32Add, opI32Sub, opI32Mul, opI64Add, opI64Sub, opI64Mul:
			if len(stack) < 2 {
				return 0, 0, ErrConstantExpressionRequired
			}
			b, a := stack[len(stack)-1], stack[len(stack)-2]
			bt, at := types[len(types)-1], types[len(types)-2]
			stack, types = stack[:len(stack)-2], types[:len(types)-2]
			var want ValueType
			switch op {
			case opI32Add, opI32Sub, opI32Mul:
				want = ValueTypeI32
			default:
				want = ValueTypeI64
			}
			if at != want || bt != want {
				return 0, 0, ErrTypeMismatch
			}
			var r uint64
			switch op {
			case opI32Add:
				r = uint64(uint32(a) + uint32(b))
			case opI32Sub:
				r = uint64(uint32(a) - uint32(b))
			case opI32Mul:
				r = uint64(uint32(a) * uint32(b))
			case opI64Add:
				r = a + b
			case opI64Sub:
				r = a - b
			case opI64Mul:
				r = a * b
			}
			push(r, want)
		case opEnd:
			if len(stack) != 1 {
				return 0, 0, ErrConstantExpressionRequired
			}
			return stack[0], types[0], nil
		default:
			return 0, 0, ErrConstantExpressionRequired
		}
	}
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func le64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}
