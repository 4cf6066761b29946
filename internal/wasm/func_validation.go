package wasm

// typeUnknown is the validator's polymorphic stack-slot sentinel: it
// matches any expected type, used for the unreachable code that follows
// `unreachable` (and anywhere else the stack becomes polymorphic). No real
// ValueType is ever 0, so it's safe as a sentinel.
const typeUnknown ValueType = 0

// vframe is the validator's control-flow stack entry: enough to type-check
// the block's body and, once closed, to emit its SideTableEntry.
type vframe struct {
	opcode      byte // 0 for the function's own implicit frame
	in, out     []ValueType
	height      int
	unreachable bool
	offset      uint32 // byte offset of the block/loop/if opcode itself
	bodyPC      uint32
	elsePC      uint32
	sawElse     bool
}

type validator struct {
	mod    *Module
	locals []ValueType
	opds   []ValueType
	ctrl   []vframe
	c      *cursor
}

func validateFunctionBody(mod *Module, fd *FunctionDescriptor, ft *FunctionType) (uint32, *Error) {
	v := &validator{
		mod:    mod,
		locals: fd.Locals,
		c:      newCursor(mod.Bytes, fd.BodyStart),
	}
	v.pushCtrl(0, nil, ft.Results, fd.BodyStart)

	for {
		if len(v.ctrl) == 0 {
			return v.c.pos, nil
		}
		opcodeOffset := v.c.pos
		op, err := v.c.u8()
		if err != nil {
			return 0, err
		}

		switch op {
		case opUnreachable:
			v.setUnreachable()
		case opNop:

		case opBlock, opLoop, opIf:
			in, out, err := v.blockType()
			if err != nil {
				return 0, err
			}
			if err := v.popOpds(in); err != nil {
				return 0, err
			}
			if op == opIf {
				if err := v.popOpd(ValueTypeI32); err != nil {
					return 0, err
				}
			}
			v.pushCtrl(op, in, out, opcodeOffset)
			v.ctrl[len(v.ctrl)-1].bodyPC = v.c.pos

		case opElse:
			frame, err := v.popCtrlKeep()
			if err != nil {
				return 0, err
			}
			if frame.opcode != opIf {
				return 0, ErrElseMustCloseIf
			}
			v.mod.SideTable[frame.offset] = &SideTableEntry{
				BodyPC: frame.bodyPC, ElsePC: v.c.pos, EndPC: 0,
				ParamsLen: uint32(len(frame.in)), HasResult: len(frame.out) == 1,
			}
			v.ctrl[len(v.ctrl)-1].sawElse = true
			v.ctrl[len(v.ctrl)-1].unreachable = false
			v.opds = v.opds[:v.ctrl[len(v.ctrl)-1].height]
			v.pushOpds(frame.in)

		case opEnd:
			frame, err := v.popCtrl()
			if err != nil {
				return 0, err
			}
			if frame.opcode == opBlock || frame.opcode == opLoop || frame.opcode == opIf {
				entry := v.mod.SideTable[frame.offset]
				if entry == nil {
					entry = &SideTableEntry{
						BodyPC:    frame.bodyPC,
						ParamsLen: uint32(len(frame.in)),
						HasResult: len(frame.out) == 1,
					}
				}
				entry.EndPC = v.c.pos
				if entry.ElsePC == 0 {
					entry.ElsePC = entry.EndPC
				}
				v.mod.SideTable[frame.offset] = entry
			}
			v.pushOpds(frame.out)
			if len(v.ctrl) == 0 {
				return v.c.pos, nil
			}

		case opBr:
			depth, lerr := v.c.u32leb()
			if lerr != nil {
				return 0, lerr
			}
			labelTypes, err := v.labelTypes(depth)
			if err != nil {
				return 0, err
			}
			if err := v.popOpds(labelTypes); err != nil {
				return 0, err
			}
			v.setUnreachable()
		case opBrIf:
			depth, lerr := v.c.u32leb()
			if lerr != nil {
				return 0, lerr
			}
			if err := v.popOpd(ValueTypeI32); err != nil {
				return 0, err
			}
			labelTypes, err := v.labelTypes(depth)
			if err != nil {
				return 0, err
			}
			if err := v.popOpds(labelTypes); err != nil {
				return 0, err
			}
			v.pushOpds(labelTypes)
		case opBrTable:
			n, lerr := v.c.u32leb()
			if lerr != nil {
				return 0, lerr
			}
			var defaultTypes []ValueType
			for i := uint32(0); i < n; i++ {
				depth, lerr := v.c.u32leb()
				if lerr != nil {
					return 0, lerr
				}
				lt, err := v.labelTypes(depth)
				if err != nil {
					return 0, err
				}
				if i == 0 {
					defaultTypes = lt
				}
			}
			defDepth, lerr := v.c.u32leb()
			if lerr != nil {
				return 0, lerr
			}
			lt, err := v.labelTypes(defDepth)
			if err != nil {
				return 0, err
			}
			if defaultTypes == nil {
				defaultTypes = lt
			}
			if err := v.popOpd(ValueTypeI32); err != nil {
				return 0, err
			}
			if err := v.popOpds(lt); err != nil {
				return 0, err
			}
			v.setUnreachable()
		case opReturn:
			funcFrame := v.ctrl[0]
			if err := v.popOpds(funcFrame.out); err != nil {
				return 0, err
			}
			v.setUnreachable()

		case opCall:
			idx, lerr := v.c.u32leb()
			if lerr != nil {
				return 0, lerr
			}
			if int(idx) >= len(v.mod.Functions) {
				return 0, ErrUnknownFunction
			}
			ft := v.mod.Types[v.mod.Functions[idx].TypeIndex]
			if err := v.popOpds(ft.Params); err != nil {
				return 0, err
			}
			v.pushOpds(ft.Results)
		case opCallIndirect:
			typeIdx, lerr := v.c.u32leb()
			if lerr != nil {
				return 0, lerr
			}
			tableIdx, lerr := v.c.u32leb()
			if lerr != nil {
				return 0, lerr
			}
			if tableIdx != 0 {
				return 0, ErrUnknownTable
			}
			if v.mod.Table == nil {
				return 0, ErrUnknownTable
			}
			if int(typeIdx) >= len(v.mod.Types) {
				return 0, ErrUnknownType
			}
			ft := v.mod.Types[typeIdx]
			if err := v.popOpd(ValueTypeI32); err != nil {
				return 0, err
			}
			if err := v.popOpds(ft.Params); err != nil {
				return 0, err
			}
			v.pushOpds(ft.Results)

		case opDrop:
			if _, err := v.popOpdAny(); err != nil {
				return 0, err
			}
		case opSelect:
			if err := v.popOpd(ValueTypeI32); err != nil {
				return 0, err
			}
			t1, err := v.popOpdAny()
			if err != nil {
				return 0, err
			}
			if err := v.popOpd(t1); err != nil {
				return 0, err
			}
			v.pushOpd(t1)

		case opLocalGet:
			idx, lerr := v.c.u32leb()
			if lerr != nil {
				return 0, lerr
			}
			if int(idx) >= len(v.locals) {
				return 0, ErrUnknownLocal
			}
			v.pushOpd(v.locals[idx])
		case opLocalSet:
			idx, lerr := v.c.u32leb()
			if lerr != nil {
				return 0, lerr
			}
			if int(idx) >= len(v.locals) {
				return 0, ErrUnknownLocal
			}
			if err := v.popOpd(v.locals[idx]); err != nil {
				return 0, err
			}
		case opLocalTee:
			idx, lerr := v.c.u32leb()
			if lerr != nil {
				return 0, lerr
			}
			if int(idx) >= len(v.locals) {
				return 0, ErrUnknownLocal
			}
			if err := v.popOpd(v.locals[idx]); err != nil {
				return 0, err
			}
			v.pushOpd(v.locals[idx])
		case opGlobalGet:
			idx, lerr := v.c.u32leb()
			if lerr != nil {
				return 0, lerr
			}
			if int(idx) >= len(v.mod.Globals) {
				return 0, ErrUnknownGlobal
			}
			v.pushOpd(v.mod.Globals[idx].Type)
		case opGlobalSet:
			idx, lerr := v.c.u32leb()
			if lerr != nil {
				return 0, lerr
			}
			if int(idx) >= len(v.mod.Globals) {
				return 0, ErrUnknownGlobal
			}
			g := v.mod.Globals[idx]
			if !g.Mutable {
				return 0, ErrGlobalIsImmutable
			}
			if err := v.popOpd(g.Type); err != nil {
				return 0, err
			}

		case opMemorySize:
			if _, lerr := v.c.u8(); lerr != nil {
				return 0, lerr
			}
			if v.mod.Memory == nil {
				return 0, ErrUnknownMemory
			}
			v.pushOpd(ValueTypeI32)
		case opMemoryGrow:
			if _, lerr := v.c.u8(); lerr != nil {
				return 0, lerr
			}
			if v.mod.Memory == nil {
				return 0, ErrUnknownMemory
			}
			if err := v.popOpd(ValueTypeI32); err != nil {
				return 0, err
			}
			v.pushOpd(ValueTypeI32)

		case opI32Const:
			if _, lerr := v.c.s32leb(); lerr != nil {
				return 0, lerr
			}
			v.pushOpd(ValueTypeI32)
		case opI64Const:
			if _, lerr := v.c.s64leb(); lerr != nil {
				return 0, lerr
			}
			v.pushOpd(ValueTypeI64)
		case opF32Const:
			if _, lerr := v.c.bytes(4); lerr != nil {
				return 0, lerr
			}
			v.pushOpd(ValueTypeF32)
		case opF64Const:
			if _, lerr := v.c.bytes(8); lerr != nil {
				return 0, lerr
			}
			v.pushOpd(ValueTypeF64)

		default:
			if isLoadStoreOp(op) {
				if err := v.validateLoadStore(op); err != nil {
					return 0, err
				}
			} else if in, out, ok := numericSignature(op); ok {
				if err := v.popOpds(in); err != nil {
					return 0, err
				}
				v.pushOpds(out)
			} else {
				return 0, ErrIllegalOpcode
			}
		}
	}
}

// blockType decodes a block/loop/if type immediate: 0x40 for empty,
// a value-type byte for a single result, or a positive type index
// referring to a function type in the module's type section (the
// only way a block/loop/if can take params in this MVP).
func (v *validator) blockType() (in, out []ValueType, err *Error) {
	s, lerr := v.c.s33leb()
	if lerr != nil {
		return nil, nil, lerr
	}
	switch {
	case s == -64: // 0x40 empty
		return nil, nil, nil
	case s == -1:
		return nil, []ValueType{ValueTypeI32}, nil
	case s == -2:
		return nil, []ValueType{ValueTypeI64}, nil
	case s == -3:
		return nil, []ValueType{ValueTypeF32}, nil
	case s == -4:
		return nil, []ValueType{ValueTypeF64}, nil
	case s >= 0:
		if s >= int64(len(v.mod.Types)) {
			return nil, nil, ErrUnknownType
		}
		ft := v.mod.Types[s]
		return ft.Params, ft.Results, nil
	}
	return nil, nil, ErrUnknownType
}

func (v *validator) labelTypes(depth uint32) ([]ValueType, *Error) {
	if int(depth) >= len(v.ctrl) {
		return nil, ErrUnknownLabel
	}
	frame := v.ctrl[len(v.ctrl)-1-int(depth)]
	if frame.opcode == opLoop {
		return frame.in, nil
	}
	return frame.out, nil
}

func (v *validator) pushOpd(t ValueType) { v.opds = append(v.opds, t) }

func (v *validator) pushOpds(ts []ValueType) {
	for _, t := range ts {
		v.pushOpd(t)
	}
}

func (v *validator) popOpdAny() (ValueType, *Error) {
	top := &v.ctrl[len(v.ctrl)-1]
	if len(v.opds) == top.height {
		if top.unreachable {
			return typeUnknown, nil
		}
		return 0, ErrTypeMismatch
	}
	t := v.opds[len(v.opds)-1]
	v.opds = v.opds[:len(v.opds)-1]
	return t, nil
}

func (v *validator) popOpd(expect ValueType) *Error {
	actual, err := v.popOpdAny()
	if err != nil {
		return err
	}
	if actual != typeUnknown && expect != typeUnknown && actual != expect {
		return ErrTypeMismatch
	}
	return nil
}

func (v *validator) popOpds(ts []ValueType) *Error {
	for i := len(ts) - 1; i >= 0; i-- {
		if err := v.popOpd(ts[i]); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) pushCtrl(opcode byte, in, out []ValueType, offset uint32) {
	v.ctrl = append(v.ctrl, vframe{
		opcode: opcode, in: in, out: out, height: len(v.opds), offset: offset,
	})
	v.pushOpds(in)
}

// popCtrl validates and pops the innermost frame, asserting its result
// types are on top of the stack exactly as tall as when it started.
func (v *validator) popCtrl() (vframe, *Error) {
	top := v.ctrl[len(v.ctrl)-1]
	if err := v.popOpds(top.out); err != nil {
		return vframe{}, err
	}
	if len(v.opds) != top.height {
		return vframe{}, ErrTypeMismatch
	}
	v.ctrl = v.ctrl[:len(v.ctrl)-1]
	return top, nil
}

// popCtrlKeep pops like popCtrl but leaves the frame's record in place for
// `else`, which reopens a fresh body using the same frame's param types.
func (v *validator) popCtrlKeep() (vframe, *Error) {
	top := v.ctrl[len(v.ctrl)-1]
	if err := v.popOpds(top.out); err != nil {
		return vframe{}, err
	}
	if len(v.opds) != top.height {
		return vframe{}, ErrTypeMismatch
	}
	return top, nil
}

func (v *validator) setUnreachable() {
	top := &v.ctrl[len(v.ctrl)-1]
	v.opds = v.opds[:top.height]
	top.unreachable = true
}

func isLoadStoreOp(op byte) bool {
	return op >= opI32Load && op <= opI64Store32
}

// validateLoadStore checks a memarg (alignment, offset) and the load/store
// operand types; alignment must not exceed the access's natural width.
func (v *validator) validateLoadStore(op byte) *Error {
	if v.mod.Memory == nil {
		return ErrUnknownMemory
	}
	align, lerr := v.c.u32leb()
	if lerr != nil {
		return lerr
	}
	if _, lerr := v.c.u32leb(); lerr != nil { // offset
		return lerr
	}
	maxAlign, valType, isStore, operandType := loadStoreShape(op)
	if align > maxAlign {
		return ErrAlignmentTooLarge
	}
	if isStore {
		if err := v.popOpd(operandType); err != nil {
			return err
		}
		if err := v.popOpd(ValueTypeI32); err != nil {
			return err
		}
	} else {
		if err := v.popOpd(ValueTypeI32); err != nil {
			return err
		}
		v.pushOpd(valType)
	}
	return nil
}

// loadStoreShape returns the natural alignment exponent, the value type on
// the stack side (pushed for a load, popped for a store), whether op is a
// store, and (for stores) the operand type to pop.
func loadStoreShape(op byte) (maxAlign uint32, valType ValueType, isStore bool, operandType ValueType) {
	switch op {
	case opI32Load:
		return 2, ValueTypeI32, false, 0
	case opI64Load:
		return 3, ValueTypeI64, false, 0
	case opF32Load:
		return 2, ValueTypeF32, false, 0
	case opF64Load:
		return 3, ValueTypeF64, false, 0
	case opI32Load8S, opI32Load8U:
		return 0, ValueTypeI32, false, 0
	case opI32Load16S, opI32Load16U:
		return 1, ValueTypeI32, false, 0
	case opI64Load8S, opI64Load8U:
		return 0, ValueTypeI64, false, 0
	case opI64Load16S, opI64Load16U:
		return 1, ValueTypeI64, false, 0
	case opI64Load32S, opI64Load32U:
		return 2, ValueTypeI64, false, 0
	case opI32Store:
		return 2, 0, true, ValueTypeI32
	case opI64Store:
		return 3, 0, true, ValueTypeI64
	case opF32Store:
		return 2, 0, true, ValueTypeF32
	case opF64Store:
		return 3, 0, true, ValueTypeF64
	case opI32Store8:
		return 0, 0, true, ValueTypeI32
	case opI32Store16:
		return 1, 0, true, ValueTypeI32
	case opI64Store8:
		return 0, 0, true, ValueTypeI64
	case opI64Store16:
		return 1, 0, true, ValueTypeI64
	case opI64Store32:
		return 2, 0, true, ValueTypeI64
	}
	return 0, 0, false, 0
}

var (
	i32 = ValueTypeI32
	i64 = ValueTypeI64
	f32 = ValueTypeF32
	f64 = ValueTypeF64
)

// numericSignature returns the operand/result types for every comparison,
// arithmetic, bitwise, and conversion opcode that isn't otherwise handled
// above.
func numericSignature(op byte) (in, out []ValueType, ok bool) {
	unary := func(t ValueType) ([]ValueType, []ValueType, bool) { return []ValueType{t}, []ValueType{t}, true }
	binary := func(t ValueType) ([]ValueType, []ValueType, bool) {
		return []ValueType{t, t}, []ValueType{t}, true
	}
	cmp := func(t ValueType) ([]ValueType, []ValueType, bool) {
		return []ValueType{t, t}, []ValueType{i32}, true
	}
	conv := func(from, to ValueType) ([]ValueType, []ValueType, bool) {
		return []ValueType{from}, []ValueType{to}, true
	}

	switch op {
	case opI32Eqz:
		return []ValueType{i32}, []ValueType{i32}, true
	case opI64Eqz:
		return []ValueType{i64}, []ValueType{i32}, true

	case opI32Eq, opI32Ne, opI32LtS, opI32LtU, opI32GtS, opI32GtU, opI32LeS, opI32LeU, opI32GeS, opI32GeU:
		return cmp(i32)
	case opI64Eq, opI64Ne, opI64LtS, opI64LtU, opI64GtS, opI64GtU, opI64LeS, opI64LeU, opI64GeS, opI64GeU:
		return cmp(i64)
	case opF32Eq, opF32Ne, opF32Lt, opF32Gt, opF32Le, opF32Ge:
		return cmp(f32)
	case opF64Eq, opF64Ne, opF64Lt, opF64Gt, opF64Le, opF64Ge:
		return cmp(f64)

	case opI32Clz, opI32Ctz, opI32Popcnt:
		return unary(i32)
	case opI32Add, opI32Sub, opI32Mul, opI32DivS, opI32DivU, opI32RemS, opI32RemU,
		opI32And, opI32Or, opI32Xor, opI32Shl, opI32ShrS, opI32ShrU, opI32Rotl, opI32Rotr:
		return binary(i32)

	case opI64Clz, opI64Ctz, opI64Popcnt:
		return unary(i64)
	case opI64Add, opI64Sub, opI64Mul, opI64DivS, opI64DivU, opI64RemS, opI64RemU,
		opI64And, opI64Or, opI64Xor, opI64Shl, opI64ShrS, opI64ShrU, opI64Rotl, opI64Rotr:
		return binary(i64)

	case opF32Abs, opF32Neg, opF32Ceil, opF32Floor, opF32Trunc, opF32Nearest, opF32Sqrt:
		return unary(f32)
	case opF32Add, opF32Sub, opF32Mul, opF32Div, opF32Min, opF32Max, opF32Copysign:
		return binary(f32)
	case opF64Abs, opF64Neg, opF64Ceil, opF64Floor, opF64Trunc, opF64Nearest, opF64Sqrt:
		return unary(f64)
	case opF64Add, opF64Sub, opF64Mul, opF64Div, opF64Min, opF64Max, opF64Copysign:
		return binary(f64)

	case opI32WrapI64:
		return conv(i64, i32)
	case opI32TruncF32S, opI32TruncF32U:
		return conv(f32, i32)
	case opI32TruncF64S, opI32TruncF64U:
		return conv(f64, i32)
	case opI64ExtendI32S, opI64ExtendI32U:
		return conv(i32, i64)
	case opI64TruncF32S, opI64TruncF32U:
		return conv(f32, i64)
	case opI64TruncF64S, opI64TruncF64U:
		return conv(f64, i64)
	case opF32ConvertI32S, opF32ConvertI32U:
		return conv(i32, f32)
	case opF32ConvertI64S, opF32ConvertI64U:
		return conv(i64, f32)
	case opF32DemoteF64:
		return conv(f64, f32)
	case opF64ConvertI32S, opF64ConvertI32U:
		return conv(i32, f64)
	case opF64ConvertI64S, opF64ConvertI64U:
		return conv(i64, f64)
	case opF64PromoteF32:
		return conv(f32, f64)
	case opI32ReinterpretF32:
		return conv(f32, i32)
	case opI64ReinterpretF64:
		return conv(f64, i64)
	case opF32ReinterpretI32:
		return conv(i32, f32)
	case opF64ReinterpretI64:
		return conv(i64, f64)
	}
	return nil, nil, false
}
