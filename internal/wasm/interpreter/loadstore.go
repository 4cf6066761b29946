package interpreter

import "github.com/wasmrt/wasmcore/internal/wasm"

func isLoadStore(op byte) bool {
	switch op {
	case opI32Load, opI64Load, opF32Load, opF64Load,
		opI32Load8S, opI32Load8U, opI32Load16S, opI32Load16U,
		opI64Load8S, opI64Load8U, opI64Load16S, opI64Load16U, opI64Load32S, opI64Load32U,
		opI32Store, opI64Store, opF32Store, opF64Store,
		opI32Store8, opI32Store16, opI64Store8, opI64Store16, opI64Store32:
		return true
	}
	return false
}

// execLoadStore handles every memory instruction. Each one's immediate is a
// memarg: an alignment hint (ignored for correctness; validated at decode
// time) followed by an offset, both leb128 u32s.
func (s *execState) execLoadStore(op byte, pc *uint32) {
	mustU32(s, pc) // align
	offset := mustU32(s, pc)
	mem := s.inst.Memory

	switch op {
	case opI32Load:
		base := uint32(s.pop())
		v, ok := mem.ReadUint32(base, offset)
		trapIfOOB(ok)
		s.push(uint64(v))
	case opI64Load:
		base := uint32(s.pop())
		v, ok := mem.ReadUint64(base, offset)
		trapIfOOB(ok)
		s.push(v)
	case opF32Load:
		base := uint32(s.pop())
		v, ok := mem.ReadUint32(base, offset)
		trapIfOOB(ok)
		s.push(uint64(v))
	case opF64Load:
		base := uint32(s.pop())
		v, ok := mem.ReadUint64(base, offset)
		trapIfOOB(ok)
		s.push(v)
	case opI32Load8S:
		base := uint32(s.pop())
		v, ok := mem.ReadByte(base, offset)
		trapIfOOB(ok)
		s.push(uint64(uint32(int32(int8(v)))))
	case opI32Load8U:
		base := uint32(s.pop())
		v, ok := mem.ReadByte(base, offset)
		trapIfOOB(ok)
		s.push(uint64(v))
	case opI32Load16S:
		base := uint32(s.pop())
		v, ok := mem.ReadUint16(base, offset)
		trapIfOOB(ok)
		s.push(uint64(uint32(int32(int16(v)))))
	case opI32Load16U:
		base := uint32(s.pop())
		v, ok := mem.ReadUint16(base, offset)
		trapIfOOB(ok)
		s.push(uint64(v))
	case opI64Load8S:
		base := uint32(s.pop())
		v, ok := mem.ReadByte(base, offset)
		trapIfOOB(ok)
		s.push(uint64(int64(int8(v))))
	case opI64Load8U:
		base := uint32(s.pop())
		v, ok := mem.ReadByte(base, offset)
		trapIfOOB(ok)
		s.push(uint64(v))
	case opI64Load16S:
		base := uint32(s.pop())
		v, ok := mem.ReadUint16(base, offset)
		trapIfOOB(ok)
		s.push(uint64(int64(int16(v))))
	case opI64Load16U:
		base := uint32(s.pop())
		v, ok := mem.ReadUint16(base, offset)
		trapIfOOB(ok)
		s.push(uint64(v))
	case opI64Load32S:
		base := uint32(s.pop())
		v, ok := mem.ReadUint32(base, offset)
		trapIfOOB(ok)
		s.push(uint64(int64(int32(v))))
	case opI64Load32U:
		base := uint32(s.pop())
		v, ok := mem.ReadUint32(base, offset)
		trapIfOOB(ok)
		s.push(uint64(v))

	case opI32Store:
		v := uint32(s.pop())
		base := uint32(s.pop())
		trapIfOOB(mem.WriteUint32(base, offset, v))
	case opI64Store:
		v := s.pop()
		base := uint32(s.pop())
		trapIfOOB(mem.WriteUint64(base, offset, v))
	case opF32Store:
		v := uint32(s.pop())
		base := uint32(s.pop())
		trapIfOOB(mem.WriteUint32(base, offset, v))
	case opF64Store:
		v := s.pop()
		base := uint32(s.pop())
		trapIfOOB(mem.WriteUint64(base, offset, v))
	case opI32Store8:
		v := byte(uint32(s.pop()))
		base := uint32(s.pop())
		trapIfOOB(mem.WriteByte(base, offset, v))
	case opI32Store16:
		v := uint16(uint32(s.pop()))
		base := uint32(s.pop())
		trapIfOOB(mem.WriteUint16(base, offset, v))
	case opI64Store8:
		v := byte(s.pop())
		base := uint32(s.pop())
		trapIfOOB(mem.WriteByte(base, offset, v))
	case opI64Store16:
		v := uint16(s.pop())
		base := uint32(s.pop())
		trapIfOOB(mem.WriteUint16(base, offset, v))
	case opI64Store32:
		v := uint32(s.pop())
		base := uint32(s.pop())
		trapIfOOB(mem.WriteUint32(base, offset, v))
	}
}

func trapIfOOB(ok bool) {
	if !ok {
		panic(wasm.ErrTrapOutOfBoundsMemory)
	}
}
