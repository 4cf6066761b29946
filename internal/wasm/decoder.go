package wasm

import "github.com/sirupsen/logrus"

const (
	magicHeader = 0x6d736100 // "\0asm" as a little-endian uint32
	mvpVersion  = 1
)

const maxLocals = 50000

// DecodeModule parses and validates a WebAssembly binary, returning the
// immutable Module used to build instances. It runs the function-body
// validator as each code-section entry is read, the same single pass as
// decoding: by the time the code section has been consumed every function
// in it has already been checked and has its side-table entries populated.
func DecodeModule(data []byte) (*Module, *Error) {
	c := newCursor(data, 0)

	if err := checkHeader(c); err != nil {
		return nil, err
	}

	m := &Module{Bytes: data, SideTable: map[uint32]*SideTableEntry{}}
	var funcTypeIndices []uint32 // from the function section, consumed by the code section
	var lastNonCustomID byte = 0xff
	sawCode := false

	for !c.eof() {
		id, err := c.u8()
		if err != nil {
			return nil, err
		}
		size, err := c.u32leb()
		if err != nil {
			return nil, err
		}
		sectionStart := c.pos
		sectionEnd := uint64(sectionStart) + uint64(size)
		if sectionEnd > uint64(len(data)) {
			return nil, ErrLengthOutOfBounds
		}

		if id == SectionIDCustom {
			logrus.WithField("size", size).Trace("skipping custom section")
			c.pos = uint32(sectionEnd)
			continue
		}
		if id > SectionIDData {
			return nil, ErrInvalidSectionID
		}
		if lastNonCustomID != 0xff && id <= lastNonCustomID {
			return nil, ErrInvalidSectionID
		}
		lastNonCustomID = id

		switch id {
		case SectionIDType:
			if err := decodeTypeSection(c, m); err != nil {
				return nil, err
			}
		case SectionIDImport:
			if err := decodeImportSection(c, m); err != nil {
				return nil, err
			}
		case SectionIDFunction:
			fti, err := decodeFunctionSection(c)
			if err != nil {
				return nil, err
			}
			funcTypeIndices = fti
			for _, ti := range fti {
				if int(ti) >= len(m.Types) {
					return nil, ErrUnknownType
				}
				m.Functions = append(m.Functions, &FunctionDescriptor{TypeIndex: ti})
			}
		case SectionIDTable:
			if err := decodeTableSection(c, m); err != nil {
				return nil, err
			}
		case SectionIDMemory:
			if err := decodeMemorySection(c, m); err != nil {
				return nil, err
			}
		case SectionIDGlobal:
			if err := decodeGlobalSection(c, m); err != nil {
				return nil, err
			}
		case SectionIDExport:
			if err := decodeExportSection(c, m); err != nil {
				return nil, err
			}
		case SectionIDStart:
			idx, err := c.u32leb()
			if err != nil {
				return nil, err
			}
			if int(idx) >= len(m.Functions) {
				return nil, ErrUnknownFunction
			}
			if ft := m.Types[m.Functions[idx].TypeIndex]; len(ft.Params) != 0 || len(ft.Results) != 0 {
				return nil, ErrInvalidStartFunction
			}
			m.HasStart = true
			m.StartIndex = idx
		case SectionIDElement:
			if err := decodeElementSection(c, m); err != nil {
				return nil, err
			}
		case SectionIDCode:
			sawCode = true
			if err := decodeCodeSection(c, m, funcTypeIndices); err != nil {
				return nil, err
			}
		case SectionIDData:
			if err := decodeDataSection(c, m); err != nil {
				return nil, err
			}
		}

		if c.pos != uint32(sectionEnd) {
			return nil, ErrSectionSizeMismatch
		}
	}

	numCodeOnlyFuncs := len(funcTypeIndices)
	if numCodeOnlyFuncs > 0 && !sawCode {
		return nil, ErrFunctionCodeLengthMismatch
	}

	return m, nil
}

func checkHeader(c *cursor) *Error {
	magic, err := c.bytes(4)
	if err != nil {
		return ErrMagicHeaderNotDetected
	}
	if !(magic[0] == 0x00 && magic[1] == 0x61 && magic[2] == 0x73 && magic[3] == 0x6d) {
		return ErrMagicHeaderNotDetected
	}
	ver, err := c.bytes(4)
	if err != nil {
		return ErrUnknownBinaryVersion
	}
	if !(ver[0] == 1 && ver[1] == 0 && ver[2] == 0 && ver[3] == 0) {
		return ErrUnknownBinaryVersion
	}
	return nil
}

func decodeTypeSection(c *cursor, m *Module) *Error {
	n, err := c.u32leb()
	if err != nil {
		return err
	}
	m.Types = make([]*FunctionType, n)
	for i := range m.Types {
		form, err := c.u8()
		if err != nil {
			return err
		}
		if form != 0x60 {
			return ErrUnknownType
		}
		params, err := decodeValueTypeVec(c)
		if err != nil {
			return err
		}
		results, err := decodeValueTypeVec(c)
		if err != nil {
			return err
		}
		if len(results) > 1 {
			return ErrInvalidResultArity
		}
		m.Types[i] = &FunctionType{Params: params, Results: results}
	}
	return nil
}

func decodeValueTypeVec(c *cursor) ([]ValueType, *Error) {
	n, err := c.u32leb()
	if err != nil {
		return nil, err
	}
	out := make([]ValueType, n)
	for i := range out {
		b, err := c.u8()
		if err != nil {
			return nil, err
		}
		vt, ok := checkValueType(b)
		if !ok {
			return nil, ErrUnknownType
		}
		out[i] = vt
	}
	return out, nil
}

func checkValueType(b byte) (ValueType, bool) {
	switch b {
	case ValueTypeI32, ValueTypeI64, ValueTypeF32, ValueTypeF64:
		return b, true
	}
	return 0, false
}

func decodeImportSection(c *cursor, m *Module) *Error {
	n, err := c.u32leb()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		modName, err := c.name()
		if err != nil {
			return err
		}
		fieldName, err := c.name()
		if err != nil {
			return err
		}
		kind, err := c.u8()
		if err != nil {
			return err
		}
		imp := &Import{Module: modName, Name: fieldName, Kind: kind}
		switch kind {
		case extKindFunc:
			ti, err := c.u32leb()
			if err != nil {
				return err
			}
			if int(ti) >= len(m.Types) {
				return ErrUnknownType
			}
			imp.TypeIndex = ti
			m.Functions = append(m.Functions, &FunctionDescriptor{TypeIndex: ti, Import: imp})
		case extKindTable:
			elemType, err := c.u8()
			if err != nil {
				return err
			}
			if elemType != 0x70 {
				return ErrInvalidImportKind
			}
			lim, err := c.limits()
			if err != nil {
				return err
			}
			if m.Table != nil {
				return ErrMultipleTables
			}
			imp.Limits = lim
			m.Table = &TableDescriptor{Limits: lim, Import: imp}
		case extKindMemory:
			lim, err := c.limits()
			if err != nil {
				return err
			}
			if lim.HasMax && lim.Max > MemoryMaxPages {
				return ErrMemorySizeOutOfBounds
			}
			if m.Memory != nil {
				return ErrMultipleMemories
			}
			imp.Limits = lim
			m.Memory = &MemoryDescriptor{Limits: lim, Import: imp}
		case extKindGlobal:
			vt, err := c.u8()
			if err != nil {
				return err
			}
			typ, ok := checkValueType(vt)
			if !ok {
				return ErrUnknownType
			}
			mutFlag, err := c.u1leb()
			if err != nil {
				return err
			}
			imp.GlobalType = typ
			imp.GlobalMutable = mutFlag == 1
			m.Globals = append(m.Globals, &GlobalDescriptor{Type: typ, Mutable: mutFlag == 1, Import: imp})
		default:
			return ErrInvalidImportKind
		}
		m.Imports = append(m.Imports, imp)
	}
	return nil
}

func decodeFunctionSection(c *cursor) ([]uint32, *Error) {
	n, err := c.u32leb()
	if err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i := range out {
		ti, err := c.u32leb()
		if err != nil {
			return nil, err
		}
		out[i] = ti
	}
	return out, nil
}

func decodeTableSection(c *cursor, m *Module) *Error {
	n, err := c.u32leb()
	if err != nil {
		return err
	}
	if n > 1 {
		return ErrMultipleTables
	}
	for i := uint32(0); i < n; i++ {
		elemType, err := c.u8()
		if err != nil {
			return err
		}
		if elemType != 0x70 {
			return ErrInvalidImportKind
		}
		lim, err := c.limits()
		if err != nil {
			return err
		}
		if m.Table != nil {
			return ErrMultipleTables
		}
		m.Table = &TableDescriptor{Limits: lim}
	}
	return nil
}

func decodeMemorySection(c *cursor, m *Module) *Error {
	n, err := c.u32leb()
	if err != nil {
		return err
	}
	if n > 1 {
		return ErrMultipleMemories
	}
	for i := uint32(0); i < n; i++ {
		lim, err := c.limits()
		if err != nil {
			return err
		}
		if lim.HasMax && lim.Max > MemoryMaxPages {
			return ErrMemorySizeOutOfBounds
		}
		if lim.Min > MemoryMaxPages {
			return ErrMemorySizeOutOfBounds
		}
		if m.Memory != nil {
			return ErrMultipleMemories
		}
		m.Memory = &MemoryDescriptor{Limits: lim}
	}
	return nil
}

func decodeGlobalSection(c *cursor, m *Module) *Error {
	n, err := c.u32leb()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		vt, err := c.u8()
		if err != nil {
			return err
		}
		typ, ok := checkValueType(vt)
		if !ok {
			return ErrUnknownType
		}
		mutFlag, err := c.u1leb()
		if err != nil {
			return err
		}
		offset := c.pos
		if err := skipConstExpr(c); err != nil {
			return err
		}
		m.Globals = append(m.Globals, &GlobalDescriptor{
			Type: typ, Mutable: mutFlag == 1, InitExprOffset: offset,
		})
	}
	return nil
}

// skipConstExpr advances c past a constant expression without evaluating
// it, recording nothing but its presence; full evaluation happens later
// against a specific instance's resolved globals.
func skipConstExpr(c *cursor) *Error {
	depth := 0
	for {
		op, err := c.u8()
		if err != nil {
			return err
		}
		switch op {
		case opI32Const:
			if _, err := c.s32leb(); err != nil {
				return err
			}
		case opI64Const:
			if _, err := c.s64leb(); err != nil {
				return err
			}
		case opF32Const:
			if _, err := c.bytes(4); err != nil {
				return err
			}
		case opF64Const:
			if _, err := c.bytes(8); err != nil {
				return err
			}
		case opGlobalGet:
			if _, err := c.u32leb(); err != nil {
				return err
			}
		case opI32Add, opI32Sub, opI32Mul, opI64Add, opI64Sub, opI64Mul:
		case opEnd:
			if depth == 0 {
				return nil
			}
			depth--
		default:
			return ErrConstantExpressionRequired
		}
	}
}

func decodeExportSection(c *cursor, m *Module) *Error {
	n, err := c.u32leb()
	if err != nil {
		return err
	}
	seen := map[string]bool{}
	for i := uint32(0); i < n; i++ {
		name, err := c.name()
		if err != nil {
			return err
		}
		if seen[name] {
			return ErrDuplicateExportName
		}
		seen[name] = true
		kind, err := c.u8()
		if err != nil {
			return err
		}
		idx, err := c.u32leb()
		if err != nil {
			return err
		}
		switch kind {
		case extKindFunc:
			if int(idx) >= len(m.Functions) {
				return ErrUnknownFunction
			}
		case extKindTable:
			if m.Table == nil || idx != 0 {
				return ErrUnknownTable
			}
		case extKindMemory:
			if m.Memory == nil || idx != 0 {
				return ErrUnknownMemory
			}
		case extKindGlobal:
			if int(idx) >= len(m.Globals) {
				return ErrUnknownGlobal
			}
		default:
			return ErrInvalidExportDescription
		}
		m.Exports = append(m.Exports, &Export{Name: name, Kind: kind, Index: idx})
	}
	return nil
}

func decodeElementSection(c *cursor, m *Module) *Error {
	n, err := c.u32leb()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		tableIdx, err := c.u32leb()
		if err != nil {
			return err
		}
		if tableIdx != 0 {
			return ErrUnknownTable
		}
		offset := c.pos
		if err := skipConstExpr(c); err != nil {
			return err
		}
		count, err := c.u32leb()
		if err != nil {
			return err
		}
		indices := make([]uint32, count)
		for j := range indices {
			idx, err := c.u32leb()
			if err != nil {
				return err
			}
			if int(idx) >= len(m.Functions) {
				return ErrUnknownFunction
			}
			indices[j] = idx
		}
		m.Elements = append(m.Elements, &ElementSegment{OffsetExprOffset: offset, FuncIndices: indices})
	}
	return nil
}

func decodeDataSection(c *cursor, m *Module) *Error {
	n, err := c.u32leb()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		memIdx, err := c.u32leb()
		if err != nil {
			return err
		}
		if memIdx != 0 {
			return ErrUnknownMemory
		}
		offset := c.pos
		if err := skipConstExpr(c); err != nil {
			return err
		}
		size, err := c.u32leb()
		if err != nil {
			return err
		}
		bytes, err := c.bytes(size)
		if err != nil {
			return err
		}
		data := append([]byte(nil), bytes...)
		m.Data = append(m.Data, &DataSegment{OffsetExprOffset: offset, Data: data})
	}
	return nil
}

func decodeCodeSection(c *cursor, m *Module, funcTypeIndices []uint32) *Error {
	n, err := c.u32leb()
	if err != nil {
		return err
	}
	if int(n) != len(funcTypeIndices) {
		return ErrFunctionCodeLengthMismatch
	}
	importedCount := m.NumImportedFunctions()
	for i := uint32(0); i < n; i++ {
		bodySize, err := c.u32leb()
		if err != nil {
			return err
		}
		bodyStart := c.pos
		bodyEnd := bodyStart + bodySize
		if uint64(bodyEnd) > uint64(len(c.data)) {
			return ErrLengthOutOfBounds
		}

		fd := m.Functions[importedCount+int(i)]
		ft := m.Types[fd.TypeIndex]

		locals, numDeclared, err := decodeLocals(c, ft)
		if err != nil {
			return err
		}
		fd.Locals = locals
		fd.NumDeclaredLocals = numDeclared
		fd.BodyStart = c.pos

		endPC, err := validateFunctionBody(m, fd, ft)
		if err != nil {
			return err
		}
		fd.BodyEnd = endPC
		c.pos = endPC

		if c.pos != bodyEnd {
			return ErrFunctionCodeLengthMismatch
		}
	}
	return nil
}

func decodeLocals(c *cursor, ft *FunctionType) ([]ValueType, uint32, *Error) {
	groupCount, err := c.u32leb()
	if err != nil {
		return nil, 0, err
	}
	locals := append([]ValueType(nil), ft.Params...)
	var total uint64
	for i := uint32(0); i < groupCount; i++ {
		count, err := c.u32leb()
		if err != nil {
			return nil, 0, err
		}
		vt, err := c.u8()
		if err != nil {
			return nil, 0, err
		}
		typ, ok := checkValueType(vt)
		if !ok {
			return nil, 0, ErrUnknownType
		}
		total += uint64(count)
		if total > maxLocals {
			return nil, 0, ErrTooManyLocals
		}
		for j := uint32(0); j < count; j++ {
			locals = append(locals, typ)
		}
	}
	return locals, uint32(total), nil
}
