package wasm

import "github.com/wasmrt/wasmcore/api"

// Limits is a min/max pair shared by table and memory descriptors.
type Limits struct {
	Min    uint32
	Max    uint32
	HasMax bool
}

// Import describes one entry of the import section.
type Import struct {
	Module string
	Name   string
	Kind   api.ExternType

	// TypeIndex is populated when Kind == ExternTypeFunc.
	TypeIndex uint32
	// Limits is populated when Kind is ExternTypeTable or ExternTypeMemory.
	Limits Limits
	// GlobalType/GlobalMutable are populated when Kind == ExternTypeGlobal.
	GlobalType    ValueType
	GlobalMutable bool
}

// FunctionDescriptor is one entry of the function index space: either
// backed by an import, or by a body decoded from the code section.
type FunctionDescriptor struct {
	TypeIndex uint32

	// Import is non-nil when this function is satisfied by an import
	// rather than a local body.
	Import *Import

	// BodyStart/BodyEnd bound the instruction bytes in Module.Bytes,
	// excluding the local-declaration prefix. Meaningless when Import != nil.
	BodyStart uint32
	BodyEnd   uint32

	// Locals holds params ++ declared locals, in order, local index order.
	// The first len(Type.Params) entries mirror the signature's params.
	Locals []ValueType

	// NumDeclaredLocals is len(Locals) - len(Type.Params): the locals this
	// function itself declares (default-zeroed on call).
	NumDeclaredLocals uint32
}

// TableDescriptor describes the module's single optional table.
type TableDescriptor struct {
	Limits Limits
	Import *Import
}

// MemoryDescriptor describes the module's single optional memory.
type MemoryDescriptor struct {
	Limits Limits
	Import *Import
}

// GlobalDescriptor describes one entry of the global index space.
type GlobalDescriptor struct {
	Type    ValueType
	Mutable bool

	// Import is non-nil when this global is satisfied by an import.
	Import *Import

	// InitExprOffset is the byte offset in Module.Bytes of the constant
	// initializer expression, meaningless when Import != nil.
	InitExprOffset uint32
}

// Export is one entry of the export section.
type Export struct {
	Name  string
	Kind  api.ExternType
	Index uint32
}

// ElementSegment is a collected (but not yet applied) table initializer:
// only the offset expression location and the function index vector are
// recorded at decode time; bounds checks happen at instantiation.
type ElementSegment struct {
	OffsetExprOffset uint32
	FuncIndices      []uint32
}

// DataSegment is a collected (but not yet applied) memory initializer.
type DataSegment struct {
	OffsetExprOffset uint32
	Data             []byte
}

// SideTableEntry is the validator's per-block output: the PCs a runtime
// branch into/out of this block needs, plus the block's param/result
// arity. Keyed by the byte offset of the block/loop/if opcode itself.
type SideTableEntry struct {
	// BodyPC is immediately after the block-type immediate.
	BodyPC uint32
	// EndPC is immediately after the matching `end` opcode.
	EndPC uint32
	// ElsePC is immediately after the `else` opcode if present, else equals
	// EndPC (only meaningful for `if`).
	ElsePC uint32
	// ParamsLen is the block's parameter arity (used by `loop` targets,
	// which re-push their params on re-entry).
	ParamsLen uint32
	// HasResult is the block's result arity (0 or 1 in the MVP).
	HasResult bool
}

// Module is the immutable, validated result of decoding a WebAssembly
// binary: shared read-only state for every Instance built from it.
type Module struct {
	// Bytes is the original module image; function bodies and constant
	// expressions are interpreted as byte ranges into this slice.
	Bytes []byte

	Types     []*FunctionType
	Imports   []*Import
	Functions []*FunctionDescriptor
	Table     *TableDescriptor
	Memory    *MemoryDescriptor
	Globals   []*GlobalDescriptor
	Exports   []*Export

	HasStart   bool
	StartIndex uint32

	Elements []*ElementSegment
	Data     []*DataSegment

	// SideTable maps the byte offset of every block/loop/if opcode to its
	// resolved PCs and arity, populated by the function validator.
	SideTable map[uint32]*SideTableEntry
}

// NumImportedFunctions returns how many entries of Functions are satisfied
// by an import (they are always a prefix of the function index space,
// since imports are decoded before the function/code sections).
func (m *Module) NumImportedFunctions() int {
	n := 0
	for _, f := range m.Functions {
		if f.Import != nil {
			n++
		} else {
			break
		}
	}
	return n
}

// ExportFor returns the export entry named name, or nil.
func (m *Module) ExportFor(name string) *Export {
	for _, e := range m.Exports {
		if e.Name == name {
			return e
		}
	}
	return nil
}
