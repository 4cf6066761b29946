package wasm

import (
	"strings"

	"github.com/wasmrt/wasmcore/api"
)

// ValueType re-exports api.ValueType so the rest of this package doesn't
// need to import api for the numeric type tags.
type ValueType = api.ValueType

const (
	ValueTypeI32 = api.ValueTypeI32
	ValueTypeI64 = api.ValueTypeI64
	ValueTypeF32 = api.ValueTypeF32
	ValueTypeF64 = api.ValueTypeF64
)

// MemoryMaxPages is the WebAssembly 1.0 hard limit: 65536 pages of 64KiB,
// i.e. 4GiB of addressable linear memory.
const MemoryMaxPages = 65536

// MemoryPageSize is 64KiB.
const MemoryPageSize = 65536

// FunctionType is a function signature: at most one result in the MVP.
type FunctionType struct {
	Params  []ValueType
	Results []ValueType
}

// String renders a FunctionType as e.g. "i32f64_null" for (i32, f64) -> ().
func (t *FunctionType) String() string {
	var b strings.Builder
	if len(t.Params) == 0 {
		b.WriteString("null")
	}
	for _, p := range t.Params {
		b.WriteString(api.ValueTypeName(p))
	}
	b.WriteByte('_')
	if len(t.Results) == 0 {
		b.WriteString("null")
	}
	for _, r := range t.Results {
		b.WriteString(api.ValueTypeName(r))
	}
	return b.String()
}

// hasResult reports whether this signature has exactly one result, the only
// arity the MVP allows.
func (t *FunctionType) hasResult() bool { return len(t.Results) == 1 }

// RuntimeSignature is a compact, bit-packed encoding of a FunctionType
// sufficient for O(1) equality checks, hottest on call_indirect. It packs:
//   - bits 0-7:  number of parameters (capped at 255; MVP bodies in
//     practice never approach this)
//   - bit 8:     has-result flag
//   - bits 9-10: the result's type, encoded like a parameter slot (zero
//     when there is no result)
//   - bits 16-47: two bits per parameter slot (up to 16 slots) encoding
//     which of {i32,i64,f32,f64} that parameter is; beyond 16 parameters
//     equality falls back to comparing the FunctionType directly.
type RuntimeSignature uint64

const maxPackedParams = 16

func valueTypeBits(t ValueType) uint64 {
	switch t {
	case ValueTypeI32:
		return 0
	case ValueTypeI64:
		return 1
	case ValueTypeF32:
		return 2
	case ValueTypeF64:
		return 3
	}
	return 0
}

// PackSignature computes the RuntimeSignature for ft. Returns ok=false if
// the signature has more params than maxPackedParams, in which case callers
// must fall back to SignatureEquals.
func PackSignature(ft *FunctionType) (sig RuntimeSignature, ok bool) {
	n := len(ft.Params)
	if n > maxPackedParams {
		return 0, false
	}
	var v uint64
	v |= uint64(n) & 0xff
	if ft.hasResult() {
		v |= 1 << 8
		v |= valueTypeBits(ft.Results[0]) << 9
	}
	for i, p := range ft.Params {
		v |= valueTypeBits(p) << (16 + uint(i)*2)
	}
	return RuntimeSignature(v), true
}

// SignatureEquals reports whether a and b describe the same signature: same
// parameter count, same result presence and result type, and identical
// per-slot parameter types.
// Falls back to direct FunctionType comparison when either side has more
// than maxPackedParams parameters.
func SignatureEquals(a, b *FunctionType) bool {
	pa, oka := PackSignature(a)
	pb, okb := PackSignature(b)
	if oka && okb {
		return pa == pb
	}
	if len(a.Params) != len(b.Params) || len(a.Results) != len(b.Results) {
		return false
	}
	for i := range a.Params {
		if a.Params[i] != b.Params[i] {
			return false
		}
	}
	for i := range a.Results {
		if a.Results[i] != b.Results[i] {
			return false
		}
	}
	return true
}

// SectionID identifies one of the eleven standard sections.
type SectionID = byte

const (
	SectionIDCustom SectionID = iota
	SectionIDType
	SectionIDImport
	SectionIDFunction
	SectionIDTable
	SectionIDMemory
	SectionIDGlobal
	SectionIDExport
	SectionIDStart
	SectionIDElement
	SectionIDCode
	SectionIDData
)

// SectionIDName returns the textual name of id, or "unknown".
func SectionIDName(id SectionID) string {
	switch id {
	case SectionIDCustom:
		return "custom"
	case SectionIDType:
		return "type"
	case SectionIDImport:
		return "import"
	case SectionIDFunction:
		return "function"
	case SectionIDTable:
		return "table"
	case SectionIDMemory:
		return "memory"
	case SectionIDGlobal:
		return "global"
	case SectionIDExport:
		return "export"
	case SectionIDStart:
		return "start"
	case SectionIDElement:
		return "element"
	case SectionIDCode:
		return "code"
	case SectionIDData:
		return "data"
	}
	return "unknown"
}
