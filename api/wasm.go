// Package api includes the types and interfaces shared between wasmcore's
// public Runtime API and its internal implementation.
package api

import "fmt"

// ValueType describes a WebAssembly 1.0 (MVP) numeric value type.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#binary-valtype
type ValueType = byte

const (
	// ValueTypeI32 is a 32-bit integer.
	ValueTypeI32 ValueType = 0x7f
	// ValueTypeI64 is a 64-bit integer.
	ValueTypeI64 ValueType = 0x7e
	// ValueTypeF32 is a 32-bit IEEE-754 floating point number.
	ValueTypeF32 ValueType = 0x7d
	// ValueTypeF64 is a 64-bit IEEE-754 floating point number.
	ValueTypeF64 ValueType = 0x7c
)

// ValueTypeName returns the WebAssembly text format name of t, or "unknown".
func ValueTypeName(t ValueType) string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	}
	return "unknown"
}

// ExternType classifies an import or export.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#external-types%E2%91%A0
type ExternType = byte

const (
	ExternTypeFunc   ExternType = 0x00
	ExternTypeTable  ExternType = 0x01
	ExternTypeMemory ExternType = 0x02
	ExternTypeGlobal ExternType = 0x03
)

// ExternTypeName returns the WebAssembly text format field name for et.
func ExternTypeName(et ExternType) string {
	switch et {
	case ExternTypeFunc:
		return "func"
	case ExternTypeTable:
		return "table"
	case ExternTypeMemory:
		return "memory"
	case ExternTypeGlobal:
		return "global"
	}
	return fmt.Sprintf("%#x", et)
}

// GoFunction is the callback signature for a host function: it receives the
// callee's parameters as a read-only slice, encoded per Value, and returns
// zero or one result value (the MVP allows at most one result). It executes
// synchronously on the interpreter's calling context.
//
// Implementations may re-enter the runtime (e.g. call an exported function
// of the module that imported them); the combined call depth is still
// subject to the interpreter's call-stack cap.
type GoFunction func(params []uint64) (result uint64, hasResult bool)

// Memory is the linear memory of an instantiated module.
type Memory interface {
	// Size returns the current size in bytes.
	Size() uint32
	// Grow increases the size by delta pages (64KiB each), returning the
	// previous page count, or false if it would exceed the maximum.
	Grow(deltaPages uint32) (previousPages uint32, ok bool)
	// Read reads byteCount bytes starting at offset.
	Read(offset, byteCount uint32) ([]byte, bool)
	// Write writes v to offset.
	Write(offset uint32, v []byte) bool
}

// Global is an exported or imported global variable.
type Global interface {
	Type() ValueType
	// Get returns the current value, encoded per Value.
	Get() uint64
}

// MutableGlobal is a Global that can also be set.
type MutableGlobal interface {
	Global
	Set(v uint64)
}

// Function is an exported function, bound to its defining instance.
type Function interface {
	// ParamTypes and ResultTypes describe the function's parameter and
	// result types.
	ParamTypes() []ValueType
	ResultTypes() []ValueType
	// Call invokes the function with the given arguments (encoded per
	// Value) and returns its results (zero or one value in the MVP), or a
	// classified error if it traps.
	Call(params ...uint64) ([]uint64, error)
}

// Module is an instantiated WebAssembly module.
type Module interface {
	fmt.Stringer

	// Name is the name this module was instantiated with.
	Name() string
	// Memory returns the module's memory, or nil if it declares none.
	Memory() Memory
	// ExportedFunction returns a function exported under name, or nil.
	ExportedFunction(name string) Function
	// ExportedMemory returns a memory exported under name, or nil.
	ExportedMemory(name string) Memory
	// ExportedGlobal returns a global exported under name, or nil.
	ExportedGlobal(name string) Global
}
