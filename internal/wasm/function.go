package wasm

import "github.com/wasmrt/wasmcore/api"

// FunctionKind distinguishes the three shapes a resolved, callable function
// can take at runtime.
type FunctionKind int

const (
	// FunctionKindOwned is a wasm function whose body lives in this
	// instance's own module.
	FunctionKindOwned FunctionKind = iota
	// FunctionKindImportedWasm is a wasm function owned by another,
	// already-instantiated module, reached through Owner/OwnerIndex.
	// Instance linking does not create this kind: a wasm import is the
	// exporter's own FunctionKindOwned *Function, whose Owner is the
	// exporting instance, placed directly into the importer's function
	// vector.
	FunctionKindImportedWasm
	// FunctionKindHost is a Go callback supplied by the embedder.
	FunctionKindHost
)

// Function is the single runtime representation of anything callable,
// whether defined locally, imported from another instance, or supplied by
// the host.
type Function struct {
	Kind FunctionKind
	Type *FunctionType
	Sig  RuntimeSignature

	// Owned fields (FunctionKindOwned).
	PCStart     uint32
	LocalsCount uint32

	// Owner fields (FunctionKindOwned and FunctionKindImportedWasm): the
	// callee lives in Owner's function vector at OwnerIndex. Nil for host
	// functions.
	Owner      *Instance
	OwnerIndex uint32

	// Host fields (FunctionKindHost).
	HostFn api.GoFunction
}
