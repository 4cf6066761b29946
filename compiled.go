package wasmcore

import (
	"github.com/wasmrt/wasmcore/api"
	"github.com/wasmrt/wasmcore/internal/wasm"
)

// CompiledModule is the validated, not-yet-instantiated result of
// compiling a binary: shared, read-only, safe to instantiate more than
// once.
type CompiledModule struct {
	module *wasm.Module
}

// ImportedFunc describes one function import for inspection purposes.
type ImportedFunc struct {
	Module, Name string
	ParamTypes   []api.ValueType
	ResultTypes  []api.ValueType
}

// ExportedItem describes one export for inspection purposes.
type ExportedItem struct {
	Name string
	Kind api.ExternType
}

// ImportedFunctions lists every function import in declaration order.
func (c *CompiledModule) ImportedFunctions() []ImportedFunc {
	var out []ImportedFunc
	for _, imp := range c.module.Imports {
		if imp.Kind != api.ExternTypeFunc {
			continue
		}
		ft := c.module.Types[imp.TypeIndex]
		out = append(out, ImportedFunc{Module: imp.Module, Name: imp.Name, ParamTypes: ft.Params, ResultTypes: ft.Results})
	}
	return out
}

// Exports lists every export in declaration order.
func (c *CompiledModule) Exports() []ExportedItem {
	out := make([]ExportedItem, len(c.module.Exports))
	for i, e := range c.module.Exports {
		out[i] = ExportedItem{Name: e.Name, Kind: e.Kind}
	}
	return out
}

// FunctionCount returns the size of the function index space (imports plus
// locally defined functions).
func (c *CompiledModule) FunctionCount() int { return len(c.module.Functions) }

// HasMemory reports whether the module declares or imports a memory.
func (c *CompiledModule) HasMemory() bool { return c.module.Memory != nil }

// HasTable reports whether the module declares or imports a table.
func (c *CompiledModule) HasTable() bool { return c.module.Table != nil }

// GlobalCount returns the size of the global index space.
func (c *CompiledModule) GlobalCount() int { return len(c.module.Globals) }
