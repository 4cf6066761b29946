package wasmcore

import (
	"github.com/wasmrt/wasmcore/api"
	"github.com/wasmrt/wasmcore/internal/wasm"
)

// functionImpl adapts a *wasm.Function, bound to its owning instance and
// index within that instance's function space, to the public api.Function
// surface.
type functionImpl struct {
	owner *wasm.Instance
	index uint32
	fn    *wasm.Function
}

var _ api.Function = (*functionImpl)(nil)

func (f *functionImpl) ParamTypes() []api.ValueType  { return f.fn.Type.Params }
func (f *functionImpl) ResultTypes() []api.ValueType { return f.fn.Type.Results }

func (f *functionImpl) Call(params ...uint64) ([]uint64, error) {
	if len(params) != len(f.fn.Type.Params) {
		return nil, wasm.ErrTrapInvalidArgumentCount
	}
	results, err := wasm.Invoke(f.owner, f.index, params)
	if err != nil {
		return nil, err
	}
	return results, nil
}
