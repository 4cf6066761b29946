package wasmcore

import (
	"github.com/wasmrt/wasmcore/api"
	"github.com/wasmrt/wasmcore/internal/wasm"
)

// globalImpl adapts a *wasm.Global to the public api.Global/MutableGlobal
// surface.
type globalImpl struct {
	g *wasm.Global
}

var (
	_ api.Global        = (*globalImpl)(nil)
	_ api.MutableGlobal = (*globalImpl)(nil)
)

func (w *globalImpl) Type() api.ValueType { return w.g.Type }
func (w *globalImpl) Get() uint64         { return w.g.Get() }
func (w *globalImpl) Set(v uint64)        { w.g.Set(v) }
