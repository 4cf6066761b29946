package wasmcore

import (
	"github.com/wasmrt/wasmcore/api"
	"github.com/wasmrt/wasmcore/internal/wasm"
)

// memoryImpl adapts a *wasm.Memory to the public api.Memory surface.
type memoryImpl struct {
	m *wasm.Memory
}

var _ api.Memory = (*memoryImpl)(nil)

func (w *memoryImpl) Size() uint32 { return w.m.SizeBytes() }

func (w *memoryImpl) Grow(deltaPages uint32) (previousPages uint32, ok bool) {
	return w.m.Grow(deltaPages)
}

func (w *memoryImpl) Read(offset, byteCount uint32) ([]byte, bool) {
	return w.m.Read(offset, byteCount)
}

func (w *memoryImpl) Write(offset uint32, v []byte) bool {
	return w.m.Write(offset, v)
}
