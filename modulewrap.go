package wasmcore

import (
	"fmt"

	"github.com/wasmrt/wasmcore/api"
	"github.com/wasmrt/wasmcore/internal/wasm"
)

// moduleImpl adapts a *wasm.Instance to the public api.Module surface.
type moduleImpl struct {
	name string
	inst *wasm.Instance
}

var _ api.Module = (*moduleImpl)(nil)

func (m *moduleImpl) Name() string { return m.name }

func (m *moduleImpl) String() string {
	return fmt.Sprintf("Module[%s]", m.name)
}

func (m *moduleImpl) Memory() api.Memory {
	if m.inst.Memory == nil {
		return nil
	}
	return &memoryImpl{m.inst.Memory}
}

func (m *moduleImpl) ExportedFunction(name string) api.Function {
	kind, index, ok := m.inst.ExportKind(name)
	if !ok || kind != api.ExternTypeFunc {
		return nil
	}
	return &functionImpl{owner: m.inst, index: index, fn: m.inst.Functions[index]}
}

func (m *moduleImpl) ExportedMemory(name string) api.Memory {
	mem := m.inst.ExportedMemory(name)
	if mem == nil {
		return nil
	}
	return &memoryImpl{mem}
}

func (m *moduleImpl) ExportedGlobal(name string) api.Global {
	g := m.inst.ExportedGlobal(name)
	if g == nil {
		return nil
	}
	return &globalImpl{g}
}
