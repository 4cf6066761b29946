package wasmcore

import (
	"github.com/sirupsen/logrus"

	"github.com/wasmrt/wasmcore/api"
	"github.com/wasmrt/wasmcore/internal/wasm"
)

// HostModuleBuilder builds a host module: a named bundle of Go callbacks
// addressable by other modules' imports the same way as any compiled
// WebAssembly module's exports.
type HostModuleBuilder interface {
	// NewFunctionBuilder begins describing one exported function.
	NewFunctionBuilder() HostFunctionBuilder
	// Instantiate finalizes the host module and registers it on the
	// owning Runtime under its name.
	Instantiate() (api.Module, error)
}

// HostFunctionBuilder describes a single host function before it is
// exported.
type HostFunctionBuilder interface {
	// WithFunc attaches fn with the given parameter and result types
	// (the MVP allows at most one result).
	WithFunc(fn api.GoFunction, params, results []api.ValueType) HostFunctionBuilder
	// Export finishes this function and returns to the owning builder,
	// under the given export name.
	Export(name string) HostModuleBuilder
}

type hostModuleBuilder struct {
	r     *runtime
	name  string
	specs []wasm.HostFuncSpec
}

func (b *hostModuleBuilder) NewFunctionBuilder() HostFunctionBuilder {
	return &hostFunctionBuilder{b: b}
}

func (b *hostModuleBuilder) Instantiate() (api.Module, error) {
	inst := wasm.NewHostInstance(b.specs)
	m := &moduleImpl{name: b.name, inst: inst}

	b.r.mu.Lock()
	b.r.modules[b.name] = m
	b.r.mu.Unlock()

	b.r.logger().WithFields(logrus.Fields{"module": b.name, "instance_id": inst.ID}).Debug("host module instantiated")
	return m, nil
}

type hostFunctionBuilder struct {
	b       *hostModuleBuilder
	fn      api.GoFunction
	params  []api.ValueType
	results []api.ValueType
}

func (f *hostFunctionBuilder) WithFunc(fn api.GoFunction, params, results []api.ValueType) HostFunctionBuilder {
	f.fn = fn
	f.params = params
	f.results = results
	return f
}

func (f *hostFunctionBuilder) Export(name string) HostModuleBuilder {
	f.b.specs = append(f.b.specs, wasm.HostFuncSpec{
		Name:    name,
		Params:  f.params,
		Results: f.results,
		Fn:      f.fn,
	})
	return f.b
}
