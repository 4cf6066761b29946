// Package wasmcore is an embeddable WebAssembly 1.0 (MVP) decoder,
// validator, and byte-threaded interpreter. A Runtime compiles binaries
// into CompiledModules and links them against host- or module-supplied
// imports to produce instantiated, callable api.Module values.
package wasmcore

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/wasmrt/wasmcore/api"
	"github.com/wasmrt/wasmcore/internal/wasm"
	_ "github.com/wasmrt/wasmcore/internal/wasm/interpreter" // wires wasm.Invoke
)

// Runtime compiles and instantiates WebAssembly modules, and tracks
// instantiated modules by name so later-compiled modules can import from
// them.
type Runtime interface {
	// CompileModule decodes and validates a binary, without instantiating
	// it. The result may be instantiated more than once.
	CompileModule(binary []byte) (*CompiledModule, error)

	// InstantiateModule links compiled against imports satisfied by
	// previously instantiated modules (looked up by import module name)
	// and runs its start function, if any.
	InstantiateModule(compiled *CompiledModule, cfg *ModuleConfig) (api.Module, error)

	// NewHostModuleBuilder begins building a host module: a named bundle
	// of Go callbacks other modules can import from, addressed the same
	// way as any other instantiated module.
	NewHostModuleBuilder(name string) HostModuleBuilder

	// Module returns a previously instantiated module by its
	// instantiation name, or nil.
	Module(name string) api.Module

	// Close releases every module this runtime instantiated.
	Close() error
}

type runtime struct {
	mu      sync.Mutex
	cfg     *RuntimeConfig
	modules map[string]*moduleImpl
}

// NewRuntime returns a Runtime with the default RuntimeConfig.
func NewRuntime() Runtime {
	return NewRuntimeWithConfig(NewRuntimeConfig())
}

// NewRuntimeWithConfig returns a Runtime configured per cfg.
func NewRuntimeWithConfig(cfg *RuntimeConfig) Runtime {
	if cfg == nil {
		cfg = NewRuntimeConfig()
	}
	return &runtime{cfg: cfg, modules: map[string]*moduleImpl{}}
}

func (r *runtime) logger() *logrus.Logger {
	if r.cfg.logger != nil {
		return r.cfg.logger
	}
	return logrus.StandardLogger()
}

func (r *runtime) CompileModule(binary []byte) (*CompiledModule, error) {
	mod, err := wasm.DecodeModule(binary)
	if err != nil {
		r.logger().WithFields(logrus.Fields{"kind": err.Kind.String(), "msg": err.Msg}).Warn("module decode failed")
		return nil, err
	}
	if r.cfg.memoryMaxPages > 0 && mod.Memory != nil {
		if !mod.Memory.Limits.HasMax || mod.Memory.Limits.Max > r.cfg.memoryMaxPages {
			mod.Memory.Limits.HasMax = true
			mod.Memory.Limits.Max = r.cfg.memoryMaxPages
		}
	}
	r.logger().WithFields(logrus.Fields{"sections": len(mod.Types) + len(mod.Imports) + len(mod.Functions) + len(mod.Exports)}).Debug("module compiled")
	return &CompiledModule{module: mod}, nil
}

func (r *runtime) InstantiateModule(compiled *CompiledModule, cfg *ModuleConfig) (api.Module, error) {
	if cfg == nil {
		cfg = NewModuleConfig()
	}
	imports := r.resolveImports(compiled.module)
	inst, ierr := wasm.Instantiate(compiled.module, imports)
	if ierr != nil {
		r.logger().WithFields(logrus.Fields{"module": cfg.name, "kind": ierr.Kind.String(), "msg": ierr.Msg}).Warn("instantiation failed")
		return nil, ierr
	}
	m := &moduleImpl{name: cfg.name, inst: inst}
	r.logger().WithFields(logrus.Fields{"module": cfg.name, "instance_id": inst.ID}).Debug("module instantiated")

	r.mu.Lock()
	r.modules[cfg.name] = m
	r.mu.Unlock()
	return m, nil
}

func (r *runtime) NewHostModuleBuilder(name string) HostModuleBuilder {
	return &hostModuleBuilder{r: r, name: name}
}

func (r *runtime) Module(name string) api.Module {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.modules[name]; ok {
		return m
	}
	return nil
}

func (r *runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules = map[string]*moduleImpl{}
	return nil
}

// resolveImports builds the wasm.Imports two-level map mod needs by
// looking up each entry's source module among those already instantiated
// on this runtime. An import whose source module or export is missing is
// simply omitted: wasm.Instantiate's own resolution reports the precise
// ErrUnknownImport.
func (r *runtime) resolveImports(mod *wasm.Module) wasm.Imports {
	imports := wasm.Imports{}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, imp := range mod.Imports {
		src, ok := r.modules[imp.Module]
		if !ok {
			continue
		}
		kind, index, ok := src.inst.ExportKind(imp.Name)
		if !ok {
			continue
		}
		var ext *wasm.Extern
		switch kind {
		case api.ExternTypeFunc:
			ext = &wasm.Extern{Kind: kind, Function: src.inst.Functions[index]}
		case api.ExternTypeMemory:
			ext = &wasm.Extern{Kind: kind, Memory: src.inst.Memory}
		case api.ExternTypeTable:
			ext = &wasm.Extern{Kind: kind, Table: src.inst.Table}
		case api.ExternTypeGlobal:
			ext = &wasm.Extern{Kind: kind, Global: src.inst.Globals[index]}
		default:
			continue
		}
		if imports[imp.Module] == nil {
			imports[imp.Module] = map[string]*wasm.Extern{}
		}
		imports[imp.Module][imp.Name] = ext
	}
	return imports
}
