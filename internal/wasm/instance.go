package wasm

import (
	"github.com/sirupsen/logrus"

	"github.com/wasmrt/wasmcore/api"
)

// Instance is a live, linked module: its own memory and table (or ones
// adopted from an import), its fully resolved function and global vectors,
// and the export names projected over them.
type Instance struct {
	ID     InstanceID
	Module *Module

	Memory  *Memory
	Table   *Table
	Globals []*Global

	// Functions is the complete function index space: imports first, then
	// locally defined functions, mirroring Module.Functions.
	Functions []*Function

	exports map[string]*Export
}

// Extern is a resolved import or export value: exactly one of the typed
// fields is populated, selected by Kind.
type Extern struct {
	Kind     byte
	Function *Function
	Table    *Table
	Memory   *Memory
	Global   *Global
}

// Imports maps module name -> field name -> the extern satisfying that
// import, supplied by the embedder before Instantiate runs.
type Imports map[string]map[string]*Extern

// Invoke is set by the interpreter package's init so this package can call
// into it without an import cycle: it runs the function at fnIndex in the
// function index space of inst with args, used for start functions and
// (via the public Function.Call wrapper) for all exported-function calls.
var Invoke func(inst *Instance, fnIndex uint32, args []uint64) ([]uint64, *Error)

func (im Imports) lookup(moduleName, name string) (*Extern, bool) {
	fields, ok := im[moduleName]
	if !ok {
		return nil, false
	}
	e, ok := fields[name]
	return e, ok
}

// Instantiate links mod against imports and runs its start function if
// present. Ordering matters: the weak registry handle is published before
// element and data segments are applied, so a start function (or a reentrant
// host call during segment application) can already observe this instance
// through a funcref captured from a table written earlier in the same
// import graph. An instance whose start function traps is still registered
// as a "zombie": kept alive as long as any table slot elsewhere still holds
// a reference into it, even though Instantiate itself returns an error.
func Instantiate(mod *Module, imports Imports) (*Instance, *Error) {
	inst := &Instance{
		ID:      DefaultRegistry().allocateID(),
		Module:  mod,
		exports: map[string]*Export{},
	}

	if err := resolveMemory(inst, mod, imports); err != nil {
		return nil, err
	}
	if err := resolveTable(inst, mod, imports); err != nil {
		return nil, err
	}
	if err := resolveFunctions(inst, mod, imports); err != nil {
		return nil, err
	}
	if err := resolveGlobals(inst, mod, imports); err != nil {
		return nil, err
	}

	elemOffsets, err := checkElementSegments(inst, mod)
	if err != nil {
		return nil, err
	}
	dataOffsets, err := checkDataSegments(inst, mod)
	if err != nil {
		return nil, err
	}

	// Publish the weak handle before any segment is applied or the start
	// function runs, so a funcref captured mid-linking already resolves.
	DefaultRegistry().registerInstance(inst)

	applyElementSegments(inst, mod, elemOffsets)
	applyDataSegments(inst, mod, dataOffsets)

	for _, e := range mod.Exports {
		inst.exports[e.Name] = e
	}

	if mod.HasStart {
		logrus.WithFields(logrus.Fields{"instance": inst.ID, "func": mod.StartIndex}).Debug("running start function")
		if Invoke == nil {
			return nil, Uninstantiable("no interpreter registered")
		}
		if _, trapErr := Invoke(inst, mod.StartIndex, nil); trapErr != nil {
			DefaultRegistry().AddZombie(inst)
			// inst is still returned alongside the error: its ID remains a
			// valid registry key for a zombie holdover even though the
			// caller must treat the instance itself as unusable.
			return inst, Uninstantiable(trapErr.Msg)
		}
	}

	return inst, nil
}

func resolveMemory(inst *Instance, mod *Module, imports Imports) *Error {
	if mod.Memory == nil {
		return nil
	}
	if mod.Memory.Import == nil {
		inst.Memory = NewMemory(mod.Memory.Limits.Min, memoryMax(mod.Memory.Limits))
		return nil
	}
	imp := mod.Memory.Import
	ext, ok := imports.lookup(imp.Module, imp.Name)
	if !ok {
		return ErrUnknownImport
	}
	if ext.Kind != extKindMemory || ext.Memory == nil {
		return ErrIncompatibleImportType
	}
	if ext.Memory.Size() < imp.Limits.Min {
		return ErrIncompatibleImportType
	}
	if imp.Limits.HasMax && ext.Memory.Max() > imp.Limits.Max {
		return ErrIncompatibleImportType
	}
	inst.Memory = ext.Memory
	return nil
}

func resolveTable(inst *Instance, mod *Module, imports Imports) *Error {
	if mod.Table == nil {
		return nil
	}
	if mod.Table.Import == nil {
		inst.Table = NewTable(mod.Table.Limits.Min, tableMax(mod.Table.Limits))
		return nil
	}
	imp := mod.Table.Import
	ext, ok := imports.lookup(imp.Module, imp.Name)
	if !ok {
		return ErrUnknownImport
	}
	if ext.Kind != extKindTable || ext.Table == nil {
		return ErrIncompatibleImportType
	}
	if ext.Table.Size() < imp.Limits.Min {
		return ErrIncompatibleImportType
	}
	if imp.Limits.HasMax && ext.Table.Max() > imp.Limits.Max {
		return ErrIncompatibleImportType
	}
	inst.Table = ext.Table
	return nil
}

func resolveFunctions(inst *Instance, mod *Module, imports Imports) *Error {
	inst.Functions = make([]*Function, len(mod.Functions))
	for i, fd := range mod.Functions {
		ft := mod.Types[fd.TypeIndex]
		sig, _ := PackSignature(ft)
		if fd.Import == nil {
			inst.Functions[i] = &Function{
				Kind:        FunctionKindOwned,
				Type:        ft,
				Sig:         sig,
				PCStart:     fd.BodyStart,
				LocalsCount: fd.NumDeclaredLocals,
				Owner:       inst,
				OwnerIndex:  uint32(i),
			}
			continue
		}
		imp := fd.Import
		ext, ok := imports.lookup(imp.Module, imp.Name)
		if !ok {
			return ErrUnknownImport
		}
		if ext.Kind != extKindFunc || ext.Function == nil {
			return ErrIncompatibleImportType
		}
		if !SignatureEquals(ext.Function.Type, ft) {
			return ErrIncompatibleImportType
		}
		inst.Functions[i] = ext.Function
	}
	return nil
}

func resolveGlobals(inst *Instance, mod *Module, imports Imports) *Error {
	inst.Globals = make([]*Global, len(mod.Globals))
	for i, gd := range mod.Globals {
		if gd.Import == nil {
			val, typ, err := evalConstExpr(mod, gd.InitExprOffset, inst.Globals[:i])
			if err != nil {
				return err
			}
			if typ != gd.Type {
				return ErrTypeMismatch
			}
			inst.Globals[i] = NewGlobal(gd.Type, gd.Mutable, val)
			continue
		}
		imp := gd.Import
		ext, ok := imports.lookup(imp.Module, imp.Name)
		if !ok {
			return ErrUnknownImport
		}
		if ext.Kind != extKindGlobal || ext.Global == nil {
			return ErrIncompatibleImportType
		}
		if ext.Global.Type != gd.Type || ext.Global.Mutable != gd.Mutable {
			return ErrIncompatibleImportType
		}
		inst.Globals[i] = ext.Global
	}
	return nil
}

type elementPlacement struct {
	offset  uint32
	indices []uint32
}

func checkElementSegments(inst *Instance, mod *Module) ([]elementPlacement, *Error) {
	if len(mod.Elements) == 0 {
		return nil, nil
	}
	if inst.Table == nil {
		return nil, ErrUnknownTable
	}
	out := make([]elementPlacement, len(mod.Elements))
	for i, seg := range mod.Elements {
		offVal, typ, err := evalConstExpr(mod, seg.OffsetExprOffset, inst.Globals)
		if err != nil {
			return nil, err
		}
		if typ != ValueTypeI32 {
			return nil, ErrTypeMismatch
		}
		off := uint32(offVal)
		if uint64(off)+uint64(len(seg.FuncIndices)) > uint64(inst.Table.Size()) {
			return nil, ErrElementsSegmentDoesNotFit
		}
		out[i] = elementPlacement{offset: off, indices: seg.FuncIndices}
	}
	return out, nil
}

func applyElementSegments(inst *Instance, mod *Module, placements []elementPlacement) {
	for _, p := range placements {
		for i, fnIdx := range p.indices {
			fn := inst.Functions[fnIdx]
			handle := ownerHandle(inst, fn, fnIdx)
			inst.Table.Set(p.offset+uint32(i), handle)
		}
	}
}

// ownerHandle encodes the funcref handle for fn as it appears in a table: a
// wasm function whose Owner is another instance (one resolved from an
// import) is encoded with that Owner's id and its OwnerIndex there; a
// function owned by this instance, or a host-backed import (nil Owner), is
// encoded with this instance's id and its index here, and call_indirect
// through that handle calls it from this instance's function vector.
func ownerHandle(inst *Instance, fn *Function, localIndex uint32) uint64 {
	switch fn.Kind {
	case FunctionKindOwned:
		if fn.Owner != nil && fn.Owner != inst {
			return EncodeFuncref(fn.Owner.ID, fn.OwnerIndex)
		}
		return EncodeFuncref(inst.ID, localIndex)
	case FunctionKindImportedWasm:
		return EncodeFuncref(fn.Owner.ID, fn.OwnerIndex)
	default:
		return EncodeFuncref(inst.ID, localIndex)
	}
}

type dataPlacement struct {
	offset uint32
	data   []byte
}

func checkDataSegments(inst *Instance, mod *Module) ([]dataPlacement, *Error) {
	if len(mod.Data) == 0 {
		return nil, nil
	}
	if inst.Memory == nil {
		return nil, ErrUnknownMemory
	}
	out := make([]dataPlacement, len(mod.Data))
	for i, seg := range mod.Data {
		offVal, typ, err := evalConstExpr(mod, seg.OffsetExprOffset, inst.Globals)
		if err != nil {
			return nil, err
		}
		if typ != ValueTypeI32 {
			return nil, ErrTypeMismatch
		}
		off := uint32(offVal)
		if uint64(off)+uint64(len(seg.Data)) > uint64(inst.Memory.SizeBytes()) {
			return nil, ErrDataSegmentDoesNotFit
		}
		out[i] = dataPlacement{offset: off, data: seg.Data}
	}
	return out, nil
}

func applyDataSegments(inst *Instance, mod *Module, placements []dataPlacement) {
	for _, p := range placements {
		inst.Memory.Write(p.offset, p.data)
	}
}

func memoryMax(l Limits) uint32 {
	if l.HasMax {
		return l.Max
	}
	return MemoryMaxPages
}

func tableMax(l Limits) uint32 {
	if l.HasMax {
		return l.Max
	}
	return ^uint32(0)
}

// Extern kind tags, mirroring api.ExternType without importing api here to
// keep this file's import list centered on what it actually needs.
const (
	extKindFunc   = 0x00
	extKindTable  = 0x01
	extKindMemory = 0x02
	extKindGlobal = 0x03
)

// ExportedFunction returns the resolved Function behind export name, or nil.
func (inst *Instance) ExportedFunction(name string) *Function {
	e, ok := inst.exports[name]
	if !ok || e.Kind != extKindFunc {
		return nil
	}
	return inst.Functions[e.Index]
}

// ExportedMemory returns the instance's memory if it is exported under name.
func (inst *Instance) ExportedMemory(name string) *Memory {
	e, ok := inst.exports[name]
	if !ok || e.Kind != extKindMemory {
		return nil
	}
	return inst.Memory
}

// ExportedGlobal returns the resolved Global behind export name, or nil.
func (inst *Instance) ExportedGlobal(name string) *Global {
	e, ok := inst.exports[name]
	if !ok || e.Kind != extKindGlobal {
		return nil
	}
	return inst.Globals[e.Index]
}

// ExportedTable returns the instance's table if it is exported under name.
func (inst *Instance) ExportedTable(name string) *Table {
	e, ok := inst.exports[name]
	if !ok || e.Kind != extKindTable {
		return nil
	}
	return inst.Table
}

// ExportKind reports the kind and index of the export named name, for
// callers (the embedder-facing Runtime) that resolve one instance's export
// into another's import without knowing its kind ahead of time.
func (inst *Instance) ExportKind(name string) (kind api.ExternType, index uint32, ok bool) {
	e, ok := inst.exports[name]
	if !ok {
		return 0, 0, false
	}
	return e.Kind, e.Index, true
}

// HostFuncSpec describes one function a host module exports: its signature
// and the Go callback backing it.
type HostFuncSpec struct {
	Name    string
	Params  []ValueType
	Results []ValueType
	Fn      api.GoFunction
}

// NewHostInstance builds an Instance purely from Go callbacks, with no
// backing Module: it has no bytes, memory, or table of its own, only a
// function index space of FunctionKindHost entries. Used to satisfy imports
// with embedder-supplied functionality (the "env" module pattern).
func NewHostInstance(specs []HostFuncSpec) *Instance {
	inst := &Instance{ID: DefaultRegistry().allocateID(), exports: map[string]*Export{}}
	inst.Functions = make([]*Function, len(specs))
	for i, sp := range specs {
		ft := &FunctionType{Params: sp.Params, Results: sp.Results}
		sig, _ := PackSignature(ft)
		inst.Functions[i] = &Function{Kind: FunctionKindHost, Type: ft, Sig: sig, HostFn: sp.Fn}
		inst.exports[sp.Name] = &Export{Name: sp.Name, Kind: extKindFunc, Index: uint32(i)}
	}
	DefaultRegistry().registerInstance(inst)
	return inst
}
