package interpreter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmrt/wasmcore/internal/wasm"
)

// addModule is: (func (export "add") (param i32 i32) (result i32)
//
//	local.get 0
//	local.get 1
//	i32.add)
func addModule() []byte {
	return []byte{
		0x00, 0x61, 0x73, 0x6d,
		0x01, 0x00, 0x00, 0x00,
		0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
		0x03, 0x02, 0x01, 0x00,
		0x07, 0x07, 0x01, 0x03, 0x61, 0x64, 0x64, 0x00, 0x00,
		0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b,
	}
}

// divzModule is: (func (export "divz") (param i32) (result i32)
//
//	local.get 0
//	i32.const 0
//	i32.div_s)
func divzModule() []byte {
	return []byte{
		0x00, 0x61, 0x73, 0x6d,
		0x01, 0x00, 0x00, 0x00,
		0x01, 0x06, 0x01, 0x60, 0x01, 0x7f, 0x01, 0x7f,
		0x03, 0x02, 0x01, 0x00,
		0x07, 0x08, 0x01, 0x04, 0x64, 0x69, 0x76, 0x7a, 0x00, 0x00,
		0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x41, 0x00, 0x6d, 0x0b,
	}
}

func TestInvoke_add(t *testing.T) {
	mod, derr := wasm.DecodeModule(addModule())
	require.Nil(t, derr)

	inst, ierr := wasm.Instantiate(mod, wasm.Imports{})
	require.Nil(t, ierr)

	exp := mod.ExportFor("add")
	require.NotNil(t, exp)

	results, trapErr := Invoke(inst, exp.Index, []uint64{3, 4})
	require.Nil(t, trapErr)
	require.Equal(t, []uint64{7}, results)
}

func TestInvoke_divideByZeroTraps(t *testing.T) {
	mod, derr := wasm.DecodeModule(divzModule())
	require.Nil(t, derr)

	inst, ierr := wasm.Instantiate(mod, wasm.Imports{})
	require.Nil(t, ierr)

	exp := mod.ExportFor("divz")
	require.NotNil(t, exp)

	_, trapErr := Invoke(inst, exp.Index, []uint64{1})
	require.NotNil(t, trapErr)
	require.Equal(t, wasm.KindTrap, trapErr.Kind)
	require.Equal(t, wasm.ErrTrapIntegerDivideByZero, trapErr)
}

func TestInvoke_argumentCountMismatchTraps(t *testing.T) {
	mod, derr := wasm.DecodeModule(addModule())
	require.Nil(t, derr)

	inst, ierr := wasm.Instantiate(mod, wasm.Imports{})
	require.Nil(t, ierr)

	exp := mod.ExportFor("add")
	_, trapErr := Invoke(inst, exp.Index, []uint64{1})
	require.NotNil(t, trapErr)
	require.Equal(t, wasm.ErrTrapInvalidArgumentCount, trapErr)
}

// oobModule is: (module (memory 1)
//
//	(func (export "oob") (result i32)
//	  i32.const 65536
//	  i32.load))
//
// The last valid 4-byte-load address on a single-page (65536-byte) memory
// is 65532, so a load at 65536 is out of bounds.
func oobModule() []byte {
	return []byte{
		0x00, 0x61, 0x73, 0x6d,
		0x01, 0x00, 0x00, 0x00,
		0x01, 0x05, 0x01, 0x60, 0x00, 0x01, 0x7f,
		0x03, 0x02, 0x01, 0x00,
		0x05, 0x03, 0x01, 0x00, 0x01,
		0x07, 0x07, 0x01, 0x03, 0x6f, 0x6f, 0x62, 0x00, 0x00,
		0x0a, 0x0b, 0x01, 0x09, 0x00, 0x41, 0x80, 0x80, 0x04, 0x28, 0x00, 0x00, 0x0b,
	}
}

func TestInvoke_memoryOutOfBoundsTraps(t *testing.T) {
	mod, derr := wasm.DecodeModule(oobModule())
	require.Nil(t, derr)

	inst, ierr := wasm.Instantiate(mod, wasm.Imports{})
	require.Nil(t, ierr)

	exp := mod.ExportFor("oob")
	require.NotNil(t, exp)

	_, trapErr := Invoke(inst, exp.Index, nil)
	require.NotNil(t, trapErr)
	require.Equal(t, wasm.KindTrap, trapErr.Kind)
	require.Equal(t, wasm.ErrTrapOutOfBoundsMemory, trapErr)
}

// implModule is: (module
//
//	(func (export "impl") (result i32) i32.const 7))
func implModule() []byte {
	return []byte{
		0x00, 0x61, 0x73, 0x6d,
		0x01, 0x00, 0x00, 0x00,
		0x01, 0x05, 0x01, 0x60, 0x00, 0x01, 0x7f,
		0x03, 0x02, 0x01, 0x00,
		0x07, 0x08, 0x01, 0x04, 0x69, 0x6d, 0x70, 0x6c, 0x00, 0x00,
		0x0a, 0x06, 0x01, 0x04, 0x00, 0x41, 0x07, 0x0b,
	}
}

// dispatchModule is: (module
//
//	(type (func (result i32)))
//	(import "A" "impl" (func (type 0)))
//	(table 1 funcref)
//	(elem (i32.const 0) 0)
//	(func (export "dispatch") (type 0)
//	  i32.const 0
//	  call_indirect (type 0)))
func dispatchModule() []byte {
	return []byte{
		0x00, 0x61, 0x73, 0x6d,
		0x01, 0x00, 0x00, 0x00,
		0x01, 0x05, 0x01, 0x60, 0x00, 0x01, 0x7f,
		0x02, 0x0a, 0x01, 0x01, 0x41, 0x04, 0x69, 0x6d, 0x70, 0x6c, 0x00, 0x00,
		0x03, 0x02, 0x01, 0x00,
		0x04, 0x04, 0x01, 0x70, 0x00, 0x01,
		0x07, 0x0c, 0x01, 0x08, 0x64, 0x69, 0x73, 0x70, 0x61, 0x74, 0x63, 0x68, 0x00, 0x01,
		0x09, 0x07, 0x01, 0x00, 0x41, 0x00, 0x0b, 0x01, 0x00,
		0x0a, 0x09, 0x01, 0x07, 0x00, 0x41, 0x00, 0x11, 0x00, 0x00, 0x0b,
	}
}

// TestInvoke_callIndirectCrossInstance exercises spec scenario 4: module A
// exports a function, module B imports it, installs it into its own table
// as an element, and reaches it only through call_indirect — the callee
// runs owned by instance A even though the call site is instance B's.
func TestInvoke_callIndirectCrossInstance(t *testing.T) {
	modA, derr := wasm.DecodeModule(implModule())
	require.Nil(t, derr)
	instA, ierr := wasm.Instantiate(modA, wasm.Imports{})
	require.Nil(t, ierr)

	kind, idx, ok := instA.ExportKind("impl")
	require.True(t, ok)

	modB, derr := wasm.DecodeModule(dispatchModule())
	require.Nil(t, derr)
	imports := wasm.Imports{"A": {"impl": &wasm.Extern{Kind: kind, Function: instA.Functions[idx]}}}
	instB, ierr := wasm.Instantiate(modB, imports)
	require.Nil(t, ierr)

	exp := modB.ExportFor("dispatch")
	require.NotNil(t, exp)

	results, trapErr := Invoke(instB, exp.Index, nil)
	require.Nil(t, trapErr)
	require.Equal(t, []uint64{7}, results)
}

// zombieModule is: (module
//
//	(table 1 funcref)
//	(func (export "impl") (result i32) i32.const 7)
//	(func unreachable)
//	(start 1)
//	(elem (i32.const 0) 0))
//
// its own table is seeded with a funcref to its own "impl" function before
// the start function runs and traps.
func zombieModule() []byte {
	return []byte{
		0x00, 0x61, 0x73, 0x6d,
		0x01, 0x00, 0x00, 0x00,
		0x01, 0x08, 0x02, 0x60, 0x00, 0x01, 0x7f, 0x60, 0x00, 0x00,
		0x03, 0x03, 0x02, 0x00, 0x01,
		0x04, 0x04, 0x01, 0x70, 0x00, 0x01,
		0x07, 0x08, 0x01, 0x04, 0x69, 0x6d, 0x70, 0x6c, 0x00, 0x00,
		0x08, 0x01, 0x01,
		0x09, 0x07, 0x01, 0x00, 0x41, 0x00, 0x0b, 0x01, 0x00,
		0x0a, 0x0a, 0x02, 0x04, 0x00, 0x41, 0x07, 0x0b, 0x03, 0x00, 0x00, 0x0b,
	}
}

// TestInstantiate_trapInStartZombieHoldover exercises spec scenario 5: a
// trapping start function reclassifies instantiation as uninstantiable, but
// the instance stays resolvable through the registry as long as a table
// slot written during linking (here, the instance's own) still references
// one of its functions.
func TestInstantiate_trapInStartZombieHoldover(t *testing.T) {
	mod, derr := wasm.DecodeModule(zombieModule())
	require.Nil(t, derr)

	inst, ierr := wasm.Instantiate(mod, wasm.Imports{})
	require.NotNil(t, ierr)
	require.Equal(t, wasm.KindUninstantiable, ierr.Kind)
	require.NotNil(t, inst)

	require.True(t, wasm.DefaultRegistry().RefCount(inst.ID) > 0)
	require.Same(t, inst, wasm.DefaultRegistry().GetInstance(inst.ID))
}
