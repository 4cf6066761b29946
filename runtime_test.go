package wasmcore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmrt/wasmcore/api"
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

// reexportImportModule is: (import "env" "addone" (func (param i32) (result i32)))
//
//	(export "run" (func 0))
//
// with no locally defined functions: the export directly re-exports the
// import, exercising host-module linking without needing a call instruction.
func reexportImportModule() []byte {
	return []byte{
		0x00, 0x61, 0x73, 0x6d,
		0x01, 0x00, 0x00, 0x00,
		0x01, 0x06, 0x01, 0x60, 0x01, 0x7f, 0x01, 0x7f,
		0x02, 0x0e, 0x01, 0x03, 0x65, 0x6e, 0x76, 0x06, 0x61, 0x64, 0x64, 0x6f, 0x6e, 0x65, 0x00, 0x00,
		0x07, 0x07, 0x01, 0x03, 0x72, 0x75, 0x6e, 0x00, 0x00,
	}
}

func TestRuntime_compileInstantiateCall(t *testing.T) {
	rt := NewRuntime()
	compiled, err := rt.CompileModule(addModule())
	require.NoError(t, err)

	mod, err := rt.InstantiateModule(compiled, NewModuleConfig().WithName("add-mod"))
	require.NoError(t, err)
	require.Equal(t, "add-mod", mod.Name())

	fn := mod.ExportedFunction("add")
	require.NotNil(t, fn)
	require.Equal(t, []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, fn.ParamTypes())

	results, err := fn.Call(3, 4)
	require.NoError(t, err)
	require.Equal(t, []uint64{7}, results)
}

func TestRuntime_compileInvalidBinary(t *testing.T) {
	rt := NewRuntime()
	_, err := rt.CompileModule([]byte{0x00, 0x00, 0x00, 0x00})
	require.Error(t, err)
}

func TestRuntime_hostModuleImport(t *testing.T) {
	rt := NewRuntime()

	_, err := rt.NewHostModuleBuilder("env").
		NewFunctionBuilder().
		WithFunc(func(params []uint64) (uint64, bool) {
			return params[0] + 1, true
		}, []api.ValueType{api.ValueTypeI32}, []api.ValueType{api.ValueTypeI32}).
		Export("addone").
		Instantiate()
	require.NoError(t, err)

	compiled, err := rt.CompileModule(reexportImportModule())
	require.NoError(t, err)

	mod, err := rt.InstantiateModule(compiled, NewModuleConfig().WithName("importer"))
	require.NoError(t, err)

	fn := mod.ExportedFunction("run")
	require.NotNil(t, fn)

	results, err := fn.Call(41)
	require.NoError(t, err)
	require.Equal(t, []uint64{42}, results)
}

func TestRuntime_moduleLookup(t *testing.T) {
	rt := NewRuntime()
	compiled, err := rt.CompileModule(addModule())
	require.NoError(t, err)
	_, err = rt.InstantiateModule(compiled, NewModuleConfig().WithName("add-mod"))
	require.NoError(t, err)

	require.NotNil(t, rt.Module("add-mod"))
	require.Nil(t, rt.Module("missing"))
}
