package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// addModule encodes:
//
//	(module
//	  (func (export "add") (param i32 i32) (result i32)
//	    local.get 0
//	    local.get 1
//	    i32.add))
func addModule() []byte {
	return []byte{
		0x00, 0x61, 0x73, 0x6d, // magic
		0x01, 0x00, 0x00, 0x00, // version

		0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f, // type section

		0x03, 0x02, 0x01, 0x00, // function section

		0x07, 0x07, 0x01, 0x03, 0x61, 0x64, 0x64, 0x00, 0x00, // export section: "add" func 0

		0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b, // code section
	}
}

func TestDecodeModule_add(t *testing.T) {
	mod, err := DecodeModule(addModule())
	require.Nil(t, err)
	require.Len(t, mod.Types, 1)
	require.Equal(t, []ValueType{ValueTypeI32, ValueTypeI32}, mod.Types[0].Params)
	require.Equal(t, []ValueType{ValueTypeI32}, mod.Types[0].Results)
	require.Len(t, mod.Functions, 1)
	require.Len(t, mod.Exports, 1)
	require.Equal(t, "add", mod.Exports[0].Name)
	require.Equal(t, uint32(0), mod.Exports[0].Index)
}

func TestDecodeModule_badMagic(t *testing.T) {
	data := append([]byte{}, addModule()...)
	data[0] = 0xff
	_, err := DecodeModule(data)
	require.NotNil(t, err)
	require.Equal(t, KindMalformed, err.Kind)
	require.Equal(t, ErrMagicHeaderNotDetected, err)
}

func TestDecodeModule_truncated(t *testing.T) {
	data := addModule()
	_, err := DecodeModule(data[:len(data)-3])
	require.NotNil(t, err)
	require.Equal(t, KindMalformed, err.Kind)
}
