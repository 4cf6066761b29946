package interpreter

import (
	"github.com/wasmrt/wasmcore/internal/leb128"
	"github.com/wasmrt/wasmcore/internal/wasm"
)

// These wrap internal/leb128 for the interpreter's own hot-path immediate
// reads (branch depths, local/global indices, call targets, memarg
// operands), translating leb128's sentinel errors into the same malformed
// catalogue the decoder uses. A malformed immediate here would mean the
// validator let a body through it should have rejected, so these errors
// are only ever reached in the presence of a validator bug.

func readU32At(data []byte, pos uint32) (uint32, int, *wasm.Error) {
	v, n, err := leb128.U32(data[pos:])
	if err != nil {
		return 0, n, translateLebErr(err)
	}
	return v, n, nil
}

func readS32At(data []byte, pos uint32) (int32, int, *wasm.Error) {
	v, n, err := leb128.S32(data[pos:])
	if err != nil {
		return 0, n, translateLebErr(err)
	}
	return v, n, nil
}

func readS64At(data []byte, pos uint32) (int64, int, *wasm.Error) {
	v, n, err := leb128.S64(data[pos:])
	if err != nil {
		return 0, n, translateLebErr(err)
	}
	return v, n, nil
}

func translateLebErr(err error) *wasm.Error {
	switch err {
	case leb128.ErrOverlong:
		return wasm.ErrIntegerRepresentationLong
	case leb128.ErrTooLarge:
		return wasm.ErrIntegerTooLarge
	default:
		return wasm.ErrUnexpectedEOF
	}
}
