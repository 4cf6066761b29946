package wasm

import (
	"unicode/utf8"

	"github.com/wasmrt/wasmcore/internal/leb128"
)

// cursor is a forward-only byte reader over a module image, shared by the
// decoder, the constant-expression evaluator, and the function validator.
// Positions are always absolute byte offsets into the owning Module.Bytes,
// which is what the side-table and function-body byte ranges are expressed
// in terms of.
type cursor struct {
	data []byte
	pos  uint32
}

func newCursor(data []byte, pos uint32) *cursor {
	return &cursor{data: data, pos: pos}
}

func (c *cursor) eof() bool { return int(c.pos) >= len(c.data) }

func (c *cursor) u8() (byte, *Error) {
	if int(c.pos) >= len(c.data) {
		return 0, ErrUnexpectedEOF
	}
	b := c.data[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) bytes(n uint32) ([]byte, *Error) {
	if uint64(c.pos)+uint64(n) > uint64(len(c.data)) {
		return nil, ErrUnexpectedEOF
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) u32leb() (uint32, *Error) {
	v, n, err := leb128.U32(c.data[c.pos:])
	return c.afterLeb(v, n, err)
}

func (c *cursor) u1leb() (uint32, *Error) {
	v, n, err := leb128.U1(c.data[c.pos:])
	return c.afterLeb(v, n, err)
}

func (c *cursor) s32leb() (int32, *Error) {
	v, n, err := leb128.S32(c.data[c.pos:])
	if werr := c.advanceLeb(n, err); werr != nil {
		return 0, werr
	}
	return v, nil
}

func (c *cursor) s33leb() (int64, *Error) {
	v, n, err := leb128.S33(c.data[c.pos:])
	if werr := c.advanceLeb(n, err); werr != nil {
		return 0, werr
	}
	return v, nil
}

func (c *cursor) s64leb() (int64, *Error) {
	v, n, err := leb128.S64(c.data[c.pos:])
	if werr := c.advanceLeb(n, err); werr != nil {
		return 0, werr
	}
	return v, nil
}

func (c *cursor) afterLeb(v uint32, n int, err error) (uint32, *Error) {
	if werr := c.advanceLeb(n, err); werr != nil {
		return 0, werr
	}
	return v, nil
}

func (c *cursor) advanceLeb(n int, err error) *Error {
	c.pos += uint32(n)
	if err == nil {
		return nil
	}
	switch err {
	case leb128.ErrOverlong:
		return ErrIntegerRepresentationLong
	case leb128.ErrTooLarge:
		return ErrIntegerTooLarge
	default:
		return ErrUnexpectedEOF
	}
}

// name reads a length-prefixed UTF-8 string, as used for custom section
// names and import/export module/field names.
func (c *cursor) name() (string, *Error) {
	n, err := c.u32leb()
	if err != nil {
		return "", err
	}
	b, err := c.bytes(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	return string(b), nil
}

// limits decodes a `limits` production: a flag byte (0 = min only, 1 = min
// and max), then min, then optionally max.
func (c *cursor) limits() (Limits, *Error) {
	flag, err := c.u8()
	if err != nil {
		return Limits{}, err
	}
	min, err := c.u32leb()
	if err != nil {
		return Limits{}, err
	}
	l := Limits{Min: min}
	if flag == 1 {
		max, err := c.u32leb()
		if err != nil {
			return Limits{}, err
		}
		l.Max = max
		l.HasMax = true
		if l.Min > l.Max {
			return Limits{}, ErrSizeMinGreaterThanMax
		}
	}
	return l, nil
}
