package leb128

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestU32(t *testing.T) {
	for _, c := range []struct {
		name     string
		input    []byte
		expected uint32
		n        int
	}{
		{"zero", []byte{0x00}, 0, 1},
		{"one", []byte{0x01}, 1, 1},
		{"two bytes", []byte{0x80, 0x01}, 128, 2},
		{"max uint32", []byte{0xff, 0xff, 0xff, 0xff, 0xf}, math.MaxUint32, 5},
		{"624485", []byte{0xe5, 0x8e, 0x26}, 624485, 3},
	} {
		c := c
		t.Run(c.name, func(t *testing.T) {
			v, n, err := U32(c.input)
			require.NoError(t, err)
			require.Equal(t, c.expected, v)
			require.Equal(t, c.n, n)
		})
	}
}

func TestU32_overlong(t *testing.T) {
	// Five bytes with a trailing continuation bit is one byte beyond the
	// canonical bound for a 32-bit value.
	_, _, err := U32([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01})
	require.ErrorIs(t, err, ErrOverlong)
}

func TestU32_tooLarge(t *testing.T) {
	// The 5th byte may only carry the top 4 bits (32 - 4*7 = 4); 0x10 sets a
	// 5th bit that doesn't fit.
	_, _, err := U32([]byte{0xff, 0xff, 0xff, 0xff, 0x1f})
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestU32_unexpectedEOF(t *testing.T) {
	_, _, err := U32([]byte{0x80, 0x80})
	require.ErrorIs(t, err, ErrUnexpectedEOF)
}

func TestS32(t *testing.T) {
	for _, c := range []struct {
		input    []byte
		expected int32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7f}, -1},
		{[]byte{0x7c}, -4},
		{[]byte{0x9b, 0xf1, 0x59}, -624485},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x7}, math.MaxInt32},
		{[]byte{0x80, 0x80, 0x80, 0x80, 0x78}, math.MinInt32},
	} {
		c := c
		v, _, err := S32(c.input)
		require.NoError(t, err)
		require.Equal(t, c.expected, v)
	}
}

func TestS64_roundtrips(t *testing.T) {
	for _, v := range []int64{0, 1, -1, math.MaxInt64, math.MinInt64, 624485, -624485} {
		encoded := encodeS64(v)
		got, n, err := S64(encoded)
		require.NoError(t, err)
		require.Equal(t, len(encoded), n)
		require.Equal(t, v, got)
	}
}

// encodeS64 is a minimal encoder used only to build round-trip fixtures.
func encodeS64(v int64) []byte {
	var out []byte
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			more = false
		} else {
			b |= 0x80
		}
		out = append(out, b)
	}
	return out
}

func TestS33_typeIndex(t *testing.T) {
	// A positive type index encodes as a plain non-negative LEB128.
	v, _, err := S33([]byte{0x05})
	require.NoError(t, err)
	require.Equal(t, int64(5), v)
}

func TestU1(t *testing.T) {
	v, n, err := U1([]byte{0x01})
	require.NoError(t, err)
	require.Equal(t, uint32(1), v)
	require.Equal(t, 1, n)

	_, _, err = U1([]byte{0x02})
	require.ErrorIs(t, err, ErrTooLarge)
}
