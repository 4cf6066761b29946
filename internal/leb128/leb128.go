// Package leb128 implements canonical LEB128 decoding for the WebAssembly
// binary format: unsigned and signed varints with the bit widths the core
// decoder needs (u1, u32, s32, s33, s64).
//
// Every decoder enforces the canonical length bound ⌈bits/7⌉ bytes and, for
// signed forms, rejects encodings whose final byte carries bits beyond the
// declared width that are not a pure sign extension. This matches the
// "integer representation too long" / "integer too large" malformed errors
// required by the binary format's conformance suite.
package leb128

import "fmt"

// ErrOverlong is returned when an encoding uses more bytes than the
// canonical ⌈bits/7⌉ bound for its declared width.
var ErrOverlong = fmt.Errorf("integer representation too long")

// ErrTooLarge is returned when a LEB128's last byte carries payload bits
// that cannot be represented in the declared width, or that are not a
// faithful sign extension for a signed width.
var ErrTooLarge = fmt.Errorf("integer too large")

// ErrUnexpectedEOF is returned when the byte slice is exhausted before the
// terminating byte (high bit clear) is read.
var ErrUnexpectedEOF = fmt.Errorf("unexpected end of section or function")

func maxBytes(bits uint) int {
	return int((bits + 6) / 7)
}

// U32 decodes an unsigned LEB128 into a uint32, returning the value and the
// number of bytes consumed.
func U32(b []byte) (uint32, int, error) {
	v, n, err := uvarint(b, 32)
	return uint32(v), n, err
}

// U64 decodes an unsigned LEB128 into a uint64, returning the value and the
// number of bytes consumed.
func U64(b []byte) (uint64, int, error) {
	return uvarint(b, 64)
}

// U1 decodes a single-bit unsigned LEB128 (used for the global mutability
// flag), returning the value and bytes consumed.
func U1(b []byte) (uint32, int, error) {
	v, n, err := uvarint(b, 1)
	return uint32(v), n, err
}

// S32 decodes a signed LEB128 into an int32.
func S32(b []byte) (int32, int, error) {
	v, n, err := svarint(b, 32)
	return int32(v), n, err
}

// S33 decodes a signed LEB128 of width 33 bits, used for block-type
// immediates that may reference a type index. Returned as int64 since the
// value may exceed int32 range while still being a valid type index
// reference (the caller distinguishes the single-byte value-type encodings
// from a positive type index).
func S33(b []byte) (int64, int, error) {
	return svarint(b, 33)
}

// S64 decodes a signed LEB128 into an int64.
func S64(b []byte) (int64, int, error) {
	return svarint(b, 64)
}

func uvarint(b []byte, bits uint) (uint64, int, error) {
	var result uint64
	var shift uint
	limit := maxBytes(bits)
	for i := 0; ; i++ {
		if i >= len(b) {
			return 0, i, ErrUnexpectedEOF
		}
		if i >= limit {
			return 0, i + 1, ErrOverlong
		}
		c := b[i]
		payload := uint64(c & 0x7f)

		// On the last permitted byte, any bit beyond the declared width must
		// be zero, or the value overflows the declared width.
		remaining := bits - shift
		if remaining < 7 {
			mask := uint64(1)<<remaining - 1
			if payload&^mask != 0 {
				return 0, i + 1, ErrTooLarge
			}
		}

		result |= payload << shift
		if c&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
	}
}

func svarint(b []byte, bits uint) (int64, int, error) {
	var result int64
	var shift uint
	limit := maxBytes(bits)
	var c byte
	i := 0
	for ; ; i++ {
		if i >= len(b) {
			return 0, i, ErrUnexpectedEOF
		}
		if i >= limit {
			return 0, i + 1, ErrOverlong
		}
		c = b[i]
		payload := int64(c & 0x7f)

		remaining := bits - shift
		if remaining < 7 {
			// The final byte's payload must equal either zero-extension or
			// sign-extension of the bits already accumulated: every
			// significant bit beyond the declared width must equal the
			// sign bit that would be implied by bit (remaining-1).
			signBit := int64(1) << (remaining - 1)
			mask := int64(1)<<remaining - 1
			masked := payload & mask
			upper := payload &^ mask
			if masked&signBit != 0 {
				// negative: upper bits (within the 7-bit payload) must all
				// be set.
				if upper != (0x7f &^ mask) {
					return 0, i + 1, ErrTooLarge
				}
			} else if upper != 0 {
				return 0, i + 1, ErrTooLarge
			}
		}

		result |= payload << shift
		shift += 7
		if c&0x80 == 0 {
			break
		}
	}
	// Sign-extend if the sign bit of the last read group is set and the
	// value doesn't already fill the width.
	if shift < 64 && c&0x40 != 0 {
		result |= -1 << shift
	}
	return result, i + 1, nil
}
