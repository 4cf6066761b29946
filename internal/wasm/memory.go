package wasm

import "encoding/binary"

// Memory is a linear buffer of 64KiB pages with typed, bounds-checked
// load/store helpers.
type Memory struct {
	buf       []byte
	maxPages  uint32
	currPages uint32
}

// NewMemory allocates a Memory with an initial size of minPages and a hard
// cap of maxPages.
func NewMemory(minPages, maxPages uint32) *Memory {
	m := &Memory{maxPages: maxPages, currPages: minPages}
	m.buf = make([]byte, uint64(minPages)*MemoryPageSize)
	return m
}

// Size returns the current size, in pages.
func (m *Memory) Size() uint32 { return m.currPages }

// Max returns the hard page cap this memory was created with.
func (m *Memory) Max() uint32 { return m.maxPages }

// SizeBytes returns the current size, in bytes.
func (m *Memory) SizeBytes() uint32 { return uint32(len(m.buf)) }

// Grow implements memory.grow: delta==0 is a no-op that returns the current
// page count; a delta that would exceed maxPages leaves the memory
// unchanged and returns (0, false).
func (m *Memory) Grow(delta uint32) (previous uint32, ok bool) {
	previous = m.currPages
	if delta == 0 {
		return previous, true
	}
	newPages := uint64(m.currPages) + uint64(delta)
	if newPages > uint64(m.maxPages) || newPages > MemoryMaxPages {
		return 0, false
	}
	grown := make([]byte, newPages*MemoryPageSize)
	copy(grown, m.buf)
	m.buf = grown
	m.currPages = uint32(newPages)
	return previous, true
}

// bounds computes base+offset using 64-bit intermediate math so a 32-bit
// wraparound in the address computation itself can never mask an
// out-of-bounds access (see original_source/src/wasm_memory.rs, carried in
// SPEC_FULL.md §3).
func (m *Memory) bounds(base, offset, width uint32) (addr uint64, ok bool) {
	addr = uint64(base) + uint64(offset)
	return addr, addr+uint64(width) <= uint64(len(m.buf))
}

// ReadByte loads an unsigned 8-bit value.
func (m *Memory) ReadByte(base, offset uint32) (byte, bool) {
	addr, ok := m.bounds(base, offset, 1)
	if !ok {
		return 0, false
	}
	return m.buf[addr], true
}

// WriteByte stores an 8-bit value.
func (m *Memory) WriteByte(base, offset uint32, v byte) bool {
	addr, ok := m.bounds(base, offset, 1)
	if !ok {
		return false
	}
	m.buf[addr] = v
	return true
}

// ReadUint16 loads a little-endian unsigned 16-bit value.
func (m *Memory) ReadUint16(base, offset uint32) (uint16, bool) {
	addr, ok := m.bounds(base, offset, 2)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint16(m.buf[addr:]), true
}

// WriteUint16 stores a little-endian unsigned 16-bit value.
func (m *Memory) WriteUint16(base, offset uint32, v uint16) bool {
	addr, ok := m.bounds(base, offset, 2)
	if !ok {
		return false
	}
	binary.LittleEndian.PutUint16(m.buf[addr:], v)
	return true
}

// ReadUint32 loads a little-endian unsigned 32-bit value.
func (m *Memory) ReadUint32(base, offset uint32) (uint32, bool) {
	addr, ok := m.bounds(base, offset, 4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(m.buf[addr:]), true
}

// WriteUint32 stores a little-endian unsigned 32-bit value.
func (m *Memory) WriteUint32(base, offset uint32, v uint32) bool {
	addr, ok := m.bounds(base, offset, 4)
	if !ok {
		return false
	}
	binary.LittleEndian.PutUint32(m.buf[addr:], v)
	return true
}

// ReadUint64 loads a little-endian unsigned 64-bit value.
func (m *Memory) ReadUint64(base, offset uint32) (uint64, bool) {
	addr, ok := m.bounds(base, offset, 8)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint64(m.buf[addr:]), true
}

// WriteUint64 stores a little-endian unsigned 64-bit value.
func (m *Memory) WriteUint64(base, offset uint32, v uint64) bool {
	addr, ok := m.bounds(base, offset, 8)
	if !ok {
		return false
	}
	binary.LittleEndian.PutUint64(m.buf[addr:], v)
	return true
}

// Read returns a copy of byteCount bytes starting at offset, or false if
// out of bounds. Used by the host-function ABI (api.Memory).
func (m *Memory) Read(offset, byteCount uint32) ([]byte, bool) {
	addr, ok := m.bounds(offset, 0, byteCount)
	if !ok {
		return nil, false
	}
	out := make([]byte, byteCount)
	copy(out, m.buf[addr:addr+uint64(byteCount)])
	return out, true
}

// Write copies v into memory starting at offset, or returns false if out of
// bounds.
func (m *Memory) Write(offset uint32, v []byte) bool {
	addr, ok := m.bounds(offset, 0, uint32(len(v)))
	if !ok {
		return false
	}
	copy(m.buf[addr:], v)
	return true
}
