package wasm

// Table is a dense vector of 64-bit funcref handles, bounded by current <=
// max.
//
// Handle encoding: 0 is the null funcref. Any other handle is
// (ownerID<<32) | (fnIndex+1); this round-trips exactly and keeps null
// distinguishable from a reference to function index 0.
type Table struct {
	slots    []uint64
	maxSize  uint32
	registry *Registry
}

// NewTable allocates a Table with an initial size of min and a hard cap of
// max, backed by the process-wide registry for refcounting.
func NewTable(min, max uint32) *Table {
	return &Table{slots: make([]uint64, min), maxSize: max, registry: DefaultRegistry()}
}

// EncodeFuncref packs an owner instance id and function index into a table
// handle. fnIndex+1 so that index 0 doesn't collide with the null sentinel.
func EncodeFuncref(owner InstanceID, fnIndex uint32) uint64 {
	return uint64(owner)<<32 | uint64(fnIndex+1)
}

// DecodeFuncref unpacks a non-null handle into its owner id and function
// index. Callers must check for null (handle == 0) first.
func DecodeFuncref(handle uint64) (owner InstanceID, fnIndex uint32) {
	owner = InstanceID(handle >> 32)
	fnIndex = uint32(handle&0xffffffff) - 1
	return
}

// Size returns the current number of slots.
func (t *Table) Size() uint32 { return uint32(len(t.slots)) }

// Max returns the hard size cap this table was created with.
func (t *Table) Max() uint32 { return t.maxSize }

// Grow implements table.grow: delta==0 returns the current size unchanged;
// a delta that would exceed max leaves the table unchanged and fails.
func (t *Table) Grow(delta uint32) (previous uint32, ok bool) {
	previous = uint32(len(t.slots))
	if delta == 0 {
		return previous, true
	}
	newSize := uint64(previous) + uint64(delta)
	if newSize > uint64(t.maxSize) {
		return 0, false
	}
	grown := make([]uint64, newSize)
	copy(grown, t.slots)
	t.slots = grown
	return previous, true
}

// Get returns the handle at index, or false if out of bounds.
func (t *Table) Get(index uint32) (uint64, bool) {
	if index >= uint32(len(t.slots)) {
		return 0, false
	}
	return t.slots[index], true
}

// Set writes handle at index, maintaining the registry's refcount for both
// the handle being overwritten (decremented) and the new one (incremented).
// Returns false if index is out of bounds.
func (t *Table) Set(index uint32, handle uint64) bool {
	if index >= uint32(len(t.slots)) {
		return false
	}
	old := t.slots[index]
	if old != 0 {
		owner, _ := DecodeFuncref(old)
		t.registry.DecRef(owner)
	}
	if handle != 0 {
		owner, _ := DecodeFuncref(handle)
		t.registry.IncRef(owner)
	}
	t.slots[index] = handle
	return true
}
