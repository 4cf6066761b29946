package wasm

// Global is a typed, possibly-mutable value cell. Mutable globals are
// interior-mutable: imported/exported references share the same cell.
type Global struct {
	Type    ValueType
	Mutable bool
	val     uint64
}

// NewGlobal constructs a Global with its initial value already evaluated.
func NewGlobal(t ValueType, mutable bool, init uint64) *Global {
	return &Global{Type: t, Mutable: mutable, val: init}
}

// Get returns the current raw value.
func (g *Global) Get() uint64 { return g.val }

// Set stores v. Callers (global.set validation, import resolution) must
// have already checked Mutable.
func (g *Global) Set(v uint64) { g.val = v }
