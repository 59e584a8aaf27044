package intcode

import (
	"crypto/sha256"
	"encoding/binary"
	"slices"
)

// Cell is a single unsigned memory word.
type Cell uint64

// Memory is a fixed-length, zero-indexed image of cells.
// All access is bounds-checked; the length never changes after creation.
type Memory struct {
	cells []Cell
}

// NewMemory creates a memory image holding a copy of cells.
func NewMemory(cells []Cell) *Memory {
	return &Memory{cells: slices.Clone(cells)}
}

// Len returns the number of cells in the image.
func (m *Memory) Len() int {
	return len(m.cells)
}

// Get reads the cell at addr.
func (m *Memory) Get(addr Cell) (Cell, error) {
	if addr >= Cell(len(m.cells)) {
		return 0, &OutOfBoundsError{Address: addr, Length: len(m.cells)}
	}
	return m.cells[addr], nil
}

// Set writes v to the cell at addr.
func (m *Memory) Set(addr, v Cell) error {
	if addr >= Cell(len(m.cells)) {
		return &OutOfBoundsError{Address: addr, Length: len(m.cells)}
	}
	m.cells[addr] = v
	return nil
}

// Clone returns a deep copy that shares no storage with m.
func (m *Memory) Clone() *Memory {
	return &Memory{cells: slices.Clone(m.cells)}
}

// Cells returns a copy of the image contents.
func (m *Memory) Cells() []Cell {
	return slices.Clone(m.cells)
}

// Equal reports whether both images have the same length and contents.
func (m *Memory) Equal(other *Memory) bool {
	if other == nil {
		return false
	}
	return slices.Equal(m.cells, other.cells)
}

// Digest returns the SHA-256 of the image, cells encoded big-endian.
// Equal images always have equal digests.
func (m *Memory) Digest() [32]byte {
	h := sha256.New()
	var buf [8]byte
	for _, c := range m.cells {
		binary.BigEndian.PutUint64(buf[:], uint64(c))
		h.Write(buf[:])
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}
