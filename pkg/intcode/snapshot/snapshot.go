// Package snapshot captures the state of an Intcode machine as a
// self-describing CBOR document, so a halted or faulted image can be saved
// and inspected later.
package snapshot

import (
	"errors"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/intcode/pkg/intcode"
)

// Version is the current snapshot format version.
const Version uint16 = 1

// FaultKind classifies the fault recorded in a snapshot.
type FaultKind uint8

const (
	FaultNone FaultKind = iota
	FaultOutOfBounds
	FaultUnknownOpcode
	FaultStepLimit
	FaultOther
)

// String returns a human-readable name for the fault kind.
func (k FaultKind) String() string {
	switch k {
	case FaultNone:
		return "none"
	case FaultOutOfBounds:
		return "out-of-bounds"
	case FaultUnknownOpcode:
		return "unknown-opcode"
	case FaultStepLimit:
		return "step-limit"
	default:
		return "other"
	}
}

// Snapshot is a point-in-time copy of a machine.
type Snapshot struct {
	Version uint16   `cbor:"1,keyasint"`
	Digest  [32]byte `cbor:"2,keyasint"` // digest of Cells
	IP      uint64   `cbor:"3,keyasint"`
	Steps   uint64   `cbor:"4,keyasint"`
	State   string   `cbor:"5,keyasint"`
	Cells   []uint64 `cbor:"6,keyasint"`

	Fault        FaultKind `cbor:"7,keyasint,omitempty"`
	FaultMessage string    `cbor:"8,keyasint,omitempty"`
	FaultAddress uint64    `cbor:"9,keyasint,omitempty"` // out-of-bounds address
	FaultValue   uint64    `cbor:"10,keyasint,omitempty"` // unknown opcode value
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Capture copies the machine's memory, registers and recorded fault.
func Capture(m *intcode.Machine) *Snapshot {
	mem := m.Memory()
	cells := mem.Cells()
	s := &Snapshot{
		Version: Version,
		Digest:  mem.Digest(),
		IP:      uint64(m.IP()),
		Steps:   m.Steps(),
		State:   m.State().String(),
		Cells:   make([]uint64, len(cells)),
	}
	for i, c := range cells {
		s.Cells[i] = uint64(c)
	}

	if err := m.Fault(); err != nil {
		s.FaultMessage = err.Error()
		var oob *intcode.OutOfBoundsError
		var unk *intcode.UnknownOpcodeError
		var lim *intcode.StepLimitError
		switch {
		case errors.As(err, &oob):
			s.Fault = FaultOutOfBounds
			s.FaultAddress = uint64(oob.Address)
		case errors.As(err, &unk):
			s.Fault = FaultUnknownOpcode
			s.FaultValue = uint64(unk.Value)
		case errors.As(err, &lim):
			s.Fault = FaultStepLimit
		default:
			s.Fault = FaultOther
		}
	}
	return s
}

// Memory rebuilds the memory image held by the snapshot.
func (s *Snapshot) Memory() *intcode.Memory {
	cells := make([]intcode.Cell, len(s.Cells))
	for i, c := range s.Cells {
		cells[i] = intcode.Cell(c)
	}
	return intcode.NewMemory(cells)
}

// Verify checks the version and that Digest matches Cells.
func (s *Snapshot) Verify() error {
	if s.Version != Version {
		return fmt.Errorf("snapshot: unsupported version %d", s.Version)
	}
	if got := s.Memory().Digest(); got != s.Digest {
		return fmt.Errorf("snapshot: digest mismatch: declared %x, computed %x", s.Digest[:8], got[:8])
	}
	return nil
}

// Marshal serializes a snapshot to canonical CBOR bytes.
func Marshal(s *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// Unmarshal deserializes and verifies a snapshot.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal: %w", err)
	}
	if err := s.Verify(); err != nil {
		return nil, err
	}
	return &s, nil
}

// WriteFile marshals s to path.
func WriteFile(path string, s *Snapshot) error {
	data, err := Marshal(s)
	if err != nil {
		return fmt.Errorf("snapshot: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return nil
}

// ReadFile loads and verifies the snapshot stored at path.
func ReadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return Unmarshal(data)
}
