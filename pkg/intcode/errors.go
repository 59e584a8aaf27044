package intcode

import (
	"errors"
	"fmt"
)

var (
	// ErrHalted is returned by Step once the machine has executed HALT.
	ErrHalted = errors.New("intcode: machine halted")

	// ErrNotFound matches every *NotFoundError.
	ErrNotFound = errors.New("intcode: no inputs produce target")
)

// ParseError reports a program token that is not a non-negative decimal integer.
type ParseError struct {
	Token string // Offending token after trimming
	Index int    // Zero-based position of the token in the program
	Err   error  // Underlying strconv error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("intcode: invalid token %q at position %d", e.Token, e.Index)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// OutOfBoundsError reports an access to an address outside the memory image.
type OutOfBoundsError struct {
	Address Cell
	Length  int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("intcode: address %d out of bounds (memory length %d)", e.Address, e.Length)
}

// UnknownOpcodeError reports a cell in opcode position that is not 1, 2 or 99.
type UnknownOpcodeError struct {
	Value Cell // Value read from the opcode cell
	IP    Cell // Address of the opcode cell
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("intcode: unknown opcode %d at %d", e.Value, e.IP)
}

// StepLimitError reports a run that exceeded its configured step ceiling.
type StepLimitError struct {
	Limit uint64
}

func (e *StepLimitError) Error() string {
	return fmt.Sprintf("intcode: step limit of %d exceeded", e.Limit)
}

// TrialError wraps a fault raised by a single calibration trial.
type TrialError struct {
	Inputs Inputs
	Err    error
}

func (e *TrialError) Error() string {
	return fmt.Sprintf("intcode: trial noun=%d verb=%d: %v", e.Inputs.Noun, e.Inputs.Verb, e.Err)
}

func (e *TrialError) Unwrap() error {
	return e.Err
}

// NotFoundError is returned when no pair in the search space yields the target.
type NotFoundError struct {
	Target Cell
	Trials int // Number of pairs considered
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("intcode: no inputs produce %d (%d trials)", e.Target, e.Trials)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsFault reports whether err is one of the runtime faults a Machine can raise.
func IsFault(err error) bool {
	var oob *OutOfBoundsError
	var unk *UnknownOpcodeError
	var lim *StepLimitError
	return errors.As(err, &oob) || errors.As(err, &unk) || errors.As(err, &lim)
}
