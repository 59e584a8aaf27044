package intcode

import (
	"fmt"

	"github.com/tliron/commonlog"
)

var machineLog = commonlog.GetLogger("intcode.machine")

// State is the execution state of a Machine.
type State uint8

const (
	// StateRunning means the machine can execute another instruction.
	StateRunning State = iota
	// StateHalted means HALT was executed.
	StateHalted
	// StateFaulted means a fault aborted execution.
	StateFaulted
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateHalted:
		return "halted"
	case StateFaulted:
		return "faulted"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// Instruction is a decoded instruction. A, B and Dest are addresses.
type Instruction struct {
	Op   Opcode
	A    Cell
	B    Cell
	Dest Cell
}

// String renders the instruction in disassembly form.
func (in Instruction) String() string {
	if in.Op == OpHalt {
		return in.Op.String()
	}
	return fmt.Sprintf("%-4s [%d] [%d] -> [%d]", in.Op, in.A, in.B, in.Dest)
}

// DecodeAt decodes the instruction whose opcode cell is at ip.
// The opcode is validated before any operand cell is read, so an unknown
// opcode near the end of memory reports UnknownOpcodeError, not OutOfBounds.
func DecodeAt(mem *Memory, ip Cell) (Instruction, error) {
	v, err := mem.Get(ip)
	if err != nil {
		return Instruction{}, err
	}
	op := Opcode(v)
	if !op.Valid() {
		return Instruction{}, &UnknownOpcodeError{Value: v, IP: ip}
	}

	inst := Instruction{Op: op}
	if op.Width() == 1 {
		return inst, nil
	}
	if inst.A, err = mem.Get(ip + 1); err != nil {
		return Instruction{}, err
	}
	if inst.B, err = mem.Get(ip + 2); err != nil {
		return Instruction{}, err
	}
	if inst.Dest, err = mem.Get(ip + 3); err != nil {
		return Instruction{}, err
	}
	return inst, nil
}

// Machine executes a program in place over a memory image.
type Machine struct {
	mem   *Memory
	ip    Cell
	state State
	steps uint64
	fault error

	// StepLimit aborts Run with a *StepLimitError after this many
	// instructions. Zero means no limit.
	StepLimit uint64

	// Trace logs every executed instruction at debug level.
	Trace bool
}

// NewMachine creates a machine over mem with the instruction pointer at 0.
// The machine mutates mem directly; clone it first to keep the original.
func NewMachine(mem *Memory) *Machine {
	return &Machine{mem: mem}
}

// Memory returns the image the machine executes over.
func (m *Machine) Memory() *Memory { return m.mem }

// IP returns the current instruction pointer.
func (m *Machine) IP() Cell { return m.ip }

// State returns the current execution state.
func (m *Machine) State() State { return m.state }

// Steps returns the number of instructions executed, HALT included.
func (m *Machine) Steps() uint64 { return m.steps }

// Fault returns the error that faulted the machine, or nil.
func (m *Machine) Fault() error { return m.fault }

// Step executes one instruction.
// It returns ErrHalted if the machine has already halted and the recorded
// fault if it has already faulted.
func (m *Machine) Step() error {
	switch m.state {
	case StateHalted:
		return ErrHalted
	case StateFaulted:
		return m.fault
	}

	if m.StepLimit > 0 && m.steps >= m.StepLimit {
		return m.fail(&StepLimitError{Limit: m.StepLimit})
	}

	inst, err := DecodeAt(m.mem, m.ip)
	if err != nil {
		return m.fail(err)
	}

	if m.Trace {
		machineLog.Debugf("[%04d] %s", m.ip, inst)
	}

	if err := m.execute(inst); err != nil {
		return m.fail(err)
	}
	m.steps++
	return nil
}

// Run steps the machine until it halts or faults.
// A nil return means the machine halted. Memory is left as it stood at the
// moment of a fault.
func (m *Machine) Run() error {
	for m.state == StateRunning {
		if err := m.Step(); err != nil {
			return err
		}
	}
	if m.state == StateFaulted {
		return m.fault
	}
	return nil
}

// execute applies a decoded instruction and advances the instruction pointer.
func (m *Machine) execute(inst Instruction) error {
	switch inst.Op {
	case OpHalt:
		m.state = StateHalted
		return nil
	case OpAdd:
		return m.arith(inst, func(a, b Cell) Cell { return a + b })
	case OpMul:
		return m.arith(inst, func(a, b Cell) Cell { return a * b })
	default:
		return &UnknownOpcodeError{Value: Cell(inst.Op), IP: m.ip}
	}
}

func (m *Machine) arith(inst Instruction, fn func(a, b Cell) Cell) error {
	a, err := m.mem.Get(inst.A)
	if err != nil {
		return err
	}
	b, err := m.mem.Get(inst.B)
	if err != nil {
		return err
	}
	if err := m.mem.Set(inst.Dest, fn(a, b)); err != nil {
		return err
	}
	m.ip += Cell(inst.Op.Width())
	return nil
}

func (m *Machine) fail(err error) error {
	m.state = StateFaulted
	m.fault = err
	if m.Trace {
		machineLog.Debugf("[%04d] fault: %v", m.ip, err)
	}
	return err
}
