package intcode

import "fmt"

// Opcode is the integer tag in the first cell of an instruction.
type Opcode Cell

const (
	OpAdd  Opcode = 1  // mem[dest] = mem[a] + mem[b]
	OpMul  Opcode = 2  // mem[dest] = mem[a] * mem[b]
	OpHalt Opcode = 99 // stop execution
)

// OpcodeInfo provides metadata about each opcode for decoding and disassembly.
type OpcodeInfo struct {
	Name     string // Human-readable name
	Width    int    // Cells consumed by the instruction, opcode included
	Operands int    // Number of positional operands (sources and destination)
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpAdd:  {"ADD", 4, 3},
	OpMul:  {"MUL", 4, 3},
	OpHalt: {"HALT", 1, 0},
}

// GetOpcodeInfo returns metadata for an opcode.
// The boolean is false if the opcode is not part of the instruction set.
func GetOpcodeInfo(op Opcode) (OpcodeInfo, bool) {
	info, ok := opcodeInfoTable[op]
	if !ok {
		return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(%d)", Cell(op))}, false
	}
	return info, true
}

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	info, _ := GetOpcodeInfo(op)
	return info.Name
}

// Width returns the number of cells the instruction occupies, or 0 for
// unknown opcodes.
func (op Opcode) Width() int {
	info, _ := GetOpcodeInfo(op)
	return info.Width
}

// Valid reports whether op belongs to the instruction set.
func (op Opcode) Valid() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// AllOpcodes returns every defined opcode in ascending order.
func AllOpcodes() []Opcode {
	return []Opcode{OpAdd, OpMul, OpHalt}
}
