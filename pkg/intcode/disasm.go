package intcode

import (
	"fmt"
	"strings"
)

// Line is one entry of a linear sweep over a memory image.
type Line struct {
	Addr  Cell
	Width int         // Cells covered by this line
	Inst  Instruction // Valid when Data is false
	Data  bool        // Cell is not decoded as an instruction
	Err   error       // Why decoding stopped, set on the first data line only
}

// OperandFault returns an *OutOfBoundsError for the first operand of an
// instruction line that does not address a cell of a memory with length
// cells. It returns nil for data lines and HALT.
func (l Line) OperandFault(length int) error {
	if l.Data || l.Inst.Op == OpHalt {
		return nil
	}
	for _, addr := range []Cell{l.Inst.A, l.Inst.B, l.Inst.Dest} {
		if addr >= Cell(length) {
			return &OutOfBoundsError{Address: addr, Length: length}
		}
	}
	return nil
}

// Sweep decodes mem linearly from address 0.
//
// Decoding stops at the first HALT or at the first cell that cannot start an
// instruction; every following cell is reported as data. Self-modifying
// programs can execute differently from what the sweep shows.
func Sweep(mem *Memory) []Line {
	var lines []Line
	length := Cell(mem.Len())
	code := true

	for ip := Cell(0); ip < length; {
		if !code {
			lines = append(lines, Line{Addr: ip, Width: 1, Data: true})
			ip++
			continue
		}

		inst, err := DecodeAt(mem, ip)
		if err != nil {
			lines = append(lines, Line{Addr: ip, Width: 1, Data: true, Err: err})
			code = false
			ip++
			continue
		}

		width := inst.Op.Width()
		lines = append(lines, Line{Addr: ip, Width: width, Inst: inst})
		ip += Cell(width)
		if inst.Op == OpHalt {
			code = false
		}
	}
	return lines
}

// LineAt returns the sweep line covering addr.
func LineAt(lines []Line, addr Cell) (Line, bool) {
	for _, l := range lines {
		if addr >= l.Addr && addr < l.Addr+Cell(l.Width) {
			return l, true
		}
	}
	return Line{}, false
}

// Disassemble returns a human-readable listing of mem.
func Disassemble(mem *Memory) string {
	return DisassembleWithName(mem, "")
}

// DisassembleWithName returns a human-readable listing with a name header.
func DisassembleWithName(mem *Memory, name string) string {
	var sb strings.Builder

	if name != "" {
		fmt.Fprintf(&sb, "; === %s ===\n", name)
	}
	fmt.Fprintf(&sb, "; Intcode program, %d cells\n", mem.Len())
	digest := mem.Digest()
	fmt.Fprintf(&sb, "; Digest: %x\n\n", digest[:8])

	for _, l := range Sweep(mem) {
		if l.Data {
			v, _ := mem.Get(l.Addr)
			if l.Err != nil {
				fmt.Fprintf(&sb, "%04d  DATA %-20d ; %v\n", l.Addr, v, l.Err)
			} else {
				fmt.Fprintf(&sb, "%04d  DATA %d\n", l.Addr, v)
			}
			continue
		}
		if err := l.OperandFault(mem.Len()); err != nil {
			fmt.Fprintf(&sb, "%04d  %-25s ; %v\n", l.Addr, l.Inst, err)
			continue
		}
		fmt.Fprintf(&sb, "%04d  %s\n", l.Addr, l.Inst)
	}

	return sb.String()
}
