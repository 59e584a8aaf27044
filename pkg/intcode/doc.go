// Package intcode implements the Intcode machine: a stored-program
// interpreter over a flat memory of unsigned cells, and the calibration
// search that drives it.
//
// # Instruction format
//
// Every instruction starts with an opcode cell. Operands are positional:
// each operand cell holds the address of a value, never the value itself.
//
//	1  ADD   a b dest    mem[dest] = mem[a] + mem[b]
//	2  MUL   a b dest    mem[dest] = mem[a] * mem[b]
//	99 HALT              stop
//
// ADD and MUL occupy four cells, HALT one. Arithmetic wraps modulo 2^64.
//
// # Faults
//
// A Machine never panics on a bad program. Reading an opcode outside the
// instruction set yields *UnknownOpcodeError; touching an address at or
// past the end of memory yields *OutOfBoundsError. An optional step limit
// yields *StepLimitError. Faults are terminal and leave memory as it stood
// when the fault was raised.
//
// # Calibration
//
// Search patches address 1 (noun) and address 2 (verb) of independent
// copies of a base image, runs each copy to completion and returns the
// first pair, in row-major order, that leaves the target at address 0.
// Trials may run concurrently without changing the answer.
package intcode
