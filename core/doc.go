// Package core implements the OR1K execution engine: the register file,
// special-purpose register space, exception vectoring and the quantum loop
// that ties fetch, decode and exec together. Everything else (the decode
// table, the instruction interpreter, the MMUs, the timer, the PIC and the
// memory port) is a separate package; Engine is where they are wired up and
// where the architectural state that does not belong to any one of them
// (GPR, SR, the exception shadow registers, the MAC accumulator) lives.
package core
