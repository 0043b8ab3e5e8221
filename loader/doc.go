// Package loader gets a guest program's bytes into the simulator's
// backing memory. It knows two shapes: an ELF executable, whose PT_LOAD
// segments are written at their own virtual addresses, and a raw/flat
// binary, written whole at a caller-supplied base address. Both go
// through the same port.Port debug-write transaction the RSP stub uses
// for memory writes, so a loaded image behaves exactly like one built up
// by a sequence of `M` packets.
package loader
