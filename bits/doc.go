// Package bits implements the small set of bit-manipulation primitives the
// rest of or1kiss builds on: sign extension, bit-field extraction,
// find-first/last-set, and endian byte swaps. None of it is OR1K specific;
// it is kept as a leaf package precisely so opcode, decode and exec can
// depend on it without depending on each other.
package bits
