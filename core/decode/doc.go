// Package decode turns a classified opcode and its raw 32-bit instruction
// word into an Instruction: register indices and an immediate, ready for
// the exec package to interpret. Decoding never touches machine state; it
// is a pure function of the word. Decode's fetch-address argument is
// unused: exec resolves PC-relative branch targets from the immediate and
// the current PC.
package decode
