// Package opcode classifies a raw 32-bit OR1K instruction word into one of
// the architectural opcode tags (ORBIS32 integer, ORFPX32/64 floating point,
// and the eight reserved custom-instruction slots). Classification is a
// pure function: same word in, same tag out, no allocation.
package opcode
