// Package disasm renders a decoded instruction word as GNU-as-style OR1K
// assembly text (e.g. "l.add r3,r4,r5"), for the CLI trace path (-t) and
// any other human-facing output. It is a pure function over core/decode's
// output; it never touches architectural state.
package disasm
