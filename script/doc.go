// Package script embeds github.com/yuin/gopher-lua to let a guest program
// or a CLI operator drive the simulator from a Lua script: a `sim` table
// exposing read32/write32/step/regs. Scripts run either up front (the
// `-script <file>` CLI flag) or on demand, triggered by the guest
// executing `l.nop` with the report sub-function code (spec.md §6's
// NOP-code side channel, code 2).
package script
