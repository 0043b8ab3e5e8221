package disasm

import (
	"fmt"

	"github.com/janweinstock/or1kiss/core/decode"
	"github.com/janweinstock/or1kiss/core/opcode"
)

// reg formats a GPR index as the architecture's "rN" register name.
func reg(i uint8) string { return fmt.Sprintf("r%d", i) }

// Disassemble decodes word (fetched from addr) and renders it as one line
// of OR1K assembly text. Branch and jump immediates are shown as the
// absolute target address they resolve to, matching what a reader
// stepping through a trace wants to see rather than a raw byte offset.
func Disassemble(word uint32, addr uint32) string {
	in := decode.Decode(word, addr)
	return Format(in, addr)
}

// Format renders an already-decoded instruction. addr is the address it
// was fetched from, needed only to turn a relative branch/jump immediate
// into an absolute target.
func Format(in decode.Instruction, addr uint32) string {
	name := in.Op.String()

	switch in.Op {
	case opcode.J, opcode.Jal, opcode.Bf, opcode.Bnf:
		return fmt.Sprintf("%s %#x", name, addr+uint32(in.Imm))
	case opcode.Jr, opcode.Jalr:
		return fmt.Sprintf("%s %s", name, reg(in.B))

	case opcode.Lwz, opcode.Lws, opcode.Lwa, opcode.Lhz, opcode.Lhs,
		opcode.Lbz, opcode.Lbs:
		return fmt.Sprintf("%s %s,%d(%s)", name, reg(in.D), in.Imm, reg(in.A))
	case opcode.Sw, opcode.Swa, opcode.Sh, opcode.Sb:
		return fmt.Sprintf("%s %d(%s),%s", name, in.Imm, reg(in.A), reg(in.B))

	case opcode.Movhi:
		return fmt.Sprintf("%s %s,%#x", name, reg(in.D), uint32(in.Imm)>>16)

	case opcode.Mfspr:
		return fmt.Sprintf("%s %s,%s,%#x", name, reg(in.D), reg(in.A), uint32(in.Imm))
	case opcode.Mtspr:
		return fmt.Sprintf("%s %s,%s,%#x", name, reg(in.A), reg(in.B), uint32(in.Imm))

	case opcode.Extwz, opcode.Extws, opcode.Exthz, opcode.Exths,
		opcode.Extbz, opcode.Extbs, opcode.Ff1, opcode.Fl1,
		opcode.Fx32Itof, opcode.Fx32Ftoi, opcode.Fx64Itof, opcode.Fx64Ftoi:
		return fmt.Sprintf("%s %s,%s", name, reg(in.D), reg(in.A))

	case opcode.Add, opcode.Addc, opcode.Sub, opcode.And, opcode.Or,
		opcode.Xor, opcode.Cmov, opcode.Sll, opcode.Srl, opcode.Sra,
		opcode.Ror, opcode.Mul, opcode.Mulu, opcode.Div, opcode.Divu,
		opcode.Fx32Add, opcode.Fx32Sub, opcode.Fx32Mul, opcode.Fx32Div,
		opcode.Fx32Rem, opcode.Fx32Madd,
		opcode.Fx64Add, opcode.Fx64Sub, opcode.Fx64Mul, opcode.Fx64Div,
		opcode.Fx64Rem, opcode.Fx64Madd:
		return fmt.Sprintf("%s %s,%s,%s", name, reg(in.D), reg(in.A), reg(in.B))

	case opcode.Muld, opcode.Muldu, opcode.Mac, opcode.Macu, opcode.Msb, opcode.Msbu,
		opcode.Sfeq, opcode.Sfne, opcode.Sfgtu, opcode.Sfgeu, opcode.Sfltu,
		opcode.Sfleu, opcode.Sfgts, opcode.Sfges, opcode.Sflts, opcode.Sfles,
		opcode.Fx32Sfeq, opcode.Fx32Sfne, opcode.Fx32Sfgt, opcode.Fx32Sfge,
		opcode.Fx32Sflt, opcode.Fx32Sfle,
		opcode.Fx64Sfeq, opcode.Fx64Sfne, opcode.Fx64Sfgt, opcode.Fx64Sfge,
		opcode.Fx64Sflt, opcode.Fx64Sfle:
		return fmt.Sprintf("%s %s,%s", name, reg(in.A), reg(in.B))

	case opcode.Addi, opcode.Addic, opcode.Xori, opcode.Muli,
		opcode.Andi, opcode.Ori, opcode.Slli, opcode.Srli, opcode.Srai, opcode.Rori,
		opcode.Maci:
		return fmt.Sprintf("%s %s,%s,%d", name, reg(in.D), reg(in.A), in.Imm)

	case opcode.Sfeqi, opcode.Sfnei, opcode.Sfgtui, opcode.Sfgeui, opcode.Sfltui,
		opcode.Sfleui, opcode.Sfgtsi, opcode.Sfgesi, opcode.Sfltsi, opcode.Sflesi:
		return fmt.Sprintf("%s %s,%d", name, reg(in.A), in.Imm)

	case opcode.Macrc:
		return fmt.Sprintf("%s %s", name, reg(in.D))

	case opcode.Nop, opcode.Sys, opcode.Trap:
		return fmt.Sprintf("%s %#x", name, uint32(in.Imm))

	case opcode.Rfe, opcode.Csync, opcode.Msync, opcode.Psync:
		return name

	case opcode.Invalid:
		return fmt.Sprintf("(invalid %#08x)", in.Word)

	default:
		return name
	}
}
