package decode

import (
	"github.com/janweinstock/or1kiss/bits"
	"github.com/janweinstock/or1kiss/core/opcode"
)

// NoReg marks a register slot that a particular instruction does not use.
const NoReg uint8 = 0xff

// LinkReg is the architectural link register written by l.jal and l.jalr.
const LinkReg uint8 = 9

// Instruction is the decoded form of one instruction word: register
// operand indices plus an already-extended immediate. exec interprets it
// against a register file; decode itself never reads machine state.
type Instruction struct {
	Op   opcode.Opcode
	Word uint32

	D uint8 // destination GPR index, or NoReg
	A uint8 // first source GPR index, or NoReg
	B uint8 // second source GPR index, or NoReg

	Imm int32 // sign- or zero-extended immediate, per opcode
}

// Decode classifies word and extracts its operands. addr is the address
// the word was fetched from; it is unused today (branch targets are
// computed by exec from the immediate and current PC) but kept so callers
// do not need to special-case a future PC-relative encoding.
func Decode(word uint32, addr uint32) Instruction {
	op := opcode.Classify(word)
	in := Instruction{Op: op, Word: word, D: NoReg, A: NoReg, B: NoReg}

	switch op {
	// Control flow: 26-bit word-aligned relative offset.
	case opcode.J, opcode.Bf, opcode.Bnf:
		in.Imm = rel26(word)
	case opcode.Jal:
		in.Imm = rel26(word)
		in.D = LinkReg
	case opcode.Jr:
		in.B = regB(word)
	case opcode.Jalr:
		in.B = regB(word)
		in.D = LinkReg

	// Loads: standard D,A,imm16(signed) layout.
	case opcode.Lwz, opcode.Lws, opcode.Lwa, opcode.Lhz, opcode.Lhs,
		opcode.Lbz, opcode.Lbs:
		in.D = regD(word)
		in.A = regA(word)
		in.Imm = imm16s(word)

	// Stores: split 16-bit signed immediate, A=base, B=value.
	case opcode.Sw, opcode.Swa, opcode.Sh, opcode.Sb:
		in.A = regA(word)
		in.B = regB(word)
		in.Imm = immSplit16s(word)

	// l.movhi: D, imm shifted into the upper half word.
	case opcode.Movhi:
		in.D = regD(word)
		in.Imm = int32(bits.Field(word, 15, 0) << 16)

	// l.mfspr: D=dest, A=spr-selector base, K=zero-extended offset.
	case opcode.Mfspr:
		in.D = regD(word)
		in.A = regA(word)
		in.Imm = int32(bits.Field(word, 15, 0))

	// l.mtspr: A=spr-selector base (read, not written), B=value,
	// split 11/11-bit zero-extended offset. The "D" slot is unused;
	// A doubles as the SPR-selector operand rather than a destination.
	case opcode.Mtspr:
		in.A = regA(word)
		in.B = regB(word)
		in.Imm = int32((bits.Field(word, 25, 21) << 11) | bits.Field(word, 10, 0))

	// Sign/zero extend and bit-scan: D, A only.
	case opcode.Extwz, opcode.Extws, opcode.Exthz, opcode.Exths,
		opcode.Extbz, opcode.Extbs:
		in.D = regD(word)
		in.A = regA(word)

	// ALU reg,reg and compare reg,reg.
	case opcode.Add, opcode.Addc, opcode.Sub, opcode.And, opcode.Or,
		opcode.Xor, opcode.Cmov, opcode.Sll, opcode.Srl, opcode.Sra,
		opcode.Ror, opcode.Mul, opcode.Mulu, opcode.Div, opcode.Divu:
		in.D = regD(word)
		in.A = regA(word)
		in.B = regB(word)
	case opcode.Muld, opcode.Muldu:
		// Result goes to the MAC accumulator, not a GPR.
		in.A = regA(word)
		in.B = regB(word)
	case opcode.Ff1, opcode.Fl1:
		in.D = regD(word)
		in.A = regA(word)
	case opcode.Sfeq, opcode.Sfne, opcode.Sfgtu, opcode.Sfgeu, opcode.Sfltu,
		opcode.Sfleu, opcode.Sfgts, opcode.Sfges, opcode.Sflts, opcode.Sfles:
		in.A = regA(word)
		in.B = regB(word)

	// ALU reg,imm: sign-extended.
	case opcode.Addi, opcode.Addic, opcode.Xori, opcode.Muli:
		in.D = regD(word)
		in.A = regA(word)
		in.Imm = imm16s(word)
	// ALU reg,imm: zero-extended.
	case opcode.Andi, opcode.Ori:
		in.D = regD(word)
		in.A = regA(word)
		in.Imm = int32(bits.Field(word, 15, 0))
	// Shift/rotate by immediate: 6-bit unsigned shift amount.
	case opcode.Slli, opcode.Srli, opcode.Srai, opcode.Rori:
		in.D = regD(word)
		in.A = regA(word)
		in.Imm = int32(bits.Field(word, 5, 0))

	// Compare reg,imm: sign-extended, reuses reg,reg execute semantics.
	case opcode.Sfeqi, opcode.Sfnei, opcode.Sfgtui, opcode.Sfgeui, opcode.Sfltui,
		opcode.Sfleui, opcode.Sfgtsi, opcode.Sfgesi, opcode.Sfltsi, opcode.Sflesi:
		in.A = regA(word)
		in.Imm = imm16s(word)

	// MAC unit.
	case opcode.Mac, opcode.Macu, opcode.Msb, opcode.Msbu:
		in.A = regA(word)
		in.B = regB(word)
	case opcode.Maci:
		in.A = regA(word)
		in.Imm = imm16s(word)
	case opcode.Macrc:
		in.D = regD(word)

	// System interface: K is a zero-extended literal payload (or.l.nop's
	// sub-function code), unused for l.rfe/l.csync/l.msync/l.psync.
	case opcode.Nop:
		in.A = 3
		in.Imm = int32(bits.Field(word, 15, 0))
	case opcode.Sys, opcode.Trap:
		in.Imm = int32(bits.Field(word, 15, 0))
	case opcode.Rfe, opcode.Csync, opcode.Msync, opcode.Psync:
		// no operands

	// ORFPX32/64: same register layout as the integer reg,reg ALU group.
	case opcode.Fx32Add, opcode.Fx32Sub, opcode.Fx32Mul, opcode.Fx32Div,
		opcode.Fx32Rem, opcode.Fx32Madd,
		opcode.Fx64Add, opcode.Fx64Sub, opcode.Fx64Mul, opcode.Fx64Div,
		opcode.Fx64Rem, opcode.Fx64Madd:
		in.D = regD(word)
		in.A = regA(word)
		in.B = regB(word)
	case opcode.Fx32Itof, opcode.Fx32Ftoi, opcode.Fx64Itof, opcode.Fx64Ftoi:
		in.D = regD(word)
		in.A = regA(word)
	case opcode.Fx32Sfeq, opcode.Fx32Sfne, opcode.Fx32Sfgt, opcode.Fx32Sfge,
		opcode.Fx32Sflt, opcode.Fx32Sfle,
		opcode.Fx64Sfeq, opcode.Fx64Sfne, opcode.Fx64Sfgt, opcode.Fx64Sfge,
		opcode.Fx64Sflt, opcode.Fx64Sfle:
		in.A = regA(word)
		in.B = regB(word)
	}

	return in
}

func regD(w uint32) uint8 { return uint8(bits.Field(w, 25, 21)) }
func regA(w uint32) uint8 { return uint8(bits.Field(w, 20, 16)) }
func regB(w uint32) uint8 { return uint8(bits.Field(w, 15, 11)) }

func imm16s(w uint32) int32 {
	return int32(bits.SignExtend(bits.Field(w, 15, 0), 16))
}

func immSplit16s(w uint32) int32 {
	v := (bits.Field(w, 25, 21) << 11) | bits.Field(w, 10, 0)
	return int32(bits.SignExtend(v, 16))
}

func rel26(w uint32) int32 {
	n := bits.Field(w, 25, 0) << 2
	return int32(bits.SignExtend(n, 28))
}
