package opcode

import "github.com/janweinstock/or1kiss/bits"

// Classify maps a raw instruction word to its Opcode tag. It mirrors the
// dispatch tree of the reference decoder: a primary switch on the 6-bit
// major opcode field (bits 31..26), falling through to narrower-width
// fallback checks (11-bit, 16-bit and full 32-bit literal matches) for the
// handful of encodings that do not fit the 6-bit scheme.
func Classify(insn uint32) Opcode {
	switch bits.Field(insn, 31, 26) {
	case 0x38:
		return classifyALU(insn)
	case 0x06:
		return classifyUtil(insn)
	case 0x2e:
		return classifyShift(insn)
	case 0x31:
		return classifyMAC(insn)
	case 0x32:
		return classifyFPX(insn)

	// Control flow
	case 0x00:
		return J
	case 0x01:
		return Jal
	case 0x03:
		return Bnf
	case 0x04:
		return Bf
	case 0x11:
		return Jr
	case 0x12:
		return Jalr

	// ALU immediate
	case 0x27:
		return Addi
	case 0x28:
		return Addic
	case 0x29:
		return Andi
	case 0x2a:
		return Ori
	case 0x2b:
		return Xori
	case 0x2c:
		return Muli

	// Load & store
	case 0x1b:
		return Lwa
	case 0x21:
		return Lwz
	case 0x22:
		return Lws
	case 0x23:
		return Lbz
	case 0x24:
		return Lbs
	case 0x25:
		return Lhz
	case 0x26:
		return Lhs
	case 0x33:
		return Swa
	case 0x35:
		return Sw
	case 0x36:
		return Sb
	case 0x37:
		return Sh

	// System
	case 0x09:
		return Rfe
	case 0x2d:
		return Mfspr
	case 0x30:
		return Mtspr
	case 0x13:
		return Maci

	// Custom instruction slots
	case 0x1c:
		return Cust1
	case 0x1d:
		return Cust2
	case 0x1e:
		return Cust3
	case 0x1f:
		return Cust4
	case 0x3c:
		return Cust5
	case 0x3d:
		return Cust6
	case 0x3e:
		return Cust7
	case 0x3f:
		return Cust8
	}

	if bits.Field(insn, 31, 24) == 0x15 {
		return Nop
	}
	if op, ok := compareOpcodes[bits.Field(insn, 31, 21)]; ok {
		return op
	}
	switch bits.Field(insn, 31, 16) {
	case 0x2000:
		return Sys
	case 0x2100:
		return Trap
	}
	switch insn {
	case 0x22000000:
		return Msync
	case 0x23000000:
		return Csync
	case 0x22800000:
		return Psync
	}

	return Invalid
}

// compareOpcodes maps the 11-bit opcode field (bits 31..21) for the
// register-register and register-immediate "set flag" instructions. The
// values are not contiguous (0x5e6..0x5e9 and 0x726..0x729 are unused), so
// this is a lookup table rather than an array indexed by offset.
var compareOpcodes = map[uint32]Opcode{
	0x5e0: Sfeqi, 0x5e1: Sfnei, 0x5e2: Sfgtui, 0x5e3: Sfgeui, 0x5e4: Sfltui,
	0x5e5: Sfleui, 0x5ea: Sfgtsi, 0x5eb: Sfgesi, 0x5ec: Sfltsi, 0x5ed: Sflesi,
	0x720: Sfeq, 0x721: Sfne, 0x722: Sfgtu, 0x723: Sfgeu, 0x724: Sfltu,
	0x725: Sfleu, 0x72a: Sfgts, 0x72b: Sfges, 0x72c: Sflts, 0x72d: Sfles,
}

// classifyALU handles major opcode 0x38: the register-register ALU group,
// selected by the 2-bit field at [9:8] and a 4-bit sub-opcode at [3:0], plus
// (for shift/extend variants) the alternate 4-bit field at [9:6].
func classifyALU(insn uint32) Opcode {
	switch bits.Field(insn, 9, 8) {
	case 0:
		switch bits.Field(insn, 3, 0) {
		case 0x0:
			return Add
		case 0x1:
			return Addc
		case 0x2:
			return Sub
		case 0x3:
			return And
		case 0x4:
			return Or
		case 0x5:
			return Xor
		case 0xe:
			return Cmov
		case 0xf:
			return Ff1
		}
	case 1:
		if bits.Field(insn, 3, 0) == 0xf {
			return Fl1
		}
	case 3:
		switch bits.Field(insn, 3, 0) {
		case 0x6:
			return Mul
		case 0x7:
			return Muld
		case 0x9:
			return Div
		case 0xa:
			return Divu
		case 0xb:
			return Mulu
		case 0xc:
			return Muldu
		}
	}

	switch bits.Field(insn, 9, 6) {
	case 0:
		switch bits.Field(insn, 3, 0) {
		case 0x8:
			return Sll
		case 0xc:
			return Exths
		case 0xd:
			return Extws
		}
	case 1:
		switch bits.Field(insn, 3, 0) {
		case 0x8:
			return Srl
		case 0xc:
			return Extbs
		case 0xd:
			return Extwz
		}
	case 2:
		switch bits.Field(insn, 3, 0) {
		case 0x8:
			return Sra
		case 0xc:
			return Exthz
		}
	case 3:
		switch bits.Field(insn, 3, 0) {
		case 0x8:
			return Ror
		case 0xc:
			return Extbz
		}
	}

	return Invalid
}

func classifyUtil(insn uint32) Opcode {
	if bits.Field(insn, 16, 0) == 0x10000 {
		return Macrc
	}
	if bits.Field(insn, 16, 16) == 0 {
		return Movhi
	}
	return Invalid
}

func classifyShift(insn uint32) Opcode {
	switch bits.Field(insn, 7, 6) {
	case 0:
		return Slli
	case 1:
		return Srli
	case 2:
		return Srai
	case 3:
		return Rori
	}
	return Invalid
}

func classifyMAC(insn uint32) Opcode {
	switch insn & 0xf {
	case 1:
		return Mac
	case 2:
		return Msb
	case 3:
		return Macu
	case 4:
		return Msbu
	}
	return Invalid
}

// classifyFPX handles major opcode 0x32: ORFPX32/64 floating point, selected
// by the low byte, with the custom-instruction slots recovered from the top
// nibble when the low byte does not match a defined operation.
func classifyFPX(insn uint32) Opcode {
	switch insn & 0xff {
	case 0x00:
		return Fx32Add
	case 0x01:
		return Fx32Sub
	case 0x02:
		return Fx32Mul
	case 0x03:
		return Fx32Div
	case 0x04:
		return Fx32Itof
	case 0x05:
		return Fx32Ftoi
	case 0x06:
		return Fx32Rem
	case 0x07:
		return Fx32Madd
	case 0x08:
		return Fx32Sfeq
	case 0x09:
		return Fx32Sfne
	case 0x0a:
		return Fx32Sfgt
	case 0x0b:
		return Fx32Sfge
	case 0x0c:
		return Fx32Sflt
	case 0x0d:
		return Fx32Sfle
	case 0x10:
		return Fx64Add
	case 0x11:
		return Fx64Sub
	case 0x12:
		return Fx64Mul
	case 0x13:
		return Fx64Div
	case 0x14:
		return Fx64Itof
	case 0x15:
		return Fx64Ftoi
	case 0x16:
		return Fx64Rem
	case 0x17:
		return Fx64Madd
	case 0x18:
		return Fx64Sfeq
	case 0x19:
		return Fx64Sfne
	case 0x1a:
		return Fx64Sfgt
	case 0x1b:
		return Fx64Sfge
	case 0x1c:
		return Fx64Sflt
	case 0x1d:
		return Fx64Sfle
	}

	switch (insn & 0xff) >> 4 {
	case 0xd:
		return Fx32Cust1
	case 0xe:
		return Fx64Cust1
	}

	return Invalid
}
