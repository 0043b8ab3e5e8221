package opcode

// Opcode tags one decoded OR1K instruction. The zero value, Invalid, is what
// Classify returns for any word that does not match a known encoding.
type Opcode int

const (
	Invalid Opcode = iota

	// ORBIS32 system / util
	Nop
	Mfspr
	Mtspr
	Movhi

	// Control flow
	J
	Jr
	Jal
	Jalr
	Bf
	Bnf

	// Load & store
	Lwa
	Lwz
	Lws
	Lhz
	Lhs
	Lbz
	Lbs
	Swa
	Sw
	Sh
	Sb

	// Sign/zero extend
	Extwz
	Extws
	Exthz
	Exths
	Extbz
	Extbs

	// ALU reg,reg
	Add
	Addc
	Sub
	And
	Or
	Xor
	Cmov
	Ff1
	Fl1
	Sll
	Srl
	Sra
	Ror
	Mul
	Mulu
	Muld
	Muldu
	Div
	Divu

	// ALU reg,imm
	Addi
	Addic
	Andi
	Ori
	Xori
	Muli
	Slli
	Srli
	Srai
	Rori

	// Compare reg,reg
	Sfeq
	Sfne
	Sfgtu
	Sfgeu
	Sfltu
	Sfleu
	Sfgts
	Sfges
	Sflts
	Sfles

	// Compare reg,imm
	Sfeqi
	Sfnei
	Sfgtui
	Sfgeui
	Sfltui
	Sfleui
	Sfgtsi
	Sfgesi
	Sfltsi
	Sflesi

	// MAC unit
	Mac
	Macu
	Msb
	Msbu
	Maci
	Macrc

	// System interface
	Sys
	Trap
	Msync
	Psync
	Csync
	Rfe

	// Custom instruction slots, never populated by this implementation but
	// kept so decode tables stay total over the primary 6-bit opcode field.
	Cust1
	Cust2
	Cust3
	Cust4
	Cust5
	Cust6
	Cust7
	Cust8

	// ORFPX32
	Fx32Add
	Fx32Sub
	Fx32Mul
	Fx32Div
	Fx32Rem
	Fx32Madd
	Fx32Itof
	Fx32Ftoi
	Fx32Sfeq
	Fx32Sfne
	Fx32Sfgt
	Fx32Sfge
	Fx32Sflt
	Fx32Sfle
	Fx32Cust1

	// ORFPX64
	Fx64Add
	Fx64Sub
	Fx64Mul
	Fx64Div
	Fx64Rem
	Fx64Madd
	Fx64Itof
	Fx64Ftoi
	Fx64Sfeq
	Fx64Sfne
	Fx64Sfgt
	Fx64Sfge
	Fx64Sflt
	Fx64Sfle
	Fx64Cust1

	numOpcodes
)

var names = map[Opcode]string{
	Invalid: "invalid",
	Nop:     "l.nop", Mfspr: "l.mfspr", Mtspr: "l.mtspr", Movhi: "l.movhi",
	J: "l.j", Jr: "l.jr", Jal: "l.jal", Jalr: "l.jalr", Bf: "l.bf", Bnf: "l.bnf",
	Lwa: "l.lwa", Lwz: "l.lwz", Lws: "l.lws", Lhz: "l.lhz", Lhs: "l.lhs",
	Lbz: "l.lbz", Lbs: "l.lbs", Swa: "l.swa", Sw: "l.sw", Sh: "l.sh", Sb: "l.sb",
	Extwz: "l.extwz", Extws: "l.extws", Exthz: "l.exthz", Exths: "l.exths",
	Extbz: "l.extbz", Extbs: "l.extbs",
	Add: "l.add", Addc: "l.addc", Sub: "l.sub", And: "l.and", Or: "l.or",
	Xor: "l.xor", Cmov: "l.cmov", Ff1: "l.ff1", Fl1: "l.fl1", Sll: "l.sll",
	Srl: "l.srl", Sra: "l.sra", Ror: "l.ror", Mul: "l.mul", Mulu: "l.mulu",
	Muld: "l.muld", Muldu: "l.muldu", Div: "l.div", Divu: "l.divu",
	Addi: "l.addi", Addic: "l.addic", Andi: "l.andi", Ori: "l.ori",
	Xori: "l.xori", Muli: "l.muli", Slli: "l.slli", Srli: "l.srli",
	Srai: "l.srai", Rori: "l.rori",
	Sfeq: "l.sfeq", Sfne: "l.sfne", Sfgtu: "l.sfgtu", Sfgeu: "l.sfgeu",
	Sfltu: "l.sfltu", Sfleu: "l.sfleu", Sfgts: "l.sfgts", Sfges: "l.sfges",
	Sflts: "l.sflts", Sfles: "l.sfles",
	Sfeqi: "l.sfeqi", Sfnei: "l.sfnei", Sfgtui: "l.sfgtui", Sfgeui: "l.sfgeui",
	Sfltui: "l.sfltui", Sfleui: "l.sfleui", Sfgtsi: "l.sfgtsi", Sfgesi: "l.sfgesi",
	Sfltsi: "l.sfltsi", Sflesi: "l.sflesi",
	Mac: "l.mac", Macu: "l.macu", Msb: "l.msb", Msbu: "l.msbu", Maci: "l.maci",
	Macrc: "l.macrc",
	Sys:   "l.sys", Trap: "l.trap", Msync: "l.msync", Psync: "l.psync",
	Csync: "l.csync", Rfe: "l.rfe",
	Cust1: "l.cust1", Cust2: "l.cust2", Cust3: "l.cust3", Cust4: "l.cust4",
	Cust5: "l.cust5", Cust6: "l.cust6", Cust7: "l.cust7", Cust8: "l.cust8",
	Fx32Add: "lf.add.s", Fx32Sub: "lf.sub.s", Fx32Mul: "lf.mul.s",
	Fx32Div: "lf.div.s", Fx32Rem: "lf.rem.s", Fx32Madd: "lf.madd.s",
	Fx32Itof: "lf.itof.s", Fx32Ftoi: "lf.ftoi.s", Fx32Sfeq: "lf.sfeq.s",
	Fx32Sfne: "lf.sfne.s", Fx32Sfgt: "lf.sfgt.s", Fx32Sfge: "lf.sfge.s",
	Fx32Sflt: "lf.sflt.s", Fx32Sfle: "lf.sfle.s", Fx32Cust1: "lf.cust1.s",
	Fx64Add: "lf.add.d", Fx64Sub: "lf.sub.d", Fx64Mul: "lf.mul.d",
	Fx64Div: "lf.div.d", Fx64Rem: "lf.rem.d", Fx64Madd: "lf.madd.d",
	Fx64Itof: "lf.itof.d", Fx64Ftoi: "lf.ftoi.d", Fx64Sfeq: "lf.sfeq.d",
	Fx64Sfne: "lf.sfne.d", Fx64Sfgt: "lf.sfgt.d", Fx64Sfge: "lf.sfge.d",
	Fx64Sflt: "lf.sflt.d", Fx64Sfle: "lf.sfle.d", Fx64Cust1: "lf.cust1.d",
}

func (o Opcode) String() string {
	if s, ok := names[o]; ok {
		return s
	}
	return "l.unknown"
}

// NumOpcodes is the size a decode-table array indexed by Opcode needs.
const NumOpcodes = int(numOpcodes)
