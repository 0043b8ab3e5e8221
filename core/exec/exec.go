package exec

import (
	"math"
	"math/bits"

	"github.com/janweinstock/or1kiss/core/decode"
	"github.com/janweinstock/or1kiss/core/except"
	"github.com/janweinstock/or1kiss/core/opcode"
)

// Execute carries out one decoded instruction against m. Architectural
// exceptions, including an illegal or unimplemented opcode, are raised
// through m.Raise. The returned error is the one m.NopCode, m.ReadSPR or
// m.WriteSPR returned (l.nop, l.mfspr, l.mtspr); core.Engine's loop turns
// a non-nil error into an illegal-instruction exception.
func Execute(m Machine, in decode.Instruction) error {
	switch in.Op {
	case opcode.Nop:
		return m.NopCode(uint32(in.Imm), m.GPR(in.A))

	case opcode.Add:
		execAdd(m, in, m.GPR(in.A), m.GPR(in.B), false)
	case opcode.Addi:
		execAdd(m, in, m.GPR(in.A), uint32(in.Imm), false)
	case opcode.Addc:
		carry := uint32(0)
		if m.Carry() {
			carry = 1
		}
		execAdd(m, in, m.GPR(in.A), m.GPR(in.B)+carry, true)
	case opcode.Addic:
		carry := uint32(0)
		if m.Carry() {
			carry = 1
		}
		execAdd(m, in, m.GPR(in.A), uint32(in.Imm)+carry, true)
	case opcode.Sub:
		execSub(m, in, m.GPR(in.A), m.GPR(in.B))

	case opcode.And:
		m.SetGPR(in.D, m.GPR(in.A)&m.GPR(in.B))
	case opcode.Andi:
		m.SetGPR(in.D, m.GPR(in.A)&uint32(in.Imm))
	case opcode.Or:
		m.SetGPR(in.D, m.GPR(in.A)|m.GPR(in.B))
	case opcode.Ori:
		m.SetGPR(in.D, m.GPR(in.A)|uint32(in.Imm))
	case opcode.Xor:
		m.SetGPR(in.D, m.GPR(in.A)^m.GPR(in.B))
	case opcode.Xori:
		m.SetGPR(in.D, m.GPR(in.A)^uint32(in.Imm))

	case opcode.Movhi:
		m.SetGPR(in.D, uint32(in.Imm))
	case opcode.Cmov:
		if m.Flag() {
			m.SetGPR(in.D, m.GPR(in.A))
		} else {
			m.SetGPR(in.D, m.GPR(in.B))
		}

	case opcode.Ff1:
		m.SetGPR(in.D, ff1(m.GPR(in.A)))
	case opcode.Fl1:
		m.SetGPR(in.D, fl1(m.GPR(in.A)))

	case opcode.Sll:
		m.SetGPR(in.D, m.GPR(in.A)<<(m.GPR(in.B)&0x1f))
	case opcode.Slli:
		m.SetGPR(in.D, m.GPR(in.A)<<(uint32(in.Imm)&0x1f))
	case opcode.Srl:
		m.SetGPR(in.D, m.GPR(in.A)>>(m.GPR(in.B)&0x1f))
	case opcode.Srli:
		m.SetGPR(in.D, m.GPR(in.A)>>(uint32(in.Imm)&0x1f))
	case opcode.Sra:
		m.SetGPR(in.D, uint32(int32(m.GPR(in.A))>>(m.GPR(in.B)&0x1f)))
	case opcode.Srai:
		m.SetGPR(in.D, uint32(int32(m.GPR(in.A))>>(uint32(in.Imm)&0x1f)))
	case opcode.Ror:
		m.SetGPR(in.D, bits.RotateLeft32(m.GPR(in.A), -int(m.GPR(in.B)&0x1f)))
	case opcode.Rori:
		m.SetGPR(in.D, bits.RotateLeft32(m.GPR(in.A), -int(uint32(in.Imm)&0x1f)))

	case opcode.Extwz, opcode.Extws:
		m.SetGPR(in.D, m.GPR(in.A))
	case opcode.Exthz:
		m.SetGPR(in.D, uint32(uint16(m.GPR(in.A))))
	case opcode.Exths:
		m.SetGPR(in.D, uint32(int32(int16(uint16(m.GPR(in.A))))))
	case opcode.Extbz:
		m.SetGPR(in.D, uint32(uint8(m.GPR(in.A))))
	case opcode.Extbs:
		m.SetGPR(in.D, uint32(int32(int8(uint8(m.GPR(in.A))))))

	case opcode.Mul:
		execMul(m, in, m.GPR(in.A), m.GPR(in.B))
	case opcode.Muli:
		execMul(m, in, m.GPR(in.A), uint32(in.Imm))
	case opcode.Mulu:
		p := uint64(m.GPR(in.A)) * uint64(m.GPR(in.B))
		carry := p > 0xffffffff
		m.SetCarry(carry)
		m.CheckRange(CondCarryMul, carry)
		m.SetGPR(in.D, uint32(p))
	case opcode.Div:
		execDiv(m, in, int32(m.GPR(in.A)), int32(m.GPR(in.B)))
	case opcode.Divu:
		b := m.GPR(in.B)
		m.SetCarry(b == 0)
		m.CheckRange(CondDivZero, b == 0)
		if b != 0 {
			m.SetGPR(in.D, m.GPR(in.A)/b)
		}
	case opcode.Muld:
		p := int64(int32(m.GPR(in.A))) * int64(int32(m.GPR(in.B)))
		m.SetMAC(uint64(p))
	case opcode.Muldu:
		m.SetMAC(uint64(m.GPR(in.A)) * uint64(m.GPR(in.B)))

	case opcode.Mac:
		m.SetMAC(m.MAC() + uint64(int64(int32(m.GPR(in.A)))*int64(int32(m.GPR(in.B)))))
	case opcode.Maci:
		m.SetMAC(m.MAC() + uint64(int64(int32(m.GPR(in.A)))*int64(in.Imm)))
	case opcode.Macu:
		m.SetMAC(m.MAC() + uint64(m.GPR(in.A))*uint64(m.GPR(in.B)))
	case opcode.Msb:
		m.SetMAC(m.MAC() - uint64(int64(int32(m.GPR(in.A)))*int64(int32(m.GPR(in.B)))))
	case opcode.Msbu:
		m.SetMAC(m.MAC() - uint64(m.GPR(in.A))*uint64(m.GPR(in.B)))
	case opcode.Macrc:
		m.SetGPR(in.D, uint32(m.MAC()))
		m.SetMAC(0)

	case opcode.Sfeq, opcode.Sfeqi:
		m.SetFlag(m.GPR(in.A) == sfOperand(m, in))
	case opcode.Sfne, opcode.Sfnei:
		m.SetFlag(m.GPR(in.A) != sfOperand(m, in))
	case opcode.Sfgtu, opcode.Sfgtui:
		m.SetFlag(m.GPR(in.A) > sfOperand(m, in))
	case opcode.Sfgeu, opcode.Sfgeui:
		m.SetFlag(m.GPR(in.A) >= sfOperand(m, in))
	case opcode.Sfltu, opcode.Sfltui:
		m.SetFlag(m.GPR(in.A) < sfOperand(m, in))
	case opcode.Sfleu, opcode.Sfleui:
		m.SetFlag(m.GPR(in.A) <= sfOperand(m, in))
	case opcode.Sfgts, opcode.Sfgtsi:
		m.SetFlag(int32(m.GPR(in.A)) > int32(sfOperand(m, in)))
	case opcode.Sfges, opcode.Sfgesi:
		m.SetFlag(int32(m.GPR(in.A)) >= int32(sfOperand(m, in)))
	case opcode.Sflts, opcode.Sfltsi:
		m.SetFlag(int32(m.GPR(in.A)) < int32(sfOperand(m, in)))
	case opcode.Sfles, opcode.Sflesi:
		m.SetFlag(int32(m.GPR(in.A)) <= int32(sfOperand(m, in)))

	case opcode.J:
		jump(m, m.PC()+uint32(in.Imm))
	case opcode.Jal:
		m.SetGPR(decode.LinkReg, linkAddr(m))
		jump(m, m.PC()+uint32(in.Imm))
	case opcode.Jr:
		jump(m, m.GPR(in.B))
	case opcode.Jalr:
		m.SetGPR(decode.LinkReg, linkAddr(m))
		jump(m, m.GPR(in.B))
	case opcode.Bf:
		if m.Flag() {
			jump(m, m.PC()+uint32(in.Imm))
		}
	case opcode.Bnf:
		if !m.Flag() {
			jump(m, m.PC()+uint32(in.Imm))
		}

	case opcode.Lwz, opcode.Lws:
		loadTo(m, in, 4, false)
	case opcode.Lwa:
		loadExcl(m, in)
	case opcode.Lhz:
		loadTo(m, in, 2, false)
	case opcode.Lhs:
		loadTo(m, in, 2, true)
	case opcode.Lbz:
		loadTo(m, in, 1, false)
	case opcode.Lbs:
		loadTo(m, in, 1, true)

	case opcode.Sw:
		store(m, in, 4)
	case opcode.Swa:
		storeExcl(m, in)
	case opcode.Sh:
		store(m, in, 2)
	case opcode.Sb:
		store(m, in, 1)

	case opcode.Mfspr:
		v, err := m.ReadSPR(m.GPR(in.A) | uint32(in.Imm))
		if err != nil {
			return err
		}
		m.SetGPR(in.D, v)
	case opcode.Mtspr:
		return m.WriteSPR(m.GPR(in.A)|uint32(in.Imm), m.GPR(in.B))

	case opcode.Sys:
		m.Raise(except.Syscall)
	case opcode.Trap:
		m.Raise(except.Trap)
	case opcode.Rfe:
		m.ReturnFromException()
	case opcode.Msync, opcode.Csync, opcode.Psync:
		m.Sync()

	case opcode.Fx32Add, opcode.Fx32Sub, opcode.Fx32Mul, opcode.Fx32Div,
		opcode.Fx32Rem, opcode.Fx32Madd:
		execFx32(m, in)
	case opcode.Fx32Itof:
		m.SetGPR(in.D, math.Float32bits(float32(int32(m.GPR(in.A)))))
	case opcode.Fx32Ftoi:
		m.SetGPR(in.D, uint32(int32(math.Float32frombits(m.GPR(in.A)))))
	case opcode.Fx32Sfeq, opcode.Fx32Sfne, opcode.Fx32Sfgt, opcode.Fx32Sfge,
		opcode.Fx32Sflt, opcode.Fx32Sfle:
		execFx32Cmp(m, in)

	case opcode.Fx64Add, opcode.Fx64Sub, opcode.Fx64Mul, opcode.Fx64Div,
		opcode.Fx64Rem, opcode.Fx64Madd:
		execFx64(m, in)
	case opcode.Fx64Itof:
		d := float64(int64(m.MAC()))
		setFx64(m, in.D, d)
	case opcode.Fx64Ftoi:
		m.SetMAC(uint64(int64(fx64At(m, in.A))))
	case opcode.Fx64Sfeq, opcode.Fx64Sfne, opcode.Fx64Sfgt, opcode.Fx64Sfge,
		opcode.Fx64Sflt, opcode.Fx64Sfle:
		execFx64Cmp(m, in)

	case opcode.Invalid:
		m.Raise(except.IllegalInsn)
	default:
		// Custom instruction slots and anything else this simulator does
		// not implement behave as illegal instructions rather than panic.
		m.Raise(except.IllegalInsn)
	}

	return nil
}

func jump(m Machine, target uint32) {
	m.ScheduleJump(target, delayOf(m))
}

// delayOf converts the Machine's CPUCFGR_ND setting into ScheduleJump's
// delay argument: one retiring delay-slot instruction by default, none
// when the no-delay-slot configuration bit is set.
func delayOf(m Machine) int {
	if m.DelaySlot() {
		return 1
	}
	return 0
}

// linkAddr computes l.jal/l.jalr's return address: the address of the
// instruction after the one that would normally occupy the delay slot.
func linkAddr(m Machine) uint32 {
	return m.PC() + uint32(delayOf(m)+1)*4
}

func sfOperand(m Machine, in decode.Instruction) uint32 {
	if in.B != decode.NoReg {
		return m.GPR(in.B)
	}
	return uint32(in.Imm)
}

func execAdd(m Machine, in decode.Instruction, a, b uint32, withCarry bool) {
	sum := a + b
	carry := sum < a
	overflow := (a^b)&0x80000000 == 0 && (a^sum)&0x80000000 != 0
	m.SetCarry(carry)
	m.SetOverflow(overflow)
	m.CheckRange(CondCarryAdd, carry)
	m.CheckRange(CondOverflowAdd, overflow)
	m.SetGPR(in.D, sum)
}

func execSub(m Machine, in decode.Instruction, a, b uint32) {
	diff := a - b
	carry := a < b
	overflow := (a^b)&0x80000000 != 0 && (a^diff)&0x80000000 != 0
	m.SetCarry(carry)
	m.SetOverflow(overflow)
	m.CheckRange(CondCarryAdd, carry)
	m.CheckRange(CondOverflowAdd, overflow)
	m.SetGPR(in.D, diff)
}

func execMul(m Machine, in decode.Instruction, a, b uint32) {
	p := int64(int32(a)) * int64(int32(b))
	overflow := p > math.MaxInt32 || p < math.MinInt32
	m.SetOverflow(overflow)
	m.CheckRange(CondOverflowMul, overflow)
	m.SetGPR(in.D, uint32(int32(p)))
}

func execDiv(m Machine, in decode.Instruction, a, b int32) {
	if b == 0 {
		m.SetOverflow(true)
		m.CheckRange(CondDivZero, true)
		return
	}
	overflow := a == math.MinInt32 && b == -1
	m.SetOverflow(overflow)
	m.CheckRange(CondOverflowMul, overflow)
	if !overflow {
		m.SetGPR(in.D, uint32(a/b))
	}
}

func ff1(v uint32) uint32 {
	if v == 0 {
		return 0
	}
	return uint32(bits.TrailingZeros32(v)) + 1
}

func fl1(v uint32) uint32 {
	if v == 0 {
		return 0
	}
	return uint32(32 - bits.LeadingZeros32(v))
}

func loadTo(m Machine, in decode.Instruction, size int, signed bool) {
	addr := m.GPR(in.A) + uint32(in.Imm)
	v, err := m.ReadMem(addr, size, signed)
	if err != nil {
		return
	}
	m.SetGPR(in.D, v)
}

func store(m Machine, in decode.Instruction, size int) {
	addr := m.GPR(in.A) + uint32(in.Imm)
	m.WriteMem(addr, size, m.GPR(in.B))
}

// loadExcl implements l.lwa: a load-linked word read that records a
// reservation the matching storeExcl consumes.
func loadExcl(m Machine, in decode.Instruction) {
	addr := m.GPR(in.A) + uint32(in.Imm)
	v, err := m.ReadMemExcl(addr)
	if err != nil {
		return
	}
	m.SetGPR(in.D, v)
}

// storeExcl implements l.swa: a store-conditional word write that only
// takes effect if the reservation from a prior loadExcl at addr is still
// intact. Success/failure is reported through SR.F, not the return
// value, so there is nothing further to do with it here.
func storeExcl(m Machine, in decode.Instruction) {
	addr := m.GPR(in.A) + uint32(in.Imm)
	m.WriteMemExcl(addr, m.GPR(in.B))
}

func execFx32(m Machine, in decode.Instruction) {
	a := math.Float32frombits(m.GPR(in.A))
	b := math.Float32frombits(m.GPR(in.B))
	var r float32
	switch in.Op {
	case opcode.Fx32Add:
		r = a + b
	case opcode.Fx32Sub:
		r = a - b
	case opcode.Fx32Mul:
		r = a * b
	case opcode.Fx32Div:
		flags := m.FPFlags()
		flags.DivByZero = b == 0
		m.SetFPFlags(flags)
		r = a / b
	case opcode.Fx32Rem:
		r = float32(math.Mod(float64(a), float64(b)))
	case opcode.Fx32Madd:
		r = math.Float32frombits(m.GPR(in.D)) + a*b
	}
	m.SetGPR(in.D, math.Float32bits(r))
}

func execFx32Cmp(m Machine, in decode.Instruction) {
	a := math.Float32frombits(m.GPR(in.A))
	b := math.Float32frombits(m.GPR(in.B))
	switch in.Op {
	case opcode.Fx32Sfeq:
		m.SetFlag(a == b)
	case opcode.Fx32Sfne:
		m.SetFlag(a != b)
	case opcode.Fx32Sfgt:
		m.SetFlag(a > b)
	case opcode.Fx32Sfge:
		m.SetFlag(a >= b)
	case opcode.Fx32Sflt:
		m.SetFlag(a < b)
	case opcode.Fx32Sfle:
		m.SetFlag(a <= b)
	}
}

// fx64At reassembles a double from the GPR pair starting at index r: r
// holds the low word, r+1 the high word, matching the reference
// simulator's double_register layout.
func fx64At(m Machine, r uint8) float64 {
	lo := uint64(m.GPR(r))
	hi := uint64(m.GPR(r + 1))
	return math.Float64frombits(hi<<32 | lo)
}

func setFx64(m Machine, r uint8, d float64) {
	bits64 := math.Float64bits(d)
	m.SetGPR(r, uint32(bits64))
	m.SetGPR(r+1, uint32(bits64>>32))
}

func execFx64(m Machine, in decode.Instruction) {
	a := fx64At(m, in.A)
	b := fx64At(m, in.B)
	var r float64
	switch in.Op {
	case opcode.Fx64Add:
		r = a + b
	case opcode.Fx64Sub:
		r = a - b
	case opcode.Fx64Mul:
		r = a * b
	case opcode.Fx64Div:
		flags := m.FPFlags()
		flags.DivByZero = b == 0
		m.SetFPFlags(flags)
		r = a / b
	case opcode.Fx64Rem:
		r = math.Mod(a, b)
	case opcode.Fx64Madd:
		r = fx64At(m, in.D) + a*b
	}
	setFx64(m, in.D, r)
}

func execFx64Cmp(m Machine, in decode.Instruction) {
	a := fx64At(m, in.A)
	b := fx64At(m, in.B)
	switch in.Op {
	case opcode.Fx64Sfeq:
		m.SetFlag(a == b)
	case opcode.Fx64Sfne:
		m.SetFlag(a != b)
	case opcode.Fx64Sfgt:
		m.SetFlag(a > b)
	case opcode.Fx64Sfge:
		m.SetFlag(a >= b)
	case opcode.Fx64Sflt:
		m.SetFlag(a < b)
	case opcode.Fx64Sfle:
		m.SetFlag(a <= b)
	}
}
