// Package exec interprets a decoded instruction against a Machine. It owns
// no state of its own: every register, memory and flag access goes through
// the Machine interface, so the engine that implements it is free to add
// tracing, breakpoints or a decode cache around each call.
package exec

import "github.com/janweinstock/or1kiss/core/except"

// RangeCond names one of the conditions that, combined with a per-unit
// enable bit the Machine tracks in its AECR, may raise a range exception.
// exec reports the raw arithmetic condition; the Machine decides whether
// the corresponding enable bit is set and raises except.Range if so.
type RangeCond int

const (
	CondCarryAdd RangeCond = iota
	CondOverflowAdd
	CondCarryMul
	CondOverflowMul
	CondDivZero
	CondCarryMac
	CondOverflowMac
)

// Machine is everything exec needs from the engine to carry out one
// instruction: the register file, memory, flags, the MAC accumulator and
// exception/branch signalling.
type Machine interface {
	GPR(i uint8) uint32
	SetGPR(i uint8, v uint32)

	PC() uint32

	// ScheduleJump arranges for the PC to become target after delay more
	// instructions have retired (0 means "next fetch", 1 means "after one
	// delay-slot instruction"). Implementations raise except.InsnAlignment
	// instead if target is not 4-byte aligned.
	ScheduleJump(target uint32, delay int)

	// DelaySlot reports whether branches and jumps retire with the
	// architecturally default one-instruction delay slot (true) or
	// immediately (false, CPUCFGR_ND set).
	DelaySlot() bool

	Flag() bool
	SetFlag(bool)

	Carry() bool
	SetCarry(bool)
	SetOverflow(bool)
	// CheckRange raises except.Range if the enable bit for cond is set in
	// AECR and the corresponding condition just occurred.
	CheckRange(cond RangeCond, occurred bool)

	MAC() uint64
	SetMAC(uint64)

	ReadMem(addr uint32, size int, signed bool) (uint32, error)
	WriteMem(addr uint32, size int, value uint32) error

	// ReadMemExcl/WriteMemExcl implement l.lwa/l.swa: a load-linked that
	// records a reservation on the accessed word, and a store-conditional
	// that only writes through if that reservation is still intact.
	// Implementations report the outcome through SetFlag (SR.F) rather
	// than the returned error, matching l.swa's architectural behavior of
	// silently failing rather than raising an exception.
	ReadMemExcl(addr uint32) (uint32, error)
	WriteMemExcl(addr uint32, value uint32) error

	ReadSPR(addr uint32) (uint32, error)
	WriteSPR(addr uint32, value uint32) error

	Raise(except.Code)

	// ReturnFromException restores PC and SR from the exception shadow
	// registers (l.rfe).
	ReturnFromException()

	// Sync is a no-op hook for l.msync/l.csync/l.psync; most engines can
	// satisfy it trivially since this simulator has no store buffer or
	// multi-core cache to actually flush.
	Sync()

	// NopCode handles the l.nop sub-function codes (exit, putc, trace
	// toggles, and so on); code is the instruction's zero-extended K
	// field and value is the contents of GPR3 at the time of the call.
	NopCode(code uint32, value uint32) error

	// FP reports ORFPX32/64 operands as raw bit patterns in GPRs, and
	// reports/updates the floating point status flags.
	FPFlags() FPFlags
	SetFPFlags(FPFlags)
}

// FPFlags mirrors the FPCSR fields exec needs to update after a floating
// point operation.
type FPFlags struct {
	Inexact      bool
	Underflow    bool
	Overflow     bool
	DivByZero    bool
	Invalid      bool
	Infinity     bool
	IEEEEnable   bool
	RoundingMode uint8 // 0=nearest, 1=zero, 2=+inf, 3=-inf
}
