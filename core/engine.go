package core

import (
	"io"
	"math/rand"
	"time"

	"github.com/janweinstock/or1kiss/core/dcache"
	"github.com/janweinstock/or1kiss/core/except"
	"github.com/janweinstock/or1kiss/core/exec"
	"github.com/janweinstock/or1kiss/mmu"
	"github.com/janweinstock/or1kiss/pic"
	"github.com/janweinstock/or1kiss/port"
	"github.com/janweinstock/or1kiss/timer"
)

var _ exec.Machine = (*Engine)(nil)

// Status register bits (SPR_SR).
const (
	srSM    = 1 << 0  // supervisor mode
	srTEE   = 1 << 1  // tick timer exception enabled
	srIEE   = 1 << 2  // interrupt exception enabled
	srDCE   = 1 << 3  // data cache enabled
	srICE   = 1 << 4  // instruction cache enabled
	srDME   = 1 << 5  // data mmu enabled
	srIME   = 1 << 6  // instruction mmu enabled
	srLEE   = 1 << 7  // little endian enabled
	srCE    = 1 << 8  // context id enabled
	srF     = 1 << 9  // conditional branch flag
	srCY    = 1 << 10 // carry flag
	srOV    = 1 << 11 // overflow flag
	srOVE   = 1 << 12 // overflow exception enabled
	srDSX   = 1 << 13 // delay slot exception
	srEPH   = 1 << 14 // exception prefix high
	srFO    = 1 << 15 // fixed one
	srSUMRA = 1 << 16 // SPR user mode read access
)

// Arithmetic exception enable bits (SPR_AECR/AESR).
const (
	aeCYADDE    = 1 << 0
	aeOVADDE    = 1 << 1
	aeCYMULE    = 1 << 2
	aeOVMULE    = 1 << 3
	aeDBZE      = 1 << 4
	aeCYMACADDE = 1 << 5
	aeOVMACADDE = 1 << 6
)

// Power management register bits (SPR_PMR).
const (
	pmrDME = 1 << 4 // doze mode enable
)

// CPU configuration register bits (SPR_CPUCFGR).
const (
	cpucfgOB32S = 1 << 1  // ORBIS32 supported
	cpucfgND    = 1 << 10 // no delay slot for jump/branch
)

// nop_mode sub-function codes for l.nop, per the reference simulator's
// software protocol for exit, console and statistics requests.
const (
	NopPlain      = 0x0
	NopExit       = 0x1
	NopReport     = 0x2
	NopPutc       = 0x4
	NopCntReset   = 0x5
	NopGetTicks   = 0x6
	NopGetPS      = 0x7
	NopTraceOn    = 0x8
	NopTraceOff   = 0x9
	NopRandom     = 0xa
	NopOr1ksim    = 0xb
	NopSilentExit = 0xc
	NopHostTime   = 0xd
	NopPuts       = 0xe
)

// StepResult reports why Advance/Step/Run stopped.
type StepResult int

const (
	StepOK StepResult = iota
	StepExit
	StepBreakpoint
	StepWatchpoint
)

// Config configures a new Engine. The MMU configuration registers are
// optional. Both MMUs always get the engine's own data-port page table
// walker, so setting CfgHTR in either *CFGR enables hardware TLB refill.
type Config struct {
	DecodeCacheSize dcache.Size
	DMMUCfgr        uint32
	IMMUCfgr        uint32
	CoreID          uint32
	NumCores        uint32
	// Warnings enables logger.Logf reporting of SPR accesses that
	// ReadSPR/WriteSPR deny or ignore. It does not change what those calls
	// return.
	Warnings bool
	// PicosPerCycle answers the l.nop NopGetPS side-channel query. Zero
	// defaults to 1000 (i.e. a 1GHz core).
	PicosPerCycle uint32
	// NoDelaySlot sets CPUCFGR_ND: a build-time core configuration bit,
	// fixed at synthesis on real hardware, that makes branches and jumps
	// retire without a delay slot.
	NoDelaySlot bool
}

// Engine is one OR1K core: its register file, SPR space, both MMUs, the
// tick timer, the PIC, the memory port and the quantum loop that drives
// fetch, decode and execute.
type Engine struct {
	gpr    [32]uint32
	shadow [sprShadows]uint32

	status uint32
	prevPC uint32
	nextPC uint32

	aecr, aesr       uint32
	exsr, expc, exea uint32
	evbar            uint32
	fpcsr            uint32

	version, version2, avr uint32
	unit, cpucfg           uint32
	dccfgr, iccfgr         uint32

	pmr        uint32
	allowSleep bool

	mac uint64

	jumpTarget uint32
	jumpInsn   uint64

	instructions uint64
	cycles       uint64
	limit        uint64
	sleepCycles  uint64
	tickUpdate   uint64

	coreID, numCores uint32
	warnings         bool

	numExclRead, numExclWrite, numExclFailed uint64

	stopRequested   bool
	breakRequested  bool
	reportRequested bool
	exitCode        uint32
	silentExit      bool
	tracing         bool
	picosPerCycle   uint32
	console         io.Writer

	breakpoints  []uint32
	watchpointsR []uint32
	watchpointsW []uint32

	mem    *port.Port
	dmmu   *mmu.MMU
	immu   *mmu.MMU
	tick   *timer.Timer
	pic    *pic.PIC
	dcache *dcache.Cache
}

// New builds an Engine around mem, the single shared memory port used for
// both instruction fetch and data access (tagged per-request by
// Request.IMem), matching the reference simulator's single-port model.
func New(mem *port.Port, cfg Config) *Engine {
	picosPerCycle := cfg.PicosPerCycle
	if picosPerCycle == 0 {
		picosPerCycle = 1000
	}
	cpucfg := uint32(cpucfgOB32S)
	if cfg.NoDelaySlot {
		cpucfg |= cpucfgND
	}
	e := &Engine{
		status:        srFO | srSM, // reset enters supervisor mode
		version:       0x12000001,
		version2:      0,
		avr:           0x00010300,
		unit:          1<<2 | 1<<3 | 1<<9 | 1<<10, // TT, PIC, DMMU, IMMU present
		cpucfg:        cpucfg,
		dccfgr:        0,
		iccfgr:        0,
		coreID:        cfg.CoreID,
		numCores:      cfg.NumCores,
		warnings:      cfg.Warnings,
		picosPerCycle: picosPerCycle,
		mem:           mem,
		tick:          &timer.Timer{},
		pic:           pic.New(),
		dcache:        dcache.New(cfg.DecodeCacheSize),
	}
	walker := walkerAdapter{e}
	e.dmmu = mmu.New(cfg.DMMUCfgr, walker)
	e.immu = mmu.New(cfg.IMMUCfgr, walker)
	return e
}

func (e *Engine) isSupervisor() bool      { return e.status&srSM != 0 }
func (e *Engine) isDMMUActive() bool      { return e.status&srDME != 0 }
func (e *Engine) isIMMUActive() bool      { return e.status&srIME != 0 }
func (e *Engine) isExtIRQEnabled() bool   { return e.status&srIEE != 0 }
func (e *Engine) isTickIRQEnabled() bool  { return e.status&srTEE != 0 }
func (e *Engine) isExceptionPending() bool {
	return e.pic.Pending() || e.tick.IRQPending()
}

// GPR/SetGPR/PC implement exec.Machine. GPR0 is wired to read as zero and
// any write to it is simply discarded here rather than masked at every
// call site; the quantum loop additionally re-zeroes it after every
// instruction.
func (e *Engine) GPR(i uint8) uint32 {
	if i == 0 {
		return 0
	}
	return e.gpr[i]
}

func (e *Engine) SetGPR(i uint8, v uint32) {
	if i == 0 {
		return
	}
	e.gpr[i] = v
}

func (e *Engine) PC() uint32 { return e.nextPC }

// PrevPC is the address of the previously retired instruction, exposed
// for the RSP stub's "g" register-read packet (GPR0..31, PPC, NPC, SR).
func (e *Engine) PrevPC() uint32 { return e.prevPC }

// SetPC sets the address of the next instruction to fetch, equivalent to
// writing SPR_NPC. Used by the driver to set the entry point after
// loading an image, before the first Advance/Step/Run.
func (e *Engine) SetPC(addr uint32) { e.nextPC = addr }

// ScheduleJump implements exec.Machine.
func (e *Engine) ScheduleJump(target uint32, delay int) {
	e.jumpTarget = target
	e.jumpInsn = e.instructions + uint64(delay)
	if target%4 != 0 {
		e.exception(except.InsnAlignment, target)
	}
}

// DelaySlot implements exec.Machine.
func (e *Engine) DelaySlot() bool { return e.cpucfg&cpucfgND == 0 }

func (e *Engine) Flag() bool     { return e.status&srF != 0 }
func (e *Engine) Carry() bool    { return e.status&srCY != 0 }
func (e *Engine) SetFlag(v bool) { e.setStatusBit(srF, v) }
func (e *Engine) SetCarry(v bool) { e.setStatusBit(srCY, v) }
func (e *Engine) SetOverflow(v bool) {
	e.setStatusBit(srOV, v)
}

func (e *Engine) setStatusBit(bit uint32, set bool) {
	if set {
		e.status |= bit
	} else {
		e.status &^= bit
	}
}

// CheckRange implements exec.Machine: when occurred is true it raises
// except.Range and latches the matching AESR bit, but only if both SR_OVE
// and the corresponding AECR enable bit are set. exec.go separately sets
// SR_OV/SR_CY on every occurrence regardless of these enables.
func (e *Engine) CheckRange(cond exec.RangeCond, occurred bool) {
	if !occurred {
		return
	}
	var bit uint32
	switch cond {
	case exec.CondCarryAdd:
		bit = aeCYADDE
	case exec.CondOverflowAdd:
		bit = aeOVADDE
	case exec.CondCarryMul:
		bit = aeCYMULE
	case exec.CondOverflowMul:
		bit = aeOVMULE
	case exec.CondDivZero:
		bit = aeDBZE
	case exec.CondCarryMac:
		bit = aeCYMACADDE
	case exec.CondOverflowMac:
		bit = aeOVMACADDE
	}
	if e.status&srOVE != 0 && e.aecr&bit != 0 {
		e.aesr |= bit
		e.exception(except.Range, e.nextPC)
	}
}

func (e *Engine) MAC() uint64     { return e.mac }
func (e *Engine) SetMAC(v uint64) { e.mac = v }

func (e *Engine) FPFlags() exec.FPFlags {
	const (
		fpsOV   = 1 << 2
		fpsUNF  = 1 << 3
		fpsSNF  = 1 << 4
		fpsQNF  = 1 << 5
		fpsZF   = 1 << 6
		fpsIXF  = 1 << 7
		fpsIVF  = 1 << 8
		fpsINF  = 1 << 9
		fpsDZF  = 1 << 10
		fpsFPEE = 1 << 12
	)
	return exec.FPFlags{
		Inexact:      e.fpcsr&fpsIXF != 0,
		Underflow:    e.fpcsr&fpsUNF != 0,
		Overflow:     e.fpcsr&fpsOV != 0,
		DivByZero:    e.fpcsr&fpsDZF != 0,
		Invalid:      e.fpcsr&fpsIVF != 0,
		Infinity:     e.fpcsr&fpsINF != 0,
		IEEEEnable:   e.fpcsr&fpsFPEE != 0,
		RoundingMode: uint8((e.fpcsr >> 0) & 0x3),
	}
}

func (e *Engine) SetFPFlags(f exec.FPFlags) {
	const (
		fpsOV  = 1 << 2
		fpsUNF = 1 << 3
		fpsIXF = 1 << 7
		fpsIVF = 1 << 8
		fpsINF = 1 << 9
		fpsDZF = 1 << 10
	)
	e.fpcsr &^= 0x3
	e.fpcsr |= uint32(f.RoundingMode) & 0x3
	setBit := func(mask uint32, v bool) {
		if v {
			e.fpcsr |= mask
		} else {
			e.fpcsr &^= mask
		}
	}
	setBit(fpsIXF, f.Inexact)
	setBit(fpsUNF, f.Underflow)
	setBit(fpsOV, f.Overflow)
	setBit(fpsDZF, f.DivByZero)
	setBit(fpsIVF, f.Invalid)
	setBit(fpsINF, f.Infinity)
}

// Sync implements exec.Machine for l.msync/l.csync/l.psync: this
// simulator has no store buffer or multi-core cache to flush.
func (e *Engine) Sync() {}

// Raise implements exec.Machine.
func (e *Engine) Raise(code except.Code) { e.exception(code, e.nextPC) }

// ReturnFromException implements exec.Machine for l.rfe: it schedules a
// jump to EPCR and restores SR from ESR.
func (e *Engine) ReturnFromException() {
	e.ScheduleJump(e.expc, 0)
	e.status = e.exsr
}

// NopCode implements exec.Machine's l.nop sub-function dispatch.
func (e *Engine) NopCode(code uint32, value uint32) error {
	switch code {
	case NopPlain:
		return nil
	case NopExit:
		e.exitCode = value
		e.stopRequested = true
		return nil
	case NopSilentExit:
		e.exitCode = value
		e.silentExit = true
		e.stopRequested = true
		return nil
	case NopReport:
		e.reportRequested = true
		return nil
	case NopPutc:
		e.writeConsole([]byte{byte(value)})
		return nil
	case NopCntReset:
		e.cycles, e.instructions = 0, 0
		return nil
	case NopGetTicks:
		e.SetGPR(11, uint32(e.cycles))
		e.SetGPR(12, uint32(e.cycles>>32))
		return nil
	case NopGetPS:
		e.SetGPR(11, e.picosPerCycle)
		return nil
	case NopTraceOn:
		e.tracing = true
		return nil
	case NopTraceOff:
		e.tracing = false
		return nil
	case NopRandom:
		e.SetGPR(11, rand.Uint32())
		return nil
	case NopOr1ksim:
		e.SetGPR(11, 1)
		return nil
	case NopHostTime:
		ms := uint64(time.Now().UnixMilli())
		e.SetGPR(11, uint32(ms))
		e.SetGPR(12, uint32(ms>>32))
		return nil
	case NopPuts:
		e.writeConsole(e.readCString(value))
		return nil
	default:
		e.warnf("ignoring unsupported l.nop code %#x @ %#x", code, e.nextPC)
		return nil
	}
}

// SetConsole directs NopPutc/NopPuts output to w. A nil w (the default)
// discards console output.
func (e *Engine) SetConsole(w io.Writer) { e.console = w }

func (e *Engine) writeConsole(b []byte) {
	if e.console != nil {
		e.console.Write(b)
	}
}

// readCString reads a NUL-terminated guest string for NopPuts, capped at
// 4096 bytes against a guest that never terminates its string.
func (e *Engine) readCString(addr uint32) []byte {
	var out []byte
	for i := 0; i < 4096; i++ {
		v, err := e.ReadMem(addr+uint32(i), 1, false)
		if err != nil || v == 0 {
			break
		}
		out = append(out, byte(v))
	}
	return out
}

// SilentExit reports whether the pending/most recent exit came from the
// NopSilentExit side channel rather than NopExit.
func (e *Engine) SilentExit() bool { return e.silentExit }

// Tracing reports whether the guest has most recently requested tracing
// via the NopTraceOn/NopTraceOff side channel.
func (e *Engine) Tracing() bool { return e.tracing }

// ReportRequested reports whether the guest executed l.nop with the
// NopReport code since the last ClearReportRequested, the signal the
// driver uses to decide whether to hand control to a script engine (a
// Lua `-script` invoked on the report side channel rather than at every
// instruction).
func (e *Engine) ReportRequested() bool { return e.reportRequested }

// ClearReportRequested acknowledges a pending report request.
func (e *Engine) ClearReportRequested() { e.reportRequested = false }

// ExitCode is the guest-supplied value from the l.nop exit/silent-exit
// side channel, valid once Advance/Step/Run has returned StepExit.
func (e *Engine) ExitCode() uint32 { return e.exitCode }

// Breakpoints/watchpoints.

func containsU32(s []uint32, v uint32) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func removeU32(s []uint32, v uint32) []uint32 {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

func (e *Engine) InsertBreakpoint(addr uint32) {
	if !containsU32(e.breakpoints, addr) {
		e.breakpoints = append(e.breakpoints, addr)
	}
}

func (e *Engine) RemoveBreakpoint(addr uint32) {
	e.breakpoints = removeU32(e.breakpoints, addr)
}

func (e *Engine) InsertWatchpointR(addr uint32) {
	if !containsU32(e.watchpointsR, addr) {
		e.watchpointsR = append(e.watchpointsR, addr)
	}
}

func (e *Engine) RemoveWatchpointR(addr uint32) {
	e.watchpointsR = removeU32(e.watchpointsR, addr)
}

func (e *Engine) InsertWatchpointW(addr uint32) {
	if !containsU32(e.watchpointsW, addr) {
		e.watchpointsW = append(e.watchpointsW, addr)
	}
}

func (e *Engine) RemoveWatchpointW(addr uint32) {
	e.watchpointsW = removeU32(e.watchpointsW, addr)
}

func (e *Engine) Breakpoints() []uint32 { return e.breakpoints }

// AllowSleep toggles whether doze() is allowed to actually skip cycles;
// front-ends that single-step want this off so "sleeping" cores still
// advance one instruction at a time.
func (e *Engine) AllowSleep(b bool) { e.allowSleep = b }

// Stats, exposed for the dashboard and other reporting.
func (e *Engine) Cycles() uint64        { return e.cycles }
func (e *Engine) Instructions() uint64  { return e.instructions }
func (e *Engine) Compiles() uint64      { return e.dcache.Compiles() }
func (e *Engine) SleepCycles() uint64   { return e.sleepCycles }
func (e *Engine) DecodeCacheHitRate() float64 { return e.dcache.HitRate() }

// Exclusive-access stats, exposed for reporting and tests.
func (e *Engine) ExclusiveReads() uint64    { return e.numExclRead }
func (e *Engine) ExclusiveWrites() uint64   { return e.numExclWrite }
func (e *Engine) ExclusiveFailures() uint64 { return e.numExclFailed }

func (e *Engine) DMMU() *mmu.MMU { return e.dmmu }
func (e *Engine) IMMU() *mmu.MMU { return e.immu }
func (e *Engine) PIC() *pic.PIC  { return e.pic }
func (e *Engine) Tick() *timer.Timer { return e.tick }
