package core

import (
	"github.com/janweinstock/or1kiss/core/decode"
	"github.com/janweinstock/or1kiss/core/except"
	"github.com/janweinstock/or1kiss/core/exec"
	"github.com/janweinstock/or1kiss/mmu"
	"github.com/janweinstock/or1kiss/orerr"
	"github.com/janweinstock/or1kiss/port"
)

// walkerAdapter lets both mmu.MMU instances perform a hardware page table
// walk through this engine's own data port, without the mmu package
// needing to import port.
type walkerAdapter struct{ e *Engine }

func (w walkerAdapter) ReadWord(addr uint32) (uint32, bool) {
	v, rs := w.e.mem.Read32(addr, true)
	return v, rs == port.RespSuccess
}

// ReadMem implements exec.Machine: it aligns, translates through the data
// MMU if active, and runs the access through the shared port.
func (e *Engine) ReadMem(addr uint32, size int, signed bool) (uint32, error) {
	v, err := e.transact(addr, size, false, 0, false)
	if err != nil {
		return 0, err
	}
	if !signed {
		return v, nil
	}
	switch size {
	case 1:
		return uint32(int32(int8(v))), nil
	case 2:
		return uint32(int32(int16(v))), nil
	default:
		return v, nil
	}
}

// WriteMem implements exec.Machine.
func (e *Engine) WriteMem(addr uint32, size int, value uint32) error {
	_, err := e.transact(addr, size, true, value, false)
	return err
}

// ReadMemExcl implements exec.Machine's l.lwa: a load-linked word read
// that, on success, leaves a reservation on the port for a matching
// WriteMemExcl to consume.
func (e *Engine) ReadMemExcl(addr uint32) (uint32, error) {
	return e.transact(addr, 4, false, 0, true)
}

// WriteMemExcl implements exec.Machine's l.swa: a store-conditional word
// write that only reaches memory if the reservation from a prior
// ReadMemExcl at addr is still intact.
func (e *Engine) WriteMemExcl(addr uint32, value uint32) error {
	_, err := e.transact(addr, 4, true, value, true)
	return err
}

// transact performs one data-memory access: alignment check, DMMU
// translation and the port round trip, raising the matching exception and
// returning an error the caller (loadTo/store) already knows to swallow
// once the exception has redirected execution. For exclusive accesses it
// additionally counts the attempt and, once the port responds, folds the
// load-linked/store-conditional outcome into SR.F and the exclusive
// counters, matching or1k::transact.
func (e *Engine) transact(addr uint32, size int, write bool, value uint32, exclusive bool) (uint32, error) {
	if size > 1 && addr%uint32(size) != 0 {
		e.exception(except.DataAlignment, addr)
		return 0, orerr.Errorf(1, "unaligned data access at %#x", addr)
	}

	phys := addr
	if e.isDMMUActive() {
		a := mmu.Access{Addr: addr, Write: write, Supervisor: e.isSupervisor()}
		switch e.dmmu.Translate(&a) {
		case mmu.TLBMiss:
			e.exception(except.DataTLBMiss, addr)
			return 0, orerr.Errorf(1, "data tlb miss at %#x", addr)
		case mmu.PageFault:
			e.exception(except.DataPageFault, addr)
			return 0, orerr.Errorf(1, "data page fault at %#x", addr)
		}
		phys = a.Addr
	}

	if exclusive {
		if write {
			e.numExclWrite++
		} else {
			e.numExclRead++
		}
	}

	var rs port.Response
	var result uint32
	switch {
	case exclusive && write:
		rs = e.mem.Write32Excl(phys, value, e.isSupervisor())
	case exclusive:
		result, rs = e.mem.Read32Excl(phys, e.isSupervisor())
	case write:
		switch size {
		case 1:
			rs = e.mem.Write8(phys, uint8(value), e.isSupervisor())
		case 2:
			rs = e.mem.Write16(phys, uint16(value), e.isSupervisor())
		default:
			rs = e.mem.Write32(phys, value, e.isSupervisor())
		}
	default:
		switch size {
		case 1:
			var v uint8
			v, rs = e.mem.Read8(phys, e.isSupervisor())
			result = uint32(v)
		case 2:
			var v uint16
			v, rs = e.mem.Read16(phys, e.isSupervisor())
			result = uint32(v)
		default:
			result, rs = e.mem.Read32(phys, e.isSupervisor())
		}
	}

	if rs == port.RespError {
		e.exception(except.DataBusError, addr)
		return 0, orerr.Errorf(1, "data bus error at %#x", addr)
	}

	if exclusive {
		if rs == port.RespFailed {
			e.SetFlag(false)
			e.numExclFailed++
		} else {
			e.SetFlag(true)
		}
	}

	return result, nil
}

// fetch retrieves and decodes the instruction at nextPC, consulting the
// decode cache first. It returns ok=false if an exception was raised
// during translation or the bus transaction, in which case the caller
// must not execute anything this cycle.
func (e *Engine) fetch() (decode.Instruction, bool) {
	addr := e.nextPC

	phys := addr
	if e.isIMMUActive() {
		a := mmu.Access{Addr: addr, IMem: true, Supervisor: e.isSupervisor()}
		switch e.immu.Translate(&a) {
		case mmu.TLBMiss:
			e.exception(except.InsnTLBMiss, addr)
			return decode.Instruction{}, false
		case mmu.PageFault:
			e.exception(except.InsnPageFault, addr)
			return decode.Instruction{}, false
		}
		phys = a.Addr
	}

	if in, ok := e.dcache.Lookup(phys); ok {
		return in, true
	}

	word, rs := e.mem.FetchInsn(phys, e.isSupervisor())
	if rs == port.RespError {
		e.exception(except.InsnBusError, addr)
		return decode.Instruction{}, false
	}

	in := decode.Decode(word, addr)
	e.dcache.Insert(phys, in)
	return in, true
}

// exception vectors the core into an exception handler: it computes the
// saved PC per the exception's category, snapshots SR into ESR, enters
// supervisor mode with interrupts and both MMUs disabled, and jumps to
// the vector (offset from EVBAR, optionally the high bank if SR_EPH is
// set). Interrupt sources that only make sense once a cycle has already
// completed (tick timer, external) set nextPC directly instead of going
// through the delayed-jump mechanism, since by the time they fire the PC
// has already been advanced past the instruction that would delay them.
func (e *Engine) exception(code except.Code, addr uint32) {
	if code == except.External && !e.isExtIRQEnabled() {
		return
	}
	if code == except.TickTimer && !e.isTickIRQEnabled() {
		return
	}

	isJumpInsn := e.instructions == e.jumpInsn-1
	isDelayInsn := e.instructions == e.jumpInsn

	switch code {
	case except.Reset, except.InsnAlignment, except.InsnTLBMiss,
		except.InsnPageFault, except.InsnBusError, except.DataAlignment,
		except.DataTLBMiss, except.DataPageFault, except.DataBusError,
		except.IllegalInsn, except.Range, except.Trap:
		e.expc = e.nextPC
		if isDelayInsn {
			e.expc = e.prevPC
		}
	case except.Syscall, except.FloatingPoint:
		e.expc = e.nextPC + 4
		if isJumpInsn {
			e.expc = e.jumpTarget
		}
	case except.TickTimer, except.External:
		e.expc = e.nextPC
		if isJumpInsn {
			e.expc = e.prevPC
		}
	}

	e.jumpInsn = 0
	e.exea = addr
	e.exsr = e.status
	e.status |= srSM
	if isDelayInsn {
		e.status |= srDSX
	} else {
		e.status &^= srDSX
	}
	e.status &^= srIEE | srTEE | srIME | srDME
	e.pmr &^= pmrDME

	target := e.evbar + code.Vector()
	if e.exsr&srEPH != 0 {
		target |= 0xf0000000
	}

	if code == except.TickTimer || code == except.External {
		e.nextPC = target
		return
	}
	e.ScheduleJump(target, 0)
}

// interrupt asserts or deasserts external interrupt line id.
func (e *Engine) interrupt(id int, set bool) { e.pic.Raise(id, set) }

func (e *Engine) updateTimer() {
	if e.tick.Enabled() {
		e.tick.Update(e.cycles - e.tickUpdate)
		if e.tick.IRQPending() {
			e.exception(except.TickTimer, e.nextPC)
		}
	}
	e.tickUpdate = e.cycles
}

func (e *Engine) nextBreakpoint() uint64 {
	next := uint64(0xffffffff)
	for _, bp := range e.breakpoints {
		until := uint64(bp-e.nextPC) / 4
		if until < next {
			next = until
		}
	}
	return next + e.cycles
}

func (e *Engine) breakpointHit() bool {
	return containsU32(e.breakpoints, e.nextPC)
}

func (e *Engine) doze() {
	if e.pmr&pmrDME == 0 || !e.allowSleep {
		return
	}
	skip := e.limit - e.cycles
	if e.tick.Enabled() && e.tick.IRQEnabled() {
		if t := e.tick.NextTick(); t < skip {
			skip = t
		}
		if l := uint64(e.tick.Limit()); l < skip {
			skip = l
		}
	}
	e.cycles += skip
	e.sleepCycles += skip
	e.updateTimer()
}

// Advance runs up to cycles cycles (one cycle per instruction, plus any
// cycles skipped while dozing). An exit request or a breakpoint makes it
// return early, having run fewer cycles.
func (e *Engine) Advance(cycles uint64) StepResult {
	e.limit = e.cycles + cycles

	if e.pic.Pending() {
		e.exception(except.External, e.nextPC)
	}
	e.doze()

	for e.cycles < e.limit {
		e.stopRequested = false
		e.breakRequested = false

		limit := e.limit
		if bp := e.nextBreakpoint(); bp < limit {
			limit = bp
		}
		if e.tick.Enabled() {
			if t := e.cycles + e.tick.NextTick(); t < limit {
				limit = t
			}
		}

		for e.cycles < limit {
			e.cycles++
			e.instructions++

			in, ok := e.fetch()
			if ok {
				if err := exec.Execute(e, in); err != nil {
					e.exception(except.IllegalInsn, e.nextPC)
				}
			}

			e.status |= srFO
			e.gpr[0] = 0

			e.prevPC = e.nextPC
			e.nextPC += 4

			if e.instructions == e.jumpInsn {
				e.nextPC = e.jumpTarget
				if bp := e.nextBreakpoint(); bp < limit {
					limit = bp
				}
			}

			if e.stopRequested {
				return StepExit
			}
			if e.breakRequested {
				break
			}
		}

		e.updateTimer()

		if e.pic.Pending() {
			e.exception(except.External, e.nextPC)
		}
		if e.breakpointHit() {
			return StepBreakpoint
		}
	}

	return StepOK
}

// Step runs at most one mini-quantum of *cycles cycles, reporting back how
// many cycles actually elapsed.
func (e *Engine) Step(cycles *uint64) StepResult {
	before := e.cycles
	sr := e.Advance(*cycles)
	*cycles = e.cycles - before
	return sr
}

// Run advances repeatedly until something other than StepOK stops it.
func (e *Engine) Run(quantum uint64) StepResult {
	sr := StepOK
	for sr == StepOK {
		sr = e.Advance(quantum)
	}
	return sr
}
