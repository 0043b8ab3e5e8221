package mmu

import (
	"github.com/janweinstock/or1kiss/bits"
	"github.com/janweinstock/or1kiss/logger"
)

const (
	PageBits = 13
	PageSize = 1 << PageBits
	pageMask = PageSize - 1

	MaxWays = 4
	MaxSets = 128
	maxRegs = 2 * MaxSets * MaxWays
)

// PageAlign, PageNumber and PageOffset are the address arithmetic every
// TLB lookup and table walk step is built from.
func PageAlign(addr uint32) uint32  { return addr &^ pageMask }
func PageNumber(addr uint32) uint32 { return addr >> PageBits }
func PageOffset(addr uint32) uint32 { return addr & pageMask }

func pageCompare(a, b uint32) bool { return PageAlign(a^b) == 0 }

// Access right bits, checked against a translation's Match/Translate pair.
const (
	URE = 1 << 6 // user read
	UWE = 1 << 7 // user write
	UXE = 1 << 7 // user execute (aliases UWE, as in the reference layout)
	SRE = 1 << 8 // supervisor read
	SWE = 1 << 9 // supervisor write
	SXE = 1 << 6 // supervisor execute (aliases URE)
)

// Match-register bits.
const (
	MatchV   = 1 << 0 // valid
	MatchPL1 = 1 << 1
	MatchCID = 15 << 2
	lruMask  = 3 << 6
	lruStep  = 1 << 6
)

// Translate-register (PTE) bits.
const (
	PteCC   = 1 << 0 // cache coherent
	PteCI   = 1 << 1 // cache inhibit
	PteWBC  = 1 << 2 // write-back cache
	PteWOM  = 1 << 3 // weakly ordered memory
	PteA    = 1 << 4 // accessed
	PteD    = 1 << 5 // dirty
	PteL    = 1 << 7 // last/linked
	PteExec = 1 << 10
)

// Config-register bits (MMUCFGR); NumWays/NumSets are derived from it.
const (
	CfgHTR   = 1 << 11 // hardware TLB reload
	CfgTEIRI = 1 << 10 // TLB entry invalidate register present
)

// Control-register bits (MMUCR).
const (
	CtrlFlush = 1 << 0
	ctrlPGD   = 0xfffffc00
)

// Result is the outcome of a translation attempt.
type Result int

const (
	Okay Result = iota
	TLBMiss
	PageFault
)

// Access is one translation request. Addr is rewritten in place from
// virtual to physical on Okay.
type Access struct {
	Addr       uint32
	IMem       bool
	Write      bool
	Supervisor bool
	Debug      bool

	CacheCoherent  bool
	CacheInhibit   bool
	CacheWriteback bool
	WeaklyOrdered  bool
	Cycles         uint64
}

func accessMask(a *Access) uint32 {
	if a.Debug {
		return SRE | SWE | URE | UWE
	}
	if a.IMem {
		if a.Supervisor {
			return SXE
		}
		return UXE
	}
	if a.Write {
		if a.Supervisor {
			return SWE
		}
		return UWE
	}
	if a.Supervisor {
		return SRE
	}
	return URE
}

// Walker performs the two 32-bit reads a hardware page table walk needs.
// The core supplies an implementation backed by its data port.
type Walker interface {
	ReadWord(addr uint32) (uint32, bool)
}

// MMU is one instruction- or data-side translation unit.
type MMU struct {
	cfg     uint32
	ctrl    uint32
	prot    uint32
	numSets uint32
	numWays uint32
	setMask uint32
	tlb     [maxRegs]uint32
	walker  Walker
}

// New builds an MMU from an MMUCFGR value: bits[1:0] give ways-1, bits
// [4:2] give log2(sets). walker may be nil if hardware TLB reload (HTR)
// is not set in cfg.
func New(cfg uint32, walker Walker) *MMU {
	m := &MMU{
		cfg:     cfg,
		numSets: 1 << bits.Field(cfg, 4, 2),
		numWays: 1 + bits.Field(cfg, 1, 0),
		walker:  walker,
	}
	m.setMask = m.numSets - 1
	if walker == nil && cfg&CfgHTR != 0 {
		logger.Logf(logger.Allow, "mmu", "hardware TLB refill configured but no walker provided")
	}
	return m
}

func matchIndex(way, set uint32) uint32 { return way*MaxSets*2 + set }
func transIndex(way, set uint32) uint32 { return matchIndex(way, set) + MaxSets }

func (m *MMU) NumWays() uint32 { return m.numWays }
func (m *MMU) NumSets() uint32 { return m.numSets }
func (m *MMU) CFGR() uint32    { return m.cfg }
func (m *MMU) CR() uint32      { return m.ctrl }
func (m *MMU) PR() uint32      { return m.prot }

func (m *MMU) SetCR(v uint32) {
	if m.cfg&CfgTEIRI != 0 && v&CtrlFlush != 0 {
		m.FlushAll()
	}
	m.ctrl = v &^ CtrlFlush
}

func (m *MMU) SetPR(v uint32) { m.prot = v }

// GetTLB/SetTLB index by (way<<8)|set, matching the SPR-space layout of
// the DTLBMR/ITLBMR register windows.
func (m *MMU) GetTLB(reg uint32) uint32 {
	way, set := reg>>8, reg&0x7f
	if way >= m.numWays || set >= m.numSets {
		return 0
	}
	return m.tlb[reg]
}

func (m *MMU) SetTLB(reg, val uint32) {
	way, set := reg>>8, reg&0x7f
	if way >= m.numWays || set >= m.numSets {
		return
	}
	m.tlb[reg] = val
}

func (m *MMU) FlushAll() {
	for i := range m.tlb {
		m.tlb[i] = 0
	}
}

func (m *MMU) FlushEntry(ea uint32) {
	vpg := PageAlign(ea)
	set := PageNumber(ea) & m.setMask
	for way := uint32(0); way < m.numWays; way++ {
		idx := matchIndex(way, set)
		if pageCompare(vpg, m.tlb[idx]) {
			m.tlb[idx] &^= MatchV
		}
	}
}

func (m *MMU) findEmptyWay(set uint32) uint32 {
	for way := uint32(0); way < m.numWays; way++ {
		if m.tlb[matchIndex(way, set)]&MatchV == 0 {
			return way
		}
	}
	var oldest, selected uint32
	for way := uint32(0); way < m.numWays; way++ {
		age := m.tlb[matchIndex(way, set)] & lruMask
		if age >= oldest {
			oldest, selected = age, way
		}
	}
	return selected
}

// Translate resolves a.Addr from virtual to physical, checking access
// rights along the way. It first probes the TLB; on a miss it performs a
// hardware page table walk if HTR is configured and a page directory
// pointer is set, otherwise it reports TLBMiss so the caller can trap
// into a software refill handler.
func (m *MMU) Translate(a *Access) Result {
	vpg := PageAlign(a.Addr)
	set := PageNumber(a.Addr) & m.setMask

	if !a.Debug {
		for way := uint32(0); way < m.numWays; way++ {
			idx := matchIndex(way, set)
			if m.tlb[idx]&MatchV != 0 {
				age := m.tlb[idx] & lruMask
				if age < lruMask {
					m.tlb[idx] = (m.tlb[idx] &^ lruMask) | (age + lruStep)
				}
			}
		}
	}

	for way := uint32(0); way < m.numWays; way++ {
		mi, ti := matchIndex(way, set), transIndex(way, set)
		match, trans := m.tlb[mi], m.tlb[ti]
		if match&MatchV != 0 && pageCompare(vpg, match) {
			if !a.Debug {
				if trans&accessMask(a) == 0 {
					return PageFault
				}
				trans |= PteA
				if a.Write {
					trans |= PteD
				}
				m.tlb[ti] = trans
				m.tlb[mi] &^= lruMask
			}
			return m.finish(a, trans)
		}
	}

	// A software-refill MMU stops here unless this is a debug access,
	// which always attempts a walk so a debugger can read page tables
	// the running program has not yet faulted in.
	if m.cfg&CfgHTR == 0 && !a.Debug {
		return TLBMiss
	}

	return m.walk(a, set)
}

func (m *MMU) walk(a *Access, set uint32) Result {
	pageDirectory := m.ctrl & ctrlPGD
	if pageDirectory == 0 || m.walker == nil {
		return TLBMiss
	}

	pl1idx := bits.Field(a.Addr, 31, 24)
	pl2idx := bits.Field(a.Addr, 23, 13)

	pte1, ok := m.walker.ReadWord(pageDirectory + pl1idx<<2)
	if !ok || pte1 == 0 {
		return TLBMiss
	}

	pageTable := PageAlign(pte1)
	pte2, ok := m.walker.ReadWord(pageTable + pl2idx<<2)
	if !ok || pte2 == 0 {
		return TLBMiss
	}

	if a.Debug {
		return m.finish(a, pte2|PteCC)
	}

	match := PageAlign(a.Addr) | MatchV
	trans := pte2 | PteCC
	if a.IMem && pte2&PteExec != 0 {
		trans |= SXE | UXE
	}
	if trans&accessMask(a) == 0 {
		return PageFault
	}
	trans |= PteA
	if a.Write {
		trans |= PteD
	}

	way := m.findEmptyWay(set)
	m.tlb[matchIndex(way, set)] = match
	m.tlb[transIndex(way, set)] = trans

	return m.finish(a, trans)
}

func (m *MMU) finish(a *Access, trans uint32) Result {
	ppg := PageAlign(trans)
	off := PageOffset(a.Addr)
	a.Addr = ppg | off
	a.CacheCoherent = trans&PteCC != 0
	a.CacheInhibit = trans&PteCI != 0
	a.CacheWriteback = trans&PteWBC != 0
	a.WeaklyOrdered = trans&PteWOM != 0
	return Okay
}
