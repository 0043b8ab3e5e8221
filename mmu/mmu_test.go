package mmu_test

import (
	"testing"

	"github.com/janweinstock/or1kiss/mmu"
)

func cfg(ways, logSets uint32) uint32 {
	return (ways - 1) | (logSets << 2)
}

func TestTranslateMissesWithEmptyTLB(t *testing.T) {
	m := mmu.New(cfg(1, 0), nil)
	a := mmu.Access{Addr: 0x2000, Supervisor: true}
	if got := m.Translate(&a); got != mmu.TLBMiss {
		t.Fatalf("result = %v, want TLBMiss", got)
	}
}

func TestSetTLBThenTranslateHits(t *testing.T) {
	m := mmu.New(cfg(1, 1), nil) // 1 way, 2 sets
	addr := uint32(0x4000)
	set := mmu.PageNumber(addr) & 1

	matchReg := uint32(0)<<8 | set
	m.SetTLB(matchReg, mmu.PageAlign(addr)|mmu.MatchV)
	transReg := matchReg + mmu.MaxSets
	m.SetTLB(transReg, mmu.PageAlign(0xa000)|mmu.SRE|mmu.SWE)

	a := mmu.Access{Addr: addr, Supervisor: true}
	if got := m.Translate(&a); got != mmu.Okay {
		t.Fatalf("result = %v, want Okay", got)
	}
	if a.Addr != 0xa000|mmu.PageOffset(addr) {
		t.Fatalf("translated addr = %#x, want %#x", a.Addr, 0xa000|mmu.PageOffset(addr))
	}
}

func TestTranslateDeniesWithoutAccessRights(t *testing.T) {
	m := mmu.New(cfg(1, 1), nil)
	addr := uint32(0x4000)
	set := mmu.PageNumber(addr) & 1
	m.SetTLB(set, mmu.PageAlign(addr)|mmu.MatchV)
	m.SetTLB(set+mmu.MaxSets, mmu.PageAlign(0x9000)) // no SRE/SWE bits

	a := mmu.Access{Addr: addr, Supervisor: true}
	if got := m.Translate(&a); got != mmu.PageFault {
		t.Fatalf("result = %v, want PageFault", got)
	}
}

func TestFlushEntryInvalidatesMatchingPage(t *testing.T) {
	m := mmu.New(cfg(1, 1), nil)
	addr := uint32(0x4000)
	set := mmu.PageNumber(addr) & 1
	m.SetTLB(set, mmu.PageAlign(addr)|mmu.MatchV)
	m.SetTLB(set+mmu.MaxSets, mmu.PageAlign(0x9000)|mmu.SRE)

	m.FlushEntry(addr)

	a := mmu.Access{Addr: addr, Supervisor: true}
	if got := m.Translate(&a); got != mmu.TLBMiss {
		t.Fatalf("result = %v, want TLBMiss after flush", got)
	}
}

type fakeWalker struct {
	words map[uint32]uint32
}

func (w fakeWalker) ReadWord(addr uint32) (uint32, bool) {
	v, ok := w.words[addr]
	return v, ok
}

func TestHardwareWalkPopulatesTLB(t *testing.T) {
	const pageDir = uint32(0x8000)
	const pageTable = uint32(0xc000)
	addr := uint32(0x01002000)
	pl1 := addr >> 24
	pl2 := (addr >> 13) & 0x7ff

	w := fakeWalker{words: map[uint32]uint32{
		pageDir + pl1<<2:   pageTable,
		pageTable + pl2<<2: mmu.PageAlign(0xa000) | mmu.SRE | mmu.SWE,
	}}

	m := mmu.New(cfg(1, 1)|mmu.CfgHTR, w)
	m.SetCR(pageDir)

	a := mmu.Access{Addr: addr, Supervisor: true}
	if got := m.Translate(&a); got != mmu.Okay {
		t.Fatalf("result = %v, want Okay", got)
	}
	if a.Addr != 0xa000|mmu.PageOffset(addr) {
		t.Fatalf("translated = %#x", a.Addr)
	}

	// Second lookup should now hit the TLB without touching the walker.
	a2 := mmu.Access{Addr: addr, Supervisor: true}
	if got := m.Translate(&a2); got != mmu.Okay {
		t.Fatalf("second result = %v, want Okay (TLB hit)", got)
	}
}
