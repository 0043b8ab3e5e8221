package script

import (
	"testing"

	"github.com/janweinstock/or1kiss/core"
)

type fakeCore struct {
	gpr [32]uint32
	pc  uint32
	mem map[uint32]uint32
}

func newFakeCore() *fakeCore { return &fakeCore{mem: map[uint32]uint32{}} }

func (f *fakeCore) GPR(i uint8) uint32       { return f.gpr[i] }
func (f *fakeCore) SetGPR(i uint8, v uint32) { f.gpr[i] = v }
func (f *fakeCore) PC() uint32               { return f.pc }
func (f *fakeCore) ReadMem(addr uint32, size int, signed bool) (uint32, error) {
	return f.mem[addr], nil
}
func (f *fakeCore) WriteMem(addr uint32, size int, value uint32) error {
	f.mem[addr] = value
	return nil
}
func (f *fakeCore) Step(cycles *uint64) core.StepResult { return core.StepOK }

func TestScriptReadWriteMemory(t *testing.T) {
	fc := newFakeCore()
	e := New(fc)
	defer e.Close()

	if err := e.RunString(`sim.write32(0x100, 42)`); err != nil {
		t.Fatalf("write32: %v", err)
	}
	if fc.mem[0x100] != 42 {
		t.Fatalf("mem[0x100] = %d, want 42", fc.mem[0x100])
	}

	if err := e.RunString(`
		local v = sim.read32(0x100)
		assert(v == 42, "expected 42, got " .. tostring(v))
	`); err != nil {
		t.Fatalf("read32: %v", err)
	}
}

func TestScriptRegsAndStep(t *testing.T) {
	fc := newFakeCore()
	fc.gpr[3] = 7
	fc.pc = 0x400
	e := New(fc)
	defer e.Close()

	if err := e.RunString(`
		local r = sim.regs()
		assert(r[3] == 7, "r3")
		assert(r.pc == 0x400, "pc")
		sim.step(5)
	`); err != nil {
		t.Fatalf("regs/step: %v", err)
	}
}
