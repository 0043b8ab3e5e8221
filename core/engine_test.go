package core_test

import (
	"bytes"
	"testing"

	"github.com/janweinstock/or1kiss/core"
	"github.com/janweinstock/or1kiss/core/dcache"
	"github.com/janweinstock/or1kiss/port"
)

func encodeI(op, d, a uint32, imm int16) uint32 {
	return (op << 26) | (d << 21) | (a << 16) | uint32(uint16(imm))
}

func newTestEngine(t *testing.T, program []uint32) *core.Engine {
	t.Helper()
	mem := port.NewMemory(0, 4096)
	for i, w := range program {
		addr := uint32(i * 4)
		mem.Transact(&port.Request{Addr: addr, Size: 4, Data: []byte{
			byte(w >> 24), byte(w >> 16), byte(w >> 8), byte(w),
		}})
	}
	p := port.New(mem)
	return core.New(p, core.Config{DecodeCacheSize: dcache.Off})
}

func TestRunAddiThenExit(t *testing.T) {
	program := []uint32{
		encodeI(0x27, 1, 0, 5),  // l.addi r1, r0, 5
		0x15<<24 | 1,            // l.nop 1 (NOP_EXIT)
	}
	e := newTestEngine(t, program)
	if sr := e.Run(1000); sr != core.StepExit {
		t.Fatalf("run result = %v, want StepExit", sr)
	}
	if got := e.GPR(1); got != 5 {
		t.Fatalf("gpr1 = %d, want 5", got)
	}
}

func TestReadWriteSPRRoundTrip(t *testing.T) {
	e := newTestEngine(t, nil)
	// Bit 0 is SR_SM: keep it set so the engine stays in supervisor mode
	// for the ReadSPR that follows.
	if err := e.WriteSPR(0x11, 0x1235); err != nil { // SPR_SR = group0 reg17
		t.Fatalf("WriteSPR: %v", err)
	}
	v, err := e.ReadSPR(0x11)
	if err != nil {
		t.Fatalf("ReadSPR: %v", err)
	}
	if v != 0x1235 {
		t.Fatalf("SR = %#x, want 0x1235", v)
	}
}

func encodeS(op, a, b uint32, imm int16) uint32 {
	u := uint32(uint16(imm))
	hi := (u >> 11) & 0x1f
	lo := u & 0x7ff
	return (op << 26) | (hi << 21) | (a << 16) | (b << 11) | lo
}

func encodeJ(op uint32, rel int32) uint32 {
	return (op << 26) | (uint32(rel) >> 2 & 0x3ffffff)
}

func TestStoreConditionalWithoutReservationFails(t *testing.T) {
	program := []uint32{
		encodeI(0x27, 3, 0, 0x100), // l.addi r3, r0, 0x100
		encodeI(0x27, 4, 0, 0x2a),  // l.addi r4, r0, 0x2a
		encodeS(0x33, 3, 4, 0),     // l.swa 0(r3), r4
	}
	e := newTestEngine(t, program)
	e.Advance(3)

	if e.Flag() {
		t.Fatal("Flag() = true after store-conditional with no reservation, want false")
	}
	if v, err := e.ReadMem(0x100, 4, false); err != nil || v != 0 {
		t.Fatalf("memory at 0x100 = %#x (err=%v), want 0 (unchanged)", v, err)
	}
	if e.ExclusiveFailures() != 1 {
		t.Fatalf("ExclusiveFailures() = %d, want 1", e.ExclusiveFailures())
	}
}

func TestLoadLinkedStoreConditionalRoundTrip(t *testing.T) {
	program := []uint32{
		encodeI(0x27, 3, 0, 0x100), // l.addi r3, r0, 0x100
		encodeI(0x1b, 5, 3, 0),     // l.lwa r5, 0(r3)
		encodeI(0x27, 4, 0, 0x2a),  // l.addi r4, r0, 0x2a
		encodeS(0x33, 3, 4, 0),     // l.swa 0(r3), r4
	}
	e := newTestEngine(t, program)
	e.Advance(4)

	if !e.Flag() {
		t.Fatal("Flag() = false after uncontended store-conditional, want true")
	}
	if v, err := e.ReadMem(0x100, 4, false); err != nil || v != 0x2a {
		t.Fatalf("memory at 0x100 = %#x (err=%v), want 0x2a", v, err)
	}
	if e.ExclusiveReads() != 1 || e.ExclusiveWrites() != 1 {
		t.Fatalf("ExclusiveReads/Writes = %d/%d, want 1/1", e.ExclusiveReads(), e.ExclusiveWrites())
	}
	if e.ExclusiveFailures() != 0 {
		t.Fatalf("ExclusiveFailures() = %d, want 0", e.ExclusiveFailures())
	}
}

func TestUserModeSPRReadIsDenied(t *testing.T) {
	e := newTestEngine(t, nil)
	if err := e.WriteSPR(0x11, 0x8000); err != nil { // SR = FO only: drop supervisor mode
		t.Fatalf("WriteSPR: %v", err)
	}
	v, err := e.ReadSPR(0x11)
	if err != nil {
		t.Fatalf("ReadSPR: %v", err)
	}
	if v != 0 {
		t.Fatalf("SR read from user mode = %#x, want 0 (privilege check should deny it)", v)
	}
}

func TestNoDelaySlotSkipsDelaySlotInstruction(t *testing.T) {
	program := []uint32{
		encodeJ(0x00, 8),          // l.j +8, skipping the next word
		encodeI(0x27, 1, 0, 99),   // l.addi r1, r0, 99 (would be the delay slot)
		encodeI(0x27, 1, 0, 1),    // l.addi r1, r0, 1
	}
	mem := port.NewMemory(0, 4096)
	for i, w := range program {
		addr := uint32(i * 4)
		mem.Transact(&port.Request{Addr: addr, Size: 4, Data: []byte{
			byte(w >> 24), byte(w >> 16), byte(w >> 8), byte(w),
		}})
	}
	p := port.New(mem)
	e := core.New(p, core.Config{DecodeCacheSize: dcache.Off, NoDelaySlot: true})

	e.Advance(2)
	if got := e.GPR(1); got != 1 {
		t.Fatalf("gpr1 = %d, want 1 (delay-slot instruction should not have executed)", got)
	}
}

func TestIllegalInstructionVectorsToHandler(t *testing.T) {
	// 0xffffffff decodes as a custom instruction slot; the interpreter
	// does not implement any and raises illegal instruction for it.
	e := newTestEngine(t, []uint32{0xffffffff})
	e.Advance(1)
	if got := e.PC(); got != 0x700 {
		t.Fatalf("pc after illegal insn = %#x, want 0x700", got)
	}
}

func TestNopCodeExitCapturesGuestValue(t *testing.T) {
	e := newTestEngine(t, nil)
	if err := e.NopCode(core.NopExit, 7); err != nil {
		t.Fatalf("NopCode(NopExit): %v", err)
	}
	if e.ExitCode() != 7 {
		t.Fatalf("ExitCode() = %d, want 7", e.ExitCode())
	}
	if e.SilentExit() {
		t.Fatal("SilentExit() = true after NopExit, want false")
	}
}

func TestNopCodeSilentExitIsDistinguishable(t *testing.T) {
	e := newTestEngine(t, nil)
	if err := e.NopCode(core.NopSilentExit, 3); err != nil {
		t.Fatalf("NopCode(NopSilentExit): %v", err)
	}
	if !e.SilentExit() {
		t.Fatal("SilentExit() = false after NopSilentExit, want true")
	}
}

func TestNopCodeReportSetsAndClearsFlag(t *testing.T) {
	e := newTestEngine(t, nil)
	if e.ReportRequested() {
		t.Fatal("ReportRequested() true before any NopReport")
	}
	if err := e.NopCode(core.NopReport, 0); err != nil {
		t.Fatalf("NopCode(NopReport): %v", err)
	}
	if !e.ReportRequested() {
		t.Fatal("ReportRequested() false after NopReport")
	}
	e.ClearReportRequested()
	if e.ReportRequested() {
		t.Fatal("ReportRequested() true after ClearReportRequested")
	}
}

func TestNopCodePutcWritesConsole(t *testing.T) {
	e := newTestEngine(t, nil)
	var buf bytes.Buffer
	e.SetConsole(&buf)
	if err := e.NopCode(core.NopPutc, 'A'); err != nil {
		t.Fatalf("NopCode(NopPutc): %v", err)
	}
	if buf.String() != "A" {
		t.Fatalf("console = %q, want %q", buf.String(), "A")
	}
}

func TestNopCodeGetTicksReturnsCycleCount(t *testing.T) {
	e := newTestEngine(t, nil)
	e.Advance(3)
	if err := e.NopCode(core.NopGetTicks, 0); err != nil {
		t.Fatalf("NopCode(NopGetTicks): %v", err)
	}
	if e.GPR(11) != uint32(e.Cycles()) {
		t.Fatalf("r11 = %d, want %d", e.GPR(11), e.Cycles())
	}
	if e.GPR(12) != 0 {
		t.Fatalf("r12 = %d, want 0", e.GPR(12))
	}
}

func TestNopCodeTraceToggle(t *testing.T) {
	e := newTestEngine(t, nil)
	if e.Tracing() {
		t.Fatal("Tracing() true before NopTraceOn")
	}
	_ = e.NopCode(core.NopTraceOn, 0)
	if !e.Tracing() {
		t.Fatal("Tracing() false after NopTraceOn")
	}
	_ = e.NopCode(core.NopTraceOff, 0)
	if e.Tracing() {
		t.Fatal("Tracing() true after NopTraceOff")
	}
}

func TestBreakpointStopsRun(t *testing.T) {
	program := []uint32{
		encodeI(0x27, 1, 0, 1), // l.addi r1, r0, 1
		encodeI(0x27, 1, 1, 1), // l.addi r1, r1, 1
		encodeI(0x27, 1, 1, 1), // l.addi r1, r1, 1
	}
	e := newTestEngine(t, program)
	e.InsertBreakpoint(4)
	sr := e.Run(1000)
	if sr != core.StepBreakpoint {
		t.Fatalf("run result = %v, want StepBreakpoint", sr)
	}
	if got := e.PC(); got != 4 {
		t.Fatalf("pc = %#x, want 4", got)
	}
}
