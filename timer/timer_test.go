package timer_test

import (
	"testing"

	"github.com/janweinstock/or1kiss/timer"
)

func TestRestartModeFiresAndResets(t *testing.T) {
	var tm timer.Timer
	tm.SetTTMR(uint32(timer.Restart) | timer.IE | 10)
	tm.Update(10)
	if !tm.IRQPending() {
		t.Fatalf("expected IRQ pending after reaching limit")
	}
	if tm.Current() != 0 {
		t.Fatalf("current = %d, want 0 after restart", tm.Current())
	}
}

func TestOneShotFiresOnceThenStops(t *testing.T) {
	var tm timer.Timer
	tm.SetTTMR(uint32(timer.OneShot) | timer.IE | 5)
	tm.Update(5)
	if !tm.IRQPending() {
		t.Fatalf("expected IRQ pending")
	}
	if tm.Current() != 5 {
		t.Fatalf("current = %d, want 5 (latched at limit)", tm.Current())
	}
	tm.SetTTMR(tm.TTMR() &^ timer.IP)
	tm.Update(100)
	if tm.Current() != 5 {
		t.Fatalf("one-shot should not advance further, current = %d", tm.Current())
	}
}

func TestContinueModeKeepsCounting(t *testing.T) {
	var tm timer.Timer
	tm.SetTTMR(uint32(timer.Continue) | 5)
	tm.Update(5)
	tm.Update(5)
	if tm.Current() != 10 {
		t.Fatalf("current = %d, want 10", tm.Current())
	}
}

func TestDisabledModeDoesNotAdvance(t *testing.T) {
	var tm timer.Timer
	tm.SetTTMR(uint32(timer.Disabled) | 5)
	tm.Update(10)
	if tm.Current() != 0 {
		t.Fatalf("current = %d, want 0", tm.Current())
	}
}

func TestNextTickWraps(t *testing.T) {
	var tm timer.Timer
	tm.SetTTMR(uint32(timer.Continue) | 100)
	tm.SetTTCR(200)
	if got := tm.NextTick(); got != 0x0fffffff-200+100+1 {
		t.Fatalf("NextTick = %d, want wraparound value", got)
	}
}
