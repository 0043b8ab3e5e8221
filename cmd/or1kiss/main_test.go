package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/janweinstock/or1kiss/govern"
)

func encodeI(op, d, a uint32, imm int16) uint32 {
	return (op << 26) | (d << 21) | (a << 16) | uint32(uint16(imm))
}

func encodeNop(code uint32) uint32 { return 0x15<<24 | code }

func writeRawBinary(t *testing.T, words []uint32) string {
	t.Helper()
	buf := make([]byte, 0, len(words)*4)
	for _, w := range words {
		buf = append(buf, byte(w>>24), byte(w>>16), byte(w>>8), byte(w))
	}
	path := filepath.Join(t.TempDir(), "image.bin")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write raw binary: %v", err)
	}
	return path
}

func TestRunMissingImageReturnsError(t *testing.T) {
	code := run([]string{"-m", "4096"})
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}

func TestRunHeadlessRawBinaryExitsWithGuestCode(t *testing.T) {
	path := writeRawBinary(t, []uint32{
		encodeI(0x27, 3, 0, 5), // l.addi r3, r0, 5
		encodeNop(1),           // l.nop NOP_EXIT
	})

	code := run([]string{"-b", path, "-m", "4096"})
	if code != 5 {
		t.Fatalf("exit code = %d, want 5", code)
	}
}

func TestRunHeadlessTracesToFile(t *testing.T) {
	path := writeRawBinary(t, []uint32{
		encodeI(0x27, 3, 0, 9), // l.addi r3, r0, 9
		encodeNop(1),           // l.nop NOP_EXIT
	})
	tracePath := filepath.Join(t.TempDir(), "trace.log")

	code := run([]string{"-b", path, "-m", "4096", "-t", tracePath})
	if code != 9 {
		t.Fatalf("exit code = %d, want 9", code)
	}

	data, err := os.ReadFile(tracePath)
	if err != nil {
		t.Fatalf("read trace: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("trace file is empty")
	}
}

func TestRunHeadlessRespectsInstructionCap(t *testing.T) {
	path := writeRawBinary(t, []uint32{
		encodeI(0x27, 1, 0, 1), // l.addi r1, r0, 1 (never reaches exit)
		encodeI(0x27, 1, 1, 1), // l.addi r1, r1, 1
		encodeI(0x27, 1, 1, 1), // l.addi r1, r1, 1
	})

	code := run([]string{"-b", path, "-m", "4096", "-i", "2"})
	if code != 0 {
		t.Fatalf("exit code = %d, want 0 (instruction cap reached)", code)
	}
}

func TestDriverModeFollowsGDBPort(t *testing.T) {
	d := newDriver(driverConfig{memSize: 4096})
	if d.mode != govern.ModeStandalone {
		t.Fatalf("mode = %v, want ModeStandalone", d.mode)
	}

	d = newDriver(driverConfig{memSize: 4096, gdbPort: 3333})
	if d.mode != govern.ModeRemote {
		t.Fatalf("mode = %v, want ModeRemote", d.mode)
	}
}

func TestRunHeadlessEndsInEndingState(t *testing.T) {
	path := writeRawBinary(t, []uint32{
		encodeI(0x27, 3, 0, 2), // l.addi r3, r0, 2
		encodeNop(1),           // l.nop NOP_EXIT
	})

	d := newDriver(driverConfig{rawPath: path, memSize: 4096})
	if err := d.load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := d.runHeadless(); err != nil {
		t.Fatalf("runHeadless: %v", err)
	}
	if d.state != govern.Ending {
		t.Fatalf("state = %v, want Ending", d.state)
	}
}
