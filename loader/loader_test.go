package loader_test

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/janweinstock/or1kiss/loader"
	"github.com/janweinstock/or1kiss/port"
)

// buildMinimalELF hand-assembles the smallest ELF32 executable debug/elf
// will parse: a header, one PT_LOAD program header, and the segment's
// bytes immediately following.
func buildMinimalELF(entry, vaddr uint32, data []byte) []byte {
	const ehsize, phentsize = 52, 32
	buf := make([]byte, ehsize+phentsize+len(data))

	copy(buf[0:4], []byte{0x7f, 'E', 'L', 'F'})
	buf[4] = 1 // ELFCLASS32
	buf[5] = 1 // ELFDATA2LSB
	buf[6] = 1 // EV_CURRENT

	le := binary.LittleEndian
	le.PutUint16(buf[16:], 2)  // e_type = ET_EXEC
	le.PutUint16(buf[18:], 92) // e_machine = EM_OPENRISC
	le.PutUint32(buf[20:], 1)  // e_version
	le.PutUint32(buf[24:], entry)
	le.PutUint32(buf[28:], ehsize) // e_phoff
	le.PutUint16(buf[40:], ehsize)
	le.PutUint16(buf[42:], phentsize)
	le.PutUint16(buf[44:], 1) // e_phnum

	ph := buf[ehsize:]
	le.PutUint32(ph[0:], 1) // p_type = PT_LOAD
	le.PutUint32(ph[4:], ehsize+phentsize) // p_offset
	le.PutUint32(ph[8:], vaddr)
	le.PutUint32(ph[12:], vaddr) // p_paddr
	le.PutUint32(ph[16:], uint32(len(data)))
	le.PutUint32(ph[20:], uint32(len(data)))
	le.PutUint32(ph[24:], 5) // p_flags = R+X
	le.PutUint32(ph[28:], 4) // p_align

	copy(buf[ehsize+phentsize:], data)
	return buf
}

func TestLoadELFWritesSegment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.elf")
	payload := []byte{0x11, 0x22, 0x33, 0x44}
	if err := os.WriteFile(path, buildMinimalELF(0x100, 0x100, payload), 0o644); err != nil {
		t.Fatal(err)
	}

	mem := port.NewMemory(0, 4096)
	p := port.New(mem)

	img, err := loader.LoadELF(path, p)
	if err != nil {
		t.Fatalf("LoadELF: %v", err)
	}
	if img.Entry != 0x100 {
		t.Fatalf("entry = %#x, want 0x100", img.Entry)
	}
	if img.High != 0x104 {
		t.Fatalf("high = %#x, want 0x104", img.High)
	}
	if got := mem.Bytes()[0x100:0x104]; string(got) != string(payload) {
		t.Fatalf("segment bytes = %v, want %v", got, payload)
	}
}

func TestLoadELFRejectsForeignMachine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.elf")
	image := buildMinimalELF(0, 0, []byte{0})
	binary.LittleEndian.PutUint16(image[18:], 3) // EM_386
	if err := os.WriteFile(path, image, 0o644); err != nil {
		t.Fatal(err)
	}

	mem := port.NewMemory(0, 4096)
	p := port.New(mem)
	if _, err := loader.LoadELF(path, p); err == nil {
		t.Fatal("expected an error loading a non-OpenRISC ELF")
	}
}

func TestLoadRawWritesWholeFileAtBase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.bin")
	payload := []byte{0xde, 0xad, 0xbe, 0xef}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatal(err)
	}

	mem := port.NewMemory(0, 4096)
	p := port.New(mem)

	img, err := loader.LoadRaw(path, 0x200, p)
	if err != nil {
		t.Fatalf("LoadRaw: %v", err)
	}
	if img.Entry != 0x200 || img.High != 0x204 {
		t.Fatalf("image = %+v, want entry=0x200 high=0x204", img)
	}
	if got := mem.Bytes()[0x200:0x204]; string(got) != string(payload) {
		t.Fatalf("bytes = %v, want %v", got, payload)
	}
}

func TestLoadRawRejectsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.bin")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	mem := port.NewMemory(0, 4096)
	p := port.New(mem)
	if _, err := loader.LoadRaw(path, 0, p); err == nil {
		t.Fatal("expected an error loading an empty raw image")
	}
}
