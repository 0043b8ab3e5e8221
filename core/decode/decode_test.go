package decode_test

import (
	"testing"

	"github.com/janweinstock/or1kiss/core/decode"
	"github.com/janweinstock/or1kiss/core/opcode"
)

func encodeR(op, d, a, b uint32) uint32 {
	return (op << 26) | (d << 21) | (a << 16) | (b << 11)
}

func TestDecodeAdd(t *testing.T) {
	// l.add r1, r2, r3: major 0x38, opcode1=0, opcode2=0
	w := encodeR(0x38, 1, 2, 3)
	in := decode.Decode(w, 0)
	if in.Op != opcode.Add {
		t.Fatalf("op = %v, want Add", in.Op)
	}
	if in.D != 1 || in.A != 2 || in.B != 3 {
		t.Fatalf("operands = %d,%d,%d want 1,2,3", in.D, in.A, in.B)
	}
}

func TestDecodeAddiSignExtends(t *testing.T) {
	// l.addi r1, r2, -1: major 0x27, imm = 0xffff
	w := (uint32(0x27) << 26) | (1 << 21) | (2 << 16) | 0xffff
	in := decode.Decode(w, 0)
	if in.Op != opcode.Addi {
		t.Fatalf("op = %v, want Addi", in.Op)
	}
	if in.Imm != -1 {
		t.Fatalf("imm = %d, want -1", in.Imm)
	}
}

func TestDecodeAndiZeroExtends(t *testing.T) {
	w := (uint32(0x29) << 26) | (1 << 21) | (2 << 16) | 0xffff
	in := decode.Decode(w, 0)
	if in.Imm != 0xffff {
		t.Fatalf("imm = %#x, want 0xffff", in.Imm)
	}
}

func TestDecodeSwSplitImmediate(t *testing.T) {
	// l.sw -1(r1), r2: major 0x35, hi(25:21)=all ones, A=1, B=2, lo(10:0)=all ones
	w := (uint32(0x35) << 26) | (0x1f << 21) | (1 << 16) | (2 << 11) | 0x7ff
	in := decode.Decode(w, 0)
	if in.Op != opcode.Sw {
		t.Fatalf("op = %v, want Sw", in.Op)
	}
	if in.A != 1 || in.B != 2 {
		t.Fatalf("operands = %d,%d want 1,2", in.A, in.B)
	}
	if in.Imm != -1 {
		t.Fatalf("imm = %d, want -1", in.Imm)
	}
}

func TestDecodeJumpRelative(t *testing.T) {
	w := (uint32(0x00) << 26) | 0x4 // l.j +16
	in := decode.Decode(w, 0)
	if in.Op != opcode.J {
		t.Fatalf("op = %v, want J", in.Op)
	}
	if in.Imm != 16 {
		t.Fatalf("imm = %d, want 16", in.Imm)
	}
}

func TestDecodeJalSetsLinkReg(t *testing.T) {
	w := uint32(0x01) << 26
	in := decode.Decode(w, 0)
	if in.Op != opcode.Jal {
		t.Fatalf("op = %v, want Jal", in.Op)
	}
	if in.D != decode.LinkReg {
		t.Fatalf("D = %d, want link register %d", in.D, decode.LinkReg)
	}
}

func TestDecodeMtsprSplitsImmediateAndReusesA(t *testing.T) {
	// SPR selector high bits in 25:21, A=1 (value to OR with selector), B=2 (value)
	w := (uint32(0x30) << 26) | (0x3 << 21) | (1 << 16) | (2 << 11) | 0x7
	in := decode.Decode(w, 0)
	if in.Op != opcode.Mtspr {
		t.Fatalf("op = %v, want Mtspr", in.Op)
	}
	if in.A != 1 || in.B != 2 {
		t.Fatalf("operands = %d,%d want 1,2", in.A, in.B)
	}
	want := int32((0x3 << 11) | 0x7)
	if in.Imm != want {
		t.Fatalf("imm = %#x, want %#x", in.Imm, want)
	}
}

func TestDecodeSlliUsesSixBitUnsignedShift(t *testing.T) {
	w := (uint32(0x2e) << 26) | (1 << 21) | (2 << 16) | 0x3f
	in := decode.Decode(w, 0)
	if in.Op != opcode.Slli {
		t.Fatalf("op = %v, want Slli", in.Op)
	}
	if in.Imm != 0x3f {
		t.Fatalf("imm = %#x, want 0x3f", in.Imm)
	}
}

func TestDecodeMuldHasNoDest(t *testing.T) {
	w := encodeR(0x38, 0, 1, 2) | 0x300 | 0x7 // opcode1=3, opcode2=7 -> Muld
	in := decode.Decode(w, 0)
	if in.Op != opcode.Muld {
		t.Fatalf("op = %v, want Muld", in.Op)
	}
	if in.D != decode.NoReg {
		t.Fatalf("D = %d, want NoReg", in.D)
	}
}
