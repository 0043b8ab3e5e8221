package bits_test

import (
	"testing"

	"github.com/janweinstock/or1kiss/bits"
)

func TestField(t *testing.T) {
	w := uint32(0b1111_0000_1010_0000_0000_0000_0000_0000)
	if got := bits.Field(w, 31, 26); got != 0b111100 {
		t.Fatalf("Field(31,26) = %06b, want 111100", got)
	}
	if got := bits.Field(w, 25, 21); got != 0b00101 {
		t.Fatalf("Field(25,21) = %05b, want 00101", got)
	}
}

func TestSignExtend(t *testing.T) {
	cases := []struct {
		v     uint32
		width uint
		want  int32
	}{
		{0x1, 16, 1},
		{0xFFFF, 16, -1},
		{0x8000, 16, -32768},
		{0x7FFF, 16, 32767},
	}
	for _, c := range cases {
		if got := int32(bits.SignExtend(c.v, c.width)); got != c.want {
			t.Errorf("SignExtend(%#x,%d) = %d, want %d", c.v, c.width, got, c.want)
		}
	}
}

func TestSignExtend8RoundTrip(t *testing.T) {
	// invariant 5 from spec.md §8: extbs(extbz(b)) == sign_extend_8_to_32(b)
	for b := 0; b < 256; b++ {
		extbz := uint8(b)
		want := bits.SignExtend8(uint8(b))
		got := bits.SignExtend8(extbz)
		if got != want {
			t.Fatalf("byte %#x: extbs(extbz) = %#x, want %#x", b, got, want)
		}
	}
}

func TestFindFirstLastSet(t *testing.T) {
	if got := bits.FindFirstSet(0); got != 0 {
		t.Errorf("FindFirstSet(0) = %d, want 0", got)
	}
	if got := bits.FindFirstSet(0b1000); got != 4 {
		t.Errorf("FindFirstSet(0b1000) = %d, want 4", got)
	}
	if got := bits.FindLastSet(0); got != 0 {
		t.Errorf("FindLastSet(0) = %d, want 0", got)
	}
	if got := bits.FindLastSet(0b1000); got != 4 {
		t.Errorf("FindLastSet(0b1000) = %d, want 4", got)
	}
	if got := bits.FindLastSet(0xFFFFFFFF); got != 32 {
		t.Errorf("FindLastSet(all ones) = %d, want 32", got)
	}
}

func TestSwap(t *testing.T) {
	if got := bits.Swap16(0x1234); got != 0x3412 {
		t.Errorf("Swap16 = %#x, want 0x3412", got)
	}
	if got := bits.Swap32(0x12345678); got != 0x78563412 {
		t.Errorf("Swap32 = %#x, want 0x78563412", got)
	}
}
