package rsp

import (
	"bufio"
	"bytes"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	pkt := Encode("g")
	r := bufio.NewReader(bytes.NewReader(pkt))
	got, err := ReadPacket(r)
	if err != nil {
		t.Fatalf("ReadPacket: %v", err)
	}
	if got != "g" {
		t.Fatalf("payload = %q, want %q", got, "g")
	}
}

func TestReadPacketSkipsAckBytes(t *testing.T) {
	buf := append([]byte{'+', '+'}, Encode("?")...)
	r := bufio.NewReader(bytes.NewReader(buf))
	got, err := ReadPacket(r)
	if err != nil {
		t.Fatalf("ReadPacket: %v", err)
	}
	if got != "?" {
		t.Fatalf("payload = %q, want %q", got, "?")
	}
}

func TestReadPacketRejectsBadChecksum(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader([]byte("$g#00")))
	if _, err := ReadPacket(r); err == nil {
		t.Fatal("expected a checksum error")
	}
}
