package rsp

import (
	"bufio"
	"fmt"

	"github.com/janweinstock/or1kiss/orerr"
)

// checksum is the mod-256 sum of payload's bytes, as the RSP framing
// requires.
func checksum(payload string) byte {
	var sum byte
	for i := 0; i < len(payload); i++ {
		sum += payload[i]
	}
	return sum
}

// Encode frames payload as a complete RSP packet: "$" payload "#" cc.
func Encode(payload string) []byte {
	return []byte(fmt.Sprintf("$%s#%02x", payload, checksum(payload)))
}

// ReadPacket reads one framed packet from r, skipping any ack/nak bytes
// ('+', '-') a peer may have sent before it, and verifies the trailing
// checksum. It does not itself write the ack byte back; callers do that
// once they have decided the packet is usable.
func ReadPacket(r *bufio.Reader) (string, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '$' {
			break
		}
		// '+', '-', and the occasional stray interrupt byte are not part
		// of a packet; keep scanning for the start of the next one.
	}

	payload, err := r.ReadString('#')
	if err != nil {
		return "", err
	}
	payload = payload[:len(payload)-1]

	var hi, lo byte
	if hi, err = r.ReadByte(); err != nil {
		return "", err
	}
	if lo, err = r.ReadByte(); err != nil {
		return "", err
	}
	want, err := hexByte(hi, lo)
	if err != nil {
		return "", err
	}
	if want != checksum(payload) {
		return "", orerr.Errorf(1, "rsp: bad checksum for packet %q", payload)
	}
	return payload, nil
}

func hexByte(hi, lo byte) (byte, error) {
	h, err := hexNibble(hi)
	if err != nil {
		return 0, err
	}
	l, err := hexNibble(lo)
	if err != nil {
		return 0, err
	}
	return h<<4 | l, nil
}

func hexNibble(b byte) (byte, error) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', nil
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, nil
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, nil
	}
	return 0, orerr.Errorf(1, "rsp: invalid hex digit %q", b)
}
