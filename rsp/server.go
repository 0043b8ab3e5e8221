package rsp

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/janweinstock/or1kiss/core"
	"github.com/janweinstock/or1kiss/orerr"
)

// Server accepts one GDB client at a time over TCP and translates its
// packets into Commands posted to Commands, per this package's doc
// comment.
type Server struct {
	Listener net.Listener
	Commands chan<- Command
}

// Listen opens a TCP listener at addr (e.g. ":3333", matching the `-p
// <gdb-port>` CLI flag) and returns a Server ready to accept one client.
func Listen(addr string, commands chan<- Command) (*Server, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, orerr.Errorf(1, "rsp: listen on %s: %v", addr, err)
	}
	return &Server{Listener: l, Commands: commands}, nil
}

// Serve accepts a single connection and services it until the client
// detaches, kills the session, or the connection drops. It returns nil on
// a clean detach/kill.
func (s *Server) Serve() error {
	conn, err := s.Listener.Accept()
	if err != nil {
		return orerr.Errorf(1, "rsp: accept: %v", err)
	}
	defer conn.Close()
	return s.handle(conn)
}

func (s *Server) handle(conn net.Conn) error {
	r := bufio.NewReader(conn)
	for {
		payload, err := ReadPacket(r)
		if err != nil {
			return err
		}
		if _, err := conn.Write([]byte{'+'}); err != nil {
			return err
		}

		reply, done := s.dispatch(payload)
		if _, err := conn.Write(Encode(reply)); err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (s *Server) call(cmd Command) Result {
	cmd.Reply = make(chan Result, 1)
	s.Commands <- cmd
	return <-cmd.Reply
}

// dispatch decodes one packet payload, drives the core through a Command,
// and renders the reply payload (without the leading '$'/trailing
// checksum, which handle adds). done reports whether the session
// should end after this reply (D, k).
func (s *Server) dispatch(payload string) (reply string, done bool) {
	if payload == "" {
		return "", false
	}

	switch payload[0] {
	case 'g':
		res := s.call(Command{Kind: CmdReadRegs})
		return encodeRegs(res.Regs), false

	case 'G':
		data, err := hex.DecodeString(payload[1:])
		if err != nil {
			return "E01", false
		}
		s.call(Command{Kind: CmdWriteRegs, Data: data})
		return "OK", false

	case 'p':
		n, err := strconv.ParseInt(payload[1:], 16, 32)
		if err != nil {
			return "E01", false
		}
		res := s.call(Command{Kind: CmdReadReg, Reg: int(n)})
		if res.Err != nil {
			return "E01", false
		}
		return fmt.Sprintf("%08x", res.Value), false

	case 'P':
		reg, val, ok := splitAssign(payload[1:])
		if !ok {
			return "E01", false
		}
		res := s.call(Command{Kind: CmdWriteReg, Reg: reg, Value: val})
		if res.Err != nil {
			return "E01", false
		}
		return "OK", false

	case 'm':
		addr, length, ok := parseAddrLen(payload[1:])
		if !ok {
			return "E01", false
		}
		res := s.call(Command{Kind: CmdReadMem, Addr: addr, Size: length})
		if res.Err != nil {
			return "E01", false
		}
		return hex.EncodeToString(res.Data), false

	case 'M':
		addr, data, ok := parseAddrColonData(payload[1:])
		if !ok {
			return "E01", false
		}
		res := s.call(Command{Kind: CmdWriteMem, Addr: addr, Data: data})
		if res.Err != nil {
			return "E01", false
		}
		return "OK", false

	case 'X':
		addr, data, ok := parseAddrColonBinary(payload[1:])
		if !ok {
			return "E01", false
		}
		res := s.call(Command{Kind: CmdWriteMem, Addr: addr, Data: data})
		if res.Err != nil {
			return "E01", false
		}
		return "OK", false

	case 's':
		res := s.call(Command{Kind: CmdStep})
		return stopReply(res.Stopped), false

	case 'c':
		res := s.call(Command{Kind: CmdContinue})
		return stopReply(res.Stopped), false

	case 'Z':
		addr, ok := parseBreak(payload[1:])
		if !ok {
			return "E01", false
		}
		s.call(Command{Kind: CmdInsertBreak, Addr: addr})
		return "OK", false

	case 'z':
		addr, ok := parseBreak(payload[1:])
		if !ok {
			return "E01", false
		}
		s.call(Command{Kind: CmdRemoveBreak, Addr: addr})
		return "OK", false

	case '?':
		s.call(Command{Kind: CmdLastSignal})
		return "S05", false

	case 'H':
		// Thread selection: this simulator models one core, so any
		// requested thread is trivially "selected".
		return "OK", false

	case 'D':
		return "OK", true

	case 'k':
		return "", true

	case 'q', 'v':
		// General queries and the v-prefixed multi-letter commands are
		// answered empty, which GDB takes as "unsupported" and falls
		// back to the packets this stub does implement.
		return "", false
	}

	return "", false
}

func splitAssign(s string) (reg int, val uint32, ok bool) {
	parts := strings.SplitN(s, "=", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	n, err1 := strconv.ParseInt(parts[0], 16, 32)
	v, err2 := strconv.ParseUint(parts[1], 16, 32)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return int(n), uint32(v), true
}

func encodeRegs(regs []uint32) string {
	var b strings.Builder
	for _, r := range regs {
		fmt.Fprintf(&b, "%08x", r)
	}
	return b.String()
}

// stopReply renders a core.StepResult as the RSP stop-reply packet a
// client expects after 's' or 'c': "W00" for a clean exit (the target
// process model GDB expects to see disappear), "S05" (SIGTRAP) for
// anything that merely paused execution.
func stopReply(sr core.StepResult) string {
	if sr == core.StepExit {
		return "W00"
	}
	return "S05"
}
