package rsp

import "github.com/janweinstock/or1kiss/core"

// sprSR is the SR special-purpose register address (group 0, reg 17),
// needed to fill the SR slot of the g/G register list.
const sprSR = 0x11

// Core is the subset of *core.Engine the RSP stub drives. It exists so
// this package never has to reach past the engine's public surface, the
// same dependency-inversion shape core/exec's Machine interface uses.
type Core interface {
	GPR(i uint8) uint32
	SetGPR(i uint8, v uint32)
	PC() uint32
	PrevPC() uint32
	ReadSPRDebug(reg uint32) (uint32, error)
	WriteSPRDebug(reg uint32, val uint32) error
	ReadMem(addr uint32, size int, signed bool) (uint32, error)
	WriteMem(addr uint32, size int, value uint32) error
	Step(cycles *uint64) core.StepResult
	Run(quantum uint64) core.StepResult
	InsertBreakpoint(addr uint32)
	RemoveBreakpoint(addr uint32)
}

var _ Core = (*core.Engine)(nil)

// Kind tags one request the RSP server goroutine wants the core goroutine
// to perform.
type Kind int

const (
	CmdReadRegs Kind = iota
	CmdWriteRegs
	CmdReadReg
	CmdWriteReg
	CmdReadMem
	CmdWriteMem
	CmdStep
	CmdContinue
	CmdInsertBreak
	CmdRemoveBreak
	CmdLastSignal
)

// Command is one request posted to the core goroutine's channel. Reply is
// always non-nil and the sender always receives exactly one Result on it.
type Command struct {
	Kind  Kind
	Reg   int
	Value uint32
	Addr  uint32
	Size  int
	Data  []byte
	Reply chan Result
}

// Result is what the core goroutine sends back for a Command.
type Result struct {
	Regs    []uint32
	Value   uint32
	Data    []byte
	Stopped core.StepResult
	Err     error
}

// numRegs is the g/G register count: 32 GPRs, then PPC, NPC, SR.
const numRegs = 35

// RunCore services commands until the channel is closed. It is meant to
// run on whatever goroutine already owns c (typically the same one
// driving the headless quantum loop), so the RSP server never needs to
// synchronise with the core beyond this channel.
func RunCore(c Core, commands <-chan Command) {
	for cmd := range commands {
		cmd.Reply <- execute(c, cmd)
	}
}

func execute(c Core, cmd Command) Result {
	switch cmd.Kind {
	case CmdReadRegs:
		return Result{Regs: readAllRegs(c)}

	case CmdWriteRegs:
		for i, v := range cmd.Data32() {
			writeReg(c, i, v)
		}
		return Result{}

	case CmdReadReg:
		v, err := readReg(c, cmd.Reg)
		return Result{Value: v, Err: err}

	case CmdWriteReg:
		return Result{Err: writeReg(c, cmd.Reg, cmd.Value)}

	case CmdReadMem:
		data := make([]byte, cmd.Size)
		for i := 0; i < cmd.Size; i++ {
			v, err := c.ReadMem(cmd.Addr+uint32(i), 1, false)
			if err != nil {
				return Result{Err: err}
			}
			data[i] = byte(v)
		}
		return Result{Data: data}

	case CmdWriteMem:
		for i, b := range cmd.Data {
			if err := c.WriteMem(cmd.Addr+uint32(i), 1, uint32(b)); err != nil {
				return Result{Err: err}
			}
		}
		return Result{}

	case CmdStep:
		cycles := uint64(1)
		sr := c.Step(&cycles)
		return Result{Stopped: sr}

	case CmdContinue:
		sr := c.Run(^uint64(0))
		return Result{Stopped: sr}

	case CmdInsertBreak:
		c.InsertBreakpoint(cmd.Addr)
		return Result{}

	case CmdRemoveBreak:
		c.RemoveBreakpoint(cmd.Addr)
		return Result{}

	case CmdLastSignal:
		return Result{}
	}
	return Result{}
}

// Data32 reinterprets Command.Data as big-endian 32-bit words, for
// CmdWriteRegs (built from the wire-format "G" payload by the caller).
func (cmd Command) Data32() []uint32 {
	out := make([]uint32, len(cmd.Data)/4)
	for i := range out {
		b := cmd.Data[i*4 : i*4+4]
		out[i] = uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	}
	return out
}

func readAllRegs(c Core) []uint32 {
	regs := make([]uint32, numRegs)
	for i := 0; i < 32; i++ {
		regs[i] = c.GPR(uint8(i))
	}
	regs[32] = c.PrevPC()
	regs[33] = c.PC()
	sr, _ := c.ReadSPRDebug(sprSR)
	regs[34] = sr
	return regs
}

func readReg(c Core, n int) (uint32, error) {
	switch {
	case n < 32:
		return c.GPR(uint8(n)), nil
	case n == 32:
		return c.PrevPC(), nil
	case n == 33:
		return c.PC(), nil
	case n == 34:
		return c.ReadSPRDebug(sprSR)
	}
	return 0, nil
}

func writeReg(c Core, n int, v uint32) error {
	switch {
	case n < 32:
		c.SetGPR(uint8(n), v)
		return nil
	case n == 34:
		return c.WriteSPRDebug(sprSR, v)
	}
	// PPC/NPC (32, 33) are not independently writable through this interface;
	// a client wanting to relocate execution should use a Z-breakpoint
	// plus continue, or l.nop-based scripting, not a raw register poke.
	return nil
}
