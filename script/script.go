package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/janweinstock/or1kiss/core"
	"github.com/janweinstock/or1kiss/orerr"
)

// Core is the subset of *core.Engine a script can drive: memory access,
// single-stepping and register inspection. Kept narrow deliberately — a
// script has no business reaching into SPR space or breakpoint lists.
type Core interface {
	GPR(i uint8) uint32
	SetGPR(i uint8, v uint32)
	PC() uint32
	ReadMem(addr uint32, size int, signed bool) (uint32, error)
	WriteMem(addr uint32, size int, value uint32) error
	Step(cycles *uint64) core.StepResult
}

var _ Core = (*core.Engine)(nil)

// Engine wraps a Lua state with the `sim` table bound to a Core.
type Engine struct {
	L    *lua.LState
	core Core
}

// New creates a Lua state and registers the sim table against c.
func New(c Core) *Engine {
	e := &Engine{L: lua.NewState(), core: c}
	e.register()
	return e
}

// Close releases the underlying Lua state.
func (e *Engine) Close() { e.L.Close() }

func (e *Engine) register() {
	sim := e.L.NewTable()
	e.L.SetGlobal("sim", sim)
	e.L.SetField(sim, "read32", e.L.NewFunction(e.luaRead32))
	e.L.SetField(sim, "write32", e.L.NewFunction(e.luaWrite32))
	e.L.SetField(sim, "step", e.L.NewFunction(e.luaStep))
	e.L.SetField(sim, "regs", e.L.NewFunction(e.luaRegs))
}

func (e *Engine) luaRead32(L *lua.LState) int {
	addr := uint32(L.CheckInt64(1))
	v, err := e.core.ReadMem(addr, 4, false)
	if err != nil {
		L.RaiseError("sim.read32(%#x): %v", addr, err)
		return 0
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (e *Engine) luaWrite32(L *lua.LState) int {
	addr := uint32(L.CheckInt64(1))
	val := uint32(L.CheckInt64(2))
	if err := e.core.WriteMem(addr, 4, val); err != nil {
		L.RaiseError("sim.write32(%#x): %v", addr, err)
	}
	return 0
}

// luaStep advances the core by sim.step([cycles]), defaulting to one
// cycle, and returns the number of cycles actually elapsed.
func (e *Engine) luaStep(L *lua.LState) int {
	cycles := uint64(1)
	if L.GetTop() >= 1 {
		cycles = uint64(L.CheckInt64(1))
	}
	e.core.Step(&cycles)
	L.Push(lua.LNumber(cycles))
	return 1
}

// luaRegs returns a table {[0]=r0, ..., [31]=r31, pc=...}.
func (e *Engine) luaRegs(L *lua.LState) int {
	t := L.NewTable()
	for i := 0; i < 32; i++ {
		t.RawSetInt(i, lua.LNumber(e.core.GPR(uint8(i))))
	}
	L.SetField(t, "pc", lua.LNumber(e.core.PC()))
	L.Push(t)
	return 1
}

// RunFile executes the Lua script at path, e.g. in response to `-script`
// or a NopReport side-channel request.
func (e *Engine) RunFile(path string) error {
	if err := e.L.DoFile(path); err != nil {
		return orerr.Errorf(1, "script: %s: %v", path, err)
	}
	return nil
}

// RunString executes src directly, mainly useful for tests.
func (e *Engine) RunString(src string) error {
	if err := e.L.DoString(src); err != nil {
		return orerr.Errorf(1, "script: %v", err)
	}
	return nil
}
