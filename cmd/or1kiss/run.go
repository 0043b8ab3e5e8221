package main

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/janweinstock/or1kiss/core"
	"github.com/janweinstock/or1kiss/disasm"
	"github.com/janweinstock/or1kiss/govern"
	"github.com/janweinstock/or1kiss/orerr"
	"github.com/janweinstock/or1kiss/script"
)

// runHeadless drives the core to completion unattended (govern.ModeStandalone),
// honouring -t tracing, -i instruction caps and the NopReport script hook.
func (d *driver) runHeadless() (uint32, error) {
	d.state = govern.Initialising

	if d.cfg.tracePath == "-" {
		d.trace = os.Stdout
		d.traceColor = term.IsTerminal(int(os.Stdout.Fd()))
		_ = d.core.NopCode(core.NopTraceOn, 0)
	} else if d.cfg.tracePath != "" {
		f, err := os.Create(d.cfg.tracePath)
		if err != nil {
			return 0, orerr.Errorf(2, "or1kiss: open trace file: %v", err)
		}
		d.trace = f
		_ = d.core.NopCode(core.NopTraceOn, 0)
	}

	var scr *script.Engine
	if d.cfg.scriptPath != "" {
		scr = script.New(d.core)
		defer scr.Close()
		if err := scr.RunFile(d.cfg.scriptPath); err != nil {
			return 0, err
		}
	}

	d.state = govern.Running

	for govern.StateAllowsFetch(d.state) {
		if d.cfg.maxInsns > 0 && d.core.Instructions() >= uint64(d.cfg.maxInsns) {
			d.state = govern.Ending
			return 0, nil
		}

		d.traceOne()

		one := uint64(1)
		sr := d.core.Step(&one)

		if d.core.ReportRequested() {
			d.core.ClearReportRequested()
			if scr != nil {
				if err := scr.RunFile(d.cfg.scriptPath); err != nil {
					fmt.Fprintln(os.Stderr, err)
				}
			}
		}

		if sr == core.StepExit {
			d.state = govern.Ending
			if !d.core.SilentExit() {
				fmt.Printf("or1kiss: exit(%d) after %d instructions, %d cycles\n",
					d.core.ExitCode(), d.core.Instructions(), d.core.Cycles())
			}
			return d.core.ExitCode(), nil
		}
	}

	return 0, nil
}

// traceColorCyan/traceColorReset bracket the mnemonic when tracing to an
// interactive terminal (-t -), matching the convention of other or1k
// tooling that dims addresses and highlights the instruction itself.
const (
	traceColorCyan  = "\x1b[36m"
	traceColorReset = "\x1b[0m"
)

// traceOne writes one disassembled line for the next instruction to
// execute, if -t tracing is enabled (and, per NopTraceOn/NopTraceOff, the
// guest hasn't suppressed it).
func (d *driver) traceOne() {
	if d.trace == nil || !d.core.Tracing() {
		return
	}
	pc := d.core.PC()
	word, err := d.core.ReadMem(pc, 4, false)
	if err != nil {
		return
	}
	mnemonic := disasm.Disassemble(word, pc)
	if d.traceColor {
		fmt.Fprintf(d.trace, "%08x: %s%s%s\n", pc, traceColorCyan, mnemonic, traceColorReset)
		return
	}
	fmt.Fprintf(d.trace, "%08x: %s\n", pc, mnemonic)
}
