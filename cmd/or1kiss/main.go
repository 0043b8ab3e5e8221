// or1kiss is the CLI driver: it loads an ELF or raw image into an OR1K
// core, then either runs it headlessly to completion/exit or exposes it
// to a GDB client over the remote-serial-protocol stub in rsp.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/janweinstock/or1kiss/core"
	"github.com/janweinstock/or1kiss/core/dcache"
	"github.com/janweinstock/or1kiss/dashboard"
	"github.com/janweinstock/or1kiss/govern"
	"github.com/janweinstock/or1kiss/logger"
	"github.com/janweinstock/or1kiss/modalflag"
	"github.com/janweinstock/or1kiss/orerr"
	"github.com/janweinstock/or1kiss/port"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	md := &modalflag.Modes{Output: os.Stdout}
	md.NewArgs(args)

	elfPath := md.AddString("e", "", "load an ELF image")
	rawPath := md.AddString("b", "", "load a flat/raw binary at the reset vector")
	tracePath := md.AddString("t", "", "write an execution trace to this file, or - for stdout")
	gdbPort := md.AddInt("p", 0, "listen for a GDB client on this TCP port (e.g. 3333)")
	memSize := md.AddInt("m", 16*1024*1024, "memory size in bytes")
	maxInsns := md.AddInt("i", 0, "stop after this many instructions (0: unbounded)")
	warnings := md.AddBool("w", false, "echo simulation warnings to stderr")
	noDcache := md.AddBool("z", false, "disable the instruction decode cache")
	scriptPath := md.AddString("script", "", "run this Lua script before the first instruction and again on each l.nop report")
	dashboardAddr := md.AddString("dashboard", "", "serve a live engine-counters dashboard on this address (e.g. :18080)")

	switch p, err := md.Parse(); p {
	case modalflag.ParseHelp:
		return 0
	case modalflag.ParseError:
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *warnings {
		logger.SetEchoStderr()
	}

	d := newDriver(driverConfig{
		elfPath:       *elfPath,
		rawPath:       *rawPath,
		tracePath:     *tracePath,
		gdbPort:       *gdbPort,
		memSize:       *memSize,
		maxInsns:      *maxInsns,
		warnings:      *warnings,
		noDcache:      *noDcache,
		scriptPath:    *scriptPath,
		dashboardAddr: *dashboardAddr,
	})
	defer d.Close()

	if d.cfg.dashboardAddr != "" {
		d.startDashboard()
	}

	if err := d.load(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return orerr.ExitCodeOf(err)
	}

	if d.cfg.gdbPort > 0 {
		if err := d.serveGDB(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return orerr.ExitCodeOf(err)
		}
		return 0
	}

	code, err := d.runHeadless()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return orerr.ExitCodeOf(err)
	}
	return int(code)
}

type driverConfig struct {
	elfPath, rawPath, tracePath, scriptPath, dashboardAddr string
	gdbPort, memSize, maxInsns                             int
	warnings, noDcache                                     bool
}

type driver struct {
	cfg        driverConfig
	mem        *port.Memory
	port       *port.Port
	core       *core.Engine
	trace      *os.File
	traceColor bool

	mode  govern.Mode
	state govern.State

	dash     *dashboard.Server
	dashStop chan struct{}
}

func newDriver(cfg driverConfig) *driver {
	mem := port.NewMemory(0, uint32(cfg.memSize))
	p := port.New(mem)

	dcSize := dcache.Size64K
	if cfg.noDcache {
		dcSize = dcache.Off
	}

	e := core.New(p, core.Config{
		DecodeCacheSize: dcSize,
		Warnings:        cfg.warnings,
	})
	e.SetConsole(os.Stdout)

	mode := govern.ModeStandalone
	if cfg.gdbPort > 0 {
		mode = govern.ModeRemote
	}

	return &driver{cfg: cfg, mem: mem, port: p, core: e, mode: mode, state: govern.CoreStart}
}

// startDashboard launches the engine-counters dashboard (dashboard.Server)
// in the background, sampling once a second until Close stops it.
func (d *driver) startDashboard() {
	d.dash = dashboard.New(d.core, 0)
	d.dashStop = make(chan struct{})

	go func() {
		if err := d.dash.ListenAndServe(d.cfg.dashboardAddr); err != nil {
			fmt.Fprintf(os.Stderr, "or1kiss: dashboard: %v\n", err)
		}
	}()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				d.dash.Sample()
			case <-d.dashStop:
				return
			}
		}
	}()
}

func (d *driver) Close() {
	if d.dashStop != nil {
		close(d.dashStop)
		d.dash.Close()
	}
	if d.trace != nil && d.trace != os.Stdout {
		d.trace.Close()
	}
}
