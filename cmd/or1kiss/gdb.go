package main

import (
	"fmt"

	"github.com/janweinstock/or1kiss/govern"
	"github.com/janweinstock/or1kiss/rsp"
)

// serveGDB runs the core under govern.ModeRemote: the RSP server goroutine
// posts Commands over a channel, and RunCore executes them against the
// core on a second goroutine, matching spec.md §5's command-channel handoff.
// d.state only brackets the session as a whole (Initialising, Paused while
// RunCore services commands, Ending); RunCore does not update it.
func (d *driver) serveGDB() error {
	d.mode = govern.ModeRemote
	d.state = govern.Initialising

	commands := make(chan rsp.Command)

	srv, err := rsp.Listen(fmt.Sprintf(":%d", d.cfg.gdbPort), commands)
	if err != nil {
		d.state = govern.Ending
		return err
	}
	defer srv.Listener.Close()

	done := make(chan struct{})
	go func() {
		d.state = govern.Paused
		rsp.RunCore(d.core, commands)
		close(done)
	}()

	fmt.Printf("or1kiss: waiting for GDB on port %d\n", d.cfg.gdbPort)
	err = srv.Serve()

	close(commands)
	<-done
	d.state = govern.Ending

	return err
}
