package main

import (
	"github.com/janweinstock/or1kiss/loader"
	"github.com/janweinstock/or1kiss/orerr"
)

// resetVector is the OR1K architectural reset exception entry point
// (except.Reset's vector offset), used as the load address/entry point
// for flat/raw binaries, which carry no load-address metadata of their
// own.
const resetVector = 0x100

func (d *driver) load() error {
	switch {
	case d.cfg.elfPath != "":
		img, err := loader.LoadELF(d.cfg.elfPath, d.port)
		if err != nil {
			return err
		}
		d.core.SetPC(img.Entry)
		return nil

	case d.cfg.rawPath != "":
		img, err := loader.LoadRaw(d.cfg.rawPath, resetVector, d.port)
		if err != nil {
			return err
		}
		d.core.SetPC(img.Entry)
		return nil

	default:
		return orerr.Errorf(2, "or1kiss: no image specified (use -e or -b)")
	}
}
