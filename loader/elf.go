package loader

import (
	"debug/elf"
	"io"

	"github.com/janweinstock/or1kiss/orerr"
	"github.com/janweinstock/or1kiss/port"
)

// Image describes a program loaded into guest memory: the address
// execution should begin at, and the highest address any segment wrote
// to (useful for the driver to size a stack above the image).
type Image struct {
	Entry uint32
	High  uint32
}

// LoadELF reads an OR1K ELF executable from path and writes each
// PT_LOAD segment's bytes into mem at its own virtual address, exactly
// as spec.md §6's "ELF interface" describes: the loader resolves
// virtual addresses itself and writes through the same port a running
// program would use, tagging every write Debug so it bypasses MMU
// translation and privilege checks.
func LoadELF(path string, mem *port.Port) (Image, error) {
	f, err := elf.Open(path)
	if err != nil {
		return Image{}, orerr.Errorf(1, "loader: open %s: %v", path, err)
	}
	defer f.Close()

	if f.Machine != elf.EM_OPENRISC && f.Machine != elf.EM_NONE {
		return Image{}, orerr.Errorf(1, "loader: %s is not an OpenRISC image (machine=%v)", path, f.Machine)
	}

	img := Image{Entry: uint32(f.Entry)}

	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD || prog.Filesz == 0 {
			continue
		}

		data := make([]byte, prog.Filesz)
		if _, err := io.ReadFull(prog.Open(), data); err != nil {
			return Image{}, orerr.Errorf(1, "loader: %s: reading segment at %#x: %v", path, prog.Vaddr, err)
		}

		req := port.Request{
			Addr:       uint32(prog.Vaddr),
			Size:       len(data),
			Data:       data,
			Debug:      true,
			Supervisor: true,
		}
		if rs := mem.Transact(&req); rs != port.RespSuccess {
			return Image{}, orerr.Errorf(1, "loader: %s: writing segment at %#x failed", path, prog.Vaddr)
		}

		if end := uint32(prog.Vaddr) + uint32(prog.Memsz); end > img.High {
			img.High = end
		}
	}

	return img, nil
}
