package loader

import (
	"os"

	"github.com/janweinstock/or1kiss/orerr"
	"github.com/janweinstock/or1kiss/port"
)

// LoadRaw reads the entire contents of path and writes it verbatim into
// mem starting at base, for the `-b` flag's flat-binary images: no
// relocation, no segment table, loaded exactly as given at the address
// the caller configured as the reset vector.
func LoadRaw(path string, base uint32, mem *port.Port) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, orerr.Errorf(1, "loader: open %s: %v", path, err)
	}
	if len(data) == 0 {
		return Image{}, orerr.Errorf(1, "loader: %s is empty", path)
	}

	req := port.Request{
		Addr:       base,
		Size:       len(data),
		Data:       data,
		Debug:      true,
		Supervisor: true,
	}
	if rs := mem.Transact(&req); rs != port.RespSuccess {
		return Image{}, orerr.Errorf(1, "loader: writing %s at %#x failed", path, base)
	}

	return Image{Entry: base, High: base + uint32(len(data))}, nil
}
