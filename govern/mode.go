package govern

// Mode indicates who is driving the core.
type Mode int

func (m Mode) String() string {
	switch m {
	case ModeStandalone:
		return "Standalone"
	case ModeRemote:
		return "Remote"
	}
	return ""
}

// List of defined modes.
const (
	// ModeNone is the zero value; never observed once a core has started.
	ModeNone Mode = iota

	// ModeStandalone: the core runs to completion or exit-NOP unattended.
	ModeStandalone

	// ModeRemote: a GDB client is attached over the RSP stub and controls
	// stepping/continuing explicitly.
	ModeRemote
)
