package timer

import "github.com/janweinstock/or1kiss/logger"

// Mode is the two-bit TTMR[31:30] field selecting how the timer behaves
// once TTCR reaches the limit in TTMR[27:0].
type Mode uint32

const (
	Disabled Mode = 0 << 30
	Restart  Mode = 1 << 30
	OneShot  Mode = 2 << 30
	Continue Mode = 3 << 30
)

const (
	// IP is the interrupt-pending bit, cleared by software writing TTMR.
	IP uint32 = 1 << 28
	// IE is the interrupt-enable bit.
	IE uint32 = 1 << 29

	modeMask  = uint32(0xc0000000)
	limitMask = uint32(0x0fffffff)
)

// Timer is one tick timer unit. Each core owns exactly one.
type Timer struct {
	ttmr uint32
	ttcr uint32
	done bool // latched by OneShot mode once it has already fired
}

// TTMR returns the timer mode register.
func (t *Timer) TTMR() uint32 { return t.ttmr }

// SetTTMR writes the timer mode register and immediately re-evaluates the
// counter against the (possibly new) limit and mode.
func (t *Timer) SetTTMR(v uint32) {
	t.ttmr = v
	t.Update(0)
}

// TTCR returns the timer count register.
func (t *Timer) TTCR() uint32 { return t.ttcr }

// SetTTCR writes the timer count register directly, as software does to
// reset the counter, and clears the one-shot latch.
func (t *Timer) SetTTCR(v uint32) {
	t.ttcr = v
	t.done = false
	t.Update(0)
}

func (t *Timer) mode() Mode { return Mode(t.ttmr & modeMask) }

// Enabled reports whether the timer is in any mode other than Disabled.
func (t *Timer) Enabled() bool { return t.mode() != Disabled }

// IRQEnabled reports the state of TTMR's IE bit.
func (t *Timer) IRQEnabled() bool { return t.ttmr&IE != 0 }

// IRQPending reports the state of TTMR's IP bit.
func (t *Timer) IRQPending() bool { return t.ttmr&IP != 0 }

// Limit is the 28-bit value TTCR is compared against.
func (t *Timer) Limit() uint32 { return t.ttmr & limitMask }

// Current is the 28-bit running count.
func (t *Timer) Current() uint32 { return t.ttcr & limitMask }

// NextTick returns how many cycles remain before the counter reaches
// Limit, accounting for the 28-bit wraparound.
func (t *Timer) NextTick() uint64 {
	limit, current := uint64(t.Limit()), uint64(t.Current())
	if current < limit {
		return limit - current
	}
	return 0x0fffffff - current + limit + 1
}

// Update advances the counter by delta cycles, firing an interrupt (by
// setting IP) if the mode's compare condition is met. delta of 0 is used
// to re-evaluate the timer after a register write without advancing time.
func (t *Timer) Update(delta uint64) {
	t.ttcr &= limitMask
	mode := t.mode()
	if mode == Disabled {
		return
	}

	d := uint32(delta)
	limit := t.Limit()
	count := t.Current()
	irqSet := false

	switch mode {
	case Restart:
		if count < limit && count+d >= limit {
			irqSet = true
			t.ttcr = 0
		} else {
			t.ttcr += d
		}
	case OneShot:
		if !t.done {
			if count < limit && count+d >= limit {
				irqSet = true
				t.ttcr = limit
				t.done = true
			} else {
				t.ttcr += d
			}
		}
	case Continue:
		if count < limit && count+d >= limit {
			irqSet = true
		}
		t.ttcr += d
	default:
		logger.Logf(logger.Allow, "timer", "invalid tick timer mode %#x", uint32(mode))
		return
	}
	t.ttcr &= limitMask

	if t.IRQEnabled() && irqSet {
		t.ttmr |= IP
	}
}
