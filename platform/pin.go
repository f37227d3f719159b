//go:build rp2040 || rp2350

package platform

import "machine"

// Pin wraps a native machine.Pin, implementing both scan.NativePin (Read)
// and outputs.NativePin (Set). Grounded on the teacher's rp2Pin
// (services/hal/internal/platform/factories_rp2xxx.go), trimmed to the
// GPIO-only view this board needs (no IRQ, no PWM).
type Pin struct {
	p machine.Pin
}

// NewInputPin claims n as an input with the given pull, for a scanned
// button line wired to a native GPIO rather than an expander bit.
func NewInputPin(n int, pull machine.PinMode) *Pin {
	p := machine.Pin(n)
	p.Configure(machine.PinConfig{Mode: pull})
	return &Pin{p: p}
}

// NewOutputPin claims n as a driven output line.
func NewOutputPin(n int) *Pin {
	p := machine.Pin(n)
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &Pin{p: p}
}

// Read implements scan.NativePin: true means electrically low (active-low).
func (p *Pin) Read() (bool, error) { return !p.p.Get(), nil }

// Set implements outputs.NativePin.
func (p *Pin) Set(on bool) error {
	p.p.Set(on)
	return nil
}
