// Package platform holds the concrete I²C expander, native pin, and UART
// collaborators that scan, outputs, and gateway only see as interfaces.
// Grounded on the teacher's drivers/aht20 and drivers/ltc4015 (a
// drivers.I2C bus injected at construction, register I/O as plain methods)
// and services/hal/internal/platform/factories_rp2xxx.go (machine.Pin,
// tinygo-uartx wiring). Confined to board bring-up; nothing outside
// cmd/node and cmd/gateway imports this package.
package platform

import "tinygo.org/x/drivers"

// Expander is a 16-bit I²C port expander addressed as a bare 2-byte word
// (PCF8575-style: no register pointer byte), implementing both
// scan.Expander (ReadAll/Release) and outputs.Expander (SetAll) so board
// wiring can point both the input scanner and the output driver at the same
// physical chip without either package depending on the other's index
// space. Same drivers.I2C.Tx(addr, w, r) shape as the teacher's aht20.Device.
type Expander struct {
	bus  drivers.I2C
	addr uint16
}

// NewExpander builds an Expander over an already-configured I²C bus.
func NewExpander(bus drivers.I2C, addr uint16) *Expander {
	return &Expander{bus: bus, addr: addr}
}

// ReadAll implements scan.Expander: one 2-byte read, LSB first.
func (e *Expander) ReadAll() (uint16, error) {
	var buf [2]byte
	if err := e.bus.Tx(e.addr, nil, buf[:]); err != nil {
		return 0, err
	}
	return uint16(buf[0]) | uint16(buf[1])<<8, nil
}

// Release implements scan.Expander: writes all-high once, matching the
// scanner's startup convention for open-drain inputs.
func (e *Expander) Release() error {
	return e.SetAll(0xFFFF)
}

// SetAll implements outputs.Expander: one 2-byte write, LSB first.
func (e *Expander) SetAll(word uint16) error {
	buf := [2]byte{byte(word), byte(word >> 8)}
	return e.bus.Tx(e.addr, buf[:], nil)
}
