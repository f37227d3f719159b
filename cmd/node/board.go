//go:build rp2040 || rp2350

// Package main wires a physical node's board configuration: which I2C
// expanders exist, which outputs and inputs live on them vs. native pins,
// and this node's local bus address. Grounded on the teacher's
// platform/boards convention of keeping wiring choices out of the shared
// core and in one small per-board file (cmd/pico-hal-main/main.go's own
// topic/pin literals serve the same role there).
package main

import "machine"

// localAddress is this node's 6-bit bus address (spec.md §6).
const localAddress = 0x01

// expanderAddrs lists the I2C addresses of the two 16-bit port expanders
// this board has: expander 0 carries outputs 0-15; expander 1 is an
// optional expander carrying the inputs 0-15 that are not native (all but
// 3 and 6).
var expanderAddrs = [...]uint16{0x20, 0x21}

// expanderRequired marks expander 0 as required (persistent failure is
// fatal) and expander 1 as optional (degrades to "unavailable").
var expanderRequired = [...]bool{true, false}

// nativeInputPins lists GPIO numbers scanned as native input lines, indexed
// by scan.LineID{Source: scan.SourceNative, Bit: i}.
var nativeInputPins = [...]int{14, 15} // local switches 3 and 6 in program.json

// nativeOutputPins lists GPIO numbers driven as native output lines.
var nativeOutputPins = [...]int{16} // the one native-wired SSR on this board

// inputPull is the pull configuration for native input pins: all local
// switches are wired to ground through a pull-up.
const inputPull = machine.PinInputPullup

// i2cSDAPin / i2cSCLPin select the onboard I2C1 controller, matching the
// teacher's boards.Board.Defaults.I2C1_SDA/I2C1_SCL convention.
const (
	i2cSDAPin = 6
	i2cSCLPin = 7
)

// shutterProfile is one shutter's compiled-in motion timing, measured on the
// installed motor: full rise, full drop, full slat tilt, and the overtravel
// margin run past the estimated limit before the relay is forced off.
type shutterProfile struct {
	idx                            uint8
	riseMs, dropMs, tiltMs, overMs uint32
}

// shutterProfiles: this board drives one shutter, its motor wired to outputs
// 7 (down) and 8 (up) by program.json's bind_shutter.
var shutterProfiles = [...]shutterProfile{
	{idx: 0, riseMs: 22000, dropMs: 21000, tiltMs: 1600, overMs: 2000},
}
