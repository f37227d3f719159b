//go:build rp2040 || rp2350

// cmd/gateway is the one node on the bus configured to bridge peer traffic
// to a host over serial-over-USB, per spec.md §1. It runs the identical
// core stack as cmd/node (every controller runs the same core) plus the
// gateway bridge task.
package main

import (
	"machine"
	"time"
)

const localAddress = 0x3E // reserved gateway address, distinct from peer nodes

var expanderAddrs = [...]uint16{0x20, 0x21}
var expanderRequired = [...]bool{true, false}
var nativeInputPins = [...]int{14, 15}
var nativeOutputPins = [...]int{16}

const inputPull = machine.PinInputPullup

const (
	i2cSDAPin = 6
	i2cSCLPin = 7
)

// Gateway link to the host: UART0, distinct from the board's I2C pins.
const (
	gatewayUARTBaud  = 115200
	gatewayUARTRxPin = 1
	gatewayUARTTxPin = 0
)

// busForwardPeriod paces the gateway's physical-bus <-> host-link forwarding
// loop; same order of magnitude as corectl's own busPollPeriod.
const busForwardPeriod = 10 * time.Millisecond

// shutterProfile mirrors cmd/node's compiled-in motion timing table.
type shutterProfile struct {
	idx                            uint8
	riseMs, dropMs, tiltMs, overMs uint32
}

var shutterProfiles = [...]shutterProfile{
	{idx: 0, riseMs: 22000, dropMs: 21000, tiltMs: 1600, overMs: 2000},
}
