//go:build rp2040 || rp2350

package platform

import (
	"errors"

	"github.com/jangala-dev/nodecore/wire"
)

// errNoCANDriver is returned by CANStub.Send: the concrete I2C/CAN driver
// layer is deliberately out of scope per spec.md §1 ("specified only at its
// interface"). CANStub implements wire.Transceiver so cmd/node links and
// runs end to end on hardware that has not yet had its CAN transceiver
// wired; swap in a real tinygo.org/x/drivers CAN backend at the same
// injection point (wire.NewBus's argument) once that chip is selected.
var errNoCANDriver = errors.New("platform: no CAN transceiver wired")

// CANStub is a placeholder wire.Transceiver: Recv always reports nothing
// pending, Send always fails. It lets cmd/node boot the full event-driven
// core (VM, shutter manager, scanner) without the as-yet-unspecified
// physical bus driver, matching the teacher's own pattern of standing up a
// HAL.Run loop ahead of every concrete device being wired in.
type CANStub struct{}

func (CANStub) Send(wire.Frame) error           { return errNoCANDriver }
func (CANStub) Recv() (wire.Frame, bool, error) { return wire.Frame{}, false, nil }
