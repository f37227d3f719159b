// Package corectl is the node's composition root and core dispatch loop: it
// owns the bounded event channel spec.md §4.7 names, wires the scanner,
// event converter, bus RX, shutter manager and VM engine together, and
// computes the node's overall status level for the status-LED driver
// (an external collaborator). Grounded on the teacher's core.HAL.Run
// (services/hal/internal/core/loop.go) for the single dispatch-loop shape,
// adapted from a capability/device registry to the fixed building-automation
// event set of spec.md §3/§4.7.
package corectl

import "github.com/jangala-dev/nodecore/trigger"

// EventQueueLen is the bounded event channel's capacity (spec.md §4.7:
// "a bounded 5-slot event channel").
const EventQueueLen = 5

// EventKind is the closed set of events the core loop dispatches, per
// spec.md §3: a tagged struct rather than an interface (spec.md §9).
type EventKind uint8

const (
	EvButton EventKind = iota
	EvRemoteToggle
	EvRemoteActivate
	EvRemoteDeactivate
	EvRemoteProcCall
	EvRemoteStatusRequest
)

// Event is the one type carried on the core event channel.
type Event struct {
	Kind EventKind

	Input   uint8           // EvButton
	Trigger trigger.Trigger // EvButton
	Remote  bool            // EvButton: injected by a TriggerInput message, not a scanned edge

	Out uint8 // EvRemoteToggle/Activate/Deactivate

	Proc uint8 // EvRemoteProcCall
}
