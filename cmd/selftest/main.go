// cmd/selftest is a host-runnable bench harness exercising the
// VM -> (outputs | shutter | bus) stack with in-memory fakes, no board
// required; triggers are fed straight into the VM, so the scanner and
// converter are not part of the run. Grounded on the teacher's
// bus/cmd/selftest/main.go: a flat list of named bool-returning test
// functions, run in sequence, printed as [PASS]/[FAIL], with a final
// tally. No testing.T, since this is meant to run as a plain binary on a
// dev machine or CI runner without a board attached.
package main

import (
	"errors"
	"time"

	"github.com/jangala-dev/nodecore/shutter"
	"github.com/jangala-dev/nodecore/trigger"
	"github.com/jangala-dev/nodecore/vm"
	"github.com/jangala-dev/nodecore/wire"
)

var errNoLink = errors.New("selftest: no physical link")

// loopbackTransceiver never actually carries a frame anywhere; it just lets
// a wire.Bus be constructed without a real transport.
type loopbackTransceiver struct{ sent []wire.Frame }

func (l *loopbackTransceiver) Send(f wire.Frame) error { l.sent = append(l.sent, f); return nil }
func (l *loopbackTransceiver) Recv() (wire.Frame, bool, error) {
	return wire.Frame{}, false, nil
}

// recordingOutputs is a minimal vm.OutputController fake: it just remembers
// the last state written to each output and how many times Toggle fired.
type recordingOutputs struct {
	states  map[uint8]bool
	toggles int
	last    bool
}

func (r *recordingOutputs) Set(out uint8, on bool) error {
	if r.states == nil {
		r.states = map[uint8]bool{}
	}
	r.states[out] = on
	return nil
}

func (r *recordingOutputs) Toggle(out uint8) (bool, error) {
	if r.states == nil {
		r.states = map[uint8]bool{}
	}
	on := !r.states[out]
	r.states[out] = on
	r.toggles++
	r.last = on
	return on, nil
}

type noopShutters struct{}

func (noopShutters) Send(uint8, shutter.Cmd) {}

type noopStatus struct{}

func (noopStatus) OutputStates() []vm.StatusEntry { return nil }
func (noopStatus) InputStates() []vm.StatusEntry  { return nil }

// recordingSetter is a minimal shutter.OutputSetter fake recording the last
// state asked of each physical output index.
type recordingSetter struct{ states map[uint8]bool }

func (r *recordingSetter) SetIdx(idx uint8, on bool) error {
	if r.states == nil {
		r.states = map[uint8]bool{}
	}
	r.states[idx] = on
	return nil
}

// alwaysFullTransceiver refuses every Send, standing in for a bus whose
// physical layer never drains.
type alwaysFullTransceiver struct{}

func (alwaysFullTransceiver) Send(wire.Frame) error { return errNoLink }
func (alwaysFullTransceiver) Recv() (wire.Frame, bool, error) {
	return wire.Frame{}, false, nil
}

type testFn struct {
	name string
	fn   func() bool
}

// Scenario 1 (spec.md §8): a short click toggles output 5 and broadcasts
// OutputChanged once.
func TestShortClickTogglesOutput() bool {
	code := []vm.Opcode{
		{Kind: vm.OpStart, Proc: 0},
		{Kind: vm.OpLayerDefault},
		{Kind: vm.OpBindShortToggle, Input: 1, Out: 5},
		{Kind: vm.OpStop},
	}
	prog, err := vm.Load(code)
	if err != nil {
		return false
	}
	tr := &loopbackTransceiver{}
	bus := wire.NewBus(tr)
	out := &recordingOutputs{}
	eng := vm.NewEngine(prog, out, noopShutters{}, bus, noopStatus{})
	eng.Boot()

	eng.HandleTrigger(1, trigger.ShortClick, true)
	bus.Pump()

	if out.toggles != 1 || !out.last {
		return false
	}
	changed := 0
	var got wire.Message
	for _, f := range tr.sent {
		msg, err := wire.Decode(f)
		if err != nil {
			return false
		}
		if msg.Type == wire.TypeOutputChanged {
			changed++
			got = msg
		}
	}
	return changed == 1 && got.Out == 5 && got.State == wire.StateOn
}

// Scenario 3 (spec.md §8): a layer-hold binding makes a second input's
// short-toggle binding live only while the hold input stays pressed, and
// releasing the hold suppresses its own release action (no InputChanged
// dispatch beyond the anchored pop).
func TestLayerHoldScopesBindingToHeldLayer() bool {
	code := []vm.Opcode{
		{Kind: vm.OpStart, Proc: 0},
		{Kind: vm.OpLayerDefault},
		{Kind: vm.OpBindLayerHold, Input: 3, Layer: 9},
		{Kind: vm.OpLayerSet, Layer: 9},
		{Kind: vm.OpBindShortToggle, Input: 4, Out: 7},
		{Kind: vm.OpLayerDefault},
		{Kind: vm.OpStop},
	}
	prog, err := vm.Load(code)
	if err != nil {
		return false
	}
	tr := &loopbackTransceiver{}
	bus := wire.NewBus(tr)
	out := &recordingOutputs{}
	eng := vm.NewEngine(prog, out, noopShutters{}, bus, noopStatus{})
	eng.Boot()

	eng.HandleTrigger(3, trigger.Activated, true)   // push layer 9, anchored to input 3
	eng.HandleTrigger(4, trigger.ShortClick, true)  // bound only in layer 9: toggles output 7
	eng.HandleTrigger(3, trigger.Deactivated, true) // pops the anchored layer, suppressed
	eng.HandleTrigger(4, trigger.ShortClick, true)  // back in the default layer: no binding

	return out.toggles == 1 && out.last
}

// Scenario 4 (spec.md §8): a reversal mid-motion must pass through Cooldown
// with both outputs inactive rather than jumping straight to the new
// direction.
func TestShutterReversalPassesThroughCooldown() bool {
	setter := &recordingSetter{}
	mgr := shutter.New(setter)
	mgr.Configure(0, 10000, 10000, 2000, 1000)
	stop := make(chan struct{})
	defer close(stop)
	go mgr.Run(stop)

	mgr.Send(0, shutter.Cmd{Kind: shutter.CmdSetIO, Down: 0, Up: 1})
	time.Sleep(10 * time.Millisecond)

	mgr.Send(0, shutter.Cmd{Kind: shutter.CmdClose})
	time.Sleep(20 * time.Millisecond) // let it get partway down before reversing

	mgr.Send(0, shutter.Cmd{Kind: shutter.CmdOpen})

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if mgr.Shutter(0).Action.Kind == shutter.Cooldown {
			return !setter.states[0] && !setter.states[1]
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

// Scenario 5 (spec.md §8): the Wait policy retries with additive backoff
// then gives up and counts a drop, rather than blocking forever.
func TestBusWaitDropsAfterRetries() bool {
	bus := wire.NewBus(alwaysFullTransceiver{})
	for i := 0; i < 4; i++ {
		if !bus.Send(wire.Message{Type: wire.TypeOutputChanged, Out: uint8(i)}, wire.Drop) {
			return false // queue should still have room for all four
		}
	}
	before := bus.CanDrop()

	start := time.Now()
	ok := bus.Send(wire.Message{Type: wire.TypeOutputChanged, Out: 9}, wire.Wait)
	elapsed := time.Since(start)

	return !ok && bus.CanDrop() > before && elapsed < time.Second
}

func main() {
	tests := []testFn{
		{"ShortClickTogglesOutput", TestShortClickTogglesOutput},
		{"LayerHoldScopesBindingToHeldLayer", TestLayerHoldScopesBindingToHeldLayer},
		{"ShutterReversalPassesThroughCooldown", TestShutterReversalPassesThroughCooldown},
		{"BusWaitDropsAfterRetries", TestBusWaitDropsAfterRetries},
	}

	passed, failed := 0, 0
	println("== nodecore self-test starting ==")
	for _, tc := range tests {
		ok := tc.fn()
		if ok {
			println("[PASS]", tc.name)
			passed++
		} else {
			println("[FAIL]", tc.name)
			failed++
		}
	}
	println("== done:", passed, "passed,", failed, "failed ==")
}
