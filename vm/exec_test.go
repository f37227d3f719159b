package vm

import (
	"testing"
	"time"

	"github.com/jangala-dev/nodecore/shutter"
	"github.com/jangala-dev/nodecore/trigger"
	"github.com/jangala-dev/nodecore/wire"
)

type fakeOutputs struct {
	states map[uint8]bool
}

func newFakeOutputs() *fakeOutputs { return &fakeOutputs{states: map[uint8]bool{}} }

func (f *fakeOutputs) Set(out uint8, on bool) error {
	f.states[out] = on
	return nil
}
func (f *fakeOutputs) Toggle(out uint8) (bool, error) {
	next := !f.states[out]
	f.states[out] = next
	return next, nil
}

type fakeShutters struct {
	sent []shutter.Cmd
}

func (f *fakeShutters) Send(idx uint8, cmd shutter.Cmd) { f.sent = append(f.sent, cmd) }

type fakeBus struct {
	sent []wire.Message
}

func (f *fakeBus) Send(msg wire.Message, policy wire.WhenFull) bool {
	f.sent = append(f.sent, msg)
	return true
}

type fakeStatus struct{}

func (fakeStatus) OutputStates() []StatusEntry { return []StatusEntry{{IO: 0, State: wire.StateOn}} }
func (fakeStatus) InputStates() []StatusEntry  { return []StatusEntry{{IO: 1, State: wire.StateError}} }

func newTestEngine(code []Opcode) (*Engine, *fakeOutputs, *fakeShutters, *fakeBus) {
	prog, err := Load(code)
	if err != nil {
		panic(err)
	}
	out := newFakeOutputs()
	sh := &fakeShutters{}
	bus := &fakeBus{}
	e := NewEngine(prog, out, sh, bus, fakeStatus{})
	e.sleep = func(d time.Duration) {}
	return e, out, sh, bus
}

func TestBootInstallsBindingsAndDirectToggleDispatches(t *testing.T) {
	code := []Opcode{
		{Kind: OpStart, Proc: 0},
		{Kind: OpBindShortToggle, Input: 4, Out: 2},
		{Kind: OpStop},
	}
	e, out, _, bus := newTestEngine(code)
	e.Boot()

	e.HandleTrigger(4, trigger.ShortClick, true)
	if !out.states[2] {
		t.Fatalf("expected output 2 toggled on")
	}
	if len(bus.sent) != 2 {
		// one OutputChanged + one InputChanged
		t.Fatalf("expected 2 bus messages, got %d", len(bus.sent))
	}
}

func TestLayerHoldCoexistsWithShortClickOnSameInput(t *testing.T) {
	code := []Opcode{
		{Kind: OpStart, Proc: 0},
		{Kind: OpBindLayerHold, Input: 7, Layer: 1},
		{Kind: OpBindShortToggle, Input: 7, Out: 3},
		{Kind: OpStop},
	}
	e, out, _, _ := newTestEngine(code)
	e.Boot()

	e.HandleTrigger(7, trigger.Activated, true) // layer hold: push layer 1
	if e.layers.Current() != 1 {
		t.Fatalf("expected layer 1 active after Activated, got %d", e.layers.Current())
	}

	e.HandleTrigger(7, trigger.Deactivated, true) // anchored pop, suppressed
	if e.layers.Current() != DefaultLayer {
		t.Fatalf("expected default layer after anchored pop")
	}

	e.HandleTrigger(7, trigger.ShortClick, true) // now resolves against default layer
	if !out.states[3] {
		t.Fatalf("expected short-click toggle binding to fire on default layer")
	}
}

func TestDeactivateSuppressedWhenAnchorPops(t *testing.T) {
	code := []Opcode{
		{Kind: OpStart, Proc: 0},
		{Kind: OpBindLayerHold, Input: 1, Layer: 2},
		{Kind: OpBindDeactivateCall, Input: 1, Proc: 9}, // would fire if not suppressed
		{Kind: OpStop},
	}
	e, _, _, bus := newTestEngine(code)
	e.Boot()

	e.HandleTrigger(1, trigger.Activated, true)
	bus.sent = nil
	e.HandleTrigger(1, trigger.Deactivated, true)

	if len(bus.sent) != 0 {
		t.Fatalf("expected no dispatch or echo for a suppressed deactivate, got %+v", bus.sent)
	}
}

func TestBindingNotFoundStillEchoesInputChanged(t *testing.T) {
	code := []Opcode{{Kind: OpStart, Proc: 0}, {Kind: OpStop}}
	e, _, _, bus := newTestEngine(code)
	e.Boot()

	e.HandleTrigger(5, trigger.ShortClick, true)
	if len(bus.sent) != 1 || bus.sent[0].Type != wire.TypeInputChanged {
		t.Fatalf("expected a lone InputChanged echo, got %+v", bus.sent)
	}
}

func TestCallStackOverflowPanics(t *testing.T) {
	code := []Opcode{
		{Kind: OpStart, Proc: 0},
		{Kind: OpCall, Proc: 1},
		{Kind: OpStop},
		{Kind: OpStart, Proc: 1},
		{Kind: OpCall, Proc: 2},
		{Kind: OpStop},
		{Kind: OpStart, Proc: 2},
		{Kind: OpCall, Proc: 3},
		{Kind: OpStop},
		{Kind: OpStart, Proc: 3},
		{Kind: OpCall, Proc: 0},
		{Kind: OpStop},
	}
	e, _, _, _ := newTestEngine(code)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected stack overflow panic")
		}
	}()
	e.Boot()
}

func TestExecutingStartMarkerPanics(t *testing.T) {
	code := []Opcode{
		{Kind: OpStart, Proc: 0},
		{Kind: OpStop},
	}
	e, _, _, _ := newTestEngine(code)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic when control lands on a Start marker")
		}
	}()
	e.run(0) // points at the Start opcode itself, not past it
}

func TestSendStatusPacesAndCoversOutputsAndInputs(t *testing.T) {
	code := []Opcode{{Kind: OpStart, Proc: 0}, {Kind: OpStop}}
	e, _, _, bus := newTestEngine(code)
	var gaps []time.Duration
	e.sleep = func(d time.Duration) { gaps = append(gaps, d) }
	e.Boot()

	e.SendStatus()
	if len(bus.sent) != 2 {
		t.Fatalf("expected 2 StatusIO messages, got %d", len(bus.sent))
	}
	if len(gaps) != 2 || gaps[0] != statusGap || gaps[1] != statusGap {
		t.Fatalf("expected a %v gap after each of 2 sends, got %v", statusGap, gaps)
	}
	if bus.sent[0].State != wire.StateOn || bus.sent[1].State != wire.StateError {
		t.Fatalf("unexpected status states: %+v", bus.sent)
	}
}

func TestBindShutterIssuesSetIO(t *testing.T) {
	code := []Opcode{
		{Kind: OpStart, Proc: 0},
		{Kind: OpBindShutter, ShutterIdx: 2, A: 5, B: 6},
		{Kind: OpStop},
	}
	e, _, sh, _ := newTestEngine(code)
	e.Boot()

	if len(sh.sent) != 1 || sh.sent[0].Kind != shutter.CmdSetIO || sh.sent[0].Down != 5 || sh.sent[0].Up != 6 {
		t.Fatalf("unexpected shutter command: %+v", sh.sent)
	}
}
