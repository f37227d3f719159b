package shutter

import "testing"

type fakeOutputs struct {
	state map[uint8]bool
	fail  map[uint8]bool
}

func newFakeOutputs() *fakeOutputs {
	return &fakeOutputs{state: map[uint8]bool{}, fail: map[uint8]bool{}}
}

func (f *fakeOutputs) SetIdx(idx uint8, on bool) error {
	if f.fail[idx] {
		return errTest
	}
	f.state[idx] = on
	return nil
}

type errString string

func (e errString) Error() string { return string(e) }

const errTest = errString("output fail")

func newTestManager() (*Manager, *fakeOutputs) {
	out := newFakeOutputs()
	m := New(out)
	m.shutters[0].Cfg = Config{UpIdx: 0, DownIdx: 1, RiseTimeMs: 10000, DropTimeMs: 10000, TiltTimeMs: 2000}
	var clock int64 = 1000
	m.now = func() int64 { return clock }
	return m, out
}

func TestSetIORefusedOutsideSleep(t *testing.T) {
	s := &Shutter{Action: Action{Kind: Up}}
	err := s.Apply(Cmd{Kind: CmdSetIO, Down: 1, Up: 0})
	if err == nil {
		t.Fatalf("expected refusal outside Sleep")
	}
}

func TestSetIOAllowedWhileSleeping(t *testing.T) {
	s := &Shutter{Action: Action{Kind: Sleep}, Cfg: Config{UpIdx: Unconfigured, DownIdx: Unconfigured}}
	if err := s.Apply(Cmd{Kind: CmdSetIO, Down: 2, Up: 3}); err != nil {
		t.Fatalf("Apply SetIO: %v", err)
	}
	if s.Cfg.DownIdx != 2 || s.Cfg.UpIdx != 3 {
		t.Fatalf("SetIO did not install indices: %+v", s.Cfg)
	}
}

func TestOpenHomesOnFirstUse(t *testing.T) {
	s := &Shutter{Action: Action{Kind: Sleep}}
	s.Apply(Cmd{Kind: CmdOpen})
	if !s.InSync {
		t.Fatalf("expected InSync after first Open")
	}
	if s.Position.Height != 100 {
		t.Fatalf("expected homed position at closed limit, got %+v", s.Position)
	}

	s.Position.Height = 42 // simulate motion since
	s.Apply(Cmd{Kind: CmdOpen})
	if s.Position.Height != 42 {
		t.Fatalf("second Open should not re-home: got %v", s.Position.Height)
	}
}

func TestTiltReverseFlipsAtMidpoint(t *testing.T) {
	s := &Shutter{Position: Position{Tilt: 60}}
	s.Apply(Cmd{Kind: CmdTiltReverse})
	if s.Target.Tilt != 0 {
		t.Fatalf("tilt>=50 should reverse to open: got %v", s.Target.Tilt)
	}

	s2 := &Shutter{Position: Position{Tilt: 40}}
	s2.Apply(Cmd{Kind: CmdTiltReverse})
	if s2.Target.Tilt != 100 {
		t.Fatalf("tilt<50 should reverse to close: got %v", s2.Target.Tilt)
	}
}

func TestGoCommandStartsMotionAndReachesTarget(t *testing.T) {
	m, out := newTestManager()
	m.handle(cmdMsg{idx: 0, cmd: Cmd{Kind: CmdGo, Height: 100, Tilt: 100}})

	if m.shutters[0].Action.Kind != Down {
		t.Fatalf("expected Down motion, got %v", m.shutters[0].Action.Kind)
	}
	if !out.state[1] {
		t.Fatalf("expected down output driven on")
	}
	if out.state[0] {
		t.Fatalf("expected up output held off")
	}

	// Advance the clock past both tilt and height completion.
	m.now = func() int64 { return 1000 + 20000 }
	m.update(0)

	if m.shutters[0].Action.Kind != Cooldown {
		t.Fatalf("expected Cooldown after reaching target, got %v", m.shutters[0].Action.Kind)
	}
	if out.state[1] {
		t.Fatalf("expected down output turned off at target")
	}
}

func TestDirectionChangeAbortsOnOutputFailure(t *testing.T) {
	m, out := newTestManager()
	out.fail[0] = true // opposite (up) output fails to de-energize

	m.handle(cmdMsg{idx: 0, cmd: Cmd{Kind: CmdGo, Height: 100, Tilt: 100}})

	if m.shutters[0].Action.Kind != Sleep {
		t.Fatalf("expected motion start to abort, got %v", m.shutters[0].Action.Kind)
	}
}

func TestDirectionReversalMidMotionEntersCooldown(t *testing.T) {
	m, out := newTestManager()
	m.handle(cmdMsg{idx: 0, cmd: Cmd{Kind: CmdClose}})
	if m.shutters[0].Action.Kind != Down {
		t.Fatalf("expected Down motion after Close, got %v", m.shutters[0].Action.Kind)
	}

	// 3s later (past tilt completion, partway into height travel), a
	// reversal arrives mid-flight (spec.md §8 scenario 4).
	m.now = func() int64 { return 1000 + 3000 }
	m.handle(cmdMsg{idx: 0, cmd: Cmd{Kind: CmdOpen}})

	if m.shutters[0].Action.Kind != Cooldown {
		t.Fatalf("expected reversal to force Cooldown, got %v", m.shutters[0].Action.Kind)
	}
	if out.state[0] || out.state[1] {
		t.Fatalf("expected both outputs inactive during cooldown, got up=%v down=%v", out.state[0], out.state[1])
	}
	if m.shutters[0].Position.Height <= 0 || m.shutters[0].Position.Height >= 100 {
		t.Fatalf("expected partial motion recorded before the reversal, got height=%v", m.shutters[0].Position.Height)
	}

	// Cooldown must hold for the full window before the new (Open) target
	// is picked up.
	m.now = func() int64 { return 1000 + 3000 + cooldownMs - 1 }
	m.update(0)
	if m.shutters[0].Action.Kind != Cooldown {
		t.Fatalf("expected still in Cooldown before 500ms elapses, got %v", m.shutters[0].Action.Kind)
	}

	m.now = func() int64 { return 1000 + 3000 + cooldownMs + 1 }
	m.update(0)
	if m.shutters[0].Action.Kind != Up {
		t.Fatalf("expected Up motion toward the new Open target once Cooldown clears, got %v", m.shutters[0].Action.Kind)
	}
	if !out.state[0] || out.state[1] {
		t.Fatalf("expected up output driven and down output off, got up=%v down=%v", out.state[0], out.state[1])
	}
}

func TestOvertravelForcesStop(t *testing.T) {
	m, out := newTestManager()
	// A profile whose estimate never converges: the position advances, but
	// the target stays out of reach because the drop budget is understated
	// relative to the real motor. Overtravel is the only thing that stops it.
	m.shutters[0].Cfg.OverTimeMs = 1000
	m.handle(cmdMsg{idx: 0, cmd: Cmd{Kind: CmdGo, Height: 100, Tilt: 100}})
	m.shutters[0].Target.Height = 200 // unreachable after clamping kicks in

	budget := m.shutters[0].maxTravelMs(true)
	m.now = func() int64 { return 1000 + budget + 1 }
	m.update(0)

	if m.shutters[0].Action.Kind != Cooldown {
		t.Fatalf("expected overtravel to force Cooldown, got %v", m.shutters[0].Action.Kind)
	}
	if out.state[0] || out.state[1] {
		t.Fatalf("expected both outputs off after forced stop")
	}
}

func TestReplanParksWithoutMotionProfile(t *testing.T) {
	out := newFakeOutputs()
	m := New(out)
	m.now = func() int64 { return 1000 }
	m.shutters[0].Cfg = Config{UpIdx: 0, DownIdx: 1} // outputs installed, no timing

	m.handle(cmdMsg{idx: 0, cmd: Cmd{Kind: CmdClose}})

	if m.shutters[0].Action.Kind != Sleep {
		t.Fatalf("expected a profile-less shutter to park in Sleep, got %v", m.shutters[0].Action.Kind)
	}
	if out.state[0] || out.state[1] {
		t.Fatalf("expected no output ever driven without a motion profile")
	}
}

func TestConfigureInstallsProfile(t *testing.T) {
	m := New(newFakeOutputs())
	m.Configure(3, 20000, 19000, 1500, 2500)
	got := m.Shutter(3).Cfg
	if got.RiseTimeMs != 20000 || got.DropTimeMs != 19000 || got.TiltTimeMs != 1500 || got.OverTimeMs != 2500 {
		t.Fatalf("profile not installed: %+v", got)
	}
	if got.UpIdx != Unconfigured || got.DownIdx != Unconfigured {
		t.Fatalf("Configure must not touch the SetIO-installed output indices: %+v", got)
	}
}

func TestCooldownExpiresIntoIdleThenReplans(t *testing.T) {
	m, _ := newTestManager()
	m.shutters[0].Action = Action{Kind: Cooldown, T0Ms: 0}
	m.shutters[0].Target = Position{Height: 0, Tilt: 0}
	m.shutters[0].Position = Position{Height: 0, Tilt: 0}
	m.now = func() int64 { return cooldownMs + 1 }

	m.update(0)

	if m.shutters[0].Action.Kind != Sleep {
		t.Fatalf("expected settle into Sleep once target already met, got %v", m.shutters[0].Action.Kind)
	}
}
