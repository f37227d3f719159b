package shutter

import (
	"container/heap"
	"time"

	"github.com/jangala-dev/nodecore/x/mathx"
	"github.com/jangala-dev/nodecore/x/ramp"
	"github.com/jangala-dev/nodecore/x/timex"
)

// OutputSetter drives the two physical outputs a shutter moves through. The
// concrete resolution of an IoIdx to an expander bit or native pin lives in
// package outputs; Manager only depends on this narrow interface.
type OutputSetter interface {
	SetIdx(idx uint8, on bool) error
}

type cmdMsg struct {
	idx uint8
	cmd Cmd
}

// Manager is the single actor owning every shutter record, grounded on the
// teacher's Poller for its "wake on the sooner of a due-time or an inbox
// message" run loop.
type Manager struct {
	shutters [MaxShutters]Shutter
	lastMs   [MaxShutters]int64
	items    [MaxShutters]*dueItem
	h        dueHeap
	inbox    chan cmdMsg
	outputs  OutputSetter
	now      func() int64
}

// New builds a Manager with all MaxShutters records unconfigured and
// Sleeping.
func New(outputs OutputSetter) *Manager {
	m := &Manager{
		inbox:   make(chan cmdMsg, 8),
		outputs: outputs,
		now:     timex.NowMs,
	}
	for i := range m.shutters {
		m.shutters[i].Cfg.UpIdx = Unconfigured
		m.shutters[i].Cfg.DownIdx = Unconfigured
		it := &dueItem{idx: uint8(i), dueMs: m.now() + noopPeriodMs}
		m.items[i] = it
		heap.Push(&m.h, it)
	}
	return m
}

// Configure installs shutter idx's compiled-in motion profile: rise, drop,
// tilt and overtravel budgets in ms. Boot-time only, before Run starts, the
// way board wiring installs the rest of its compiled-in configuration; the
// output indices themselves arrive later via CmdSetIO.
func (m *Manager) Configure(idx uint8, riseMs, dropMs, tiltMs, overMs uint32) {
	if int(idx) >= len(m.shutters) {
		return
	}
	c := &m.shutters[idx].Cfg
	c.RiseTimeMs, c.DropTimeMs, c.TiltTimeMs, c.OverTimeMs = riseMs, dropMs, tiltMs, overMs
}

// Send enqueues cmd for shutter idx; blocks if the inbox is full, per
// spec.md §4.5's bounded-channel backpressure.
func (m *Manager) Send(idx uint8, cmd Cmd) {
	m.inbox <- cmdMsg{idx: idx, cmd: cmd}
}

// Shutter exposes a read-only snapshot of one shutter's record.
func (m *Manager) Shutter(idx uint8) Shutter {
	if int(idx) >= len(m.shutters) {
		return Shutter{}
	}
	return m.shutters[idx]
}

// Run processes commands and motion updates until stop is closed/signalled.
func (m *Manager) Run(stop <-chan struct{}) {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		wait := m.nextWait()
		if wait <= 0 {
			m.fireDue()
			continue
		}
		timer.Reset(time.Duration(wait) * time.Millisecond)
		select {
		case <-stop:
			return
		case msg := <-m.inbox:
			if !timer.Stop() {
				<-timer.C
			}
			m.handle(msg)
		case <-timer.C:
		}
	}
}

func (m *Manager) nextWait() int64 {
	top := m.h.Top()
	if top == nil {
		return noopPeriodMs
	}
	return top.dueMs - m.now()
}

func (m *Manager) fireDue() {
	top := heap.Pop(&m.h).(*dueItem)
	m.update(top.idx)
	top.dueMs = m.now() + m.nextDelay(top.idx)
	heap.Push(&m.h, top)
}

func (m *Manager) handle(msg cmdMsg) {
	if int(msg.idx) >= len(m.shutters) {
		return
	}
	// A command arriving mid-motion must not silently retarget the move in
	// flight: flush the elapsed motion against the *old* target first, force
	// both outputs inactive, and enter Cooldown, per spec.md §5's dispatch
	// sequence for a direction change. The new target is only picked up once
	// Cooldown hands back to Idle and replan runs.
	if s := &m.shutters[msg.idx]; s.Action.Kind == Up || s.Action.Kind == Down {
		m.interruptMotion(msg.idx)
	}
	_ = m.shutters[msg.idx].Apply(msg.cmd)
	m.replan(msg.idx)
	m.reschedule(msg.idx)
}

// interruptMotion advances shutter idx's position by the time elapsed since
// its last visit, then unconditionally stops both outputs and enters
// Cooldown, regardless of whether the target has been reached. Used when a
// new command arrives while the shutter is Up or Down so a direction
// reversal always passes through Cooldown instead of just retargeting the
// already-active relay.
func (m *Manager) interruptMotion(idx uint8) {
	now := m.now()
	elapsed := now - m.lastMs[idx]
	if elapsed < 0 {
		elapsed = 0
	}
	m.lastMs[idx] = now
	m.advanceMotion(idx, float32(elapsed), true)
}

func (m *Manager) reschedule(idx uint8) {
	it := m.items[idx]
	heap.Remove(&m.h, it.index)
	it.dueMs = m.now() + m.nextDelay(idx)
	heap.Push(&m.h, it)
}

// update advances shutter idx by the elapsed time since its last visit and
// runs its state machine one step, per spec.md §4.5.
func (m *Manager) update(idx uint8) {
	now := m.now()
	s := &m.shutters[idx]
	elapsed := now - m.lastMs[idx]
	if elapsed < 0 {
		elapsed = 0
	}
	m.lastMs[idx] = now

	switch s.Action.Kind {
	case Cooldown:
		if now-s.Action.T0Ms >= cooldownMs {
			s.Action = Action{Kind: Idle}
			m.replan(idx)
		}
	case Up, Down:
		overrun := now-s.Action.T0Ms >= s.maxTravelMs(s.Action.Kind == Down)
		m.advanceMotion(idx, float32(elapsed), overrun)
	case Idle:
		m.replan(idx)
	case Sleep:
		// inert until a command arrives
	}
}

// advanceMotion consumes elapsedMs of motion against the shutter's current
// target, tilt first then height residue. It stops both outputs and enters
// Cooldown either when the result lands within hysteresis of target, or
// unconditionally when force is set (a command interrupted the move before
// it reached target; see interruptMotion).
func (m *Manager) advanceMotion(idx uint8, elapsedMs float32, force bool) {
	s := &m.shutters[idx]
	down := s.Action.Kind == Down
	tRate := s.tiltRate()
	hRate := s.heightRate(down)

	used, residue := ramp.Consumed(s.Position.Tilt, s.Target.Tilt, tRate, elapsedMs)
	s.Position.Tilt = ramp.Advance(s.Position.Tilt, s.Target.Tilt, tRate, used, 0, 100)
	s.Position.Height = ramp.Advance(s.Position.Height, s.Target.Height, hRate, residue, 0, 100)

	atTarget := mathx.Abs(s.Target.Height-s.Position.Height) <= heightHysteresis &&
		mathx.Abs(s.Target.Tilt-s.Position.Tilt) <= tiltHysteresis
	if atTarget || force {
		_ = m.outputs.SetIdx(s.Cfg.UpIdx, false)
		_ = m.outputs.SetIdx(s.Cfg.DownIdx, false)
		s.Action = Action{Kind: Cooldown, T0Ms: m.now()}
	}
}

// replan resolves an Idle shutter immediately into Up, Down, or Sleep,
// per spec.md §4.5's Idle transition rule. It never touches a shutter that
// is mid-motion or cooling down.
func (m *Manager) replan(idx uint8) {
	s := &m.shutters[idx]
	if s.Action.Kind != Idle && s.Action.Kind != Sleep {
		return
	}
	if !s.configured() {
		s.Action = Action{Kind: Sleep}
		return
	}

	// A zero travel budget means no motion profile was ever installed:
	// position can't be estimated, so the request parks in Sleep rather
	// than energizing a relay the estimator could never decide to stop.
	heightDiff := s.Target.Height - s.Position.Height
	if mathx.Abs(heightDiff) > heightHysteresis && s.heightRate(heightDiff > 0) > 0 {
		m.startMotion(idx, heightDiff > 0)
		return
	}
	tiltDiff := s.Target.Tilt - s.Position.Tilt
	if mathx.Abs(tiltDiff) > tiltHysteresis && s.tiltRate() > 0 {
		m.startMotion(idx, tiltDiff > 0)
		return
	}
	s.Action = Action{Kind: Sleep}
}

// startMotion begins Up or Down motion (down=true moves the shutter closed).
// The opposite output is commanded inactive first; failure aborts the start
// and leaves the shutter Sleeping, per spec.md §4.5's direction-change
// safety rule.
func (m *Manager) startMotion(idx uint8, down bool) {
	s := &m.shutters[idx]
	now := m.now()
	oppositeIdx, activeIdx := s.Cfg.UpIdx, s.Cfg.DownIdx
	if !down {
		oppositeIdx, activeIdx = s.Cfg.DownIdx, s.Cfg.UpIdx
	}
	if err := m.outputs.SetIdx(oppositeIdx, false); err != nil {
		s.Action = Action{Kind: Sleep}
		return
	}
	if err := m.outputs.SetIdx(activeIdx, true); err != nil {
		s.Action = Action{Kind: Sleep}
		return
	}
	m.lastMs[idx] = now
	kind := Up
	if down {
		kind = Down
	}
	s.Action = Action{Kind: kind, T0Ms: now}
}

// nextDelay computes the due-time delay for idx's current action, per
// spec.md §4.5's scheduling rule: motion ticks are capped at
// UPDATE_PERIOD so telemetry refreshes at >= 1Hz; Sleep waits the full
// NOOP_UPDATE_PERIOD; Cooldown waits out its remaining budget.
func (m *Manager) nextDelay(idx uint8) int64 {
	s := &m.shutters[idx]
	switch s.Action.Kind {
	case Sleep:
		return noopPeriodMs
	case Cooldown:
		remain := cooldownMs - (m.now() - s.Action.T0Ms)
		if remain < 0 {
			remain = 0
		}
		return remain
	case Up, Down:
		down := s.Action.Kind == Down
		tRate := s.tiltRate()
		hRate := s.heightRate(down)
		remain := int64(remainingMs(s.Position.Tilt, s.Target.Tilt, tRate) +
			remainingMs(s.Position.Height, s.Target.Height, hRate))
		if remain <= 0 || remain > updatePeriodMs {
			remain = updatePeriodMs
		}
		return remain
	default:
		return 0
	}
}

func remainingMs(cur, target, rate float32) float32 {
	if rate <= 0 {
		return 0
	}
	dist := target - cur
	if dist < 0 {
		dist = -dist
	}
	return dist / rate
}
