// Package shutter is the central roller-blind/shutter state machine: one
// actor owns every shutter's configuration, estimated position, and motion
// state, driving two physical outputs per shutter and re-planning on a
// due-time heap. Grounded on the teacher's internal/core.Poller
// (services/hal/internal/core/poller.go) for the "wake on the sooner of a
// heap due-time or an inbox message" scheduling shape, adapted from
// capability-keyed polling to per-shutter motion scheduling.
package shutter

import "github.com/jangala-dev/nodecore/x/mathx"

// MaxShutters bounds the number of shutter records a Manager holds.
const MaxShutters = 8

// Unconfigured marks a shutter's up/down output index as not yet installed.
const Unconfigured uint8 = 0xFF

const (
	heightHysteresis = 5
	tiltHysteresis   = 15
	cooldownMs       = 500
	updatePeriodMs   = 1000
	noopPeriodMs     = 10000
)

// Config is one shutter's compiled-in motion profile.
type Config struct {
	UpIdx, DownIdx         uint8 // physical output indices; Unconfigured until SetIO
	RiseTimeMs, DropTimeMs uint32
	TiltTimeMs, OverTimeMs uint32
}

// Position is a shutter's estimated height/tilt, each in [0,100].
type Position struct {
	Height float32
	Tilt   float32
}

func clampPos(p Position) Position {
	return Position{
		Height: mathx.Clamp(p.Height, 0, 100),
		Tilt:   mathx.Clamp(p.Tilt, 0, 100),
	}
}

// ActionKind is the shutter's current motion state.
type ActionKind uint8

const (
	Sleep ActionKind = iota
	Idle
	Up
	Down
	Cooldown
)

// Action pairs the motion state with the monotonic millisecond timestamp it
// started (t0 in spec.md §4.5).
type Action struct {
	Kind ActionKind
	T0Ms int64
}

// Shutter is one control block: configuration, estimated position, target,
// current action, and the one-shot in-sync homing flag.
type Shutter struct {
	Cfg      Config
	Position Position
	Target   Position
	Action   Action
	InSync   bool
}

func (s *Shutter) configured() bool {
	return s.Cfg.UpIdx != Unconfigured && s.Cfg.DownIdx != Unconfigured
}

// heightRate and tiltRate return height %/ms and tilt %/ms derived from the configured
// motion durations, directionally: going down uses DropTimeMs/TiltTimeMs,
// going up uses RiseTimeMs/TiltTimeMs (tilt is symmetric).
func (s *Shutter) heightRate(down bool) float32 {
	ms := s.Cfg.RiseTimeMs
	if down {
		ms = s.Cfg.DropTimeMs
	}
	if ms == 0 {
		return 0
	}
	return 100.0 / float32(ms)
}

func (s *Shutter) tiltRate() float32 {
	if s.Cfg.TiltTimeMs == 0 {
		return 0
	}
	return 100.0 / float32(s.Cfg.TiltTimeMs)
}

// maxTravelMs bounds one continuous movement: the full tilt and travel
// budgets plus the overtravel margin. A move that runs past this is forced
// to stop regardless of the estimated position, so a relay is never left
// energized indefinitely.
func (s *Shutter) maxTravelMs(down bool) int64 {
	h := s.Cfg.RiseTimeMs
	if down {
		h = s.Cfg.DropTimeMs
	}
	return int64(s.Cfg.TiltTimeMs) + int64(h) + int64(s.Cfg.OverTimeMs)
}
