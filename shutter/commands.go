package shutter

import (
	"github.com/jangala-dev/nodecore/errcode"
	"github.com/jangala-dev/nodecore/x/mathx"
)

// CmdKind is the closed set of shutter commands (spec.md §4.5's command
// list), a tagged struct rather than an interface per spec.md §9.
type CmdKind uint8

const (
	CmdGo CmdKind = iota
	CmdOpen
	CmdClose
	CmdTilt
	CmdTiltOpen
	CmdTiltClose
	CmdTiltHalf
	CmdTiltReverse
	CmdSetIO
)

// Cmd carries a command and its payload fields; only the fields relevant to
// Kind are meaningful.
type Cmd struct {
	Kind         CmdKind
	Height, Tilt float32 // CmdGo, CmdTilt (Tilt only)
	Down, Up     uint8   // CmdSetIO
}

// Apply resolves cmd against s, updating Target and, for SetIO, Cfg.
// SetIO is refused outside Sleep (errcode.NotSleeping), leaving s unchanged.
func (s *Shutter) Apply(cmd Cmd) error {
	if cmd.Kind != CmdSetIO && !s.configured() {
		return nil // ignore movement requests on an unconfigured shutter
	}
	switch cmd.Kind {
	case CmdSetIO:
		if s.Action.Kind != Sleep {
			return errcode.NotSleeping
		}
		s.Cfg.UpIdx, s.Cfg.DownIdx = cmd.Up, cmd.Down
		return nil

	case CmdGo:
		s.Target = clampPos(Position{Height: cmd.Height, Tilt: cmd.Tilt})

	case CmdOpen:
		s.homeIfFirstUse(100)
		s.Target = Position{Height: 0, Tilt: 0}

	case CmdClose:
		s.homeIfFirstUse(0)
		s.Target = Position{Height: 100, Tilt: 100}

	case CmdTilt:
		s.Target.Tilt = mathx.Clamp(cmd.Tilt, 0, 100)

	case CmdTiltOpen:
		s.Target.Tilt = 0

	case CmdTiltClose:
		s.Target.Tilt = 100

	case CmdTiltHalf:
		s.Target.Tilt = 50

	case CmdTiltReverse:
		if s.Position.Tilt >= 50 {
			s.Target.Tilt = 0
		} else {
			s.Target.Tilt = 100
		}
	}
	return nil
}

// homeIfFirstUse applies the one-shot coarse homing on the first Open/Close
// after boot: assume the opposite limit (assumed, for height and tilt) before
// computing motion. Subsequent commands leave InSync untouched.
func (s *Shutter) homeIfFirstUse(assumed float32) {
	if s.InSync {
		return
	}
	s.InSync = true
	s.Position = Position{Height: assumed, Tilt: assumed}
}
