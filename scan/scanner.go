// Package scan polls port expanders and native pins on a fixed cadence and
// turns active-low level samples into debounced switch events. It is
// grounded on the teacher's gpioirq.Worker (ISR-fed edge detection with a
// non-blocking output queue) and gpio_button.Device (debounce + level
// inversion), adapted from interrupt-driven edges to a polled, per-line
// hold-counter state machine, per spec.md §4.1.
package scan

import (
	"time"

	"github.com/jangala-dev/nodecore/x/fmtx"
)

// TPoll is the fixed scan cadence.
const TPoll = 30 * time.Millisecond

// Min is the number of consecutive active polls before a line is considered
// debounced-active (60ms at TPoll=30ms).
const Min = 2

// MaxConsecutiveErrors is the persistent-failure threshold for a required
// expander (spec.md §4.1, §7).
const MaxConsecutiveErrors = 60

// State is the switch-event kind emitted per line per poll.
type State uint8

const (
	Activated State = iota
	Active
	Deactivated
)

// SwitchEvent is one line's observation for one poll tick.
type SwitchEvent struct {
	ID    LineID
	State State
	MS    uint32 // ms held, for Active/Deactivated
}

// LineID names an input line within a Scanner: (source, bit).
type LineID struct {
	Source uint8 // expander index, or SourceNative
	Bit    uint8 // bit within the 16-bit expander word, or index into Config.NativePins
}

// SourceNative marks a LineID as a native GPIO pin rather than an expander bit.
const SourceNative = 0xFF

// Expander is a 16-bit I²C-attached input/output chip treated as a single
// atomic read/write. Concrete bodies live in package platform; scan only
// depends on this interface (spec.md §9: dynamic dispatch avoided for
// closed sets, but the concrete chip driver genuinely is an external
// collaborator specified only at its interface per spec.md §1).
type Expander interface {
	// ReadAll reads all 16 bits atomically; bit=0 means the line is
	// electrically active (active-low).
	ReadAll() (uint16, error)
	// Release writes 0xFFFF once, releasing open-drain lines at startup.
	Release() error
}

// NativePin is a single native GPIO read, active-low.
type NativePin interface {
	Read() (bool, error) // true == electrically low == active
}

// Config is a Scanner's board wiring. ExpanderReq marks whether an
// expander's unreachability is fatal (true) or merely degrades it to
// "unavailable" (false, e.g. a sensor expander).
type Config struct {
	Expanders     []Expander
	ExpanderReq   []bool // parallel to Expanders; true = required
	NativePins    []NativePin
	OutQueueLen   int // default 64
	ErrorExpander uint8
}

// Line is the per-line debounce state, whether backed by an expander bit or
// a native pin (spec.md §4.1's hold counter).
type Line struct {
	id       LineID
	counter  uint32
	longSent bool // see trigger.Convert; carried so trigger stays pure
}

// LongSent reports, and SetLongSent stores, the per-press "LongActivated
// already emitted" bit, threaded through trigger.Convert.
func (l *Line) LongSent() bool     { return l.longSent }
func (l *Line) SetLongSent(v bool) { l.longSent = v }

// Active reports the line's current debounced level, for status fan-out
// (spec.md §4.6: "StatusIO{io, state}" per input).
func (l *Line) Active() bool { return l.counter >= Min }

// Scanner polls every configured expander and native pin every TPoll and
// emits SwitchEvents on a bounded, non-blocking output channel, mirroring
// gpioirq.Worker's "never block the producer" discipline, here driven by a
// ticker instead of an ISR.
type Scanner struct {
	cfg   Config
	out   chan SwitchEvent
	lines map[LineID]*Line

	expErrs []uint32 // consecutive I2C error count, parallel to cfg.Expanders
	unavail []bool   // optional expander marked unavailable

	drops uint32
}

// New builds a Scanner over the given board configuration. Every expander
// bit and every native pin gets one Line.
func New(cfg Config) *Scanner {
	if cfg.OutQueueLen <= 0 {
		cfg.OutQueueLen = 64
	}
	s := &Scanner{
		cfg:     cfg,
		out:     make(chan SwitchEvent, cfg.OutQueueLen),
		lines:   make(map[LineID]*Line),
		expErrs: make([]uint32, len(cfg.Expanders)),
		unavail: make([]bool, len(cfg.Expanders)),
	}
	for xi := range cfg.Expanders {
		for bit := 0; bit < 16; bit++ {
			id := LineID{Source: uint8(xi), Bit: uint8(bit)}
			s.lines[id] = &Line{id: id}
		}
	}
	for pin := range cfg.NativePins {
		id := LineID{Source: SourceNative, Bit: uint8(pin)}
		s.lines[id] = &Line{id: id}
	}
	return s
}

// Events returns the channel of debounced switch events.
func (s *Scanner) Events() <-chan SwitchEvent { return s.out }

// Drops reports the running count of events dropped because Events() was
// not drained in time.
func (s *Scanner) Drops() uint32 { return s.drops }

// Unavailable reports whether the given expander index is currently marked
// unavailable (an optional expander that exceeded MaxConsecutiveErrors).
func (s *Scanner) Unavailable(expander int) bool {
	if expander < 0 || expander >= len(s.unavail) {
		return false
	}
	return s.unavail[expander]
}

// Run releases every expander's open-drain lines once, then polls forever
// at TPoll until ctx-like cancellation is requested via stop.
func (s *Scanner) Run(stop <-chan struct{}) {
	for i, x := range s.cfg.Expanders {
		if err := x.Release(); err != nil {
			s.onExpanderErr(i, err)
		}
	}

	t := time.NewTicker(TPoll)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			s.pollOnce()
		}
	}
}

func (s *Scanner) pollOnce() {
	for xi, x := range s.cfg.Expanders {
		if s.unavail[xi] {
			continue
		}
		word, err := x.ReadAll()
		if err != nil {
			s.onExpanderErr(xi, err)
			continue
		}
		s.expErrs[xi] = 0
		for bit := 0; bit < 16; bit++ {
			active := word&(1<<uint(bit)) == 0 // active-low
			s.step(LineID{Source: uint8(xi), Bit: uint8(bit)}, active)
		}
	}
	for pi, p := range s.cfg.NativePins {
		active, err := p.Read()
		if err != nil {
			continue
		}
		s.step(LineID{Source: SourceNative, Bit: uint8(pi)}, active)
	}
}

func (s *Scanner) onExpanderErr(idx int, err error) {
	s.expErrs[idx]++
	if s.expErrs[idx] <= MaxConsecutiveErrors {
		return
	}
	required := idx < len(s.cfg.ExpanderReq) && s.cfg.ExpanderReq[idx]
	if required {
		panic(fmtx.Sprintf("scan: required expander %d unreachable after %d consecutive errors: %v", idx, s.expErrs[idx], err))
	}
	s.unavail[idx] = true
}

// step advances one line's hold counter by one poll and emits the
// corresponding SwitchEvent(s), per spec.md §4.1.
func (s *Scanner) step(id LineID, active bool) {
	l := s.lines[id]
	if l == nil {
		return
	}
	if active {
		prev := l.counter
		if l.counter < ^uint32(0) {
			l.counter++
		}
		switch {
		case prev < Min && l.counter == Min:
			s.emit(SwitchEvent{ID: id, State: Activated})
		case l.counter > Min:
			s.emit(SwitchEvent{ID: id, State: Active, MS: l.counter * uint32(TPoll/time.Millisecond)})
		}
		return
	}
	if l.counter >= Min {
		s.emit(SwitchEvent{ID: id, State: Deactivated, MS: l.counter * uint32(TPoll/time.Millisecond)})
	}
	l.counter = 0
}

func (s *Scanner) emit(ev SwitchEvent) {
	select {
	case s.out <- ev:
	default:
		s.drops++
	}
}

// LineFor exposes a line's debounce state for the trigger converter to carry
// its longSent bit across polls without trigger importing scan's internals
// beyond this accessor.
func (s *Scanner) LineFor(id LineID) *Line { return s.lines[id] }

// ExpanderCount reports how many expanders this Scanner was configured with.
func (s *Scanner) ExpanderCount() int { return len(s.cfg.Expanders) }

// NativeCount reports how many native input pins this Scanner was
// configured with.
func (s *Scanner) NativeCount() int { return len(s.cfg.NativePins) }
