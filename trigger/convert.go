// Package trigger translates raw, debounced switch edges into the semantic
// button triggers the binding engine matches on.
package trigger

import "github.com/jangala-dev/nodecore/scan"

// Trigger is the semantic edge kind the binding table is keyed on.
type Trigger uint8

const (
	ShortClick Trigger = iota
	LongClick
	Activated
	Deactivated
	LongActivated
	LongDeactivated
)

func (t Trigger) String() string {
	switch t {
	case ShortClick:
		return "short_click"
	case LongClick:
		return "long_click"
	case Activated:
		return "activated"
	case Deactivated:
		return "deactivated"
	case LongActivated:
		return "long_activated"
	case LongDeactivated:
		return "long_deactivated"
	default:
		return "unknown"
	}
}

// MaxShortMS is the short/long boundary for both the held-active path and
// the deactivate path (spec's MAX_SHORT).
const MaxShortMS = 400

// Triggers is a fixed-capacity, no-alloc output buffer: at most three
// triggers are ever produced by one switch edge (LongClick, LongDeactivated,
// Deactivated, for a long release).
type Triggers struct {
	vals [3]Trigger
	n    int
}

func (t *Triggers) add(v Trigger) { t.vals[t.n] = v; t.n++ }

// Len reports how many triggers were produced.
func (t *Triggers) Len() int { return t.n }

// At returns the i'th trigger in emission order.
func (t *Triggers) At(i int) Trigger { return t.vals[i] }

// Convert maps one scan.SwitchEvent to its semantic triggers, in emission
// order, per spec.md's table:
//
//	Activated             -> Activated
//	Active(ms>=400)       -> LongActivated (first occurrence per press only)
//	Deactivated(ms<=400)  -> ShortClick, Deactivated
//	Deactivated(ms>400)   -> LongClick, LongDeactivated, Deactivated
//
// longSent is the per-line "a LongActivated has already been emitted for the
// current press" bit; Convert returns the updated value, which the caller
// must persist back onto the input line (scan.Line.LongSent) so the next
// poll of the same held press does not re-emit LongActivated. This
// implements the spec's recommended resolution of its LongActivated
// de-duplication open question: debounce to the first occurrence per press.
func Convert(ev scan.SwitchEvent, longSent bool) (out Triggers, longSentOut bool) {
	longSentOut = longSent
	switch ev.State {
	case scan.Activated:
		longSentOut = false
		out.add(Activated)

	case scan.Active:
		if ev.MS >= MaxShortMS && !longSent {
			longSentOut = true
			out.add(LongActivated)
		}

	case scan.Deactivated:
		longSentOut = false
		if ev.MS <= MaxShortMS {
			out.add(ShortClick)
		} else {
			out.add(LongClick)
			out.add(LongDeactivated)
		}
		out.add(Deactivated)
	}
	return
}
