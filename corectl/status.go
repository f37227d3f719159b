package corectl

import (
	"github.com/jangala-dev/nodecore/outputs"
	"github.com/jangala-dev/nodecore/scan"
	"github.com/jangala-dev/nodecore/vm"
	"github.com/jangala-dev/nodecore/wire"
)

// InputResolution names one logical input's physical scan line, the input
// side of outputs.Resolution, used to build status fan-out snapshots and
// the LineID->input index lookup the core loop needs when turning a scanned
// switch event into a button event.
type InputResolution struct {
	Idx  uint8
	Line scan.LineID
}

// Provider aggregates the output driver and the input scanner into the
// vm.StatusProvider the VM's SendStatus/RemoteStatusRequest path needs
// (spec.md §4.6): one StatusIO per declared output and per declared input,
// offline-expander inputs reported as StateError.
type Provider struct {
	outputs *outputs.Table
	scanner *scan.Scanner
	inputs  []InputResolution
}

// NewProvider builds a Provider over the node's wired output table, input
// scanner, and declared input resolution list.
func NewProvider(out *outputs.Table, sc *scan.Scanner, inputs []InputResolution) *Provider {
	return &Provider{outputs: out, scanner: sc, inputs: inputs}
}

// OutputStates implements vm.StatusProvider.
func (p *Provider) OutputStates() []vm.StatusEntry {
	entries := p.outputs.GetAll()
	out := make([]vm.StatusEntry, len(entries))
	for i, e := range entries {
		state := wire.StateOff
		if e.State {
			state = wire.StateOn
		}
		out[i] = vm.StatusEntry{IO: e.Idx, State: state}
	}
	return out
}

// InputStates implements vm.StatusProvider.
func (p *Provider) InputStates() []vm.StatusEntry {
	out := make([]vm.StatusEntry, len(p.inputs))
	for i, r := range p.inputs {
		if r.Line.Source != scan.SourceNative && p.scanner.Unavailable(int(r.Line.Source)) {
			out[i] = vm.StatusEntry{IO: r.Idx, State: wire.StateError}
			continue
		}
		active := false
		if l := p.scanner.LineFor(r.Line); l != nil {
			active = l.Active()
		}
		state := wire.StateOff
		if active {
			state = wire.StateOn
		}
		out[i] = vm.StatusEntry{IO: r.Idx, State: state}
	}
	return out
}

// Level is the status indicator's coarse state, per spec.md §7: "the status
// indicator reflects {Init, Idle, Active, Warning, Attention}".
type Level uint8

const (
	LevelInit Level = iota
	LevelIdle
	LevelActive
	LevelWarning
	LevelAttention
)

func (l Level) String() string {
	switch l {
	case LevelInit:
		return "init"
	case LevelIdle:
		return "idle"
	case LevelActive:
		return "active"
	case LevelWarning:
		return "warning"
	case LevelAttention:
		return "attention"
	default:
		return "unknown"
	}
}

// Counters snapshots every error counter the status level is computed from
// (spec.md §7: "all transient errors are counted; counters are readable via
// Status request").
type Counters struct {
	ScanDrops      uint32
	ScanErrors     uint32 // informational; Core.Counters leaves it zero and Total ignores it
	BusCanDrop     uint32
	BusRXErrors    uint32
	BusUnknownType uint32
	VMOutputErrors uint32
}

// Total sums every counter except ScanErrors, used to detect "any counter is non-zero" and
// "a counter just incremented".
func (c Counters) Total() uint64 {
	return uint64(c.ScanDrops) + uint64(c.BusCanDrop) + uint64(c.BusRXErrors) +
		uint64(c.BusUnknownType) + uint64(c.VMOutputErrors)
}

// StatusTracker turns successive Counters snapshots into a Level. spec.md
// §7 leaves the exact Warning/Attention decay window unspecified ("Warning
// triggered by any recent error counter increment"); this implementation
// treats "recent" as "since the previous status evaluation", the most
// direct reading of the phrase.
type StatusTracker struct {
	prevTotal uint64
	started   bool
}

// Evaluate computes the level for this tick: busy is the caller's
// Active-vs-Idle signal (Core passes whether its event channel holds
// unconsumed events), since Active vs Idle is otherwise indistinguishable
// from counters alone.
func (t *StatusTracker) Evaluate(c Counters, busy bool) Level {
	total := c.Total()
	increased := t.started && total > t.prevTotal
	t.prevTotal = total
	t.started = true

	switch {
	case increased:
		return LevelWarning
	case total > 0 && !busy:
		return LevelAttention
	case busy:
		return LevelActive
	default:
		return LevelIdle
	}
}
