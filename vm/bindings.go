package vm

import "github.com/jangala-dev/nodecore/trigger"

// MaxBindings bounds the binding table (spec.md §5: "the binding table is
// bounded, e.g. 30 entries").
const MaxBindings = 30

// Command is the closed set of single-step actions a binding may install
// directly (as opposed to calling a procedure).
type Command uint8

const (
	CmdActivateOutput Command = iota
	CmdDeactivateOutput
	CmdToggleOutput
	CmdActivateLayer
)

// ActionKind distinguishes a binding's installed Action variant.
type ActionKind uint8

const (
	ActionNoop ActionKind = iota
	ActionSingle
	ActionProc
)

// Action is the tagged union a binding maps to: Noop, Single(Command), or
// Proc(ProcIdx) (spec.md §4.6).
type Action struct {
	Kind    ActionKind
	Command Command
	Out     uint8 // CmdActivateOutput/DeactivateOutput/ToggleOutput
	Layer   uint8 // CmdActivateLayer
	Proc    uint8 // ActionProc
}

type bindingKey struct {
	input   uint8
	layer   uint8
	trigger trigger.Trigger
}

type bindingEntry struct {
	key    bindingKey
	action Action
	used   bool
}

// bindingTable is a small fixed array, linearly scanned: spec.md bounds it
// at 30 entries and neither insert nor lookup needs to be faster than O(30)
// on this hardware.
type bindingTable struct {
	entries [MaxBindings]bindingEntry
}

// Set installs or overwrites the binding at (input, layer, trig). Silently
// drops the install if the table is full and the key is new: a fixed
// capacity bound, not a runtime error.
func (t *bindingTable) Set(input, layer uint8, trig trigger.Trigger, action Action) {
	key := bindingKey{input: input, layer: layer, trigger: trig}
	free := -1
	for i := range t.entries {
		e := &t.entries[i]
		if !e.used {
			if free < 0 {
				free = i
			}
			continue
		}
		if e.key == key {
			e.action = action
			return
		}
	}
	if free < 0 {
		return
	}
	t.entries[free] = bindingEntry{key: key, action: action, used: true}
}

// Lookup performs an exact (input, layer, trig) match, no fallback to the
// default layer (spec.md §4.6).
func (t *bindingTable) Lookup(input, layer uint8, trig trigger.Trigger) (Action, bool) {
	key := bindingKey{input: input, layer: layer, trigger: trig}
	for i := range t.entries {
		e := &t.entries[i]
		if e.used && e.key == key {
			return e.action, true
		}
	}
	return Action{}, false
}

// Clear empties the table (BindClearAll).
func (t *bindingTable) Clear() {
	for i := range t.entries {
		t.entries[i] = bindingEntry{}
	}
}
