package outputs

import "sort"

// Resolution is the compile-time mapping from a logical output index
// (spec.md's OutIdx) to its physical Target, per spec.md §4.3: "A static
// table maps IoIdx to either Expander(...) or Native(...)".
type Resolution struct {
	Idx    uint8
	Target Target
}

// Entry is one line of GetAll's snapshot, per spec.md §4.3/§8: an ordered
// (idx, cached_state) pair.
type Entry struct {
	Idx   uint8
	State bool
}

// Table resolves logical output indices against a Driver, giving the
// IoIdx-addressed Set/Toggle/Get/GetAll surface spec.md §4.3 names. This is
// the "static table" the spec calls for; Driver itself stays Target-keyed so
// the shutter manager's two raw output indices (up/down) and the VM's
// logical output commands share the one physical resolution without either
// package depending on the other's index space.
type Table struct {
	drv  *Driver
	res  []Resolution // declared order, indexed by position, not by Idx
	byID map[uint8]Target
}

// NewTable builds a Table over drv using the declared resolutions. Declared
// order is preserved for GetAll, per spec.md §8: "GetAll() is a permutation
// of the declared index list".
func NewTable(drv *Driver, resolutions []Resolution) *Table {
	t := &Table{drv: drv, res: resolutions, byID: make(map[uint8]Target, len(resolutions))}
	for _, r := range resolutions {
		t.byID[r.Idx] = r.Target
	}
	return t
}

// Set drives logical output idx to level on.
func (t *Table) Set(idx uint8, on bool) error {
	target, ok := t.byID[idx]
	if !ok {
		return nil
	}
	return t.drv.Set(target, on)
}

// SetIdx is the narrow interface the shutter manager drives its two outputs
// through (shutter.OutputSetter).
func (t *Table) SetIdx(idx uint8, on bool) error { return t.Set(idx, on) }

// Toggle flips logical output idx and returns its new level.
func (t *Table) Toggle(idx uint8) (bool, error) {
	target, ok := t.byID[idx]
	if !ok {
		return false, nil
	}
	return t.drv.Toggle(target)
}

// Get returns logical output idx's cached level, and whether idx is
// declared at all (spec.md §4.3: "get(idx) -> Option<bool>").
func (t *Table) Get(idx uint8) (bool, bool) {
	target, ok := t.byID[idx]
	if !ok {
		return false, false
	}
	return t.drv.Get(target), true
}

// GetAll returns every declared output's cached state, in declared order.
func (t *Table) GetAll() []Entry {
	out := make([]Entry, len(t.res))
	for i, r := range t.res {
		out[i] = Entry{Idx: r.Idx, State: t.drv.Get(r.Target)}
	}
	return out
}

// SortedIdx returns the declared indices in ascending order, useful for
// status fan-out pacing that wants a stable, predictable sequence rather
// than declaration order.
func (t *Table) SortedIdx() []uint8 {
	out := make([]uint8, len(t.res))
	for i, r := range t.res {
		out[i] = r.Idx
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
