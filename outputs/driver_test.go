package outputs

import "testing"

type fakeExpander struct {
	word uint16
	err  error
	n    int
}

func (f *fakeExpander) SetAll(word uint16) error {
	f.n++
	if f.err != nil {
		return f.err
	}
	f.word = word
	return nil
}

type fakeNative struct {
	level bool
	err   error
	n     int
}

func (f *fakeNative) Set(v bool) error {
	f.n++
	if f.err != nil {
		return f.err
	}
	f.level = v
	return nil
}

type errString string

func (e errString) Error() string { return string(e) }

const errWrite = errString("write fail")

func TestSetExpanderBit(t *testing.T) {
	exp := &fakeExpander{word: 0xFFFF}
	d := New(Config{Expanders: []Expander{exp}})

	target := Target{Kind: KindExpander, Expander: 0, Bit: 3}
	if err := d.Set(target, true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if exp.word&(1<<3) != 0 {
		t.Fatalf("bit 3 should be driven low, word=%#x", exp.word)
	}
	if !d.Get(target) {
		t.Fatalf("Get should report on after Set(true)")
	}
}

func TestSetInverted(t *testing.T) {
	exp := &fakeExpander{word: 0xFFFF}
	d := New(Config{Expanders: []Expander{exp}})

	target := Target{Kind: KindExpander, Expander: 0, Bit: 0, Inverted: true}
	if err := d.Set(target, true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// Inverted: logical-on drives the line high, i.e. bit left set.
	if exp.word&1 == 0 {
		t.Fatalf("inverted on should leave bit high, word=%#x", exp.word)
	}
	if !d.Get(target) {
		t.Fatalf("Get should still report logical on")
	}
}

func TestToggle(t *testing.T) {
	exp := &fakeExpander{word: 0xFFFF}
	d := New(Config{Expanders: []Expander{exp}})
	target := Target{Kind: KindExpander, Expander: 0, Bit: 1}

	next, err := d.Toggle(target)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if !next {
		t.Fatalf("first toggle from idle-high should turn on")
	}
	next, err = d.Toggle(target)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if next {
		t.Fatalf("second toggle should turn back off")
	}
}

func TestNativeOutput(t *testing.T) {
	nat := &fakeNative{}
	d := New(Config{Natives: []NativePin{nat}})
	target := Target{Kind: KindNative, Bit: 0}

	if err := d.Set(target, true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !nat.level {
		t.Fatalf("native pin should be driven high")
	}
	if !d.Get(target) {
		t.Fatalf("Get should round-trip the native pin's logical level")
	}
}

func TestNativeOutputRoundTripsInverted(t *testing.T) {
	nat := &fakeNative{}
	d := New(Config{Natives: []NativePin{nat}})
	target := Target{Kind: KindNative, Bit: 0, Inverted: true}

	if err := d.Set(target, true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// Inverted: logical-on drives the pin low.
	if nat.level {
		t.Fatalf("inverted native pin should be driven low, got high")
	}
	if !d.Get(target) {
		t.Fatalf("Get should still report logical on")
	}

	if err := d.Set(target, false); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if d.Get(target) {
		t.Fatalf("Get should report off after Set(false)")
	}
}

func TestSetErrorLeavesCacheUntouched(t *testing.T) {
	exp := &fakeExpander{word: 0xFFFF}
	d := New(Config{Expanders: []Expander{exp}})
	target := Target{Kind: KindExpander, Expander: 0, Bit: 2}

	if err := d.Set(target, true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	exp.err = errWrite
	if err := d.Set(target, false); err == nil {
		t.Fatalf("expected the write error to propagate")
	}
	if !d.Get(target) {
		t.Fatalf("failed write must leave the last known-good state cached")
	}
	if got := d.GetAll(0); got&(1<<2) != 0 {
		t.Fatalf("cached word should still drive bit 2 low, got %#x", got)
	}
}

func TestNativeSetErrorLeavesCacheUntouched(t *testing.T) {
	nat := &fakeNative{}
	d := New(Config{Natives: []NativePin{nat}})
	target := Target{Kind: KindNative, Bit: 0}

	if err := d.Set(target, true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	nat.err = errWrite
	if err := d.Set(target, false); err == nil {
		t.Fatalf("expected the write error to propagate")
	}
	if !d.Get(target) {
		t.Fatalf("failed native write must leave the last known-good state cached")
	}
}

func TestGetAllCachesIdleHigh(t *testing.T) {
	exp := &fakeExpander{word: 0xFFFF}
	d := New(Config{Expanders: []Expander{exp}})
	if got := d.GetAll(0); got != 0xFFFF {
		t.Fatalf("GetAll before any write: got %#x, want 0xffff", got)
	}
}
