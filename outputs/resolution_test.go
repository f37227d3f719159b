package outputs

import "testing"

func TestTableSetGetRoundTrip(t *testing.T) {
	exp := &fakeExpander{word: 0xFFFF}
	drv := New(Config{Expanders: []Expander{exp}})
	tbl := NewTable(drv, []Resolution{
		{Idx: 5, Target: Target{Kind: KindExpander, Expander: 0, Bit: 3}},
	})

	if err := tbl.Set(5, true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok := tbl.Get(5)
	if !ok || !got {
		t.Fatalf("Get(5) = %v,%v want true,true", got, ok)
	}
}

func TestTableToggleUnknownIdxIsNoop(t *testing.T) {
	drv := New(Config{})
	tbl := NewTable(drv, nil)
	on, err := tbl.Toggle(9)
	if err != nil || on {
		t.Fatalf("Toggle of undeclared idx should be a silent no-op, got %v,%v", on, err)
	}
}

func TestTableGetAllIsPermutationOfDeclaredOrder(t *testing.T) {
	exp := &fakeExpander{word: 0xFFFF}
	drv := New(Config{Expanders: []Expander{exp}})
	tbl := NewTable(drv, []Resolution{
		{Idx: 1, Target: Target{Kind: KindExpander, Expander: 0, Bit: 0}},
		{Idx: 2, Target: Target{Kind: KindExpander, Expander: 0, Bit: 1}},
	})
	_ = tbl.Set(2, true)
	all := tbl.GetAll()
	if len(all) != 2 || all[0].Idx != 1 || all[1].Idx != 2 {
		t.Fatalf("unexpected GetAll order: %+v", all)
	}
	if !all[1].State {
		t.Fatalf("expected idx 2 to be on")
	}
}
