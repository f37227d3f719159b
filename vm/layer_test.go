package vm

import "testing"

func TestLayerPushPopOpcodeDriven(t *testing.T) {
	var s layerStack
	if s.Current() != DefaultLayer {
		t.Fatalf("expected default layer on empty stack")
	}
	s.Push(3)
	if s.Current() != 3 {
		t.Fatalf("expected layer 3, got %d", s.Current())
	}
	s.Pop()
	if s.Current() != DefaultLayer {
		t.Fatalf("expected default layer after pop, got %d", s.Current())
	}
}

func TestLayerPopIgnoresAnchoredFrame(t *testing.T) {
	var s layerStack
	s.PushAnchored(5, 2)
	s.Pop() // opcode-driven pop must not remove an anchored frame
	if s.Current() != 2 {
		t.Fatalf("anchored frame should survive opcode Pop, current=%d", s.Current())
	}
}

func TestPopIfAnchoredToMatchesInput(t *testing.T) {
	var s layerStack
	s.PushAnchored(5, 2)
	if s.PopIfAnchoredTo(9) {
		t.Fatalf("should not pop for a different input")
	}
	if !s.PopIfAnchoredTo(5) {
		t.Fatalf("should pop for the anchoring input")
	}
	if s.Current() != DefaultLayer {
		t.Fatalf("expected default layer after anchored pop")
	}
}

func TestLayerSetAndDefault(t *testing.T) {
	var s layerStack
	s.Push(1)
	s.Push(2)
	s.Set(9)
	if s.Current() != 9 || s.n != 1 {
		t.Fatalf("Set should clear and push a single frame: current=%d n=%d", s.Current(), s.n)
	}
	s.Default()
	if s.Current() != DefaultLayer || s.n != 0 {
		t.Fatalf("Default should clear the stack entirely")
	}
}
