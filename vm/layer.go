package vm

// MaxLayerDepth bounds the layer stack (spec.md §4.6 calls this "a small
// stack with press-anchored pop"; fixed at 5 frames, no heap).
const MaxLayerDepth = 5

// DefaultLayer is the layer in effect when the stack is empty.
const DefaultLayer uint8 = 0

// layerFrame is one pushed layer. anchored distinguishes an opcode-driven
// push (LayerPush, which only LayerPop may remove) from a dispatch-driven
// push triggered by ActivateLayer on input anchorInput (removed only by a
// Deactivated event for that same input). This disambiguates spec.md
// §4.6's "anchor=0" sentinel, since input indices also start at 0.
type layerFrame struct {
	anchored    bool
	anchorInput uint8
	layer       uint8
}

type layerStack struct {
	frames [MaxLayerDepth]layerFrame
	n      int
}

// Current returns the active layer: the stack top, or DefaultLayer if empty.
func (s *layerStack) Current() uint8 {
	if s.n == 0 {
		return DefaultLayer
	}
	return s.frames[s.n-1].layer
}

// Push installs an opcode-driven layer (LayerPush(L)). Full stacks drop the
// push silently: a fixed-depth bound, not a fatal condition.
func (s *layerStack) Push(layer uint8) {
	if s.n >= MaxLayerDepth {
		return
	}
	s.frames[s.n] = layerFrame{anchored: false, layer: layer}
	s.n++
}

// PushAnchored installs a dispatch-driven layer for BindLayerHold, anchored
// to the input whose Activated event triggered it.
func (s *layerStack) PushAnchored(input uint8, layer uint8) {
	if s.n >= MaxLayerDepth {
		return
	}
	s.frames[s.n] = layerFrame{anchored: true, anchorInput: input, layer: layer}
	s.n++
}

// Pop removes the top frame only if it was opcode-driven (LayerPop).
func (s *layerStack) Pop() {
	if s.n == 0 || s.frames[s.n-1].anchored {
		return
	}
	s.n--
}

// PopIfAnchoredTo removes the top frame if it is dispatch-anchored to input,
// reporting whether it popped. Called on a Deactivated event for that
// input; the caller must suppress further dispatch for the event on pop.
func (s *layerStack) PopIfAnchoredTo(input uint8) bool {
	if s.n == 0 {
		return false
	}
	top := s.frames[s.n-1]
	if top.anchored && top.anchorInput == input {
		s.n--
		return true
	}
	return false
}

// Set clears the stack and pushes a single opcode-driven layer (LayerSet(L)).
func (s *layerStack) Set(layer uint8) {
	s.n = 0
	s.Push(layer)
}

// Default clears the stack entirely (LayerDefault).
func (s *layerStack) Default() {
	s.n = 0
}
