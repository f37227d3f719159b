package shutter

// dueItem schedules one shutter's next visit, adapted from the teacher's
// pollItem/pollHeap (services/hal/internal/core/poller.go) to a due-time-only
// schedule (no recurring interval/jitter; the shutter's own state machine
// recomputes its next due time after every update).
type dueItem struct {
	idx   uint8
	dueMs int64
	index int
}

type dueHeap []*dueItem

func (h dueHeap) Len() int           { return len(h) }
func (h dueHeap) Less(i, j int) bool { return h[i].dueMs < h[j].dueMs }
func (h dueHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *dueHeap) Push(x any)        { it := x.(*dueItem); it.index = len(*h); *h = append(*h, it) }
func (h *dueHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	it.index = -1
	*h = old[:n-1]
	return it
}
func (h dueHeap) Top() *dueItem {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}
