package viewer

import "testing"

func TestRenderQueue(t *testing.T) {
	var q renderQueue
	q.Push(3)
	q.Push(4)
	q.Push(3)
	q.Push(5)
	if got := q.Items(); !equalInts(got, []int{3, 4, 5}) {
		t.Fatalf("items = %v, want [3 4 5]", got)
	}

	q.PushFront(5)
	if got := q.Items(); !equalInts(got, []int{5, 3, 4}) {
		t.Errorf("after PushFront = %v, want [5 3 4]", got)
	}
	q.PushFront(9)
	q.Remove(3)
	if got := q.Items(); !equalInts(got, []int{9, 5, 4}) {
		t.Errorf("after Remove = %v, want [9 5 4]", got)
	}
	if !q.Contains(4) || q.Contains(3) {
		t.Error("Contains disagrees with items")
	}

	q.Clear()
	if q.Len() != 0 {
		t.Errorf("Len after Clear = %d", q.Len())
	}
}

func TestNextPrefersVisible(t *testing.T) {
	r := &Renderer{slots: make([]slot, 6), visible: []int{4, 5}}
	for _, idx := range []int{6, 2, 5, 4} {
		r.queue.Push(idx)
	}
	r.slots[1].state = Rendered

	var order []int
	for {
		idx, ok := r.nextLocked()
		if !ok {
			break
		}
		order = append(order, idx)
		r.slots[idx-1].state = Rendered
	}
	if !equalInts(order, []int{5, 4, 6}) {
		t.Errorf("order = %v, want [5 4 6]", order)
	}
}

func TestNextSkipsInflight(t *testing.T) {
	r := &Renderer{slots: make([]slot, 3), visible: []int{1}}
	r.queue.Push(1)
	r.slots[0].inflight = true
	if _, ok := r.nextLocked(); ok {
		t.Fatal("took a page that is still rendering")
	}
	if !r.queue.Contains(1) {
		t.Error("in-flight page should stay queued")
	}
}
