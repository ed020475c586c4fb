package viewer

// renderQueue is an ordered set of page indices waiting to be rendered.
type renderQueue struct {
	items []int
}

func (q *renderQueue) Len() int { return len(q.items) }

func (q *renderQueue) Contains(index int) bool {
	for _, i := range q.items {
		if i == index {
			return true
		}
	}
	return false
}

// Push appends index unless it is already queued.
func (q *renderQueue) Push(index int) {
	if !q.Contains(index) {
		q.items = append(q.items, index)
	}
}

// PushFront moves index to the head of the queue.
func (q *renderQueue) PushFront(index int) {
	q.Remove(index)
	q.items = append([]int{index}, q.items...)
}

func (q *renderQueue) Remove(index int) {
	for n, i := range q.items {
		if i == index {
			q.items = append(q.items[:n], q.items[n+1:]...)
			return
		}
	}
}

func (q *renderQueue) Clear() { q.items = q.items[:0] }

func (q *renderQueue) Items() []int {
	return append([]int(nil), q.items...)
}
