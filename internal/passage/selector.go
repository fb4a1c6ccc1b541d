package passage

import "container/heap"

// DefaultCapacity is the number of passages kept when no row count is given.
const DefaultCapacity = 10

// Weaker reports whether a ranks below b: a lower score, or an equal score
// with a higher document id.
func Weaker(a, b Passage) bool {
	return weaker(a.Score, a.DocID, b.Score, b.DocID)
}

func weaker(aScore float64, aDoc uint32, bScore float64, bDoc uint32) bool {
	if aScore != bScore {
		return aScore < bScore
	}
	return aDoc > bDoc
}

type passageHeap []Passage

func (h passageHeap) Len() int           { return len(h) }
func (h passageHeap) Less(i, j int) bool { return Weaker(h[i], h[j]) }
func (h passageHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *passageHeap) Push(x any) {
	*h = append(*h, x.(Passage))
}

func (h *passageHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = Passage{}
	*h = old[:n-1]
	return item
}

// Selector retains the strongest passages offered to it, at most its
// capacity at a time, with the weakest on top of a min-heap.
type Selector struct {
	capacity int
	h        passageHeap
}

func NewSelector(capacity int) *Selector {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Selector{capacity: capacity, h: make(passageHeap, 0, capacity+1)}
}

// Offer freezes and retains the builder's passage when the selector has
// room or the passage is not weaker than the current weakest. It reports
// whether the passage was taken.
func (s *Selector) Offer(b *Builder) (bool, error) {
	if len(s.h) >= s.capacity && weaker(b.Score, b.DocID, s.h[0].Score, s.h[0].DocID) {
		return false, nil
	}
	p, err := b.Freeze()
	if err != nil {
		return false, err
	}
	heap.Push(&s.h, p)
	if len(s.h) > s.capacity {
		heap.Pop(&s.h)
	}
	return true, nil
}

func (s *Selector) Len() int { return len(s.h) }

// Weakest returns the passage that would be evicted next.
func (s *Selector) Weakest() (Passage, bool) {
	if len(s.h) == 0 {
		return Passage{}, false
	}
	return s.h[0], true
}

// Drain empties the selector, returning passages weakest first.
func (s *Selector) Drain() []Passage {
	out := make([]Passage, 0, len(s.h))
	for len(s.h) > 0 {
		out = append(out, heap.Pop(&s.h).(Passage))
	}
	return out
}
