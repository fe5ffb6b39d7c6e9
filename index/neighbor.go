package index

import (
	"container/heap"
	"sort"
)

// Neighbors implements heap.Interface with the worst neighbor (see Less) on
// top, so a bounded heap keeps the k best candidates seen so far.
type Neighbors []Neighbor

func (h Neighbors) Len() int           { return len(h) }
func (h Neighbors) Less(i, j int) bool { return Less(h[j], h[i]) }
func (h Neighbors) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *Neighbors) Push(x interface{}) {
	*h = append(*h, x.(Neighbor))
}

func (h *Neighbors) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Offer adds n if fewer than k candidates are held or n beats the current
// worst. It reports whether n was kept.
func (h *Neighbors) Offer(n Neighbor, k int) bool {
	if k <= 0 {
		return false
	}
	if h.Len() < k {
		heap.Push(h, n)
		return true
	}
	if Less(n, (*h)[0]) {
		(*h)[0] = n
		heap.Fix(h, 0)
		return true
	}
	return false
}

// Worst returns the current worst candidate; ok is false when empty.
func (h Neighbors) Worst() (Neighbor, bool) {
	if len(h) == 0 {
		return Neighbor{}, false
	}
	return h[0], true
}

// Sorted drains the heap into a slice ordered best first.
func (h *Neighbors) Sorted() []Neighbor {
	out := make([]Neighbor, len(*h))
	copy(out, *h)
	*h = (*h)[:0]
	sort.Slice(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}
