// Package vecmath provides the similarity scoring shared by the vector stores.
package vecmath

import (
	"container/heap"
	"math"
	"sort"
)

// Cosine returns the cosine similarity of a and b.
// Mismatched lengths and zero vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Scored is one ranked candidate.
type Scored struct {
	ID    int
	Score float64
}

// TopK keeps the k highest-scoring candidates pushed into it.
// Ties keep the candidate pushed first, so results follow insertion order.
type TopK struct {
	k int
	h minHeap
}

// NewTopK creates a collector for k results. k <= 0 collects nothing.
func NewTopK(k int) *TopK {
	if k < 0 {
		k = 0
	}
	return &TopK{k: k, h: make(minHeap, 0, k)}
}

// Push offers a candidate.
func (t *TopK) Push(id int, score float64) {
	if t.k == 0 {
		return
	}
	c := Scored{ID: id, Score: score}
	if len(t.h) < t.k {
		heap.Push(&t.h, c)
		return
	}
	if worse(t.h[0], c) {
		t.h[0] = c
		heap.Fix(&t.h, 0)
	}
}

// Len returns the number of collected candidates.
func (t *TopK) Len() int {
	return len(t.h)
}

// Sorted returns the collected candidates, best first.
func (t *TopK) Sorted() []Scored {
	out := make([]Scored, len(t.h))
	copy(out, t.h)
	sort.Slice(out, func(i, j int) bool { return worse(out[j], out[i]) })
	return out
}

// worse reports whether a ranks below b: lower score, or equal score and later insertion.
func worse(a, b Scored) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.ID > b.ID
}

type minHeap []Scored

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return worse(h[i], h[j]) }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)        { *h = append(*h, x.(Scored)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
