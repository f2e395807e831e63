package model

import (
	"cmp"
	"container/heap"
	"slices"
	"sync"
)

// DuplicateDistance is the similarity above which two vectors are treated as
// the same point. Nearest never returns such matches.
const DuplicateDistance = 0.9999

// Neighbor is one Nearest result.
type Neighbor[K comparable] struct {
	Key      K
	Distance float32
}

// Store is a key → Vector map with brute-force similarity search.
// It is safe for concurrent use.
type Store[K comparable] struct {
	mu      sync.RWMutex
	dim     int
	vectors map[K]Vector
}

// Dim returns the vector dimension, 0 for an empty model.
func (s *Store[K]) Dim() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dim
}

// Len returns the number of stored vectors.
func (s *Store[K]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// Vector returns a copy of the vector stored under key.
func (s *Store[K]) Vector(key K) (Vector, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vectors[key]
	if !ok {
		return nil, false
	}
	return v.Clone(), true
}

// Distance returns the similarity of the vectors stored under a and b.
func (s *Store[K]) Distance(a, b K) (float32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	va, ok := s.vectors[a]
	if !ok {
		return 0, false
	}
	vb, ok := s.vectors[b]
	if !ok {
		return 0, false
	}
	return Distance(va, vb), true
}

// Nearest returns up to k entries most similar to q, best first.
// Entries with no positive similarity, scoring below minDistance or above
// DuplicateDistance are skipped.
func (s *Store[K]) Nearest(q Vector, k int, minDistance float32) []Neighbor[K] {
	if k <= 0 {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.vectors) == 0 {
		return nil
	}
	if len(q) != s.dim {
		panic("model: dimension mismatch")
	}

	h := make(neighborHeap[K], 0, k)
	for key, v := range s.vectors {
		d := Distance(q, v)
		if d <= 0 || d > DuplicateDistance || d < minDistance {
			continue
		}
		if h.Len() < k {
			heap.Push(&h, Neighbor[K]{Key: key, Distance: d})
		} else if d > h[0].Distance {
			h[0] = Neighbor[K]{Key: key, Distance: d}
			heap.Fix(&h, 0)
		}
	}

	out := []Neighbor[K](h)
	slices.SortFunc(out, func(a, b Neighbor[K]) int { return cmp.Compare(b.Distance, a.Distance) })
	return out
}

func (s *Store[K]) reset(dim int, vectors map[K]Vector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dim = dim
	s.vectors = vectors
}

// neighborHeap is a min-heap on Distance.
type neighborHeap[K comparable] []Neighbor[K]

func (h neighborHeap[K]) Len() int           { return len(h) }
func (h neighborHeap[K]) Less(i, j int) bool { return h[i].Distance < h[j].Distance }
func (h neighborHeap[K]) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *neighborHeap[K]) Push(x any) { *h = append(*h, x.(Neighbor[K])) }

func (h *neighborHeap[K]) Pop() any {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}
