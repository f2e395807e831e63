// Package huffman builds the binary prefix-code tree used by hierarchical
// softmax. Leaves are vocabulary indices; internal nodes are numbered
// 0..n-2 with the root at n-2 so they can index rows of the output layer.
package huffman

import "container/heap"

// Tree holds the per-leaf code and internal-node path. It is immutable and
// safe for concurrent reads.
type Tree struct {
	codes  [][]byte
	points [][]int
}

type node struct {
	id     int
	weight uint64
}

type nodeHeap []node

func (h nodeHeap) Len() int { return len(h) }

func (h nodeHeap) Less(i, j int) bool {
	if h[i].weight != h[j].weight {
		return h[i].weight < h[j].weight
	}
	return h[i].id < h[j].id
}

func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *nodeHeap) Push(x any) { *h = append(*h, x.(node)) }

func (h *nodeHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}

// Build constructs the tree for the given leaf frequencies. Equal weights are
// merged in ascending node order so the result is deterministic.
func Build(freqs []uint64) *Tree {
	n := len(freqs)
	t := &Tree{codes: make([][]byte, n), points: make([][]int, n)}
	if n < 2 {
		for i := range n {
			t.codes[i] = []byte{}
			t.points[i] = []int{}
		}
		return t
	}

	// Nodes 0..n-1 are leaves, n..2n-2 internal.
	parent := make([]int, 2*n-1)
	bit := make([]byte, 2*n-1)

	h := make(nodeHeap, n)
	for i, f := range freqs {
		h[i] = node{id: i, weight: f}
	}
	heap.Init(&h)

	for next := n; h.Len() > 1; next++ {
		a := heap.Pop(&h).(node)
		b := heap.Pop(&h).(node)
		parent[a.id] = next
		parent[b.id] = next
		bit[b.id] = 1
		heap.Push(&h, node{id: next, weight: a.weight + b.weight})
	}

	root := 2*n - 2
	var code []byte
	var point []int
	for leaf := range n {
		code = code[:0]
		point = point[:0]
		for id := leaf; id != root; id = parent[id] {
			code = append(code, bit[id])
			point = append(point, parent[id]-n)
		}

		c := make([]byte, len(code))
		p := make([]int, len(point))
		for j := range code {
			c[j] = code[len(code)-1-j]
			p[j] = point[len(point)-1-j]
		}
		t.codes[leaf] = c
		t.points[leaf] = p
	}
	return t
}

// Len returns the number of leaves.
func (t *Tree) Len() int { return len(t.codes) }

// Code returns the branch bits from the root to leaf i.
func (t *Tree) Code(i int) []byte { return t.codes[i] }

// Point returns the internal node ids from the root to leaf i. Code(i)[j] is
// the branch taken at Point(i)[j].
func (t *Tree) Point(i int) []int { return t.points[i] }
