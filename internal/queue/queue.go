// Package queue implements the bounded candidate heap used by k-NN queries.
package queue

import "github.com/go-gl/mathgl/mgl32"

// Item represents a neighbor candidate in the heap.
// Value-based (no pointers) for cache locality and zero allocations.
type Item struct {
	Index    uint32     // Index of the reference point
	Distance float32    // Minimum-image distance to the query point
	Delta    mgl32.Vec3 // Minimum-image displacement query -> neighbor
}

// BoundedMaxHeap is a max-heap of candidates capped at a fixed capacity.
// The root is always the current worst candidate, so a full heap rejects or
// replaces in O(log k).
//
// Ordering is by (Distance, Index): of two equidistant candidates the one
// with the larger index is the worse, which makes ties at the k boundary
// resolve deterministically to the smaller neighbor index.
type BoundedMaxHeap struct {
	capacity int
	items    []Item
}

// NewBoundedMaxHeap creates a heap holding at most capacity items.
func NewBoundedMaxHeap(capacity int) *BoundedMaxHeap {
	return &BoundedMaxHeap{
		capacity: capacity,
		items:    make([]Item, 0, capacity),
	}
}

// less reports whether a is a strictly better (closer) candidate than b.
func less(a, b Item) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.Index < b.Index
}

// Len returns the number of candidates currently held.
func (h *BoundedMaxHeap) Len() int { return len(h.items) }

// Cap returns the heap capacity.
func (h *BoundedMaxHeap) Cap() int { return h.capacity }

// Top returns the current worst candidate.
func (h *BoundedMaxHeap) Top() (Item, bool) {
	if len(h.items) == 0 {
		return Item{}, false
	}
	return h.items[0], true
}

// Push offers a candidate. Below capacity it is always accepted; at capacity
// it replaces the current worst candidate if it is better, otherwise it is
// dropped.
func (h *BoundedMaxHeap) Push(item Item) {
	if len(h.items) < h.capacity {
		h.items = append(h.items, item)
		h.siftUp(len(h.items) - 1)
		return
	}
	if less(item, h.items[0]) {
		h.items[0] = item
		h.siftDown(0)
	}
}

// Pop removes and returns the current worst candidate.
func (h *BoundedMaxHeap) Pop() (Item, bool) {
	n := len(h.items)
	if n == 0 {
		return Item{}, false
	}
	root := h.items[0]
	last := h.items[n-1]
	h.items[n-1] = Item{}
	h.items = h.items[:n-1]
	if n-1 > 0 {
		h.items[0] = last
		h.siftDown(0)
	}
	return root, true
}

// Reset clears the heap for reuse, optionally adopting a new capacity.
func (h *BoundedMaxHeap) Reset(capacity int) {
	if capacity > cap(h.items) {
		h.items = make([]Item, 0, capacity)
	} else {
		h.items = h.items[:0]
	}
	h.capacity = capacity
}

func (h *BoundedMaxHeap) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !less(h.items[p], h.items[i]) {
			// Parent is already the worse of the two.
			return
		}
		h.items[i], h.items[p] = h.items[p], h.items[i]
		i = p
	}
}

func (h *BoundedMaxHeap) siftDown(i int) {
	n := len(h.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		worst := l
		if r := l + 1; r < n && less(h.items[l], h.items[r]) {
			worst = r
		}
		if !less(h.items[i], h.items[worst]) {
			return
		}
		h.items[i], h.items[worst] = h.items[worst], h.items[i]
		i = worst
	}
}
