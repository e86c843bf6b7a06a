package engine

// visitedSet tracks visited cells using a bitset and a dirty list for fast
// reset between query points.
type visitedSet struct {
	bits  []uint64
	dirty []int32
}

func newVisitedSet(capacity int) *visitedSet {
	return &visitedSet{
		bits:  make([]uint64, (capacity+63)/64),
		dirty: make([]int32, 0, 128),
	}
}

// Visit marks a cell as visited and reports whether it was unvisited before.
func (v *visitedSet) Visit(id int32) bool {
	wordIdx := int(id >> 6)
	bitMask := uint64(1) << (uint(id) & 63)

	if v.bits[wordIdx]&bitMask != 0 {
		return false
	}
	v.bits[wordIdx] |= bitMask
	v.dirty = append(v.dirty, id)
	return true
}

// Reset clears the visited status for all cells visited since the last reset.
func (v *visitedSet) Reset() {
	for _, id := range v.dirty {
		v.bits[id>>6] &^= uint64(1) << (uint(id) & 63)
	}
	v.dirty = v.dirty[:0]
}
