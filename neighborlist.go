package neargo

import (
	"iter"
	"slices"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/neargo/model"
)

// NeighborList is the immutable result of one query call: bonds ordered by
// query index ascending, then distance ascending (ties by neighbor index).
// Per-query-index counts and offsets are O(1) via stored prefix offsets.
//
// The caller owns the list and may retain it independently of the engine
// that produced it.
type NeighborList struct {
	numQuery int
	bonds    []model.Bond
	offsets  []int // len numQuery+1; bonds[offsets[q]:offsets[q+1]] belong to q

	// insufficient lists query indices whose k-NN search found fewer than k
	// candidates anywhere reachable. Sorted ascending.
	insufficient []uint32

	// selfSet records that query and reference points were the same set,
	// which is what makes symmetrization meaningful.
	selfSet bool
}

func emptyNeighborList(numQuery int, selfSet bool) *NeighborList {
	return &NeighborList{
		numQuery: numQuery,
		offsets:  make([]int, numQuery+1),
		selfSet:  selfSet,
	}
}

// NeighborListOption configures a NeighborList under construction.
type NeighborListOption func(l *NeighborList)

// WithInsufficient marks query indices whose k-NN results are degraded.
func WithInsufficient(indices []uint32) NeighborListOption {
	return func(l *NeighborList) {
		l.insufficient = slices.Clone(indices)
		slices.Sort(l.insufficient)
	}
}

// WithSelfReferencing declares that query and neighbor indices refer to the
// same point set, enabling Symmetrize on a constructed list.
func WithSelfReferencing() NeighborListOption {
	return func(l *NeighborList) {
		l.selfSet = true
	}
}

// NewNeighborList constructs a list from pre-ordered bonds, rebuilding the
// prefix offsets. Bonds must be sorted by query index ascending and by
// distance ascending within a query index, with every query index below
// numQuery; otherwise ErrUnsortedBonds is returned.
func NewNeighborList(numQuery int, bonds []model.Bond, optFns ...NeighborListOption) (*NeighborList, error) {
	l := &NeighborList{
		numQuery: numQuery,
		bonds:    slices.Clone(bonds),
		offsets:  make([]int, numQuery+1),
	}

	for _, fn := range optFns {
		fn(l)
	}

	for i, b := range l.bonds {
		if int(b.Query) >= numQuery {
			return nil, ErrUnsortedBonds
		}
		if i > 0 {
			prev := l.bonds[i-1]
			if b.Query < prev.Query || (b.Query == prev.Query && b.Distance < prev.Distance) {
				return nil, ErrUnsortedBonds
			}
		}
	}

	l.rebuildOffsets()
	return l, nil
}

// rebuildOffsets recomputes the prefix offsets from sorted bonds.
func (l *NeighborList) rebuildOffsets() {
	counts := make([]int, l.numQuery+1)
	for _, b := range l.bonds {
		counts[b.Query+1]++
	}
	for q := 0; q < l.numQuery; q++ {
		counts[q+1] += counts[q]
	}
	l.offsets = counts
}

// Len returns the total bond count.
func (l *NeighborList) Len() int { return len(l.bonds) }

// NumQuery returns the number of query points the list covers.
func (l *NeighborList) NumQuery() int { return l.numQuery }

// Count returns the number of bonds for the given query index.
func (l *NeighborList) Count(query int) int {
	return l.offsets[query+1] - l.offsets[query]
}

// Offset returns the index of the first bond for the given query index.
func (l *NeighborList) Offset(query int) int {
	return l.offsets[query]
}

// Bonds returns the bonds for the given query index, sorted by ascending
// distance. The returned slice is shared and must be treated as read-only.
func (l *NeighborList) Bonds(query int) []model.Bond {
	return l.bonds[l.offsets[query]:l.offsets[query+1]]
}

// At returns the bond at the given position.
func (l *NeighborList) At(i int) model.Bond { return l.bonds[i] }

// All returns an iterator over (position, bond) in list order.
func (l *NeighborList) All() iter.Seq2[int, model.Bond] {
	return func(yield func(int, model.Bond) bool) {
		for i, b := range l.bonds {
			if !yield(i, b) {
				return
			}
		}
	}
}

// Insufficient returns the query indices whose k-NN search found fewer than
// the requested k candidates, sorted ascending. This is a warning-level
// signal: the data genuinely lacks enough neighbors, no retry will help.
func (l *NeighborList) Insufficient() []uint32 { return l.insufficient }

// Complete reports whether no query point had a degraded result.
func (l *NeighborList) Complete() bool { return len(l.insufficient) == 0 }

// SelfReferencing reports whether query and neighbor indices refer to the
// same point set.
func (l *NeighborList) SelfReferencing() bool { return l.selfSet }

// Symmetrize returns the symmetric closure of the list: for every bond
// (a, b) the mirrored bond (b, a) with negated displacement is present
// exactly once. Already-symmetric lists come back unchanged in content, so
// the operation is idempotent.
//
// Only lists whose query and neighbor indices refer to the same point set
// can be symmetrized; otherwise ErrAsymmetricSets is returned.
func (l *NeighborList) Symmetrize() (*NeighborList, error) {
	if !l.selfSet {
		return nil, ErrAsymmetricSets
	}

	seen := roaring64.New()
	for _, b := range l.bonds {
		if int(b.Neighbor) >= l.numQuery {
			return nil, ErrAsymmetricSets
		}
		seen.Add(pairKey(b.Query, b.Neighbor))
	}

	out := slices.Clone(l.bonds)
	for _, b := range l.bonds {
		if !seen.Contains(pairKey(b.Neighbor, b.Query)) {
			out = append(out, model.Bond{
				Query:    b.Neighbor,
				Neighbor: b.Query,
				Distance: b.Distance,
				Delta:    b.Delta.Mul(-1),
				Weight:   b.Weight,
			})
		}
	}

	slices.SortFunc(out, func(a, b model.Bond) int {
		if a.Less(b) {
			return -1
		}
		if b.Less(a) {
			return 1
		}
		return 0
	})

	sym := &NeighborList{
		numQuery:     l.numQuery,
		bonds:        out,
		insufficient: l.insufficient,
		selfSet:      true,
	}
	sym.rebuildOffsets()
	return sym, nil
}

// pairKey packs a (query, neighbor) pair into one deduplication key.
func pairKey(query, neighbor uint32) uint64 {
	return uint64(query)<<32 | uint64(neighbor)
}
