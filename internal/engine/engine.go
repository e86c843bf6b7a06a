// Package engine executes single-point neighbor queries against a box, a
// cell grid and an immutable reference point snapshot.
//
// All exported query methods support a count-only mode (nil output slice) so
// the caller can size one output arena ahead of a lock-free parallel fill.
package engine

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/hupe1980/neargo/box"
	"github.com/hupe1980/neargo/internal/cells"
	"github.com/hupe1980/neargo/internal/queue"
	"github.com/hupe1980/neargo/model"
)

// Engine is a read-only view over one box, grid and reference snapshot.
// It is safe for concurrent use; per-goroutine mutable state lives in a
// Searcher.
type Engine struct {
	box    *box.Box
	grid   *cells.Grid
	points []mgl32.Vec3 // wrapped reference positions
}

// New creates an engine over the given box, grid and wrapped reference
// positions.
func New(b *box.Box, g *cells.Grid, points []mgl32.Vec3) *Engine {
	return &Engine{box: b, grid: g, points: points}
}

// Searcher is a reusable execution context for per-point queries. It owns
// all scratch memory required for a query, eliminating allocations in the
// steady state.
//
// Searcher is NOT thread-safe. It is intended to be owned by a single
// goroutine for the duration of a query pass.
type Searcher struct {
	visited *visitedSet
	heap    *queue.BoundedMaxHeap
}

// NewSearcher creates a searcher sized for the engine's grid.
func (e *Engine) NewSearcher() *Searcher {
	return &Searcher{
		visited: newVisitedSet(e.grid.NumCells()),
		heap:    queue.NewBoundedMaxHeap(0),
	}
}

// Ball finds all reference points within [spec.RMin, spec.RMax) of the query
// point, or only the closest such point when spec.NearestOnly is set.
//
// q must already be wrapped into the primary cell and the grid's cell size
// must be at least spec.RMax so the one-ring stencil covers the radius.
//
// With a non-nil out, bonds are written to out in ascending (distance,
// neighbor) order and out must have room for the count returned by the
// count-only pass. Returns the number of bonds.
func (e *Engine) Ball(s *Searcher, qi uint32, q mgl32.Vec3, spec model.Spec, out []model.Bond) int {
	s.visited.Reset()
	center := e.grid.CellOf(q)

	var (
		count     int
		best      queue.Item
		bestFound bool
	)

	for ring := int32(0); ring <= 1; ring++ {
		for cell := range e.grid.Ring(center, ring) {
			if !s.visited.Visit(cell) {
				continue
			}
			for _, j := range e.grid.Members(cell) {
				if spec.ExcludeSelf && j == qi {
					continue
				}
				if spec.Filter != nil && !spec.Filter(j) {
					continue
				}
				delta, d := e.box.MinImage(q, e.points[j])
				if d < spec.RMin || d >= spec.RMax {
					continue
				}
				if spec.NearestOnly {
					cand := queue.Item{Index: j, Distance: d, Delta: delta}
					if !bestFound || candLess(cand, best) {
						best, bestFound = cand, true
					}
					continue
				}
				if out != nil {
					out[count] = model.Bond{
						Query:    qi,
						Neighbor: j,
						Distance: d,
						Delta:    delta,
						Weight:   1,
					}
				}
				count++
			}
		}
	}

	if spec.NearestOnly {
		if !bestFound {
			return 0
		}
		if out != nil {
			out[0] = model.Bond{
				Query:    qi,
				Neighbor: best.Index,
				Distance: best.Distance,
				Delta:    best.Delta,
				Weight:   1,
			}
		}
		return 1
	}

	if out != nil {
		sortBonds(out[:count])
	}
	return count
}

// KNN finds the spec.K nearest reference points of the query point using
// adaptive ring expansion: each completed ring raises the lower bound on the
// distance of any undiscovered point, so the search stops as soon as the
// current k-th distance cannot be beaten by the next ring.
//
// Returns the bond count and whether fewer than k candidates exist anywhere
// reachable (a degraded result, not a failure). With a non-nil out, bonds
// are written in ascending (distance, neighbor) order.
func (e *Engine) KNN(s *Searcher, qi uint32, q mgl32.Vec3, spec model.Spec, out []model.Bond) (int, bool) {
	s.visited.Reset()
	s.heap.Reset(spec.K)

	center := e.grid.CellOf(q)
	maxRing := e.grid.MaxRing()
	minWidth := e.grid.MinWidth()

	for ring := int32(0); ring <= maxRing; ring++ {
		for cell := range e.grid.Ring(center, ring) {
			if !s.visited.Visit(cell) {
				continue
			}
			for _, j := range e.grid.Members(cell) {
				if spec.ExcludeSelf && j == qi {
					continue
				}
				if spec.Filter != nil && !spec.Filter(j) {
					continue
				}
				delta, d := e.box.MinImage(q, e.points[j])
				s.heap.Push(queue.Item{Index: j, Distance: d, Delta: delta})
			}
		}

		// A point in ring r+1 or beyond sits at least r whole cell widths
		// from the query point. Once the heap is full and its worst
		// distance beats that bound, no undiscovered point can displace a
		// held candidate.
		if s.heap.Len() == spec.K {
			if worst, ok := s.heap.Top(); ok && worst.Distance < float32(ring)*minWidth {
				break
			}
		}
	}

	n := s.heap.Len()
	if out != nil {
		// Popping yields worst-first; filling back to front leaves
		// ascending (distance, neighbor) order.
		for i := n - 1; i >= 0; i-- {
			item, _ := s.heap.Pop()
			out[i] = model.Bond{
				Query:    qi,
				Neighbor: item.Index,
				Distance: item.Distance,
				Delta:    item.Delta,
				Weight:   1,
			}
		}
	}
	return n, n < spec.K
}

func candLess(a, b queue.Item) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.Index < b.Index
}

func sortBonds(bonds []model.Bond) {
	slices.SortFunc(bonds, func(a, b model.Bond) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		case a.Neighbor < b.Neighbor:
			return -1
		case a.Neighbor > b.Neighbor:
			return 1
		default:
			return 0
		}
	})
}
