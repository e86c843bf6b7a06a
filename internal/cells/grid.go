// Package cells implements the cell-list acceleration structure: a regular
// grid over one periodic image of the box, assigning every reference point to
// exactly one cell so that neighbor candidates can be looked up from a small
// stencil of adjacent cells.
//
// Grids are immutable once built and safe for concurrent readers.
package cells

import (
	"iter"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/hupe1980/neargo/box"
)

// maxCellsPerAxis caps grid resolution so a tiny search radius in a large
// box cannot allocate an unbounded number of cells.
const maxCellsPerAxis = 1024

// Grid is an immutable cell list over a box and one reference point set.
type Grid struct {
	box      *box.Box
	dims     [3]int32
	periodic [3]bool
	widths   [3]float32 // Cartesian cell width per axis (plane spacing / dims)
	minWidth float32
	cellSize float32 // requested cell edge length the grid was sized for

	// starts/members form the prefix-sum bucketed cell contents:
	// members[starts[c]:starts[c+1]] are the point indices in cell c.
	starts  []int32
	members []uint32
}

// Build constructs a grid for the given box and reference positions.
// Grid dimensions per axis are floor(plane spacing / cellSize), clamped to at
// least 1, so every cell spans at least cellSize along each axis and a
// one-ring stencil covers any search radius up to cellSize.
//
// Positions on periodic axes are wrapped into the primary cell before
// binning; on non-periodic axes out-of-box positions bin into the boundary
// cells. Construction is a counting pass plus a prefix sum, O(N).
func Build(b *box.Box, pts []mgl32.Vec3, cellSize float32) *Grid {
	g := &Grid{
		box:      b,
		periodic: b.Periodic(),
		cellSize: cellSize,
		dims:     [3]int32{1, 1, 1},
	}

	spacings := b.PlaneSpacings()
	g.minWidth = float32(math.Inf(1))
	for i := 0; i < b.Dim(); i++ {
		d := int32(spacings[i] / cellSize)
		if d < 1 {
			d = 1
		}
		if d > maxCellsPerAxis {
			d = maxCellsPerAxis
		}
		g.dims[i] = d
		g.widths[i] = spacings[i] / float32(d)
		if g.widths[i] < g.minWidth {
			g.minWidth = g.widths[i]
		}
	}

	n := int(g.dims[0]) * int(g.dims[1]) * int(g.dims[2])
	g.starts = make([]int32, n+1)
	g.members = make([]uint32, len(pts))

	// Counting pass.
	idx := make([]int32, len(pts))
	for i, p := range pts {
		c := g.CellOf(p)
		idx[i] = g.Index(c)
		g.starts[idx[i]+1]++
	}

	// Prefix sum.
	for c := 0; c < n; c++ {
		g.starts[c+1] += g.starts[c]
	}

	// Fill pass. Cursor reuses a copy of starts.
	cursor := make([]int32, n)
	copy(cursor, g.starts[:n])
	for i := range pts {
		c := idx[i]
		g.members[cursor[c]] = uint32(i)
		cursor[c]++
	}

	return g
}

// NumCells returns the total cell count.
func (g *Grid) NumCells() int {
	return int(g.dims[0]) * int(g.dims[1]) * int(g.dims[2])
}

// NumPoints returns the number of binned reference points.
func (g *Grid) NumPoints() int { return len(g.members) }

// Dims returns the grid dimensions per axis.
func (g *Grid) Dims() [3]int32 { return g.dims }

// CellSize returns the cell edge length the grid was sized for.
func (g *Grid) CellSize() float32 { return g.cellSize }

// MinWidth returns the smallest Cartesian cell width over the active axes.
// Any point in a cell at Chebyshev ring r from the query cell is at least
// (r-1)*MinWidth away, which bounds the adaptive k-NN ring expansion.
func (g *Grid) MinWidth() float32 { return g.minWidth }

// CellOf returns the grid coordinates of a Cartesian position.
func (g *Grid) CellOf(p mgl32.Vec3) [3]int32 {
	f := g.box.Fraction(p)
	var c [3]int32
	for i := 0; i < 3; i++ {
		if g.periodic[i] {
			f[i] -= float32(math.Floor(float64(f[i])))
		}
		ci := int32(f[i] * float32(g.dims[i]))
		if ci < 0 {
			ci = 0
		} else if ci >= g.dims[i] {
			ci = g.dims[i] - 1
		}
		c[i] = ci
	}
	return c
}

// Index returns the linear index of the given grid coordinates.
func (g *Grid) Index(c [3]int32) int32 {
	return (c[2]*g.dims[1]+c[1])*g.dims[0] + c[0]
}

// Members returns the reference point indices binned into the given cell.
func (g *Grid) Members(cell int32) []uint32 {
	return g.members[g.starts[cell]:g.starts[cell+1]]
}

// MaxRing returns the largest ring that can still reach unvisited cells from
// any center. Periodic axes are fully covered once the stencil spans the
// axis; non-periodic axes need dims-1 rings from a boundary cell.
func (g *Grid) MaxRing() int32 {
	var maxRing int32
	for i := 0; i < g.box.Dim(); i++ {
		var r int32
		if g.periodic[i] {
			r = g.dims[i] / 2
		} else {
			r = g.dims[i] - 1
		}
		if r > maxRing {
			maxRing = r
		}
	}
	return maxRing
}

// Ring yields the linear indices of cells in the Chebyshev shell at the
// given ring around a center cell. Periodic axes wrap modulo the grid
// dimension, which can re-yield a cell when the shell spans the whole axis;
// callers dedup with a visited set. Non-periodic axes clip at the boundary
// and yield fewer cells near edges.
func (g *Grid) Ring(center [3]int32, ring int32) iter.Seq[int32] {
	return func(yield func(int32) bool) {
		zLo, zHi := -ring, ring
		if g.box.Is2D() {
			zLo, zHi = 0, 0
		}
		for oz := zLo; oz <= zHi; oz++ {
			cz, ok := g.shift(center[2], oz, 2)
			if !ok {
				continue
			}
			for oy := -ring; oy <= ring; oy++ {
				cy, ok := g.shift(center[1], oy, 1)
				if !ok {
					continue
				}
				for ox := -ring; ox <= ring; ox++ {
					if !onShell(ox, oy, oz, ring) {
						continue
					}
					cx, ok := g.shift(center[0], ox, 0)
					if !ok {
						continue
					}
					if !yield(g.Index([3]int32{cx, cy, cz})) {
						return
					}
				}
			}
		}
	}
}

// onShell reports whether the offset lies on the shell boundary, i.e. its
// Chebyshev norm equals ring.
func onShell(ox, oy, oz, ring int32) bool {
	return max(abs32(ox), abs32(oy), abs32(oz)) == ring
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// shift applies an offset to a cell coordinate, wrapping on periodic axes
// and clipping on non-periodic ones.
func (g *Grid) shift(c, off int32, axis int) (int32, bool) {
	v := c + off
	d := g.dims[axis]
	if g.periodic[axis] {
		v %= d
		if v < 0 {
			v += d
		}
		return v, true
	}
	if v < 0 || v >= d {
		return 0, false
	}
	return v, true
}
