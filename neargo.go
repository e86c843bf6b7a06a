package neargo

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/hupe1980/neargo/box"
	"github.com/hupe1980/neargo/internal/cells"
)

// Engine answers neighbor queries for one immutable snapshot of reference
// positions in a box. It is safe for concurrent use.
type Engine struct {
	box    *box.Box
	points []mgl32.Vec3 // wrapped copy of the reference positions

	// grid caches the current acceleration structure. Grids are immutable;
	// a rebuild publishes a fresh grid via the atomic pointer so concurrent
	// query passes never observe a partially built structure.
	grid   atomic.Pointer[cells.Grid]
	gridMu sync.Mutex // serializes rebuilds only

	opts options
}

// New creates an engine for the given box and reference positions.
// The positions are copied and wrapped into the primary cell; the input
// slice is never retained or mutated. An empty reference set is valid and
// yields empty query results.
func New(b *box.Box, reference []mgl32.Vec3, optFns ...Option) (*Engine, error) {
	if b == nil {
		return nil, &box.ErrInvalidBox{Reason: "nil box"}
	}

	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	pts := make([]mgl32.Vec3, len(reference))
	for i, p := range reference {
		pts[i] = b.Wrap(p)
	}

	return &Engine{
		box:    b,
		points: pts,
		opts:   opts,
	}, nil
}

// Box returns the engine's box.
func (e *Engine) Box() *box.Box { return e.box }

// NumPoints returns the number of reference points.
func (e *Engine) NumPoints() int { return len(e.points) }

// Points returns the wrapped reference positions. The returned slice is
// shared and must be treated as read-only.
func (e *Engine) Points() []mgl32.Vec3 { return e.points }

// defaultCellSize is the density-based cell edge length: roughly one
// reference point per cell. It keeps k-NN ring expansion cheap and bounds
// grid memory when no explicit radius dictates the size.
func (e *Engine) defaultCellSize() float32 {
	if e.opts.cellSize > 0 {
		return e.opts.cellSize
	}

	n := len(e.points)
	if n < 1 {
		n = 1
	}
	v := float64(e.box.Volume()) / float64(n)
	if e.box.Is2D() {
		return float32(math.Sqrt(v))
	}
	return float32(math.Cbrt(v))
}

// gridFor returns a grid whose cell edge length is at least minCellSize,
// rebuilding and republishing the cached grid when the current one is too
// fine. Rebuilds complete fully before the new grid becomes visible.
func (e *Engine) gridFor(minCellSize float32) *cells.Grid {
	if g := e.grid.Load(); g != nil && g.CellSize() >= minCellSize {
		return g
	}

	e.gridMu.Lock()
	defer e.gridMu.Unlock()

	if g := e.grid.Load(); g != nil && g.CellSize() >= minCellSize {
		return g
	}

	start := time.Now()
	g := cells.Build(e.box, e.points, minCellSize)
	e.grid.Store(g)

	dur := time.Since(start)
	e.opts.metrics.RecordBuild(g.NumPoints(), g.NumCells(), dur)
	e.opts.logger.Debug("cell grid built",
		"points", g.NumPoints(),
		"cells", g.NumCells(),
		"dims", g.Dims(),
		"cell_size", g.CellSize(),
		"duration", dur,
	)

	return g
}
