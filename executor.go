// This file implements the two-pass parallel executor.
//
// Pass 1 runs every query point in count-only mode; a prefix sum over the
// counts assigns each point an exclusive range of one preallocated bond
// buffer; pass 2 re-runs the points and writes into those disjoint ranges.
// No locks or atomics are needed and the output ordering depends only on
// query index and intra-point distance ordering, never on scheduling.
package neargo

import (
	"context"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/neargo/internal/engine"
	"github.com/hupe1980/neargo/model"
)

func (e *Engine) execute(ctx context.Context, query []mgl32.Vec3, selfSet bool, spec model.Spec) (list *NeighborList, err error) {
	start := time.Now()
	defer func() {
		bonds := 0
		if list != nil {
			bonds = list.Len()
		}
		e.opts.metrics.RecordQuery(spec.Mode, len(query), bonds, time.Since(start), err)
	}()

	minCell := e.defaultCellSize()
	if spec.Mode == model.ModeBall && spec.RMax > minCell {
		minCell = spec.RMax
	}
	grid := e.gridFor(minCell)
	eng := engine.New(e.box, grid, e.points)

	nq := len(query)
	if nq == 0 || (len(e.points) == 0 && spec.Mode == model.ModeBall) {
		return emptyNeighborList(nq, selfSet), nil
	}

	// Two-set query points have not passed through the engine snapshot and
	// may lie outside the primary cell.
	wrapped := query
	if !selfSet {
		wrapped = make([]mgl32.Vec3, nq)
		for i, q := range query {
			wrapped[i] = e.box.Wrap(q)
		}
	}

	counts := make([]int, nq)
	var short []bool
	if spec.Mode == model.ModeKNN {
		short = make([]bool, nq)
	}

	// Pass 1: count-only. Workers write to disjoint count entries.
	err = e.runPass(ctx, nq, func(s *engine.Searcher, i int) {
		switch spec.Mode {
		case model.ModeBall:
			counts[i] = eng.Ball(s, uint32(i), wrapped[i], spec, nil)
		case model.ModeKNN:
			counts[i], short[i] = eng.KNN(s, uint32(i), wrapped[i], spec, nil)
		}
	}, eng)
	if err != nil {
		return nil, err
	}

	// Prefix sum: exclusive output range per query point.
	offsets := make([]int, nq+1)
	for i := 0; i < nq; i++ {
		offsets[i+1] = offsets[i] + counts[i]
	}

	// Pass 2: fill disjoint ranges of one preallocated bond arena.
	bonds := make([]model.Bond, offsets[nq])
	err = e.runPass(ctx, nq, func(s *engine.Searcher, i int) {
		out := bonds[offsets[i]:offsets[i+1]]
		switch spec.Mode {
		case model.ModeBall:
			eng.Ball(s, uint32(i), wrapped[i], spec, out)
		case model.ModeKNN:
			eng.KNN(s, uint32(i), wrapped[i], spec, out)
		}
	}, eng)
	if err != nil {
		return nil, err
	}

	list = &NeighborList{
		numQuery: nq,
		bonds:    bonds,
		offsets:  offsets,
		selfSet:  selfSet,
	}
	for i, s := range short {
		if s {
			list.insufficient = append(list.insufficient, uint32(i))
		}
	}

	if spec.Mutual {
		list, err = list.Symmetrize()
		if err != nil {
			return nil, err
		}
	}

	e.opts.logger.Debug("query executed",
		"mode", spec.Mode.String(),
		"query_points", nq,
		"bonds", list.Len(),
		"insufficient", len(list.insufficient),
		"duration", time.Since(start),
	)

	return list, nil
}

// runPass fans fn over the query index range using contiguous,
// non-overlapping partitions on a fixed number of workers. Each worker owns
// one Searcher scratch for its whole partition. Cancellation is observed
// between partitions only; a running partition always completes.
func (e *Engine) runPass(ctx context.Context, n int, fn func(s *engine.Searcher, i int), eng *engine.Engine) error {
	workers := e.opts.workers
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	chunk := (n + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := min(start+chunk, n)
		if start >= end {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s := eng.NewSearcher()
			for i := start; i < end; i++ {
				fn(s, i)
			}
			return nil
		})
	}
	return g.Wait()
}
