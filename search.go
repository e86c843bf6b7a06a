// This file implements the fluent query API.
package neargo

import (
	"context"
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/hupe1980/neargo/model"
)

// SelfQuery creates a query builder that uses the reference points as query
// points. Self-exclusion defaults to true: a point does not count as its own
// neighbor unless ExcludeSelf(false) is called.
//
// Example:
//
//	list, err := e.SelfQuery().
//	    Ball(1.5).
//	    RMin(0.5).
//	    Execute(ctx)
func (e *Engine) SelfQuery() *QueryBuilder {
	return &QueryBuilder{
		e:       e,
		selfSet: true,
		spec:    model.Spec{ExcludeSelf: true},
	}
}

// Query creates a query builder for a separate set of query points.
// Self-exclusion does not apply: query and reference indices live in
// different sets, so no candidate is ever excluded as "self".
func (e *Engine) Query(points []mgl32.Vec3) *QueryBuilder {
	return &QueryBuilder{
		e:     e,
		query: points,
	}
}

// QueryBuilder is a fluent builder for constructing neighbor queries.
// The query specification is resolved once per Execute; the per-point hot
// loop never dispatches on it dynamically.
type QueryBuilder struct {
	e       *Engine
	query   []mgl32.Vec3
	selfSet bool
	modeSet bool
	spec    model.Spec
}

// Ball selects a ball query: all neighbors with distance < rMax
// (and >= the optional RMin lower bound).
func (qb *QueryBuilder) Ball(rMax float32) *QueryBuilder {
	qb.spec.Mode = model.ModeBall
	qb.spec.RMax = rMax
	qb.modeSet = true
	return qb
}

// RMin sets the lower distance bound of a ball query. Bonds satisfy
// rMin <= distance < rMax.
func (qb *QueryBuilder) RMin(rMin float32) *QueryBuilder {
	qb.spec.RMin = rMin
	return qb
}

// Nearest restricts a ball query to the single closest in-range neighbor
// per query point.
func (qb *QueryBuilder) Nearest() *QueryBuilder {
	qb.spec.NearestOnly = true
	return qb
}

// KNN selects a k-nearest-neighbor query.
func (qb *QueryBuilder) KNN(k int) *QueryBuilder {
	qb.spec.Mode = model.ModeKNN
	qb.spec.K = k
	qb.modeSet = true
	return qb
}

// ExcludeSelf controls whether a point counts as its own neighbor when the
// query set is the reference set. It has no effect on two-set queries.
func (qb *QueryBuilder) ExcludeSelf(exclude bool) *QueryBuilder {
	qb.spec.ExcludeSelf = exclude
	return qb
}

// Mutual requests symmetrization of the result: if A is B's neighbor, B
// becomes A's neighbor too. Only valid for self queries.
func (qb *QueryBuilder) Mutual() *QueryBuilder {
	qb.spec.Mutual = true
	return qb
}

// Filter restricts candidate reference points. Only points where
// filter(id) returns true are considered.
func (qb *QueryBuilder) Filter(fn func(id uint32) bool) *QueryBuilder {
	qb.spec.Filter = fn
	return qb
}

// FilterBitmap restricts candidate reference points to the members of a
// roaring bitmap.
func (qb *QueryBuilder) FilterBitmap(rb *roaring.Bitmap) *QueryBuilder {
	if rb == nil {
		qb.spec.Filter = nil
		return qb
	}
	qb.spec.Filter = rb.Contains
	return qb
}

// validate checks call-level parameters before any work starts.
func (qb *QueryBuilder) validate() error {
	if !qb.modeSet {
		return ErrNoQueryMode
	}

	switch qb.spec.Mode {
	case model.ModeBall:
		if qb.spec.RMax <= 0 || qb.spec.RMin < 0 || qb.spec.RMin >= qb.spec.RMax {
			return &ErrInvalidRange{RMin: qb.spec.RMin, RMax: qb.spec.RMax}
		}
	case model.ModeKNN:
		if qb.spec.K <= 0 {
			return ErrInvalidK
		}
	}

	if qb.spec.Mutual && !qb.selfSet {
		return ErrAsymmetricSets
	}

	return nil
}

// Execute runs the query and returns the neighbor list.
//
// Call-level parameter errors abort before any work starts. Per-point
// degraded k-NN results (fewer than k candidates exist) never fail the
// call; they are reported via NeighborList.Insufficient.
func (qb *QueryBuilder) Execute(ctx context.Context) (*NeighborList, error) {
	if err := qb.validate(); err != nil {
		return nil, err
	}

	spec := qb.spec
	if !qb.selfSet {
		spec.ExcludeSelf = false
	}

	query := qb.query
	if qb.selfSet {
		query = qb.e.points
	}

	return qb.e.execute(ctx, query, qb.selfSet, spec)
}

// MustExecute runs the query, panicking on error.
// Use this only in tests or when the query is known to be valid.
func (qb *QueryBuilder) MustExecute(ctx context.Context) *NeighborList {
	list, err := qb.Execute(ctx)
	if err != nil {
		panic(err)
	}
	return list
}

// Stream returns an iterator over the resulting bonds for range-over-func
// consumption. The query still executes as one batch before the first bond
// is yielded; a call-level error is yielded once with a zero bond.
func (qb *QueryBuilder) Stream(ctx context.Context) iter.Seq2[model.Bond, error] {
	return func(yield func(model.Bond, error) bool) {
		list, err := qb.Execute(ctx)
		if err != nil {
			yield(model.Bond{}, err)
			return
		}
		for _, b := range list.bonds {
			if !yield(b, nil) {
				return
			}
		}
	}
}
