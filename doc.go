// Package neargo is a spatial neighbor-query engine for point sets embedded
// in periodic, possibly triclinic simulation boxes.
//
// Given a box and a reference point set, neargo answers "which points are
// near which other points" with full periodic-boundary wraparound and box
// skew handling:
//
//   - Ball queries: all neighbors with r_min <= distance < r_max, or only
//     the single closest in-range neighbor per query point
//   - k-NN queries: the k closest neighbors per query point, with adaptive
//     cell-ring expansion
//
// Results are returned as an immutable NeighborList ordered by query index
// and distance, independent of worker count and scheduling.
//
// # Quick start
//
//	bx, err := box.New(10, 10, 10)
//	if err != nil {
//	    panic(err)
//	}
//
//	e, err := neargo.New(bx, points)
//	if err != nil {
//	    panic(err)
//	}
//
//	list, err := e.SelfQuery().Ball(1.5).Execute(ctx)
//	for _, b := range list.Bonds(0) {
//	    fmt.Println(b.Neighbor, b.Distance)
//	}
//
// k-NN with mutual symmetrization:
//
//	list, err := e.SelfQuery().KNN(6).Mutual().Execute(ctx)
//
// The engine builds a cell-list acceleration structure once per reference
// set and search radius, then fans per-point queries across a fixed worker
// pool using a two-pass count/fill strategy: every query point gets a
// precomputed disjoint range of the output buffer, so the parallel fill
// needs no locks and the result ordering is deterministic.
package neargo
