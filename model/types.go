// Package model defines the value types shared between the query engine and
// the public API.
package model

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Bond is one directed query->neighbor relationship.
type Bond struct {
	// Query is the index of the query point.
	Query uint32
	// Neighbor is the index of the found reference point.
	Neighbor uint32
	// Distance is the minimum-image norm of Delta.
	Distance float32
	// Delta is the minimum-image displacement from the query point to the
	// neighbor.
	Delta mgl32.Vec3
	// Weight is the bond weight, 1.0 unless a caller assigns otherwise.
	Weight float32
}

// Less orders bonds by (Query, Distance, Neighbor) ascending. This is the
// canonical neighbor-list ordering.
func (b Bond) Less(other Bond) bool {
	if b.Query != other.Query {
		return b.Query < other.Query
	}
	if b.Distance != other.Distance {
		return b.Distance < other.Distance
	}
	return b.Neighbor < other.Neighbor
}

// Mode selects the query algorithm. It is resolved once per call so the
// per-point hot loop stays branch-predictable.
type Mode uint8

const (
	// ModeBall finds all neighbors within a distance range.
	ModeBall Mode = iota
	// ModeKNN finds the k closest neighbors per query point.
	ModeKNN
)

// String returns a string representation of the Mode.
func (m Mode) String() string {
	switch m {
	case ModeBall:
		return "Ball"
	case ModeKNN:
		return "KNN"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Spec is one fully-resolved query specification.
type Spec struct {
	Mode Mode

	// RMax and RMin bound ball queries to RMin <= d < RMax.
	RMax float32
	RMin float32

	// K is the neighbor count for k-NN queries.
	K int

	// ExcludeSelf drops the bond (i, i) when query and reference points are
	// the same set.
	ExcludeSelf bool

	// NearestOnly restricts a ball query to the single closest in-range
	// neighbor per query point.
	NearestOnly bool

	// Mutual requests symmetrization of the result.
	Mutual bool

	// Filter optionally restricts candidate reference indices.
	Filter func(id uint32) bool
}
