package neargo

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidK is returned when a k-NN query requests k <= 0.
	ErrInvalidK = errors.New("k must be positive")

	// ErrNoQueryMode is returned when Execute is called before Ball or KNN.
	ErrNoQueryMode = errors.New("query mode not set: call Ball or KNN")

	// ErrAsymmetricSets is returned when mutual symmetrization is requested
	// for a query against a reference set that is not the query set itself.
	ErrAsymmetricSets = errors.New("mutual symmetrization requires query and reference points to be the same set")

	// ErrUnsortedBonds is returned when constructing a neighbor list from
	// bonds that violate the (query index, distance) ordering.
	ErrUnsortedBonds = errors.New("bonds must be ordered by query index, then distance")
)

// ErrInvalidRange indicates an invalid ball-query distance range.
type ErrInvalidRange struct {
	RMin float32
	RMax float32
}

// Error returns the error message for an invalid range.
func (e *ErrInvalidRange) Error() string {
	return fmt.Sprintf("invalid search range [%g, %g): r_max must be positive and r_min < r_max", e.RMin, e.RMax)
}
