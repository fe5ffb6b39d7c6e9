package index

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrEmpty is returned when an index is queried before Build.
	ErrEmpty = errors.New("index is empty")
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ValidateVectors checks that vectors is non-empty and rectangular with a
// positive dimension, returning that dimension.
func ValidateVectors(vectors [][]float64) (int, error) {
	if len(vectors) == 0 {
		return 0, errors.New("no vectors")
	}
	dim := len(vectors[0])
	if dim == 0 {
		return 0, errors.New("vector 0 has zero dimension")
	}
	for j := range vectors {
		if len(vectors[j]) != dim {
			return 0, fmt.Errorf("inconsistent vector dims %d vs %d at %d", len(vectors[j]), dim, j)
		}
	}
	return dim, nil
}
