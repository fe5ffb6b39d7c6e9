package classifier

import (
	"errors"
	"fmt"

	"github.com/viant/knn/index"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("knn: k must be positive")

	// ErrInvalidTrainingData is returned by Fit for empty, mismatched, ragged
	// or non-finite training data.
	ErrInvalidTrainingData = errors.New("knn: invalid training data")

	// ErrNotFitted is returned when a prediction precedes any successful Fit.
	ErrNotFitted = errors.New("knn: classifier is not fitted")

	// ErrInvalidQuery is returned for a query with NaN or infinite coordinates.
	ErrInvalidQuery = errors.New("knn: query has non-finite coordinates")
)

// ErrDimensionMismatch indicates that a query dimension differs from the
// training dimension.
type ErrDimensionMismatch = index.ErrDimensionMismatch

// ErrInsufficientNeighbors indicates that the configured k exceeds the number
// of training points.
type ErrInsufficientNeighbors struct {
	K    int
	Size int
}

func (e *ErrInsufficientNeighbors) Error() string {
	return fmt.Sprintf("knn: k=%d exceeds training set size %d", e.K, e.Size)
}

// BatchError reports the first invalid query of a PredictBatch call.
//
// The element's error can be accessed via errors.Unwrap, errors.Is and
// errors.As.
type BatchError struct {
	Index int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("knn: batch query %d: %v", e.Index, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

func invalidTrainingData(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTrainingData, fmt.Sprintf(format, args...))
}
