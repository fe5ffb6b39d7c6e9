package tree

import (
	"math"

	"github.com/viant/knn/vector"
)

// DistanceFunc computes the distance between two vectors of equal length.
type DistanceFunc func(a, b []float64) float64

// EuclideanDistance returns the Euclidean distance between two vectors. It
// evaluates exactly like the brute-force index so both produce bit-identical
// distances and therefore identical tie-breaks.
func EuclideanDistance(a, b []float64) float64 {
	return vector.Euclidean(a, b)
}

// pruneSlack is the relative tolerance added to the pruning bound. It absorbs
// rounding in the triangle-inequality estimate so that a subtree holding a
// point tied with the current worst candidate is never skipped.
const pruneSlack = 1e-9

// prunable reports whether a subtree whose center is at distance d from the
// query, with subtree radius r, cannot contain a point at distance <= worst.
func prunable(d, r, worst float64) bool {
	if math.IsInf(r, 1) {
		return false
	}
	return d-r > worst+pruneSlack*(d+r+worst)
}
