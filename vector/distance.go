package vector

import "math"

// SquaredL2 returns the squared Euclidean distance between a and b. It is
// order-equivalent to L2 and is what neighbor selection compares. Callers
// must pass vectors of equal length.
func SquaredL2(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Euclidean returns the Euclidean distance between a and b. Every index
// scores candidates with it, so equal inputs give bit-identical distances.
// Callers must pass vectors of equal length.
func Euclidean(a, b []float64) float64 {
	return math.Sqrt(SquaredL2(a, b))
}

// Finite reports whether every coordinate of v is a finite number.
func Finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Clone returns a copy of v that shares no memory with it.
func Clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
