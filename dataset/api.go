package dataset

import (
	"context"
)

// Point is a single labeled training point.
type Point struct {
	// Features is the feature vector.
	Features []float64

	// Label is the class of the point. Labels are compared for equality only.
	Label int64
}

// Source supplies a training set in insertion order. Insertion order is
// significant: the classifier breaks distance ties by it.
type Source interface {
	// Load returns parallel slices of feature vectors and labels.
	Load(ctx context.Context) (vectors [][]float64, labels []int64, err error)
}

// Static is an in-memory Source.
type Static struct {
	Points []Point
}

// Load returns copies of the points' vectors and their labels.
func (s *Static) Load(_ context.Context) ([][]float64, []int64, error) {
	vectors := make([][]float64, len(s.Points))
	labels := make([]int64, len(s.Points))
	for i, p := range s.Points {
		vectors[i] = append([]float64(nil), p.Features...)
		labels[i] = p.Label
	}
	return vectors, labels, nil
}

// Clusters returns the illustrative training set: three clusters of three
// points each on an 800x600 plane, labeled 0, 1 and 2.
func Clusters() *Static {
	return &Static{Points: []Point{
		{Features: []float64{100, 150}, Label: 0},
		{Features: []float64{150, 200}, Label: 0},
		{Features: []float64{200, 250}, Label: 0},
		{Features: []float64{400, 450}, Label: 1},
		{Features: []float64{450, 500}, Label: 1},
		{Features: []float64{500, 550}, Label: 1},
		{Features: []float64{100, 450}, Label: 2},
		{Features: []float64{150, 500}, Label: 2},
		{Features: []float64{200, 550}, Label: 2},
	}}
}

var (
	_ Source = (*Static)(nil)
	_ Source = (*SQLiteStore)(nil)
)
