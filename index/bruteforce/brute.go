package bruteforce

import (
	"fmt"

	"github.com/viant/knn/index"
	"github.com/viant/knn/vector"
)

// Index is a brute-force Euclidean index. Each query scans every vector and
// keeps the k best candidates in a bounded heap ordered by (distance,
// insertion index).
type Index struct {
	vecs [][]float64
	dim  int
}

// New returns an empty index.
func New() *Index { return &Index{} }

// Build validates and copies the vectors.
func (i *Index) Build(vectors [][]float64) error {
	dim, err := index.ValidateVectors(vectors)
	if err != nil {
		return fmt.Errorf("bruteforce: %w", err)
	}
	vecs := make([][]float64, len(vectors))
	for j := range vectors {
		vecs[j] = vector.Clone(vectors[j])
	}
	i.vecs = vecs
	i.dim = dim
	return nil
}

// Query returns the k nearest vectors. k larger than the index is clamped.
func (i *Index) Query(query []float64, k int) ([]index.Neighbor, error) {
	if len(i.vecs) == 0 {
		return nil, index.ErrEmpty
	}
	if len(query) != i.dim {
		return nil, &index.ErrDimensionMismatch{Expected: i.dim, Actual: len(query)}
	}
	if k <= 0 {
		return nil, index.ErrInvalidK
	}
	if k > len(i.vecs) {
		k = len(i.vecs)
	}
	h := make(index.Neighbors, 0, k)
	for j := range i.vecs {
		d := vector.Euclidean(query, i.vecs[j])
		h.Offer(index.Neighbor{Index: j, Distance: d}, k)
	}
	return h.Sorted(), nil
}

// Len returns the number of indexed vectors.
func (i *Index) Len() int { return len(i.vecs) }

// Dimension returns the vector dimension.
func (i *Index) Dimension() int { return i.dim }

var _ index.Index = (*Index)(nil)
