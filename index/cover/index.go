package cover

import (
	"fmt"

	"github.com/viant/knn/index"
	"github.com/viant/knn/internal/cover/tree"
)

// Index implements an exact Euclidean kNN index on top of a cover tree. It
// returns exactly what the brute-force index returns, ties included.
type Index struct {
	base      float64
	bestFirst bool
	dim       int
	tree      *tree.Tree
}

// Option configures an Index.
type Option func(*Index)

// WithBase sets the cover-tree level base; values <= 1 keep the default.
func WithBase(base float64) Option {
	return func(i *Index) {
		if base > 1 {
			i.base = base
		}
	}
}

// WithBestFirst switches queries to the best-first traversal.
func WithBestFirst(enabled bool) Option {
	return func(i *Index) { i.bestFirst = enabled }
}

// New returns an empty cover index.
func New(opts ...Option) *Index {
	i := &Index{base: index.DefaultCoverBase}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Build constructs the tree from vectors, copying them.
func (i *Index) Build(vectors [][]float64) error {
	dim, err := index.ValidateVectors(vectors)
	if err != nil {
		return fmt.Errorf("cover: %w", err)
	}
	t := tree.NewTree(i.base)
	for _, v := range vectors {
		p := make([]float64, len(v))
		copy(p, v)
		t.Insert(tree.NewPoint(p...))
	}
	t.Seal()
	i.tree = t
	i.dim = dim
	return nil
}

// Query returns up to k neighbors ordered by (distance, insertion index).
func (i *Index) Query(query []float64, k int) ([]index.Neighbor, error) {
	if i.tree == nil || i.tree.Len() == 0 {
		return nil, index.ErrEmpty
	}
	if len(query) != i.dim {
		return nil, &index.ErrDimensionMismatch{Expected: i.dim, Actual: len(query)}
	}
	if k <= 0 {
		return nil, index.ErrInvalidK
	}
	if k > i.tree.Len() {
		k = i.tree.Len()
	}
	if i.bestFirst {
		return i.tree.KNearestNeighborsBestFirst(query, k), nil
	}
	return i.tree.KNearestNeighbors(query, k), nil
}

// Len returns the number of indexed points.
func (i *Index) Len() int {
	if i.tree == nil {
		return 0
	}
	return i.tree.Len()
}

// Dimension returns the vector dimension.
func (i *Index) Dimension() int { return i.dim }

var _ index.Index = (*Index)(nil)
