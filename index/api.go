package index

// Index defines an exact nearest-neighbor index over a fixed set of feature
// vectors. Points are identified by their insertion position in the slice
// passed to Build.
type Index interface {
	// Build constructs the index from the given vectors. All vectors must be
	// non-empty and share one dimension. A later Build replaces prior content.
	Build(vectors [][]float64) error

	// Query returns the k points closest to query under Euclidean distance,
	// ordered by ascending distance. Equal distances are ordered by ascending
	// insertion index, so the result equals a stable sort of all points by
	// distance truncated to k.
	Query(query []float64, k int) ([]Neighbor, error)

	// Len returns the number of indexed points.
	Len() int

	// Dimension returns the dimension of the indexed vectors, 0 when empty.
	Dimension() int
}

// Neighbor is a single query hit.
type Neighbor struct {
	// Index is the insertion position of the point in the training set.
	Index int
	// Distance is the Euclidean distance from the query.
	Distance float64
}

// Less orders neighbors by distance, then by insertion index.
func Less(a, b Neighbor) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.Index < b.Index
}
