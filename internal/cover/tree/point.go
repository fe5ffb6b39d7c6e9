package tree

// Point represents a vector in the cover tree.
type Point struct {
	index  int32
	Vector []float64
}

// Index returns the insertion index assigned by Tree.Insert, -1 when the
// point has not been inserted.
func (p *Point) Index() int {
	if p == nil {
		return -1
	}
	return int(p.index)
}

// NewPoint constructs a point for the given vector.
func NewPoint(vector ...float64) *Point {
	return &Point{index: -1, Vector: vector}
}
