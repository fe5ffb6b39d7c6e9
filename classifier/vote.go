package classifier

import "github.com/viant/knn/index"

// vote returns the most frequent label among neighbors. On equal counts the
// label that first occurs in neighbor order wins; label values are never
// compared for ordering. neighbors must be non-empty.
func vote[L comparable](labels []L, neighbors []index.Neighbor) L {
	counts := make(map[L]int, len(neighbors))
	order := make([]L, 0, len(neighbors))
	for _, n := range neighbors {
		l := labels[n.Index]
		if _, seen := counts[l]; !seen {
			order = append(order, l)
		}
		counts[l]++
	}
	best := order[0]
	for _, l := range order[1:] {
		if counts[l] > counts[best] {
			best = l
		}
	}
	return best
}
