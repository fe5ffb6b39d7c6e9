package tree

// This implementation is adapted from github.com/viant/gds/tree/cover.

import (
	"container/heap"
	"math"
	"sort"

	"github.com/viant/knn/index"
)

// Tree is a cover tree answering exact Euclidean kNN queries. Pruning uses
// the per-node subtree radius, which is a valid bound for any tree shape, so
// results are exact regardless of insertion order. Sealing after the last
// Insert computes those radii; queries on an unsealed tree seal it first.
//
// A Tree is not safe for concurrent Insert; concurrent queries on a sealed
// tree are safe.
type Tree struct {
	root         *Node
	base         float64
	distanceFunc DistanceFunc
	size         int
	sealed       bool
}

// NewTree constructs a cover tree with the provided level base.
func NewTree(base float64) *Tree {
	if base <= 1 {
		base = index.DefaultCoverBase
	}
	return &Tree{
		base:         base,
		distanceFunc: EuclideanDistance,
	}
}

// Len returns the number of inserted points.
func (t *Tree) Len() int { return t.size }

// Insert adds a point to the tree and returns its insertion index.
func (t *Tree) Insert(point *Point) int32 {
	point.index = int32(t.size)
	t.size++
	t.sealed = false
	if t.root == nil {
		node := NewNode(point, 0, t.base)
		t.root = &node
		return point.index
	}
	t.insert(point)
	return point.index
}

func (t *Tree) insert(point *Point) {
	node := t.root
	if d := t.distanceFunc(point.Vector, node.point.Vector); d >= node.baseLevel {
		// An overflowing distance stops at the first level whose radius is +Inf.
		level := node.level
		for r := t.levelRadius(level); d >= r && !math.IsInf(r, 1); r = t.levelRadius(level) {
			level++
		}
		newRoot := NewNode(point, level, t.base)
		newRoot.children = append(newRoot.children, *t.root)
		t.root = &newRoot
		return
	}
	for {
		var next *Node
		for i := range node.children {
			child := &node.children[i]
			if t.distanceFunc(point.Vector, child.point.Vector) < child.baseLevel {
				next = child
				break
			}
		}
		if next == nil {
			node.children = append(node.children, NewNode(point, node.level-1, t.base))
			return
		}
		node = next
	}
}

func (t *Tree) levelRadius(level int32) float64 {
	return math.Pow(t.base, float64(level))
}

// Seal computes the subtree radii used for pruning.
func (t *Tree) Seal() {
	if t.sealed {
		return
	}
	if t.root != nil {
		t.ensureRadius(t.root)
	}
	t.sealed = true
}

func (t *Tree) ensureRadius(n *Node) float64 {
	maxR := 0.0
	for i := range n.children {
		child := &n.children[i]
		cr := t.ensureRadius(child)
		d := t.distanceFunc(n.point.Vector, child.point.Vector) + cr
		if d > maxR {
			maxR = d
		}
	}
	n.radius = maxR
	return maxR
}

// KNearestNeighbors runs a depth-first kNN search and returns the neighbors
// ordered by (distance, insertion index).
func (t *Tree) KNearestNeighbors(query []float64, k int) []index.Neighbor {
	if t.root == nil || k <= 0 {
		return nil
	}
	t.Seal()
	h := make(index.Neighbors, 0, k)
	t.kNearestNeighbors(t.root, t.distanceFunc(query, t.root.point.Vector), query, k, &h)
	return h.Sorted()
}

func (t *Tree) kNearestNeighbors(node *Node, dc float64, query []float64, k int, h *index.Neighbors) {
	h.Offer(index.Neighbor{Index: int(node.point.index), Distance: dc}, k)
	if len(node.children) == 0 {
		return
	}
	type childDist struct {
		child *Node
		dist  float64
	}
	cds := make([]childDist, 0, len(node.children))
	for i := range node.children {
		child := &node.children[i]
		cds = append(cds, childDist{child: child, dist: t.distanceFunc(query, child.point.Vector)})
	}
	sort.Slice(cds, func(i, j int) bool { return cds[i].dist < cds[j].dist })
	for _, cd := range cds {
		if worst, ok := h.Worst(); ok && h.Len() == k && prunable(cd.dist, cd.child.radius, worst.Distance) {
			continue
		}
		t.kNearestNeighbors(cd.child, cd.dist, query, k, h)
	}
}

// KNearestNeighborsBestFirst performs a best-first search with a node
// priority queue ordered by the subtree lower bound.
func (t *Tree) KNearestNeighborsBestFirst(query []float64, k int) []index.Neighbor {
	if t.root == nil || k <= 0 {
		return nil
	}
	t.Seal()
	nh := make(index.Neighbors, 0, k)
	pq := &nodeQueue{}
	heap.Init(pq)
	rootDist := t.distanceFunc(query, t.root.point.Vector)
	heap.Push(pq, nodeItem{node: t.root, lb: rootDist - t.root.radius, centerDist: rootDist})

	for pq.Len() > 0 {
		top := heap.Pop(pq).(nodeItem)
		if worst, ok := nh.Worst(); ok && nh.Len() == k && prunable(top.centerDist, top.node.radius, worst.Distance) {
			continue
		}
		nh.Offer(index.Neighbor{Index: int(top.node.point.index), Distance: top.centerDist}, k)
		for i := range top.node.children {
			child := &top.node.children[i]
			cd := t.distanceFunc(query, child.point.Vector)
			if worst, ok := nh.Worst(); ok && nh.Len() == k && prunable(cd, child.radius, worst.Distance) {
				continue
			}
			heap.Push(pq, nodeItem{node: child, lb: cd - child.radius, centerDist: cd})
		}
	}
	return nh.Sorted()
}

type nodeItem struct {
	node       *Node
	lb         float64
	centerDist float64
}

type nodeQueue []nodeItem

func (q nodeQueue) Len() int            { return len(q) }
func (q nodeQueue) Less(i, j int) bool  { return q[i].lb < q[j].lb }
func (q nodeQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x interface{}) { *q = append(*q, x.(nodeItem)) }
func (q *nodeQueue) Pop() interface{} {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}
