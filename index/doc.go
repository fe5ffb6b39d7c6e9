// Package index defines a minimal abstraction for exact nearest-neighbor
// indexes that are built once from feature vectors and queried for the k
// closest points. Every implementation returns the same neighbors for the
// same input, ties included; they differ only in how much work a query does.
// Implementations in this module include a brute-force baseline and a cover
// tree.
package index
