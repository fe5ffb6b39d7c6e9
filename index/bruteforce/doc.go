// Package bruteforce provides a simple exact index that answers kNN queries
// by scanning all vectors and scoring them by Euclidean distance. Ties are
// resolved by insertion order, matching a stable sort of the whole set.
package bruteforce
