// Package vector holds the feature-vector primitives shared by the
// classifier, its indexes and the SQLite training-set store:
//   - Euclidean and squared-Euclidean distance
//   - finiteness validation and copying
//   - Feature-vector encoding (BLOB) for SQLite storage
package vector
