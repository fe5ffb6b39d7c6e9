// Package cover provides a cover-tree index behind the same contract as the
// brute-force index. Pruning is exact, so swapping one for the other changes
// query cost only, never the neighbors returned.
package cover
