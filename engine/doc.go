// Package engine provides helpers for working with the modernc.org/sqlite
// driver in this module: opening connections and registering the vec_l2 and
// vec_dim SQL scalar functions over feature-vector BLOBs.
package engine
