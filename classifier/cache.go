package classifier

import (
	"encoding/binary"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
)

// memo caches predicted labels by query. A nil memo is a valid, disabled one.
type memo[L comparable] struct {
	cache *lru.Cache[string, L]
}

func newMemo[L comparable](size int) (*memo[L], error) {
	if size <= 0 {
		return nil, nil
	}
	cache, err := lru.New[string, L](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &memo[L]{cache: cache}, nil
}

func (m *memo[L]) get(query []float64) (L, bool) {
	if m == nil {
		var zero L
		return zero, false
	}
	return m.cache.Get(memoKey(query))
}

func (m *memo[L]) add(query []float64, label L) {
	if m == nil {
		return
	}
	m.cache.Add(memoKey(query), label)
}

func (m *memo[L]) purge() {
	if m == nil {
		return
	}
	m.cache.Purge()
}

func (m *memo[L]) len() int {
	if m == nil {
		return 0
	}
	return m.cache.Len()
}

// memoKey encodes the exact bit pattern of every coordinate.
func memoKey(query []float64) string {
	b := make([]byte, 8*len(query))
	for i, x := range query {
		binary.LittleEndian.PutUint64(b[i*8:], math.Float64bits(x))
	}
	return string(b)
}
