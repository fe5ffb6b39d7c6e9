package classifier

import (
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/viant/knn/index"
	"github.com/viant/knn/index/bruteforce"
	"github.com/viant/knn/index/cover"
	"github.com/viant/knn/vector"
)

// Classifier labels a query by majority vote among its k nearest training
// points under Euclidean distance.
//
// Fit and Configure take an exclusive lock; predictions share a read lock,
// so one fitted Classifier can serve concurrent callers.
type Classifier[L comparable] struct {
	mu     sync.RWMutex // guards everything below
	k      int
	dim    int
	labels []L
	index  index.Index
	kind   index.Kind
	memo   *memo[L]

	options *options
	logger  *slog.Logger
}

// New creates an unfitted Classifier consulting k neighbors.
func New[L comparable](k int, opts ...Option) (*Classifier[L], error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	m, err := newMemo[L](o.cacheSize)
	if err != nil {
		return nil, err
	}
	return &Classifier[L]{
		k:       k,
		memo:    m,
		options: o,
		logger:  o.logger,
	}, nil
}

// Configure sets the neighbor count. It does not touch the training data;
// a k larger than the training set surfaces at prediction time.
func (c *Classifier[L]) Configure(k int) error {
	if k <= 0 {
		return ErrInvalidK
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.k = k
	c.memo.purge()
	return nil
}

// Fit stores the training vectors and their parallel labels, replacing any
// previous training data. The data is copied; later changes to the caller's
// slices have no effect.
func (c *Classifier[L]) Fit(vectors [][]float64, labels []L) error {
	if len(vectors) != len(labels) {
		return invalidTrainingData("%d vectors, %d labels", len(vectors), len(labels))
	}
	if len(vectors) == 0 {
		return invalidTrainingData("empty training set")
	}
	dim, err := index.ValidateVectors(vectors)
	if err != nil {
		return invalidTrainingData("%v", err)
	}
	for j, v := range vectors {
		if !vector.Finite(v) {
			return invalidTrainingData("vector %d has non-finite coordinates", j)
		}
	}

	kind := c.options.index.Resolve(len(vectors), dim)
	idx := newIndex(kind, c.options.index)
	if err := idx.Build(vectors); err != nil {
		return invalidTrainingData("%v", err)
	}
	lbls := make([]L, len(labels))
	copy(lbls, labels)

	c.mu.Lock()
	c.index = idx
	c.kind = kind
	c.labels = lbls
	c.dim = dim
	c.memo.purge()
	c.mu.Unlock()

	c.logger.Debug("knn fitted", "count", len(lbls), "dimension", dim, "index", string(kind))
	return nil
}

func newIndex(kind index.Kind, opts index.Options) index.Index {
	if kind == index.KindCover {
		return cover.New(cover.WithBase(opts.CoverBase), cover.WithBestFirst(opts.CoverBestFirst))
	}
	return bruteforce.New()
}

// PredictOne returns the label voted by the k nearest training points.
func (c *Classifier[L]) PredictOne(query []float64) (L, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var zero L
	if err := c.validate(query); err != nil {
		c.logger.Debug("knn predict rejected", "k", c.k, "error", err)
		return zero, err
	}
	return c.predict(query)
}

// PredictBatch classifies queries in input order. It fails fast: every query
// is validated before any is classified, and the first invalid one fails the
// whole call with a *BatchError and no partial result.
func (c *Classifier[L]) PredictBatch(queries [][]float64) ([]L, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i, q := range queries {
		if err := c.validate(q); err != nil {
			c.logger.Debug("knn batch rejected", "k", c.k, "query", i, "error", err)
			return nil, &BatchError{Index: i, Err: err}
		}
	}
	out := make([]L, len(queries))
	if c.options.batchWorkers <= 1 || len(queries) < 2 {
		for i, q := range queries {
			label, err := c.predict(q)
			if err != nil {
				return nil, &BatchError{Index: i, Err: err}
			}
			out[i] = label
		}
		return out, nil
	}

	var g errgroup.Group
	g.SetLimit(c.options.batchWorkers)
	for i, q := range queries {
		g.Go(func() error {
			label, err := c.predict(q)
			if err != nil {
				return &BatchError{Index: i, Err: err}
			}
			out[i] = label
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Neighbors returns the k training points selected for query, in selection
// order: ascending distance, ties by insertion index.
func (c *Classifier[L]) Neighbors(query []float64) ([]index.Neighbor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.validate(query); err != nil {
		return nil, err
	}
	neighbors, err := c.index.Query(query, c.k)
	if err != nil {
		return nil, fmt.Errorf("knn: neighbor query failed: %w", err)
	}
	return neighbors, nil
}

// Label returns the training label at insertion index i.
func (c *Classifier[L]) Label(i int) (L, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var zero L
	if i < 0 || i >= len(c.labels) {
		return zero, false
	}
	return c.labels[i], true
}

// Explanation is a prediction together with the neighbors that voted for it.
// Labels[i] is the training label of Neighbors[i].
type Explanation[L comparable] struct {
	Label     L
	Neighbors []index.Neighbor
	Labels    []L
}

// Explain classifies query and reports the voting neighbors from one read of
// the model, so a concurrent Fit cannot mix two training sets in the result.
func (c *Classifier[L]) Explain(query []float64) (Explanation[L], error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.validate(query); err != nil {
		return Explanation[L]{}, err
	}
	neighbors, err := c.index.Query(query, c.k)
	if err != nil {
		return Explanation[L]{}, fmt.Errorf("knn: neighbor query failed: %w", err)
	}
	labels := make([]L, len(neighbors))
	for i, n := range neighbors {
		labels[i] = c.labels[n.Index]
	}
	return Explanation[L]{Label: vote(c.labels, neighbors), Neighbors: neighbors, Labels: labels}, nil
}

// validate checks every precondition of a prediction. Caller holds mu.
func (c *Classifier[L]) validate(query []float64) error {
	if c.index == nil {
		return ErrNotFitted
	}
	if len(query) != c.dim {
		return &ErrDimensionMismatch{Expected: c.dim, Actual: len(query)}
	}
	if !vector.Finite(query) {
		return ErrInvalidQuery
	}
	if c.k > len(c.labels) {
		return &ErrInsufficientNeighbors{K: c.k, Size: len(c.labels)}
	}
	return nil
}

// predict classifies a validated query. Caller holds mu.
func (c *Classifier[L]) predict(query []float64) (L, error) {
	if label, ok := c.memo.get(query); ok {
		return label, nil
	}
	var zero L
	neighbors, err := c.index.Query(query, c.k)
	if err != nil {
		return zero, fmt.Errorf("knn: neighbor query failed: %w", err)
	}
	label := vote(c.labels, neighbors)
	c.memo.add(query, label)
	return label, nil
}

// K returns the configured neighbor count.
func (c *Classifier[L]) K() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.k
}

// Len returns the training set size, 0 before Fit.
func (c *Classifier[L]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.labels)
}

// Dimension returns the training dimension, 0 before Fit.
func (c *Classifier[L]) Dimension() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dim
}

// Fitted reports whether Fit has succeeded at least once.
func (c *Classifier[L]) Fitted() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index != nil
}

// IndexKind returns the index kind chosen by the last Fit.
func (c *Classifier[L]) IndexKind() index.Kind {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.kind
}
