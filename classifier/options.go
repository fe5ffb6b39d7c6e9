package classifier

import (
	"log/slog"

	"github.com/viant/knn/index"
)

type options struct {
	index     index.Options
	logger    *slog.Logger
	cacheSize int

	batchWorkers int
}

func defaultOptions() *options {
	return &options{
		index:  index.DefaultOptions(),
		logger: slog.New(slog.DiscardHandler),
	}
}

// Option configures a Classifier.
type Option func(*options)

// WithIndex selects the neighbor index kind, keeping other index options.
func WithIndex(kind index.Kind) Option {
	return func(o *options) {
		o.index.Kind = kind
	}
}

// WithIndexOptions replaces the index options, e.g. the result of
// index.ParseOptions. A zero CoverBase keeps the default.
func WithIndexOptions(opts index.Options) Option {
	return func(o *options) {
		if opts.Kind == "" {
			opts.Kind = index.KindBrute
		}
		if opts.CoverBase <= 1 {
			opts.CoverBase = index.DefaultCoverBase
		}
		o.index = opts
	}
}

// WithLogger configures structured logging. Pass nil to discard logs.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = slog.New(slog.DiscardHandler)
		}
		o.logger = logger
	}
}

// WithCacheSize enables an LRU memo of up to size predictions, keyed by the
// exact query coordinates. It is cleared on every Fit and Configure.
// size <= 0 disables it (the default).
func WithCacheSize(size int) Option {
	return func(o *options) {
		o.cacheSize = size
	}
}

// WithBatchWorkers lets PredictBatch classify up to n validated queries
// concurrently. Results stay in input order. n <= 1 keeps it sequential.
func WithBatchWorkers(n int) Option {
	return func(o *options) {
		o.batchWorkers = n
	}
}
