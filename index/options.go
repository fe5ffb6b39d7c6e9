package index

import (
	"strconv"
	"strings"
)

// Kind names an Index implementation.
type Kind string

const (
	KindAuto  Kind = "auto"
	KindBrute Kind = "brute"
	KindCover Kind = "cover"
)

const (
	// AutoCoverMinPoints is the training-set size from which KindAuto picks
	// the cover tree over a linear scan.
	AutoCoverMinPoints = 2048
	// AutoCoverMaxDim caps the dimension for which KindAuto picks the cover
	// tree; pruning degrades as dimension grows.
	AutoCoverMaxDim = 32
	// DefaultCoverBase is the cover-tree level base.
	DefaultCoverBase = 1.3
)

// Options configures index construction.
type Options struct {
	Kind      Kind
	CoverBase float64
	// CoverBestFirst selects best-first instead of depth-first traversal.
	CoverBestFirst bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{Kind: KindBrute, CoverBase: DefaultCoverBase}
}

// ParseKind parses a kind name, accepting the aliases used by ParseOptions.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "brute", "bruteforce", "linear", "flat":
		return KindBrute, true
	case "cover", "tree":
		return KindCover, true
	case "auto", "":
		return KindAuto, true
	}
	return "", false
}

// ParseOptions parses key=value arguments on top of DefaultOptions.
// Recognized keys are index (brute|cover|auto), cover_base (> 1) and
// cover_search (depth|best).
// Unknown keys and malformed values are ignored.
func ParseOptions(args []string) Options {
	opts := DefaultOptions()
	for _, raw := range args {
		a := strings.TrimSpace(raw)
		if a == "" {
			continue
		}
		parts := strings.SplitN(a, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(parts[0]))
		val := strings.TrimSpace(parts[1])
		switch key {
		case "index":
			if kind, ok := ParseKind(val); ok {
				opts.Kind = kind
			}
		case "cover_base":
			if f, err := strconv.ParseFloat(val, 64); err == nil && f > 1 {
				opts.CoverBase = f
			}
		case "cover_search":
			switch strings.ToLower(val) {
			case "best", "best_first", "bestfirst":
				opts.CoverBestFirst = true
			case "depth", "depth_first", "dfs":
				opts.CoverBestFirst = false
			}
		}
	}
	return opts
}

// Resolve returns the concrete kind to build for a training set of n points
// of dimension dim.
func (o Options) Resolve(n, dim int) Kind {
	switch o.Kind {
	case KindBrute, KindCover:
		return o.Kind
	}
	if n >= AutoCoverMinPoints && dim <= AutoCoverMaxDim {
		return KindCover
	}
	return KindBrute
}
