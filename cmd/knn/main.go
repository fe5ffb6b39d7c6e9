package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/viant/knn/classifier"
	"github.com/viant/knn/dataset"
	"github.com/viant/knn/engine"
	"github.com/viant/knn/index"
	"github.com/viant/knn/internal/console"
)

type config struct {
	k         int
	db        string
	table     string
	seed      bool
	index     string
	width     int
	height    int
	explain   bool
	cacheSize int
	logLevel  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "knn:", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (*config, error) {
	cfg := &config{}
	fs := flag.NewFlagSet("knn", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&cfg.k, "k", 3, "number of neighbors consulted per prediction")
	fs.StringVar(&cfg.db, "db", "", "SQLite database holding the training set (default: built-in clusters)")
	fs.StringVar(&cfg.table, "table", dataset.DefaultTable, "training-point table inside -db")
	fs.BoolVar(&cfg.seed, "seed", false, "store the built-in clusters into -table when it is empty")
	fs.StringVar(&cfg.index, "index", "brute", "index kind (brute|cover|auto) or comma separated key=value index options")
	fs.IntVar(&cfg.width, "width", console.DefaultWidth, "maximum x coordinate")
	fs.IntVar(&cfg.height, "height", console.DefaultHeight, "maximum y coordinate")
	fs.BoolVar(&cfg.explain, "explain", false, "print the neighbors behind every prediction")
	fs.IntVar(&cfg.cacheSize, "cache", 0, "prediction memo size (0 disables)")
	fs.StringVar(&cfg.logLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.width < 0 || cfg.height < 0 {
		return nil, fmt.Errorf("invalid bounds %dx%d", cfg.width, cfg.height)
	}
	return cfg, nil
}

// indexOptions accepts either a bare kind ("cover") or key=value pairs
// ("index=cover,cover_base=1.5").
func indexOptions(value string) (index.Options, error) {
	if !strings.Contains(value, "=") {
		if _, ok := index.ParseKind(value); !ok {
			return index.Options{}, fmt.Errorf("unknown index kind %q", value)
		}
		value = "index=" + value
	}
	return index.ParseOptions(strings.Split(value, ",")), nil
}

func newLogger(level string, w io.Writer) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})), nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.logLevel, stderr)
	if err != nil {
		return err
	}
	opts, err := indexOptions(cfg.index)
	if err != nil {
		return err
	}

	source, closeSource, err := openSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	vectors, labels, err := source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load training set: %w", err)
	}

	clf, err := classifier.New[int64](cfg.k,
		classifier.WithIndexOptions(opts),
		classifier.WithCacheSize(cfg.cacheSize),
		classifier.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	if err := clf.Fit(vectors, labels); err != nil {
		return err
	}
	logger.Info("classifier ready", "points", clf.Len(), "k", clf.K(), "index", clf.IndexKind())

	session := console.NewSession(clf, stdin, stdout,
		console.WithBounds(cfg.width, cfg.height),
		console.WithExplain(cfg.explain),
		console.WithLogger(logger),
	)
	return session.Run(ctx)
}

func openSource(ctx context.Context, cfg *config, logger *slog.Logger) (dataset.Source, func(), error) {
	if cfg.db == "" {
		return dataset.Clusters(), func() {}, nil
	}
	db, err := engine.OpenWithFunctions(cfg.db)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", cfg.db, err)
	}
	closeDB := func() { _ = db.Close() }
	store, err := dataset.NewSQLiteStore(ctx, db, cfg.table)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	if cfg.seed {
		n, err := store.Count(ctx)
		if err != nil {
			closeDB()
			return nil, nil, err
		}
		if n == 0 {
			if _, err := store.Add(ctx, dataset.Clusters().Points); err != nil {
				closeDB()
				return nil, nil, fmt.Errorf("seed %s: %w", cfg.table, err)
			}
			logger.Info("seeded training set", "table", cfg.table)
		}
	}
	return store, closeDB, nil
}
