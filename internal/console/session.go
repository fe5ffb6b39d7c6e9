package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/viant/knn/classifier"
)

const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// ErrInvalidInput is matched by every InputError.
var ErrInvalidInput = errors.New("console: invalid input")

// InputError is returned for a submission that was rejected before reaching
// the classifier. Message is printed to the user as is.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

// Is reports whether target is ErrInvalidInput.
func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

var (
	errNotInteger  = &InputError{Message: "Invalid input. Please enter integer values."}
	errOutOfBounds = &InputError{Message: "Coordinates out of bounds. Please enter values within the range."}
)

// Predictor is the classifier surface the session needs.
// *classifier.Classifier[int64] satisfies it.
type Predictor interface {
	PredictOne(query []float64) (int64, error)
	Explain(query []float64) (classifier.Explanation[int64], error)
}

// Session collects test points from a reader, classifies them and reports
// the cluster to a writer.
type Session struct {
	predictor Predictor
	in        *bufio.Scanner
	out       io.Writer
	width     int
	height    int
	explain   bool
	names     map[int64]string
	logger    *slog.Logger

	announced bool
	last      int64
}

// Option configures a Session.
type Option func(*Session)

// WithBounds sets the accepted coordinate range, 0..width and 0..height.
func WithBounds(width, height int) Option {
	return func(s *Session) {
		s.width, s.height = width, height
	}
}

// WithExplain prints the selected neighbors after every classification.
func WithExplain(explain bool) Option {
	return func(s *Session) {
		s.explain = explain
	}
}

// WithNames overrides the display names of labels.
func WithNames(names map[int64]string) Option {
	return func(s *Session) {
		s.names = names
	}
}

// WithLogger configures structured logging. Pass nil to discard logs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger == nil {
			logger = slog.New(slog.DiscardHandler)
		}
		s.logger = logger
	}
}

// DefaultNames are the display names of the built-in cluster labels.
func DefaultNames() map[int64]string {
	return map[int64]string{
		0: "cluster 1 (Red cluster)",
		1: "cluster 2 (Green cluster)",
		2: "cluster 3 (Magenta cluster)",
	}
}

// NewSession creates a Session reading from in and writing to out.
func NewSession(p Predictor, in io.Reader, out io.Writer, opts ...Option) *Session {
	s := &Session{
		predictor: p,
		in:        bufio.NewScanner(in),
		out:       out,
		width:     DefaultWidth,
		height:    DefaultHeight,
		names:     DefaultNames(),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run prompts for points until the input is exhausted or ctx is done.
// Rejected input and failed classifications are reported and the loop goes on.
func (s *Session) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		point, err := s.ReadPoint()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, ErrInvalidInput) {
				fmt.Fprintln(s.out, err.Error())
				continue
			}
			return err
		}
		if _, err := s.Submit(point); err != nil {
			s.logger.Debug("classification failed", "point", point, "err", err)
			fmt.Fprintf(s.out, "Classification failed: %v\n", err)
		}
	}
}

// ReadPoint prompts for x and y, validates them and returns the feature
// vector with the y axis flipped (height - y). It returns io.EOF once the
// input ends.
func (s *Session) ReadPoint() ([]float64, error) {
	fmt.Fprintln(s.out, "Enter a random dataset")
	x, err := s.readInt(fmt.Sprintf("Enter x coordinate of the test point (0-%d): ", s.width))
	if err != nil {
		return nil, err
	}
	y, err := s.readInt(fmt.Sprintf("Enter y coordinate of the test point (0-%d): ", s.height))
	if err != nil {
		return nil, err
	}
	if x < 0 || x > s.width || y < 0 || y > s.height {
		return nil, errOutOfBounds
	}
	return []float64{float64(x), float64(s.height - y)}, nil
}

func (s *Session) readInt(prompt string) (int, error) {
	fmt.Fprint(s.out, prompt)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return 0, err
		}
		return 0, io.EOF
	}
	v, err := strconv.Atoi(strings.TrimSpace(s.in.Text()))
	if err != nil {
		return 0, errNotInteger
	}
	return v, nil
}

// Submit classifies point and announces its cluster when the label differs
// from the last one announced. With explain on, the label and the printed
// neighbors come from the same prediction.
func (s *Session) Submit(point []float64) (int64, error) {
	if !s.explain {
		label, err := s.predictor.PredictOne(point)
		if err != nil {
			return 0, err
		}
		s.announce(label)
		return label, nil
	}
	e, err := s.predictor.Explain(point)
	if err != nil {
		return 0, err
	}
	s.announce(e.Label)
	for rank, n := range e.Neighbors {
		fmt.Fprintf(s.out, "  %d. point #%d label=%d distance=%.3f\n", rank+1, n.Index, e.Labels[rank], n.Distance)
	}
	return e.Label, nil
}

func (s *Session) announce(label int64) {
	if !s.announced || label != s.last {
		fmt.Fprintf(s.out, "The given test points belong to %s\n", s.name(label))
		s.announced, s.last = true, label
	}
}

func (s *Session) name(label int64) string {
	if name, ok := s.names[label]; ok {
		return name
	}
	return fmt.Sprintf("cluster %d", label+1)
}
