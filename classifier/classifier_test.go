package classifier

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/knn/index"
)

var (
	clusterVectors = [][]float64{
		{100, 150}, {150, 200}, {200, 250},
		{400, 450}, {450, 500}, {500, 550},
		{100, 450}, {150, 500}, {200, 550},
	}
	clusterLabels = []int{0, 0, 0, 1, 1, 1, 2, 2, 2}
)

func fitted(t *testing.T, k int, opts ...Option) *Classifier[int] {
	t.Helper()
	c, err := New[int](k, opts...)
	require.NoError(t, err)
	require.NoError(t, c.Fit(clusterVectors, clusterLabels))
	return c
}

func TestClassifier_EndToEnd(t *testing.T) {
	for _, kind := range []index.Kind{index.KindBrute, index.KindCover} {
		t.Run(string(kind), func(t *testing.T) {
			c := fitted(t, 3, WithIndex(kind))
			assert.Equal(t, kind, c.IndexKind())

			tests := []struct {
				query []float64
				want  int
			}{
				{[]float64{120, 170}, 0},
				{[]float64{420, 470}, 1},
				{[]float64{120, 470}, 2},
				// Tie case: (200,250)->0 and (400,450)->1 share the nearest
				// distance, then (150,200)->0, (450,500)->1 and (150,500)->2
				// tie for the third slot; insertion order picks (150,200).
				{[]float64{300, 350}, 0},
			}
			for _, tt := range tests {
				got, err := c.PredictOne(tt.query)
				require.NoError(t, err)
				assert.Equal(t, tt.want, got, "query %v", tt.query)
			}

			neighbors, err := c.Neighbors([]float64{300, 350})
			require.NoError(t, err)
			require.Len(t, neighbors, 3)
			assert.Equal(t, 2, neighbors[0].Index)
			assert.Equal(t, 3, neighbors[1].Index)
			assert.Equal(t, 1, neighbors[2].Index)
			assert.InDelta(t, math.Sqrt(20000), neighbors[0].Distance, 1e-9)
		})
	}
}

func TestClassifier_Deterministic(t *testing.T) {
	c := fitted(t, 3)
	first, err := c.PredictOne([]float64{300, 350})
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		got, err := c.PredictOne([]float64{300, 350})
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestClassifier_SelfMembership(t *testing.T) {
	c := fitted(t, 1)
	for i, v := range clusterVectors {
		got, err := c.PredictOne(v)
		require.NoError(t, err)
		assert.Equal(t, clusterLabels[i], got)
	}

	// An earlier duplicate with a different label wins the distance-0 tie.
	d, err := New[string](1)
	require.NoError(t, err)
	require.NoError(t, d.Fit([][]float64{{1, 1}, {1, 1}}, []string{"first", "second"}))
	got, err := d.PredictOne([]float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, "first", got)
}

func TestClassifier_NeighborTieBreak(t *testing.T) {
	// Both training points are at distance 1 from the origin.
	c, err := New[string](1)
	require.NoError(t, err)
	require.NoError(t, c.Fit([][]float64{{0, 1}, {1, 0}}, []string{"a", "b"}))
	got, err := c.PredictOne([]float64{0, 0})
	require.NoError(t, err)
	assert.Equal(t, "a", got)

	require.NoError(t, c.Fit([][]float64{{1, 0}, {0, 1}}, []string{"b", "a"}))
	got, err = c.PredictOne([]float64{0, 0})
	require.NoError(t, err)
	assert.Equal(t, "b", got)
}

func TestClassifier_VoteTieBreak(t *testing.T) {
	// Neighbor order for query 0 is index 3, 2, 1, 0 with labels z, a, a, z:
	// two votes each, z occurs first.
	c, err := New[string](4)
	require.NoError(t, err)
	require.NoError(t, c.Fit(
		[][]float64{{4}, {3}, {2}, {1}},
		[]string{"z", "a", "a", "z"},
	))
	got, err := c.PredictOne([]float64{0})
	require.NoError(t, err)
	assert.Equal(t, "z", got)

	// Reversed neighbor order makes "a" the first-seen label.
	got, err = c.PredictOne([]float64{2.4})
	require.NoError(t, err)
	assert.Equal(t, "a", got)
}

func TestClassifier_KEqualsSize(t *testing.T) {
	c, err := New[int](5)
	require.NoError(t, err)
	require.NoError(t, c.Fit(
		[][]float64{{0, 0}, {10, 10}, {20, 20}, {30, 30}, {40, 40}},
		[]int{7, 3, 7, 3, 7},
	))
	for _, q := range [][]float64{{0, 0}, {40, 40}, {-100, 500}, {25, 25}} {
		got, err := c.PredictOne(q)
		require.NoError(t, err)
		assert.Equal(t, 7, got)
	}
}

func TestClassifier_Errors(t *testing.T) {
	t.Run("InvalidK", func(t *testing.T) {
		_, err := New[int](0)
		assert.ErrorIs(t, err, ErrInvalidK)
		c := fitted(t, 3)
		assert.ErrorIs(t, c.Configure(-1), ErrInvalidK)
		assert.Equal(t, 3, c.K())
	})

	t.Run("InvalidTrainingData", func(t *testing.T) {
		c, err := New[int](1)
		require.NoError(t, err)
		assert.ErrorIs(t, c.Fit([][]float64{}, []int{}), ErrInvalidTrainingData)
		assert.ErrorIs(t, c.Fit(nil, nil), ErrInvalidTrainingData)
		assert.ErrorIs(t, c.Fit([][]float64{{1, 2}}, []int{1, 2}), ErrInvalidTrainingData)
		assert.ErrorIs(t, c.Fit([][]float64{{1, 2}, {1}}, []int{1, 2}), ErrInvalidTrainingData)
		assert.ErrorIs(t, c.Fit([][]float64{{}}, []int{1}), ErrInvalidTrainingData)
		assert.ErrorIs(t, c.Fit([][]float64{{1, math.NaN()}}, []int{1}), ErrInvalidTrainingData)
		assert.False(t, c.Fitted())
	})

	t.Run("FailedFitKeepsPriorData", func(t *testing.T) {
		c := fitted(t, 3)
		assert.ErrorIs(t, c.Fit(nil, nil), ErrInvalidTrainingData)
		assert.Equal(t, 9, c.Len())
		got, err := c.PredictOne([]float64{420, 470})
		require.NoError(t, err)
		assert.Equal(t, 1, got)
	})

	t.Run("NotFitted", func(t *testing.T) {
		c, err := New[int](3)
		require.NoError(t, err)
		_, err = c.PredictOne([]float64{1, 2})
		assert.ErrorIs(t, err, ErrNotFitted)
		_, err = c.Neighbors([]float64{1, 2})
		assert.ErrorIs(t, err, ErrNotFitted)
		_, err = c.PredictBatch([][]float64{{1, 2}})
		assert.ErrorIs(t, err, ErrNotFitted)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		c, err := New[int](1)
		require.NoError(t, err)
		require.NoError(t, c.Fit([][]float64{{1, 2, 3}, {4, 5, 6}}, []int{0, 1}))
		_, err = c.PredictOne([]float64{1, 2})
		var dm *ErrDimensionMismatch
		require.True(t, errors.As(err, &dm))
		assert.Equal(t, 3, dm.Expected)
		assert.Equal(t, 2, dm.Actual)
	})

	t.Run("InsufficientNeighbors", func(t *testing.T) {
		c, err := New[int](3)
		require.NoError(t, err)
		require.NoError(t, c.Configure(10))
		require.NoError(t, c.Fit(clusterVectors[:5], clusterLabels[:5]))
		_, err = c.PredictOne([]float64{1, 2})
		var in *ErrInsufficientNeighbors
		require.True(t, errors.As(err, &in))
		assert.Equal(t, 10, in.K)
		assert.Equal(t, 5, in.Size)
	})

	t.Run("InvalidQuery", func(t *testing.T) {
		c := fitted(t, 3)
		_, err := c.PredictOne([]float64{math.Inf(1), 0})
		assert.ErrorIs(t, err, ErrInvalidQuery)
	})
}

func TestClassifier_PredictBatch(t *testing.T) {
	c := fitted(t, 3)
	got, err := c.PredictBatch([][]float64{{120, 170}, {420, 470}, {120, 470}, {300, 350}})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 0}, got)

	got, err = c.PredictBatch(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClassifier_PredictBatchWorkers(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	queries := make([][]float64, 500)
	for i := range queries {
		queries[i] = []float64{float64(rng.Intn(801)), float64(rng.Intn(601))}
	}
	want, err := fitted(t, 3).PredictBatch(queries)
	require.NoError(t, err)

	for _, kind := range []index.Kind{index.KindBrute, index.KindCover} {
		c := fitted(t, 3, WithIndex(kind), WithBatchWorkers(8), WithCacheSize(64))
		got, err := c.PredictBatch(queries)
		require.NoError(t, err)
		assert.Equal(t, want, got, string(kind))
	}

	c := fitted(t, 3, WithBatchWorkers(4))
	got, err := c.PredictBatch([][]float64{{120, 170}, {420, 470}, {1}})
	assert.Nil(t, got)
	var be *BatchError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 2, be.Index)
}

func TestClassifier_PredictBatchFailsFast(t *testing.T) {
	c := fitted(t, 3)
	got, err := c.PredictBatch([][]float64{{120, 170}, {1, 2, 3}, {420, 470}})
	assert.Nil(t, got)

	var be *BatchError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 1, be.Index)
	var dm *ErrDimensionMismatch
	assert.True(t, errors.As(err, &dm))
	assert.Contains(t, err.Error(), "batch query 1")
}

func TestClassifier_FitReplaces(t *testing.T) {
	c := fitted(t, 1)
	require.NoError(t, c.Fit([][]float64{{0}, {10}}, []int{5, 6}))
	assert.Equal(t, 1, c.Dimension())
	assert.Equal(t, 2, c.Len())
	got, err := c.PredictOne([]float64{9})
	require.NoError(t, err)
	assert.Equal(t, 6, got)
	label, ok := c.Label(0)
	assert.True(t, ok)
	assert.Equal(t, 5, label)
	_, ok = c.Label(2)
	assert.False(t, ok)
}

func TestClassifier_FitCopiesInput(t *testing.T) {
	vectors := [][]float64{{0, 0}, {10, 10}}
	labels := []int{1, 2}
	c, err := New[int](1)
	require.NoError(t, err)
	require.NoError(t, c.Fit(vectors, labels))
	vectors[0][0] = 10
	labels[0] = 9

	got, err := c.PredictOne([]float64{0, 0})
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestClassifier_Cache(t *testing.T) {
	c := fitted(t, 3, WithCacheSize(2))
	for i := 0; i < 3; i++ {
		got, err := c.PredictOne([]float64{120, 170})
		require.NoError(t, err)
		assert.Equal(t, 0, got)
	}
	assert.Equal(t, 1, c.memo.len())

	_, err := c.PredictOne([]float64{420, 470})
	require.NoError(t, err)
	_, err = c.PredictOne([]float64{120, 470})
	require.NoError(t, err)
	assert.Equal(t, 2, c.memo.len())

	// Reconfiguring must not serve stale labels.
	require.NoError(t, c.Configure(9))
	assert.Equal(t, 0, c.memo.len())
	got, err := c.PredictOne([]float64{120, 170})
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	require.NoError(t, c.Fit([][]float64{{120, 170}}, []int{4}))
	assert.Equal(t, 0, c.memo.len())
	require.NoError(t, c.Configure(1))
	got, err = c.PredictOne([]float64{120, 170})
	require.NoError(t, err)
	assert.Equal(t, 4, got)
}

func TestClassifier_Logger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := fitted(t, 3, WithLogger(logger))
	assert.Contains(t, buf.String(), "knn fitted")
	assert.Contains(t, buf.String(), "count=9")

	_, err := c.PredictOne([]float64{1})
	assert.Error(t, err)
	assert.Contains(t, buf.String(), "knn predict rejected")
}

func TestClassifier_AutoIndexMatchesBrute(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	n := index.AutoCoverMinPoints
	vectors := make([][]float64, n)
	labels := make([]int, n)
	for i := range vectors {
		vectors[i] = []float64{float64(rng.Intn(200)), float64(rng.Intn(200))}
		labels[i] = rng.Intn(4)
	}
	auto, err := New[int](7, WithIndexOptions(index.Options{Kind: index.KindAuto}))
	require.NoError(t, err)
	require.NoError(t, auto.Fit(vectors, labels))
	assert.Equal(t, index.KindCover, auto.IndexKind())

	brute, err := New[int](7)
	require.NoError(t, err)
	require.NoError(t, brute.Fit(vectors, labels))
	assert.Equal(t, index.KindBrute, brute.IndexKind())

	queries := make([][]float64, 100)
	for i := range queries {
		queries[i] = []float64{float64(rng.Intn(200)), float64(rng.Intn(200))}
	}
	want, err := brute.PredictBatch(queries)
	require.NoError(t, err)
	got, err := auto.PredictBatch(queries)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestClassifier_OverflowingDistances(t *testing.T) {
	vectors := [][]float64{{0, 0}, {1e200, 1e200}}
	labels := []int{0, 1}
	queries := [][]float64{{0, 0}, {1e200, 1e200}, {5e199, 5e199}, {-1e200, 1}}

	brute, err := New[int](1, WithIndex(index.KindBrute))
	require.NoError(t, err)
	require.NoError(t, brute.Fit(vectors, labels))

	for _, bestFirst := range []bool{false, true} {
		c, err := New[int](1, WithIndexOptions(index.Options{Kind: index.KindCover, CoverBestFirst: bestFirst}))
		require.NoError(t, err)
		require.NoError(t, c.Fit(vectors, labels))
		require.Equal(t, index.KindCover, c.IndexKind())
		for _, q := range queries {
			want, err := brute.Neighbors(q)
			require.NoError(t, err)
			got, err := c.Neighbors(q)
			require.NoError(t, err)
			assert.Equal(t, want, got, "bestFirst=%v q=%v", bestFirst, q)

			wantLabel, err := brute.PredictOne(q)
			require.NoError(t, err)
			gotLabel, err := c.PredictOne(q)
			require.NoError(t, err)
			assert.Equal(t, wantLabel, gotLabel, "bestFirst=%v q=%v", bestFirst, q)
		}
	}
	label, err := brute.PredictOne([]float64{1e200, 1e200})
	require.NoError(t, err)
	assert.Equal(t, 1, label)
}

func TestClassifier_ConcurrentPredict(t *testing.T) {
	c := fitted(t, 3, WithCacheSize(16))
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				got, err := c.PredictOne([]float64{420, 470})
				if err != nil {
					errs <- err
					return
				}
				if got != 1 {
					errs <- errors.New("unexpected label")
					return
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			if err := c.Fit(clusterVectors, clusterLabels); err != nil {
				errs <- err
				return
			}
		}
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func TestClassifier_Explain(t *testing.T) {
	for _, kind := range []index.Kind{index.KindBrute, index.KindCover} {
		t.Run(string(kind), func(t *testing.T) {
			c := fitted(t, 3, WithIndex(kind))
			got, err := c.Explain([]float64{300, 350})
			require.NoError(t, err)
			assert.Equal(t, 0, got.Label)
			require.Len(t, got.Neighbors, 3)
			assert.Equal(t, []int{2, 3, 1}, []int{got.Neighbors[0].Index, got.Neighbors[1].Index, got.Neighbors[2].Index})
			assert.Equal(t, []int{0, 1, 0}, got.Labels)

			label, err := c.PredictOne([]float64{300, 350})
			require.NoError(t, err)
			assert.Equal(t, label, got.Label)
		})
	}

	unfitted, err := New[int](3)
	require.NoError(t, err)
	_, err = unfitted.Explain([]float64{1, 2})
	assert.ErrorIs(t, err, ErrNotFitted)

	c := fitted(t, 3)
	_, err = c.Explain([]float64{1})
	var dim *ErrDimensionMismatch
	assert.ErrorAs(t, err, &dim)
}

func TestClassifier_ExplainDuringFit(t *testing.T) {
	// The second training set reverses the points and shifts every label by
	// 10, so a result mixing both sets carries labels from both ranges.
	reversed := make([][]float64, len(clusterVectors))
	shifted := make([]int, len(clusterLabels))
	for i := range clusterVectors {
		reversed[len(clusterVectors)-1-i] = clusterVectors[i]
		shifted[len(clusterLabels)-1-i] = clusterLabels[i] + 10
	}
	c := fitted(t, 3)

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				got, err := c.Explain([]float64{300, 350})
				if err != nil {
					errs <- err
					return
				}
				high := got.Label >= 10
				for _, l := range got.Labels {
					if (l >= 10) != high {
						errs <- errors.New("explanation mixes two training sets")
						return
					}
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			vectors, labels := clusterVectors, clusterLabels
			if i%2 == 0 {
				vectors, labels = reversed, shifted
			}
			if err := c.Fit(vectors, labels); err != nil {
				errs <- err
				return
			}
		}
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}
