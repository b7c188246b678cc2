package clusterkit

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yyyoichi/clusterkit/dataset"
	"github.com/yyyoichi/clusterkit/distance"
	"github.com/yyyoichi/clusterkit/internal/kmeans"
)

func TestKMeans(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		test := []struct {
			name    string
			k       int
			opts    []Option
			wantErr error
		}{
			{"valid", 3, nil, nil},
			{"zero clusters", 0, nil, ErrInvalidOption},
			{"negative clusters", -1, nil, ErrInvalidOption},
			{"bad epochs", 2, []Option{WithMaxEpochs(0)}, ErrInvalidOption},
			{"bad tolerance", 2, []Option{WithTolerance(-1)}, ErrInvalidOption},
		}
		for _, tt := range test {
			t.Run(tt.name, func(t *testing.T) {
				km, err := NewKMeans(tt.k, tt.opts...)
				if tt.wantErr == nil {
					require.NoError(t, err)
					assert.Equal(t, tt.k, km.K())
					return
				}
				assert.Nil(t, km)
				assert.True(t, errors.Is(err, tt.wantErr), "error should wrap expected")
			})
		}
	})

	t.Run("two separated clusters", func(t *testing.T) {
		ds := tenPoints(t)
		for seed := range int64(10) {
			km, err := NewKMeans(2, WithSeed(seed), WithMaxEpochs(20))
			require.NoError(t, err)
			require.NoError(t, km.Train(ds))
			assert.LessOrEqual(t, len(km.Steps()), 20)

			c := km.Centroids()
			require.Len(t, c, 2)
			if c[0][0] > c[1][0] {
				c[0], c[1] = c[1], c[0]
			}
			assert.Less(t, distance.Euclidean{}.Distance(c[0], []float64{0, 0}), 1.0)
			assert.Less(t, distance.Euclidean{}.Distance(c[1], []float64{10, 10}), 1.0)
			assert.Equal(t, []int{5, 5}, km.Sizes())

			pred, err := km.Predict(ds)
			require.NoError(t, err)
			for i := 1; i < 5; i++ {
				assert.Equal(t, pred[0], pred[i])
				assert.Equal(t, pred[5], pred[5+i])
			}
			assert.NotEqual(t, pred[0], pred[5])
		}
	})

	t.Run("loss is non-increasing", func(t *testing.T) {
		ds := blobs(t, [][]float64{{0, 0}, {4, 0}, {0, 4}, {4, 4}, {2, 2}}, 60, 1.2, 3)
		for _, k := range []int{1, 2, 3, 5, 8} {
			km, err := NewKMeans(k, WithSeed(int64(k)), WithTolerance(0))
			require.NoError(t, err)
			require.NoError(t, km.Train(ds))
			steps := km.Steps()
			require.NotEmpty(t, steps)
			for i := 1; i < len(steps); i++ {
				assert.LessOrEqual(t, steps[i], steps[i-1]+1e-9, "k=%d epoch %d", k, i)
			}

			pred, err := km.Predict(ds)
			require.NoError(t, err)
			for _, p := range pred {
				assert.GreaterOrEqual(t, p, 0)
				assert.Less(t, p, k)
			}
		}
	})

	t.Run("degenerate dataset", func(t *testing.T) {
		ds, err := dataset.New([][]float64{{1, 2}, {3, 4}, {5, 6}})
		require.NoError(t, err)
		km, err := NewKMeans(5)
		require.NoError(t, err)
		assert.ErrorIs(t, km.Train(ds), ErrDegenerateDataset)
		assert.ErrorIs(t, km.Train(nil), ErrDegenerateDataset)

		empty, err := dataset.New(nil)
		require.NoError(t, err)
		assert.ErrorIs(t, km.Train(empty), ErrDegenerateDataset)

		same, err := dataset.New([][]float64{{1, 1}, {1, 1}, {1, 1}, {2, 2}})
		require.NoError(t, err)
		km, err = NewKMeans(3)
		require.NoError(t, err)
		assert.ErrorIs(t, km.Train(same), ErrDegenerateDataset)
		_, err = km.Predict(same)
		assert.ErrorIs(t, err, ErrNotTrained, "failed training leaves the engine untrained")
	})

	t.Run("not trained", func(t *testing.T) {
		km, err := NewKMeans(2)
		require.NoError(t, err)
		_, err = km.Predict(tenPoints(t))
		assert.ErrorIs(t, err, ErrNotTrained)
		assert.Empty(t, km.Steps())
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		km, err := NewKMeans(2)
		require.NoError(t, err)
		require.NoError(t, km.Train(tenPoints(t)))
		other, err := dataset.New([][]float64{{1, 2, 3}})
		require.NoError(t, err)
		_, err = km.Predict(other)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("k equals n", func(t *testing.T) {
		ds, err := dataset.New([][]float64{{0}, {5}, {10}})
		require.NoError(t, err)
		km, err := NewKMeans(3, WithSeed(4))
		require.NoError(t, err)
		require.NoError(t, km.Train(ds))
		assert.Equal(t, 0.0, km.Steps()[0])
		assert.Equal(t, []int{1, 1, 1}, km.Sizes())
	})

	t.Run("workers do not change the result", func(t *testing.T) {
		ds := blobs(t, [][]float64{{0, 0, 0}, {5, 5, 5}, {0, 5, 0}}, 200, 1.5, 11)
		single, err := NewKMeans(3, WithSeed(5), WithTolerance(0))
		require.NoError(t, err)
		multi, err := NewKMeans(3, WithSeed(5), WithTolerance(0), WithWorkers(4), WithBatchSize(16))
		require.NoError(t, err)
		require.NoError(t, single.Train(ds))
		require.NoError(t, multi.Train(ds))
		assert.Equal(t, single.Steps(), multi.Steps())
		assert.Equal(t, single.Centroids(), multi.Centroids())
	})

	t.Run("retrain resets the trace", func(t *testing.T) {
		km, err := NewKMeans(2, WithTolerance(0), WithMaxEpochs(3))
		require.NoError(t, err)
		ds := blobs(t, [][]float64{{0, 0}, {3, 3}}, 50, 1, 1)
		require.NoError(t, km.Train(ds))
		first := len(km.Steps())
		require.NoError(t, km.Train(ds))
		assert.Equal(t, first, len(km.Steps()))
	})

	t.Run("manhattan", func(t *testing.T) {
		km, err := NewKMeans(2, WithDistance(distance.Manhattan{}))
		require.NoError(t, err)
		require.NoError(t, km.Train(tenPoints(t)))
		pred, err := km.Predict(tenPoints(t))
		require.NoError(t, err)
		assert.NotEqual(t, pred[0], pred[9])
	})

	t.Run("reseed empty cluster", func(t *testing.T) {
		var (
			samples   = [][]float64{{0, 0}, {5, 0}}
			centroids = [][]float64{{0, 0}, {100, 100}}
			assign    = make([]int, len(samples))
			dists     = make([]float64, len(samples))
		)
		nearest := func() {
			for i, x := range samples {
				assign[i], dists[i] = kmeans.Nearest(x, centroids, distance.Euclidean{})
			}
		}
		nearest()
		require.Equal(t, []int{0, 0}, assign, "cluster 1 starts empty")
		require.Equal(t, []float64{0, 5}, dists)

		require.NoError(t, reseed(samples, centroids, []int{1}, dists, nearest))
		assert.Equal(t, []float64{5, 0}, centroids[1], "moved onto the farthest sample")
		assert.Equal(t, []float64{0, 0}, centroids[0])
		assert.Equal(t, []int{0, 1}, assign)
		assert.Equal(t, []float64{0, 0}, dists)

		err := reseed(samples, centroids, []int{1}, dists, nearest)
		assert.ErrorIs(t, err, ErrDegenerateDataset, "no distinct sample left")
	})

	t.Run("failed train leaves the engine untrained", func(t *testing.T) {
		km, err := NewKMeans(3)
		require.NoError(t, err)
		require.NoError(t, km.Train(tenPoints(t)))
		require.NotEmpty(t, km.Steps())

		small, err := dataset.New([][]float64{{1, 1}, {2, 2}})
		require.NoError(t, err)
		assert.ErrorIs(t, km.Train(small), ErrDegenerateDataset)
		assert.Empty(t, km.Steps())
		assert.Empty(t, km.Centroids())
		_, err = km.Predict(tenPoints(t))
		assert.ErrorIs(t, err, ErrNotTrained)
	})

	t.Run("concurrent predict", func(t *testing.T) {
		ds := tenPoints(t)
		km, err := NewKMeans(2)
		require.NoError(t, err)
		require.NoError(t, km.Train(ds))
		exp, err := km.Predict(ds)
		require.NoError(t, err)

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, err := km.Predict(ds)
				assert.NoError(t, err)
				assert.Equal(t, exp, got)
			}()
		}
		wg.Wait()
	})
}
