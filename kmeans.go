package clusterkit

import (
	"fmt"
	"math/rand"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/yyyoichi/clusterkit/dataset"
	"github.com/yyyoichi/clusterkit/internal/kmeans"
	"github.com/yyyoichi/clusterkit/internal/parallel"
)

// KMeans is centroid based hard clustering.
type KMeans struct {
	k   int
	cfg config

	mu        sync.RWMutex
	centroids [][]float64
	sizes     []int
	steps     []float64
	dim       int
}

// NewKMeans creates an engine searching for k clusters.
func NewKMeans(k int, opts ...Option) (*KMeans, error) {
	if err := checkClusters(k); err != nil {
		return nil, err
	}
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &KMeans{k: k, cfg: cfg}, nil
}

// Train seeds k centroids with the plus-plus policy and then alternates
// assignment and mean updates.
//
// Process per epoch:
//  1. Recomputes every centroid as the mean of its members.
//  2. Reseeds empty clusters from the sample farthest from any centroid.
//  3. Reassigns every sample to its nearest centroid.
//  4. Records the within-cluster sum of squared distances.
//
// Training stops at the epoch cap, or when an epoch improves the loss by no
// more than the tolerance. Returns ErrDegenerateDataset when ds has fewer samples
// than k, or fewer distinct samples than k.
func (km *KMeans) Train(ds *dataset.Dataset) error {
	km.mu.Lock()
	defer km.mu.Unlock()
	// A failed Train leaves the engine untrained.
	km.centroids, km.sizes, km.steps, km.dim = nil, nil, nil, 0
	if err := checkTrainable(ds, km.k); err != nil {
		return err
	}

	runner, err := parallel.New(km.cfg.workers, km.cfg.batchSize)
	if err != nil {
		return err
	}
	defer runner.Release()

	var (
		samples   = ds.Samples()
		n         = len(samples)
		dist      = km.cfg.dist
		rng       = rand.New(rand.NewSource(km.cfg.seed))
		centroids = kmeans.PlusPlus(samples, km.k, dist, rng)
		assign    = make([]int, n)
		dists     = make([]float64, n)
		stores    = make([]kmeans.MeanStore, km.k)
		steps     []float64
		log       = km.cfg.logger.With(zap.String("engine", "kmeans"), zap.Int("k", km.k))
	)
	nearest := func() {
		runner.For(n, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				assign[i], dists[i] = kmeans.Nearest(samples[i], centroids, dist)
			}
		})
	}

	log.Debug("training started", zap.Int("samples", n), zap.Int("dim", ds.Dim()))
	nearest()
	for epoch := range km.cfg.maxEpochs {
		for j := range stores {
			stores[j].Reset()
		}
		for i, x := range samples {
			stores[assign[i]].Add(x, 1)
		}
		var empty []int
		for j := range centroids {
			if stores[j].Count() == 0 {
				empty = append(empty, j)
				continue
			}
			stores[j].Mean(centroids[j])
		}
		nearest()
		if len(empty) > 0 {
			if err := reseed(samples, centroids, empty, dists, nearest); err != nil {
				return err
			}
			log.Debug("reseeded empty clusters", zap.Int("epoch", epoch+1), zap.Ints("clusters", empty))
		}

		var loss float64
		for _, d := range dists {
			loss += d * d
		}
		steps = append(steps, loss)
		progress(log, km.cfg.batchSize, epoch, loss)

		if loss == 0 {
			break
		}
		if epoch > 0 && steps[epoch-1]-loss <= km.cfg.tolerance {
			break
		}
	}

	sizes := make([]int, km.k)
	for _, j := range assign {
		sizes[j]++
	}
	km.centroids, km.sizes, km.steps, km.dim = centroids, sizes, steps, ds.Dim()
	log.Debug("training finished", zap.Int("epochs", len(steps)), zap.Float64("loss", steps[len(steps)-1]))
	return nil
}

// reseed moves every empty centroid onto the sample currently farthest from
// any centroid, one cluster at a time. dists must hold the nearest-centroid
// distance of every sample and is refreshed by nearest after each move.
func reseed(samples, centroids [][]float64, empty []int, dists []float64, nearest func()) error {
	for _, j := range empty {
		far := 0
		for i, d := range dists {
			if d > dists[far] {
				far = i
			}
		}
		if dists[far] == 0 {
			return fmt.Errorf("%w: fewer distinct samples than clusters", ErrDegenerateDataset)
		}
		copy(centroids[j], samples[far])
		nearest()
	}
	return nil
}

// Predict returns the index of the nearest centroid of every sample.
func (km *KMeans) Predict(ds *dataset.Dataset) ([]int, error) {
	km.mu.RLock()
	defer km.mu.RUnlock()
	if err := checkPredictable(ds, km.dim); err != nil {
		return nil, err
	}
	out := make([]int, ds.Len())
	for i, x := range ds.Samples() {
		out[i], _ = kmeans.Nearest(x, km.centroids, km.cfg.dist)
	}
	return out, nil
}

func (km *KMeans) Steps() []float64 {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return slices.Clone(km.steps)
}

// Centroids returns a copy of the trained centroids.
func (km *KMeans) Centroids() [][]float64 {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return cloneRows(km.centroids)
}

// Sizes returns the member count of every cluster after training.
func (km *KMeans) Sizes() []int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return slices.Clone(km.sizes)
}

func (km *KMeans) K() int { return km.k }
