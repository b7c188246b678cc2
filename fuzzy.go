package clusterkit

import (
	"math"
	"math/rand"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/yyyoichi/clusterkit/dataset"
	"github.com/yyyoichi/clusterkit/distance"
	"github.com/yyyoichi/clusterkit/internal/kmeans"
	"github.com/yyyoichi/clusterkit/internal/parallel"
)

// FuzzyCMeans is soft clustering where every sample belongs to every cluster
// to a degree. The degrees of one sample sum to 1.
type FuzzyCMeans struct {
	k   int
	cfg config

	mu          sync.RWMutex
	centroids   [][]float64
	memberships [][]float64
	steps       []float64
	dim         int
}

// NewFuzzyCMeans creates an engine searching for k fuzzy clusters.
func NewFuzzyCMeans(k int, opts ...Option) (*FuzzyCMeans, error) {
	if err := checkClusters(k); err != nil {
		return nil, err
	}
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &FuzzyCMeans{k: k, cfg: cfg}, nil
}

// Train starts from random memberships and alternates centroid and membership
// updates. The loss of an epoch is the fuzzy objective
// sum(u^m * d^2) over every sample and cluster.
func (fc *FuzzyCMeans) Train(ds *dataset.Dataset) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	// A failed Train leaves the engine untrained.
	fc.centroids, fc.memberships, fc.steps, fc.dim = nil, nil, nil, 0
	if err := checkTrainable(ds, fc.k); err != nil {
		return err
	}

	runner, err := parallel.New(fc.cfg.workers, fc.cfg.batchSize)
	if err != nil {
		return err
	}
	defer runner.Release()

	var (
		samples   = ds.Samples()
		n         = len(samples)
		m         = fc.cfg.fuzziness
		rng       = rand.New(rand.NewSource(fc.cfg.seed))
		u         = make([][]float64, n)
		centroids = make([][]float64, fc.k)
		partial   = make([]float64, n)
		stores    = make([]kmeans.MeanStore, fc.k)
		steps     []float64
		log       = fc.cfg.logger.With(zap.String("engine", "fuzzy-cmeans"), zap.Int("k", fc.k))
	)
	for i := range u {
		u[i] = make([]float64, fc.k)
		var sum float64
		for j := range u[i] {
			// Strictly positive so every centroid gets weight in the first epoch.
			u[i][j] = rng.Float64() + 1e-3
			sum += u[i][j]
		}
		for j := range u[i] {
			u[i][j] /= sum
		}
	}

	log.Debug("training started", zap.Int("samples", n), zap.Float64("fuzziness", m))
	for epoch := range fc.cfg.maxEpochs {
		for j := range stores {
			stores[j].Reset()
		}
		for i, x := range samples {
			for j := range stores {
				stores[j].Add(x, math.Pow(u[i][j], m))
			}
		}
		for j := range centroids {
			if stores[j].Weight() > 0 {
				centroids[j] = stores[j].Mean(centroids[j])
			} else if centroids[j] == nil {
				centroids[j] = slices.Clone(samples[rng.Intn(n)])
			}
		}

		runner.For(n, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				partial[i] = fuzzyUpdate(u[i], samples[i], centroids, fc.cfg.dist, m)
			}
		})
		var loss float64
		for _, p := range partial {
			loss += p
		}
		steps = append(steps, loss)
		progress(log, fc.cfg.batchSize, epoch, loss)

		if epoch > 0 && math.Abs(steps[epoch-1]-loss) <= fc.cfg.tolerance {
			break
		}
	}

	fc.centroids, fc.memberships, fc.steps, fc.dim = centroids, u, steps, ds.Dim()
	log.Debug("training finished", zap.Int("epochs", len(steps)), zap.Float64("loss", steps[len(steps)-1]))
	return nil
}

// fuzzyUpdate overwrites row with the memberships of x and returns the
// contribution of x to the fuzzy objective.
//
// The membership in cluster j is proportional to d_j^(-2/(m-1)). It is
// computed relative to the smallest distance so no power overflows. A sample
// lying on a centroid belongs to the first such centroid only.
func fuzzyUpdate(row, x []float64, centroids [][]float64, dist distance.Distance, m float64) float64 {
	var (
		d    = make([]float64, len(centroids))
		dmin = math.Inf(1)
	)
	for j, c := range centroids {
		d[j] = dist.Distance(x, c)
		dmin = min(dmin, d[j])
	}
	if dmin == 0 {
		clear(row)
		row[slices.Index(d, 0)] = 1
		return 0
	}

	var (
		p   = 2 / (m - 1)
		sum float64
	)
	for j := range row {
		row[j] = math.Pow(dmin/d[j], p)
		sum += row[j]
	}
	var objective float64
	for j := range row {
		row[j] /= sum
		objective += math.Pow(row[j], m) * d[j] * d[j]
	}
	return objective
}

// Predict returns the cluster with the highest membership of every sample.
func (fc *FuzzyCMeans) Predict(ds *dataset.Dataset) ([]int, error) {
	proba, err := fc.Proba(ds)
	if err != nil {
		return nil, err
	}
	return hardAssign(proba), nil
}

// Proba returns the membership vector of every sample against the trained
// centroids.
func (fc *FuzzyCMeans) Proba(ds *dataset.Dataset) ([][]float64, error) {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	if err := checkPredictable(ds, fc.dim); err != nil {
		return nil, err
	}
	out := make([][]float64, ds.Len())
	for i, x := range ds.Samples() {
		out[i] = make([]float64, fc.k)
		fuzzyUpdate(out[i], x, fc.centroids, fc.cfg.dist, fc.cfg.fuzziness)
	}
	return out, nil
}

func (fc *FuzzyCMeans) Steps() []float64 {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return slices.Clone(fc.steps)
}

func (fc *FuzzyCMeans) Centroids() [][]float64 {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return cloneRows(fc.centroids)
}

// Memberships returns the final membership vectors of the training samples.
func (fc *FuzzyCMeans) Memberships() [][]float64 {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return cloneRows(fc.memberships)
}

// Fuzziness returns the exponent m.
func (fc *FuzzyCMeans) Fuzziness() float64 { return fc.cfg.fuzziness }

func (fc *FuzzyCMeans) K() int { return fc.k }
