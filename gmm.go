package clusterkit

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"sync"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/yyyoichi/clusterkit/dataset"
	"github.com/yyyoichi/clusterkit/internal/kmeans"
	"github.com/yyyoichi/clusterkit/internal/mvn"
	"github.com/yyyoichi/clusterkit/internal/parallel"
)

// GaussianMixture is probabilistic clustering with k full-covariance
// multivariate normal components fitted by Expectation-Maximization.
type GaussianMixture struct {
	k   int
	cfg config

	mu         sync.RWMutex
	means      [][]float64
	covs       []*mat.SymDense
	weights    []float64
	components []*mvn.Normal
	steps      []float64
	dim        int
}

// NewGaussianMixture creates an engine fitting k components.
func NewGaussianMixture(k int, opts ...Option) (*GaussianMixture, error) {
	if err := checkClusters(k); err != nil {
		return nil, err
	}
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &GaussianMixture{k: k, cfg: cfg}, nil
}

// Train fits the mixture.
//
// Process:
//  1. Seeds the means with the plus-plus policy, sets every covariance to the
//     global sample covariance plus the regularization and every weight to 1/k.
//  2. E-step: computes the posterior responsibility of every component for
//     every sample, and the total log-likelihood recorded as the epoch loss.
//  3. M-step: re-estimates weights, means and covariances from the
//     responsibilities.
//
// Training stops at the epoch cap, or when the log-likelihood increases by no
// more than the tolerance. Returns ErrSingularCovariance when a covariance
// cannot be factorized even after one regularization bump.
func (gm *GaussianMixture) Train(ds *dataset.Dataset) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	// A failed Train leaves the engine untrained.
	gm.means, gm.covs, gm.weights, gm.components, gm.steps, gm.dim = nil, nil, nil, nil, nil, 0
	if err := checkTrainable(ds, gm.k); err != nil {
		return err
	}

	runner, err := parallel.New(gm.cfg.workers, gm.cfg.batchSize)
	if err != nil {
		return err
	}
	defer runner.Release()

	var (
		samples = ds.Samples()
		n       = len(samples)
		dim     = ds.Dim()
		rng     = rand.New(rand.NewSource(gm.cfg.seed))
		means   = kmeans.PlusPlus(samples, gm.k, gm.cfg.dist, rng)
		covs    = make([]*mat.SymDense, gm.k)
		weights = make([]float64, gm.k)
		resp    = make([][]float64, n)
		lls     = make([]float64, n)
		steps   []float64
		log     = gm.cfg.logger.With(zap.String("engine", "gaussian-mixture"), zap.Int("k", gm.k))
	)
	global := globalCovariance(ds, gm.cfg.regularization)
	for j := range covs {
		covs[j] = mat.NewSymDense(dim, nil)
		covs[j].CopySym(global)
		weights[j] = 1 / float64(gm.k)
	}
	for i := range resp {
		resp[i] = make([]float64, gm.k)
	}

	log.Debug("training started", zap.Int("samples", n), zap.Int("dim", dim))
	components, err := gm.factorize(means, covs)
	if err != nil {
		return err
	}
	for epoch := range gm.cfg.maxEpochs {
		runner.For(n, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				lls[i] = posterior(resp[i], samples[i], means, components, weights)
			}
		})
		var ll float64
		for _, v := range lls {
			ll += v
		}
		steps = append(steps, ll)
		progress(log, gm.cfg.batchSize, epoch, ll)
		if epoch > 0 && ll-steps[epoch-1] <= gm.cfg.tolerance {
			break
		}
		if epoch == gm.cfg.maxEpochs-1 {
			break
		}

		maximize(samples, resp, means, covs, weights, gm.cfg.regularization)
		if components, err = gm.factorize(means, covs); err != nil {
			return err
		}
	}

	gm.means, gm.covs, gm.weights, gm.components, gm.steps, gm.dim = means, covs, weights, components, steps, dim
	log.Debug("training finished", zap.Int("epochs", len(steps)), zap.Float64("loglikelihood", steps[len(steps)-1]))
	return nil
}

// globalCovariance returns the sample covariance of ds plus eps on the
// diagonal, or the identity when ds holds a single sample.
func globalCovariance(ds *dataset.Dataset, eps float64) *mat.SymDense {
	dim := ds.Dim()
	cov := mat.NewSymDense(dim, nil)
	if ds.Len() < 2 {
		for i := range dim {
			cov.SetSym(i, i, 1)
		}
	} else {
		stat.CovarianceMatrix(cov, ds.Matrix(), nil)
	}
	for i := range dim {
		cov.SetSym(i, i, cov.At(i, i)+eps)
	}
	return cov
}

func (gm *GaussianMixture) factorize(means [][]float64, covs []*mat.SymDense) ([]*mvn.Normal, error) {
	bump := max(10*gm.cfg.regularization, 1e-6)
	components := make([]*mvn.Normal, len(means))
	for j := range means {
		c, err := mvn.New(means[j], covs[j], bump)
		if err != nil {
			if errors.Is(err, mvn.ErrNotPositiveDefinite) {
				return nil, fmt.Errorf("%w: component %d: %w", ErrSingularCovariance, j, err)
			}
			return nil, err
		}
		if c.Bumped() {
			gm.cfg.logger.Debug("covariance regularization bumped", zap.Int("component", j), zap.Float64("bump", bump))
		}
		components[j] = c
	}
	return components, nil
}

// posterior overwrites row with the responsibilities of every component for
// x and returns the log-likelihood of x under the mixture.
//
// When x is so far out that every density underflows, x belongs entirely to
// the component with the nearest mean.
func posterior(row, x []float64, means [][]float64, components []*mvn.Normal, weights []float64) float64 {
	for j, c := range components {
		row[j] = math.Log(weights[j]) + c.LogProb(x)
	}
	lse := floats.LogSumExp(row)
	if math.IsInf(lse, -1) {
		nearest, best := 0, math.Inf(1)
		for j, m := range means {
			// floats.Distance scales the sum of squares, so it stays finite here.
			if d := floats.Distance(x, m, 2); d < best {
				nearest, best = j, d
			}
		}
		clear(row)
		row[nearest] = 1
		return lse
	}
	for j := range row {
		row[j] = math.Exp(row[j] - lse)
	}
	return lse
}

const machineEpsilon = 0x1p-52

// maximize re-estimates the parameters in place from the responsibilities.
func maximize(samples, resp, means [][]float64, covs []*mat.SymDense, weights []float64, eps float64) {
	var (
		n    = len(samples)
		dim  = len(samples[0])
		diff = mat.NewVecDense(dim, nil)
	)
	for j := range means {
		// A tiny floor keeps collapsed components finite.
		nk := 10 * machineEpsilon
		clear(means[j])
		for i, x := range samples {
			nk += resp[i][j]
			floats.AddScaled(means[j], resp[i][j], x)
		}
		floats.Scale(1/nk, means[j])
		weights[j] = nk / float64(n)

		cov := mat.NewSymDense(dim, nil)
		for i, x := range samples {
			if resp[i][j] == 0 {
				continue
			}
			for d := range dim {
				diff.SetVec(d, x[d]-means[j][d])
			}
			cov.SymRankOne(cov, resp[i][j]/nk, diff)
		}
		for d := range dim {
			cov.SetSym(d, d, cov.At(d, d)+eps)
		}
		covs[j] = cov
	}
	floats.Scale(1/floats.Sum(weights), weights)
}

// Predict returns the component with the highest posterior for every sample.
func (gm *GaussianMixture) Predict(ds *dataset.Dataset) ([]int, error) {
	proba, err := gm.Proba(ds)
	if err != nil {
		return nil, err
	}
	return hardAssign(proba), nil
}

// Proba returns the posterior over components of every sample.
func (gm *GaussianMixture) Proba(ds *dataset.Dataset) ([][]float64, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	if err := checkPredictable(ds, gm.dim); err != nil {
		return nil, err
	}
	out := make([][]float64, ds.Len())
	for i, x := range ds.Samples() {
		out[i] = make([]float64, gm.k)
		posterior(out[i], x, gm.means, gm.components, gm.weights)
	}
	return out, nil
}

// LogLikelihood returns the total log-likelihood of ds under the trained mixture.
func (gm *GaussianMixture) LogLikelihood(ds *dataset.Dataset) (float64, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	if err := checkPredictable(ds, gm.dim); err != nil {
		return 0, err
	}
	var (
		ll  float64
		row = make([]float64, gm.k)
	)
	for _, x := range ds.Samples() {
		ll += posterior(row, x, gm.means, gm.components, gm.weights)
	}
	return ll, nil
}

func (gm *GaussianMixture) Steps() []float64 {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return slices.Clone(gm.steps)
}

func (gm *GaussianMixture) Means() [][]float64 {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return cloneRows(gm.means)
}

// Covariances returns copies of the component covariance matrices.
func (gm *GaussianMixture) Covariances() []*mat.SymDense {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	out := make([]*mat.SymDense, len(gm.covs))
	for j, c := range gm.covs {
		out[j] = mat.NewSymDense(gm.dim, nil)
		out[j].CopySym(c)
	}
	return out
}

// Weights returns the mixing weights. They sum to 1.
func (gm *GaussianMixture) Weights() []float64 {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return slices.Clone(gm.weights)
}

func (gm *GaussianMixture) K() int { return gm.k }
