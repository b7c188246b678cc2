// Package clusterkit partitions datasets with hard (K-Means) and soft
// (Fuzzy C-Means, Gaussian Mixture) clustering engines.
//
// Every engine follows the same lifecycle: construct with a cluster count and
// options, Train on a dataset, then Predict any number of times. Train records
// one loss value per epoch, readable through Steps.
package clusterkit

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/yyyoichi/clusterkit/dataset"
)

// Engine is a trainable clusterer producing hard assignments.
type Engine interface {
	// Train fits the engine to ds, replacing any previous state. After an
	// error the engine is untrained and Steps is empty.
	Train(ds *dataset.Dataset) error
	// Predict returns one cluster index in [0, K) per sample.
	Predict(ds *dataset.Dataset) ([]int, error)
	// Steps returns the loss of every completed epoch of the last Train.
	Steps() []float64
}

// SoftEngine additionally exposes per-sample membership vectors.
type SoftEngine interface {
	Engine
	// Proba returns, per sample, a non-negative vector over clusters summing to 1.
	Proba(ds *dataset.Dataset) ([][]float64, error)
}

var (
	_ Engine     = (*KMeans)(nil)
	_ SoftEngine = (*FuzzyCMeans)(nil)
	_ SoftEngine = (*GaussianMixture)(nil)
)

func checkClusters(k int) error {
	if k < 1 {
		return fmt.Errorf("%w: cluster count %d < 1", ErrInvalidOption, k)
	}
	return nil
}

func checkTrainable(ds *dataset.Dataset, k int) error {
	if ds == nil || ds.Len() == 0 {
		return fmt.Errorf("%w: empty dataset", ErrDegenerateDataset)
	}
	if ds.Len() < k {
		return fmt.Errorf("%w: %d samples < %d clusters", ErrDegenerateDataset, ds.Len(), k)
	}
	return nil
}

func checkPredictable(ds *dataset.Dataset, dim int) error {
	if dim == 0 {
		return ErrNotTrained
	}
	if ds == nil {
		return fmt.Errorf("%w: nil dataset", ErrDegenerateDataset)
	}
	if ds.Len() > 0 && ds.Dim() != dim {
		return fmt.Errorf("%w: trained on %d features, got %d", ErrDimensionMismatch, dim, ds.Dim())
	}
	return nil
}

func argmax(row []float64) int {
	best := 0
	for j, v := range row {
		if v > row[best] {
			best = j
		}
	}
	return best
}

func hardAssign(proba [][]float64) []int {
	out := make([]int, len(proba))
	for i, row := range proba {
		out[i] = argmax(row)
	}
	return out
}

func cloneRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = slices.Clone(r)
	}
	return out
}

// progress logs an epoch every batchSize epochs and always logs the first one.
func progress(l *zap.Logger, batchSize, epoch int, loss float64) {
	if epoch%batchSize == 0 {
		l.Debug("epoch completed", zap.Int("epoch", epoch+1), zap.Float64("loss", loss))
	}
}
