package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Transformer is one preprocessing stage that maps a dataset to a new one.
type Transformer interface {
	Transform(d *Dataset) (*Dataset, error)
}

// TransformerFunc adapts a function to the Transformer interface.
type TransformerFunc func(d *Dataset) (*Dataset, error)

func (f TransformerFunc) Transform(d *Dataset) (*Dataset, error) { return f(d) }

// Chain composes stages left to right.
func Chain(stages ...Transformer) Transformer {
	return TransformerFunc(func(d *Dataset) (*Dataset, error) {
		var err error
		for i, s := range stages {
			if d, err = s.Transform(d); err != nil {
				return nil, fmt.Errorf("stage %d: %w", i, err)
			}
		}
		return d, nil
	})
}

// mapSamples applies fn to a copy of every sample, keeping the labels.
func (d *Dataset) mapSamples(fn func(s []float64)) *Dataset {
	out := &Dataset{samples: d.Samples(), labels: d.Labels(), dim: d.dim}
	for _, s := range out.samples {
		fn(s)
	}
	return out
}

// ZScaleStandardizer centers every feature on the mean and scales it to unit
// standard deviation, using statistics fitted on a reference dataset.
// A feature with zero variance is mapped to zero.
type ZScaleStandardizer struct {
	Means   []float64
	Stddevs []float64
}

// FitZScale computes per-feature means and standard deviations of d.
func FitZScale(d *Dataset) (*ZScaleStandardizer, error) {
	if d.Len() == 0 {
		return nil, fmt.Errorf("cannot fit standardizer on an empty dataset")
	}
	z := &ZScaleStandardizer{
		Means:   make([]float64, d.dim),
		Stddevs: make([]float64, d.dim),
	}
	col := make([]float64, d.Len())
	for j := range d.dim {
		for i, s := range d.samples {
			col[i] = s[j]
		}
		z.Means[j], z.Stddevs[j] = stat.PopMeanStdDev(col, nil)
	}
	return z, nil
}

func (z *ZScaleStandardizer) Transform(d *Dataset) (*Dataset, error) {
	if d.Len() > 0 && d.dim != len(z.Means) {
		return nil, fmt.Errorf("%w: standardizer fitted on %d features, got %d", ErrDimensionMismatch, len(z.Means), d.dim)
	}
	return d.mapSamples(func(s []float64) {
		for j := range s {
			if z.Stddevs[j] == 0 {
				s[j] = 0
				continue
			}
			s[j] = (s[j] - z.Means[j]) / z.Stddevs[j]
		}
	}), nil
}

// Standardize fits a ZScaleStandardizer on d and applies it to d.
var Standardize = TransformerFunc(func(d *Dataset) (*Dataset, error) {
	z, err := FitZScale(d)
	if err != nil {
		return nil, err
	}
	return z.Transform(d)
})

// MinMaxNormalizer rescales every feature to [0, 1] using fitted bounds.
// A constant feature is mapped to zero.
type MinMaxNormalizer struct {
	Mins []float64
	Maxs []float64
}

func FitMinMax(d *Dataset) (*MinMaxNormalizer, error) {
	if d.Len() == 0 {
		return nil, fmt.Errorf("cannot fit normalizer on an empty dataset")
	}
	n := &MinMaxNormalizer{
		Mins: d.Sample(0),
		Maxs: d.Sample(0),
	}
	for _, s := range d.samples[1:] {
		for j, v := range s {
			n.Mins[j] = min(n.Mins[j], v)
			n.Maxs[j] = max(n.Maxs[j], v)
		}
	}
	return n, nil
}

func (n *MinMaxNormalizer) Transform(d *Dataset) (*Dataset, error) {
	if d.Len() > 0 && d.dim != len(n.Mins) {
		return nil, fmt.Errorf("%w: normalizer fitted on %d features, got %d", ErrDimensionMismatch, len(n.Mins), d.dim)
	}
	return d.mapSamples(func(s []float64) {
		for j := range s {
			span := n.Maxs[j] - n.Mins[j]
			if span == 0 {
				s[j] = 0
				continue
			}
			s[j] = (s[j] - n.Mins[j]) / span
		}
	}), nil
}
