// Package dataset holds the immutable in-memory table of feature vectors that
// the clustering engines train on and predict for.
package dataset

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrDimensionMismatch = errors.New("sample dimensionality mismatch")
	ErrLabelCount        = errors.New("label count does not match sample count")
	ErrUnlabeled         = errors.New("dataset has no labels")
	ErrInvalidFraction   = errors.New("split fraction must be between 0 and 1 exclusive")
)

// Dataset is an ordered sequence of samples sharing one dimensionality,
// optionally paired with ground-truth labels. Labels are only used for
// evaluation and stratification, never for training.
//
// A Dataset is never mutated after construction. Accessors return copies and
// every derived dataset is a new value.
type Dataset struct {
	samples [][]float64
	labels  []string
	dim     int
}

// New builds an unlabeled dataset from a deep copy of samples.
func New(samples [][]float64) (*Dataset, error) {
	return build(samples, nil)
}

// NewLabeled builds a labeled dataset. labels must have one entry per sample.
func NewLabeled(samples [][]float64, labels []string) (*Dataset, error) {
	if len(labels) != len(samples) {
		return nil, fmt.Errorf("%w: %d labels for %d samples", ErrLabelCount, len(labels), len(samples))
	}
	return build(samples, labels)
}

func build(samples [][]float64, labels []string) (*Dataset, error) {
	d := &Dataset{samples: make([][]float64, len(samples))}
	for i, s := range samples {
		if i == 0 {
			if len(s) == 0 {
				return nil, fmt.Errorf("%w: sample 0 is empty", ErrDimensionMismatch)
			}
			d.dim = len(s)
		}
		if len(s) != d.dim {
			return nil, fmt.Errorf("%w: sample %d has %d features, want %d", ErrDimensionMismatch, i, len(s), d.dim)
		}
		d.samples[i] = slices.Clone(s)
	}
	if labels != nil {
		d.labels = slices.Clone(labels)
	}
	return d, nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int { return len(d.samples) }

// Dim returns the shared dimensionality, or zero for an empty dataset.
func (d *Dataset) Dim() int { return d.dim }

// Labeled reports whether ground-truth labels are attached.
func (d *Dataset) Labeled() bool { return d.labels != nil }

func (d *Dataset) Sample(i int) []float64 { return slices.Clone(d.samples[i]) }

func (d *Dataset) Label(i int) string {
	if d.labels == nil {
		return ""
	}
	return d.labels[i]
}

// Samples returns a deep copy of all samples.
func (d *Dataset) Samples() [][]float64 {
	out := make([][]float64, len(d.samples))
	for i, s := range d.samples {
		out[i] = slices.Clone(s)
	}
	return out
}

// Labels returns a copy of the labels, or nil for an unlabeled dataset.
func (d *Dataset) Labels() []string { return slices.Clone(d.labels) }

// Matrix returns the samples as an n x D dense matrix.
func (d *Dataset) Matrix() *mat.Dense {
	if len(d.samples) == 0 {
		return &mat.Dense{}
	}
	data := make([]float64, 0, len(d.samples)*d.dim)
	for _, s := range d.samples {
		data = append(data, s...)
	}
	return mat.NewDense(len(d.samples), d.dim, data)
}

// Subset returns a new dataset holding the samples at the given indexes, in order.
func (d *Dataset) Subset(index []int) *Dataset {
	out := &Dataset{samples: make([][]float64, len(index)), dim: d.dim}
	if d.labels != nil {
		out.labels = make([]string, len(index))
	}
	for i, at := range index {
		out.samples[i] = slices.Clone(d.samples[at])
		if d.labels != nil {
			out.labels[i] = d.labels[at]
		}
	}
	if len(index) == 0 {
		out.dim = 0
	}
	return out
}

// Merge concatenates datasets of equal dimensionality. The result is labeled
// only when every input is labeled.
func Merge(sets ...*Dataset) (*Dataset, error) {
	var (
		samples [][]float64
		labels  []string
		labeled = true
	)
	for _, s := range sets {
		samples = append(samples, s.samples...)
		labels = append(labels, s.labels...)
		labeled = labeled && s.Labeled()
	}
	if !labeled {
		return New(samples)
	}
	return NewLabeled(samples, labels)
}
