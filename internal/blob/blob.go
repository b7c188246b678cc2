// Package blob generates labelled synthetic datasets from Gaussian blobs.
package blob

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/yyyoichi/clusterkit/dataset"
)

var (
	ErrInvalidBlob = errors.New("invalid blob")
)

// Blob is an isotropic normal distribution around Center.
type Blob struct {
	Center []float64
	Stddev float64
}

// Sample draws n points from b.
func (b Blob) Sample(n int, src rand.Source) [][]float64 {
	noise := distuv.Normal{Mu: 0, Sigma: b.Stddev, Src: src}
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, len(b.Center))
		for j, c := range b.Center {
			out[i][j] = c + noise.Rand()
		}
	}
	return out
}

// Agglomerate is a weighted set of named blobs.
type Agglomerate struct {
	names   []string
	blobs   []Blob
	weights []float64
}

// NewAgglomerate pairs names with blobs. Weights give the relative share of
// samples drawn from each blob.
func NewAgglomerate(names []string, blobs []Blob, weights []float64) (*Agglomerate, error) {
	if len(names) == 0 || len(names) != len(blobs) || len(blobs) != len(weights) {
		return nil, fmt.Errorf("%w: %d names, %d blobs, %d weights", ErrInvalidBlob, len(names), len(blobs), len(weights))
	}
	dim := len(blobs[0].Center)
	for i, b := range blobs {
		if len(b.Center) != dim || dim == 0 {
			return nil, fmt.Errorf("%w: blob %q has %d features, want %d", ErrInvalidBlob, names[i], len(b.Center), dim)
		}
		if b.Stddev < 0 || weights[i] < 0 {
			return nil, fmt.Errorf("%w: blob %q has negative stddev or weight", ErrInvalidBlob, names[i])
		}
	}
	if floats.Sum(weights) <= 0 {
		return nil, fmt.Errorf("%w: weights sum to zero", ErrInvalidBlob)
	}
	return &Agglomerate{
		names:   append([]string(nil), names...),
		blobs:   append([]Blob(nil), blobs...),
		weights: append([]float64(nil), weights...),
	}, nil
}

// Names returns the blob labels.
func (a *Agglomerate) Names() []string { return append([]string(nil), a.names...) }

// Generate draws about n labelled samples, split across blobs in proportion
// to their weights, in blob order. The same seed gives the same dataset.
func (a *Agglomerate) Generate(n int, seed uint64) (*dataset.Dataset, error) {
	var (
		src     = rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
		total   = floats.Sum(a.weights)
		samples [][]float64
		labels  []string
	)
	for i, b := range a.blobs {
		m := int(float64(n)*a.weights[i]/total + 0.5)
		for _, s := range b.Sample(m, src) {
			samples = append(samples, s)
			labels = append(labels, a.names[i])
		}
	}
	return dataset.NewLabeled(samples, labels)
}

// Colors returns ten equally weighted RGB color blobs. Red, green and blue
// spread twice as wide as the others.
func Colors() *Agglomerate {
	a, _ := NewAgglomerate(
		[]string{"red", "orange", "yellow", "green", "blue", "aqua", "purple", "pink", "magenta", "black"},
		[]Blob{
			{Center: []float64{255, 0, 0}, Stddev: 20},
			{Center: []float64{255, 128, 0}, Stddev: 10},
			{Center: []float64{255, 255, 0}, Stddev: 10},
			{Center: []float64{0, 128, 0}, Stddev: 20},
			{Center: []float64{0, 0, 255}, Stddev: 20},
			{Center: []float64{0, 255, 255}, Stddev: 10},
			{Center: []float64{128, 0, 255}, Stddev: 10},
			{Center: []float64{255, 0, 255}, Stddev: 10},
			{Center: []float64{255, 0, 128}, Stddev: 10},
			{Center: []float64{0, 0, 0}, Stddev: 10},
		},
		[]float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
	)
	return a
}
