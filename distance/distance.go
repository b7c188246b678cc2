// Package distance provides the dissimilarity kernels used by the clustering engines.
//
// Every kernel is symmetric and returns zero for identical vectors. Callers are
// expected to pass vectors of equal length; the kernels panic otherwise, the same
// way gonum's floats package does.
package distance

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrUnknownKernel = errors.New("unknown distance kernel")
)

// Distance computes a non-negative dissimilarity between two vectors.
type Distance interface {
	Distance(a, b []float64) float64
}

// Func adapts an ordinary function to the Distance interface.
type Func func(a, b []float64) float64

func (f Func) Distance(a, b []float64) float64 { return f(a, b) }

// Euclidean is the L2 distance. It is the default kernel of every engine.
type Euclidean struct{}

func (Euclidean) Distance(a, b []float64) float64 { return floats.Distance(a, b, 2) }

// SquaredEuclidean is the squared L2 distance.
// It is not a metric but preserves nearest-centroid ordering.
type SquaredEuclidean struct{}

func (SquaredEuclidean) Distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Manhattan is the L1 distance.
type Manhattan struct{}

func (Manhattan) Distance(a, b []float64) float64 { return floats.Distance(a, b, 1) }

// Minkowski is the Lp distance. P must be at least 1.
type Minkowski struct {
	P float64
}

func (m Minkowski) Distance(a, b []float64) float64 { return floats.Distance(a, b, m.P) }

// Chebyshev is the L-infinity distance.
type Chebyshev struct{}

func (Chebyshev) Distance(a, b []float64) float64 { return floats.Distance(a, b, math.Inf(1)) }

// Cosine is one minus the cosine similarity, in [0, 2]. A zero vector is at
// distance 1 from any non-zero vector.
type Cosine struct{}

func (Cosine) Distance(a, b []float64) float64 {
	if floats.Equal(a, b) {
		return 0
	}
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 1
	}
	sim := floats.Dot(a, b) / (na * nb)
	return 1 - max(-1, min(1, sim))
}

// Resolve maps a kernel name to its implementation.
// Accepted names are "euclidean", "sqeuclidean", "manhattan", "chebyshev",
// "cosine" and "minkowski:<p>" with p >= 1. An empty name resolves to Euclidean.
func Resolve(name string) (Distance, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "", "euclidean", "l2":
		return Euclidean{}, nil
	case "sqeuclidean":
		return SquaredEuclidean{}, nil
	case "manhattan", "l1":
		return Manhattan{}, nil
	case "chebyshev":
		return Chebyshev{}, nil
	case "cosine":
		return Cosine{}, nil
	}
	if p, ok := strings.CutPrefix(name, "minkowski:"); ok {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("%w: minkowski order %q must be a number >= 1", ErrUnknownKernel, p)
		}
		return Minkowski{P: v}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKernel, name)
}
