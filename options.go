package clusterkit

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/yyyoichi/clusterkit/distance"
)

// Option configures an engine. Options an engine does not use are ignored.
type Option func(*config) error

type config struct {
	maxEpochs      int
	batchSize      int
	tolerance      float64
	seed           int64
	dist           distance.Distance
	fuzziness      float64
	regularization float64
	workers        int
	logger         *zap.Logger
}

// WithMaxEpochs caps the number of training epochs. Defaults to 1000.
func WithMaxEpochs(n int) Option {
	return func(c *config) error {
		if n < 1 {
			return fmt.Errorf("%w: max epochs %d < 1", ErrInvalidOption, n)
		}
		c.maxEpochs = n
		return nil
	}
}

// WithBatchSize sets how many samples one worker processes at a time, and how
// many epochs pass between progress log lines. It never changes the result.
// Defaults to 128.
func WithBatchSize(n int) Option {
	return func(c *config) error {
		if n < 1 {
			return fmt.Errorf("%w: batch size %d < 1", ErrInvalidOption, n)
		}
		c.batchSize = n
		return nil
	}
}

// WithTolerance stops training once an epoch improves the loss by no more
// than tol. Zero stops only when the loss stops improving. Defaults to 1e-4.
func WithTolerance(tol float64) Option {
	return func(c *config) error {
		if tol < 0 {
			return fmt.Errorf("%w: tolerance %g < 0", ErrInvalidOption, tol)
		}
		c.tolerance = tol
		return nil
	}
}

// WithSeed fixes the random source used for seeding and initialization.
func WithSeed(seed int64) Option {
	return func(c *config) error {
		c.seed = seed
		return nil
	}
}

// WithDistance replaces the Euclidean kernel.
func WithDistance(d distance.Distance) Option {
	return func(c *config) error {
		if d == nil {
			return fmt.Errorf("%w: nil distance", ErrInvalidOption)
		}
		c.dist = d
		return nil
	}
}

// WithFuzziness sets the Fuzzy C-Means exponent m. Larger values give softer
// boundaries. It must be greater than 1. Defaults to 2.
func WithFuzziness(m float64) Option {
	return func(c *config) error {
		if !(m > 1) {
			return fmt.Errorf("%w: fuzziness %g must be > 1", ErrInvalidOption, m)
		}
		c.fuzziness = m
		return nil
	}
}

// WithRegularization sets the constant added to every Gaussian Mixture
// covariance diagonal. Defaults to 1e-6.
func WithRegularization(eps float64) Option {
	return func(c *config) error {
		if eps < 0 {
			return fmt.Errorf("%w: regularization %g < 0", ErrInvalidOption, eps)
		}
		c.regularization = eps
		return nil
	}
}

// WithWorkers spreads per-sample work over n goroutines. Results do not
// depend on n. Defaults to 1.
func WithWorkers(n int) Option {
	return func(c *config) error {
		if n < 1 {
			return fmt.Errorf("%w: workers %d < 1", ErrInvalidOption, n)
		}
		c.workers = n
		return nil
	}
}

// WithLogger receives per-epoch progress at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) error {
		if l != nil {
			c.logger = l
		}
		return nil
	}
}

func newConfig(opts ...Option) (config, error) {
	c := config{
		maxEpochs:      1000,
		batchSize:      128,
		tolerance:      1e-4,
		dist:           distance.Euclidean{},
		fuzziness:      2,
		regularization: 1e-6,
		workers:        1,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(&c); err != nil {
			return c, err
		}
	}
	return c, nil
}
