package mvn

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrNotPositiveDefinite = errors.New("matrix is not positive definite")
)

// Normal is a multivariate normal density evaluated through the Cholesky
// factor of its covariance.
type Normal struct {
	mu      *mat.VecDense
	chol    mat.Cholesky
	logNorm float64
	bumped  bool
}

// New factorizes sigma. When sigma is not positive definite, bump is added to
// its diagonal once and the factorization is retried. sigma is left untouched.
func New(mu []float64, sigma mat.Symmetric, bump float64) (*Normal, error) {
	dim := sigma.SymmetricDim()
	if len(mu) != dim {
		return nil, fmt.Errorf("mean has %d features, covariance %d", len(mu), dim)
	}
	n := &Normal{mu: mat.NewVecDense(dim, append([]float64(nil), mu...))}
	if ok := n.chol.Factorize(sigma); !ok {
		if bump <= 0 {
			return nil, fmt.Errorf("%w: cannot factorize", ErrNotPositiveDefinite)
		}
		bumped := mat.NewSymDense(dim, nil)
		bumped.CopySym(sigma)
		for i := range dim {
			bumped.SetSym(i, i, bumped.At(i, i)+bump)
		}
		if ok := n.chol.Factorize(bumped); !ok {
			return nil, fmt.Errorf("%w: cannot factorize after adding %g to the diagonal", ErrNotPositiveDefinite, bump)
		}
		n.bumped = true
	}
	n.logNorm = -0.5 * (float64(dim)*math.Log(2*math.Pi) + n.chol.LogDet())
	return n, nil
}

// Bumped reports whether the regularization bump was needed.
func (n *Normal) Bumped() bool { return n.bumped }

// LogProb returns the log density at x.
func (n *Normal) LogProb(x []float64) float64 {
	dim := n.mu.Len()
	diff := mat.NewVecDense(dim, nil)
	diff.SubVec(mat.NewVecDense(dim, x), n.mu)

	var z mat.VecDense
	if err := n.chol.SolveVecTo(&z, diff); err != nil {
		// An ill-conditioned factor still yields a usable solution.
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return math.NaN()
		}
	}
	return n.logNorm - 0.5*mat.Dot(diff, &z)
}
