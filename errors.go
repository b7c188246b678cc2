package clusterkit

import (
	"errors"

	"github.com/yyyoichi/clusterkit/dataset"
)

var (
	ErrDegenerateDataset  = errors.New("dataset has too few samples for the requested cluster count")
	ErrDimensionMismatch  = dataset.ErrDimensionMismatch
	ErrSingularCovariance = errors.New("covariance matrix is not invertible")
	ErrNotTrained         = errors.New("engine has not been trained")
	ErrInvalidOption      = errors.New("invalid option")
)
