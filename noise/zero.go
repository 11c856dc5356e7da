package noise

import (
	"fmt"

	"github.com/milosgajdos/go-navfusion/matrix"
	"gonum.org/v1/gonum/mat"
)

// Zero is zero noise i.e. no noise
type Zero struct {
	// mean stores zero mean values
	mean []float64
	// cov is zero covariance matrix
	cov *matrix.Matrix
}

// NewZero creates new zero noise i.e. zero mean and zero covariance.
// It returns error if size is non-positive.
func NewZero(size int) (*Zero, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid noise dimension: %d", size)
	}

	cov, err := matrix.New(size, size)
	if err != nil {
		return nil, err
	}

	return &Zero{
		mean: make([]float64, size),
		cov:  cov,
	}, nil
}

// Sample generates empty sample and returns it: a column vector with zero values.
func (e *Zero) Sample() *matrix.Matrix {
	return matrix.MustNew(len(e.mean), 1, nil)
}

// Cov returns empty covariance matrix: square matrix with zero values.
func (e *Zero) Cov() *matrix.Matrix {
	return e.cov.Clone()
}

// Mean returns Zero mean.
func (e *Zero) Mean() []float64 {
	mean := make([]float64, len(e.mean))
	copy(mean, e.mean)

	return mean
}

// Reset does nothing: there is no source to reset.
func (e *Zero) Reset() error { return nil }

// String implements the Stringer interface.
func (e *Zero) String() string {
	return fmt.Sprintf("Zero{\nMean=%v\nCov=%v\n}", e.Mean(), mat.Formatted(e.cov, mat.Prefix("    "), mat.Squeeze()))
}
