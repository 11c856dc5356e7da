package estimate

import (
	"fmt"

	"github.com/milosgajdos/go-navfusion/matrix"
)

// Base is base estimate
type Base struct {
	// val is estimated value
	val *matrix.Matrix
	// cov is estimated covariance
	cov *matrix.Matrix
}

// NewBase returns base estimate given val with zero covariance
func NewBase(val *matrix.Matrix) (*Base, error) {
	if val == nil {
		return nil, fmt.Errorf("invalid estimate value: %v", val)
	}

	r, _ := val.Dims()
	c, err := matrix.New(r, r)
	if err != nil {
		return nil, err
	}

	return &Base{
		val: val.Clone(),
		cov: c,
	}, nil
}

// NewBaseWithCov returns base estimate given value and covariance
func NewBaseWithCov(val, cov *matrix.Matrix) (*Base, error) {
	if val == nil || cov == nil {
		return nil, fmt.Errorf("invalid estimate: val=%v cov=%v", val, cov)
	}

	rv, cv := val.Dims()
	rc, cc := cov.Dims()

	if cv != 1 || rv != rc || rc != cc {
		return nil, fmt.Errorf("invalid dimensions. Val: %d x %d, Cov: %d x %d", rv, cv, rc, cc)
	}

	return &Base{
		val: val.Clone(),
		cov: cov.Clone(),
	}, nil
}

// Val returns estimated value
func (b *Base) Val() *matrix.Matrix {
	return b.val.Clone()
}

// Cov returns covariance estimate
func (b *Base) Cov() *matrix.Matrix {
	return b.cov.Clone()
}
