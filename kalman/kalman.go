package kalman

import (
	filter "github.com/milosgajdos/go-navfusion"
	"github.com/milosgajdos/go-navfusion/matrix"
)

// Kalman is Kalman Filter
type Kalman interface {
	// filter.Filter is dynamical system filter
	filter.Filter
	// Cov returns Kalman filter state covariance
	Cov() *matrix.Matrix
	// Gain returns Kalman filter gain
	Gain() *matrix.Matrix
}
