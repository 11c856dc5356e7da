package filter

import "github.com/milosgajdos/go-navfusion/matrix"

// Filter is a dynamical system filter.
type Filter interface {
	// Predict estimates the next internal state of the system given control input u
	Predict(u float64) (Estimate, error)
	// Update updates the system state based on external measurement z
	Update(z *matrix.Matrix) (Estimate, error)
}

// Propagator propagates internal state of the system to the next step
type Propagator interface {
	// Propagate propagates internal state x of the system to the next step given input u
	Propagate(x *matrix.Matrix, u float64) (*matrix.Matrix, error)
}

// Observer observes external state (output) of the system
type Observer interface {
	// Observe observes external state of the system given its internal state x
	Observe(x *matrix.Matrix) (*matrix.Matrix, error)
}

// DiscreteModel is a dynamical system whose state is driven by
// static propagation and observation dynamics matrices
type DiscreteModel interface {
	// Propagator is system propagator
	Propagator
	// Observer is system observer
	Observer
	// Dims returns state and output dimensions of the model
	Dims() (nx, ny int)
	// StateMatrix returns state propagation matrix
	StateMatrix() *matrix.Matrix
	// ControlMatrix returns state propagation control matrix
	ControlMatrix() *matrix.Matrix
	// OutputMatrix returns observation matrix
	OutputMatrix() *matrix.Matrix
}

// InitCond is initial state condition of the filter
type InitCond interface {
	// State returns initial filter state
	State() *matrix.Matrix
	// Cov returns initial state covariance
	Cov() *matrix.Matrix
}

// Estimate is dynamical system filter estimate
type Estimate interface {
	// Val returns estimate value
	Val() *matrix.Matrix
	// Cov returns estimate covariance
	Cov() *matrix.Matrix
}

// Noise is dynamical system noise
type Noise interface {
	// Mean returns noise mean
	Mean() []float64
	// Cov returns covariance matrix of the noise
	Cov() *matrix.Matrix
	// Sample returns a sample of the noise
	Sample() *matrix.Matrix
	// Reset resets the noise
	Reset() error
}

// Smoother is a filter smoother
type Smoother interface {
	// Smooth implements filter smoothing and returns new estimates
	Smooth(est []Estimate, u []float64) ([]Estimate, error)
}
