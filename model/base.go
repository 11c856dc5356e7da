package model

import (
	"fmt"

	"github.com/milosgajdos/go-navfusion/matrix"
)

// InitCond implements filter.InitCond
type InitCond struct {
	state *matrix.Matrix
	cov   *matrix.Matrix
}

// NewInitCond creates new InitCond and returns it
func NewInitCond(state, cov *matrix.Matrix) *InitCond {
	return &InitCond{
		state: state.Clone(),
		cov:   cov.Clone(),
	}
}

// State returns initial state
func (c *InitCond) State() *matrix.Matrix {
	return c.state.Clone()
}

// Cov returns initial covariance
func (c *InitCond) Cov() *matrix.Matrix {
	return c.cov.Clone()
}

// Option configures Axis model
type Option func(*Axis)

// WithPositionOnly makes the model observe position only: H = [1 0].
func WithPositionOnly() Option {
	return func(a *Axis) {
		a.C = matrix.MustNew(1, 2, []float64{1, 0})
	}
}

// Axis is a constant velocity model of motion along a single spatial axis.
//
//	x[n+1] = A*x[n] + B*u[n]
//	y[n]   = C*x[n]
//
// where x = [position, velocity]' and u is the acceleration along the axis.
type Axis struct {
	// A is internal state matrix
	A *matrix.Matrix
	// B is control matrix
	B *matrix.Matrix
	// C is output state matrix
	C *matrix.Matrix
	// dt is the model timestep
	dt float64
}

// NewAxis creates a constant velocity model with timestep dt and returns it.
// By default both position and velocity are observed.
// It returns error if dt is not positive.
func NewAxis(dt float64, opts ...Option) (*Axis, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("invalid model timestep: %v", dt)
	}

	a := &Axis{
		A:  matrix.MustNew(2, 2, []float64{1, dt, 0, 1}),
		B:  matrix.MustNew(2, 1, []float64{dt * dt / 2, dt}),
		C:  matrix.MustNew(2, 2, []float64{1, 0, 0, 1}),
		dt: dt,
	}

	for _, o := range opts {
		o(a)
	}

	return a, nil
}

// Propagate propagates internal state x to the next step given acceleration u
func (a *Axis) Propagate(x *matrix.Matrix, u float64) (*matrix.Matrix, error) {
	if x == nil || !dimsEqual(x, 2, 1) {
		return nil, fmt.Errorf("invalid state vector")
	}

	out, err := matrix.Mul(a.A, x)
	if err != nil {
		return nil, err
	}

	bu, _ := matrix.Scaled(a.B, u)
	if err := out.Add(bu); err != nil {
		return nil, err
	}

	return out, nil
}

// Observe observes external state of the axis given its internal state x
func (a *Axis) Observe(x *matrix.Matrix) (*matrix.Matrix, error) {
	if x == nil || !dimsEqual(x, 2, 1) {
		return nil, fmt.Errorf("invalid state vector")
	}

	return matrix.Mul(a.C, x)
}

// Dims returns state and output dimensions of the model
func (a *Axis) Dims() (nx, ny int) {
	nx, _ = a.A.Dims()
	ny, _ = a.C.Dims()

	return nx, ny
}

// Dt returns model timestep
func (a *Axis) Dt() float64 {
	return a.dt
}

// StateMatrix returns state propagation matrix
func (a *Axis) StateMatrix() *matrix.Matrix {
	return a.A.Clone()
}

// ControlMatrix returns state propagation control matrix
func (a *Axis) ControlMatrix() *matrix.Matrix {
	return a.B.Clone()
}

// OutputMatrix returns observation matrix
func (a *Axis) OutputMatrix() *matrix.Matrix {
	return a.C.Clone()
}

func dimsEqual(m *matrix.Matrix, r, c int) bool {
	mr, mc := m.Dims()
	return mr == r && mc == c
}
