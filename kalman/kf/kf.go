package kf

import (
	"errors"
	"fmt"

	filter "github.com/milosgajdos/go-navfusion"
	"github.com/milosgajdos/go-navfusion/estimate"
	"github.com/milosgajdos/go-navfusion/kalman"
	"github.com/milosgajdos/go-navfusion/matrix"
	"github.com/milosgajdos/go-navfusion/model"
	"github.com/milosgajdos/go-navfusion/noise"
)

var (
	// ErrSingularCovariance is returned when innovation covariance can not be inverted.
	ErrSingularCovariance = errors.New("singular innovation covariance")
	// ErrPhase is returned when filter phases are run out of order.
	ErrPhase = errors.New("kalman phase out of order")
)

var _ kalman.Kalman = (*KF)(nil)

type phase int

const (
	idle phase = iota
	predicted
	innovated
)

// Option configures KF
type Option func(*KF)

// WithRawInnovation makes the filter store the raw measurement z
// in place of the residual z - H*x_p when innovating.
func WithRawInnovation() Option {
	return func(k *KF) {
		k.raw = true
	}
}

// KF is Kalman Filter
type KF struct {
	// m is KF system model
	m *model.Axis
	// q is state noise a.k.a. process noise
	q filter.Noise
	// r is output noise a.k.a. measurement noise
	r filter.Noise
	// x is the filter state
	x *matrix.Matrix
	// xp is the predicted state
	xp *matrix.Matrix
	// y is innovation vector
	y *matrix.Matrix
	// p is the KF covariance matrix
	p *matrix.Matrix
	// pp is the KF predicted covariance matrix
	pp *matrix.Matrix
	// k is Kalman gain
	k *matrix.Matrix
	// s is innovation covariance
	s *matrix.Matrix
	// A, B, H, Q and R are model and noise matrices
	A, B, H, Q, R *matrix.Matrix
	// eye is identity of the state size
	eye *matrix.Matrix
	// raw stores z as innovation
	raw bool
	// ph is the current filter phase
	ph phase
}

// New creates new KF and returns it.
// It accepts the following parameters:
//   - m:      constant velocity axis model
//   - init:   initial condition of the filter
//   - q:      state noise a.k.a. process noise
//   - r:      output noise a.k.a. measurement noise
//
// Nil noise is treated as zero noise.
// It returns error if either of the following conditions is met:
//   - invalid model is given: model dimensions must be positive integers
//   - invalid initial condition is given: dimensions must match the model
//   - invalid state or output noise is given: noise covariance must match the model dimensions
func New(m *model.Axis, init filter.InitCond, q, r filter.Noise, opts ...Option) (*KF, error) {
	if m == nil {
		return nil, fmt.Errorf("invalid model: %v", m)
	}

	nx, ny := m.Dims()
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("invalid model dimensions: [%d x %d]", nx, ny)
	}

	if init == nil {
		return nil, fmt.Errorf("invalid initial condition: %v", init)
	}

	x := init.State()
	if rows, cols := x.Dims(); rows != nx || cols != 1 {
		return nil, fmt.Errorf("invalid initial state dimensions: [%d x %d]", rows, cols)
	}

	p := init.Cov()
	if rows, cols := p.Dims(); rows != nx || cols != nx {
		return nil, fmt.Errorf("invalid initial covariance dimensions: [%d x %d]", rows, cols)
	}

	if q == nil {
		q, _ = noise.NewZero(nx)
	}
	if rows, _ := q.Cov().Dims(); rows != nx {
		return nil, fmt.Errorf("invalid state noise dimension: %d != %d", rows, nx)
	}

	if r == nil {
		r, _ = noise.NewZero(ny)
	}
	if rows, _ := r.Cov().Dims(); rows != ny {
		return nil, fmt.Errorf("invalid output noise dimension: %d != %d", rows, ny)
	}

	eye, err := matrix.Identity(nx)
	if err != nil {
		return nil, err
	}

	k := &KF{
		m:   m,
		q:   q,
		r:   r,
		x:   x,
		xp:  matrix.MustNew(nx, 1, nil),
		y:   matrix.MustNew(ny, 1, nil),
		p:   p,
		pp:  matrix.MustNew(nx, nx, nil),
		k:   matrix.MustNew(nx, ny, nil),
		s:   matrix.MustNew(ny, ny, nil),
		A:   m.StateMatrix(),
		B:   m.ControlMatrix(),
		H:   m.OutputMatrix(),
		Q:   q.Cov(),
		R:   r.Cov(),
		eye: eye,
	}

	for _, o := range opts {
		o(k)
	}

	return k, nil
}

// Predict calculates the next system state given the acceleration u and returns its estimate.
// Predicted state and covariance are stored in the filter, the filter state is not modified.
// It returns error if it fails to propagate the state to the next step.
func (k *KF) Predict(u float64) (filter.Estimate, error) {
	// x_p = A*x + B*u
	xp, err := k.m.Propagate(k.x, u)
	if err != nil {
		return nil, fmt.Errorf("system state propagation failed: %w", err)
	}

	// P_p = A*P*A' + Q
	at, _ := matrix.Transpose(k.A)
	pp, err := matrix.MulChain(k.A, k.p, at)
	if err != nil {
		return nil, fmt.Errorf("covariance propagation failed: %w", err)
	}

	if err := pp.Add(k.Q); err != nil {
		return nil, fmt.Errorf("covariance propagation failed: %w", err)
	}

	_ = k.xp.CopyFrom(xp)
	_ = k.pp.CopyFrom(pp)
	k.ph = predicted

	return estimate.NewBaseWithCov(k.xp, k.pp)
}

// Innovate computes innovation, innovation covariance and Kalman gain for measurement z.
// It must be called after Predict.
// It returns ErrSingularCovariance if the innovation covariance can not be inverted,
// in which case no filter matrix is modified.
func (k *KF) Innovate(z *matrix.Matrix) error {
	if k.ph != predicted {
		return fmt.Errorf("%w: innovate before predict", ErrPhase)
	}

	_, ny := k.m.Dims()
	if z == nil {
		return fmt.Errorf("invalid measurement supplied: %v", z)
	}
	if rows, cols := z.Dims(); rows != ny || cols != 1 {
		return fmt.Errorf("invalid measurement dimensions: [%d x %d]", rows, cols)
	}

	// y = z - H*x_p
	y := z.Clone()
	if !k.raw {
		hx, err := k.m.Observe(k.xp)
		if err != nil {
			return fmt.Errorf("failed to observe system output: %w", err)
		}
		_ = y.Sub(hx)
	}

	// S = H*P_p*H' + R
	ht, _ := matrix.Transpose(k.H)
	pht, err := matrix.Mul(k.pp, ht)
	if err != nil {
		return err
	}

	s, err := matrix.Mul(k.H, pht)
	if err != nil {
		return err
	}
	_ = s.Add(k.R)

	sInv, err := matrix.Inverse(s)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSingularCovariance, err)
	}

	// K = P_p*H'*S^-1
	gain, err := matrix.Mul(pht, sInv)
	if err != nil {
		return err
	}

	_ = k.y.CopyFrom(y)
	_ = k.s.CopyFrom(s)
	_ = k.k.CopyFrom(gain)
	k.ph = innovated

	return nil
}

// Correct corrects the predicted state using the last innovation and returns the corrected estimate.
// It must be called after Innovate.
func (k *KF) Correct() (filter.Estimate, error) {
	if k.ph != innovated {
		return nil, fmt.Errorf("%w: correct before innovate", ErrPhase)
	}

	// x = x_p + K*y
	ky, err := matrix.Mul(k.k, k.y)
	if err != nil {
		return nil, err
	}
	x, _ := matrix.Sum(k.xp, ky)

	// P = (I - K*H)*P_p
	kh, err := matrix.Mul(k.k, k.H)
	if err != nil {
		return nil, err
	}
	a, _ := matrix.Difference(k.eye, kh)
	p, err := matrix.Mul(a, k.pp)
	if err != nil {
		return nil, err
	}

	_ = k.x.CopyFrom(x)
	_ = k.p.CopyFrom(p)
	k.ph = idle

	return estimate.NewBaseWithCov(k.x, k.p)
}

// Update corrects the predicted state using the measurement z and returns corrected estimate.
// It returns error if either invalid measurement was supplied or if it fails to innovate.
func (k *KF) Update(z *matrix.Matrix) (filter.Estimate, error) {
	if err := k.Innovate(z); err != nil {
		return nil, err
	}

	return k.Correct()
}

// Run runs one step of KF for given acceleration u and measurement z.
// It returns error if it either fails to propagate or correct the state.
func (k *KF) Run(u float64, z *matrix.Matrix) (filter.Estimate, error) {
	if _, err := k.Predict(u); err != nil {
		return nil, err
	}

	return k.Update(z)
}

// Model returns KF model
func (k *KF) Model() *model.Axis {
	return k.m
}

// StateNoise retruns state noise
func (k *KF) StateNoise() filter.Noise {
	return k.q
}

// OutputNoise retruns output noise
func (k *KF) OutputNoise() filter.Noise {
	return k.r
}

// State returns KF state
func (k *KF) State() *matrix.Matrix {
	return k.x.Clone()
}

// Position returns position component of KF state
func (k *KF) Position() float64 {
	return k.x.At(0, 0)
}

// Velocity returns velocity component of KF state
func (k *KF) Velocity() float64 {
	return k.x.At(1, 0)
}

// SetState sets KF state to x.
// It returns error if either x is nil or its dimensions are not the same as KF state dimensions.
func (k *KF) SetState(x *matrix.Matrix) error {
	if x == nil {
		return fmt.Errorf("invalid state vector: %v", x)
	}

	if err := k.x.CopyFrom(x); err != nil {
		return fmt.Errorf("invalid state vector: %w", err)
	}
	k.ph = idle

	return nil
}

// Cov returns KF covariance
func (k *KF) Cov() *matrix.Matrix {
	return k.p.Clone()
}

// PredCov returns KF predicted covariance
func (k *KF) PredCov() *matrix.Matrix {
	return k.pp.Clone()
}

// SetCov sets KF covariance matrix to cov.
// It returns error if either cov is nil or its dimensions are not the same as KF covariance dimensions.
func (k *KF) SetCov(cov *matrix.Matrix) error {
	if cov == nil {
		return fmt.Errorf("invalid covariance matrix: %v", cov)
	}

	if err := k.p.CopyFrom(cov); err != nil {
		return fmt.Errorf("invalid covariance matrix: %w", err)
	}

	return nil
}

// Gain returns Kalman gain
func (k *KF) Gain() *matrix.Matrix {
	return k.k.Clone()
}

// Innovation returns the last innovation vector
func (k *KF) Innovation() *matrix.Matrix {
	return k.y.Clone()
}

// InnovationCov returns the last innovation covariance
func (k *KF) InnovationCov() *matrix.Matrix {
	return k.s.Clone()
}
