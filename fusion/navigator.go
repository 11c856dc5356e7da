package fusion

import (
	"errors"
	"fmt"
	"math"

	filter "github.com/milosgajdos/go-navfusion"
	"github.com/milosgajdos/go-navfusion/gps"
	"github.com/milosgajdos/go-navfusion/kalman/kf"
	"github.com/milosgajdos/go-navfusion/matrix"
	"github.com/milosgajdos/go-navfusion/model"
	"github.com/milosgajdos/go-navfusion/noise"
)

// ErrNotNormalized is returned when a sample quaternion is not of unit norm.
var ErrNotNormalized = errors.New("quaternion is not normalized")

// Axis indices of the navigation frame
const (
	North = iota
	East
	Down
)

// axisNames are used in errors
var axisNames = [3]string{"north", "east", "down"}

// Config configures Navigator
type Config struct {
	// SampleHz is the IMU sample frequency
	SampleHz float64
	// Dt is the Kalman filter timestep
	Dt float64
	// OffsetX and OffsetY are navigation frame accelerometer offsets
	OffsetX, OffsetY float64
	// Gravity is the gravity acceleration added on the down axis
	Gravity float64
	// Tolerance is the allowed deviation of quaternion norm from 1
	Tolerance float64
	// Earth holds flat-Earth conversion constants
	Earth Earth
	// P0 is initial state variance
	P0 float64
	// Q is process noise variance
	Q float64
	// R is measurement noise variance
	R float64
	// RawInnovation stores the raw measurement as innovation
	RawInnovation bool
	// EulerAlpha low-pass filters Euler angles when in (0, 1)
	EulerAlpha float64
}

// DefaultConfig returns default Navigator configuration
func DefaultConfig() Config {
	return Config{
		SampleHz:  1000,
		Dt:        0.001,
		Gravity:   9.80665,
		Tolerance: 0.01,
		Earth:     DefaultEarth(),
		P0:        1,
		Q:         0.2,
		R:         0.2,
	}
}

// Validate checks c and returns error if it is not usable
func (c Config) Validate() error {
	switch {
	case c.SampleHz <= 0:
		return fmt.Errorf("invalid sample frequency: %v", c.SampleHz)
	case c.Dt <= 0:
		return fmt.Errorf("invalid kalman timestep: %v", c.Dt)
	case c.P0 < 0 || c.Q < 0 || c.R < 0:
		return fmt.Errorf("invalid noise variance: p0=%v q=%v r=%v", c.P0, c.Q, c.R)
	case c.Tolerance <= 0:
		return fmt.Errorf("invalid quaternion tolerance: %v", c.Tolerance)
	case c.EulerAlpha < 0 || c.EulerAlpha >= 1:
		return fmt.Errorf("invalid euler alpha: %v", c.EulerAlpha)
	case c.Earth.Radius <= 0 || c.Earth.PoleDistance <= 0:
		return fmt.Errorf("invalid earth constants: %+v", c.Earth)
	}

	return nil
}

// Sample is a single IMU tick input
type Sample struct {
	// Q is the attitude quaternion
	Q Quaternion
	// Accel is the raw accelerometer triple in m/s^2
	Accel [3]float64
}

// Navigator fuses IMU samples and GPS fixes into north, east and down
// position and velocity estimates, one Kalman filter per axis.
type Navigator struct {
	cfg     Config
	period  float64
	filters [3]*kf.KF
	ref     ReferenceFix
	euler   [3]float64
	tick    uint64
}

// New creates new Navigator and returns it.
// It returns error if the config is invalid or the filters can not be created.
func New(cfg Config) (*Navigator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := &Navigator{
		cfg:    cfg,
		period: 1 / cfg.SampleHz,
	}

	var opts []kf.Option
	if cfg.RawInnovation {
		opts = append(opts, kf.WithRawInnovation())
	}

	for i := range n.filters {
		m, err := model.NewAxis(cfg.Dt)
		if err != nil {
			return nil, err
		}

		cov, _ := matrix.Identity(2)
		_ = cov.Scale(cfg.P0)
		init := model.NewInitCond(matrix.MustNew(2, 1, nil), cov)

		q, err := diagNoise(cfg.Q)
		if err != nil {
			return nil, err
		}

		r, err := diagNoise(cfg.R)
		if err != nil {
			return nil, err
		}

		f, err := kf.New(m, init, q, r, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s filter: %w", axisNames[i], err)
		}
		n.filters[i] = f
	}

	return n, nil
}

func diagNoise(v float64) (filter.Noise, error) {
	if v == 0 {
		return noise.NewZero(2)
	}

	return noise.NewDiagonal(2, v)
}

// Config returns navigator configuration
func (n *Navigator) Config() Config {
	return n.cfg
}

// Filter returns the Kalman filter of the given axis
func (n *Navigator) Filter(axis int) *kf.KF {
	return n.filters[axis]
}

// Reference returns the GPS reference fix
func (n *Navigator) Reference() *ReferenceFix {
	return &n.ref
}

// NavAccel returns navigation frame acceleration for sample s: the accelerometer
// reading rotated by the inverse of the quaternion rotation, gravity compensated
// on the down axis and with north and east offsets removed.
func (n *Navigator) NavAccel(s Sample) ([3]float64, error) {
	if norm := s.Q.Norm(); math.Abs(norm-1) > n.cfg.Tolerance {
		return [3]float64{}, fmt.Errorf("%w: norm %v", ErrNotNormalized, norm)
	}

	inv, err := matrix.Inverse(s.Q.Rotation())
	if err != nil {
		return [3]float64{}, fmt.Errorf("failed to invert rotation: %w", err)
	}

	a, err := matrix.Mul(inv, matrix.MustNew(3, 1, s.Accel[:]))
	if err != nil {
		return [3]float64{}, err
	}

	return [3]float64{
		a.At(North, 0) - n.cfg.OffsetX,
		a.At(East, 0) - n.cfg.OffsetY,
		a.At(Down, 0) + n.cfg.Gravity,
	}, nil
}

// Step runs one fusion tick for IMU sample s and an optional GPS fix.
//
// Without a fix every axis is dead-reckoned from its current state at the IMU
// period and the result is used as the filter measurement. With a fix the
// flat-Earth offset from the reference fix is added to the current position
// and the velocity is derived by finite difference over the filter timestep.
//
// If a filter fails to correct, its axis keeps the dead-reckoned state and the
// error is returned together with the output.
func (n *Navigator) Step(s Sample, fix *gps.Fix) (Output, error) {
	acc, err := n.NavAccel(s)
	if err != nil {
		return Output{}, err
	}

	dr := n.deadReckon(acc)

	z := dr
	if fix != nil {
		z = n.correction(fix)
	}

	var errs []error
	for i, f := range n.filters {
		meas := matrix.MustNew(2, 1, z[i][:])
		if _, err := f.Run(acc[i], meas); err != nil {
			errs = append(errs, fmt.Errorf("%s axis: %w", axisNames[i], err))
			_ = f.SetState(matrix.MustNew(2, 1, dr[i][:]))
		}
	}

	n.tick++
	out := n.output(s.Q, acc, fix != nil)

	return out, errors.Join(errs...)
}

// deadReckon advances each axis state by acceleration acc over the IMU period
func (n *Navigator) deadReckon(acc [3]float64) [3][2]float64 {
	var z [3][2]float64

	t := n.period
	for i, f := range n.filters {
		x, v := f.Position(), f.Velocity()
		z[i] = [2]float64{x + v*t + acc[i]*t*t/2, v + acc[i]*t}
	}

	return z
}

// correction returns GPS position and velocity measurement for each axis
func (n *Navigator) correction(fix *gps.Fix) [3][2]float64 {
	var z [3][2]float64

	d := n.ref.Delta(n.cfg.Earth.Meters(fix.Latitude, fix.Longitude, fix.Altitude))
	for i, f := range n.filters {
		x := f.Position() + d[i]
		v := f.Velocity() + (x-f.Position())/n.cfg.Dt
		z[i] = [2]float64{x, v}
	}

	return z
}

func (n *Navigator) output(q Quaternion, acc [3]float64, fix bool) Output {
	e := q.Euler()
	if a := n.cfg.EulerAlpha; a > 0 && n.tick > 1 {
		for i := range e {
			e[i] = LowPass(n.euler[i], e[i], a)
		}
	}
	n.euler = e

	out := Output{
		Euler: e,
		Accel: acc,
		GPS:   fix,
		Tick:  n.tick,
	}

	for i, f := range n.filters {
		out.Position[i] = f.Position()
		out.Velocity[i] = f.Velocity()
	}

	return out
}
