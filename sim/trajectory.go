package sim

import (
	"fmt"
	"math"
	"time"

	filter "github.com/milosgajdos/go-navfusion"
	"github.com/milosgajdos/go-navfusion/fusion"
	"github.com/milosgajdos/go-navfusion/matrix"
	"github.com/milosgajdos/go-navfusion/model"
	"github.com/milosgajdos/go-navfusion/noise"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Config configures simulated trajectory
type Config struct {
	// Origin is the starting position
	Origin orb.Point
	// Alt is the starting altitude in meters
	Alt float64
	// Accel is the constant north, east and down acceleration in m/s^2
	Accel [3]float64
	// HeadingDeg is the constant vehicle yaw in degrees
	HeadingDeg float64
	// SampleHz is the IMU sample frequency
	SampleHz float64
	// Gravity is the gravity acceleration sensed by the accelerometer
	Gravity float64
	// GPSEvery emits a GPS fix every GPSEvery IMU ticks
	GPSEvery int
	// AccelSigma is the accelerometer noise standard deviation, 0 disables noise
	AccelSigma float64
	// Seed seeds the accelerometer noise
	Seed uint64
	// Start is the time of the first tick
	Start time.Time
}

// Step is a single simulated IMU tick
type Step struct {
	// Tick is the tick number, starting at 1
	Tick int
	// Time is the tick time
	Time time.Time
	// Position is the true north, east and down position in meters
	Position [3]float64
	// Velocity is the true north, east and down velocity in m/s
	Velocity [3]float64
	// Point is the true geographic position
	Point orb.Point
	// Alt is the true altitude in meters
	Alt float64
	// Sample is the simulated IMU sample
	Sample fusion.Sample
	// NMEA holds the GPRMC and GPGGA sentences of this tick, if any
	NMEA []byte
}

// Trajectory simulates a vehicle under constant acceleration.
// Each axis is propagated by the same constant velocity model the filter uses.
type Trajectory struct {
	cfg    Config
	q      fusion.Quaternion
	axes   [3]*model.Axis
	states [3]*matrix.Matrix
	noise  filter.Noise
	tick   int
}

// NewTrajectory creates new Trajectory and returns it.
// It returns error if the config is invalid or the noise can not be created.
func NewTrajectory(cfg Config) (*Trajectory, error) {
	if cfg.SampleHz <= 0 {
		return nil, fmt.Errorf("invalid sample frequency: %v", cfg.SampleHz)
	}
	if cfg.GPSEvery <= 0 {
		return nil, fmt.Errorf("invalid gps period: %d", cfg.GPSEvery)
	}
	if cfg.AccelSigma < 0 {
		return nil, fmt.Errorf("invalid accelerometer noise: %v", cfg.AccelSigma)
	}
	if cfg.Start.IsZero() {
		cfg.Start = time.Date(2024, time.March, 23, 12, 35, 19, 0, time.UTC)
	}

	t := &Trajectory{
		cfg: cfg,
		q:   Yaw(cfg.HeadingDeg * math.Pi / 180),
	}

	for i := range t.axes {
		m, err := model.NewAxis(1 / cfg.SampleHz)
		if err != nil {
			return nil, err
		}
		t.axes[i] = m
		t.states[i] = matrix.MustNew(2, 1, nil)
	}

	var err error
	if cfg.AccelSigma > 0 {
		cov, _ := matrix.Identity(3)
		_ = cov.Scale(cfg.AccelSigma * cfg.AccelSigma)
		t.noise, err = noise.NewSeededGaussian(make([]float64, 3), cov, cfg.Seed)
	} else {
		t.noise, err = noise.NewZero(3)
	}
	if err != nil {
		return nil, err
	}

	return t, nil
}

// Yaw returns the attitude quaternion of a level vehicle with yaw psi in radians
func Yaw(psi float64) fusion.Quaternion {
	return fusion.Quaternion{math.Cos(psi / 2), 0, 0, -math.Sin(psi / 2)}
}

// Config returns trajectory config
func (t *Trajectory) Config() Config {
	return t.cfg
}

// Next advances the trajectory by one IMU tick and returns the new step.
func (t *Trajectory) Next() (Step, error) {
	var s Step

	for i, m := range t.axes {
		x, err := m.Propagate(t.states[i], t.cfg.Accel[i])
		if err != nil {
			return Step{}, fmt.Errorf("trajectory propagation failed: %w", err)
		}
		t.states[i] = x
		s.Position[i] = x.At(0, 0)
		s.Velocity[i] = x.At(1, 0)
	}

	t.tick++
	s.Tick = t.tick
	s.Time = t.cfg.Start.Add(time.Duration(float64(t.tick) / t.cfg.SampleHz * float64(time.Second)))
	s.Point = Offset(t.cfg.Origin, s.Position[fusion.North], s.Position[fusion.East])
	s.Alt = t.cfg.Alt - s.Position[fusion.Down]

	acc, err := t.accel()
	if err != nil {
		return Step{}, err
	}
	s.Sample = fusion.Sample{Q: t.q, Accel: acc}

	if t.tick%t.cfg.GPSEvery == 0 {
		speed := math.Hypot(s.Velocity[fusion.North], s.Velocity[fusion.East])
		course := math.Mod(math.Atan2(s.Velocity[fusion.East], s.Velocity[fusion.North])*180/math.Pi+360, 360)
		s.NMEA = NMEA(s.Point, s.Alt, speed, course, s.Time)
	}

	return s, nil
}

// accel returns the body frame accelerometer reading: the navigation frame
// acceleration less gravity rotated into the body frame, plus sensor noise.
func (t *Trajectory) accel() ([3]float64, error) {
	a := t.cfg.Accel
	nav := matrix.MustNew(3, 1, []float64{a[0], a[1], a[2] - t.cfg.Gravity})

	body, err := matrix.Mul(t.q.Rotation(), nav)
	if err != nil {
		return [3]float64{}, err
	}

	if err := body.Add(t.noise.Sample()); err != nil {
		return [3]float64{}, err
	}

	return [3]float64{body.At(0, 0), body.At(1, 0), body.At(2, 0)}, nil
}

// Offset returns the point north and east meters away from p
func Offset(p orb.Point, north, east float64) orb.Point {
	d := math.Hypot(north, east)
	if d == 0 {
		return p
	}

	return geo.PointAtBearingAndDistance(p, math.Atan2(east, north)*180/math.Pi, d)
}
