package sim

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/milosgajdos/go-navfusion/fusion"
	"github.com/milosgajdos/go-navfusion/gps"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var origin = orb.Point{11.5167, 48.1173}

func config() Config {
	return Config{
		Origin:   origin,
		Alt:      545.4,
		Accel:    [3]float64{1, 0, 0},
		SampleHz: 100,
		Gravity:  9.80665,
		GPSEvery: 10,
	}
}

// decode feeds b to a new parser and returns the last decoded fix
func decode(t *testing.T, b []byte) (gps.Fix, int) {
	p := gps.NewParser(gps.WithChecksum())

	var n int
	for _, c := range b {
		ok, err := p.Feed(c)
		require.NoError(t, err)
		if ok {
			n++
		}
	}

	return p.Fix(), n
}

func TestNewTrajectory(t *testing.T) {
	assert := assert.New(t)

	tr, err := NewTrajectory(config())
	assert.NotNil(tr)
	assert.NoError(err)
	assert.False(tr.Config().Start.IsZero())

	for _, mod := range []func(*Config){
		func(c *Config) { c.SampleHz = 0 },
		func(c *Config) { c.GPSEvery = 0 },
		func(c *Config) { c.AccelSigma = -1 },
	} {
		c := config()
		mod(&c)
		tr, err := NewTrajectory(c)
		assert.Nil(tr)
		assert.Error(err)
	}
}

func TestTrajectoryNext(t *testing.T) {
	assert := assert.New(t)

	tr, err := NewTrajectory(config())
	require.NoError(t, err)

	var s Step
	var nmea int
	for i := 0; i < 100; i++ {
		s, err = tr.Next()
		require.NoError(t, err)
		if s.NMEA != nil {
			nmea++
		}
	}

	assert.Equal(100, s.Tick)
	assert.Equal(10, nmea)
	assert.Equal(tr.Config().Start.Add(time.Second), s.Time)

	// one second of 1 m/s^2 acceleration to the north
	assert.InDelta(0.5, s.Position[fusion.North], 1e-9)
	assert.InDelta(1.0, s.Velocity[fusion.North], 1e-9)
	assert.Equal(0.0, s.Position[fusion.East])
	assert.Equal(545.4, s.Alt)
	assert.InDelta(0.5, geo.DistanceHaversine(origin, s.Point), 1e-6)
	assert.Greater(s.Point.Lat(), origin.Lat())
}

func TestTrajectorySample(t *testing.T) {
	assert := assert.New(t)

	c := config()
	c.Accel = [3]float64{0.3, -0.4, 0.1}
	c.HeadingDeg = 90
	tr, err := NewTrajectory(c)
	require.NoError(t, err)

	s, err := tr.Next()
	require.NoError(t, err)
	assert.InDelta(1.0, s.Sample.Q.Norm(), 1e-12)
	assert.InDelta(math.Pi/2, s.Sample.Q.Euler()[0], 1e-12)

	// the navigator recovers the navigation frame acceleration
	cfg := fusion.DefaultConfig()
	cfg.Gravity = c.Gravity
	n, err := fusion.New(cfg)
	require.NoError(t, err)

	acc, err := n.NavAccel(s.Sample)
	assert.NoError(err)
	assert.InDeltaSlice(c.Accel[:], acc[:], 1e-9)
}

func TestTrajectoryNoise(t *testing.T) {
	assert := assert.New(t)

	c := config()
	c.AccelSigma = 0.1
	c.Seed = 42

	a, err := NewTrajectory(c)
	require.NoError(t, err)
	b, err := NewTrajectory(c)
	require.NoError(t, err)

	sa, _ := a.Next()
	sb, _ := b.Next()
	assert.Equal(sa.Sample, sb.Sample)
	assert.NotEqual([3]float64{1, 0, -c.Gravity}, sa.Sample.Accel)
}

func TestNMEA(t *testing.T) {
	assert := assert.New(t)

	p := orb.Point{-11.5167, -48.1173}
	ts := time.Date(2024, time.March, 23, 12, 35, 19, 0, time.UTC)
	b := NMEA(p, 545.4, 10, 84.4, ts)

	lines := strings.Split(strings.TrimSpace(string(b)), "\r\n")
	assert.Len(lines, 2)
	assert.True(strings.HasPrefix(lines[0], "$GPRMC,123519,A,4807.0380,S,01131.0020,W,"))
	assert.True(strings.HasPrefix(lines[1], "$GPGGA,123519,4807.0380,S,01131.0020,W,1,08,0.9,545.4,M"))

	fix, n := decode(t, b)
	assert.Equal(1, n)
	assert.InDelta(p.Lat(), fix.Latitude, 2e-6)
	assert.InDelta(p.Lon(), fix.Longitude, 2e-6)
	assert.Equal(545.4, fix.Altitude)
	assert.InDelta(36.0, fix.Speed, 0.1)
	assert.Equal(84.4, fix.Course)
	assert.Equal(ts, fix.Time())
}

func TestCoord(t *testing.T) {
	assert := assert.New(t)

	s, h := coord(48.5, 2, 'N', 'S')
	assert.Equal("4830.0000", s)
	assert.Equal(byte('N'), h)

	s, h = coord(-7.999999999, 3, 'E', 'W')
	assert.Equal("00800.0000", s)
	assert.Equal(byte('W'), h)
}

func TestOffset(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(origin, Offset(origin, 0, 0))

	p := Offset(origin, 1000, 0)
	assert.InDelta(1000, geo.DistanceHaversine(origin, p), 1e-3)
	assert.InDelta(origin.Lon(), p.Lon(), 1e-9)

	p = Offset(origin, 0, -1000)
	assert.InDelta(1000, geo.DistanceHaversine(origin, p), 1e-3)
	assert.Less(p.Lon(), origin.Lon())
}

func TestTrack(t *testing.T) {
	assert := assert.New(t)

	c := config()
	c.Accel = [3]float64{1, 0.5, 0}
	tr, err := NewTrajectory(c)
	require.NoError(t, err)

	n, err := fusion.New(fusion.DefaultConfig())
	require.NoError(t, err)

	track := NewTrack(origin)
	p := gps.NewParser()
	for i := 0; i < 50; i++ {
		s, err := tr.Next()
		require.NoError(t, err)

		var fix *gps.Fix
		for _, b := range s.NMEA {
			if ok, _ := p.Feed(b); ok {
				f := p.Fix()
				fix = &f
				track.AddFix(f)
			}
		}

		out, _ := n.Step(s.Sample, fix)
		track.Add(s, out)
	}

	assert.Equal(50, track.Len())
	rows, _ := track.Fixes().Dims()
	assert.Equal(5, rows)

	truth := track.Truth()
	assert.InDelta(0.5*c.Accel[1]*0.25, truth.At(49, 0), 1e-9)
	assert.InDelta(0.5*c.Accel[0]*0.25, truth.At(49, 1), 1e-9)

	// fixes are placed relative to the origin
	fixes := track.Fixes()
	assert.InDelta(truth.At(49, 0), fixes.At(4, 0), 0.5)
	assert.InDelta(truth.At(49, 1), fixes.At(4, 1), 0.5)

	at, af, err := track.Axis(fusion.North)
	assert.NoError(err)
	assert.InDelta(0.49, at.At(49, 0), 1e-9)
	assert.Equal(at.At(49, 0), af.At(49, 0))

	_, _, err = track.Axis(7)
	assert.Error(err)

	assert.GreaterOrEqual(track.Error(), 0.0)

	js, err := track.GeoJSON()
	assert.NoError(err)
	assert.Contains(string(js), `"FeatureCollection"`)
	assert.Contains(string(js), `"truth"`)
	assert.Contains(string(js), `"MultiPoint"`)

	plt, err := NewTrackPlot(truth, fixes, track.Filtered())
	assert.NotNil(plt)
	assert.NoError(err)

	plt, err = NewAxisPlot("north", at, af)
	assert.NotNil(plt)
	assert.NoError(err)
}
