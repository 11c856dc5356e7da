package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/milosgajdos/go-navfusion/fusion"
	"github.com/milosgajdos/go-navfusion/gps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	assert := assert.New(t)

	cfg := Default()
	assert.NoError(cfg.Validate())
	assert.Equal(fusion.DefaultConfig(), cfg.Fusion())
	assert.Equal(9600, cfg.GPS.Baud)
	assert.Equal(gps.DefaultFieldLimit, cfg.GPS.FieldMax)
	assert.Equal(500*time.Millisecond, cfg.Output.Interval)
	assert.Equal("-", cfg.Logging().Filename)
	assert.True(cfg.Logging().Append)
}

func TestParse(t *testing.T) {
	assert := assert.New(t)

	cfg, err := Parse([]byte(`
imu:
  sample_hz: 500
  accel_offset: [0.1, -0.2]
  euler_alpha: 0.3
kalman:
  q: 0
  raw_innovation: true
gps:
  enable: true
  device: /dev/ttyACM0
  baud: 0
  validate_checksum: true
output:
  interval: 250ms
log:
  level: debug
  append: false
sim:
  duration: 2s
  gps_every: 50
`))
	require.NoError(t, err)

	f := cfg.Fusion()
	assert.Equal(500.0, f.SampleHz)
	assert.Equal(0.1, f.OffsetX)
	assert.Equal(-0.2, f.OffsetY)
	assert.Equal(0.3, f.EulerAlpha)
	assert.Equal(0.0, f.Q)
	assert.Equal(0.2, f.R)
	assert.True(f.RawInnovation)
	assert.Equal(0.001, f.Dt)

	g := cfg.GPSService()
	assert.True(g.Enable)
	assert.Equal("/dev/ttyACM0", g.Device)
	assert.Equal(9600, g.Baud)
	assert.True(g.ValidateChecksum)
	assert.Equal(4, g.Queue)

	assert.Equal(250*time.Millisecond, cfg.Output.Interval)
	assert.Equal("debug", cfg.Logging().Level)
	assert.False(cfg.Logging().Append)
	assert.Equal(2*time.Second, cfg.Sim.Duration)
	assert.Equal(50, cfg.Sim.GPSEvery)
}

func TestParseInvalid(t *testing.T) {
	assert := assert.New(t)

	for _, in := range []string{
		"imu: {sample_hz: -1}",
		"imu: {euler_alpha: 1.5}",
		"kalman: {dt: -0.1}",
		"kalman: {r: -1}",
		"earth: {radius_m: -1}",
		"gps: {field_max: 200}",
		"sim: {origin_lat_deg: 91}",
		"sim: {gps_every: -1}",
		"log: {level: loud}",
		"imu: [",
	} {
		_, err := Parse([]byte(in))
		assert.Error(err, in)
	}
}

func TestLoad(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "navfusion.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gps:\n  queue: 8\n"), 0o644))

	cfg, err := Load(path)
	assert.NoError(err)
	assert.Equal(8, cfg.GPS.Queue)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(err)
}
