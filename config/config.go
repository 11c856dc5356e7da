package config

import (
	"fmt"
	"os"
	"time"

	"github.com/milosgajdos/go-navfusion/fusion"
	"github.com/milosgajdos/go-navfusion/gps"
	"github.com/milosgajdos/go-navfusion/logging"
	"gopkg.in/yaml.v3"
)

type Config struct {
	IMU    IMUConfig    `yaml:"imu"`
	Kalman KalmanConfig `yaml:"kalman"`
	Earth  EarthConfig  `yaml:"earth"`
	GPS    GPSConfig    `yaml:"gps"`
	Output OutputConfig `yaml:"output"`
	Log    LogConfig    `yaml:"log"`
	Sim    SimConfig    `yaml:"sim"`
}

type IMUConfig struct {
	SampleHz            float64    `yaml:"sample_hz"`
	AccelOffset         [2]float64 `yaml:"accel_offset"`
	Gravity             float64    `yaml:"gravity"`
	QuaternionTolerance float64    `yaml:"quaternion_tolerance"`
	EulerAlpha          float64    `yaml:"euler_alpha"`
}

type KalmanConfig struct {
	Dt            float64 `yaml:"dt"`
	P0            float64 `yaml:"p0"`
	Q             float64 `yaml:"q"`
	R             float64 `yaml:"r"`
	RawInnovation bool    `yaml:"raw_innovation"`
}

type EarthConfig struct {
	RadiusM       float64 `yaml:"radius_m"`
	PoleDistanceM float64 `yaml:"pole_distance_m"`
}

type GPSConfig struct {
	Enable           bool   `yaml:"enable"`
	Device           string `yaml:"device"`
	Baud             int    `yaml:"baud"`
	ValidateChecksum bool   `yaml:"validate_checksum"`
	Queue            int    `yaml:"queue"`
	FieldMax         int    `yaml:"field_max"`
}

type OutputConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type LogConfig struct {
	Filename   string `yaml:"filename"`
	Level      string `yaml:"level"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
	Append     bool   `yaml:"append"`
}

type SimConfig struct {
	Duration     time.Duration `yaml:"duration"`
	AccelNED     [3]float64    `yaml:"accel_ned"`
	HeadingDeg   float64       `yaml:"heading_deg"`
	OriginLatDeg float64       `yaml:"origin_lat_deg"`
	OriginLonDeg float64       `yaml:"origin_lon_deg"`
	OriginAltM   float64       `yaml:"origin_alt_m"`
	GPSEvery     int           `yaml:"gps_every"`
	AccelSigma   float64       `yaml:"accel_sigma"`
	Seed         uint64        `yaml:"seed"`
}

// Default returns the built-in configuration
func Default() Config {
	d := fusion.DefaultConfig()

	return Config{
		IMU: IMUConfig{
			SampleHz:            d.SampleHz,
			Gravity:             d.Gravity,
			QuaternionTolerance: d.Tolerance,
		},
		Kalman: KalmanConfig{
			Dt: d.Dt,
			P0: d.P0,
			Q:  d.Q,
			R:  d.R,
		},
		Earth: EarthConfig{
			RadiusM:       fusion.EarthRadius,
			PoleDistanceM: fusion.PoleDistance,
		},
		GPS: GPSConfig{
			Baud:     9600,
			Queue:    4,
			FieldMax: gps.DefaultFieldLimit,
		},
		Output: OutputConfig{
			Interval: 500 * time.Millisecond,
		},
		Log: LogConfig{
			Filename: "-",
			Level:    "INFO",
			Append:   true,
		},
		Sim: SimConfig{
			Duration:     10 * time.Second,
			AccelNED:     [3]float64{0.5, 0.2, 0},
			OriginLatDeg: 48.1173,
			OriginLonDeg: 11.5167,
			OriginAltM:   545.4,
			GPSEvery:     100,
			AccelSigma:   0.05,
			Seed:         1,
		},
	}
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	return Parse(b)
}

// Parse decodes YAML configuration on top of Default and validates the result.
// Keys missing from b keep their default values.
func Parse(b []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.GPS.Baud <= 0 {
		cfg.GPS.Baud = 9600
	}
	if cfg.GPS.Queue <= 0 {
		cfg.GPS.Queue = 1
	}
	if cfg.GPS.FieldMax <= 0 {
		cfg.GPS.FieldMax = gps.DefaultFieldLimit
	}
	if cfg.Output.Interval <= 0 {
		cfg.Output.Interval = 500 * time.Millisecond
	}
	if cfg.Log.Filename == "" {
		cfg.Log.Filename = "-"
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the configuration values
func (c Config) Validate() error {
	if c.IMU.SampleHz <= 0 {
		return fmt.Errorf("imu.sample_hz must be > 0")
	}
	if c.IMU.QuaternionTolerance <= 0 {
		return fmt.Errorf("imu.quaternion_tolerance must be > 0")
	}
	if c.IMU.EulerAlpha < 0 || c.IMU.EulerAlpha >= 1 {
		return fmt.Errorf("imu.euler_alpha must be in [0, 1)")
	}
	if c.Kalman.Dt <= 0 {
		return fmt.Errorf("kalman.dt must be > 0")
	}
	if c.Kalman.P0 < 0 || c.Kalman.Q < 0 || c.Kalman.R < 0 {
		return fmt.Errorf("kalman.p0, kalman.q and kalman.r must be >= 0")
	}
	if c.Earth.RadiusM <= 0 || c.Earth.PoleDistanceM <= 0 {
		return fmt.Errorf("earth.radius_m and earth.pole_distance_m must be > 0")
	}
	if c.GPS.FieldMax > gps.DefaultFieldLimit {
		return fmt.Errorf("gps.field_max must be <= %d", gps.DefaultFieldLimit)
	}
	if c.Sim.OriginLatDeg < -90 || c.Sim.OriginLatDeg > 90 {
		return fmt.Errorf("sim.origin_lat_deg must be in [-90, 90]")
	}
	if c.Sim.OriginLonDeg < -180 || c.Sim.OriginLonDeg > 180 {
		return fmt.Errorf("sim.origin_lon_deg must be in [-180, 180]")
	}
	if c.Sim.AccelSigma < 0 {
		return fmt.Errorf("sim.accel_sigma must be >= 0")
	}
	if c.Sim.GPSEvery <= 0 {
		return fmt.Errorf("sim.gps_every must be > 0")
	}
	if c.Sim.Duration <= 0 {
		return fmt.Errorf("sim.duration must be > 0")
	}
	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		return fmt.Errorf("log.level %q is not one of TRACE, DEBUG, INFO, WARN, ERROR", c.Log.Level)
	}

	return nil
}

// Fusion returns the fusion navigator configuration
func (c Config) Fusion() fusion.Config {
	return fusion.Config{
		SampleHz:  c.IMU.SampleHz,
		Dt:        c.Kalman.Dt,
		OffsetX:   c.IMU.AccelOffset[0],
		OffsetY:   c.IMU.AccelOffset[1],
		Gravity:   c.IMU.Gravity,
		Tolerance: c.IMU.QuaternionTolerance,
		Earth: fusion.Earth{
			Radius:       c.Earth.RadiusM,
			PoleDistance: c.Earth.PoleDistanceM,
		},
		P0:            c.Kalman.P0,
		Q:             c.Kalman.Q,
		R:             c.Kalman.R,
		RawInnovation: c.Kalman.RawInnovation,
		EulerAlpha:    c.IMU.EulerAlpha,
	}
}

// GPSService returns the GPS service configuration
func (c Config) GPSService() gps.Config {
	return gps.Config{
		Enable:           c.GPS.Enable,
		Device:           c.GPS.Device,
		Baud:             c.GPS.Baud,
		ValidateChecksum: c.GPS.ValidateChecksum,
		Queue:            c.GPS.Queue,
		FieldLimit:       c.GPS.FieldMax,
	}
}

// Logging returns the logger configuration
func (c Config) Logging() logging.Config {
	return logging.Config{
		Filename:   c.Log.Filename,
		Level:      c.Log.Level,
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
		Compress:   c.Log.Compress,
		Append:     c.Log.Append,
	}
}
