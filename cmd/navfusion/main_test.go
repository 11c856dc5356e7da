package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/milosgajdos/go-navfusion/fusion"
	"github.com/milosgajdos/go-navfusion/sim"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quietConfig = `
log:
  filename: "."
sim:
  duration: 200ms
  gps_every: 50
`

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := NewCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestIMUReader(t *testing.T) {
	assert := assert.New(t)

	r := newIMUReader(strings.NewReader("# q0,q1,q2,q3,ax,ay,az\n1,0,0,0, 0.5,0,-9.8\n1,0,0\n1,0,0,0,x,0,0\n"))

	s, err := r.Read()
	assert.NoError(err)
	assert.Equal(fusion.Identity(), s.Q)
	assert.Equal([3]float64{0.5, 0, -9.8}, s.Accel)

	_, err = r.Read()
	var perr *csv.ParseError
	assert.ErrorAs(err, &perr)

	_, err = r.Read()
	assert.Error(err)

	_, err = r.Read()
	assert.ErrorIs(err, io.EOF)
}

func TestWriteFrames(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	writeFrames(&buf, fusion.Output{Euler: [3]float64{0.5, 0, 0}, Velocity: [3]float64{1, 2, 3}})
	assert.Equal("0x12 50 0 0\n0x13 100 200 300\n", buf.String())
}

func TestSim(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	cfgPath := writeFile(t, "navfusion.yaml", quietConfig)
	geoPath := filepath.Join(dir, "track.geojson")

	out, err := execute(t, "sim", "--config", cfgPath, "--geojson", geoPath)
	require.NoError(t, err)
	assert.Contains(out, "ticks=200")

	b, err := os.ReadFile(geoPath)
	assert.NoError(err)
	assert.Contains(string(b), "FeatureCollection")
}

func TestReplay(t *testing.T) {
	assert := assert.New(t)

	tr, err := sim.NewTrajectory(sim.Config{
		Origin:   orb.Point{11.5167, 48.1173},
		Alt:      545.4,
		Accel:    [3]float64{0.5, 0, 0},
		SampleHz: 1000,
		Gravity:  9.80665,
		GPSEvery: 10,
		Start:    time.Date(2024, time.March, 23, 12, 35, 19, 0, time.UTC),
	})
	require.NoError(t, err)

	var imu, nmea strings.Builder
	imu.WriteString("# q0,q1,q2,q3,ax,ay,az\n")
	for i := 0; i < 40; i++ {
		s, err := tr.Next()
		require.NoError(t, err)
		q, a := s.Sample.Q, s.Sample.Accel
		fmt.Fprintf(&imu, "%v,%v,%v,%v,%v,%v,%v\n", q[0], q[1], q[2], q[3], a[0], a[1], a[2])
		nmea.Write(s.NMEA)
	}

	cfgPath := writeFile(t, "navfusion.yaml", quietConfig)
	imuPath := writeFile(t, "imu.csv", imu.String())
	nmeaPath := writeFile(t, "gps.nmea", nmea.String())

	for _, smooth := range []bool{false, true} {
		args := []string{"replay", "--config", cfgPath, "--imu", imuPath, "--nmea", nmeaPath, "--gps-every", "10"}
		if smooth {
			args = append(args, "--smooth")
		}

		out, err := execute(t, args...)
		require.NoError(t, err)

		recs, err := csv.NewReader(strings.NewReader(out)).ReadAll()
		require.NoError(t, err)
		assert.Len(recs, 41)
		assert.Equal(outputHeader, recs[0])
		assert.Equal("1", recs[1][0])
		assert.Equal("false", recs[1][1])
		assert.Equal("true", recs[10][1])
	}

	_, err = execute(t, "replay", "--config", cfgPath)
	assert.Error(err)
}
