package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/milosgajdos/go-navfusion/fusion"
	"github.com/milosgajdos/go-navfusion/gps"
	"github.com/milosgajdos/go-navfusion/sim"
	"github.com/paulmach/orb"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"
)

func doSim(cmd *cobra.Command, args []string) error {
	cfg, logger, closer, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	plotPath, err := cmd.Flags().GetString("plot")
	if err != nil {
		return err
	}
	axisPath, err := cmd.Flags().GetString("axis-plot")
	if err != nil {
		return err
	}
	geoPath, err := cmd.Flags().GetString("geojson")
	if err != nil {
		return err
	}

	sc := cfg.Sim
	origin := orb.Point{sc.OriginLonDeg, sc.OriginLatDeg}

	tr, err := sim.NewTrajectory(sim.Config{
		Origin:     origin,
		Alt:        sc.OriginAltM,
		Accel:      sc.AccelNED,
		HeadingDeg: sc.HeadingDeg,
		SampleHz:   cfg.IMU.SampleHz,
		Gravity:    cfg.IMU.Gravity,
		GPSEvery:   sc.GPSEvery,
		AccelSigma: sc.AccelSigma,
		Seed:       sc.Seed,
	})
	if err != nil {
		return err
	}

	nav, err := fusion.New(cfg.Fusion())
	if err != nil {
		return err
	}

	parser := newParser(cfg.GPS.FieldMax, cfg.GPS.ValidateChecksum)
	track := sim.NewTrack(origin)

	steps := int(sc.Duration.Seconds() * cfg.IMU.SampleHz)
	logger.Info("simulation started", "ticks", steps, "gps_every", sc.GPSEvery, "accel_sigma", sc.AccelSigma)

	var failures int
	for i := 0; i < steps; i++ {
		s, err := tr.Next()
		if err != nil {
			return err
		}

		var fix *gps.Fix
		for _, b := range s.NMEA {
			ok, err := parser.Feed(b)
			if err != nil {
				logger.Debug("nmea", "err", err)
			}
			if ok {
				f := parser.Fix()
				fix = &f
				track.AddFix(f)
			}
		}

		out, err := nav.Step(s.Sample, fix)
		if err != nil {
			failures++
			logger.Warn("fusion step failed", "tick", s.Tick, "err", err)
			if errors.Is(err, fusion.ErrNotNormalized) {
				continue
			}
		}
		track.Add(s, out)
	}

	logger.Info("simulation done", "ticks", track.Len(), "failures", failures, "error_m", track.Error())

	if plotPath != "" {
		p, err := sim.NewTrackPlot(track.Truth(), track.Fixes(), track.Filtered())
		if err != nil {
			return err
		}
		if err := p.Save(6*vg.Inch, 6*vg.Inch, plotPath); err != nil {
			return err
		}
	}

	if axisPath != "" {
		truth, filtered, err := track.Axis(fusion.North)
		if err != nil {
			return err
		}
		p, err := sim.NewAxisPlot("North", truth, filtered)
		if err != nil {
			return err
		}
		if err := p.Save(8*vg.Inch, 4*vg.Inch, axisPath); err != nil {
			return err
		}
	}

	if geoPath != "" {
		b, err := track.GeoJSON()
		if err != nil {
			return err
		}
		if err := os.WriteFile(geoPath, b, 0o644); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "ticks=%d error_m=%.3f\n", track.Len(), track.Error())

	return nil
}

func newParser(fieldMax int, checksum bool) *gps.Parser {
	opts := []gps.ParserOption{gps.WithFieldLimit(fieldMax)}
	if checksum {
		opts = append(opts, gps.WithChecksum())
	}

	return gps.NewParser(opts...)
}
