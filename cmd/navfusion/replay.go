package main

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	filter "github.com/milosgajdos/go-navfusion"
	"github.com/milosgajdos/go-navfusion/config"
	"github.com/milosgajdos/go-navfusion/estimate"
	"github.com/milosgajdos/go-navfusion/fusion"
	"github.com/milosgajdos/go-navfusion/gps"
	"github.com/milosgajdos/go-navfusion/smooth/rts"
	"github.com/spf13/cobra"
)

func doReplay(cmd *cobra.Command, args []string) error {
	cfg, logger, closer, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	imuPath, err := cmd.Flags().GetString("imu")
	if err != nil {
		return err
	}
	nmeaPath, err := cmd.Flags().GetString("nmea")
	if err != nil {
		return err
	}
	every, err := cmd.Flags().GetInt("gps-every")
	if err != nil {
		return err
	}
	smoothing, err := cmd.Flags().GetBool("smooth")
	if err != nil {
		return err
	}

	var fixes []gps.Fix
	if nmeaPath != "" {
		if fixes, err = readFixes(nmeaPath, cfg, logger); err != nil {
			return err
		}
	}

	f, err := os.Open(imuPath)
	if err != nil {
		return err
	}
	defer f.Close()

	nav, err := fusion.New(cfg.Fusion())
	if err != nil {
		return err
	}

	var (
		outs []fusion.Output
		est  [3][]filter.Estimate
		u    [3][]float64
		next int
	)

	ir := newIMUReader(f)
	for tick := 1; ; tick++ {
		s, err := ir.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		var fix *gps.Fix
		if every > 0 && tick%every == 0 && next < len(fixes) {
			fix = &fixes[next]
			next++
		}

		out, err := nav.Step(s, fix)
		if err != nil {
			logger.Warn("fusion step failed", "tick", tick, "gps", fix != nil, "err", err)
			if errors.Is(err, fusion.ErrNotNormalized) {
				continue
			}
		}
		outs = append(outs, out)

		for i := range est {
			kf := nav.Filter(i)
			e, err := estimate.NewBaseWithCov(kf.State(), kf.Cov())
			if err != nil {
				return err
			}
			est[i] = append(est[i], e)
			u[i] = append(u[i], out.Accel[i])
		}
	}

	logger.Info("replay done", "ticks", len(outs), "fixes", next, "smooth", smoothing)

	if smoothing && len(outs) > 0 {
		for i := range est {
			kf := nav.Filter(i)
			s, err := rts.New(kf.Model(), kf.StateNoise())
			if err != nil {
				return err
			}
			sx, err := s.Smooth(est[i], u[i])
			if err != nil {
				return fmt.Errorf("axis %d smoothing failed: %w", i, err)
			}
			for k, e := range sx {
				x := e.Val()
				outs[k].Position[i] = x.At(0, 0)
				outs[k].Velocity[i] = x.At(1, 0)
			}
		}
	}

	return writeOutputs(cmd.OutOrStdout(), outs)
}

// readFixes decodes all fixes from the NMEA file at path
func readFixes(path string, cfg config.Config, logger *slog.Logger) ([]gps.Fix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p := newParser(cfg.GPS.FieldMax, cfg.GPS.ValidateChecksum)
	r := bufio.NewReader(f)

	var fixes []gps.Fix
	for {
		c, err := r.ReadByte()
		if errors.Is(err, io.EOF) {
			return fixes, nil
		}
		if err != nil {
			return nil, err
		}

		ok, err := p.Feed(c)
		if err != nil {
			logger.Debug("nmea", "err", err)
		}
		if ok {
			fixes = append(fixes, p.Fix())
		}
	}
}

var outputHeader = []string{"tick", "gps", "pn", "pe", "pd", "vn", "ve", "vd", "yaw", "pitch", "roll"}

// writeOutputs writes outs as CSV records
func writeOutputs(w io.Writer, outs []fusion.Output) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(outputHeader); err != nil {
		return err
	}

	rec := make([]string, len(outputHeader))
	for _, o := range outs {
		rec = rec[:0]
		rec = append(rec, strconv.FormatUint(o.Tick, 10), strconv.FormatBool(o.GPS))
		for _, v := range [][3]float64{o.Position, o.Velocity, o.Euler} {
			for _, x := range v {
				rec = append(rec, strconv.FormatFloat(x, 'f', 4, 64))
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
