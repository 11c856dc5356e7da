package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/milosgajdos/go-navfusion/fusion"
	"github.com/milosgajdos/go-navfusion/gps"
	"github.com/spf13/cobra"
)

func doRun(cmd *cobra.Command, args []string) error {
	cfg, logger, closer, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	imuPath, err := cmd.Flags().GetString("imu")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	nav, err := fusion.New(cfg.Fusion())
	if err != nil {
		return err
	}

	svc := gps.NewService(cfg.GPSService(), logger)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Close()

	var fixes <-chan gps.Fix
	if cfg.GPS.Enable {
		fixes = svc.Fixes()
	}

	var in io.Reader = os.Stdin
	if imuPath != "-" {
		f, err := os.Open(imuPath)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	samples := make(chan fusion.Sample, 64)
	go readIMU(ctx, in, samples, logger)

	w := cmd.OutOrStdout()
	runner, err := fusion.NewRunner(nav, nil,
		fusion.WithLogger(logger),
		fusion.WithEmitter(cfg.Output.Interval, func(out fusion.Output) { writeFrames(w, out) }),
	)
	if err != nil {
		return err
	}

	err = runner.Run(ctx, samples, fixes)
	if out, ok := runner.Publisher().Latest(); ok {
		writeFrames(w, out)
	}

	snap := svc.Snapshot()
	logger.Info("gps stopped", "fixes", snap.Fixes, "dropped", snap.Dropped, "errors", snap.Errors, "last_error", snap.LastError)

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// readIMU sends samples read from r until EOF, a read failure or ctx is done.
// Malformed records are logged and skipped.
func readIMU(ctx context.Context, r io.Reader, samples chan<- fusion.Sample, logger *slog.Logger) {
	defer close(samples)

	ir := newIMUReader(r)
	for {
		s, err := ir.Read()
		if err != nil {
			var (
				perr *csv.ParseError
				nerr *strconv.NumError
			)
			if errors.As(err, &perr) || errors.As(err, &nerr) {
				logger.Warn("imu record skipped", "err", err)
				continue
			}
			if !errors.Is(err, io.EOF) {
				logger.Error("imu read failed", "err", err)
			}
			return
		}

		select {
		case samples <- s:
		case <-ctx.Done():
			return
		}
	}
}

// writeFrames writes the output frames as id and three scaled values per line
func writeFrames(w io.Writer, out fusion.Output) {
	for _, f := range out.Frames() {
		fmt.Fprintf(w, "%#03x %d %d %d\n", f.ID, f.Data[0], f.Data[1], f.Data[2])
	}
}
