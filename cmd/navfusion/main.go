package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/milosgajdos/go-navfusion/config"
	"github.com/milosgajdos/go-navfusion/logging"
	"github.com/spf13/cobra"
)

func main() {
	cobra.CheckErr(NewCmd().ExecuteContext(context.Background()))
}

func NewCmd() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "navfusion [command] [flags]",
		Short:         "navfusion fuses IMU samples and GPS fixes into position and velocity",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Print(cmd.UsageString())
		},
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "`<path>` to YAML config, built-in defaults if empty")

	runCmd := &cobra.Command{
		Use:   "run [flags]",
		Short: "Fuse live IMU samples with fixes from the GPS receiver",
		RunE:  doRun,
	}
	runCmd.Flags().StringP("imu", "i", "-", "`<path>` to IMU CSV stream, - for stdin")

	simCmd := &cobra.Command{
		Use:   "sim [flags]",
		Short: "Fuse a simulated trajectory and plot the result",
		RunE:  doSim,
	}
	simCmd.Flags().StringP("plot", "p", "", "`<path>` to save the track plot to")
	simCmd.Flags().String("axis-plot", "", "`<path>` to save the north axis plot to")
	simCmd.Flags().String("geojson", "", "`<path>` to save the track as GeoJSON to")

	replayCmd := &cobra.Command{
		Use:   "replay [flags]",
		Short: "Fuse recorded IMU and NMEA files and print the estimates as CSV",
		RunE:  doReplay,
	}
	replayCmd.Flags().String("imu", "", "`<path>` to IMU CSV file: q0,q1,q2,q3,ax,ay,az per line")
	replayCmd.Flags().String("nmea", "", "`<path>` to NMEA file")
	replayCmd.Flags().Int("gps-every", 100, "apply one GPS fix every `<n>` IMU samples")
	replayCmd.Flags().Bool("smooth", false, "smooth the estimates with RTS smoother")
	replayCmd.MarkFlagRequired("imu")

	rootCmd.AddCommand(
		runCmd,
		simCmd,
		replayCmd,
	)
	return rootCmd
}

// setup loads the config named by the config flag and creates the logger
func setup(cmd *cobra.Command) (config.Config, *slog.Logger, io.Closer, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	cfg := config.Default()
	if path != "" {
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, nil, nil, err
		}
	}

	logger, closer, err := logging.New(cfg.Logging())
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	return cfg, logger, closer, nil
}
