package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

/*
	Filename

	"-"          standard error
	"."          discard
	<path>       rotating log file
*/

type Config struct {
	Filename   string
	Level      string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
	// Append keeps writing to an existing log file instead of rotating it on start.
	Append bool
}

// LevelTrace is below slog.LevelDebug
const LevelTrace = slog.Level(-8)

var levelNames = map[slog.Level]string{
	LevelTrace:      "TRACE",
	slog.LevelDebug: "DEBUG",
	slog.LevelInfo:  "INFO",
	slog.LevelWarn:  "WARN",
	slog.LevelError: "ERROR",
}

// ParseLevel parses TRACE, DEBUG, INFO, WARN or ERROR case insensitively.
func ParseLevel(name string) (slog.Level, bool) {
	n := strings.ToUpper(strings.TrimSpace(name))
	for lvl, s := range levelNames {
		if s == n {
			return lvl, true
		}
	}
	return slog.LevelInfo, false
}

// LevelName returns the name of lvl
func LevelName(lvl slog.Level) string {
	if s, ok := levelNames[lvl]; ok {
		return s
	}
	return lvl.String()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New creates a text logger writing to the destination named by cfg.Filename.
// The returned closer releases the log file and must be closed by the caller.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	lvl, ok := ParseLevel(cfg.Level)
	if !ok && cfg.Level != "" {
		return nil, nil, fmt.Errorf("invalid log level: %v", cfg.Level)
	}

	w, closer, err := output(cfg)
	if err != nil {
		return nil, nil, err
	}

	return NewWriter(w, lvl), closer, nil
}

// output opens the destination named by cfg.Filename.
// Console logging goes to stderr.
func output(cfg Config) (io.Writer, io.Closer, error) {
	switch cfg.Filename {
	case "", "-":
		return os.Stderr, nopCloser{}, nil
	case ".":
		return io.Discard, nopCloser{}, nil
	default:
		lj := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
			LocalTime:  true,
		}
		if !cfg.Append {
			if err := lj.Rotate(); err != nil {
				return nil, nil, fmt.Errorf("failed to open log file %s: %w", cfg.Filename, err)
			}
		}
		return lj, lj, nil
	}
}

// NewWriter creates a text logger writing records at lvl and above to w.
func NewWriter(w io.Writer, lvl slog.Level) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey && len(groups) == 0 {
				if l, ok := a.Value.Any().(slog.Level); ok {
					a.Value = slog.StringValue(LevelName(l))
				}
			}
			return a
		},
	})

	return slog.New(h)
}
