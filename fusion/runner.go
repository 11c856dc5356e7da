package fusion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/milosgajdos/go-navfusion/gps"
)

// RunnerOption configures Runner
type RunnerOption func(*Runner)

// WithEmitter calls fn with the latest output every interval.
func WithEmitter(interval time.Duration, fn func(Output)) RunnerOption {
	return func(r *Runner) {
		if interval > 0 && fn != nil {
			r.interval = interval
			r.emit = fn
		}
	}
}

// WithLogger sets runner logger
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// Runner drives Navigator from a stream of IMU samples.
// GPS fixes are picked up without blocking, so a tick never waits for a fix.
type Runner struct {
	nav      *Navigator
	pub      *Publisher
	logger   *slog.Logger
	interval time.Duration
	emit     func(Output)

	corrections uint64
	failures    uint64
}

// NewRunner creates new Runner which publishes navigator outputs to pub.
func NewRunner(nav *Navigator, pub *Publisher, opts ...RunnerOption) (*Runner, error) {
	if nav == nil {
		return nil, fmt.Errorf("navigator is nil")
	}
	if pub == nil {
		pub = &Publisher{}
	}

	r := &Runner{
		nav:    nav,
		pub:    pub,
		logger: slog.Default(),
	}

	for _, o := range opts {
		o(r)
	}

	return r, nil
}

// Publisher returns runner output publisher
func (r *Runner) Publisher() *Publisher {
	return r.pub
}

// Stats returns the number of applied GPS corrections and failed ticks.
func (r *Runner) Stats() (corrections, failures uint64) {
	return r.corrections, r.failures
}

// Run runs a fusion tick for every sample received on samples until samples
// is closed or ctx is done. The most recent pending fix, if any, is applied
// to the tick. Correction failures are logged and do not stop the runner.
func (r *Runner) Run(ctx context.Context, samples <-chan Sample, fixes <-chan gps.Fix) error {
	var emit <-chan time.Time
	if r.emit != nil {
		t := time.NewTicker(r.interval)
		defer t.Stop()
		emit = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-emit:
			if out, ok := r.pub.Latest(); ok {
				r.emit(out)
			}
		case s, ok := <-samples:
			if !ok {
				r.logger.Info("fusion stopped", "corrections", r.corrections, "failures", r.failures)
				return nil
			}

			var fix *gps.Fix
			fix, fixes = latest(fixes)

			out, err := r.nav.Step(s, fix)
			if err != nil {
				r.failures++
				r.logger.Warn("fusion step failed", "tick", out.Tick, "gps", fix != nil, "err", err)
				if errors.Is(err, ErrNotNormalized) {
					continue
				}
			}
			if fix != nil && err == nil {
				r.corrections++
			}
			r.pub.Publish(out)
		}
	}
}

// latest drains fixes without blocking and returns the newest fix, if any.
// A closed channel is returned as nil so it is never selected again.
func latest(fixes <-chan gps.Fix) (*gps.Fix, <-chan gps.Fix) {
	var fix *gps.Fix
	for {
		select {
		case f, ok := <-fixes:
			if !ok {
				return fix, nil
			}
			fix = &f
		default:
			return fix, fixes
		}
	}
}
