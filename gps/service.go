package gps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Config controls the GPS service.
//
// Device may be empty to auto-detect a USB receiver.
// When Device is a regular file it is read as a recorded NMEA stream.
type Config struct {
	Enable bool
	Device string
	Baud   int
	// ValidateChecksum enables NMEA checksum validation
	ValidateChecksum bool
	// Queue is the size of the fix queue
	Queue int
	// FieldLimit is the parser field limit
	FieldLimit int
}

// Snapshot is the state of the GPS service
type Snapshot struct {
	Enabled bool `json:"enabled"`
	Valid   bool `json:"valid"`

	Device string `json:"device,omitempty"`
	Baud   int    `json:"baud,omitempty"`

	Fix        Fix       `json:"fix"`
	LastFixUTC time.Time `json:"last_fix_utc,omitempty"`

	Fixes   uint64 `json:"fixes"`
	Dropped uint64 `json:"dropped"`
	Errors  uint64 `json:"errors"`

	LastError string `json:"last_error,omitempty"`
}

// Service reads NMEA bytes from a device in the background and
// publishes decoded fixes without ever blocking the reader.
type Service struct {
	cfg    Config
	logger *slog.Logger

	fixes chan Fix
	done  chan struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup

	last    atomic.Value // Snapshot
	nfix    atomic.Uint64
	dropped atomic.Uint64
	nerr    atomic.Uint64

	mu      sync.Mutex
	closer  io.Closer
	started bool
}

// NewService creates new GPS service and returns it.
// Nil logger means slog.Default().
func NewService(cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Queue <= 0 {
		cfg.Queue = 1
	}

	s := &Service{
		cfg:    cfg,
		logger: logger,
		fixes:  make(chan Fix, cfg.Queue),
		done:   make(chan struct{}),
	}
	s.last.Store(Snapshot{Enabled: cfg.Enable, Device: cfg.Device, Baud: cfg.Baud})

	return s
}

// Fixes returns the channel fixes are published on.
// When the channel is full the oldest fix is dropped.
func (s *Service) Fixes() <-chan Fix {
	return s.fixes
}

// Done returns a channel which is closed when the reader stops.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// Start opens the configured device and starts reading it.
// It does nothing if the service is disabled or already started.
func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("gps service is nil")
	}
	if !s.cfg.Enable {
		return nil
	}
	if ctx == nil {
		return fmt.Errorf("ctx is nil")
	}

	device := strings.TrimSpace(s.cfg.Device)
	if device == "" {
		device = autoDetectDevice()
		if device == "" {
			s.setError("gps auto-detect failed: no /dev/ttyACM* or /dev/ttyUSB* found")
			return fmt.Errorf("gps auto-detect failed")
		}
	}

	baud := s.cfg.Baud
	if baud == 0 {
		baud = 9600
	}

	f, err := open(device, baud)
	if err != nil {
		s.setError(fmt.Sprintf("gps open failed device=%s baud=%d: %v", device, baud, err))
		return err
	}

	s.logger.Info("gps enabled", "device", device, "baud", baud)

	cur := s.Snapshot()
	cur.Enabled, cur.Device, cur.Baud = true, device, baud
	s.last.Store(cur)

	return s.StartReader(ctx, f)
}

// StartReader starts reading NMEA bytes from r.
// If r implements io.Closer it is closed when the service is closed.
func (s *Service) StartReader(ctx context.Context, r io.Reader) error {
	if s == nil {
		return fmt.Errorf("gps service is nil")
	}
	if r == nil {
		return fmt.Errorf("gps reader is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	s.started = true

	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	opts := []ParserOption{WithFieldLimit(s.cfg.FieldLimit)}
	if s.cfg.ValidateChecksum {
		opts = append(opts, WithChecksum())
	}
	p := NewParser(opts...)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(s.done)

		buf := make([]byte, 256)
		for {
			select {
			case <-childCtx.Done():
				return
			default:
			}

			n, err := r.Read(buf)
			for _, c := range buf[:n] {
				ok, perr := p.Feed(c)
				if perr != nil && !errors.Is(perr, ErrUnknownSentence) {
					s.nerr.Add(1)
					// keep the last error only
					s.setError(perr.Error())
				}
				if ok {
					s.publish(p.Fix())
				}
			}

			if err != nil {
				if !errors.Is(err, io.EOF) {
					s.logger.Warn("gps read stopped", "err", err)
				}
				s.setError(fmt.Sprintf("gps read stopped: %v", err))
				return
			}
		}
	}()

	return nil
}

// publish sends fix to the fixes channel, dropping the oldest queued fix when full.
func (s *Service) publish(f Fix) {
	s.nfix.Add(1)

	s.mu.Lock()
	cur := s.Snapshot()
	cur.Valid = true
	cur.Fix = f
	cur.LastFixUTC = time.Now().UTC()
	s.last.Store(cur)
	s.mu.Unlock()

	for {
		select {
		case s.fixes <- f:
			return
		default:
		}

		select {
		case <-s.fixes:
			s.dropped.Add(1)
		default:
		}
	}
}

// Close stops the service and waits for the reader to exit.
func (s *Service) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	cancel := s.cancel
	closer := s.closer
	s.cancel = nil
	s.closer = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if closer != nil {
		_ = closer.Close()
	}
	s.wg.Wait()
}

// Snapshot returns the current state of the service.
func (s *Service) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	v := s.last.Load()
	if v == nil {
		return Snapshot{}
	}

	snap := v.(Snapshot)
	snap.Fixes = s.nfix.Load()
	snap.Dropped = s.dropped.Load()
	snap.Errors = s.nerr.Load()

	return snap
}

func (s *Service) setError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.Snapshot()
	cur.LastError = msg
	s.last.Store(cur)
}

// open opens device as a serial port or, for regular files, a recorded stream.
func open(device string, baud int) (io.ReadCloser, error) {
	fi, err := os.Stat(device)
	if err != nil {
		return nil, err
	}

	if fi.Mode().IsRegular() {
		return os.Open(device)
	}

	return OpenSerial(device, baud)
}

func autoDetectDevice() string {
	candidates := []string{}
	for i := 0; i < 10; i++ {
		candidates = append(candidates, fmt.Sprintf("/dev/ttyACM%d", i))
	}
	for i := 0; i < 10; i++ {
		candidates = append(candidates, fmt.Sprintf("/dev/ttyUSB%d", i))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
