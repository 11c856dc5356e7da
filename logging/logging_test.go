package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert := assert.New(t)

	for name, want := range map[string]slog.Level{
		"TRACE": LevelTrace,
		"debug": slog.LevelDebug,
		" Info": slog.LevelInfo,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		lvl, ok := ParseLevel(name)
		assert.True(ok, name)
		assert.Equal(want, lvl, name)
	}

	_, ok := ParseLevel("verbose")
	assert.False(ok)

	assert.Equal("TRACE", LevelName(LevelTrace))
	assert.Equal("WARN", LevelName(slog.LevelWarn))
}

func TestNewWriter(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	l := NewWriter(&buf, slog.LevelInfo)

	l.Debug("hidden")
	l.Info("gps enabled", "device", "/dev/ttyUSB0", "baud", 9600)
	assert.NotContains(buf.String(), "hidden")
	assert.Contains(buf.String(), "level=INFO")
	assert.Contains(buf.String(), "device=/dev/ttyUSB0")

	buf.Reset()
	l = NewWriter(&buf, LevelTrace)
	l.Log(context.Background(), LevelTrace, "raw byte")
	assert.Contains(buf.String(), "level=TRACE")
}

func TestNew(t *testing.T) {
	assert := assert.New(t)

	l, c, err := New(Config{Filename: ".", Level: "debug"})
	require.NoError(t, err)
	assert.True(l.Enabled(context.Background(), slog.LevelDebug))
	assert.NoError(c.Close())

	_, _, err = New(Config{Filename: "-", Level: "loud"})
	assert.Error(err)

	path := filepath.Join(t.TempDir(), "navfusion.log")
	l, c, err = New(Config{Filename: path, Level: "WARN"})
	require.NoError(t, err)
	l.Info("dropped")
	l.Warn("fusion step failed", "tick", 7)
	require.NoError(t, c.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(string(b), "dropped")
	assert.Contains(string(b), "tick=7")
}

func TestOutput(t *testing.T) {
	assert := assert.New(t)

	for _, name := range []string{"", "-"} {
		w, c, err := output(Config{Filename: name})
		require.NoError(t, err)
		assert.Equal(os.Stderr, w)
		assert.NoError(c.Close())
	}

	w, _, err := output(Config{Filename: "."})
	require.NoError(t, err)
	assert.Equal(io.Discard, w)
}

func TestNewAppend(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "navfusion.log")

	for i, app := range []bool{true, true, false} {
		l, c, err := New(Config{Filename: path, Append: app})
		require.NoError(t, err)
		l.Info("start", "run", i)
		require.NoError(t, c.Close())
	}

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(string(b), "run=0")
	assert.Contains(string(b), "run=2")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	// appended runs share one file; the last start rotated it once
	assert.Len(entries, 2)
}
