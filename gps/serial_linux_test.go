//go:build linux

package gps

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestBaudSpeed(t *testing.T) {
	assert := assert.New(t)

	spd, err := baudSpeed(9600)
	assert.NoError(err)
	assert.Equal(uint32(unix.B9600), spd)

	_, err = baudSpeed(1234)
	assert.Error(err)
}

func TestRawMode(t *testing.T) {
	assert := assert.New(t)

	tio := &unix.Termios{
		Iflag: unix.ICRNL | unix.IXON,
		Oflag: unix.OPOST,
		Lflag: unix.ICANON | unix.ECHO,
		Cflag: unix.PARENB | unix.CS7 | unix.B4800,
	}
	rawMode(tio, unix.B115200)

	assert.Zero(tio.Iflag & (unix.ICRNL | unix.IXON))
	assert.Zero(tio.Oflag & unix.OPOST)
	assert.Zero(tio.Lflag & (unix.ICANON | unix.ECHO))
	assert.Zero(tio.Cflag & unix.PARENB)
	assert.Equal(uint32(unix.CS8), tio.Cflag&unix.CSIZE)
	assert.Equal(uint32(unix.B115200), tio.Cflag&unix.CBAUD)
	assert.Equal(uint32(unix.B115200), tio.Ispeed)
	assert.Equal(uint8(1), tio.Cc[unix.VMIN])
	assert.Equal(uint8(10), tio.Cc[unix.VTIME])
}

func TestOpenSerial(t *testing.T) {
	assert := assert.New(t)

	_, err := OpenSerial(filepath.Join(t.TempDir(), "ttyGPS"), 9600)
	assert.ErrorIs(err, unix.ENOENT)

	_, err = OpenSerial("/dev/null", 1234)
	if assert.Error(err) {
		assert.Contains(err.Error(), "unsupported baud rate")
	}
}
