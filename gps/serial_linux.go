//go:build linux

package gps

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// baudRates maps the receiver baud rates to termios speed constants
var baudRates = map[int]uint32{
	4800:   unix.B4800,
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
	230400: unix.B230400,
}

// baudSpeed returns termios speed for baud.
func baudSpeed(baud int) (uint32, error) {
	spd, ok := baudRates[baud]
	if !ok {
		return 0, fmt.Errorf("unsupported baud rate: %d", baud)
	}
	return spd, nil
}

// OpenSerial opens the GPS receiver tty at path as a raw 8N1 line at baud.
// Reads block until at least one byte arrives or the line stays idle for a second.
func OpenSerial(path string, baud int) (*os.File, error) {
	spd, err := baudSpeed(baud)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("read termios %s: %w", path, err)
	}

	rawMode(t, spd)

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("write termios %s: %w", path, err)
	}

	f := os.NewFile(uintptr(fd), path)
	if f == nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("invalid file descriptor for %s", path)
	}

	return f, nil
}

// rawMode switches t to raw 8N1 at speed spd.
// NMEA sentences end with "\r\n" and the parser needs both bytes untranslated.
func rawMode(t *unix.Termios, spd uint32) {
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.CBAUD
	t.Cflag |= unix.CS8 | spd

	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 10

	t.Ispeed = spd
	t.Ospeed = spd
}
