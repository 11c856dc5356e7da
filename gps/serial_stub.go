//go:build !linux

package gps

import (
	"fmt"
	"os"
)

// OpenSerial is not supported on this platform.
func OpenSerial(path string, baud int) (*os.File, error) {
	return nil, fmt.Errorf("gps serial not supported on this platform: %s", path)
}
