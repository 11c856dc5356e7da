// Package gps decodes GPRMC and GPGGA NMEA sentences from a raw byte stream.
//
// Parser is fed one byte at a time and never blocks. Service reads a serial
// receiver or a recorded stream in the background and publishes fixes on
// a bounded channel so consumers running at a fixed tick are never stalled.
package gps
