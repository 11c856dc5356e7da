package gps

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

const (
	// DefaultFieldLimit is the maximum NMEA 0183 sentence length.
	DefaultFieldLimit = 82
	// knotsToKmh converts knots to km/h
	knotsToKmh = 1.852
)

var (
	// ErrUnknownSentence is returned when a sentence other than GPRMC or GPGGA starts.
	// It is not fatal: the fields of the sentence are discarded.
	ErrUnknownSentence = errors.New("nmea: unknown sentence")
	// ErrFieldOverflow is returned when a field exceeds the parser field limit.
	// The rest of the sentence is discarded until the next '$'.
	ErrFieldOverflow = errors.New("nmea: field overflow")
	// ErrChecksumMismatch is returned when checksum validation is enabled
	// and the sentence checksum does not match its payload.
	ErrChecksumMismatch = errors.New("nmea: checksum mismatch")
)

// Sentence is NMEA sentence type
type Sentence int

const (
	// Other is any sentence which is not recognized
	Other Sentence = iota
	// GPRMC is recommended minimum specific GPS data
	GPRMC
	// GPGGA is GPS fix data
	GPGGA
)

// String implements fmt.Stringer
func (s Sentence) String() string {
	switch s {
	case GPRMC:
		return "GPRMC"
	case GPGGA:
		return "GPGGA"
	default:
		return "OTHER"
	}
}

// ParserOption configures Parser
type ParserOption func(*Parser)

// WithFieldLimit sets maximum field length to n bytes.
func WithFieldLimit(n int) ParserOption {
	return func(p *Parser) {
		if n > 0 {
			p.limit = n
		}
	}
}

// WithChecksum enables validation of the *hh sentence checksum.
// Sentences without a checksum are accepted.
func WithChecksum() ParserOption {
	return func(p *Parser) {
		p.checksum = true
	}
}

// raw holds the last decoded raw field values
type raw struct {
	time, date     string
	lat, lon       string
	latNeg, lonNeg bool
	speed, course  string
	sats, alt      string
}

// Parser is an incremental NMEA sentence parser fed one byte at a time.
// It recognizes GPRMC and GPGGA sentences and reports a fix once both
// have completed.
type Parser struct {
	// limit is field buffer limit
	limit int
	// checksum enables checksum validation
	checksum bool

	typ     Sentence
	field   int
	buf     []byte
	discard bool

	sum     byte
	inSum   bool
	sumText []byte

	rmc, gga bool
	raw      raw
}

// NewParser creates new Parser and returns it.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		limit: DefaultFieldLimit,
		typ:   Other,
	}

	for _, o := range opts {
		o(p)
	}
	p.buf = make([]byte, 0, p.limit)

	return p
}

// Feed feeds a single byte c to the parser.
// It returns true when both GPRMC and GPGGA sentences have completed
// since the last reported fix: true is returned for this call only.
// The returned error is informational: the parser remains usable.
func (p *Parser) Feed(c byte) (bool, error) {
	switch c {
	case '$':
		p.start()
		return false, nil
	case '\r':
		return p.end()
	}

	if p.discard {
		return false, nil
	}

	p.checksumByte(c)

	if c == ',' {
		return false, p.terminate()
	}

	if len(p.buf) >= p.limit {
		p.discard = true
		return false, fmt.Errorf("%w: %s field %d exceeds %d bytes", ErrFieldOverflow, p.typ, p.field, p.limit)
	}
	p.buf = append(p.buf, c)

	return false, nil
}

func (p *Parser) start() {
	p.field = 0
	p.buf = p.buf[:0]
	p.typ = Other
	p.discard = false
	p.sum = 0
	p.inSum = false
	p.sumText = p.sumText[:0]
}

func (p *Parser) checksumByte(c byte) {
	if !p.checksum {
		return
	}

	switch {
	case c == '*':
		p.inSum = true
	case p.inSum:
		if len(p.sumText) < 2 {
			p.sumText = append(p.sumText, c)
		}
	default:
		p.sum ^= c
	}
}

func (p *Parser) end() (bool, error) {
	if p.discard {
		return false, nil
	}

	if p.checksum && p.inSum {
		want, err := strconv.ParseUint(string(p.sumText), 16, 8)
		if err != nil || byte(want) != p.sum {
			p.discard = true
			return false, fmt.Errorf("%w: %s want %s got %02X", ErrChecksumMismatch, p.typ, p.sumText, p.sum)
		}
	}

	switch p.typ {
	case GPRMC:
		p.rmc = true
	case GPGGA:
		p.gga = true
	}

	if p.rmc && p.gga {
		p.rmc, p.gga = false, false
		return true, nil
	}

	return false, nil
}

// terminate dispatches the completed field and starts the next one
func (p *Parser) terminate() error {
	v := string(p.buf)
	p.buf = p.buf[:0]

	defer func() { p.field++ }()

	if p.field == 0 {
		switch v {
		case "GPRMC":
			p.typ = GPRMC
		case "GPGGA":
			p.typ = GPGGA
		default:
			p.typ = Other
			return fmt.Errorf("%w: %q", ErrUnknownSentence, v)
		}
		return nil
	}

	switch p.typ {
	case GPRMC:
		switch p.field {
		case 1:
			p.raw.time = v
		case 3:
			p.raw.lat = v
		case 4:
			p.raw.latNeg = !(len(v) > 0 && v[0] == 'N')
		case 5:
			p.raw.lon = v
		case 6:
			p.raw.lonNeg = !(len(v) > 0 && v[0] == 'E')
		case 7:
			p.raw.speed = v
		case 8:
			p.raw.course = v
		case 9:
			p.raw.date = v
		}
	case GPGGA:
		switch p.field {
		case 7:
			p.raw.sats = v
		case 9:
			p.raw.alt = v
		}
	}

	return nil
}

// Sentence returns the type of the sentence being parsed.
func (p *Parser) Sentence() Sentence {
	return p.typ
}

// Hour returns UTC hour of the last fix.
func (p *Parser) Hour() int { return digitPair(p.raw.time, 0) }

// Minute returns UTC minute of the last fix.
func (p *Parser) Minute() int { return digitPair(p.raw.time, 2) }

// Second returns UTC second of the last fix.
func (p *Parser) Second() int { return digitPair(p.raw.time, 4) }

// Day returns UTC day of the last fix.
func (p *Parser) Day() int { return digitPair(p.raw.date, 0) }

// Month returns UTC month of the last fix.
func (p *Parser) Month() int { return digitPair(p.raw.date, 2) }

// Year returns two digit UTC year of the last fix.
func (p *Parser) Year() int { return digitPair(p.raw.date, 4) }

// Latitude returns latitude in decimal degrees, negative on southern hemisphere.
func (p *Parser) Latitude() float64 {
	return degrees(p.raw.lat, p.raw.latNeg)
}

// Longitude returns longitude in decimal degrees, negative on western hemisphere.
func (p *Parser) Longitude() float64 {
	return degrees(p.raw.lon, p.raw.lonNeg)
}

// Altitude returns altitude in meters.
func (p *Parser) Altitude() float64 {
	return parseFloat(p.raw.alt)
}

// Speed returns speed over ground in km/h.
func (p *Parser) Speed() float64 {
	return parseFloat(p.raw.speed) * knotsToKmh
}

// Course returns course over ground in degrees.
func (p *Parser) Course() float64 {
	return parseFloat(p.raw.course)
}

// Satellites returns number of satellites in use.
func (p *Parser) Satellites() int {
	n, err := strconv.Atoi(p.raw.sats)
	if err != nil {
		return 0
	}

	return n
}

// Fix returns a snapshot of the last decoded fix values.
func (p *Parser) Fix() Fix {
	return Fix{
		Hour:       p.Hour(),
		Minute:     p.Minute(),
		Second:     p.Second(),
		Day:        p.Day(),
		Month:      p.Month(),
		Year:       p.Year(),
		Latitude:   p.Latitude(),
		Longitude:  p.Longitude(),
		Altitude:   p.Altitude(),
		Speed:      p.Speed(),
		Course:     p.Course(),
		Satellites: p.Satellites(),
	}
}

// Fix is a decoded GPS fix
type Fix struct {
	Hour, Minute, Second int
	Day, Month, Year     int
	// Latitude and Longitude are in decimal degrees
	Latitude, Longitude float64
	// Altitude is in meters
	Altitude float64
	// Speed is in km/h
	Speed float64
	// Course is in degrees
	Course     float64
	Satellites int
}

// Time returns UTC time of the fix.
func (f Fix) Time() time.Time {
	return time.Date(2000+f.Year, time.Month(f.Month), f.Day, f.Hour, f.Minute, f.Second, 0, time.UTC)
}

// degrees converts DDMM.MMMM to decimal degrees.
// The fractional part of DD.MMMMMM is scaled by 5/3.
func degrees(s string, neg bool) float64 {
	v := parseFloat(s)
	if neg {
		v = -v
	}

	v /= 100
	d := math.Trunc(v)

	return d + (v-d)*5/3
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}

	return v
}

func digitPair(s string, i int) int {
	if len(s) < i+2 {
		return 0
	}

	a, b := s[i], s[i+1]
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0
	}

	return int(a-'0')*10 + int(b-'0')
}
