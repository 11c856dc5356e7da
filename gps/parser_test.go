package gps

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const (
	rmc = "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A\r"
	gga = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47\r"

	rmcPayload = "GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W"
	ggaPayload = "GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,"
)

// sentence returns payload framed as NMEA sentence with valid checksum
func sentence(payload string) string {
	ck := byte(0)
	for i := 0; i < len(payload); i++ {
		ck ^= payload[i]
	}
	return fmt.Sprintf("$%s*%02X\r\n", payload, ck)
}

// feed feeds s to p and returns number of fixes and all errors.
func feed(p *Parser, s string) (int, []error) {
	var fixes int
	var errs []error
	for i := 0; i < len(s); i++ {
		ok, err := p.Feed(s[i])
		if ok {
			fixes++
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return fixes, errs
}

func TestParserFix(t *testing.T) {
	assert := assert.New(t)

	p := NewParser()

	fixes, errs := feed(p, rmc)
	assert.Equal(0, fixes)
	assert.Empty(errs)

	fixes, errs = feed(p, gga)
	assert.Equal(1, fixes)
	assert.Empty(errs)

	assert.InDelta(48.0+0.07038*5/3, p.Latitude(), 1e-9)
	assert.InDelta(48.1173, p.Latitude(), 1e-4)
	assert.InDelta(11.0+0.31*5/3, p.Longitude(), 1e-9)
	assert.InDelta(41.4848, p.Speed(), 1e-9)
	assert.InDelta(84.4, p.Course(), 1e-9)
	assert.Equal(8, p.Satellites())
	assert.Equal(545.4, p.Altitude())

	assert.Equal(12, p.Hour())
	assert.Equal(35, p.Minute())
	assert.Equal(19, p.Second())
	assert.Equal(23, p.Day())
	assert.Equal(3, p.Month())
	assert.Equal(94, p.Year())
}

func TestParserFixReadyOnce(t *testing.T) {
	assert := assert.New(t)

	p := NewParser()

	// readiness is reported on the completing byte only
	var ready []int
	stream := rmc + "\n" + gga + "\n"
	for i := 0; i < len(stream); i++ {
		ok, err := p.Feed(stream[i])
		assert.NoError(err)
		if ok {
			ready = append(ready, i)
		}
	}
	assert.Equal([]int{len(rmc) + 1 + len(gga) - 1}, ready)

	// a second GGA alone does not complete a fix
	fixes, _ := feed(p, gga)
	assert.Equal(0, fixes)
	fixes, _ = feed(p, rmc)
	assert.Equal(1, fixes)
}

func TestParserHemisphere(t *testing.T) {
	assert := assert.New(t)

	p := NewParser()
	s := sentence("GPRMC,000000,A,3351.000,S,15112.000,W,000.0,000.0,010120,,") +
		sentence("GPGGA,000000,3351.000,S,15112.000,W,1,05,1.0,10.0,M,,M,,")

	fixes, errs := feed(p, s)
	assert.Equal(1, fixes)
	assert.Empty(errs)

	assert.InDelta(-(33.0 + 0.51*5/3), p.Latitude(), 1e-9)
	assert.InDelta(-(151.0 + 0.12*5/3), p.Longitude(), 1e-9)
	assert.Equal(5, p.Satellites())
	assert.Equal(2020, p.Fix().Time().Year())
}

func TestParserUnknownSentence(t *testing.T) {
	assert := assert.New(t)

	p := NewParser()

	fixes, errs := feed(p, sentence("GPGSV,3,1,11,03,03,111,00,04,15,270,00"))
	assert.Equal(0, fixes)
	assert.Len(errs, 1)
	assert.ErrorIs(errs[0], ErrUnknownSentence)
	assert.Equal(Other, p.Sentence())

	// unknown sentence fields are discarded
	assert.Equal(0, p.Satellites())

	fixes, errs = feed(p, rmc+gga)
	assert.Equal(1, fixes)
	assert.Empty(errs)
}

func TestParserFieldOverflow(t *testing.T) {
	assert := assert.New(t)

	p := NewParser(WithFieldLimit(10))

	long := "$GPRMC,123519,A," + strings.Repeat("9", 20) + ",N,01131.000,E,022.4,084.4,230394,003.1,W*6A\r"
	fixes, errs := feed(p, long)
	assert.Equal(0, fixes)
	assert.Len(errs, 1)
	assert.ErrorIs(errs[0], ErrFieldOverflow)

	// resynchronizes on the next sentence start
	fixes, errs = feed(p, rmc+gga)
	assert.Equal(1, fixes)
	assert.Empty(errs)
}

func TestParserChecksum(t *testing.T) {
	assert := assert.New(t)

	p := NewParser(WithChecksum())

	good := sentence(rmcPayload)
	fixes, errs := feed(p, good+sentence(ggaPayload))
	assert.Equal(1, fixes)
	assert.Empty(errs)

	bad := good[:len(good)-4] + "00\r\n"
	fixes, errs = feed(p, bad+sentence(ggaPayload))
	assert.Equal(0, fixes)
	assert.Len(errs, 1)
	assert.ErrorIs(errs[0], ErrChecksumMismatch)

	// checksum is not validated by default
	p = NewParser()
	fixes, errs = feed(p, bad+gga)
	assert.Equal(1, fixes)
	assert.Empty(errs)
}

func TestParserMalformed(t *testing.T) {
	assert := assert.New(t)

	p := NewParser()
	s := sentence("GPRMC,12,A,abc,N,,E,x,y,1,,") + sentence("GPGGA,,,,,,,zz,,?,M,,M,,")

	fixes, _ := feed(p, s)
	assert.Equal(1, fixes)

	assert.Equal(12, p.Hour())
	assert.Equal(0, p.Minute())
	assert.Equal(0.0, p.Latitude())
	assert.Equal(0.0, p.Speed())
	assert.Equal(0, p.Satellites())
	assert.Equal(0.0, p.Altitude())
	assert.Equal(0, p.Year())
}

func TestFixTime(t *testing.T) {
	assert := assert.New(t)

	p := NewParser()
	feed(p, rmc+gga)

	f := p.Fix()
	assert.Equal(time.Date(2094, time.March, 23, 12, 35, 19, 0, time.UTC), f.Time())
	assert.Equal(8, f.Satellites)
	assert.InDelta(48.1173, f.Latitude, 1e-4)
}

func TestSentenceString(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("GPRMC", GPRMC.String())
	assert.Equal("GPGGA", GPGGA.String())
	assert.Equal("OTHER", Other.String())
}
