package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/paulmach/orb"
)

const kmhToKnots = 1 / 1.852

// NMEA returns GPRMC and GPGGA sentences for a fix at p and altitude alt.
// speed is the ground speed in m/s and course the track angle in degrees.
func NMEA(p orb.Point, alt, speed, course float64, t time.Time) []byte {
	t = t.UTC()
	hms := t.Format("150405")
	lat, ns := coord(p.Lat(), 2, 'N', 'S')
	lon, ew := coord(p.Lon(), 3, 'E', 'W')
	knots := speed * 3.6 * kmhToKnots

	rmc := fmt.Sprintf("GPRMC,%s,A,%s,%c,%s,%c,%05.1f,%05.1f,%s,,",
		hms, lat, ns, lon, ew, knots, course, t.Format("020106"))
	gga := fmt.Sprintf("GPGGA,%s,%s,%c,%s,%c,1,08,0.9,%.1f,M,46.9,M,,",
		hms, lat, ns, lon, ew, alt)

	b := make([]byte, 0, 2*82)
	b = frame(b, rmc)
	b = frame(b, gga)

	return b
}

// frame appends payload to b as a $payload*hh sentence
func frame(b []byte, payload string) []byte {
	var ck byte
	for i := 0; i < len(payload); i++ {
		ck ^= payload[i]
	}

	return fmt.Appendf(b, "$%s*%02X\r\n", payload, ck)
}

// coord formats decimal degrees v as DDMM.MMMM with width degree digits
func coord(v float64, width int, pos, neg byte) (string, byte) {
	h := pos
	if v < 0 {
		h, v = neg, -v
	}

	d := math.Floor(v)
	m := math.Round((v-d)*60*1e4) / 1e4
	if m >= 60 {
		d, m = d+1, m-60
	}

	return fmt.Sprintf("%0*d%07.4f", width, int(d), m), h
}
