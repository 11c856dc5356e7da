package fusion

import "math"

const (
	// EarthRadius is the Earth radius in meters
	EarthRadius = 6378388.0
	// PoleDistance is the pole to pole meridian distance in meters
	PoleDistance = 20004500.0
)

// Earth holds the flat-Earth conversion constants
type Earth struct {
	// Radius is the Earth radius in meters
	Radius float64
	// PoleDistance is the pole to pole meridian distance in meters
	PoleDistance float64
}

// DefaultEarth returns Earth with the default constants
func DefaultEarth() Earth {
	return Earth{
		Radius:       EarthRadius,
		PoleDistance: PoleDistance,
	}
}

// Meters converts latitude and longitude in degrees and altitude in meters
// to flat-Earth north, east and down coordinates in meters.
//
// Latitude and longitude are shifted into 0..180 and 0..360 before conversion,
// so only differences between two converted fixes are meaningful.
func (e Earth) Meters(lat, lon, alt float64) [3]float64 {
	la := (lat + 90) * math.Pi / 180
	lo := (lon + 180) * math.Pi / 180

	north := la / math.Pi * (e.PoleDistance + math.Pi*alt)
	c := 2 * math.Pi * (e.Radius + alt) * math.Cos(la)
	east := lo / (2 * math.Pi) * c

	return [3]float64{north, east, -alt}
}

// ReferenceFix is the last accepted fix in flat-Earth meters.
// It is the zero reference of fix deltas.
type ReferenceFix struct {
	pos [3]float64
	set bool
}

// IsSet returns true once the reference has been pinned.
func (r *ReferenceFix) IsSet() bool {
	return r.set
}

// Set pins the reference to pos.
func (r *ReferenceFix) Set(pos [3]float64) {
	r.pos = pos
	r.set = true
}

// Get returns the reference position.
func (r *ReferenceFix) Get() ([3]float64, bool) {
	return r.pos, r.set
}

// Delta returns the offset of pos from the reference and moves the reference to pos.
// The first delta after Reset is zero.
func (r *ReferenceFix) Delta(pos [3]float64) [3]float64 {
	if !r.set {
		r.Set(pos)
		return [3]float64{}
	}

	var d [3]float64
	for i := range d {
		d[i] = pos[i] - r.pos[i]
	}
	r.pos = pos

	return d
}

// Reset unpins the reference.
func (r *ReferenceFix) Reset() {
	r.pos = [3]float64{}
	r.set = false
}
