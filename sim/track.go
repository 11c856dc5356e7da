package sim

import (
	"fmt"
	"time"

	"github.com/milosgajdos/go-navfusion/fusion"
	"github.com/milosgajdos/go-navfusion/gps"
	"github.com/milosgajdos/go-navfusion/matrix"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
)

// Track records true, GPS and filtered positions of a simulation run
type Track struct {
	origin orb.Point
	start  time.Time

	times    []float64
	truth    [][3]float64
	filtered [][3]float64
	fixes    []orb.Point
	path     orb.LineString
}

// NewTrack creates new track of a run starting at origin
func NewTrack(origin orb.Point) *Track {
	return &Track{origin: origin}
}

// Add records step s and the navigator output out
func (t *Track) Add(s Step, out fusion.Output) {
	if len(t.times) == 0 {
		t.start = s.Time
	}
	t.times = append(t.times, s.Time.Sub(t.start).Seconds())
	t.truth = append(t.truth, s.Position)
	t.filtered = append(t.filtered, out.Position)
	t.path = append(t.path, s.Point)
}

// AddFix records a decoded GPS fix
func (t *Track) AddFix(f gps.Fix) {
	t.fixes = append(t.fixes, orb.Point{f.Longitude, f.Latitude})
}

// Len returns the number of recorded steps
func (t *Track) Len() int {
	return len(t.truth)
}

// Truth returns true east, north positions, one row per step
func (t *Track) Truth() *matrix.Matrix {
	return eastNorth(t.truth)
}

// Filtered returns filtered east, north positions, one row per step.
// The navigator starts at the origin, so both tracks share it.
func (t *Track) Filtered() *matrix.Matrix {
	return eastNorth(t.filtered)
}

// Fixes returns GPS fix east, north positions relative to the true origin
func (t *Track) Fixes() *matrix.Matrix {
	m := matrix.MustNew(len(t.fixes), 2, nil)
	for i, p := range t.fixes {
		n, e := t.offset(p)
		m.Set(i, 0, e)
		m.Set(i, 1, n)
	}

	return m
}

// Axis returns time, position rows of the true and filtered positions of the given axis
func (t *Track) Axis(axis int) (truth, filtered *matrix.Matrix, err error) {
	if axis < fusion.North || axis > fusion.Down {
		return nil, nil, fmt.Errorf("invalid axis: %d", axis)
	}

	truth = matrix.MustNew(t.Len(), 2, nil)
	filtered = matrix.MustNew(t.Len(), 2, nil)
	for i := 0; i < t.Len(); i++ {
		truth.Set(i, 0, t.times[i])
		truth.Set(i, 1, t.truth[i][axis])
		filtered.Set(i, 0, t.times[i])
		filtered.Set(i, 1, t.filtered[i][axis])
	}

	return truth, filtered, nil
}

// Error returns the horizontal distance in meters between the true
// and the filtered position of the last recorded step.
func (t *Track) Error() float64 {
	if t.Len() == 0 {
		return 0
	}

	f := t.Filtered()
	last := t.Len() - 1
	est := Offset(t.origin, f.At(last, 1), f.At(last, 0))

	return geo.DistanceHaversine(t.path[last], est)
}

// GeoJSON returns the track as a feature collection of the true path,
// the filtered path and the GPS fixes.
func (t *Track) GeoJSON() ([]byte, error) {
	fc := geojson.NewFeatureCollection()

	truth := geojson.NewFeature(t.path)
	truth.Properties["name"] = "truth"
	fc.Append(truth)

	f := t.Filtered()
	est := make(orb.LineString, t.Len())
	for i := range est {
		est[i] = Offset(t.origin, f.At(i, 1), f.At(i, 0))
	}
	filtered := geojson.NewFeature(est)
	filtered.Properties["name"] = "filtered"
	fc.Append(filtered)

	fixes := geojson.NewFeature(orb.MultiPoint(t.fixes))
	fixes.Properties["name"] = "gps"
	fc.Append(fixes)

	return fc.MarshalJSON()
}

// offset returns north and east meters of p from the origin
func (t *Track) offset(p orb.Point) (north, east float64) {
	north = geo.DistanceHaversine(t.origin, orb.Point{t.origin.Lon(), p.Lat()})
	if p.Lat() < t.origin.Lat() {
		north = -north
	}

	east = geo.DistanceHaversine(orb.Point{t.origin.Lon(), p.Lat()}, p)
	if p.Lon() < t.origin.Lon() {
		east = -east
	}

	return north, east
}

func eastNorth(pos [][3]float64) *matrix.Matrix {
	m := matrix.MustNew(len(pos), 2, nil)
	for i, p := range pos {
		m.Set(i, 0, p[fusion.East])
		m.Set(i, 1, p[fusion.North])
	}

	return m
}
