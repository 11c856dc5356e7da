package fusion

import (
	"math"
	"sync"
)

// Frame identifiers of the transmitted output
const (
	FrameYPR      uint32 = 0x12
	FrameVelocity uint32 = 0x13
)

// Scale is the fixed point scale of transmitted values
const Scale = 100

// Output is a single fusion tick result
type Output struct {
	// Velocity is north, east and down velocity in m/s
	Velocity [3]float64
	// Position is north, east and down position in m
	Position [3]float64
	// Euler is yaw, pitch and roll in radians
	Euler [3]float64
	// Accel is navigation frame acceleration in m/s^2
	Accel [3]float64
	// GPS is true when the tick was corrected by a GPS fix
	GPS bool
	// Tick is the tick number, starting at 1
	Tick uint64
}

// Scaled returns Euler angles and velocity scaled by Scale and truncated to int16.
func (o Output) Scaled() (ypr, vel [3]int16) {
	for i := range o.Euler {
		ypr[i] = fixed(o.Euler[i])
		vel[i] = fixed(o.Velocity[i])
	}

	return ypr, vel
}

// Frame is a transmitted output message
type Frame struct {
	ID   uint32
	Data [3]int16
}

// Frames returns the output frames in transmission order
func (o Output) Frames() []Frame {
	ypr, vel := o.Scaled()

	return []Frame{
		{ID: FrameYPR, Data: ypr},
		{ID: FrameVelocity, Data: vel},
	}
}

// fixed truncates v*Scale towards zero, saturating at the int16 range
func fixed(v float64) int16 {
	s := math.Trunc(v * Scale)
	switch {
	case math.IsNaN(s):
		return 0
	case s > math.MaxInt16:
		return math.MaxInt16
	case s < math.MinInt16:
		return math.MinInt16
	}

	return int16(s)
}

// Publisher holds the latest output for readers on other goroutines.
type Publisher struct {
	mu  sync.RWMutex
	out Output
	ok  bool
}

// Publish stores o as the latest output
func (p *Publisher) Publish(o Output) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.out = o
	p.ok = true
}

// Latest returns a copy of the latest output.
// It returns false if nothing has been published yet.
func (p *Publisher) Latest() (Output, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.out, p.ok
}
