// Package clocktest provides deterministic clocks for exercising code built on
// package timing. None of them advance on their own.
package clocktest

import "math"

// ManualClock is an adjustable clock that only moves when told to. It
// accepts every seek.
type ManualClock struct {
	time    float64
	rate    float64
	running bool
}

// NewManualClock returns a stopped clock at zero with rate 1.
func NewManualClock() *ManualClock {
	return &ManualClock{rate: 1}
}

func (c *ManualClock) CurrentTime() float64 { return c.time }
func (c *ManualClock) Rate() float64        { return c.rate }
func (c *ManualClock) IsRunning() bool      { return c.running }

func (c *ManualClock) Start() { c.running = true }
func (c *ManualClock) Stop()  { c.running = false }

func (c *ManualClock) Reset() {
	c.running = false
	c.time = 0
}

func (c *ManualClock) Seek(position float64) bool {
	c.time = position
	return true
}

func (c *ManualClock) SetRate(rate float64) { c.rate = rate }

// SetTime moves the clock without going through Seek, as an external actor
// would.
func (c *ManualClock) SetTime(t float64) { c.time = t }

// Advance moves the clock by ms scaled by its rate.
func (c *ManualClock) Advance(ms float64) { c.time += ms * c.rate }

// RangeClock is a ManualClock that rejects seeks outside [MinTime, MaxTime],
// including NaN.
type RangeClock struct {
	*ManualClock
	MinTime float64
	MaxTime float64
}

// NewRangeClock returns a RangeClock over [0, +Inf).
func NewRangeClock() *RangeClock {
	return &RangeClock{ManualClock: NewManualClock(), MaxTime: math.Inf(1)}
}

func (c *RangeClock) Seek(position float64) bool {
	if !(position >= c.MinTime && position <= c.MaxTime) {
		return false
	}
	return c.ManualClock.Seek(position)
}

// NonAdjustableClock reports time but exposes no control surface.
type NonAdjustableClock struct {
	time    float64
	rate    float64
	running bool
}

// NewNonAdjustableClock returns a stopped clock at t with rate 1.
func NewNonAdjustableClock(t float64) *NonAdjustableClock {
	return &NonAdjustableClock{time: t, rate: 1}
}

func (c *NonAdjustableClock) CurrentTime() float64 { return c.time }
func (c *NonAdjustableClock) Rate() float64        { return c.rate }
func (c *NonAdjustableClock) IsRunning() bool      { return c.running }

func (c *NonAdjustableClock) SetTime(t float64)       { c.time = t }
func (c *NonAdjustableClock) SetRate(rate float64)    { c.rate = rate }
func (c *NonAdjustableClock) SetRunning(running bool) { c.running = running }
