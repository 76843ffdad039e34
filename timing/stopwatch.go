package timing

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// StopwatchClock is an adjustable clock that advances with wall time.
//
// It accepts any finite seek position, including negative ones.
type StopwatchClock struct {
	wall clockwork.Clock

	running   bool
	rate      float64
	base      float64
	startedAt time.Time
}

// NewStopwatchClock returns a stopped stopwatch at zero. A nil wall clock
// selects the real clock.
func NewStopwatchClock(wall clockwork.Clock) *StopwatchClock {
	if wall == nil {
		wall = clockwork.NewRealClock()
	}
	return &StopwatchClock{wall: wall, rate: 1}
}

func (c *StopwatchClock) CurrentTime() float64 {
	if !c.running {
		return c.base
	}
	since := c.wall.Since(c.startedAt)
	return c.base + float64(since)/float64(time.Millisecond)*c.rate
}

func (c *StopwatchClock) Rate() float64   { return c.rate }
func (c *StopwatchClock) IsRunning() bool { return c.running }

func (c *StopwatchClock) Start() {
	if c.running {
		return
	}
	c.startedAt = c.wall.Now()
	c.running = true
}

func (c *StopwatchClock) Stop() {
	if !c.running {
		return
	}
	c.base = c.CurrentTime()
	c.running = false
}

// Reset stops the stopwatch and rewinds it to zero.
func (c *StopwatchClock) Reset() {
	c.running = false
	c.base = 0
}

func (c *StopwatchClock) Seek(position float64) bool {
	if !finite(position) {
		return false
	}
	c.base = position
	c.startedAt = c.wall.Now()
	return true
}

// SetRate rebases the stopwatch so the current time is continuous across the
// change.
func (c *StopwatchClock) SetRate(rate float64) {
	c.base = c.CurrentTime()
	c.startedAt = c.wall.Now()
	c.rate = rate
}
