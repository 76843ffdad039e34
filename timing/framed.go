package timing

import "math"

const fpsWindowMs = 1000

// FramedClock freezes a source clock's time for the duration of a frame.
type FramedClock struct {
	source Clock

	current float64
	last    float64
	elapsed float64

	fps          float64
	framesInWin  int
	windowMs     float64
	windowPassed bool
}

// NewFramedClock wraps source. The first frame's elapsed time is measured
// from construction.
func NewFramedClock(source Clock) *FramedClock {
	if source == nil {
		panic("timing: framed clock requires a source")
	}
	t := source.CurrentTime()
	return &FramedClock{source: source, current: t, last: t}
}

// Source returns the wrapped clock.
func (c *FramedClock) Source() Clock { return c.source }

func (c *FramedClock) ProcessFrame() {
	c.last = c.current
	c.current = c.source.CurrentTime()
	c.elapsed = c.current - c.last

	c.framesInWin++
	c.windowMs += math.Abs(c.elapsed)
	if c.windowMs >= fpsWindowMs {
		c.fps = float64(c.framesInWin) * 1000 / c.windowMs
		c.framesInWin = 0
		c.windowMs = 0
		c.windowPassed = true
	}
}

// rebase resamples the source without counting a frame. The time since the
// previous sample still counts towards the frame-rate window.
func (c *FramedClock) rebase() {
	now := c.source.CurrentTime()
	c.windowMs += math.Abs(now - c.current)
	c.current = now
	c.last = now
}

func (c *FramedClock) CurrentTime() float64      { return c.current }
func (c *FramedClock) ElapsedFrameTime() float64 { return c.elapsed }
func (c *FramedClock) Rate() float64             { return c.source.Rate() }
func (c *FramedClock) IsRunning() bool           { return c.source.IsRunning() }

// FramesPerSecond reports the frame rate over the last full second of clock
// time, or zero before one second has been observed.
func (c *FramedClock) FramesPerSecond() float64 {
	if !c.windowPassed {
		return 0
	}
	return c.fps
}

func (c *FramedClock) TimeInfo() FrameTimeInfo {
	return FrameTimeInfo{Elapsed: c.elapsed, Current: c.current}
}
