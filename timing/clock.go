// Package timing provides the clocks that drive frame-based playback.
//
// Times are float64 milliseconds. A Clock only reports time; an
// AdjustableClock can also be started, stopped and seeked. Seek returns false
// when the clock cannot represent the requested position, and leaves its
// state untouched in that case.
package timing

import "math"

// Clock is a read-only time source.
type Clock interface {
	CurrentTime() float64
	Rate() float64
	IsRunning() bool
}

// AdjustableClock is a Clock that accepts control commands.
type AdjustableClock interface {
	Clock
	Start()
	Stop()
	Reset()
	Seek(position float64) bool
	SetRate(rate float64)
}

// FrameBasedClock samples time once per frame.
type FrameBasedClock interface {
	Clock
	ProcessFrame()
	ElapsedFrameTime() float64
	FramesPerSecond() float64
	TimeInfo() FrameTimeInfo
}

// FrameTimeInfo is the per-frame snapshot handed to consumers.
type FrameTimeInfo struct {
	Elapsed float64
	Current float64
}

func rateSign(rate float64) float64 {
	if rate < 0 {
		return -1
	}
	return 1
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
