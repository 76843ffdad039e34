package timing

import (
	"fmt"
	"math"

	"github.com/jonboulle/clockwork"
)

// DefaultAllowableError is how far, in milliseconds, a driving source may
// step against the playback direction before the step is treated as a seek.
const DefaultAllowableError = 1000.0 / 60 * 2

// State is the externally visible mode of a DecouplingFramedClock.
type State uint8

const (
	StateStopped State = iota
	StateCoupled
	StateVirtual
	StateSourceDriven
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateCoupled:
		return "coupled"
	case StateVirtual:
		return "virtual"
	case StateSourceDriven:
		return "source"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Transfer reports which side's time survived a source change.
type Transfer uint8

const (
	// TransferPushed means the new source was seeked to our time.
	TransferPushed Transfer = iota + 1
	// TransferPulled means we adopted the new source's time.
	TransferPulled
)

func (t Transfer) String() string {
	switch t {
	case TransferPushed:
		return "pushed"
	case TransferPulled:
		return "pulled"
	default:
		return "none"
	}
}

// DecouplingOption configures a DecouplingFramedClock.
type DecouplingOption func(*DecouplingFramedClock)

// WithWallClock sets the clock used to measure real elapsed time while the
// source is not driving.
func WithWallClock(wall clockwork.Clock) DecouplingOption {
	return func(c *DecouplingFramedClock) { c.wall = wall }
}

// WithAllowableError overrides DefaultAllowableError. Negative and
// non-finite values are ignored. Zero disables jitter absorption: every
// backward step of a driving source is then followed as a seek.
func WithAllowableError(ms float64) DecouplingOption {
	return func(c *DecouplingFramedClock) {
		if finite(ms) && ms >= 0 {
			c.allowableError = ms
		}
	}
}

// WithDecoupling sets the initial mode.
func WithDecoupling(allow bool) DecouplingOption {
	return func(c *DecouplingFramedClock) { c.allowDecoupling = allow }
}

// DecouplingFramedClock arbitrates between a source clock and an internal
// realtime clock.
//
// Coupled (the default), it mirrors the source exactly and forwards every
// command to it. Decoupled, it keeps running when the source stops or cannot
// represent the current time (for instance negative lead-in before a track
// starts), and hands timekeeping back to the source once the source can host
// the current position. While running, published time never moves against
// the sign of Rate across a handoff.
//
// The clock is not safe for concurrent use; drive it from a single loop.
type DecouplingFramedClock struct {
	source     Clock
	adjustable AdjustableClock

	allowDecoupling bool
	allowableError  float64

	running      bool
	sourceDriven bool

	currentTime float64
	elapsed     float64

	wall      clockwork.Clock
	realtime  *StopwatchClock
	reference *FramedClock
}

var (
	_ AdjustableClock = (*DecouplingFramedClock)(nil)
	_ FrameBasedClock = (*DecouplingFramedClock)(nil)
)

// NewDecouplingFramedClock returns a stopped, coupled clock with no source.
// ChangeSource must be called before the first ProcessFrame.
func NewDecouplingFramedClock(opts ...DecouplingOption) *DecouplingFramedClock {
	c := &DecouplingFramedClock{allowableError: DefaultAllowableError}
	for _, opt := range opts {
		opt(c)
	}
	c.realtime = NewStopwatchClock(c.wall)
	c.realtime.Start()
	c.reference = NewFramedClock(c.realtime)
	return c
}

// Source returns the attached source, or nil.
func (c *DecouplingFramedClock) Source() Clock { return c.source }

func (c *DecouplingFramedClock) AllowDecoupling() bool { return c.allowDecoupling }

// SetAllowDecoupling switches mode. A running clock whose source is running
// continues source-driven.
func (c *DecouplingFramedClock) SetAllowDecoupling(allow bool) {
	if c.allowDecoupling == allow {
		return
	}
	c.allowDecoupling = allow
	c.sourceDriven = allow && c.running && c.source != nil && c.source.IsRunning()
	c.reference.rebase()
}

// AllowableError returns the backward drift, in milliseconds, absorbed while
// source-driven.
func (c *DecouplingFramedClock) AllowableError() float64 { return c.allowableError }

func (c *DecouplingFramedClock) CurrentTime() float64      { return c.currentTime }
func (c *DecouplingFramedClock) IsRunning() bool           { return c.running }
func (c *DecouplingFramedClock) ElapsedFrameTime() float64 { return c.elapsed }
func (c *DecouplingFramedClock) FramesPerSecond() float64  { return c.reference.FramesPerSecond() }

func (c *DecouplingFramedClock) TimeInfo() FrameTimeInfo {
	return FrameTimeInfo{Elapsed: c.elapsed, Current: c.currentTime}
}

// Rate mirrors the source's rate, or 1 without a source.
func (c *DecouplingFramedClock) Rate() float64 {
	if c.source == nil {
		return 1
	}
	return c.source.Rate()
}

// SetRate forwards to an adjustable source. It is a no-op otherwise.
func (c *DecouplingFramedClock) SetRate(rate float64) {
	if c.adjustable != nil {
		c.adjustable.SetRate(rate)
	}
}

// State reports the current mode.
func (c *DecouplingFramedClock) State() State {
	switch {
	case !c.running:
		return StateStopped
	case !c.allowDecoupling:
		return StateCoupled
	case c.sourceDriven:
		return StateSourceDriven
	default:
		return StateVirtual
	}
}

// ChangeSource attaches src and reconciles time with it. The previous source
// is released untouched.
//
// If src is adjustable and accepts our current time, our time is kept and
// src follows it. Otherwise we adopt src's time. A running clock starts an
// adjustable src after the transfer.
func (c *DecouplingFramedClock) ChangeSource(src Clock) Transfer {
	if src == nil {
		panic("timing: ChangeSource called with a nil source")
	}

	candidate := c.currentTime
	c.source = src
	c.adjustable, _ = src.(AdjustableClock)

	transfer := TransferPulled
	if c.adjustable != nil && c.adjustable.Seek(candidate) {
		transfer = TransferPushed
	} else {
		c.currentTime = src.CurrentTime()
	}

	if c.running && c.adjustable != nil {
		if transfer == TransferPushed || !c.allowDecoupling {
			c.adjustable.Start()
		}
	}
	c.sourceDriven = c.allowDecoupling && c.running && src.IsRunning()
	c.reference.rebase()
	return transfer
}

// Start begins playback. It is a no-op without a source or while already
// running.
func (c *DecouplingFramedClock) Start() {
	if c.source == nil {
		return
	}
	if c.running && (c.allowDecoupling || c.source.IsRunning()) {
		return
	}

	if !c.allowDecoupling {
		if c.adjustable != nil {
			if !c.adjustable.Seek(c.currentTime) {
				c.currentTime = c.source.CurrentTime()
			}
			c.adjustable.Start()
		}
		c.running = c.source.IsRunning()
		return
	}

	c.running = true
	c.reference.rebase()
	c.sourceDriven = false
	if c.adjustable == nil {
		return
	}
	if c.adjustable.Seek(c.currentTime) {
		c.adjustable.Start()
		c.sourceDriven = true
	} else {
		c.adjustable.Stop()
	}
}

// Stop halts playback and freezes the current time.
func (c *DecouplingFramedClock) Stop() {
	if c.adjustable != nil && (!c.allowDecoupling || c.sourceDriven) {
		c.adjustable.Stop()
	}
	if !c.allowDecoupling && c.source != nil {
		c.currentTime = c.source.CurrentTime()
	}
	c.running = false
	c.sourceDriven = false
}

// Reset stops playback and seeks to zero.
func (c *DecouplingFramedClock) Reset() {
	c.Stop()
	c.Seek(0)
}

// Seek moves to position. Non-finite positions are always rejected.
//
// Coupled, the seek is delegated and fails if the source rejects it.
// Decoupled, it succeeds for any finite position; a running source that
// cannot follow is stopped and time continues virtually.
func (c *DecouplingFramedClock) Seek(position float64) bool {
	if !finite(position) {
		return false
	}
	if !c.allowDecoupling {
		if c.adjustable == nil || !c.adjustable.Seek(position) {
			return false
		}
		c.currentTime = c.source.CurrentTime()
		return true
	}

	c.currentTime = position
	c.reference.rebase()

	if c.adjustable == nil || !c.adjustable.IsRunning() {
		return true
	}
	if c.adjustable.Seek(position) {
		c.sourceDriven = c.running
		return true
	}
	if c.running {
		c.adjustable.Stop()
		c.sourceDriven = false
	}
	return true
}

// ProcessFrame advances the clock by one frame. It panics if no source is
// attached.
func (c *DecouplingFramedClock) ProcessFrame() {
	if c.source == nil {
		panic("timing: ProcessFrame called before ChangeSource")
	}

	c.reference.ProcessFrame()
	last := c.currentTime

	switch {
	case !c.allowDecoupling:
		c.running = c.source.IsRunning()
		c.currentTime = c.source.CurrentTime()
		c.sourceDriven = false
	case !c.running:
	case c.sourceDriven:
		c.frameSourceDriven(last)
	default:
		c.frameVirtual(last)
	}

	c.elapsed = c.currentTime - last
}

func (c *DecouplingFramedClock) frameSourceDriven(last float64) {
	if !c.source.IsRunning() {
		c.sourceDriven = false
		c.frameVirtual(last)
		return
	}
	c.currentTime = c.follow(last, c.source.CurrentTime(), c.allowableError)
}

func (c *DecouplingFramedClock) frameVirtual(last float64) {
	rate := c.Rate()
	proposed := last + c.reference.ElapsedFrameTime()*rate
	c.currentTime = proposed

	if c.adjustable != nil {
		if c.adjustable.Seek(proposed) {
			c.adjustable.Start()
			c.sourceDriven = true
			c.currentTime = c.follow(last, c.source.CurrentTime(), math.Inf(1))
		}
		return
	}

	if !c.source.IsRunning() {
		return
	}
	src := c.source.CurrentTime()
	if (src-proposed)*rateSign(rate) >= -c.allowableError {
		c.sourceDriven = true
		c.currentTime = c.follow(last, src, math.Inf(1))
	}
}

// follow returns the source time unless it steps backwards from last by no
// more than tolerance, in which case last is held. An infinite tolerance
// holds on any backward step; zero follows every step.
func (c *DecouplingFramedClock) follow(last, src, tolerance float64) float64 {
	back := (last - src) * rateSign(c.Rate())
	if back <= 0 {
		return src
	}
	if back <= tolerance {
		return last
	}
	return src
}
