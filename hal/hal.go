package hal

import (
	"errors"

	"github.com/jonboulle/clockwork"

	"tempo/timing"
)

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

var ErrNotImplemented = errors.New("not implemented")

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Framebuffer is a simple pixel buffer plus a "present" hook.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
}

// KeyCode is a minimal key identifier.
type KeyCode uint16

const (
	KeyUnknown KeyCode = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyTab
	KeyHome
	KeyEscape
)

// KeyEvent is a keyboard event. Text input arrives with Code KeyUnknown and
// a non-zero Rune.
type KeyEvent struct {
	Code  KeyCode
	Press bool
	Rune  rune
}

// Keyboard provides key events (best-effort on each platform).
type Keyboard interface {
	Events() <-chan KeyEvent
}

// Display provides access to the framebuffer (if available).
type Display interface {
	Framebuffer() Framebuffer
}

// Input provides access to input devices (if available).
type Input interface {
	Keyboard() Keyboard
}

// Time provides the wall clock and the number of frames driven so far.
//
// Frame advances once per runner tick, before the app step runs.
type Time interface {
	Clock() clockwork.Clock
	Frame() uint64
}

// Track is a playable audio track exposed as an adjustable clock. Positions
// are milliseconds in [0, Length()].
type Track interface {
	timing.AdjustableClock
	Length() float64
	Close() error
}

// Audio opens playback tracks.
type Audio interface {
	OpenTrack(path string) (Track, error)
}

// HAL provides the only contact point between the app and the outside world.
type HAL interface {
	Logger() Logger
	Display() Display
	Input() Input
	Time() Time
	Audio() Audio
}
