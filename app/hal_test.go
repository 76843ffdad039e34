package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"tempo/hal"
	"tempo/timing/clocktest"
)

type memLogger struct {
	lines []string
}

func (l *memLogger) WriteLineString(s string) { l.lines = append(l.lines, s) }
func (l *memLogger) WriteLineBytes(b []byte)  { l.lines = append(l.lines, string(b)) }

func (l *memLogger) contains(sub string) bool {
	for _, line := range l.lines {
		if strings.Contains(line, sub) {
			return true
		}
	}
	return false
}

type memFramebuffer struct {
	w, h     int
	buf      []byte
	presents int
}

func newMemFramebuffer(w, h int) *memFramebuffer {
	return &memFramebuffer{w: w, h: h, buf: make([]byte, w*h*2)}
}

func (f *memFramebuffer) Width() int              { return f.w }
func (f *memFramebuffer) Height() int             { return f.h }
func (f *memFramebuffer) Format() hal.PixelFormat { return hal.PixelFormatRGB565 }
func (f *memFramebuffer) StrideBytes() int        { return f.w * 2 }
func (f *memFramebuffer) Buffer() []byte          { return f.buf }

func (f *memFramebuffer) Present() error {
	f.presents++
	return nil
}

func (f *memFramebuffer) ClearRGB(r, g, b uint8) {
	px := hal.RGB565(r, g, b)
	for i := 0; i+1 < len(f.buf); i += 2 {
		f.buf[i] = byte(px)
		f.buf[i+1] = byte(px >> 8)
	}
}

func (f *memFramebuffer) pixelsNot(r, g, b uint8) int {
	px := hal.RGB565(r, g, b)
	n := 0
	for i := 0; i+1 < len(f.buf); i += 2 {
		if uint16(f.buf[i])|uint16(f.buf[i+1])<<8 != px {
			n++
		}
	}
	return n
}

type memKeyboard struct {
	ch chan hal.KeyEvent
}

func (k *memKeyboard) Events() <-chan hal.KeyEvent { return k.ch }

type fakeTrack struct {
	*clocktest.RangeClock
	closed bool
	closes int
}

func (t *fakeTrack) Length() float64 { return t.MaxTime }

func (t *fakeTrack) Close() error {
	t.closed = true
	t.closes++
	return nil
}

type fakeAudio struct {
	track *fakeTrack
	err   error
}

func (a *fakeAudio) OpenTrack(path string) (hal.Track, error) {
	if a.err != nil {
		return nil, fmt.Errorf("open track %s: %w", path, a.err)
	}
	return a.track, nil
}

type fakeTime struct {
	wall clockwork.Clock
}

func (t fakeTime) Clock() clockwork.Clock { return t.wall }
func (t fakeTime) Frame() uint64          { return 0 }

type fakeHAL struct {
	log  *memLogger
	fb   *memFramebuffer
	kbd  *memKeyboard
	wall interface {
		clockwork.Clock
		Advance(time.Duration)
	}
	aud *fakeAudio
}

func newFakeHAL() *fakeHAL {
	track := &fakeTrack{RangeClock: clocktest.NewRangeClock()}
	track.MaxTime = 180000
	return &fakeHAL{
		log:  &memLogger{},
		fb:   newMemFramebuffer(160, 120),
		kbd:  &memKeyboard{ch: make(chan hal.KeyEvent, 16)},
		wall: clockwork.NewFakeClock(),
		aud:  &fakeAudio{track: track},
	}
}

func (h *fakeHAL) Logger() hal.Logger   { return h.log }
func (h *fakeHAL) Display() hal.Display { return h }
func (h *fakeHAL) Input() hal.Input     { return h }
func (h *fakeHAL) Time() hal.Time       { return fakeTime{wall: h.wall} }
func (h *fakeHAL) Audio() hal.Audio     { return h.aud }

func (h *fakeHAL) Framebuffer() hal.Framebuffer { return h.fb }
func (h *fakeHAL) Keyboard() hal.Keyboard       { return h.kbd }

func (h *fakeHAL) press(code hal.KeyCode) { h.kbd.ch <- hal.KeyEvent{Code: code, Press: true} }
func (h *fakeHAL) typeRune(r rune)        { h.kbd.ch <- hal.KeyEvent{Press: true, Rune: r} }
