//go:build !tinygo && cgo

package hal

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

const (
	hostSampleRate = 44100
	// Decoded streams are 16-bit stereo.
	hostBytesPerFrame = 4
)

// hostAudio plays WAV tracks through Ebiten's audio package.
type hostAudio struct {
	mu sync.Mutex
}

func newHostAudio() *hostAudio {
	return &hostAudio{}
}

// context returns the process-wide audio context; Ebiten allows only one.
func (a *hostAudio) context() *audio.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	if ctx := audio.CurrentContext(); ctx != nil {
		return ctx
	}
	return audio.NewContext(hostSampleRate)
}

func (a *hostAudio) OpenTrack(path string) (Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open track: %w", err)
	}

	ctx := a.context()
	stream, err := wav.DecodeWithSampleRate(ctx.SampleRate(), f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode track %s: %w", path, err)
	}
	p, err := ctx.NewPlayer(stream)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open player for %s: %w", path, err)
	}
	p.SetBufferSize(100 * time.Millisecond)

	bytesPerMs := float64(ctx.SampleRate()*hostBytesPerFrame) / 1000
	return &hostTrack{
		f:      f,
		player: p,
		length: float64(stream.Length()) / bytesPerMs,
	}, nil
}

// hostTrack is a Track backed by an audio.Player. Playback rate is fixed at
// 1; the player has no resampling.
type hostTrack struct {
	f      *os.File
	player *audio.Player
	length float64
}

func (t *hostTrack) CurrentTime() float64 {
	return float64(t.player.Position()) / float64(time.Millisecond)
}

func (t *hostTrack) Rate() float64   { return 1 }
func (t *hostTrack) SetRate(float64) {}
func (t *hostTrack) IsRunning() bool { return t.player.IsPlaying() }
func (t *hostTrack) Length() float64 { return t.length }
func (t *hostTrack) Start()          { t.player.Play() }
func (t *hostTrack) Stop()           { t.player.Pause() }

func (t *hostTrack) Reset() {
	t.player.Pause()
	_ = t.player.SetPosition(0)
}

func (t *hostTrack) Seek(position float64) bool {
	if !(position >= 0 && position <= t.length) {
		return false
	}
	return t.player.SetPosition(time.Duration(position*float64(time.Millisecond))) == nil
}

func (t *hostTrack) Close() error {
	return errors.Join(t.player.Close(), t.f.Close())
}
