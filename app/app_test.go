package app

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempo/hal"
	"tempo/internal/config"
	"tempo/internal/metrics"
	"tempo/timing"
)

func newTestSession(t *testing.T, h *fakeHAL, cfg Config) *session {
	t.Helper()
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	s, err := newSession(h, cfg)
	require.NoError(t, err)
	return s
}

func TestStopwatchSessionPlaysOnSpace(t *testing.T) {
	h := newFakeHAL()
	s := newTestSession(t, h, Config{Source: config.SourceConfig{Kind: config.SourceStopwatch}})

	require.NoError(t, s.step())
	assert.False(t, s.clock.IsRunning())

	h.typeRune(' ')
	require.NoError(t, s.step())
	assert.Equal(t, timing.StateCoupled, s.clock.State())

	h.wall.Advance(100 * time.Millisecond)
	require.NoError(t, s.step())
	assert.InDelta(t, 100, s.clock.CurrentTime(), 1e-9)
	assert.True(t, h.log.contains("clock stopped -> coupled"))
}

func TestAutostartLeadInHandsOffToTrack(t *testing.T) {
	h := newFakeHAL()
	rec := metrics.New()
	s := newTestSession(t, h, Config{
		Clock: config.ClockConfig{
			AllowDecoupling: true,
			LeadInMs:        1500,
			Autostart:       true,
			Rate:            1,
		},
		Source:  config.SourceConfig{Kind: config.SourceTrack, Track: "song.wav"},
		Metrics: rec,
	})

	require.NoError(t, s.step())
	assert.Equal(t, timing.StateVirtual, s.clock.State())
	assert.Equal(t, -1500.0, s.clock.CurrentTime())
	assert.False(t, h.aud.track.IsRunning())

	h.wall.Advance(1600 * time.Millisecond)
	require.NoError(t, s.step())
	assert.Equal(t, timing.StateSourceDriven, s.clock.State())
	assert.True(t, h.aud.track.IsRunning())
	assert.InDelta(t, 100, s.clock.CurrentTime(), 1e-9)
	assert.True(t, h.log.contains("clock virtual -> source"))

	reg := rec.Registry()
	n, err := testutil.GatherAndCount(reg, "tempo_clock_transitions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "virtual->source; the first frame has no predecessor")
}

func TestCoupledSeekBeforeZeroIsRejected(t *testing.T) {
	h := newFakeHAL()
	s := newTestSession(t, h, Config{Source: config.SourceConfig{Kind: config.SourceTrack, Track: "song.wav"}})

	h.press(hal.KeyLeft)
	require.NoError(t, s.step())
	assert.Equal(t, 0.0, s.clock.CurrentTime())
	assert.True(t, h.log.contains("[WARN] seek to -1000.0ms rejected by track"))

	h.press(hal.KeyRight)
	require.NoError(t, s.step())
	assert.Equal(t, 1000.0, s.clock.CurrentTime())
	assert.Equal(t, 1000.0, h.aud.track.CurrentTime())
}

func TestSwapSourceTransfersTime(t *testing.T) {
	h := newFakeHAL()
	rec := metrics.New()
	s := newTestSession(t, h, Config{Source: config.SourceConfig{Kind: config.SourceTrack, Track: "song.wav"}, Metrics: rec})

	h.aud.track.SetTime(4200)
	h.aud.track.Start()
	require.NoError(t, s.step())
	require.Equal(t, 4200.0, s.clock.CurrentTime())

	h.press(hal.KeyTab)
	require.NoError(t, s.step())
	assert.Equal(t, config.SourceStopwatch, s.sources[s.active].name)
	assert.Equal(t, 4200.0, s.clock.CurrentTime())
	assert.True(t, s.clock.Source().IsRunning())
	assert.True(t, h.log.contains("source -> stopwatch (pushed)"))
	assert.True(t, h.aud.track.IsRunning(), "previous source is left alone")

	h.wall.Advance(50 * time.Millisecond)
	require.NoError(t, s.step())
	assert.InDelta(t, 4250, s.clock.CurrentTime(), 1e-9)
}

func TestRateAndDecouplingCommands(t *testing.T) {
	h := newFakeHAL()
	s := newTestSession(t, h, Config{Source: config.SourceConfig{Kind: config.SourceStopwatch}})

	h.typeRune('+')
	h.typeRune('r')
	h.typeRune('d')
	require.NoError(t, s.step())
	assert.Equal(t, -2.0, s.clock.Rate())
	assert.True(t, s.clock.AllowDecoupling())

	h.press(hal.KeyDown)
	require.NoError(t, s.step())
	assert.Equal(t, -1.0, s.clock.Rate())
}

func TestTrackFallsBackWithoutAudio(t *testing.T) {
	h := newFakeHAL()
	h.aud.err = hal.ErrNotImplemented
	s := newTestSession(t, h, Config{Source: config.SourceConfig{Kind: config.SourceTrack, Track: "song.wav"}})
	assert.Equal(t, config.SourceStopwatch, s.sources[0].name)
	assert.True(t, h.log.contains("using stopwatch"))
}

func TestQuitClosesTrack(t *testing.T) {
	h := newFakeHAL()
	step, err := NewWithConfig(h, Config{Source: config.SourceConfig{Kind: config.SourceTrack, Track: "song.wav"}})
	require.NoError(t, err)

	h.press(hal.KeyEscape)
	assert.ErrorIs(t, step(), ErrQuit)
	assert.True(t, h.aud.track.closed)
}

func TestSessionCloseReleasesTrackOnce(t *testing.T) {
	h := newFakeHAL()
	sess, err := Open(h, Config{Source: config.SourceConfig{Kind: config.SourceTrack, Track: "song.wav"}})
	require.NoError(t, err)

	require.NoError(t, sess.Step())
	assert.False(t, h.aud.track.closed)

	require.NoError(t, sess.Close())
	require.NoError(t, sess.Close())
	assert.Equal(t, 1, h.aud.track.closes)
}

func TestSessionCloseAfterQuitIsNoop(t *testing.T) {
	h := newFakeHAL()
	sess, err := Open(h, Config{Source: config.SourceConfig{Kind: config.SourceTrack, Track: "song.wav"}})
	require.NoError(t, err)

	h.press(hal.KeyEscape)
	assert.ErrorIs(t, sess.Step(), ErrQuit)
	require.NoError(t, sess.Close())
	assert.Equal(t, 1, h.aud.track.closes)
}

func TestHUDDrawsEveryFrame(t *testing.T) {
	h := newFakeHAL()
	step, err := New(h)
	require.NoError(t, err)

	require.NoError(t, step())
	require.NoError(t, step())
	assert.Equal(t, 2, h.fb.presents)
	assert.Positive(t, h.fb.pixelsNot(0x10, 0x10, 0x18), "text pixels drawn")
}

func TestCommandFor(t *testing.T) {
	assert.Equal(t, cmdNone, commandFor(hal.KeyEvent{Code: hal.KeyLeft}))
	assert.Equal(t, cmdSeekBack, commandFor(hal.KeyEvent{Code: hal.KeyLeft, Press: true}))
	assert.Equal(t, cmdSeekHome, commandFor(hal.KeyEvent{Code: hal.KeyHome, Press: true}))
	assert.Equal(t, cmdToggleRun, commandFor(hal.KeyEvent{Press: true, Rune: ' '}))
	assert.Equal(t, cmdQuit, commandFor(hal.KeyEvent{Press: true, Rune: 'q'}))
	assert.Equal(t, cmdNone, commandFor(hal.KeyEvent{Press: true, Rune: 'x'}))
}

func TestTakeRunes(t *testing.T) {
	assert.Equal(t, "abc", takeRunes("abcdef", 3))
	assert.Equal(t, "ab", takeRunes("ab", 3))
	assert.Equal(t, "", takeRunes("ab", 0))
	assert.Equal(t, "ää", takeRunes("äää", 2))
}
