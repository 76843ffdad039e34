package app

import (
	"errors"
	"fmt"

	"tempo/hal"
	"tempo/internal/buildinfo"
	"tempo/internal/config"
	"tempo/internal/logger"
	"tempo/internal/metrics"
	"tempo/timing"
)

// ErrQuit is returned by the step function when the user asks to exit.
var ErrQuit = errors.New("quit requested")

const seekStepMs = 1000

// Config selects the clock mode and primary source for a session.
type Config struct {
	Clock    config.ClockConfig
	Source   config.SourceConfig
	LogLevel string
	// Metrics receives per-frame samples. Nil creates a private recorder.
	Metrics *metrics.Recorder
}

// New builds a session with the default configuration.
func New(h hal.HAL) (func() error, error) {
	d := config.Default()
	return NewWithConfig(h, Config{Clock: d.Clock, Source: d.Source, LogLevel: d.Log.Level})
}

// NewWithConfig builds a playback session and returns its per-tick step
// function. The step must be called from a single goroutine.
func NewWithConfig(h hal.HAL, cfg Config) (func() error, error) {
	s, err := newSession(h, cfg)
	if err != nil {
		return nil, err
	}
	return s.step, nil
}

type session struct {
	h   hal.HAL
	cfg Config
	log *logger.Logger
	rec *metrics.Recorder
	hud *hud

	clock   *timing.DecouplingFramedClock
	sources [2]namedSource
	active  int

	booted    bool
	closed    bool
	lastState timing.State
}

// Session is a playback session whose sources outlive the step loop. Close
// must be called once the runner returns.
type Session struct {
	s *session
}

// Open builds a session like NewWithConfig but also hands back ownership of
// its sources.
func Open(h hal.HAL, cfg Config) (*Session, error) {
	s, err := newSession(h, cfg)
	if err != nil {
		return nil, err
	}
	return &Session{s: s}, nil
}

// Step advances the session by one tick.
func (s *Session) Step() error { return s.s.step() }

// Close releases the session's sources. It is safe to call after the quit
// command has already released them.
func (s *Session) Close() error { return s.s.closeSources() }

func newSession(h hal.HAL, cfg Config) (*session, error) {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	if cfg.Clock.Rate == 0 {
		cfg.Clock.Rate = 1
	}
	wall := h.Time().Clock()

	s := &session{
		h:   h,
		cfg: cfg,
		log: logger.New(h.Logger(), logger.ParseLevel(cfg.LogLevel), wall),
		rec: cfg.Metrics,
		hud: newHUD(h.Display()),
	}

	primary, err := openSource(h, cfg.Source, wall, s.log)
	if err != nil {
		return nil, err
	}
	s.sources[0] = primary
	s.sources[1] = namedSource{name: config.SourceStopwatch, clock: timing.NewStopwatchClock(wall)}

	opts := []timing.DecouplingOption{
		timing.WithWallClock(wall),
		timing.WithDecoupling(cfg.Clock.AllowDecoupling),
	}
	if cfg.Clock.AllowableErrorMs > 0 {
		opts = append(opts, timing.WithAllowableError(cfg.Clock.AllowableErrorMs))
	}
	s.clock = timing.NewDecouplingFramedClock(opts...)
	s.clock.ChangeSource(primary.clock)
	s.clock.SetRate(cfg.Clock.Rate)
	s.lastState = s.clock.State()

	s.log.Infof("tempo %s: source=%s decoupling=%t allowable_error=%.2fms",
		buildinfo.Short(), primary.name, s.clock.AllowDecoupling(), s.clock.AllowableError())
	return s, nil
}

func (s *session) step() error {
	if !s.booted {
		s.boot()
	}
	if err := s.drainInput(); err != nil {
		return err
	}

	s.clock.ProcessFrame()

	state := s.clock.State()
	if state != s.lastState {
		s.log.Infof("clock %s -> %s at %.1fms", s.lastState, state, s.clock.CurrentTime())
		s.lastState = state
	}
	s.rec.ObserveFrame(metrics.FrameSample{
		Current:   s.clock.CurrentTime(),
		Elapsed:   s.clock.ElapsedFrameTime(),
		Running:   s.clock.IsRunning(),
		Decoupled: s.clock.AllowDecoupling(),
		State:     state,
	})

	if s.hud != nil {
		if err := s.hud.draw(s.hudLines()); err != nil {
			return fmt.Errorf("draw hud: %w", err)
		}
	}
	return nil
}

func (s *session) boot() {
	s.booted = true
	if !s.cfg.Clock.Autostart {
		return
	}
	if lead := s.cfg.Clock.LeadInMs; lead > 0 {
		s.seek(-lead)
	}
	s.clock.Start()
}

func (s *session) seek(target float64) {
	ok := s.clock.Seek(target)
	s.rec.ObserveSeek(ok)
	if !ok {
		s.log.Warnf("seek to %.1fms rejected by %s", target, s.sources[s.active].name)
		return
	}
	s.log.Debugf("seek to %.1fms", target)
}

func (s *session) swapSource() {
	s.active = 1 - s.active
	next := s.sources[s.active]
	transfer := s.clock.ChangeSource(next.clock)
	s.rec.ObserveSourceChange(transfer)
	s.log.Infof("source -> %s (%s) at %.1fms", next.name, transfer, s.clock.CurrentTime())
}

func (s *session) hudLines() []string {
	return []string{
		"tempo " + buildinfo.Short(),
		fmt.Sprintf("time   %10.1f ms", s.clock.CurrentTime()),
		fmt.Sprintf("state  %s", s.clock.State()),
		fmt.Sprintf("mode   %s", modeName(s.clock.AllowDecoupling())),
		fmt.Sprintf("rate   %.2f", s.clock.Rate()),
		fmt.Sprintf("fps    %.1f", s.clock.FramesPerSecond()),
		fmt.Sprintf("source %s", s.sources[s.active].name),
		"",
		"spc play  <- -> seek  home",
		"d decouple  tab source",
		"+ - rate  r reverse  esc",
	}
}

func modeName(decoupled bool) string {
	if decoupled {
		return "decoupled"
	}
	return "coupled"
}
