package app

import (
	"errors"
	"fmt"
	"io"

	"github.com/jonboulle/clockwork"

	"tempo/hal"
	"tempo/internal/config"
	"tempo/internal/logger"
	"tempo/timing"
)

type namedSource struct {
	name  string
	clock timing.Clock
}

// openSource builds the configured primary source. A track on a platform
// without audio falls back to a stopwatch.
func openSource(h hal.HAL, sc config.SourceConfig, wall clockwork.Clock, log *logger.Logger) (namedSource, error) {
	switch sc.Kind {
	case config.SourceTrack:
		aud := h.Audio()
		if aud == nil {
			log.Warnf("no audio device, using stopwatch instead of %s", sc.Track)
			break
		}
		tr, err := aud.OpenTrack(sc.Track)
		if errors.Is(err, hal.ErrNotImplemented) {
			log.Warnf("%v, using stopwatch", err)
			break
		}
		if err != nil {
			return namedSource{}, err
		}
		log.Infof("track %s: %.1fms", sc.Track, tr.Length())
		return namedSource{name: config.SourceTrack, clock: tr}, nil
	case config.SourceStopwatch, "":
	default:
		return namedSource{}, fmt.Errorf("unknown source kind %q", sc.Kind)
	}
	return namedSource{name: config.SourceStopwatch, clock: timing.NewStopwatchClock(wall)}, nil
}

// closeSources releases every closable source once. Later calls return nil.
func (s *session) closeSources() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for _, src := range s.sources {
		c, ok := src.clock.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			s.log.Errorf("close %s: %v", src.name, err)
			errs = append(errs, fmt.Errorf("close %s: %w", src.name, err))
		}
	}
	return errors.Join(errs...)
}
