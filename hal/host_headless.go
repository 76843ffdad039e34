//go:build !tinygo

package hal

import (
	"context"
	"fmt"
	"time"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Enabled bool
	Hz      int
	Ticks   uint64
}

// AppFactory builds the per-tick step function for a HAL.
type AppFactory func(HAL) (func() error, error)

// RunHeadless drives the app from a ticker without opening a window. It
// returns nil after cfg.Ticks steps, or ctx.Err() on cancellation.
func RunHeadless(ctx context.Context, newApp AppFactory, cfg HeadlessConfig, opts HostOptions) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}

	h := newHost(opts)
	step, err := newApp(h)
	if err != nil {
		return err
	}

	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}
	t := time.NewTicker(d)
	defer t.Stop()

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			h.t.step(1)
			if step != nil {
				if err := step(); err != nil {
					return err
				}
			}
			tick++
			if cfg.Ticks > 0 && tick >= cfg.Ticks {
				return nil
			}
		}
	}
}
