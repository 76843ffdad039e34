//go:build !tinygo

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"tempo/app"
	"tempo/hal"
	"tempo/internal/buildinfo"
	"tempo/internal/config"
	"tempo/internal/logger"
	"tempo/internal/metrics"
)

// cliFlags override the config file. Zero values leave the file's setting.
type cliFlags struct {
	Config      string           `help:"YAML config file." type:"path"`
	Headless    bool             `help:"Run without a window."`
	Hz          int              `help:"Tick rate in headless mode."`
	Ticks       uint64           `help:"Stop after N ticks in headless mode (0 = run forever)."`
	Decouple    bool             `help:"Let the clock run ahead of its source."`
	Track       string           `help:"Use this WAV file as the clock source." type:"path"`
	LeadIn      float64          `name:"lead-in" help:"Start this many milliseconds before zero (implies autostart)."`
	LogLevel    string           `help:"debug, info, warn or error."`
	LogFile     string           `help:"Also write logs to this rotated file." type:"path"`
	MetricsAddr string           `help:"Serve Prometheus metrics on this address."`
	Version     kong.VersionFlag `help:"Print version and exit."`
}

func newParser(c *cliFlags) (*kong.Kong, error) {
	return kong.New(c,
		kong.Name("tempo"),
		kong.Description("Frame clock playground: drives a decoupling clock from a track or stopwatch."),
		kong.Vars{"version": buildinfo.Long()},
	)
}

// resolve loads the config file, if any, and applies the flags on top.
func (c *cliFlags) resolve() (*config.Config, error) {
	cfg := config.Default()
	if c.Config != "" {
		loaded, err := config.Load(c.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.Headless {
		cfg.Runner.Headless = true
	}
	if c.Hz != 0 {
		cfg.Runner.Hz = c.Hz
	}
	if c.Ticks != 0 {
		cfg.Runner.Ticks = c.Ticks
	}
	if c.Decouple {
		cfg.Clock.AllowDecoupling = true
	}
	if c.Track != "" {
		cfg.Source.Kind = config.SourceTrack
		cfg.Source.Track = c.Track
	}
	if c.LeadIn != 0 {
		cfg.Clock.LeadInMs = c.LeadIn
		cfg.Clock.Autostart = true
	}
	if c.LogLevel != "" {
		cfg.Log.Level = c.LogLevel
	}
	if c.LogFile != "" {
		cfg.Log.File = c.LogFile
	}
	if c.MetricsAddr != "" {
		cfg.Metrics.Addr = c.MetricsAddr
	}
	return cfg, cfg.Validate()
}

func main() {
	var flags cliFlags
	parser, err := newParser(&flags)
	if err != nil {
		panic(err)
	}
	_, err = parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	cfg, err := flags.resolve()
	parser.FatalIfErrorf(err)

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	var out io.Writer = os.Stdout
	if cfg.Log.File != "" {
		rot := logger.Rotating(cfg.Log.File, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups)
		defer rot.Close()
		out = io.MultiWriter(os.Stdout, rot)
	}
	opts := hal.HostOptions{LogOutput: out}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rec := metrics.New()
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := rec.Serve(ctx, cfg.Metrics.Addr); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		}()
	}

	var sess *app.Session
	newApp := func(h hal.HAL) (func() error, error) {
		s, err := app.Open(h, app.Config{
			Clock:    cfg.Clock,
			Source:   cfg.Source,
			LogLevel: cfg.Log.Level,
			Metrics:  rec,
		})
		if err != nil {
			return nil, err
		}
		sess = s
		return s.Step, nil
	}

	var err error
	if cfg.Runner.Headless {
		err = hal.RunHeadless(ctx, newApp, hal.HeadlessConfig{
			Enabled: true,
			Hz:      cfg.Runner.Hz,
			Ticks:   cfg.Runner.Ticks,
		}, opts)
	} else {
		err = hal.RunWindow(newApp, opts)
	}
	err = ignoreExit(err)
	if sess != nil {
		err = errors.Join(err, sess.Close())
	}
	return err
}

func ignoreExit(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, app.ErrQuit) {
		return nil
	}
	return err
}
