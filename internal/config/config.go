// Package config loads the tempo runtime configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

const (
	SourceStopwatch = "stopwatch"
	SourceTrack     = "track"
)

// Config is the full runtime configuration.
type Config struct {
	Clock   ClockConfig   `yaml:"clock"`
	Source  SourceConfig  `yaml:"source"`
	Runner  RunnerConfig  `yaml:"runner"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ClockConfig tunes the decoupling clock.
type ClockConfig struct {
	AllowDecoupling bool `yaml:"allow_decoupling"`
	// AllowableErrorMs is the backward drift absorbed while the source
	// drives. Zero selects the clock's default.
	AllowableErrorMs float64 `yaml:"allowable_error_ms"`
	Rate             float64 `yaml:"rate"`
	// LeadInMs starts playback this far before zero.
	LeadInMs  float64 `yaml:"lead_in_ms"`
	Autostart bool    `yaml:"autostart"`
}

// SourceConfig selects the primary time source.
type SourceConfig struct {
	Kind  string `yaml:"kind"` // stopwatch, track
	Track string `yaml:"track"`
}

// RunnerConfig controls the host loop.
type RunnerConfig struct {
	Headless bool   `yaml:"headless"`
	Hz       int    `yaml:"hz"`
	Ticks    uint64 `yaml:"ticks"`
}

// LogConfig controls log level and optional file rotation.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Clock: ClockConfig{
			Rate: 1,
		},
		Source: SourceConfig{
			Kind: SourceStopwatch,
		},
		Runner: RunnerConfig{
			Hz: 60,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// Load reads path, fills unset fields from Default and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func applyDefaults(c *Config) {
	d := Default()
	if c.Clock.Rate == 0 {
		c.Clock.Rate = d.Clock.Rate
	}
	if c.Source.Kind == "" {
		c.Source.Kind = d.Source.Kind
	}
	if c.Runner.Hz == 0 {
		c.Runner.Hz = d.Runner.Hz
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = d.Log.MaxSizeMB
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = d.Log.MaxBackups
	}
}

// Validate reports the first inconsistent field, wrapped in ErrInvalid.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceStopwatch:
	case SourceTrack:
		if c.Source.Track == "" {
			return fmt.Errorf("%w: source.track is required for kind %q", ErrInvalid, SourceTrack)
		}
	default:
		return fmt.Errorf("%w: unknown source.kind %q", ErrInvalid, c.Source.Kind)
	}
	if !finite(c.Clock.Rate) || c.Clock.Rate == 0 {
		return fmt.Errorf("%w: clock.rate must be finite and non-zero", ErrInvalid)
	}
	if !finite(c.Clock.AllowableErrorMs) || c.Clock.AllowableErrorMs < 0 {
		return fmt.Errorf("%w: clock.allowable_error_ms must be finite and not negative", ErrInvalid)
	}
	if !finite(c.Clock.LeadInMs) || c.Clock.LeadInMs < 0 {
		return fmt.Errorf("%w: clock.lead_in_ms must be finite and not negative", ErrInvalid)
	}
	if c.Runner.Hz <= 0 {
		return fmt.Errorf("%w: runner.hz must be positive, got %d", ErrInvalid, c.Runner.Hz)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log.level %q", ErrInvalid, c.Log.Level)
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
