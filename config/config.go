// Package config reads FableCore settings from the environment and sets up
// logging.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/pixil98/go-errors"
)

// Save backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config holds every environment setting. Command-line flags override
// some of them after Load.
type Config struct {
	LogLevel    string `env:"FABLE_LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"FABLE_LOG_FORMAT" envDefault:"text"`
	SaveBackend string `env:"FABLE_SAVE_BACKEND" envDefault:"file"`
	SaveDir     string `env:"FABLE_SAVE_DIR"`
	RedisAddr   string `env:"FABLE_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPrefix string `env:"FABLE_REDIS_PREFIX" envDefault:"fablecore"`
	Seed        int64  `env:"FABLE_SEED" envDefault:"0"`
	Wrap        int    `env:"FABLE_WRAP" envDefault:"80"`
}

// Load parses the process environment.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.SaveDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		cfg.SaveDir = filepath.Join(home, ".fablecore", "saves")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	el := errors.NewErrorList()
	if _, err := c.Level(); err != nil {
		el.Add(err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		el.Add(fmt.Errorf("FABLE_LOG_FORMAT %q: want text or json", c.LogFormat))
	}
	switch c.SaveBackend {
	case BackendFile, BackendRedis:
	default:
		el.Add(fmt.Errorf("FABLE_SAVE_BACKEND %q: want %s or %s", c.SaveBackend, BackendFile, BackendRedis))
	}
	if c.Wrap < 0 {
		el.Add(fmt.Errorf("FABLE_WRAP %d: must not be negative", c.Wrap))
	}
	return el.Err()
}

// Level returns the configured slog level.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("FABLE_LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// SetupLogger configures the default slog logger writing to w: a text
// handler for development, JSON when LogFormat is "json".
func SetupLogger(cfg *Config, w io.Writer) *slog.Logger {
	lvl, err := cfg.Level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
