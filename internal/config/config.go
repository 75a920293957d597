// Package config resolves runtime configuration.
//
// Precedence, lowest to highest: built-in defaults, the optional YAML file,
// STUDYGATE_* environment variables. Command-line flags are applied on top
// by the CLI. The result is validated before it is returned.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/roach88/studygate/internal/schema"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "STUDYGATE_"

// Config is the resolved runtime configuration.
type Config struct {
	// DB is the SQLite database path.
	DB string `yaml:"db" env:"DB"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
	// MetricsTextfile, when set, receives a metrics snapshot after each command.
	MetricsTextfile string `yaml:"metrics_textfile" env:"METRICS_TEXTFILE"`
	// Mastery holds the tracing and gating parameters.
	Mastery schema.MasteryConfig `yaml:"mastery" envPrefix:"MASTERY_"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DB:       "studygate.db",
		LogLevel: "info",
		Mastery:  schema.DefaultMasteryConfig(),
	}
}

// Load resolves configuration from defaults, the YAML file at path (skipped
// when path is empty) and the process environment.
func Load(path string) (Config, error) {
	return load(path, env.ToMap(os.Environ()))
}

func load(path string, environ map[string]string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	// Fields whose variable is unset keep their current value.
	if err := env.ParseWithOptions(&cfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func overlayFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks every field.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DB) == "" {
		return fmt.Errorf("invalid config: db must not be empty")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Mastery.Check(); err != nil {
		return err
	}
	return nil
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return 0, fmt.Errorf("log_level %q must be one of debug, info, warn, error", name)
	}
	return level, nil
}
