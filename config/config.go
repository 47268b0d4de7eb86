// Package config holds the host-side settings of the qfund guest runner.
//
// The guest computation itself takes no configuration beyond its input
// bytes; these settings fix the conventions the host and any verifier must
// agree on (leaf index width) and host ergonomics (logging, input limits).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/qfund/qfund/merkle"
	"github.com/qfund/qfund/zkvm"
)

// DefaultMaxInputSize bounds the framed input the runner will read.
const DefaultMaxInputSize = zkvm.DefaultMaxInputSize

// Config is the runner configuration.
type Config struct {
	// IndexWidth is the byte width of the grant index in each Merkle leaf.
	IndexWidth int `yaml:"index_width"`

	// MaxInputSize caps the declared payload length. Zero disables the cap.
	MaxInputSize uint32 `yaml:"max_input_size"`

	Log LogConfig `yaml:"log"`

	// ConfigFile is the path the configuration was loaded from, if any.
	ConfigFile string `yaml:"-"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a Config with the guest's native conventions.
func DefaultConfig() Config {
	return Config{
		IndexWidth:   merkle.DefaultIndexWidth,
		MaxInputSize: DefaultMaxInputSize,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if !merkle.ValidIndexWidth(c.IndexWidth) {
		return fmt.Errorf("config: invalid index_width %d (want 4 or 8)", c.IndexWidth)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	return nil
}

// LoadConfig reads a YAML configuration file on top of the defaults. An
// empty path returns the defaults. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigFile = path
	return cfg, cfg.Validate()
}

// Parse decodes YAML data into cfg, leaving fields absent from data as they
// were.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
