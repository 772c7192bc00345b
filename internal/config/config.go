// Package config handles smf command configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"

	"github.com/Faultbox/smf/pkg/smf"
)

// Config holds all command settings.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Output  OutputConfig  `yaml:"output"`
	Filters FiltersConfig `yaml:"filters"`
	Convert ConvertConfig `yaml:"convert"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// OutputConfig selects the encoding written by convert and filter.
type OutputConfig struct {
	Format     string `yaml:"format"`     // Format name, e.g. smf/b
	Version    string `yaml:"version"`    // Empty selects the newest supported version
	Endianness string `yaml:"endianness"` // Byte order for numeric data; empty keeps the input's
}

// FiltersConfig holds filter defaults.
type FiltersConfig struct {
	ValidateTriangles bool `yaml:"validate_triangles"`
}

// ConvertConfig holds batch conversion settings.
type ConvertConfig struct {
	Jobs int `yaml:"jobs"` // 0 uses one job per CPU
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Output: OutputConfig{
			Format: "smf/b",
		},
		Filters: FiltersConfig{
			ValidateTriangles: true,
		},
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs error
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if c.Output.Format == "" {
		errs = multierr.Append(errs, errors.New("output.format: must not be empty"))
	}
	if c.Output.Version != "" {
		if _, err := smf.ParseFormatVersion(c.Output.Version); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("output.version: %w", err))
		}
	}
	if c.Output.Endianness != "" {
		if _, err := smf.ParseByteOrder(c.Output.Endianness); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("output.endianness: %w", err))
		}
	}
	if c.Convert.Jobs < 0 {
		errs = multierr.Append(errs, fmt.Errorf("convert.jobs: must not be negative, got %d", c.Convert.Jobs))
	}
	return errs
}
