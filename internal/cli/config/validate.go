package config

import (
	"fmt"
	"slices"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
	outputs    = []string{"auto", "text", "json"}
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.DefaultSchema == "" {
		return fmt.Errorf("default_schema is required")
	}
	if err := ValidateTarget(c.Target); err != nil {
		return fmt.Errorf("invalid target configuration: %w", err)
	}
	if !slices.Contains(logLevels, c.LogLevel) {
		return fmt.Errorf("log_level must be one of %v, got %q", logLevels, c.LogLevel)
	}
	if !slices.Contains(logFormats, c.LogFormat) {
		return fmt.Errorf("log_format must be one of %v, got %q", logFormats, c.LogFormat)
	}
	if !slices.Contains(outputs, c.OutputFormat) {
		return fmt.Errorf("output must be one of %v, got %q", outputs, c.OutputFormat)
	}
	return nil
}
