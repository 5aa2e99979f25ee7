// Package config loads leapdest CLI configuration from defaults,
// leapdest.yaml, LEAPDEST_ environment variables and flags.
package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdest/pkg/adapter"
	"github.com/leapstack-labs/leapdest/pkg/core"
	"github.com/leapstack-labs/leapdest/pkg/metastore"
)

// TargetConfig is an alias for the shared target configuration.
type TargetConfig = core.TargetConfig

// Config holds all CLI configuration options.
type Config struct {
	DefaultSchema   string        `koanf:"default_schema"`
	Target          *TargetConfig `koanf:"target"`
	JournalPath     string        `koanf:"journal_path"`
	MetricsTextfile string        `koanf:"metrics_textfile"`
	LogLevel        string        `koanf:"log_level"`
	LogFormat       string        `koanf:"log_format"`
	OutputFormat    string        `koanf:"output"`
	Verbose         bool          `koanf:"verbose"`
}

// Default configuration values.
const (
	DefaultTargetType  = "duckdb"
	DefaultDatabase    = "destination.db"
	DefaultJournalFile = ".leapdest/journal.db"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultOutput      = "auto" // TTY=text, otherwise JSON
)

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		DefaultSchema: core.DefaultSchema,
		Target:        &TargetConfig{Type: DefaultTargetType, Database: DefaultDatabase},
		JournalPath:   DefaultJournalFile,
		LogLevel:      DefaultLogLevel,
		LogFormat:     DefaultLogFormat,
		OutputFormat:  DefaultOutput,
	}
}

// ValidateTarget checks the target type against the adapter registry.
// The in-memory store needs no adapter.
func ValidateTarget(t *TargetConfig) error {
	if t == nil || t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	typ := strings.ToLower(t.Type)
	if typ == metastore.MemoryType {
		return nil
	}
	if !adapter.IsRegistered(typ) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: append(adapter.ListAdapters(), metastore.MemoryType),
		}
	}
	return nil
}

// ApplyTargetDefaults fills type-specific defaults.
func ApplyTargetDefaults(t *TargetConfig) {
	if t == nil {
		return
	}
	t.Type = strings.ToLower(t.Type)
	if t.Type == "postgres" && t.Port == 0 {
		t.Port = 5432
	}
}
