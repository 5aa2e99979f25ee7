package duckdb

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds DuckDB-specific configuration.
// Parsed from adapter.Config.Params using mapstructure.
type Params struct {
	// Extensions to install and load (e.g., "json", "icu")
	Extensions []string `mapstructure:"extensions"`

	// Settings to apply after connecting (e.g., memory_limit, threads)
	Settings map[string]string `mapstructure:"settings"`

	// CheckpointOnClose flushes the WAL into the database file on Close. Defaults to true.
	CheckpointOnClose *bool `mapstructure:"checkpoint_on_close"`
}

// checkpointOnClose reports whether Close should run CHECKPOINT.
func (p *Params) checkpointOnClose() bool {
	return p.CheckpointOnClose == nil || *p.CheckpointOnClose
}

// parseParams decodes raw target params. Scalar settings are converted to strings.
func parseParams(raw map[string]any) (*Params, error) {
	params := &Params{}
	if len(raw) == 0 {
		return params, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           params,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create params decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid duckdb params: %w", err)
	}
	return params, nil
}
