// Package duckdb provides a DuckDB database adapter for destination stores.
package duckdb

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapdest/pkg/adapter"
	duckdbdialect "github.com/leapstack-labs/leapdest/pkg/adapters/duckdb/dialect"
	"github.com/leapstack-labs/leapdest/pkg/dialect"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

var settingName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
	params *Params
}

// New creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
		params:         &Params{},
	}
}

// DialectName returns the SQL dialect for this adapter.
func (a *Adapter) DialectName() string {
	return "duckdb"
}

// Dialect returns the DuckDB dialect.
func (a *Adapter) Dialect() *dialect.Dialect {
	return duckdbdialect.DuckDB
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" (or an empty path) for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := parseParams(cfg.Params)
	if err != nil {
		return err
	}

	path := cfg.Path
	if path == "" {
		path = MemoryPath
	}

	a.Logger.Debug("opening duckdb", slog.String("path", path))
	if err := a.Open(ctx, "duckdb", path, cfg); err != nil {
		return err
	}
	a.params = params

	for _, ext := range params.Extensions {
		if !settingName.MatchString(ext) {
			_ = a.BaseSQLAdapter.Close()
			return fmt.Errorf("invalid duckdb extension name %q", ext)
		}
		if err := a.Exec(ctx, fmt.Sprintf("INSTALL %s; LOAD %s", ext, ext)); err != nil {
			_ = a.BaseSQLAdapter.Close()
			return fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
	}

	// Apply settings in a stable order so failures are reproducible.
	names := make([]string, 0, len(params.Settings))
	for name := range params.Settings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !settingName.MatchString(name) {
			_ = a.BaseSQLAdapter.Close()
			return fmt.Errorf("invalid duckdb setting name %q", name)
		}
		value := strings.ReplaceAll(params.Settings[name], "'", "''")
		if err := a.Exec(ctx, fmt.Sprintf("SET %s = '%s'", name, value)); err != nil {
			_ = a.BaseSQLAdapter.Close()
			return fmt.Errorf("failed to apply setting %s: %w", name, err)
		}
	}

	return nil
}

// Close checkpoints the database (unless disabled) and closes the connection.
func (a *Adapter) Close() error {
	if a.DB == nil {
		return nil
	}
	if a.params.checkpointOnClose() {
		if err := a.Exec(context.Background(), "CHECKPOINT"); err != nil {
			a.Logger.Warn("checkpoint before close failed", slog.String("error", err.Error()))
		}
	}
	return a.BaseSQLAdapter.Close()
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
