// Package adapter provides the database adapter contract for destination stores.
//
// This package contains the public contract that all database adapters must implement.
// Concrete adapter implementations are in pkg/adapters/ subdirectories and
// register themselves in init().
package adapter

import (
	"context"
	"database/sql"

	"github.com/leapstack-labs/leapdest/pkg/core"
	"github.com/leapstack-labs/leapdest/pkg/dialect"
)

// Config is an alias for core.AdapterConfig.
type Config = core.AdapterConfig

// Adapter is an open connection to a destination database.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Conn returns the database handle, or nil before Connect.
	Conn() *sql.DB

	// Dialect returns the SQL dialect spoken by this adapter.
	Dialect() *dialect.Dialect

	// DialectName returns the dialect name (e.g., "duckdb").
	DialectName() string
}

// ErrorClassifier is implemented by adapters that can recognize driver errors.
// ClassifyError returns err wrapped with a core sentinel (e.g. core.ErrNotFound)
// when it recognizes it, and err unchanged otherwise.
type ErrorClassifier interface {
	ClassifyError(err error) error
}
