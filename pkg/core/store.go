package core

import (
	"context"
	"time"
)

// SoftDeleteOptions controls a soft truncate.
type SoftDeleteOptions struct {
	// DeletedColumn is the boolean flag set to TRUE.
	DeletedColumn string
	// SyncedColumn, together with Before, restricts the update to rows synced before the cutoff.
	SyncedColumn string
	Before       *time.Time
}

// Capabilities describes how much type detail a store's catalog keeps.
type Capabilities struct {
	// TextLength is false when STRING byte lengths are accepted but not reported back.
	TextLength bool
}

// CapabilityReporter is implemented by stores that can lose type detail.
// Stores that do not implement it keep everything they are given.
type CapabilityReporter interface {
	Capabilities() Capabilities
}

// Store is the authoritative record of destination table shapes.
//
// Every mutating method returns a *SchemaError wrapping the backing-store
// failure. Multi-step changes run inside InTx; a failure there rolls back
// every statement issued through the Store handed to fn.
type Store interface {
	TableExists(ctx context.Context, schema, table string) (bool, error)
	// DescribeTable returns ErrNotFound when the table does not exist.
	DescribeTable(ctx context.Context, schema, table string) (*Table, error)

	CreateTable(ctx context.Context, schema string, table *Table) error
	DropTable(ctx context.Context, schema, table string) error
	RenameTable(ctx context.Context, schema, from, to string) error
	CopyTable(ctx context.Context, schema, from, to string) error
	TruncateTable(ctx context.Context, schema, table string) error

	AddColumn(ctx context.Context, schema, table string, column Column) error
	DropColumn(ctx context.Context, schema, table, column string) error
	RenameColumn(ctx context.Context, schema, table, from, to string) error
	AlterColumnType(ctx context.Context, schema, table string, column Column) error
	ReplacePrimaryKey(ctx context.Context, schema, table string, keys []string) error

	// CopyRows inserts the named columns of every row of from into to.
	CopyRows(ctx context.Context, schema, from, to string, columns []string) error
	// CopyColumnValues sets column to for every row to the value of column from.
	CopyColumnValues(ctx context.Context, schema, table, from, to string) error
	// UpdateColumnValue sets column to the literal value for every row.
	UpdateColumnValue(ctx context.Context, schema, table, column, value string) error
	SoftDelete(ctx context.Context, schema, table string, opts SoftDeleteOptions) error

	// InTx runs fn in a transaction. Nested calls join the outer transaction.
	InTx(ctx context.Context, fn func(Store) error) error
	Close() error
}
