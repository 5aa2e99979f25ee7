package metastore

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/leapstack-labs/leapdest/pkg/core"
)

type tableKey struct {
	schema string
	table  string
}

// InMemoryStore keeps table shapes in memory. Data operations only check
// that their targets exist.
type InMemoryStore struct {
	mu      sync.Mutex
	tables  map[tableKey]*core.Table
	schemas map[string]struct{}
	inTx    bool
	logger  *slog.Logger
}

// NewInMemoryStore creates an empty store. If logger is nil, a discard logger is used.
func NewInMemoryStore(logger *slog.Logger) *InMemoryStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &InMemoryStore{
		tables:  make(map[tableKey]*core.Table),
		schemas: make(map[string]struct{}),
		logger:  logger,
	}
}

func errTableExists(schema, table string) error {
	return fmt.Errorf("table %q.%q already exists", schema, table)
}

func errColumnExists(table, column string) error {
	return fmt.Errorf("column %q already exists in table %q", column, table)
}

// lookup returns the stored table. Callers hold s.mu.
func (s *InMemoryStore) lookup(schema, table string) (*core.Table, error) {
	t, ok := s.tables[tableKey{schema, table}]
	if !ok {
		return nil, core.NotFoundError(schema, table, "")
	}
	return t, nil
}

func (s *InMemoryStore) column(schema string, t *core.Table, name string) (int, error) {
	i := slices.IndexFunc(t.Columns, func(c core.Column) bool { return c.Name == name })
	if i < 0 {
		return -1, core.NotFoundError(schema, t.Name, name)
	}
	return i, nil
}

func checkType(c core.Column) error {
	if !c.Type.IsSupported() {
		return fmt.Errorf("column %q: %w: %s", c.Name, core.ErrUnsupportedType, c.Type)
	}
	return nil
}

// TableExists reports whether the table is mirrored.
func (s *InMemoryStore) TableExists(_ context.Context, schema, table string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tables[tableKey{schema, table}]
	return ok, nil
}

// DescribeTable returns a copy of the mirrored table.
func (s *InMemoryStore) DescribeTable(_ context.Context, schema, table string) (*core.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.lookup(schema, table)
	if err != nil {
		return nil, err
	}
	return t.Clone(), nil
}

// CreateTable stores a copy of table, creating the schema on first use.
func (s *InMemoryStore) CreateTable(_ context.Context, schema string, table *core.Table) error {
	if err := table.Validate(); err != nil {
		return core.NewSchemaError("create table", schema, "", err)
	}
	for _, c := range table.Columns {
		if err := checkType(c); err != nil {
			return core.NewSchemaError("create table", schema, table.Name, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := tableKey{schema, table.Name}
	if _, ok := s.tables[key]; ok {
		return core.NewSchemaError("create table", schema, table.Name, errTableExists(schema, table.Name))
	}
	s.schemas[schema] = struct{}{}
	stored := table.Clone()
	for i := range stored.Columns {
		stored.Columns[i].Params = stored.Columns[i].Params.Normalize(stored.Columns[i].Type)
	}
	s.tables[key] = stored
	return nil
}

// DropTable removes the table. Missing tables are ignored.
func (s *InMemoryStore) DropTable(_ context.Context, schema, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tables, tableKey{schema, table})
	return nil
}

// RenameTable moves a table to a new name within its schema.
func (s *InMemoryStore) RenameTable(_ context.Context, schema, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.lookup(schema, from)
	if err != nil {
		return core.NewSchemaError("rename table", schema, from, err)
	}
	if _, ok := s.tables[tableKey{schema, to}]; ok {
		return core.NewSchemaError("rename table", schema, from, errTableExists(schema, to))
	}
	delete(s.tables, tableKey{schema, from})
	t.Name = to
	s.tables[tableKey{schema, to}] = t
	return nil
}

// CopyTable duplicates a table's shape under a new name.
func (s *InMemoryStore) CopyTable(_ context.Context, schema, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.lookup(schema, from)
	if err != nil {
		return core.NewSchemaError("copy table", schema, from, err)
	}
	if _, ok := s.tables[tableKey{schema, to}]; ok {
		return core.NewSchemaError("copy table", schema, from, errTableExists(schema, to))
	}
	// CREATE TABLE AS SELECT does not carry constraints.
	cp := t.Clone()
	cp.Name = to
	for i := range cp.Columns {
		cp.Columns[i].PrimaryKey = false
	}
	s.tables[tableKey{schema, to}] = cp
	return nil
}

// TruncateTable checks the table exists.
func (s *InMemoryStore) TruncateTable(_ context.Context, schema, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.lookup(schema, table); err != nil {
		return core.NewSchemaError("truncate table", schema, table, err)
	}
	return nil
}

// AddColumn appends a column. The primary key flag is ignored; use ReplacePrimaryKey.
func (s *InMemoryStore) AddColumn(_ context.Context, schema, table string, column core.Column) error {
	if column.Name == "" {
		return core.NewSchemaError("add column", schema, table, fmt.Errorf("%w: column name is required", core.ErrInvalidIdentifier))
	}
	if err := checkType(column); err != nil {
		return core.NewSchemaError("add column", schema, table, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.lookup(schema, table)
	if err != nil {
		return core.NewSchemaError("add column", schema, table, err)
	}
	if t.HasColumn(column.Name) {
		return core.NewSchemaError("add column", schema, table, errColumnExists(table, column.Name))
	}
	column.Params = column.Params.Normalize(column.Type)
	column.PrimaryKey = false
	t.Columns = append(t.Columns, column)
	return nil
}

// DropColumn removes a column.
func (s *InMemoryStore) DropColumn(_ context.Context, schema, table, column string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.lookup(schema, table)
	if err != nil {
		return core.NewSchemaError("drop column", schema, table, err)
	}
	i, err := s.column(schema, t, column)
	if err != nil {
		return core.NewSchemaError("drop column", schema, table, err)
	}
	t.Columns = slices.Delete(t.Columns, i, i+1)
	return nil
}

// RenameColumn renames a column in place.
func (s *InMemoryStore) RenameColumn(_ context.Context, schema, table, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.lookup(schema, table)
	if err != nil {
		return core.NewSchemaError("rename column", schema, table, err)
	}
	i, err := s.column(schema, t, from)
	if err != nil {
		return core.NewSchemaError("rename column", schema, table, err)
	}
	if t.HasColumn(to) {
		return core.NewSchemaError("rename column", schema, table, errColumnExists(table, to))
	}
	t.Columns[i].Name = to
	return nil
}

// AlterColumnType replaces a column's type and params, keeping its key flag.
func (s *InMemoryStore) AlterColumnType(_ context.Context, schema, table string, column core.Column) error {
	if err := checkType(column); err != nil {
		return core.NewSchemaError("alter column type", schema, table, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.lookup(schema, table)
	if err != nil {
		return core.NewSchemaError("alter column type", schema, table, err)
	}
	i, err := s.column(schema, t, column.Name)
	if err != nil {
		return core.NewSchemaError("alter column type", schema, table, err)
	}
	t.Columns[i].Type = column.Type
	t.Columns[i].Params = column.Params.Normalize(column.Type)
	return nil
}

// ReplacePrimaryKey sets the key flags to exactly keys.
func (s *InMemoryStore) ReplacePrimaryKey(_ context.Context, schema, table string, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.lookup(schema, table)
	if err != nil {
		return core.NewSchemaError("replace primary key", schema, table, err)
	}
	for _, k := range keys {
		if _, err := s.column(schema, t, k); err != nil {
			return core.NewSchemaError("replace primary key", schema, table, err)
		}
	}
	for i := range t.Columns {
		t.Columns[i].PrimaryKey = slices.Contains(keys, t.Columns[i].Name)
	}
	return nil
}

// CopyRows checks both tables carry every named column.
func (s *InMemoryStore) CopyRows(_ context.Context, schema, from, to string, columns []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range []string{from, to} {
		t, err := s.lookup(schema, name)
		if err != nil {
			return core.NewSchemaError("copy rows", schema, name, err)
		}
		for _, c := range columns {
			if _, err := s.column(schema, t, c); err != nil {
				return core.NewSchemaError("copy rows", schema, name, err)
			}
		}
	}
	return nil
}

// CopyColumnValues checks both columns exist.
func (s *InMemoryStore) CopyColumnValues(_ context.Context, schema, table, from, to string) error {
	return s.checkColumns("copy column values", schema, table, from, to)
}

// UpdateColumnValue checks the column exists.
func (s *InMemoryStore) UpdateColumnValue(_ context.Context, schema, table, column, _ string) error {
	return s.checkColumns("update column value", schema, table, column)
}

// SoftDelete checks the flag column, and the synced column when a cutoff is set.
func (s *InMemoryStore) SoftDelete(_ context.Context, schema, table string, opts core.SoftDeleteOptions) error {
	cols := []string{opts.DeletedColumn}
	if opts.SyncedColumn != "" && opts.Before != nil {
		cols = append(cols, opts.SyncedColumn)
	}
	return s.checkColumns("soft delete", schema, table, cols...)
}

func (s *InMemoryStore) checkColumns(op, schema, table string, columns ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.lookup(schema, table)
	if err != nil {
		return core.NewSchemaError(op, schema, table, err)
	}
	for _, c := range columns {
		if _, err := s.column(schema, t, c); err != nil {
			return core.NewSchemaError(op, schema, table, err)
		}
	}
	return nil
}

// InTx runs fn against the store and restores the previous state if fn fails or panics.
// Nested calls join the outer transaction.
func (s *InMemoryStore) InTx(_ context.Context, fn func(core.Store) error) error {
	s.mu.Lock()
	if s.inTx {
		s.mu.Unlock()
		return fn(s)
	}
	s.inTx = true
	tables, schemas := s.snapshot()
	s.mu.Unlock()

	committed := false
	defer func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.inTx = false
		if !committed {
			s.tables = tables
			s.schemas = schemas
			s.logger.Debug("rolled back in-memory transaction")
		}
	}()

	if err := fn(s); err != nil {
		return err
	}
	committed = true
	return nil
}

// snapshot deep-copies the table map and the schema set. Callers hold s.mu.
func (s *InMemoryStore) snapshot() (map[tableKey]*core.Table, map[string]struct{}) {
	tables := make(map[tableKey]*core.Table, len(s.tables))
	for k, t := range s.tables {
		tables[k] = t.Clone()
	}
	return tables, maps.Clone(s.schemas)
}

// Schemas lists the schemas created so far, sorted.
func (s *InMemoryStore) Schemas() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.schemas))
}

// Close drops every mirrored table and schema.
func (s *InMemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = make(map[tableKey]*core.Table)
	s.schemas = make(map[string]struct{})
	return nil
}

var _ core.Store = (*InMemoryStore)(nil)
