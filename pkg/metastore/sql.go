package metastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/leapstack-labs/leapdest/pkg/adapter"
	"github.com/leapstack-labs/leapdest/pkg/core"
	"github.com/leapstack-labs/leapdest/pkg/ddl"
	"github.com/leapstack-labs/leapdest/pkg/dialect"
)

// rebuildSuffix names the scratch copy used when a primary key is replaced by rebuilding.
const rebuildSuffix = "__leapdest_rebuild"

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore implements core.Store on a database/sql connection.
type SQLStore struct {
	db       *sql.DB
	conn     queryer
	inTx     bool
	dialect  *dialect.Dialect
	types    *dialect.TypeMapper
	ddl      *ddl.Compiler
	classify func(error) error
	closer   func() error
	logger   *slog.Logger
}

// Option configures an SQLStore.
type Option func(*SQLStore)

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SQLStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithErrorClassifier maps driver errors to core sentinels before they are wrapped.
func WithErrorClassifier(c adapter.ErrorClassifier) Option {
	return func(s *SQLStore) {
		s.classify = c.ClassifyError
	}
}

// WithCloser replaces db.Close as the store's Close behavior.
func WithCloser(fn func() error) Option {
	return func(s *SQLStore) {
		s.closer = fn
	}
}

// NewSQLStore creates a store that speaks d over db.
func NewSQLStore(db *sql.DB, d *dialect.Dialect, opts ...Option) *SQLStore {
	s := &SQLStore{
		db:       db,
		conn:     db,
		dialect:  d,
		classify: func(err error) error { return err },
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.types = dialect.NewTypeMapper(d, s.logger)
	s.ddl = ddl.NewCompiler(d, s.types)
	return s
}

// NewAdapterStore creates a store over a connected adapter. Closing the store closes the adapter.
func NewAdapterStore(a adapter.Adapter, logger *slog.Logger) *SQLStore {
	opts := []Option{WithLogger(logger), WithCloser(a.Close)}
	if c, ok := a.(adapter.ErrorClassifier); ok {
		opts = append(opts, WithErrorClassifier(c))
	}
	return NewSQLStore(a.Conn(), a.Dialect(), opts...)
}

// Dialect returns the dialect statements are rendered in.
func (s *SQLStore) Dialect() *dialect.Dialect {
	return s.dialect
}

// Capabilities reports what the dialect's catalog keeps.
func (s *SQLStore) Capabilities() core.Capabilities {
	return core.Capabilities{TextLength: s.dialect.TextLength}
}

// stmtCtx detaches statements inside a transaction from caller cancellation.
func (s *SQLStore) stmtCtx(ctx context.Context) context.Context {
	if s.inTx {
		return context.WithoutCancel(ctx)
	}
	return ctx
}

func (s *SQLStore) exec(ctx context.Context, op, schema, table, stmt string, args ...any) error {
	s.logger.Debug("executing statement", slog.String("op", op), slog.String("sql", stmt))
	if _, err := s.conn.ExecContext(s.stmtCtx(ctx), stmt, args...); err != nil {
		return core.NewSchemaError(op, schema, table, s.classify(err))
	}
	return nil
}

// TableExists queries information_schema.tables.
func (s *SQLStore) TableExists(ctx context.Context, schema, table string) (bool, error) {
	var n int
	if err := s.conn.QueryRowContext(s.stmtCtx(ctx), s.ddl.TableExistsQuery(), schema, table).Scan(&n); err != nil {
		return false, core.NewSchemaError("table exists", schema, table, s.classify(err))
	}
	return n > 0, nil
}

// DescribeTable rebuilds a table from information_schema.
func (s *SQLStore) DescribeTable(ctx context.Context, schema, table string) (*core.Table, error) {
	exists, err := s.TableExists(ctx, schema, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, core.NotFoundError(schema, table, "")
	}

	t := &core.Table{Name: table}
	if err := s.readColumns(ctx, schema, t); err != nil {
		return nil, core.NewSchemaError("describe table", schema, table, s.classify(err))
	}
	keys, err := s.readPrimaryKeys(ctx, schema, table)
	if err != nil {
		return nil, core.NewSchemaError("describe table", schema, table, s.classify(err))
	}
	for i := range t.Columns {
		t.Columns[i].PrimaryKey = slices.Contains(keys, t.Columns[i].Name)
	}
	return t, nil
}

func (s *SQLStore) readColumns(ctx context.Context, schema string, t *core.Table) error {
	rows, err := s.conn.QueryContext(s.stmtCtx(ctx), s.ddl.ColumnsQuery(), schema, t.Name)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			name, physical   string
			precision, scale sql.NullInt64
			length           sql.NullInt64
		)
		if err := rows.Scan(&name, &physical, &precision, &scale, &length); err != nil {
			return fmt.Errorf("failed to scan column metadata: %w", err)
		}

		col := core.Column{Name: name, Type: s.types.FromPhysicalType(physical)}
		switch {
		case col.Type == core.Decimal && precision.Valid:
			col.Params = &core.TypeParams{Decimal: &core.DecimalParams{
				Precision: uint32(precision.Int64), //nolint:gosec // catalog precision is small and non-negative
				Scale:     uint32(scale.Int64),     //nolint:gosec // catalog scale is small and non-negative
			}}
		case col.Type == core.String && length.Valid && length.Int64 > 0:
			col.Params = &core.TypeParams{StringByteLength: uint32(length.Int64)} //nolint:gosec // bounded by the catalog
		}
		t.Columns = append(t.Columns, col)
	}
	return rows.Err()
}

func (s *SQLStore) readPrimaryKeys(ctx context.Context, schema, table string) ([]string, error) {
	rows, err := s.conn.QueryContext(s.stmtCtx(ctx), s.ddl.PrimaryKeyQuery(), schema, table)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan primary key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// CreateTable creates the schema if needed, then the table.
func (s *SQLStore) CreateTable(ctx context.Context, schema string, table *core.Table) error {
	if err := table.Validate(); err != nil {
		return core.NewSchemaError("create table", schema, "", err)
	}
	stmt, err := s.ddl.CreateTable(schema, table)
	if err != nil {
		return core.NewSchemaError("create table", schema, table.Name, err)
	}
	if err := s.exec(ctx, "create schema", schema, "", s.ddl.CreateSchema(schema)); err != nil {
		return err
	}
	return s.exec(ctx, "create table", schema, table.Name, stmt)
}

// DropTable drops the table if it exists.
func (s *SQLStore) DropTable(ctx context.Context, schema, table string) error {
	return s.exec(ctx, "drop table", schema, table, s.ddl.DropTable(schema, table))
}

// RenameTable renames a table within its schema.
func (s *SQLStore) RenameTable(ctx context.Context, schema, from, to string) error {
	return s.exec(ctx, "rename table", schema, from, s.ddl.RenameTable(schema, from, to))
}

// CopyTable copies structure and data with CREATE TABLE AS SELECT.
func (s *SQLStore) CopyTable(ctx context.Context, schema, from, to string) error {
	return s.exec(ctx, "copy table", schema, from, s.ddl.CopyTable(schema, from, to))
}

// TruncateTable removes every row.
func (s *SQLStore) TruncateTable(ctx context.Context, schema, table string) error {
	return s.exec(ctx, "truncate table", schema, table, s.ddl.TruncateTable(schema, table))
}

// AddColumn adds a nullable column.
func (s *SQLStore) AddColumn(ctx context.Context, schema, table string, column core.Column) error {
	stmt, err := s.ddl.AddColumn(schema, table, column)
	if err != nil {
		return core.NewSchemaError("add column", schema, table, err)
	}
	return s.exec(ctx, "add column", schema, table, stmt)
}

// DropColumn drops a column.
func (s *SQLStore) DropColumn(ctx context.Context, schema, table, column string) error {
	return s.exec(ctx, "drop column", schema, table, s.ddl.DropColumn(schema, table, column))
}

// RenameColumn renames a column.
func (s *SQLStore) RenameColumn(ctx context.Context, schema, table, from, to string) error {
	return s.exec(ctx, "rename column", schema, table, s.ddl.RenameColumn(schema, table, from, to))
}

// AlterColumnType changes a column's type, casting existing values.
// Key columns on dialects that cannot alter them in place are retyped by rebuilding the table.
func (s *SQLStore) AlterColumnType(ctx context.Context, schema, table string, column core.Column) error {
	if !s.dialect.AlterPrimaryKey {
		t, err := s.DescribeTable(ctx, schema, table)
		if err != nil {
			return err
		}
		i := slices.IndexFunc(t.Columns, func(c core.Column) bool { return c.Name == column.Name })
		if i < 0 {
			return core.NewSchemaError("alter column type", schema, table, core.NotFoundError(schema, table, column.Name))
		}
		if t.Columns[i].PrimaryKey {
			column.PrimaryKey = true
			t.Columns[i] = column
			return s.InTx(ctx, func(tx core.Store) error {
				return tx.(*SQLStore).rebuild(ctx, "alter column type", schema, t, &column)
			})
		}
	}

	stmt, err := s.ddl.AlterColumnType(schema, table, column)
	if err != nil {
		return core.NewSchemaError("alter column type", schema, table, err)
	}
	return s.exec(ctx, "alter column type", schema, table, stmt)
}

// ReplacePrimaryKey makes keys the table's primary key. An empty keys removes it.
// Dialects that cannot alter constraints rebuild the table.
func (s *SQLStore) ReplacePrimaryKey(ctx context.Context, schema, table string, keys []string) error {
	return s.InTx(ctx, func(tx core.Store) error {
		st := tx.(*SQLStore)
		if !st.dialect.AlterPrimaryKey {
			return st.rebuildWithKeys(ctx, schema, table, keys)
		}
		constraint, err := st.primaryKeyConstraint(ctx, schema, table)
		if err != nil {
			return err
		}
		if constraint != "" {
			if err := st.exec(ctx, "drop primary key", schema, table, st.ddl.DropConstraint(schema, table, constraint)); err != nil {
				return err
			}
		}
		if len(keys) == 0 {
			return nil
		}
		return st.exec(ctx, "add primary key", schema, table, st.ddl.AddPrimaryKey(schema, table, keys))
	})
}

func (s *SQLStore) rebuildWithKeys(ctx context.Context, schema, table string, keys []string) error {
	t, err := s.DescribeTable(ctx, schema, table)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if !t.HasColumn(k) {
			return core.NewSchemaError("replace primary key", schema, table, core.NotFoundError(schema, table, k))
		}
	}
	for i := range t.Columns {
		t.Columns[i].PrimaryKey = slices.Contains(keys, t.Columns[i].Name)
	}
	return s.rebuild(ctx, "replace primary key", schema, t, nil)
}

// rebuild recreates t.Name with the shape of t, moving rows through a scratch
// copy. When retyped is set its values are cast to the new type on the way back.
func (s *SQLStore) rebuild(ctx context.Context, op, schema string, t *core.Table, retyped *core.Column) error {
	table := t.Name
	create, err := s.ddl.CreateTable(schema, t)
	if err != nil {
		return core.NewSchemaError(op, schema, table, err)
	}
	scratch := table + rebuildSuffix
	insert := s.ddl.InsertSelect(schema, scratch, table, t.ColumnNames())
	if retyped != nil {
		if insert, err = s.ddl.InsertSelectCast(schema, scratch, table, t.ColumnNames(), *retyped); err != nil {
			return core.NewSchemaError(op, schema, table, err)
		}
	}

	s.logger.Debug("rebuilding table",
		slog.String("op", op), slog.String("schema", schema), slog.String("table", table),
		slog.Any("keys", t.PrimaryKeys()))

	steps := []string{
		s.ddl.CopyTable(schema, table, scratch),
		s.ddl.DropTable(schema, table),
		create,
		insert,
		s.ddl.DropTable(schema, scratch),
	}
	for _, stmt := range steps {
		if err := s.exec(ctx, op, schema, table, stmt); err != nil {
			return err
		}
	}
	return nil
}

// primaryKeyConstraint returns the name of the table's primary key constraint,
// or "" when it has none.
func (s *SQLStore) primaryKeyConstraint(ctx context.Context, schema, table string) (string, error) {
	var name string
	err := s.conn.QueryRowContext(s.stmtCtx(ctx), s.ddl.PrimaryKeyConstraintQuery(), schema, table).Scan(&name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", nil
	case err != nil:
		return "", core.NewSchemaError("replace primary key", schema, table, s.classify(err))
	}
	return name, nil
}

// CopyRows inserts the named columns of every row of from into to.
func (s *SQLStore) CopyRows(ctx context.Context, schema, from, to string, columns []string) error {
	return s.exec(ctx, "copy rows", schema, to, s.ddl.InsertSelect(schema, from, to, columns))
}

// CopyColumnValues sets to = from on every row.
func (s *SQLStore) CopyColumnValues(ctx context.Context, schema, table, from, to string) error {
	return s.exec(ctx, "copy column values", schema, table, s.ddl.CopyColumnValues(schema, table, from, to))
}

// UpdateColumnValue sets column to value on every row, casting through text.
func (s *SQLStore) UpdateColumnValue(ctx context.Context, schema, table, column, value string) error {
	t, err := s.DescribeTable(ctx, schema, table)
	if err != nil {
		return err
	}
	col, ok := t.Column(column)
	if !ok {
		return core.NotFoundError(schema, table, column)
	}
	stmt, err := s.ddl.UpdateColumnValue(schema, table, col)
	if err != nil {
		return core.NewSchemaError("update column value", schema, table, err)
	}
	return s.exec(ctx, "update column value", schema, table, stmt, value)
}

// SoftDelete flags rows as deleted, optionally only those synced before opts.Before.
func (s *SQLStore) SoftDelete(ctx context.Context, schema, table string, opts core.SoftDeleteOptions) error {
	var args []any
	if opts.SyncedColumn != "" && opts.Before != nil {
		args = append(args, *opts.Before)
	}
	return s.exec(ctx, "soft delete", schema, table, s.ddl.SoftDelete(schema, table, opts), args...)
}

// InTx runs fn in a database transaction, committing when fn returns nil.
// The transaction ignores caller cancellation so it always ends in commit or rollback.
func (s *SQLStore) InTx(ctx context.Context, fn func(core.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	ctx = context.WithoutCancel(ctx)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.NewSchemaError("begin transaction", "", "", err)
	}

	txStore := *s
	txStore.conn = tx
	txStore.inTx = true

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Warn("rollback failed", slog.String("error", rbErr.Error()))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return core.NewSchemaError("commit transaction", "", "", err)
	}
	return nil
}

// Close releases the connection.
func (s *SQLStore) Close() error {
	if s.closer != nil {
		return s.closer()
	}
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

var _ core.Store = (*SQLStore)(nil)
