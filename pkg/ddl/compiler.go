// Package ddl renders the DDL and DML statements issued by the metadata store.
//
// Every schema, table and column name is quoted with the dialect's
// identifier rules; values are always bound as parameters.
package ddl

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdest/pkg/core"
	"github.com/leapstack-labs/leapdest/pkg/dialect"
)

// Compiler builds SQL statements for one dialect.
type Compiler struct {
	d     *dialect.Dialect
	types *dialect.TypeMapper
}

// NewCompiler creates a compiler for d using types to render column types.
func NewCompiler(d *dialect.Dialect, types *dialect.TypeMapper) *Compiler {
	return &Compiler{d: d, types: types}
}

// Dialect returns the dialect statements are rendered for.
func (c *Compiler) Dialect() *dialect.Dialect {
	return c.d
}

func (c *Compiler) table(schema, table string) string {
	return c.d.QualifiedName(schema, table)
}

func (c *Compiler) alter(schema, table string) string {
	return "ALTER TABLE " + c.table(schema, table)
}

// ColumnDefinition renders `"name" TYPE`.
func (c *Compiler) ColumnDefinition(col core.Column) (string, error) {
	physical, err := c.types.ToPhysicalType(col.Type, col.Params)
	if err != nil {
		return "", fmt.Errorf("column %q: %w", col.Name, err)
	}
	return c.d.QuoteIdentifier(col.Name) + " " + physical, nil
}

// CreateSchema renders CREATE SCHEMA IF NOT EXISTS.
func (c *Compiler) CreateSchema(schema string) string {
	return "CREATE SCHEMA IF NOT EXISTS " + c.d.QuoteIdentifier(schema)
}

// CreateTable renders CREATE TABLE with a PRIMARY KEY clause when any column is a key.
func (c *Compiler) CreateTable(schema string, t *core.Table) (string, error) {
	defs := make([]string, 0, len(t.Columns)+1)
	for _, col := range t.Columns {
		def, err := c.ColumnDefinition(col)
		if err != nil {
			return "", err
		}
		defs = append(defs, def)
	}
	if keys := t.PrimaryKeys(); len(keys) > 0 {
		defs = append(defs, "PRIMARY KEY ("+c.d.QuoteIdentifiers(keys)+")")
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", c.table(schema, t.Name), strings.Join(defs, ", ")), nil
}

// DropTable renders DROP TABLE IF EXISTS.
func (c *Compiler) DropTable(schema, table string) string {
	return "DROP TABLE IF EXISTS " + c.table(schema, table)
}

// RenameTable renders a table rename within one schema.
func (c *Compiler) RenameTable(schema, from, to string) string {
	return c.alter(schema, from) + " RENAME TO " + c.d.QuoteIdentifier(to)
}

// CopyTable renders CREATE TABLE ... AS SELECT, copying structure and data.
func (c *Compiler) CopyTable(schema, from, to string) string {
	return fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM %s", c.table(schema, to), c.table(schema, from))
}

// TruncateTable renders TRUNCATE TABLE.
func (c *Compiler) TruncateTable(schema, table string) string {
	return "TRUNCATE TABLE " + c.table(schema, table)
}

// AddColumn renders ADD COLUMN. Primary-key membership is handled by AddPrimaryKey.
func (c *Compiler) AddColumn(schema, table string, col core.Column) (string, error) {
	def, err := c.ColumnDefinition(col)
	if err != nil {
		return "", err
	}
	return c.alter(schema, table) + " ADD COLUMN " + def, nil
}

// DropColumn renders DROP COLUMN.
func (c *Compiler) DropColumn(schema, table, column string) string {
	return c.alter(schema, table) + " DROP COLUMN " + c.d.QuoteIdentifier(column)
}

// RenameColumn renders RENAME COLUMN.
func (c *Compiler) RenameColumn(schema, table, from, to string) string {
	return fmt.Sprintf("%s RENAME COLUMN %s TO %s", c.alter(schema, table), c.d.QuoteIdentifier(from), c.d.QuoteIdentifier(to))
}

// AlterColumnType renders SET DATA TYPE with an explicit cast of existing values.
func (c *Compiler) AlterColumnType(schema, table string, col core.Column) (string, error) {
	physical, err := c.types.ToPhysicalType(col.Type, col.Params)
	if err != nil {
		return "", fmt.Errorf("column %q: %w", col.Name, err)
	}
	name := c.d.QuoteIdentifier(col.Name)
	return fmt.Sprintf("%s ALTER COLUMN %s SET DATA TYPE %s USING CAST(%s AS %s)",
		c.alter(schema, table), name, physical, name, physical), nil
}

// DropConstraint renders DROP CONSTRAINT. The name comes from PrimaryKeyConstraintQuery,
// since renamed tables keep their original constraint names.
func (c *Compiler) DropConstraint(schema, table, constraint string) string {
	return c.alter(schema, table) + " DROP CONSTRAINT " + c.d.QuoteIdentifier(constraint)
}

// AddPrimaryKey renders ADD PRIMARY KEY.
func (c *Compiler) AddPrimaryKey(schema, table string, keys []string) string {
	return c.alter(schema, table) + " ADD PRIMARY KEY (" + c.d.QuoteIdentifiers(keys) + ")"
}

// InsertSelect copies the named columns of every row from one table into another.
func (c *Compiler) InsertSelect(schema, from, to string, columns []string) string {
	cols := c.d.QuoteIdentifiers(columns)
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", c.table(schema, to), cols, cols, c.table(schema, from))
}

// InsertSelectCast is InsertSelect with the values of cast converted to its type.
func (c *Compiler) InsertSelectCast(schema, from, to string, columns []string, cast core.Column) (string, error) {
	physical, err := c.types.ToPhysicalType(cast.Type, cast.Params)
	if err != nil {
		return "", fmt.Errorf("column %q: %w", cast.Name, err)
	}
	exprs := make([]string, len(columns))
	for i, name := range columns {
		exprs[i] = c.d.QuoteIdentifier(name)
		if name == cast.Name {
			exprs[i] = fmt.Sprintf("CAST(%s AS %s)", exprs[i], physical)
		}
	}
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
		c.table(schema, to), c.d.QuoteIdentifiers(columns), strings.Join(exprs, ", "), c.table(schema, from)), nil
}

// CopyColumnValues renders UPDATE ... SET "to" = "from".
func (c *Compiler) CopyColumnValues(schema, table, from, to string) string {
	return fmt.Sprintf("UPDATE %s SET %s = %s", c.table(schema, table), c.d.QuoteIdentifier(to), c.d.QuoteIdentifier(from))
}

// UpdateColumnValue renders an UPDATE that binds one text parameter and casts
// it to the column's physical type.
func (c *Compiler) UpdateColumnValue(schema, table string, col core.Column) (string, error) {
	physical, err := c.types.ToPhysicalType(col.Type, col.Params)
	if err != nil {
		return "", fmt.Errorf("column %q: %w", col.Name, err)
	}
	return fmt.Sprintf("UPDATE %s SET %s = CAST(CAST(%s AS %s) AS %s)",
		c.table(schema, table), c.d.QuoteIdentifier(col.Name), c.d.FormatPlaceholder(1), c.d.Types.Text, physical), nil
}

// SoftDelete renders the soft truncate UPDATE. It takes one parameter, the
// cutoff, when opts restricts by synced timestamp.
func (c *Compiler) SoftDelete(schema, table string, opts core.SoftDeleteOptions) string {
	stmt := fmt.Sprintf("UPDATE %s SET %s = TRUE", c.table(schema, table), c.d.QuoteIdentifier(opts.DeletedColumn))
	if opts.SyncedColumn != "" && opts.Before != nil {
		stmt += fmt.Sprintf(" WHERE %s < %s", c.d.QuoteIdentifier(opts.SyncedColumn), c.d.FormatPlaceholder(1))
	}
	return stmt
}

// TableExistsQuery counts matching tables. Parameters: schema, table.
func (c *Compiler) TableExistsQuery() string {
	//nolint:gosec // Placeholders are safe - they come from dialect.FormatPlaceholder
	return fmt.Sprintf(`SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = %s AND table_name = %s`,
		c.d.FormatPlaceholder(1), c.d.FormatPlaceholder(2))
}

// ColumnsQuery lists a table's columns in ordinal order. Parameters: schema, table.
func (c *Compiler) ColumnsQuery() string {
	//nolint:gosec // Placeholders are safe - they come from dialect.FormatPlaceholder
	return fmt.Sprintf(`SELECT column_name, data_type, numeric_precision, numeric_scale, character_maximum_length
FROM information_schema.columns
WHERE table_schema = %s AND table_name = %s
ORDER BY ordinal_position`, c.d.FormatPlaceholder(1), c.d.FormatPlaceholder(2))
}

// PrimaryKeyQuery lists a table's primary key columns. Parameters: schema, table.
func (c *Compiler) PrimaryKeyQuery() string {
	//nolint:gosec // Placeholders are safe - they come from dialect.FormatPlaceholder
	return fmt.Sprintf(`SELECT kcu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name
 AND tc.table_schema = kcu.table_schema
 AND tc.table_name = kcu.table_name
WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = %s AND tc.table_name = %s`,
		c.d.FormatPlaceholder(1), c.d.FormatPlaceholder(2))
}

// PrimaryKeyConstraintQuery returns the name of a table's primary key constraint. Parameters: schema, table.
func (c *Compiler) PrimaryKeyConstraintQuery() string {
	//nolint:gosec // Placeholders are safe - they come from dialect.FormatPlaceholder
	return fmt.Sprintf(`SELECT constraint_name FROM information_schema.table_constraints WHERE constraint_type = 'PRIMARY KEY' AND table_schema = %s AND table_name = %s`,
		c.d.FormatPlaceholder(1), c.d.FormatPlaceholder(2))
}
