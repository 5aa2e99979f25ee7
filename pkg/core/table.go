package core

import (
	"fmt"
	"slices"
)

// System column names written by the sync pipeline.
const (
	ColumnStart   = "_fivetran_start"
	ColumnEnd     = "_fivetran_end"
	ColumnActive  = "_fivetran_active"
	ColumnSynced  = "_fivetran_synced"
	ColumnDeleted = "_fivetran_deleted"
	ColumnID      = "_fivetran_id"
)

// DefaultSchema is used when a request does not name a schema.
const DefaultSchema = "fivetran_destination"

// Column describes one column of a destination table.
// Columns are identified by name, case-sensitively.
type Column struct {
	Name       string      `json:"name" yaml:"name"`
	Type       DataType    `json:"type" yaml:"type"`
	Params     *TypeParams `json:"params,omitempty" yaml:"params,omitempty"`
	PrimaryKey bool        `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
}

// Clone returns a deep copy of c.
func (c Column) Clone() Column {
	c.Params = c.Params.Clone()
	return c
}

// Table is the shape of a destination table. Column order is creation order.
type Table struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []Column `json:"columns" yaml:"columns"`
}

// Column returns the named column.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// ColumnNames returns column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// PrimaryKeys returns the names of primary-key columns in table order.
func (t *Table) PrimaryKeys() []string {
	var keys []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			keys = append(keys, c.Name)
		}
	}
	return keys
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{Name: t.Name, Columns: make([]Column, len(t.Columns))}
	for i, c := range t.Columns {
		out.Columns[i] = c.Clone()
	}
	return out
}

// Validate checks that the table is named and its column names are unique and non-empty.
func (t *Table) Validate() error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("%w: table name is required", ErrInvalidIdentifier)
	}
	seen := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		if c.Name == "" {
			return fmt.Errorf("%w: table %q has a column without a name", ErrInvalidIdentifier, t.Name)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("%w: table %q has duplicate column %q", ErrInvalidIdentifier, t.Name, c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// WithoutColumns returns a copy of t without the named columns.
func (t *Table) WithoutColumns(names ...string) *Table {
	out := &Table{Name: t.Name}
	for _, c := range t.Columns {
		if !slices.Contains(names, c.Name) {
			out.Columns = append(out.Columns, c.Clone())
		}
	}
	return out
}

// HistoryColumns returns the three columns that put a table in history mode.
func HistoryColumns() []Column {
	return []Column{
		{Name: ColumnStart, Type: UTCDateTime},
		{Name: ColumnEnd, Type: UTCDateTime},
		{Name: ColumnActive, Type: Boolean},
	}
}

// IsHistoryColumn reports whether name is one of the history-mode system columns.
func IsHistoryColumn(name string) bool {
	return name == ColumnStart || name == ColumnEnd || name == ColumnActive
}

// SyncMode is how a destination table tracks deletes and history.
// It is not stored; InferSyncMode derives it from the system columns present.
type SyncMode int

// Sync modes.
const (
	Live SyncMode = iota
	SoftDelete
	History
)

func (m SyncMode) String() string {
	switch m {
	case Live:
		return "LIVE"
	case SoftDelete:
		return "SOFT_DELETE"
	case History:
		return "HISTORY"
	default:
		return fmt.Sprintf("SyncMode(%d)", int(m))
	}
}

// InferSyncMode derives the sync mode of t. softDeletedColumn names the
// boolean soft-delete flag; when empty, _fivetran_deleted is assumed.
func InferSyncMode(t *Table, softDeletedColumn string) SyncMode {
	if t.HasColumn(ColumnStart) && t.HasColumn(ColumnEnd) && t.HasColumn(ColumnActive) {
		return History
	}
	if softDeletedColumn == "" {
		softDeletedColumn = ColumnDeleted
	}
	if c, ok := t.Column(softDeletedColumn); ok && c.Type == Boolean {
		return SoftDelete
	}
	return Live
}
