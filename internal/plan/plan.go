// Package plan decodes YAML request plans: an ordered list of table
// operations and migrations run by `leapdest apply`.
package plan

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapdest/pkg/core"
	"github.com/leapstack-labs/leapdest/pkg/migrate"
)

// Plan is a list of steps applied in order.
type Plan struct {
	// Schema applies to every step that names none.
	Schema string `yaml:"schema"`
	Steps  []Step `yaml:"steps"`
}

// Step holds exactly one request.
type Step struct {
	CreateTable   *core.Table    `yaml:"create_table"`
	AlterTable    *AlterTable    `yaml:"alter_table"`
	DescribeTable *TableRef      `yaml:"describe_table"`
	TruncateTable *TruncateTable `yaml:"truncate_table"`
	Migrate       *Migration     `yaml:"migrate"`
}

// Kind names the request a step holds.
func (s Step) Kind() string {
	switch {
	case s.CreateTable != nil:
		return "create_table"
	case s.AlterTable != nil:
		return "alter_table"
	case s.DescribeTable != nil:
		return "describe_table"
	case s.TruncateTable != nil:
		return "truncate_table"
	case s.Migrate != nil:
		return "migrate"
	default:
		return "empty"
	}
}

func (s Step) count() int {
	n := 0
	for _, set := range []bool{s.CreateTable != nil, s.AlterTable != nil, s.DescribeTable != nil, s.TruncateTable != nil, s.Migrate != nil} {
		if set {
			n++
		}
	}
	return n
}

// AlterTable requests the table be brought to the given shape.
type AlterTable struct {
	Schema      string      `yaml:"schema"`
	Table       *core.Table `yaml:"table"`
	DropColumns bool        `yaml:"drop_columns"`
}

// TableRef names one table.
type TableRef struct {
	Schema string `yaml:"schema"`
	Table  string `yaml:"table"`
}

// TruncateTable empties a table, or soft-deletes its rows when Soft is set.
type TruncateTable struct {
	Schema string        `yaml:"schema"`
	Table  string        `yaml:"table"`
	Soft   *SoftTruncate `yaml:"soft"`
}

// SoftTruncate selects the flag column and an optional synced-before cutoff.
type SoftTruncate struct {
	DeletedColumn string     `yaml:"deleted_column"`
	SyncedColumn  string     `yaml:"synced_column"`
	Before        *time.Time `yaml:"before"`
}

// Migration holds one migration variant against Table.
type Migration struct {
	Schema string `yaml:"schema"`
	Table  string `yaml:"table"`

	DropTable                 *struct{}                `yaml:"drop_table"`
	DropColumnInHistoryMode   *DropColumnInHistoryMode `yaml:"drop_column_in_history_mode"`
	CopyTable                 *FromTo                  `yaml:"copy_table"`
	CopyColumn                *FromTo                  `yaml:"copy_column"`
	CopyTableToHistoryMode    *CopyTableToHistoryMode  `yaml:"copy_table_to_history_mode"`
	RenameTable               *FromTo                  `yaml:"rename_table"`
	RenameColumn              *FromTo                  `yaml:"rename_column"`
	AddColumnInHistoryMode    *AddColumn               `yaml:"add_column_in_history_mode"`
	AddColumnWithDefaultValue *AddColumn               `yaml:"add_column_with_default_value"`
	UpdateColumnValue         *UpdateColumnValue       `yaml:"update_column_value"`
	TableSyncModeMigration    *TableSyncModeMigration  `yaml:"table_sync_mode_migration"`
}

// FromTo names a source and a destination.
type FromTo struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// DropColumnInHistoryMode names the column and the operation time.
type DropColumnInHistoryMode struct {
	Column             string    `yaml:"column"`
	OperationTimestamp time.Time `yaml:"operation_timestamp"`
}

// CopyTableToHistoryMode copies a table into a new history-mode table.
type CopyTableToHistoryMode struct {
	From              string `yaml:"from"`
	To                string `yaml:"to"`
	SoftDeletedColumn string `yaml:"soft_deleted_column"`
}

// AddColumn describes a column added with a default value.
type AddColumn struct {
	Column             string           `yaml:"column"`
	Type               core.DataType    `yaml:"type"`
	Params             *core.TypeParams `yaml:"params"`
	DefaultValue       string           `yaml:"default_value"`
	OperationTimestamp time.Time        `yaml:"operation_timestamp"`
}

// UpdateColumnValue sets every row of a column to Value.
type UpdateColumnValue struct {
	Column string `yaml:"column"`
	Value  string `yaml:"value"`
}

// TableSyncModeMigration moves a table between sync modes.
type TableSyncModeMigration struct {
	Type              migrate.SyncModeMigrationType `yaml:"type"`
	SoftDeletedColumn string                        `yaml:"soft_deleted_column"`
}

// Operation converts the variant to a migrate.Operation. It returns nil
// when no variant is set.
func (m *Migration) Operation() migrate.Operation {
	switch {
	case m.DropTable != nil:
		return &migrate.Drop{Entity: &migrate.DropTable{}}
	case m.DropColumnInHistoryMode != nil:
		v := m.DropColumnInHistoryMode
		return &migrate.Drop{Entity: &migrate.DropColumnInHistoryMode{Column: v.Column, OperationTimestamp: v.OperationTimestamp}}
	case m.CopyTable != nil:
		return &migrate.Copy{Entity: &migrate.CopyTable{From: m.CopyTable.From, To: m.CopyTable.To}}
	case m.CopyColumn != nil:
		return &migrate.Copy{Entity: &migrate.CopyColumn{From: m.CopyColumn.From, To: m.CopyColumn.To}}
	case m.CopyTableToHistoryMode != nil:
		v := m.CopyTableToHistoryMode
		return &migrate.Copy{Entity: &migrate.CopyTableToHistoryMode{From: v.From, To: v.To, SoftDeletedColumn: v.SoftDeletedColumn}}
	case m.RenameTable != nil:
		return &migrate.Rename{Entity: &migrate.RenameTable{From: m.RenameTable.From, To: m.RenameTable.To}}
	case m.RenameColumn != nil:
		return &migrate.Rename{Entity: &migrate.RenameColumn{From: m.RenameColumn.From, To: m.RenameColumn.To}}
	case m.AddColumnInHistoryMode != nil:
		v := m.AddColumnInHistoryMode
		return &migrate.Add{Entity: &migrate.AddColumnInHistoryMode{
			Column: v.Column, Type: v.Type, Params: v.Params, DefaultValue: v.DefaultValue, OperationTimestamp: v.OperationTimestamp,
		}}
	case m.AddColumnWithDefaultValue != nil:
		v := m.AddColumnWithDefaultValue
		return &migrate.Add{Entity: &migrate.AddColumnWithDefaultValue{
			Column: v.Column, Type: v.Type, Params: v.Params, DefaultValue: v.DefaultValue,
		}}
	case m.UpdateColumnValue != nil:
		return &migrate.UpdateColumnValue{Column: m.UpdateColumnValue.Column, Value: m.UpdateColumnValue.Value}
	case m.TableSyncModeMigration != nil:
		v := m.TableSyncModeMigration
		return &migrate.TableSyncModeMigration{Type: v.Type, SoftDeletedColumn: v.SoftDeletedColumn}
	default:
		return nil
	}
}

func (m *Migration) count() int {
	n := 0
	for _, set := range []bool{
		m.DropTable != nil, m.DropColumnInHistoryMode != nil,
		m.CopyTable != nil, m.CopyColumn != nil, m.CopyTableToHistoryMode != nil,
		m.RenameTable != nil, m.RenameColumn != nil,
		m.AddColumnInHistoryMode != nil, m.AddColumnWithDefaultValue != nil,
		m.UpdateColumnValue != nil, m.TableSyncModeMigration != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

// Load reads and validates the plan at path.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is the user's plan file
	if err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}
	p, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes and validates a plan. Unknown keys are rejected.
func Parse(r io.Reader) (*Plan, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var p Plan
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("plan is empty")
		}
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that every step holds exactly one request and that
// every column type can be materialized.
func (p *Plan) Validate() error {
	if len(p.Steps) == 0 {
		return errors.New("plan has no steps")
	}

	var errs []error
	for i, s := range p.Steps {
		if err := s.validate(); err != nil {
			errs = append(errs, fmt.Errorf("step %d (%s): %w", i+1, s.Kind(), err))
		}
	}
	return errors.Join(errs...)
}

func (s Step) validate() error {
	if n := s.count(); n != 1 {
		return fmt.Errorf("expected exactly one request, found %d", n)
	}

	switch {
	case s.CreateTable != nil:
		return validateTable(s.CreateTable)
	case s.AlterTable != nil:
		return validateTable(s.AlterTable.Table)
	case s.DescribeTable != nil:
		if s.DescribeTable.Table == "" {
			return errors.New("table is required")
		}
	case s.TruncateTable != nil:
		if s.TruncateTable.Table == "" {
			return errors.New("table is required")
		}
		if soft := s.TruncateTable.Soft; soft != nil && soft.DeletedColumn == "" {
			return errors.New("soft truncate requires deleted_column")
		}
	case s.Migrate != nil:
		if n := s.Migrate.count(); n != 1 {
			return fmt.Errorf("expected exactly one migration, found %d", n)
		}
		for _, add := range []*AddColumn{s.Migrate.AddColumnInHistoryMode, s.Migrate.AddColumnWithDefaultValue} {
			if add != nil && !add.Type.IsSupported() {
				return fmt.Errorf("column %q: %w: %s", add.Column, core.ErrUnsupportedType, add.Type)
			}
		}
	}
	return nil
}

func validateTable(t *core.Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	for _, c := range t.Columns {
		if !c.Type.IsSupported() {
			return fmt.Errorf("column %q: %w: %s (supported: %v)", c.Name, core.ErrUnsupportedType, c.Type, core.SupportedDataTypes())
		}
	}
	return nil
}
