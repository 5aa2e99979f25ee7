package migrate

import (
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/leapdest/pkg/core"
)

// Operation is one migration request. The implementations are *Drop, *Copy,
// *Rename, *Add, *UpdateColumnValue and *TableSyncModeMigration.
type Operation interface {
	// Kind names the operation, using the selected entity when there is one.
	Kind() string
	isOperation()
}

// Entity interfaces select the sub-operation of a grouped operation.
type (
	DropEntity   interface{ dropKind() string }
	CopyEntity   interface{ copyKind() string }
	RenameEntity interface{ renameKind() string }
	AddEntity    interface{ addKind() string }
)

// Drop removes a table or, in history mode, retires a column.
type Drop struct {
	Entity DropEntity
}

// DropTable drops the request table.
type DropTable struct{}

// DropColumnInHistoryMode retires a column of a history-mode table without removing it.
type DropColumnInHistoryMode struct {
	Column             string
	OperationTimestamp time.Time
}

// Copy duplicates a table or column.
type Copy struct {
	Entity CopyEntity
}

// CopyTable copies structure and data. From defaults to the request table.
type CopyTable struct {
	From string
	To   string
}

// CopyColumn adds To with the type of From and copies its values.
type CopyColumn struct {
	From string
	To   string
}

// CopyTableToHistoryMode copies a soft-delete or live table into a new history-mode table.
type CopyTableToHistoryMode struct {
	From              string
	To                string
	SoftDeletedColumn string
}

// Rename renames a table or column.
type Rename struct {
	Entity RenameEntity
}

// RenameTable renames From to To. From defaults to the request table.
type RenameTable struct {
	From string
	To   string
}

// RenameColumn renames a column of the request table.
type RenameColumn struct {
	From string
	To   string
}

// Add adds a column and optionally backfills it.
type Add struct {
	Entity AddEntity
}

// AddColumnInHistoryMode adds a column to a history-mode table.
type AddColumnInHistoryMode struct {
	Column             string
	Type               core.DataType
	Params             *core.TypeParams
	DefaultValue       string
	OperationTimestamp time.Time
}

// AddColumnWithDefaultValue adds a column and sets DefaultValue on existing rows.
type AddColumnWithDefaultValue struct {
	Column       string
	Type         core.DataType
	Params       *core.TypeParams
	DefaultValue string
}

// UpdateColumnValue sets Column to Value on every row.
type UpdateColumnValue struct {
	Column string
	Value  string
}

// TableSyncModeMigration moves a table between sync modes.
type TableSyncModeMigration struct {
	Type SyncModeMigrationType
	// SoftDeletedColumn names the soft-delete flag; empty means none.
	SoftDeletedColumn string
}

// SyncModeMigrationType is a sync-mode transition.
type SyncModeMigrationType int

// Transition values follow the destination SDK numbering.
const (
	SoftDeleteToLive SyncModeMigrationType = iota
	SoftDeleteToHistory
	HistoryToSoftDelete
	HistoryToLive
	LiveToSoftDelete
	LiveToHistory
)

var transitions = map[SyncModeMigrationType][2]core.SyncMode{
	SoftDeleteToLive:    {core.SoftDelete, core.Live},
	SoftDeleteToHistory: {core.SoftDelete, core.History},
	HistoryToSoftDelete: {core.History, core.SoftDelete},
	HistoryToLive:       {core.History, core.Live},
	LiveToSoftDelete:    {core.Live, core.SoftDelete},
	LiveToHistory:       {core.Live, core.History},
}

// From returns the source mode. ok is false for unknown values.
func (t SyncModeMigrationType) From() (mode core.SyncMode, ok bool) {
	m, ok := transitions[t]
	return m[0], ok
}

// To returns the target mode. ok is false for unknown values.
func (t SyncModeMigrationType) To() (mode core.SyncMode, ok bool) {
	m, ok := transitions[t]
	return m[1], ok
}

func (t SyncModeMigrationType) String() string {
	m, ok := transitions[t]
	if !ok {
		return fmt.Sprintf("SyncModeMigrationType(%d)", int(t))
	}
	return m[0].String() + "_TO_" + m[1].String()
}

// ParseSyncModeMigrationType parses names such as "soft_delete_to_history".
func ParseSyncModeMigrationType(s string) (SyncModeMigrationType, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for t := range transitions {
		if t.String() == want {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown sync mode migration %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *SyncModeMigrationType) UnmarshalText(text []byte) error {
	parsed, err := ParseSyncModeMigrationType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (t SyncModeMigrationType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (*Drop) isOperation()                   {}
func (*Copy) isOperation()                   {}
func (*Rename) isOperation()                 {}
func (*Add) isOperation()                    {}
func (*UpdateColumnValue) isOperation()      {}
func (*TableSyncModeMigration) isOperation() {}

func (*DropTable) dropKind() string               { return "drop_table" }
func (*DropColumnInHistoryMode) dropKind() string { return "drop_column_in_history_mode" }
func (*CopyTable) copyKind() string               { return "copy_table" }
func (*CopyColumn) copyKind() string              { return "copy_column" }
func (*CopyTableToHistoryMode) copyKind() string  { return "copy_table_to_history_mode" }
func (*RenameTable) renameKind() string           { return "rename_table" }
func (*RenameColumn) renameKind() string          { return "rename_column" }
func (*AddColumnInHistoryMode) addKind() string   { return "add_column_in_history_mode" }
func (*AddColumnWithDefaultValue) addKind() string {
	return "add_column_with_default_value"
}

// Kind implements Operation.
func (o *Drop) Kind() string {
	if o == nil || o.Entity == nil {
		return "drop"
	}
	return o.Entity.dropKind()
}

// Kind implements Operation.
func (o *Copy) Kind() string {
	if o == nil || o.Entity == nil {
		return "copy"
	}
	return o.Entity.copyKind()
}

// Kind implements Operation.
func (o *Rename) Kind() string {
	if o == nil || o.Entity == nil {
		return "rename"
	}
	return o.Entity.renameKind()
}

// Kind implements Operation.
func (o *Add) Kind() string {
	if o == nil || o.Entity == nil {
		return "add"
	}
	return o.Entity.addKind()
}

// Kind implements Operation.
func (*UpdateColumnValue) Kind() string { return "update_column_value" }

// Kind implements Operation.
func (*TableSyncModeMigration) Kind() string { return "table_sync_mode_migration" }

// KindOf returns op.Kind(), or "unset" for a nil operation.
func KindOf(op Operation) string {
	if op == nil {
		return "unset"
	}
	return op.Kind()
}
