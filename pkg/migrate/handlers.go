package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapdest/pkg/core"
)

func (o *Orchestrator) drop(ctx context.Context, schema, table string, entity DropEntity) (string, error) {
	switch e := entity.(type) {
	case *DropTable:
		if e == nil {
			break
		}
		if err := requireNames("table", table); err != nil {
			return "", err
		}
		return "", o.store.DropTable(ctx, schema, table)

	case *DropColumnInHistoryMode:
		if e == nil {
			break
		}
		if err := requireNames("table", table, "column", e.Column); err != nil {
			return "", err
		}
		t, err := o.store.DescribeTable(ctx, schema, table)
		if err != nil {
			return "", err
		}
		if !t.HasColumn(e.Column) {
			return "", core.NotFoundError(schema, table, e.Column)
		}
		// History tables keep every column; only the intent is recorded.
		detail := fmt.Sprintf("column=%s retained", e.Column)
		if !e.OperationTimestamp.IsZero() {
			detail += " op_ts=" + e.OperationTimestamp.UTC().Format(time.RFC3339)
		}
		return detail, nil
	}
	return "", errNotSet("drop entity")
}

func (o *Orchestrator) copy(ctx context.Context, schema, table string, entity CopyEntity) (string, error) {
	switch e := entity.(type) {
	case *CopyTable:
		if e == nil {
			break
		}
		from := e.From
		if from == "" {
			from = table
		}
		if err := requireNames("source table", from, "destination table", e.To); err != nil {
			return "", err
		}
		if err := o.mustExist(ctx, schema, from); err != nil {
			return "", err
		}
		return fmt.Sprintf("from=%s to=%s", from, e.To), o.store.CopyTable(ctx, schema, from, e.To)

	case *CopyColumn:
		if e == nil {
			break
		}
		return o.copyColumn(ctx, schema, table, e)

	case *CopyTableToHistoryMode:
		if e == nil {
			break
		}
		return o.copyTableToHistoryMode(ctx, schema, table, e)
	}
	return "", errNotSet("copy entity")
}

func (o *Orchestrator) copyColumn(ctx context.Context, schema, table string, e *CopyColumn) (string, error) {
	if err := requireNames("table", table, "source column", e.From, "destination column", e.To); err != nil {
		return "", err
	}
	t, err := o.store.DescribeTable(ctx, schema, table)
	if err != nil {
		return "", err
	}
	if err := t.Validate(); err != nil {
		return "", err
	}
	src, ok := t.Column(e.From)
	if !ok {
		return "", core.NotFoundError(schema, table, e.From)
	}

	detail := fmt.Sprintf("from_column=%s to_column=%s", e.From, e.To)
	return detail, o.store.InTx(ctx, func(tx core.Store) error {
		col := core.Column{Name: e.To, Type: src.Type, Params: src.Params.Clone()}
		if err := tx.AddColumn(ctx, schema, table, col); err != nil {
			return err
		}
		return tx.CopyColumnValues(ctx, schema, table, e.From, e.To)
	})
}

func (o *Orchestrator) copyTableToHistoryMode(ctx context.Context, schema, table string, e *CopyTableToHistoryMode) (string, error) {
	from := e.From
	if from == "" {
		from = table
	}
	if err := requireNames("source table", from, "destination table", e.To); err != nil {
		return "", err
	}

	src, err := o.store.DescribeTable(ctx, schema, from)
	if err != nil {
		return "", err
	}

	dst := src.WithoutColumns(e.SoftDeletedColumn, core.ColumnStart, core.ColumnEnd, core.ColumnActive)
	dst.Name = e.To
	copied := dst.ColumnNames()
	dst.Columns = append(dst.Columns, core.HistoryColumns()...)

	detail := fmt.Sprintf("from=%s to=%s soft_deleted_column=%s", from, e.To, e.SoftDeletedColumn)
	return detail, o.store.InTx(ctx, func(tx core.Store) error {
		if err := tx.CreateTable(ctx, schema, dst); err != nil {
			return err
		}
		return tx.CopyRows(ctx, schema, from, e.To, copied)
	})
}

func (o *Orchestrator) rename(ctx context.Context, schema, table string, entity RenameEntity) (string, error) {
	switch e := entity.(type) {
	case *RenameTable:
		if e == nil {
			break
		}
		from := e.From
		if from == "" {
			from = table
		}
		if err := requireNames("source table", from, "destination table", e.To); err != nil {
			return "", err
		}
		if err := o.mustExist(ctx, schema, from); err != nil {
			return "", err
		}
		return fmt.Sprintf("from=%s to=%s", from, e.To), o.store.RenameTable(ctx, schema, from, e.To)

	case *RenameColumn:
		if e == nil {
			break
		}
		if err := requireNames("table", table, "source column", e.From, "destination column", e.To); err != nil {
			return "", err
		}
		t, err := o.store.DescribeTable(ctx, schema, table)
		if err != nil {
			return "", err
		}
		if !t.HasColumn(e.From) {
			return "", core.NotFoundError(schema, table, e.From)
		}
		return fmt.Sprintf("from_column=%s to_column=%s", e.From, e.To), o.store.RenameColumn(ctx, schema, table, e.From, e.To)
	}
	return "", errNotSet("rename entity")
}

func (o *Orchestrator) add(ctx context.Context, schema, table string, entity AddEntity) (string, error) {
	var (
		col          core.Column
		defaultValue string
	)
	switch e := entity.(type) {
	case *AddColumnInHistoryMode:
		if e == nil {
			return "", errNotSet("add entity")
		}
		col = core.Column{Name: e.Column, Type: e.Type, Params: e.Params}
		defaultValue = e.DefaultValue
	case *AddColumnWithDefaultValue:
		if e == nil {
			return "", errNotSet("add entity")
		}
		col = core.Column{Name: e.Column, Type: e.Type, Params: e.Params}
		defaultValue = e.DefaultValue
	default:
		return "", errNotSet("add entity")
	}

	if err := requireNames("table", table, "column", col.Name); err != nil {
		return "", err
	}
	if err := o.mustExist(ctx, schema, table); err != nil {
		return "", err
	}

	detail := fmt.Sprintf("column=%s type=%s default=%q", col.Name, col.Type, defaultValue)
	return detail, o.store.InTx(ctx, func(tx core.Store) error {
		if err := tx.AddColumn(ctx, schema, table, col); err != nil {
			return err
		}
		if defaultValue == "" {
			return nil
		}
		return tx.UpdateColumnValue(ctx, schema, table, col.Name, defaultValue)
	})
}

func (o *Orchestrator) updateColumnValue(ctx context.Context, schema, table string, op *UpdateColumnValue) (string, error) {
	if err := requireNames("table", table, "column", op.Column); err != nil {
		return "", err
	}
	if err := o.mustExist(ctx, schema, table); err != nil {
		return "", err
	}
	return fmt.Sprintf("column=%s value=%q", op.Column, op.Value),
		o.store.UpdateColumnValue(ctx, schema, table, op.Column, op.Value)
}

// syncMode supports only SOFT_DELETE and HISTORY moving into each other.
// Transitions from or to LIVE fail without touching the table.
func (o *Orchestrator) syncMode(ctx context.Context, schema, table string, op *TableSyncModeMigration) (string, error) {
	from, ok := op.Type.From()
	if !ok {
		return "", fmt.Errorf("%w: %s", core.ErrUnsupportedOperation, op.Type)
	}
	to, _ := op.Type.To()
	detail := fmt.Sprintf("%s soft_deleted_column=%s", op.Type, op.SoftDeletedColumn)
	if from == core.Live || to == core.Live {
		return detail, fmt.Errorf("%w: %s", core.ErrUnsupportedTransition, op.Type)
	}

	if err := requireNames("table", table); err != nil {
		return detail, err
	}
	t, err := o.store.DescribeTable(ctx, schema, table)
	if err != nil {
		return detail, err
	}
	if mode := core.InferSyncMode(t, op.SoftDeletedColumn); mode != from {
		o.logger.Debug("table sync mode differs from migration source",
			slog.String("table", table), slog.String("inferred", mode.String()), slog.String("from", from.String()))
	}

	switch op.Type {
	case SoftDeleteToHistory:
		return detail, o.store.InTx(ctx, func(tx core.Store) error {
			if op.SoftDeletedColumn != "" && t.HasColumn(op.SoftDeletedColumn) {
				if err := tx.DropColumn(ctx, schema, table, op.SoftDeletedColumn); err != nil {
					return err
				}
			}
			for _, c := range core.HistoryColumns() {
				if t.HasColumn(c.Name) {
					continue
				}
				if err := tx.AddColumn(ctx, schema, table, c); err != nil {
					return err
				}
			}
			return nil
		})

	case HistoryToSoftDelete:
		return detail, o.store.InTx(ctx, func(tx core.Store) error {
			for _, c := range core.HistoryColumns() {
				if !t.HasColumn(c.Name) {
					continue
				}
				if err := tx.DropColumn(ctx, schema, table, c.Name); err != nil {
					return err
				}
			}
			if op.SoftDeletedColumn == "" || t.HasColumn(op.SoftDeletedColumn) {
				return nil
			}
			return tx.AddColumn(ctx, schema, table, core.Column{Name: op.SoftDeletedColumn, Type: core.Boolean})
		})
	}
	return detail, fmt.Errorf("%w: %s", core.ErrUnsupportedOperation, op.Type)
}

func (o *Orchestrator) mustExist(ctx context.Context, schema, table string) error {
	ok, err := o.store.TableExists(ctx, schema, table)
	if err != nil {
		return err
	}
	if !ok {
		return core.NotFoundError(schema, table, "")
	}
	return nil
}
