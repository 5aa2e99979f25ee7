// Package tableops implements the table-level requests: create, alter,
// describe and truncate.
package tableops

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/leapdest/pkg/core"
	"github.com/leapstack-labs/leapdest/pkg/schemadiff"
)

// Service runs table operations against a store.
type Service struct {
	store         core.Store
	defaultSchema string
	journal       core.Recorder
	observer      core.Observer
	logger        *slog.Logger
	now           func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithDefaultSchema sets the schema used when a request names none.
func WithDefaultSchema(schema string) Option {
	return func(s *Service) {
		if schema != "" {
			s.defaultSchema = schema
		}
	}
}

// WithJournal records every outcome.
func WithJournal(r core.Recorder) Option {
	return func(s *Service) { s.journal = r }
}

// WithObserver reports every outcome.
func WithObserver(o core.Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a service over store.
func New(store core.Store, opts ...Option) *Service {
	s := &Service{
		store:         store,
		defaultSchema: core.DefaultSchema,
		logger:        slog.New(slog.DiscardHandler),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schema resolves the effective schema for a request.
func (s *Service) Schema(schema string) string {
	if schema == "" {
		return s.defaultSchema
	}
	return schema
}

// CreateTable creates table, and its schema when missing.
func (s *Service) CreateTable(ctx context.Context, schema string, table *core.Table) core.Result {
	schema = s.Schema(schema)
	ev := s.event("create_table", schema, tableName(table))
	if table != nil {
		ev.Detail = "columns=" + strings.Join(table.ColumnNames(), ",")
	}
	if err := table.Validate(); err != nil {
		return s.finish(ctx, ev, err)
	}
	return s.finish(ctx, ev, s.store.CreateTable(ctx, schema, table))
}

// AlterTable brings the table to the requested shape in one transaction:
// add columns, retype columns, replace the primary key, then drop columns
// when dropColumns is set.
func (s *Service) AlterTable(ctx context.Context, schema string, table *core.Table, dropColumns bool) core.Result {
	schema = s.Schema(schema)
	ev := s.event("alter_table", schema, tableName(table))
	if err := table.Validate(); err != nil {
		return s.finish(ctx, ev, err)
	}

	current, err := s.store.DescribeTable(ctx, schema, table.Name)
	if err != nil {
		return s.finish(ctx, ev, err)
	}

	diff := schemadiff.Diff(current, table, s.diffOptions()...)
	ev.Detail = describeDiff(diff, dropColumns)
	if diff.Empty() {
		return s.finish(ctx, ev, nil)
	}

	if len(diff.ToDrop) > 0 && !dropColumns {
		s.logger.Info("skipping column drops",
			slog.String("table", table.Name), slog.Any("columns", diff.ToDrop))
	}

	err = s.store.InTx(ctx, func(tx core.Store) error {
		for _, c := range diff.ToAdd {
			if err := tx.AddColumn(ctx, schema, table.Name, c); err != nil {
				return err
			}
		}
		for _, r := range diff.ToRetype {
			if err := tx.AlterColumnType(ctx, schema, table.Name, r.Column); err != nil {
				return err
			}
		}
		if diff.PrimaryKeyChanged {
			if err := tx.ReplacePrimaryKey(ctx, schema, table.Name, diff.PrimaryKey); err != nil {
				return err
			}
		}
		if !dropColumns {
			return nil
		}
		for _, name := range diff.ToDrop {
			if err := tx.DropColumn(ctx, schema, table.Name, name); err != nil {
				return err
			}
		}
		return nil
	})
	return s.finish(ctx, ev, err)
}

func (s *Service) diffOptions() []schemadiff.Option {
	if cr, ok := s.store.(core.CapabilityReporter); ok && !cr.Capabilities().TextLength {
		return []schemadiff.Option{schemadiff.IgnoreStringLength()}
	}
	return nil
}

// DescribeTable returns the current table shape. A missing table yields a NotFound result.
func (s *Service) DescribeTable(ctx context.Context, schema, table string) (*core.Table, core.Result) {
	schema = s.Schema(schema)
	ev := s.event("describe_table", schema, table)
	if table == "" {
		return nil, s.finish(ctx, ev, fmt.Errorf("%w: table name is required", core.ErrInvalidIdentifier))
	}
	t, err := s.store.DescribeTable(ctx, schema, table)
	return t, s.finish(ctx, ev, err)
}

// TruncateRequest selects a hard or soft truncate.
type TruncateRequest struct {
	Schema string
	Table  string
	// Soft, when set, flags rows as deleted instead of removing them.
	Soft *SoftTruncate
}

// SoftTruncate marks rows deleted. When SyncedColumn and Before are set,
// only rows synced before the cutoff are marked.
type SoftTruncate struct {
	DeletedColumn string
	SyncedColumn  string
	Before        *time.Time
}

// TruncateTable empties the table or soft-deletes its rows.
func (s *Service) TruncateTable(ctx context.Context, req TruncateRequest) core.Result {
	schema := s.Schema(req.Schema)
	ev := s.event("truncate_table", schema, req.Table)
	if req.Table == "" {
		return s.finish(ctx, ev, fmt.Errorf("%w: table name is required", core.ErrInvalidIdentifier))
	}

	exists, err := s.store.TableExists(ctx, schema, req.Table)
	if err != nil {
		return s.finish(ctx, ev, err)
	}
	if !exists {
		return s.finish(ctx, ev, core.NotFoundError(schema, req.Table, ""))
	}

	if req.Soft == nil {
		ev.Detail = "hard"
		return s.finish(ctx, ev, s.store.TruncateTable(ctx, schema, req.Table))
	}

	if req.Soft.DeletedColumn == "" {
		return s.finish(ctx, ev, fmt.Errorf("%w: soft truncate needs a deleted column", core.ErrInvalidIdentifier))
	}
	opts := core.SoftDeleteOptions{DeletedColumn: req.Soft.DeletedColumn}
	ev.Detail = "soft deleted_column=" + req.Soft.DeletedColumn
	if req.Soft.Before != nil && req.Soft.SyncedColumn != "" {
		opts.SyncedColumn = req.Soft.SyncedColumn
		opts.Before = req.Soft.Before
		ev.Detail += " before=" + req.Soft.Before.UTC().Format(time.RFC3339)
	}
	return s.finish(ctx, ev, s.store.SoftDelete(ctx, schema, req.Table, opts))
}

func (s *Service) event(op, schema, table string) core.Event {
	return core.Event{Operation: op, Schema: schema, Table: table, Started: s.now()}
}

func (s *Service) finish(ctx context.Context, ev core.Event, err error) core.Result {
	res := core.ResultOf(err)
	ev.Outcome = res.Outcome
	ev.Err = err
	ev.Duration = s.now().Sub(ev.Started)

	attrs := []any{
		slog.String("operation", ev.Operation),
		slog.String("schema", ev.Schema),
		slog.String("table", ev.Table),
		slog.String("outcome", ev.Outcome.String()),
	}
	if err != nil {
		s.logger.Warn("table operation did not succeed", append(attrs, slog.String("error", err.Error()))...)
	} else {
		s.logger.Info("table operation completed", attrs...)
	}

	if s.observer != nil {
		s.observer.Observe(ev)
	}
	if s.journal != nil {
		if jerr := s.journal.Record(ctx, ev); jerr != nil {
			s.logger.Warn("failed to record table operation", slog.String("error", jerr.Error()))
		}
	}
	return res
}

func tableName(t *core.Table) string {
	if t == nil {
		return ""
	}
	return t.Name
}

func describeDiff(d schemadiff.Result, dropColumns bool) string {
	if d.Empty() {
		return "no changes"
	}
	var parts []string
	if len(d.ToAdd) > 0 {
		names := make([]string, len(d.ToAdd))
		for i, c := range d.ToAdd {
			names[i] = c.Name
		}
		parts = append(parts, "add="+strings.Join(names, ","))
	}
	if len(d.ToRetype) > 0 {
		names := make([]string, len(d.ToRetype))
		for i, r := range d.ToRetype {
			names[i] = r.Name
		}
		parts = append(parts, "retype="+strings.Join(names, ","))
	}
	if d.PrimaryKeyChanged {
		parts = append(parts, "primary_key="+strings.Join(d.PrimaryKey, ","))
	}
	if len(d.ToDrop) > 0 {
		key := "drop="
		if !dropColumns {
			key = "skipped_drop="
		}
		parts = append(parts, key+strings.Join(d.ToDrop, ","))
	}
	return strings.Join(parts, " ")
}
