// Package migrate applies schema migrations to destination tables.
//
// Each request carries exactly one Operation. Multi-statement operations run
// in a single store transaction, so a failure leaves the table untouched.
package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapdest/pkg/core"
)

// Request is one migration against a table.
type Request struct {
	// Schema defaults to the orchestrator's default schema when empty.
	Schema    string
	Table     string
	Operation Operation
}

// Orchestrator dispatches migrations to a store.
type Orchestrator struct {
	store         core.Store
	defaultSchema string
	journal       core.Recorder
	observer      core.Observer
	logger        *slog.Logger
	now           func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithJournal records every outcome.
func WithJournal(r core.Recorder) Option {
	return func(o *Orchestrator) { o.journal = r }
}

// WithObserver reports every outcome, e.g. to metrics.
func WithObserver(obs core.Observer) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDefaultSchema sets the schema used when a request names none.
func WithDefaultSchema(schema string) Option {
	return func(o *Orchestrator) {
		if schema != "" {
			o.defaultSchema = schema
		}
	}
}

// New creates an orchestrator over store.
func New(store core.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:         store,
		defaultSchema: core.DefaultSchema,
		logger:        slog.New(slog.DiscardHandler),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Migrate applies req and always returns a terminal result.
func (o *Orchestrator) Migrate(ctx context.Context, req *Request) core.Result {
	if req == nil {
		req = &Request{}
	}
	schema := req.Schema
	if schema == "" {
		schema = o.defaultSchema
	}

	ev := core.Event{
		Operation: KindOf(req.Operation),
		Schema:    schema,
		Table:     req.Table,
		Started:   o.now(),
	}

	detail, err := o.dispatch(ctx, schema, req)
	ev.Detail = detail
	return o.finish(ctx, ev, err)
}

func (o *Orchestrator) finish(ctx context.Context, ev core.Event, err error) core.Result {
	res := core.ResultOf(err)
	ev.Outcome = res.Outcome
	ev.Err = err
	ev.Duration = o.now().Sub(ev.Started)

	attrs := []any{
		slog.String("operation", ev.Operation),
		slog.String("schema", ev.Schema),
		slog.String("table", ev.Table),
		slog.String("outcome", ev.Outcome.String()),
	}
	if ev.Detail != "" {
		attrs = append(attrs, slog.String("detail", ev.Detail))
	}
	if err != nil {
		o.logger.Warn("migration did not succeed", append(attrs, slog.String("error", err.Error()))...)
	} else {
		o.logger.Info("migration applied", attrs...)
	}

	if o.observer != nil {
		o.observer.Observe(ev)
	}
	if o.journal != nil {
		if jerr := o.journal.Record(ctx, ev); jerr != nil {
			o.logger.Warn("failed to record migration", slog.String("error", jerr.Error()))
		}
	}
	return res
}

func errNotSet(what string) error {
	return fmt.Errorf("%w: %s not set", core.ErrUnsupportedOperation, what)
}

// requireNames takes (what, name) pairs and rejects the first empty name.
func requireNames(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return fmt.Errorf("%w: %s is required", core.ErrInvalidIdentifier, pairs[i])
		}
	}
	return nil
}

func (o *Orchestrator) dispatch(ctx context.Context, schema string, req *Request) (string, error) {
	switch op := req.Operation.(type) {
	case nil:
		return "", errNotSet("operation")
	case *Drop:
		if op == nil {
			return "", errNotSet("operation")
		}
		return o.drop(ctx, schema, req.Table, op.Entity)
	case *Copy:
		if op == nil {
			return "", errNotSet("operation")
		}
		return o.copy(ctx, schema, req.Table, op.Entity)
	case *Rename:
		if op == nil {
			return "", errNotSet("operation")
		}
		return o.rename(ctx, schema, req.Table, op.Entity)
	case *Add:
		if op == nil {
			return "", errNotSet("operation")
		}
		return o.add(ctx, schema, req.Table, op.Entity)
	case *UpdateColumnValue:
		if op == nil {
			return "", errNotSet("operation")
		}
		return o.updateColumnValue(ctx, schema, req.Table, op)
	case *TableSyncModeMigration:
		if op == nil {
			return "", errNotSet("operation")
		}
		return o.syncMode(ctx, schema, req.Table, op)
	default:
		return "", fmt.Errorf("%w: %T", core.ErrUnsupportedOperation, op)
	}
}
