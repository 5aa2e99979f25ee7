package core

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers branch on these with errors.Is.
var (
	ErrUnsupportedType      = errors.New("unsupported data type")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrNotFound             = errors.New("not found")
	ErrInvalidIdentifier    = errors.New("invalid identifier")

	// ErrUnsupportedTransition is a sync-mode transition the engine refuses to perform.
	ErrUnsupportedTransition = fmt.Errorf("%w: sync mode transition", ErrUnsupportedOperation)
)

// SchemaError is a failed DDL or DML statement against the backing store.
type SchemaError struct {
	Op     string
	Schema string
	Table  string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Schema == "" && e.Table == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Table == "" {
		return fmt.Sprintf("%s %q: %v", e.Op, e.Schema, e.Err)
	}
	return fmt.Sprintf("%s %q.%q: %v", e.Op, e.Schema, e.Table, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// NewSchemaError wraps err, returning nil when err is nil.
func NewSchemaError(op, schema, table string, err error) error {
	if err == nil {
		return nil
	}
	return &SchemaError{Op: op, Schema: schema, Table: table, Err: err}
}

// NotFoundError builds an ErrNotFound for a table or a column within it.
func NotFoundError(schema, table, column string) error {
	if column == "" {
		return fmt.Errorf("table %q.%q: %w", schema, table, ErrNotFound)
	}
	return fmt.Errorf("column %q in table %q.%q: %w", column, schema, table, ErrNotFound)
}

// Outcome is the terminal state of a table operation or migration.
type Outcome int

// Outcomes.
const (
	Success Outcome = iota
	Failure
	Unsupported
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Unsupported:
		return "unsupported"
	case NotFound:
		return "not_found"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// OutcomeOf classifies err. Disallowed sync-mode transitions are failures,
// other unsupported operations and types are Unsupported.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, ErrUnsupportedTransition):
		return Failure
	case errors.Is(err, ErrUnsupportedOperation), errors.Is(err, ErrUnsupportedType):
		return Unsupported
	case errors.Is(err, ErrNotFound):
		return NotFound
	default:
		return Failure
	}
}

// Result is the definite answer returned for every request.
type Result struct {
	Outcome Outcome
	Err     error
}

// ResultOf builds a Result from err.
func ResultOf(err error) Result {
	return Result{Outcome: OutcomeOf(err), Err: err}
}

// OK reports whether the request succeeded.
func (r Result) OK() bool {
	return r.Outcome == Success
}
