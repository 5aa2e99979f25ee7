// Package journal keeps an append-only SQLite record of every table
// operation and migration outcome.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/leapstack-labs/leapdest/pkg/core"
)

// MemoryPath opens a journal that lives only as long as the process.
const MemoryPath = ":memory:"

// Entry is one recorded outcome.
type Entry struct {
	ID         string        `json:"id"`
	RecordedAt time.Time     `json:"recorded_at"`
	Operation  string        `json:"operation"`
	Schema     string        `json:"schema"`
	Table      string        `json:"table"`
	Outcome    string        `json:"outcome"`
	Error      string        `json:"error,omitempty"`
	Detail     string        `json:"detail,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Journal is a SQLite-backed core.Recorder.
type Journal struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
	now    func() time.Time
}

var _ core.Recorder = (*Journal)(nil)

// Open opens or creates the journal at path and applies pending migrations.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	dsn := MemoryPath
	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create journal directory: %w", err)
			}
		}
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// One connection keeps :memory: journals on a single database and
	// serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping journal: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Debug("journal opened", slog.String("path", path))
	return &Journal{db: db, path: path, logger: logger, now: time.Now}, nil
}

// Path returns the journal location.
func (j *Journal) Path() string {
	return j.path
}

// Record appends ev.
func (j *Journal) Record(ctx context.Context, ev core.Event) error {
	recordedAt := ev.Started
	if recordedAt.IsZero() {
		recordedAt = j.now()
	}

	var errMsg, detail *string
	if ev.Err != nil {
		s := ev.Err.Error()
		errMsg = &s
	}
	if ev.Detail != "" {
		detail = &ev.Detail
	}

	id := uuid.New().String()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO journal (id, recorded_at, operation, schema_name, table_name, outcome, error, detail, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, recordedAt.UTC().Format(time.RFC3339Nano), ev.Operation, ev.Schema, ev.Table,
		ev.Outcome.String(), errMsg, detail, ev.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to record %s: %w", ev.Operation, err)
	}

	j.logger.Debug("journal entry recorded", slog.String("id", id), slog.String("operation", ev.Operation))
	return nil
}

// List returns up to limit entries, newest first. A limit of zero or less returns every entry.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, recorded_at, operation, schema_name, table_name, outcome, error, detail, duration_ms
		FROM journal ORDER BY recorded_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var (
			e             Entry
			recordedAt    string
			errMsg        sql.NullString
			detail        sql.NullString
			durationMilli int64
		)
		if err := rows.Scan(&e.ID, &recordedAt, &e.Operation, &e.Schema, &e.Table, &e.Outcome,
			&errMsg, &detail, &durationMilli); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		e.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("journal entry %s has a bad timestamp: %w", e.ID, err)
		}
		e.Error = errMsg.String
		e.Detail = detail.String
		e.Duration = time.Duration(durationMilli) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the journal database.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}
