package core

import (
	"context"
	"time"
)

// Event describes one finished table operation or migration.
type Event struct {
	Operation string
	Schema    string
	Table     string
	Outcome   Outcome
	Err       error
	// Detail is a short human-readable summary, e.g. the columns touched.
	Detail   string
	Started  time.Time
	Duration time.Duration
}

// Recorder persists events. Implementations must be safe to call after a failed operation.
type Recorder interface {
	Record(ctx context.Context, e Event) error
}

// Observer receives every event synchronously.
type Observer interface {
	Observe(e Event)
}
