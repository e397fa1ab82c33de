package eventstore

import (
	"context"

	"git.home.luguber.info/inful/twm/internal/pipeline"
)

// Store persists and retrieves cycle summaries.
type Store interface {
	// Record appends one cycle summary.
	Record(ctx context.Context, s pipeline.Summary) error

	// Get retrieves the summary of one cycle.
	Get(ctx context.Context, id string) (pipeline.Summary, error)

	// Recent returns up to limit summaries, newest first.
	Recent(ctx context.Context, limit int) ([]pipeline.Summary, error)

	// Totals aggregates every recorded cycle.
	Totals(ctx context.Context) (Totals, error)

	// Close closes the store and releases resources.
	Close() error
}

// Totals is the aggregate over all recorded cycles.
type Totals struct {
	Cycles  int
	Full    int
	Partial int
	Failed  int
	Copied  int
	Written int
}
