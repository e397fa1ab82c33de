package engine

import (
	"context"

	"git.home.luguber.info/inful/twm/internal/pipeline"
)

// CycleSink receives the summary of every finished cycle. Sink errors are
// logged and never fail the cycle.
type CycleSink interface {
	Record(ctx context.Context, s pipeline.Summary) error
}

// CycleSinkFunc adapts a function to CycleSink.
type CycleSinkFunc func(ctx context.Context, s pipeline.Summary) error

func (f CycleSinkFunc) Record(ctx context.Context, s pipeline.Summary) error { return f(ctx, s) }
