package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/twm/internal/logfields"
	"git.home.luguber.info/inful/twm/internal/metrics"
	"git.home.luguber.info/inful/twm/internal/util/sets"
)

// DefaultAggregateTimeout is the quiet period after the last event before a
// batch is emitted.
const DefaultAggregateTimeout = 300 * time.Millisecond

// DefaultIgnored excludes vendored dependency trees.
var DefaultIgnored = []string{"**/node_modules/**"}

// Aggregator coalesces bursts of events into deduplicated, sorted batches.
type Aggregator struct {
	// Root anchors the Ignored patterns; paths outside it are matched as-is.
	Root    string
	Window  time.Duration
	Ignored []string
	// Tracked filters paths; nil accepts every path.
	Tracked  func(path string) bool
	Recorder metrics.Recorder
}

// Run consumes src until ctx is done or the source closes, calling emit with
// each batch. emit runs on the aggregator goroutine.
func (a *Aggregator) Run(ctx context.Context, src Source, emit func(batch []string)) error {
	window := a.Window
	if window <= 0 {
		window = DefaultAggregateTimeout
	}
	rec := a.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}

	pending := sets.New[string]()
	timer := time.NewTimer(window)
	timer.Stop()

	flush := func() {
		if pending.Len() == 0 {
			return
		}
		batch := sets.Sorted(pending)
		pending = sets.New[string]()
		rec.ObserveWatchBatch(len(batch))
		slog.Debug("Watch batch ready", logfields.Count(len(batch)))
		emit(batch)
	}

	events := src.Events()
	errs := src.Errors()
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-events:
			if !ok {
				timer.Stop()
				flush()
				return nil
			}
			if !a.accept(ev) {
				continue
			}
			pending.Add(ev.Path)
			timer.Reset(window)
		case <-timer.C:
			flush()
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

func (a *Aggregator) accept(ev Event) bool {
	if !ev.Changed() {
		return false
	}
	if a.ignored(ev.Path) {
		slog.Debug("Ignoring event", logfields.Path(ev.Path))
		return false
	}
	if a.Tracked != nil && !a.Tracked(ev.Path) {
		slog.Debug("Ignoring untracked path", logfields.Path(ev.Path))
		return false
	}
	return true
}

func (a *Aggregator) ignored(path string) bool {
	patterns := a.Ignored
	if patterns == nil {
		patterns = DefaultIgnored
	}
	rel := filepath.ToSlash(path)
	if a.Root != "" {
		if r, err := filepath.Rel(a.Root, path); err == nil && !strings.HasPrefix(r, "..") {
			rel = filepath.ToSlash(r)
		}
	}
	rel = strings.TrimPrefix(rel, "/")
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
