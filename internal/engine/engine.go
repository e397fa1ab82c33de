// Package engine owns the twm session lifecycle: the startup sequence
// (scan, clear, full build), the watch loop, and the serialization of build
// cycles.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	ferrors "git.home.luguber.info/inful/twm/internal/foundation/errors"
	"git.home.luguber.info/inful/twm/internal/logfields"
	"git.home.luguber.info/inful/twm/internal/metrics"
	"git.home.luguber.info/inful/twm/internal/pipeline"
	"git.home.luguber.info/inful/twm/internal/resource"
	"git.home.luguber.info/inful/twm/internal/util/sets"
	"git.home.luguber.info/inful/twm/internal/watch"
)

// ErrNotStarted is returned by Watch before a successful Start.
var ErrNotStarted = errors.New("engine not started")

// Options configures an Engine.
type Options struct {
	Context *resource.Context
	Hooks   *pipeline.Hooks
	// NewSource opens the watch primitive; defaults to fsnotify.
	NewSource func() (watch.Source, error)
	// AggregateTimeout and Ignored tune the event aggregator.
	AggregateTimeout time.Duration
	Ignored          []string
	// FullRebuildInterval > 0 schedules periodic full cycles.
	FullRebuildInterval time.Duration
	Sinks               []CycleSink
	Recorder            metrics.Recorder
}

// Engine drives one session over a shared context.
type Engine struct {
	opts     Options
	rc       *resource.Context
	hooks    *pipeline.Hooks
	recorder metrics.Recorder

	state   atomic.Int32
	started atomic.Bool
	queue   *queue

	// cycleMu guarantees no two cycles overlap, including one-shot Build calls.
	cycleMu sync.Mutex
	tracked sets.Set[string]
}

// New creates an idle engine.
func New(opts Options) (*Engine, error) {
	if opts.Context == nil || opts.Hooks == nil {
		return nil, ferrors.InternalError("engine requires a context and hooks").Build()
	}
	if opts.NewSource == nil {
		opts.NewSource = func() (watch.Source, error) { return watch.NewFSNotifySource() }
	}
	rec := opts.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Engine{opts: opts, rc: opts.Context, hooks: opts.Hooks, recorder: rec, queue: newQueue()}, nil
}

// State reports the current lifecycle state.
func (e *Engine) State() State { return State(e.state.Load()) }

func (e *Engine) setState(s State) {
	prev := State(e.state.Swap(int32(s)))
	if prev != s {
		slog.Debug("Engine state", logfields.State(s.String()), slog.String("from", prev.String()))
	}
}

// Start runs scan, clear and the first full build. On failure the state is
// left at the failing stage.
func (e *Engine) Start(ctx context.Context) (pipeline.Summary, error) {
	e.setState(StateScanning)
	if err := e.hooks.Scan.Call(ctx, e.rc); err != nil {
		return pipeline.Summary{}, ferrors.WrapError(err, ferrors.CategoryScan, "scan stage failed").Fatal().Build()
	}
	e.indexTracked()

	e.setState(StateClearing)
	if err := e.hooks.Clear.Call(ctx, e.rc); err != nil {
		return pipeline.Summary{}, ferrors.WrapError(err, ferrors.CategoryPipeline, "clear stage failed").Fatal().Build()
	}

	e.setState(StateBuilding)
	sum, err := e.runCycle(context.WithoutCancel(ctx), nil)
	if err != nil {
		return sum, err
	}
	e.started.Store(true)
	return sum, nil
}

// Build runs one cycle scoped to changed (nil for full) outside the watch
// loop, serialized with any running cycle.
func (e *Engine) Build(ctx context.Context, changed []*resource.FileResource) (pipeline.Summary, error) {
	return e.runCycle(ctx, changed)
}

// Run is Start followed by Watch.
func (e *Engine) Run(ctx context.Context) error {
	if _, err := e.Start(ctx); err != nil {
		return err
	}
	return e.Watch(ctx)
}

// Watch subscribes to the tracked sources and runs a scoped cycle for every
// aggregated batch until ctx is done. A cycle that has started runs to
// completion before Watch returns.
func (e *Engine) Watch(ctx context.Context) error {
	if !e.started.Load() {
		return ErrNotStarted
	}
	src, err := e.opts.NewSource()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryWatch, "open watcher").Fatal().Build()
	}
	defer func() { _ = src.Close() }()

	paths := make([]string, 0, len(e.rc.Resources))
	for _, r := range e.rc.Resources {
		paths = append(paths, r.SourceAbsolutePath)
	}
	if err := src.Watch(paths); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryWatch, "subscribe to sources").Fatal().Build()
	}

	if e.opts.FullRebuildInterval > 0 {
		sched, err := NewScheduler()
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryInternal, "create scheduler").Build()
		}
		if _, err := sched.ScheduleFullRebuild(e.opts.FullRebuildInterval, e.RequestFull); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryInternal, "schedule full rebuild").Build()
		}
		sched.Start(ctx)
		defer func() {
			if err := sched.Stop(context.Background()); err != nil {
				slog.Warn("scheduler shutdown error", logfields.Error(err))
			}
		}()
	}

	e.setState(StateWatching)
	slog.Info("Watching for changes", logfields.Count(len(paths)))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.worker(ctx)
	}()

	agg := &watch.Aggregator{
		Root:     e.rc.InputPath,
		Window:   e.opts.AggregateTimeout,
		Ignored:  e.opts.Ignored,
		Tracked:  e.isTracked,
		Recorder: e.recorder,
	}
	aggErr := agg.Run(ctx, src, e.Submit)
	wg.Wait()
	e.setState(StateIdle)
	if aggErr != nil {
		return ferrors.WrapError(aggErr, ferrors.CategoryWatch, "watch loop failed").Build()
	}
	return nil
}

// Submit resolves paths against the tracked resources and merges the hits
// into the pending change set. Unknown paths, including files created after
// the scan, are dropped.
func (e *Engine) Submit(paths []string) {
	var hits []*resource.FileResource
	for _, p := range paths {
		r, ok := e.rc.Lookup(p)
		if !ok {
			slog.Debug("Dropping change for untracked path", logfields.Path(p))
			continue
		}
		hits = append(hits, r)
	}
	e.queue.addScoped(hits)
}

// RequestFull merges a full rebuild into the pending change set.
func (e *Engine) RequestFull() { e.queue.addFull() }

func (e *Engine) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.queue.wake:
		}
		for {
			set := e.queue.take()
			if set == nil {
				break
			}
			changed := set.resources()
			if !set.full && len(changed) == 0 {
				continue
			}
			// Started cycles run to completion regardless of cancellation.
			if _, err := e.runCycle(context.WithoutCancel(ctx), changed); err != nil {
				slog.Error("Build cycle failed", logfields.Error(err))
			}
			if ctx.Err() != nil {
				return
			}
		}
	}
}

func (e *Engine) runCycle(ctx context.Context, changed []*resource.FileResource) (pipeline.Summary, error) {
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	prev := e.State()
	e.setState(StateBuilding)
	defer func() {
		if prev == StateWatching {
			e.setState(StateWatching)
		}
	}()

	cycle := pipeline.NewCycle(uuid.NewString(), e.rc, changed)
	log := slog.With(logfields.CycleID(cycle.ID), logfields.CycleKind(string(cycle.Kind())))
	log.Info("Build cycle started", logfields.Count(len(changed)))

	out, runErr := e.hooks.Change.Call(ctx, cycle)
	if out == nil {
		out = cycle
	}
	sum := out.Summarize(runErr)

	e.recorder.ObserveCycleDuration(string(sum.Kind), sum.Duration)
	e.recorder.IncCycleOutcome(string(sum.Kind), outcomeLabel(sum.Outcome))

	attrs := []any{
		slog.Int("copied", sum.Copied), slog.Int("written", sum.Written),
		slog.Int("skipped", sum.Skipped), slog.Int("failed", sum.Failed),
		logfields.Duration(sum.Duration), slog.String("outcome", sum.Outcome),
	}
	switch sum.Outcome {
	case pipeline.OutcomeSuccess:
		log.Info("Build cycle complete", attrs...)
	default:
		log.Warn("Build cycle finished with errors", append(attrs, slog.String("error", sum.Error))...)
	}

	for _, s := range e.opts.Sinks {
		if err := s.Record(ctx, sum); err != nil {
			log.Warn("Cycle sink failed", logfields.Error(err))
		}
	}

	if runErr != nil {
		return sum, ferrors.WrapError(runErr, ferrors.CategoryPipeline, "change stage failed").
			WithContext("cycle_id", cycle.ID).Build()
	}
	return sum, nil
}

func outcomeLabel(o string) metrics.CycleOutcomeLabel {
	switch o {
	case pipeline.OutcomeSuccess:
		return metrics.CycleSuccess
	case pipeline.OutcomePartial:
		return metrics.CyclePartial
	default:
		return metrics.CycleFailed
	}
}

// indexTracked caches the NFC-normalized tracked source paths so the
// aggregator can drop untracked events without a linear scan.
func (e *Engine) indexTracked() {
	t := sets.New[string]()
	for _, r := range e.rc.Resources {
		t.Add(norm.NFC.String(r.SourceAbsolutePath))
	}
	e.tracked = t
	slog.Debug("Tracked sources indexed", logfields.Count(t.Len()))
}

func (e *Engine) isTracked(path string) bool {
	return e.tracked.Has(norm.NFC.String(path))
}

// String describes the engine for logs.
func (e *Engine) String() string {
	return fmt.Sprintf("engine(%s -> %s, %s)", e.rc.InputPath, e.rc.OutputPath, e.State())
}
