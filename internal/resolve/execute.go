package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	ferrors "git.home.luguber.info/inful/twm/internal/foundation/errors"
	"git.home.luguber.info/inful/twm/internal/logfields"
	"git.home.luguber.info/inful/twm/internal/metrics"
	"git.home.luguber.info/inful/twm/internal/resource"
	"git.home.luguber.info/inful/twm/internal/retry"
)

// ErrPartialFailure is returned by Report.Err when at least one action failed.
var ErrPartialFailure = errors.New("build cycle partially failed")

// ActionKind names the kind of an executed action.
type ActionKind string

const (
	ActionCopy  ActionKind = "copy"
	ActionWrite ActionKind = "write"
)

// Outcome is the result of one action.
type Outcome struct {
	Kind     ActionKind
	Source   string
	Path     string // destination
	Skipped  bool
	Err      error
	Duration time.Duration
}

// Report collects the per-item outcomes of one batch.
type Report struct {
	Outcomes []Outcome
	Duration time.Duration
}

// Counts returns copied, written, skipped and failed totals.
func (r *Report) Counts() (copied, written, skipped, failed int) {
	for _, o := range r.Outcomes {
		switch {
		case o.Err != nil:
			failed++
		case o.Skipped:
			skipped++
		case o.Kind == ActionCopy:
			copied++
		default:
			written++
		}
	}
	return
}

// Failures returns the outcomes that carry an error.
func (r *Report) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// Err summarizes the batch: nil when every action succeeded or was skipped,
// otherwise an error wrapping ErrPartialFailure and every item error.
func (r *Report) Err() error {
	failures := r.Failures()
	if len(failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(failures)+1)
	errs = append(errs, fmt.Errorf("%w: %d of %d actions failed", ErrPartialFailure, len(failures), len(r.Outcomes)))
	for _, f := range failures {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}

// Executor performs planned actions against a filesystem.
type Executor struct {
	fs       billy.Filesystem
	recorder metrics.Recorder
	retry    retry.Policy
}

// NewExecutor returns an executor on the host filesystem.
func NewExecutor() *Executor {
	return &Executor{fs: osfs.New(string(filepath.Separator)), recorder: metrics.NoopRecorder{}, retry: retry.None()}
}

// WithFilesystem swaps the filesystem, e.g. for an in-memory one in tests.
func (e *Executor) WithFilesystem(fs billy.Filesystem) *Executor {
	if fs != nil {
		e.fs = fs
	}
	return e
}

// WithRecorder sets the metrics recorder.
func (e *Executor) WithRecorder(r metrics.Recorder) *Executor {
	if r != nil {
		e.recorder = r
	}
	return e
}

// WithRetry retries failed actions under p. Missing sources are not retried.
func (e *Executor) WithRetry(p retry.Policy) *Executor {
	e.retry = p
	return e
}

// Execute launches every action concurrently, waits for all of them and
// returns the per-item report. Existing destinations are overwritten.
func (e *Executor) Execute(ctx context.Context, a Actions) *Report {
	start := time.Now()
	report := &Report{Outcomes: make([]Outcome, a.Len())}

	var wg sync.WaitGroup
	for i, f := range a.Copy {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report.Outcomes[i] = e.run(ctx, ActionCopy, f, func() error { return e.copyFile(f) })
		}()
	}
	for j, f := range a.Write {
		idx := len(a.Copy) + j
		if a.Skip.Has(f.SourceAbsolutePath) {
			report.Outcomes[idx] = Outcome{Kind: ActionWrite, Source: f.SourceAbsolutePath, Path: f.DistAbsolutePath, Skipped: true}
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			report.Outcomes[idx] = e.run(ctx, ActionWrite, f, func() error { return e.writeFile(f) })
		}()
	}
	wg.Wait()
	report.Duration = time.Since(start)

	copied, written, skipped, failed := report.Counts()
	e.recorder.AddActions(string(ActionCopy), copied)
	e.recorder.AddActions(string(ActionWrite), written)
	slog.Debug("Actions executed",
		slog.Int("copied", copied), slog.Int("written", written),
		slog.Int("skipped", skipped), slog.Int("failed", failed),
		logfields.Duration(report.Duration))
	return report
}

func (e *Executor) run(ctx context.Context, kind ActionKind, f *resource.FileResource, fn func() error) Outcome {
	o := Outcome{Kind: kind, Source: f.SourceAbsolutePath, Path: f.DistAbsolutePath}
	if err := ctx.Err(); err != nil {
		o.Err = err
		return o
	}
	t0 := time.Now()
	attempts, err := e.retry.Do(ctx, fn)
	if attempts > 1 {
		slog.Debug("Action retried", "action", kind, logfields.Path(f.SourceAbsolutePath), slog.Int("attempts", attempts))
	}
	if err != nil {
		o.Err = ferrors.WrapError(err, ferrors.CategoryFileSystem, string(kind)+" failed").
			WithContext("source", f.SourceAbsolutePath).
			WithContext("target", f.DistAbsolutePath).
			Build()
		e.recorder.IncActionFailure(string(kind))
		slog.Error("Action failed", "action", kind, logfields.Path(f.SourceAbsolutePath), logfields.Target(f.DistAbsolutePath), logfields.Error(err))
	}
	o.Duration = time.Since(t0)
	return o
}

func (e *Executor) copyFile(f *resource.FileResource) error {
	src, err := e.fs.Open(f.SourceAbsolutePath)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	if err := e.fs.MkdirAll(filepath.Dir(f.DistAbsolutePath), 0o755); err != nil {
		return err
	}
	perm := os.FileMode(0o644)
	if st, err := e.fs.Stat(f.SourceAbsolutePath); err == nil {
		perm = st.Mode().Perm()
	}
	dst, err := e.fs.OpenFile(f.DistAbsolutePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

func (e *Executor) writeFile(f *resource.FileResource) error {
	if err := e.fs.MkdirAll(filepath.Dir(f.DistAbsolutePath), 0o755); err != nil {
		return err
	}
	return util.WriteFile(e.fs, f.DistAbsolutePath, []byte(f.SourceCode), 0o644)
}
