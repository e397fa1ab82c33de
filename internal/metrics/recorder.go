package metrics

import "time"

// ResultLabel enumerates per-tap result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// CycleOutcomeLabel enumerates the final status of one build cycle.
type CycleOutcomeLabel string

const (
	CycleSuccess CycleOutcomeLabel = "success"
	CyclePartial CycleOutcomeLabel = "partial"
	CycleFailed  CycleOutcomeLabel = "failed"
)

// Recorder defines observability hooks for hook taps, build cycles and the
// watcher. All methods must be safe to call concurrently.
type Recorder interface {
	ObserveTapDuration(stage, tap string, d time.Duration)
	IncTapResult(stage, tap string, result ResultLabel)
	ObserveCycleDuration(kind string, d time.Duration)
	IncCycleOutcome(kind string, outcome CycleOutcomeLabel)
	AddActions(action string, n int)
	IncActionFailure(action string)
	IncTranslateFailure(translator string)
	ObserveCompileDuration(d time.Duration, success bool)
	SetTrackedFiles(collection string, n int)
	ObserveWatchBatch(size int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveTapDuration(string, string, time.Duration) {}
func (NoopRecorder) IncTapResult(string, string, ResultLabel)         {}
func (NoopRecorder) ObserveCycleDuration(string, time.Duration)       {}
func (NoopRecorder) IncCycleOutcome(string, CycleOutcomeLabel)        {}
func (NoopRecorder) AddActions(string, int)                           {}
func (NoopRecorder) IncActionFailure(string)                          {}
func (NoopRecorder) IncTranslateFailure(string)                       {}
func (NoopRecorder) ObserveCompileDuration(time.Duration, bool)       {}
func (NoopRecorder) SetTrackedFiles(string, int)                      {}
func (NoopRecorder) ObserveWatchBatch(int)                            {}
