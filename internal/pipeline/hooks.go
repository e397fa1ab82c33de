package pipeline

import (
	"time"

	"git.home.luguber.info/inful/twm/internal/hook"
	"git.home.luguber.info/inful/twm/internal/metrics"
	"git.home.luguber.info/inful/twm/internal/resolve"
	"git.home.luguber.info/inful/twm/internal/resource"
	"git.home.luguber.info/inful/twm/internal/util/sets"
)

// Stage names.
const (
	StageScan   = "scan"
	StageClear  = "clear"
	StageChange = "change"
)

// IsStage reports whether s names one of the fixed stages.
func IsStage(s string) bool {
	return s == StageScan || s == StageClear || s == StageChange
}

// Hooks are the fixed stages of a session.
type Hooks struct {
	Scan   *hook.Series[*resource.Context]
	Clear  *hook.Series[*resource.Context]
	Change *hook.Waterfall[*Cycle]
}

// NewHooks creates empty stage hooks reporting to rec.
func NewHooks(rec metrics.Recorder) *Hooks {
	return &Hooks{
		Scan:   hook.NewSeries[*resource.Context](StageScan).WithRecorder(rec),
		Clear:  hook.NewSeries[*resource.Context](StageClear).WithRecorder(rec),
		Change: hook.NewWaterfall[*Cycle](StageChange).WithRecorder(rec),
	}
}

// CycleKind distinguishes full builds from scoped rebuilds.
type CycleKind string

const (
	CycleFull   CycleKind = "full"
	CycleScoped CycleKind = "scoped"
)

// TranslateFailure records one file whose translation failed.
type TranslateFailure struct {
	Path string
	Err  error
}

// Cycle is the value threaded through the change stage.
type Cycle struct {
	ID      string
	Context *resource.Context
	// Changed is nil for a full build.
	Changed []*resource.FileResource
	Started time.Time

	Compiled   bool
	CompileErr error

	// Failed holds target source paths whose translation failed.
	Failed   sets.Set[string]
	Failures []TranslateFailure

	Actions resolve.Actions
	Report  *resolve.Report
}

// NewCycle creates a cycle for changed (nil for full).
func NewCycle(id string, rc *resource.Context, changed []*resource.FileResource) *Cycle {
	return &Cycle{ID: id, Context: rc, Changed: changed, Started: time.Now(), Failed: sets.New[string]()}
}

// Kind reports whether this is a full or scoped cycle.
func (c *Cycle) Kind() CycleKind {
	if len(c.Changed) == 0 {
		return CycleFull
	}
	return CycleScoped
}

// Fail records a translation failure for target.
func (c *Cycle) Fail(target *resource.FileResource, err error) {
	c.Failed.Add(target.SourceAbsolutePath)
	c.Failures = append(c.Failures, TranslateFailure{Path: target.SourceAbsolutePath, Err: err})
}

// Err is the cycle-level error: the executor's partial-failure summary, if any.
func (c *Cycle) Err() error {
	if c.Report == nil {
		return nil
	}
	return c.Report.Err()
}
