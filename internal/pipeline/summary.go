package pipeline

import "time"

// Outcome labels for a finished cycle.
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
)

// Summary is the serializable record of one finished cycle, consumed by the
// history store and the notifier.
type Summary struct {
	ID                string        `json:"id"`
	Kind              CycleKind     `json:"kind"`
	Changed           int           `json:"changed"`
	Copied            int           `json:"copied"`
	Written           int           `json:"written"`
	Skipped           int           `json:"skipped"`
	Failed            int           `json:"failed"`
	TranslateFailures int           `json:"translate_failures"`
	Compiled          bool          `json:"compiled"`
	CompileError      string        `json:"compile_error,omitempty"`
	Outcome           string        `json:"outcome"`
	Error             string        `json:"error,omitempty"`
	Started           time.Time     `json:"started"`
	Duration          time.Duration `json:"duration_ns"`
}

// Summarize builds the summary of c. runErr is the error returned by the
// change stage, if any.
func (c *Cycle) Summarize(runErr error) Summary {
	s := Summary{
		ID:                c.ID,
		Kind:              c.Kind(),
		Changed:           len(c.Changed),
		TranslateFailures: len(c.Failures),
		Compiled:          c.Compiled,
		Started:           c.Started,
		Duration:          time.Since(c.Started),
		Outcome:           OutcomeSuccess,
	}
	if c.CompileErr != nil {
		s.CompileError = c.CompileErr.Error()
	}
	if c.Report != nil {
		s.Copied, s.Written, s.Skipped, s.Failed = c.Report.Counts()
	}
	switch {
	case runErr != nil:
		s.Outcome = OutcomeFailed
		s.Error = runErr.Error()
	case s.Failed > 0 || s.TranslateFailures > 0:
		s.Outcome = OutcomePartial
		if err := c.Err(); err != nil {
			s.Error = err.Error()
		}
	}
	return s
}
