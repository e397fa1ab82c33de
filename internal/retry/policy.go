// Package retry provides backoff policies for transient output failures.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"git.home.luguber.info/inful/twm/internal/foundation/normalization"
)

// Mode selects how the delay grows between attempts.
type Mode string

const (
	ModeFixed       Mode = "fixed"
	ModeLinear      Mode = "linear"
	ModeExponential Mode = "exponential"
)

var modes = normalization.NewNormalizer(map[string]Mode{
	"fixed":       ModeFixed,
	"linear":      ModeLinear,
	"exponential": ModeExponential,
}, ModeLinear)

// ParseMode folds raw onto a Mode; empty yields linear.
func ParseMode(raw string) (Mode, error) {
	return modes.Parse(raw)
}

// Policy encapsulates retry/backoff settings. It is immutable after construction.
type Policy struct {
	Mode       Mode
	Initial    time.Duration // base delay
	Max        time.Duration // cap for growth
	MaxRetries int           // attempts after the first failure
}

// None performs each action exactly once.
func None() Policy {
	return Policy{Mode: ModeFixed, Initial: time.Millisecond, Max: time.Millisecond}
}

// DefaultPolicy is linear from 50ms, capped at 1s, with two retries.
func DefaultPolicy() Policy {
	return Policy{Mode: ModeLinear, Initial: 50 * time.Millisecond, Max: time.Second, MaxRetries: 2}
}

// NewPolicy builds a policy; zero or invalid values fall back to defaults.
func NewPolicy(mode Mode, initial, maxDuration time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDuration > 0 {
		p.Max = maxDuration
	}
	switch mode {
	case ModeFixed, ModeLinear, ModeExponential:
		p.Mode = mode
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// Delay returns the backoff before retry attempt n (1-based).
func (p Policy) Delay(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	var d time.Duration
	switch p.Mode {
	case ModeFixed:
		d = p.Initial
	case ModeExponential:
		d = p.Initial << min(n-1, 30)
	default:
		d = time.Duration(n) * p.Initial
	}
	return min(d, p.Max)
}

// Validate ensures the policy can be applied.
func (p Policy) Validate() error {
	if p.Initial <= 0 {
		return fmt.Errorf("initial must be >0")
	}
	if p.Max <= 0 {
		return fmt.Errorf("max must be >0")
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	return nil
}

// Permanent reports errors that no retry can fix: a missing source or a
// permission denial.
func Permanent(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission)
}

// Do runs fn until it succeeds, fails permanently, ctx is done or the retries
// are spent. It returns the number of attempts and the last error.
func (p Policy) Do(ctx context.Context, fn func() error) (int, error) {
	attempt := 0
	for {
		attempt++
		err := fn()
		if err == nil || Permanent(err) || attempt > p.MaxRetries {
			return attempt, err
		}
		t := time.NewTimer(p.Delay(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return attempt, err
		case <-t.C:
		}
	}
}
