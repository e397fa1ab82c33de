// Package hook provides the two typed stage combinators the build pipeline is
// made of: Series, whose taps run in order with results discarded, and
// Waterfall, whose taps each receive the previous tap's output.
//
// Taps on one hook always run sequentially on the caller's goroutine. The
// first tap error stops the hook and is returned wrapped with the tap name.
package hook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/twm/internal/logfields"
	"git.home.luguber.info/inful/twm/internal/metrics"
)

// ErrDuplicateTap is returned when a tap name is already registered on a hook.
var ErrDuplicateTap = errors.New("tap already registered")

// TapError identifies the tap that stopped a hook.
type TapError struct {
	Stage string
	Tap   string
	Err   error
}

func (e *TapError) Error() string { return fmt.Sprintf("%s/%s: %v", e.Stage, e.Tap, e.Err) }
func (e *TapError) Unwrap() error { return e.Err }

type base struct {
	stage    string
	recorder metrics.Recorder
	names    map[string]struct{}
}

func newBase(stage string) base {
	return base{stage: stage, recorder: metrics.NoopRecorder{}, names: map[string]struct{}{}}
}

func (b *base) claim(name string) error {
	if _, ok := b.names[name]; ok {
		return fmt.Errorf("%w: %s on %s", ErrDuplicateTap, name, b.stage)
	}
	b.names[name] = struct{}{}
	return nil
}

// observe runs fn for one tap, logging and recording its duration and result.
func (b *base) observe(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		b.recorder.IncTapResult(b.stage, name, metrics.ResultCanceled)
		return &TapError{Stage: b.stage, Tap: name, Err: err}
	}
	start := time.Now()
	err := fn()
	dur := time.Since(start)
	b.recorder.ObserveTapDuration(b.stage, name, dur)
	if err != nil {
		b.recorder.IncTapResult(b.stage, name, metrics.ResultFailed)
		slog.Error("Hook tap failed", logfields.Stage(b.stage), logfields.Plugin(name), logfields.Duration(dur), logfields.Error(err))
		return &TapError{Stage: b.stage, Tap: name, Err: err}
	}
	b.recorder.IncTapResult(b.stage, name, metrics.ResultSuccess)
	slog.Debug("Hook tap complete", logfields.Stage(b.stage), logfields.Plugin(name), logfields.Duration(dur))
	return nil
}

// SeriesFunc is a tap on a Series hook.
type SeriesFunc[T any] func(ctx context.Context, v T) error

type seriesTap[T any] struct {
	name string
	fn   SeriesFunc[T]
}

// Series runs every tap with the same input, in registration order.
type Series[T any] struct {
	base
	taps []seriesTap[T]
}

// NewSeries creates an empty series hook for stage.
func NewSeries[T any](stage string) *Series[T] {
	return &Series[T]{base: newBase(stage)}
}

// WithRecorder sets the metrics recorder used for tap observations.
func (h *Series[T]) WithRecorder(r metrics.Recorder) *Series[T] {
	if r != nil {
		h.recorder = r
	}
	return h
}

// Tap appends a named handler.
func (h *Series[T]) Tap(name string, fn SeriesFunc[T]) error {
	if err := h.claim(name); err != nil {
		return err
	}
	h.taps = append(h.taps, seriesTap[T]{name: name, fn: fn})
	return nil
}

// Call runs the taps in order and stops at the first error.
func (h *Series[T]) Call(ctx context.Context, v T) error {
	for _, t := range h.taps {
		if err := h.observe(ctx, t.name, func() error { return t.fn(ctx, v) }); err != nil {
			return err
		}
	}
	return nil
}

// Names lists the registered taps in order.
func (h *Series[T]) Names() []string {
	out := make([]string, len(h.taps))
	for i, t := range h.taps {
		out[i] = t.name
	}
	return out
}

// WaterfallFunc is a tap on a Waterfall hook.
type WaterfallFunc[T any] func(ctx context.Context, v T) (T, error)

type waterfallTap[T any] struct {
	name string
	fn   WaterfallFunc[T]
}

// Waterfall threads a value through every tap in registration order.
type Waterfall[T any] struct {
	base
	taps []waterfallTap[T]
}

// NewWaterfall creates an empty waterfall hook for stage.
func NewWaterfall[T any](stage string) *Waterfall[T] {
	return &Waterfall[T]{base: newBase(stage)}
}

// WithRecorder sets the metrics recorder used for tap observations.
func (h *Waterfall[T]) WithRecorder(r metrics.Recorder) *Waterfall[T] {
	if r != nil {
		h.recorder = r
	}
	return h
}

// Tap appends a named handler.
func (h *Waterfall[T]) Tap(name string, fn WaterfallFunc[T]) error {
	if err := h.claim(name); err != nil {
		return err
	}
	h.taps = append(h.taps, waterfallTap[T]{name: name, fn: fn})
	return nil
}

// Call passes v to the first tap and each output to the next. With no taps it
// returns v unchanged.
func (h *Waterfall[T]) Call(ctx context.Context, v T) (T, error) {
	cur := v
	for _, t := range h.taps {
		var next T
		err := h.observe(ctx, t.name, func() error {
			var err error
			next, err = t.fn(ctx, cur)
			return err
		})
		if err != nil {
			var zero T
			return zero, err
		}
		cur = next
	}
	return cur, nil
}

// Names lists the registered taps in order.
func (h *Waterfall[T]) Names() []string {
	out := make([]string, len(h.taps))
	for i, t := range h.taps {
		out[i] = t.name
	}
	return out
}
