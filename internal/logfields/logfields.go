package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyCycleID    = "cycle_id"
	KeyCycleKind  = "cycle_kind"
	KeyStage      = "stage"
	KeyPlugin     = "plugin"
	KeyPath       = "path"
	KeyTarget     = "target"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyState      = "state"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func CycleID(id string) slog.Attr     { return slog.String(KeyCycleID, id) }
func CycleKind(k string) slog.Attr    { return slog.String(KeyCycleKind, k) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Plugin(name string) slog.Attr    { return slog.String(KeyPlugin, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Target(p string) slog.Attr       { return slog.String(KeyTarget, p) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func State(s string) slog.Attr        { return slog.String(KeyState, s) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

// Duration converts d to the canonical duration_ms field.
func Duration(d time.Duration) slog.Attr {
	return DurationMS(float64(d.Microseconds()) / 1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
