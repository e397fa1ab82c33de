package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "twm.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if !err.IsFatal() {
			t.Error("expected fatal severity")
		}
		file, ok := err.Context().GetString("file")
		if !ok || file != "twm.yaml" {
			t.Errorf("expected context file=twm.yaml, got %v", file)
		}
	})

	t.Run("Detection through wrapping", func(t *testing.T) {
		inner := ScanError("walk failed").Build()
		wrapped := fmt.Errorf("stage scan: %w", inner)

		if !IsClassified(wrapped) {
			t.Fatal("expected wrapped error to be classified")
		}
		if !HasCategory(wrapped, CategoryScan) {
			t.Error("expected scan category")
		}
		if GetSeverity(wrapped) != SeverityFatal {
			t.Errorf("expected fatal, got %s", GetSeverity(wrapped))
		}
		if GetCategory(stderrors.New("plain")) != CategoryInternal {
			t.Error("expected plain errors to map to internal")
		}
	})

	t.Run("WithContext does not mutate the original", func(t *testing.T) {
		base := CompileError("tsc failed").Build()
		derived := base.WithContext("exit_code", 2)

		if _, ok := base.Context().Get("exit_code"); ok {
			t.Error("original context was mutated")
		}
		if v, _ := derived.Context().Get("exit_code"); v != 2 {
			t.Errorf("expected exit_code 2, got %v", v)
		}
	})
}

func TestErrorBuilderWrap(t *testing.T) {
	cause := stderrors.New("permission denied")
	err := WrapError(cause, CategoryFileSystem, "copy failed").
		Warning().
		Retryable().
		WithContext("path", "/tmp/out/a.js").
		Build()

	if !stderrors.Is(err, cause) {
		t.Error("expected error to wrap cause")
	}
	if !err.CanRetry() {
		t.Error("expected retryable error")
	}
	if err.Severity() != SeverityWarning {
		t.Errorf("expected warning, got %s", err.Severity())
	}
	if got := err.Error(); got != "[filesystem:warning] copy failed: permission denied" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad lang").Build(), expected: 2},
		{name: "config", err: ConfigError("missing input_path").Build(), expected: 7},
		{name: "scan", err: ScanError("unreadable root").Build(), expected: 11},
		{name: "watch", err: WatchError("inotify limit").Build(), expected: 12},
		{name: "internal", err: InternalError("boom").Build(), expected: 10},
		{name: "unclassified", err: stderrors.New("unknown"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, nil)
	verbose := NewCLIErrorAdapter(true, nil)
	err := ConfigError("input_path is required").Build()

	if got := quiet.FormatError(err); got != "Error: input_path is required" {
		t.Errorf("unexpected quiet format %q", got)
	}
	if got := verbose.FormatError(err); got != err.Error() {
		t.Errorf("unexpected verbose format %q", got)
	}
	if got := quiet.FormatError(InternalError("x").Build()); got != "Internal error occurred (use -v for details)" {
		t.Errorf("unexpected internal format %q", got)
	}
}
