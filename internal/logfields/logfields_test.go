package logfields

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"CycleID", KeyCycleID, "c1", CycleID("c1")},
		{"CycleKind", KeyCycleKind, "full", CycleKind("full")},
		{"Stage", KeyStage, "scan", Stage("scan")},
		{"Plugin", KeyPlugin, "GlobbyPath", Plugin("GlobbyPath")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Target", KeyTarget, "/tmp/y", Target("/tmp/y")},
		{"State", KeyState, "watching", State("watching")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if tc.attr.Value.String() != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %s", tc.name, tc.attrVal, tc.attr.Value.String())
		}
	}
}

func TestNumericAndErrorHelpers(t *testing.T) {
	if a := Count(3); a.Key != KeyCount || a.Value.Int64() != 3 {
		t.Fatalf("unexpected count attr %v", a)
	}
	if a := Duration(1500 * time.Microsecond); a.Value.Float64() != 1.5 {
		t.Fatalf("expected 1.5ms, got %v", a.Value.Float64())
	}
	if a := Error(nil); a.Value.String() != "" {
		t.Fatalf("expected empty error value, got %q", a.Value.String())
	}
	if a := Error(errors.New("boom")); a.Key != KeyError || a.Value.String() != "boom" {
		t.Fatalf("unexpected error attr %v", a)
	}
}
