package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/twm/internal/foundation/errors"
	"git.home.luguber.info/inful/twm/internal/resource"
	"git.home.luguber.info/inful/twm/internal/retry"
	"git.home.luguber.info/inful/twm/internal/translate"
)

// FieldError is a single validation failure.
type FieldError struct {
	Field   string
	Message string
}

func (fe FieldError) Error() string {
	return fmt.Sprintf("field '%s': %s", fe.Field, fe.Message)
}

type validator struct {
	errs []FieldError
}

func (v *validator) failf(field, format string, args ...any) {
	v.errs = append(v.errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) err() error {
	if len(v.errs) == 0 {
		return nil
	}
	msgs := make([]string, len(v.errs))
	for i, fe := range v.errs {
		msgs[i] = fe.Error()
	}
	return errors.ValidationError(strings.Join(msgs, "; ")).
		WithContext("fields", len(v.errs)).
		Build()
}

// Validate checks cfg after defaults have been applied. Translator names are
// checked against the built-in registry.
func Validate(cfg *Config) error {
	return ValidateWith(cfg, translate.DefaultRegistry())
}

// ValidateWith is Validate against a custom translator registry.
func ValidateWith(cfg *Config, reg *translate.Registry) error {
	var v validator

	if !resource.Lang(cfg.Lang).IsValid() {
		v.failf("lang", "must be one of [js ts], got %q", cfg.Lang)
	}
	if cfg.InputPath == "" {
		v.failf("input_path", "required")
	}
	if cfg.OutputPath == "" {
		v.failf("output_path", "required")
	}
	if cfg.InputPath != "" && cfg.OutputPath != "" {
		in, _ := filepath.Abs(cfg.InputPath)
		out, _ := filepath.Abs(cfg.OutputPath)
		if in == out {
			v.failf("output_path", "must differ from input_path")
		} else if resource.IsWithin(out, in) {
			v.failf("output_path", "must not contain input_path")
		}
	}
	if filepath.IsAbs(cfg.BuildPath) {
		v.failf("build_path", "must be relative to input_path")
	}

	seen := map[string]bool{}
	for i, ext := range cfg.Extensions {
		field := fmt.Sprintf("extensions[%d]", i)
		if !strings.HasPrefix(ext.Extname, ".") || len(ext.Extname) < 2 {
			v.failf(field+".extname", "must start with '.', got %q", ext.Extname)
		}
		if ext.Replace != "" && !strings.HasPrefix(ext.Replace, ".") {
			v.failf(field+".replace", "must start with '.', got %q", ext.Replace)
		}
		if seen[ext.Extname] {
			v.failf(field+".extname", "duplicate extension %q", ext.Extname)
		}
		seen[ext.Extname] = true
		if ext.Translator != "" {
			if _, err := reg.Get(ext.Translator); err != nil {
				v.failf(field+".translator", "unknown translator %q, known: %v", ext.Translator, reg.Names())
			}
		}
	}

	if !doublestar.ValidatePattern(cfg.Include) {
		v.failf("include", "invalid glob %q", cfg.Include)
	}
	for _, p := range cfg.OnlyCopy {
		if !doublestar.ValidatePattern(p) {
			v.failf("only_copy", "invalid glob %q", p)
		}
	}
	for _, p := range cfg.Watch.Ignored {
		if !doublestar.ValidatePattern(p) {
			v.failf("watch.ignored", "invalid glob %q", p)
		}
	}

	if cfg.FullRebuildInterval < 0 {
		v.failf("full_rebuild_interval", "must not be negative")
	}
	if cfg.Compiler.Timeout < 0 {
		v.failf("compiler.timeout", "must not be negative")
	}
	if _, err := retry.ParseMode(cfg.Retry.Backoff); err != nil {
		v.failf("retry.backoff", "%v", err)
	}
	if cfg.Retry.MaxRetries < 0 || cfg.Retry.InitialDelay < 0 || cfg.Retry.MaxDelay < 0 {
		v.failf("retry", "values must not be negative")
	}
	if cfg.Metrics.Path != "" && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		v.failf("metrics.path", "must start with '/'")
	}

	return v.err()
}
