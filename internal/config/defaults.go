package config

import (
	"slices"

	"git.home.luguber.info/inful/twm/internal/classify"
	"git.home.luguber.info/inful/twm/internal/compiler"
	"git.home.luguber.info/inful/twm/internal/metrics"
	"git.home.luguber.info/inful/twm/internal/notify"
	"git.home.luguber.info/inful/twm/internal/resource"
	"git.home.luguber.info/inful/twm/internal/watch"
)

// Defaults for fields left empty.
const (
	DefaultInputPath   = "."
	DefaultOutputPath  = "dist"
	DefaultLang        = string(resource.LangJS)
	DefaultMetricsPath = metrics.DefaultPath
)

// ApplyDefaults fills empty fields in place. A non-empty list replaces the
// default list rather than extending it.
func ApplyDefaults(cfg *Config) {
	if cfg.InputPath == "" {
		cfg.InputPath = DefaultInputPath
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = DefaultOutputPath
	}
	if cfg.Lang == "" {
		cfg.Lang = DefaultLang
	}
	if cfg.Include == "" {
		cfg.Include = classify.DefaultInclude
	}
	if cfg.OnlyCopy == nil {
		cfg.OnlyCopy = slices.Clone(classify.DefaultOnlyCopy)
	}

	if cfg.Watch.AggregateTimeout <= 0 {
		cfg.Watch.AggregateTimeout = watch.DefaultAggregateTimeout
	}
	if cfg.Watch.Ignored == nil {
		cfg.Watch.Ignored = slices.Clone(watch.DefaultIgnored)
	}

	if cfg.Compiler.Command == "" {
		cfg.Compiler.Command = compiler.DefaultCommand
		if cfg.Compiler.Args == nil {
			cfg.Compiler.Args = slices.Clone(compiler.DefaultArgs)
		}
	}

	if cfg.Notify.NATSURL != "" && cfg.Notify.Subject == "" {
		cfg.Notify.Subject = notify.DefaultSubject
	}
	if cfg.Metrics.Listen != "" && cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	cfg.Logging.Level = string(NormalizeLogLevel(cfg.Logging.Level))
	cfg.Logging.Format = string(NormalizeLogFormat(cfg.Logging.Format))
}
