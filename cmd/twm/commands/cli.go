package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/twm/internal/config"
)

// Global is passed to every command's Run.
type Global struct {
	Stdout io.Writer
	Stderr io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"twm.yaml"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log format (text|json); overrides logging.format"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Watch   WatchCmd   `cmd:"" help:"Scan, clear, build once, then rebuild on every change"`
	Build   BuildCmd   `cmd:"" help:"Scan, clear and run one full build, then exit"`
	Scan    ScanCmd    `cmd:"" help:"Print how each input file is classified"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	History HistoryCmd `cmd:"" help:"Show recorded build cycles"`
}

// AfterApply runs after flag parsing; sets up logging before any config is read.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	setupLogging(os.Stderr, config.LogLevelInfo, config.NormalizeLogFormat(c.LogFormat), c.Verbose)
	return nil
}

// setupLogging installs the default slog logger. verbose forces debug.
func setupLogging(w io.Writer, level config.LogLevel, format config.LogFormat, verbose bool) {
	lvl := level.Slog()
	if verbose {
		lvl = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	if format == config.LogFormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
}

// Overrides are flags that take precedence over config fields.
type Overrides struct {
	Input     string `name:"input" short:"i" help:"Override input_path"`
	Output    string `name:"output" short:"o" help:"Override output_path"`
	Lang      string `name:"lang" help:"Override lang (js|ts)"`
	BuildPath string `name:"build-path" help:"Override build_path"`
}

func (o Overrides) apply(cfg *config.Config) {
	if o.Input != "" {
		cfg.InputPath = o.Input
	}
	if o.Output != "" {
		cfg.OutputPath = o.Output
	}
	if o.Lang != "" {
		cfg.Lang = o.Lang
	}
	if o.BuildPath != "" {
		cfg.BuildPath = o.BuildPath
	}
}

// loadConfig reads the config file, applies o and re-validates, then
// reconfigures logging from the result. A missing file is tolerated when
// overrides name both paths.
func loadConfig(root *CLI, o Overrides) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		if _, statErr := os.Stat(root.Config); !os.IsNotExist(statErr) || o.Input == "" || o.Output == "" {
			return nil, err
		}
		slog.Debug("No config file; using flags and defaults", "path", root.Config)
		cfg = &config.Config{}
		config.ApplyDefaults(cfg)
	}
	o.apply(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	format := config.NormalizeLogFormat(cfg.Logging.Format)
	if root.LogFormat != "" {
		format = config.NormalizeLogFormat(root.LogFormat)
	}
	setupLogging(os.Stderr, config.NormalizeLogLevel(cfg.Logging.Level), format, root.Verbose)
	return cfg, nil
}
