package pipeline

import (
	"context"
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/twm/internal/classify"
	"git.home.luguber.info/inful/twm/internal/compiler"
	ferrors "git.home.luguber.info/inful/twm/internal/foundation/errors"
	"git.home.luguber.info/inful/twm/internal/logfields"
	"git.home.luguber.info/inful/twm/internal/metrics"
	"git.home.luguber.info/inful/twm/internal/resolve"
	"git.home.luguber.info/inful/twm/internal/resource"
	"git.home.luguber.info/inful/twm/internal/translate"
)

// Default plugin names, in registration order.
const (
	PluginGlobbyPath      = "GlobbyPath"
	PluginTranslateTS     = "TranslateTS"
	PluginTranslateFile   = "TranslateFile"
	PluginClearOutputFile = "ClearOutputFile"
	PluginCopyFile        = "CopyFile"
)

const tsExt = ".ts"

// Deps are the collaborators the default plugins need.
type Deps struct {
	Classifier *classify.Classifier
	Compiler   compiler.Compiler
	Executor   *resolve.Executor
	Recorder   metrics.Recorder
}

// DefaultPlugins returns the built-in plugins in their required order.
func DefaultPlugins(d Deps) []Plugin {
	if d.Recorder == nil {
		d.Recorder = metrics.NoopRecorder{}
	}
	if d.Compiler == nil {
		d.Compiler = compiler.Noop{}
	}
	if d.Executor == nil {
		d.Executor = resolve.NewExecutor()
	}
	return []Plugin{
		&GlobbyPath{Classifier: d.Classifier, Recorder: d.Recorder},
		&TranslateTS{Compiler: d.Compiler, Recorder: d.Recorder},
		&TranslateFile{Recorder: d.Recorder},
		&ClearOutputFile{},
		&CopyFile{Executor: d.Executor},
	}
}

// NewDefaultRegistry registers DefaultPlugins(d).
func NewDefaultRegistry(d Deps) (*Registry, error) {
	r := NewRegistry()
	for _, p := range DefaultPlugins(d) {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// GlobbyPath runs the classifier over the input tree.
type GlobbyPath struct {
	Classifier *classify.Classifier
	Recorder   metrics.Recorder
}

func (p *GlobbyPath) Metadata() Metadata {
	return Metadata{Name: PluginGlobbyPath, Stage: StageScan, Description: "classify every input file"}
}

func (p *GlobbyPath) Apply(h *Hooks) error {
	return h.Scan.Tap(PluginGlobbyPath, func(ctx context.Context, rc *resource.Context) error {
		c := p.Classifier
		if c == nil {
			var err error
			if c, err = classify.New(classify.Options{}); err != nil {
				return err
			}
		}
		stats, err := c.Scan(ctx, rc)
		if err != nil {
			return err
		}
		for coll, n := range stats.Counts {
			p.Recorder.SetTrackedFiles(string(coll), n)
		}
		return nil
	})
}

// TranslateTS runs the type compiler when the cycle needs it: on a full build
// of a ts project, or when any changed file is a .ts file.
type TranslateTS struct {
	Compiler compiler.Compiler
	Recorder metrics.Recorder
}

func (p *TranslateTS) Metadata() Metadata {
	return Metadata{Name: PluginTranslateTS, Stage: StageChange, Description: "run the type compiler"}
}

func (p *TranslateTS) Apply(h *Hooks) error {
	return h.Change.Tap(PluginTranslateTS, func(ctx context.Context, c *Cycle) (*Cycle, error) {
		if !needsCompile(c) {
			return c, nil
		}
		start := time.Now()
		err := p.Compiler.Compile(ctx, c.Context.InputPath)
		p.Recorder.ObserveCompileDuration(time.Since(start), err == nil)
		c.Compiled = true
		if err != nil {
			c.CompileErr = err
			slog.Warn("Compile failed; continuing with existing outputs", logfields.CycleID(c.ID), logfields.Error(err))
		}
		return c, nil
	})
}

func needsCompile(c *Cycle) bool {
	if c.Kind() == CycleFull {
		return c.Context.Lang == resource.LangTS
	}
	for _, f := range c.Changed {
		if f.Extname == tsExt {
			return true
		}
	}
	return false
}

// TranslateFile runs the rule translator for every translate mapping in scope.
// Failures are isolated per file and recorded on the cycle.
type TranslateFile struct {
	Recorder metrics.Recorder
}

func (p *TranslateFile) Metadata() Metadata {
	return Metadata{Name: PluginTranslateFile, Stage: StageChange, Description: "translate build-path sources"}
}

func (p *TranslateFile) Apply(h *Hooks) error {
	return h.Change.Tap(PluginTranslateFile, func(ctx context.Context, c *Cycle) (*Cycle, error) {
		rc := c.Context
		var scope []resource.Mapping
		if c.Kind() == CycleFull {
			scope = rc.Files.Translate
		} else {
			for _, f := range c.Changed {
				if mp, ok := rc.Files.LookupTranslate(f.SourceAbsolutePath); ok {
					scope = append(scope, mp)
				}
			}
		}
		for _, mp := range scope {
			rule, _ := rc.Rule(mp.Source.Extname)
			if err := translate.Run(ctx, rule.Translator, rc, mp.Source, mp.Target); err != nil {
				c.Fail(mp.Target, err)
				p.Recorder.IncTranslateFailure(rule.TranslatorName)
				slog.Error("Translate failed", logfields.CycleID(c.ID), logfields.Path(mp.Source.SourceAbsolutePath), logfields.Error(err))
			}
		}
		slog.Debug("Translate complete", logfields.CycleID(c.ID), logfields.Count(len(scope)), slog.Int("failed", len(c.Failures)))
		return c, nil
	})
}

// ClearOutputFile removes the output directory.
type ClearOutputFile struct{}

func (p *ClearOutputFile) Metadata() Metadata {
	return Metadata{Name: PluginClearOutputFile, Stage: StageClear, Description: "remove the output directory"}
}

func (p *ClearOutputFile) Apply(h *Hooks) error {
	return h.Clear.Tap(PluginClearOutputFile, func(_ context.Context, rc *resource.Context) error {
		if resource.IsWithin(rc.OutputPath, rc.InputPath) {
			return ferrors.ValidationError("output path contains the input path; refusing to clear").
				WithContext("output", rc.OutputPath).
				WithContext("input", rc.InputPath).
				Fatal().Build()
		}
		if err := os.RemoveAll(rc.OutputPath); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "clear output directory").
				WithContext("output", rc.OutputPath).Fatal().Build()
		}
		slog.Info("Output cleared", logfields.Path(rc.OutputPath))
		return nil
	})
}

// CopyFile plans the cycle's actions and executes them.
type CopyFile struct {
	Executor *resolve.Executor
}

func (p *CopyFile) Metadata() Metadata {
	return Metadata{Name: PluginCopyFile, Stage: StageChange, Description: "copy and write outputs"}
}

func (p *CopyFile) Apply(h *Hooks) error {
	return h.Change.Tap(PluginCopyFile, func(ctx context.Context, c *Cycle) (*Cycle, error) {
		c.Actions = resolve.Plan(c.Context.Files, c.Changed)
		for _, w := range c.Actions.Write {
			if c.Failed.Has(w.SourceAbsolutePath) {
				c.Actions.SkipWrite(w)
			}
		}
		c.Report = p.Executor.Execute(ctx, c.Actions)
		return c, nil
	})
}
