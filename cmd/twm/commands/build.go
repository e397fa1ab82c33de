package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	ferrors "git.home.luguber.info/inful/twm/internal/foundation/errors"
	"git.home.luguber.info/inful/twm/internal/pipeline"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Overrides
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root, b.Overrides)
	if err != nil {
		return err
	}
	app, err := NewApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunBuild(ctx, g, app)
}

// RunBuild runs the startup stages and the first full build. A cycle with
// failed items is reported as an error so scripted builds fail.
func RunBuild(ctx context.Context, g *Global, app *App) error {
	sum, err := app.Engine.Start(ctx)
	if err != nil {
		return err
	}
	printSummary(g, sum)
	if sum.Outcome != pipeline.OutcomeSuccess {
		return ferrors.PipelineError("build finished with errors").
			WithContext("cycle_id", sum.ID).
			WithContext("failed", sum.Failed).
			WithContext("translate_failures", sum.TranslateFailures).
			Build()
	}
	return nil
}

func printSummary(g *Global, s pipeline.Summary) {
	_, _ = fmt.Fprintf(g.Stdout, "%s build %s: %d copied, %d written, %d skipped, %d failed in %s\n",
		s.Kind, s.Outcome, s.Copied, s.Written, s.Skipped, s.Failed, s.Duration.Round(time.Millisecond))
	if s.CompileError != "" {
		_, _ = fmt.Fprintf(g.Stdout, "compiler: %s\n", s.CompileError)
	}
}
