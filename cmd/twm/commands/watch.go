package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Overrides
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root, w.Overrides)
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
	return RunWatch(ctx, g, app)
}

// RunWatch builds once and then watches until ctx is done. Failed items in
// the first build are reported but do not stop the watcher.
func RunWatch(ctx context.Context, g *Global, app *App) error {
	sum, err := app.Engine.Start(ctx)
	if err != nil {
		return err
	}
	printSummary(g, sum)

	if err := app.Engine.Watch(ctx); err != nil {
		return err
	}
	slog.Info("Watcher stopped")
	return nil
}
