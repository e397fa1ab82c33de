package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/twm/internal/classify"
	"git.home.luguber.info/inful/twm/internal/config"
	"git.home.luguber.info/inful/twm/internal/engine"
	"git.home.luguber.info/inful/twm/internal/eventstore"
	ferrors "git.home.luguber.info/inful/twm/internal/foundation/errors"
	"git.home.luguber.info/inful/twm/internal/logfields"
	"git.home.luguber.info/inful/twm/internal/metrics"
	"git.home.luguber.info/inful/twm/internal/notify"
	"git.home.luguber.info/inful/twm/internal/pipeline"
	"git.home.luguber.info/inful/twm/internal/resolve"
	"git.home.luguber.info/inful/twm/internal/resource"
	"git.home.luguber.info/inful/twm/internal/translate"
	"git.home.luguber.info/inful/twm/internal/watch"
)

// App is the wired runtime for one invocation.
type App struct {
	Config     *config.Config
	Context    *resource.Context
	Classifier *classify.Classifier
	Engine     *engine.Engine

	store     *eventstore.SQLiteStore
	publisher *notify.NATSPublisher
	server    *metrics.Server
}

// appOptions lets tests swap the watch source.
type appOptions struct {
	newSource func() (watch.Source, error)
}

// NewApp wires every component named by cfg. Close releases what it opened.
func NewApp(cfg *config.Config) (*App, error) {
	return newApp(cfg, appOptions{})
}

func newApp(cfg *config.Config, opts appOptions) (*App, error) {
	a := &App{Config: cfg}

	var rec metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Metrics.Listen != "" {
		reg := prometheus.NewRegistry()
		rec = metrics.NewPrometheusRecorder(reg)
		srv, err := metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path, reg)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "start metrics server").
				WithContext("listen", cfg.Metrics.Listen).
				Build()
		}
		srv.Start()
		a.server = srv
	}

	rc, err := cfg.NewContext(translate.DefaultRegistry())
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Context = rc

	cl, err := classify.New(cfg.ClassifyOptions())
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Classifier = cl

	plugins, err := pipeline.NewDefaultRegistry(pipeline.Deps{
		Classifier: cl,
		Compiler:   cfg.NewCompiler(),
		Executor:   resolve.NewExecutor().WithRecorder(rec).WithRetry(cfg.RetryPolicy()),
		Recorder:   rec,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	hooks := pipeline.NewHooks(rec)
	if err := plugins.Apply(hooks); err != nil {
		a.Close()
		return nil, err
	}

	sinks, err := a.openSinks(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	eng, err := engine.New(engine.Options{
		Context:             rc,
		Hooks:               hooks,
		NewSource:           opts.newSource,
		AggregateTimeout:    cfg.Watch.AggregateTimeout,
		Ignored:             cfg.Watch.Ignored,
		FullRebuildInterval: cfg.FullRebuildInterval,
		Sinks:               sinks,
		Recorder:            rec,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Engine = eng
	return a, nil
}

// openSinks opens the history store and the notifier when configured. An
// unreachable NATS server is logged and skipped.
func (a *App) openSinks(cfg *config.Config) ([]engine.CycleSink, error) {
	var sinks []engine.CycleSink
	if cfg.History.Path != "" {
		store, err := openStore(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		a.store = store
		sinks = append(sinks, store)
	}
	if cfg.Notify.NATSURL != "" {
		pub, err := notify.NewNATSPublisher(cfg.Notify.NATSURL, cfg.Notify.Subject)
		if err != nil {
			slog.Warn("Cycle notifications disabled", slog.String("url", cfg.Notify.NATSURL), logfields.Error(err))
		} else {
			a.publisher = pub
			sinks = append(sinks, pub)
		}
	}
	return sinks, nil
}

func openStore(path string) (*eventstore.SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "create history directory").
			WithContext("path", path).
			Build()
	}
	return eventstore.NewSQLiteStore(path)
}

// Close shuts down the metrics server and closes the sinks.
func (a *App) Close() {
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.server.Shutdown(ctx); err != nil {
			slog.Warn("Metrics server shutdown error", logfields.Error(err))
		}
	}
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			slog.Warn("History store close error", logfields.Error(err))
		}
	}
}
