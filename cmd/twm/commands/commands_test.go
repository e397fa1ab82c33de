package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/twm/internal/config"
	"git.home.luguber.info/inful/twm/internal/engine"
	"git.home.luguber.info/inful/twm/internal/eventstore"
	ferrors "git.home.luguber.info/inful/twm/internal/foundation/errors"
	"git.home.luguber.info/inful/twm/internal/resource"
	"git.home.luguber.info/inful/twm/internal/watch"
)

type fakeSource struct {
	events chan watch.Event
	errors chan error
	once   sync.Once
}

func newFakeSource() *fakeSource {
	return &fakeSource{events: make(chan watch.Event, 8), errors: make(chan error)}
}

func (f *fakeSource) Watch([]string) error       { return nil }
func (f *fakeSource) Events() <-chan watch.Event { return f.events }
func (f *fakeSource) Errors() <-chan error       { return f.errors }
func (f *fakeSource) Close() error               { f.once.Do(func() { close(f.events) }); return nil }

func project(t *testing.T) (root string, cfg *config.Config) {
	t.Helper()
	root = t.TempDir()
	src := filepath.Join(root, "src")
	for rel, body := range map[string]string{
		"pages/index/index.js":   "Page({ data: {} })\n",
		"pages/index/index.wxml": "<view/>",
		"utils/util.js":          "module.exports = {}\n",
		"app.json":               "{}",
		"yarn.lock":              "# lock",
	} {
		p := filepath.Join(src, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	}
	cfg = &config.Config{
		InputPath:  src,
		OutputPath: filepath.Join(root, "dist"),
		History:    config.HistoryConfig{Path: filepath.Join(root, ".twm", "history.db")},
		Watch:      config.WatchConfig{AggregateTimeout: 20 * time.Millisecond},
	}
	config.ApplyDefaults(cfg)
	require.NoError(t, config.Validate(cfg))
	return root, cfg
}

func testGlobal() (*Global, *bytes.Buffer) {
	var out bytes.Buffer
	return &Global{Stdout: &out, Stderr: &out}, &out
}

func TestRunBuild(t *testing.T) {
	root, cfg := project(t)
	app, err := NewApp(cfg)
	require.NoError(t, err)
	defer app.Close()

	g, out := testGlobal()
	require.NoError(t, RunBuild(context.Background(), g, app))
	assert.Contains(t, out.String(), "full build success")

	for _, rel := range []string{"pages/index/index.js", "pages/index/index.wxml", "utils/util.js", "app.json", "yarn.lock"} {
		assert.FileExists(t, filepath.Join(root, "dist", filepath.FromSlash(rel)))
	}
	page, err := os.ReadFile(filepath.Join(root, "dist", "pages", "index", "index.js"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "MainCall")

	recent, err := app.store.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "success", recent[0].Outcome)
}

func TestRunScanJSON(t *testing.T) {
	_, cfg := project(t)
	app, err := NewApp(cfg)
	require.NoError(t, err)
	defer app.Close()

	g, out := testGlobal()
	require.NoError(t, RunScan(context.Background(), g, app, true))

	var entries []ScanEntry
	require.NoError(t, json.Unmarshal(out.Bytes(), &entries))

	byPath := map[string]ScanEntry{}
	for _, e := range entries {
		byPath[e.Source] = e
	}
	assert.Equal(t, resource.CollectionOnlyCopy, byPath["yarn.lock"].Collection)
	assert.Equal(t, resource.CollectionTranslate, byPath["pages/index/index.js"].Collection)
	assert.Equal(t, "maincall", byPath["pages/index/index.js"].Translator)
	assert.Equal(t, resource.CollectionNormal, byPath["utils/util.js"].Collection)
	assert.Empty(t, byPath["utils/util.js"].Translator)
	assert.Equal(t, resource.CollectionModification, byPath["app.json"].Collection)

	_, err = os.Stat(cfg.OutputPath)
	assert.True(t, os.IsNotExist(err), "scan must not write output")
}

func TestRunScanTable(t *testing.T) {
	_, cfg := project(t)
	app, err := NewApp(cfg)
	require.NoError(t, err)
	defer app.Close()

	g, out := testGlobal()
	require.NoError(t, RunScan(context.Background(), g, app, false))
	assert.True(t, strings.HasPrefix(out.String(), "COLLECTION"))
	assert.Contains(t, out.String(), "1 only_copy, 1 translate, 1 normal, 2 modification")
}

func TestRunWatchRebuildsChangedFile(t *testing.T) {
	root, cfg := project(t)
	src := newFakeSource()
	app, err := newApp(cfg, appOptions{newSource: func() (watch.Source, error) { return src, nil }})
	require.NoError(t, err)
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, _ := testGlobal()
	done := make(chan error, 1)
	go func() { done <- RunWatch(ctx, g, app) }()

	require.Eventually(t, func() bool { return app.Engine.State() == engine.StateWatching }, 5*time.Second, 10*time.Millisecond)

	wxml := filepath.Join(cfg.InputPath, "pages", "index", "index.wxml")
	require.NoError(t, os.WriteFile(wxml, []byte("<text/>"), 0o600))
	src.events <- watch.Event{Path: wxml, Op: watch.OpWrite}

	dist := filepath.Join(root, "dist", "pages", "index", "index.wxml")
	require.Eventually(t, func() bool {
		b, err := os.ReadFile(dist)
		return err == nil && string(b) == "<text/>"
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestRunHistory(t *testing.T) {
	_, cfg := project(t)
	app, err := NewApp(cfg)
	require.NoError(t, err)
	g, _ := testGlobal()
	require.NoError(t, RunBuild(context.Background(), g, app))
	app.Close()

	store, err := eventstore.NewSQLiteStore(cfg.History.Path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	g, out := testGlobal()
	require.NoError(t, RunHistory(context.Background(), g, store, "", 5))
	assert.Contains(t, out.String(), "1 cycles (1 full, 0 partial, 0 failed)")

	recent, err := store.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)

	g, out = testGlobal()
	require.NoError(t, RunHistory(context.Background(), g, store, recent[0].ID, 0))
	assert.Contains(t, out.String(), "full build success")

	err = RunHistory(context.Background(), g, store, "missing", 0)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "twm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input_path: a\noutput_path: b\nlang: js\n"), 0o600))

	cfg, err := loadConfig(&CLI{Config: path}, Overrides{Output: "c", Lang: "ts"})
	require.NoError(t, err)
	assert.Equal(t, "a", cfg.InputPath)
	assert.Equal(t, "c", cfg.OutputPath)
	assert.Equal(t, "ts", cfg.Lang)

	_, err = loadConfig(&CLI{Config: path}, Overrides{Lang: "coffee"})
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestLoadConfigWithoutFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yaml")

	cfg, err := loadConfig(&CLI{Config: missing}, Overrides{Input: "in", Output: "out"})
	require.NoError(t, err)
	assert.Equal(t, "in", cfg.InputPath)
	assert.Equal(t, "js", cfg.Lang)

	_, err = loadConfig(&CLI{Config: missing}, Overrides{Input: "in"})
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestInitCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twm.yaml")
	g, out := testGlobal()

	require.NoError(t, (&InitCmd{Lang: "ts"}).Run(g, &CLI{Config: path}))
	assert.Contains(t, out.String(), "initialized successfully")
	assert.FileExists(t, path)

	err := (&InitCmd{Lang: "ts"}).Run(g, &CLI{Config: path})
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}
