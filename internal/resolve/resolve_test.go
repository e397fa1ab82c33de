package resolve

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/twm/internal/resource"
	"git.home.luguber.info/inful/twm/internal/retry"
)

// fixture builds the partition for pages/index.ts (translate, rename) and
// utils/helper.ts (normal, rename) plus one modification file.
func fixture(t *testing.T) (*resource.FileResourceMap, map[string]*resource.FileResource) {
	t.Helper()
	fr := func(rel string) *resource.FileResource {
		return resource.NewFileResource(filepath.Join("/src", rel), filepath.Join("/out", rel))
	}
	byName := map[string]*resource.FileResource{
		"pages/index.ts":  fr("pages/index.ts"),
		"pages/index.js":  fr("pages/index.js"),
		"utils/helper.ts": fr("utils/helper.ts"),
		"utils/helper.js": fr("utils/helper.js"),
		"app.json":        fr("app.json"),
		"yarn.lock":       fr("yarn.lock"),
	}
	m := resource.NewFileResourceMap()
	require.True(t, m.AddOnlyCopy(byName["yarn.lock"]))
	require.True(t, m.AddTranslate(resource.Rename(byName["pages/index.ts"], byName["pages/index.js"])))
	require.True(t, m.AddNormal(resource.Rename(byName["utils/helper.ts"], byName["utils/helper.js"])))
	require.True(t, m.AddModification(byName["app.json"]))
	return m, byName
}

func sources(fs []*resource.FileResource) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.SourceAbsolutePath)
	}
	return out
}

func TestPlanFirstBuild(t *testing.T) {
	m, _ := fixture(t)
	a := Plan(m, nil)

	assert.Equal(t, []string{"/src/pages/index.js"}, sources(a.Write))
	assert.ElementsMatch(t, []string{
		"/src/yarn.lock", "/src/app.json",
		"/src/utils/helper.ts", "/src/utils/helper.js",
		"/src/pages/index.ts",
	}, sources(a.Copy))
}

func TestPlanChangedTranslateSource(t *testing.T) {
	m, by := fixture(t)
	a := Plan(m, []*resource.FileResource{by["pages/index.ts"]})
	assert.Equal(t, []string{"/src/pages/index.js"}, sources(a.Write))
	assert.Equal(t, []string{"/src/pages/index.ts"}, sources(a.Copy))
}

func TestPlanChangedNormalAndModification(t *testing.T) {
	m, by := fixture(t)
	a := Plan(m, []*resource.FileResource{by["utils/helper.ts"], by["app.json"], by["utils/helper.ts"]})
	assert.Empty(t, a.Write)
	assert.Equal(t, []string{"/src/utils/helper.ts", "/src/utils/helper.js", "/src/app.json"}, sources(a.Copy))
}

func TestPlanDropsUnclassified(t *testing.T) {
	m, by := fixture(t)
	a := Plan(m, []*resource.FileResource{by["pages/index.js"], resource.NewFileResource("/src/new.css", "/out/new.css")})
	assert.Zero(t, a.Len())
}

func TestPlanIdentityTranslateWritesOnly(t *testing.T) {
	f := resource.NewFileResource("/src/pages/a.js", "/out/pages/a.js")
	m := resource.NewFileResourceMap()
	require.True(t, m.AddTranslate(resource.Identity(f)))

	for _, changed := range [][]*resource.FileResource{nil, {f}} {
		a := Plan(m, changed)
		assert.Equal(t, []string{"/src/pages/a.js"}, sources(a.Write))
		assert.Empty(t, a.Copy)
	}
}

func TestPlanIdentityNormalCopiesOnly(t *testing.T) {
	f := resource.NewFileResource("/src/utils/util.js", "/out/utils/util.js")
	m := resource.NewFileResourceMap()
	require.True(t, m.AddNormal(resource.Identity(f)))

	for _, changed := range [][]*resource.FileResource{nil, {f}} {
		a := Plan(m, changed)
		require.Len(t, a.Copy, 1)
		assert.Same(t, f, a.Copy[0])
		assert.Equal(t, f.SourceAbsolutePath, a.Copy[0].SourceAbsolutePath)
		assert.Empty(t, a.Write)
	}
}

func TestExecuteCopiesAndWrites(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/src/a.wxss", []byte("body{}"), 0o644))
	copyF := resource.NewFileResource("/src/a.wxss", "/out/deep/a.wxss")
	writeF := resource.NewFileResource("/src/pages/i.js", "/out/pages/i.js")
	writeF.SourceCode = "Page(MainCall({}))"

	r := NewExecutor().WithFilesystem(fs).Execute(context.Background(), Actions{
		Copy:  []*resource.FileResource{copyF},
		Write: []*resource.FileResource{writeF},
	})
	require.NoError(t, r.Err())

	got, err := util.ReadFile(fs, "/out/deep/a.wxss")
	require.NoError(t, err)
	assert.Equal(t, "body{}", string(got))
	got, err = util.ReadFile(fs, "/out/pages/i.js")
	require.NoError(t, err)
	assert.Equal(t, "Page(MainCall({}))", string(got))

	copied, written, skipped, failed := r.Counts()
	assert.Equal(t, [4]int{1, 1, 0, 0}, [4]int{copied, written, skipped, failed})
}

func TestExecuteReportsPartialFailure(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/src/ok.json", []byte("{}"), 0o644))
	ok := resource.NewFileResource("/src/ok.json", "/out/ok.json")
	missing := resource.NewFileResource("/src/gone.json", "/out/gone.json")

	r := NewExecutor().WithFilesystem(fs).Execute(context.Background(), Actions{
		Copy: []*resource.FileResource{ok, missing},
	})
	err := r.Err()
	require.ErrorIs(t, err, ErrPartialFailure)
	require.Len(t, r.Failures(), 1)
	assert.Equal(t, "/src/gone.json", r.Failures()[0].Source)
	assert.True(t, errors.Is(r.Failures()[0].Err, os.ErrNotExist))

	_, err = util.ReadFile(fs, "/out/ok.json")
	assert.NoError(t, err)
}

func TestExecuteSkipsFailedTranslations(t *testing.T) {
	fs := memfs.New()
	w := resource.NewFileResource("/src/pages/x.js", "/out/pages/x.js")
	a := Actions{Write: []*resource.FileResource{w}}
	a.SkipWrite(w)

	r := NewExecutor().WithFilesystem(fs).Execute(context.Background(), a)
	require.NoError(t, r.Err())
	_, _, skipped, _ := r.Counts()
	assert.Equal(t, 1, skipped)
	_, err := fs.Stat("/out/pages/x.js")
	assert.True(t, os.IsNotExist(err))
}

// flakyFS fails the first n OpenFile calls with a transient error.
type flakyFS struct {
	billy.Filesystem
	failures atomic.Int32
}

func (f *flakyFS) OpenFile(name string, flag int, perm os.FileMode) (billy.File, error) {
	if f.failures.Add(-1) >= 0 {
		return nil, errors.New("resource busy")
	}
	return f.Filesystem.OpenFile(name, flag, perm)
}

func TestExecuteRetriesTransientFailures(t *testing.T) {
	fs := &flakyFS{Filesystem: memfs.New()}
	require.NoError(t, util.WriteFile(fs.Filesystem, "/src/a.wxss", []byte("body{}"), 0o644))
	fs.failures.Store(2)
	f := resource.NewFileResource("/src/a.wxss", "/out/a.wxss")

	policy := retry.NewPolicy(retry.ModeFixed, time.Millisecond, time.Millisecond, 2)
	r := NewExecutor().WithFilesystem(fs).WithRetry(policy).Execute(context.Background(), Actions{
		Copy: []*resource.FileResource{f},
	})
	require.NoError(t, r.Err())

	got, err := util.ReadFile(fs.Filesystem, "/out/a.wxss")
	require.NoError(t, err)
	assert.Equal(t, "body{}", string(got))
}

func TestExecuteWithoutRetryFailsOnce(t *testing.T) {
	fs := &flakyFS{Filesystem: memfs.New()}
	require.NoError(t, util.WriteFile(fs.Filesystem, "/src/a.wxss", []byte("body{}"), 0o644))
	fs.failures.Store(1)
	f := resource.NewFileResource("/src/a.wxss", "/out/a.wxss")

	r := NewExecutor().WithFilesystem(fs).Execute(context.Background(), Actions{
		Copy: []*resource.FileResource{f},
	})
	require.ErrorIs(t, r.Err(), ErrPartialFailure)
}
