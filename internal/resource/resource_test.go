package resource

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContextDefaultsBuildPathByLang(t *testing.T) {
	root := t.TempDir()

	js, err := NewContext(root, filepath.Join(root, "dist"), "", LangJS, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "pages"), js.BuildPath)

	ts, err := NewContext(root, filepath.Join(root, "dist"), "", LangTS, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "miniprogram", "pages"), ts.BuildPath)
}

func TestContextDistPath(t *testing.T) {
	c, err := NewContext("/src", "/src/dist", "pages", LangJS, nil)
	require.NoError(t, err)

	got, err := c.DistPath("/src/pages/index.js")
	require.NoError(t, err)
	assert.Equal(t, "/src/dist/pages/index.js", got)

	_, err = c.DistPath("/elsewhere/a.js")
	assert.Error(t, err)
}

func TestInBuildPathUsesSegments(t *testing.T) {
	c, err := NewContext("/src", "/out", "pages", LangJS, nil)
	require.NoError(t, err)

	assert.True(t, c.InBuildPath("/src/pages/index.js"))
	assert.True(t, c.InBuildPath("/src/pages/a/b.js"))
	assert.False(t, c.InBuildPath("/src/pages-old/index.js"))
	assert.False(t, c.InBuildPath("/src/utils/pages.js"))
}

func TestRuleFirstMatchAndSourceExts(t *testing.T) {
	first := ExtensionRule{Extname: ".ts", Replace: ".js"}
	second := ExtensionRule{Extname: ".ts"}
	c := &Context{Extensions: []ExtensionRule{{Extname: ".js"}, first, second}}

	r, ok := c.Rule(".ts")
	require.True(t, ok)
	assert.Equal(t, ".js", r.Replace)

	_, ok = c.Rule(".css")
	assert.False(t, ok)

	assert.Equal(t, []string{".ts"}, c.SourceExts(".js"))
	assert.Empty(t, c.SourceExts(".ts"))
}

func TestFileResourceMapRejectsDoubleRegistration(t *testing.T) {
	m := NewFileResourceMap()
	a := NewFileResource("/src/a.css", "/out/a.css")
	src := NewFileResource("/src/pages/i.ts", "/out/pages/i.ts")
	dst := NewFileResource("/src/pages/i.js", "/out/pages/i.js")

	require.True(t, m.AddModification(a))
	assert.False(t, m.AddOnlyCopy(a))
	require.True(t, m.AddTranslate(Rename(src, dst)))
	assert.False(t, m.AddNormal(Identity(src)))

	assert.Equal(t, CollectionModification, m.Membership(a.SourceAbsolutePath))
	assert.Equal(t, CollectionTranslate, m.Membership(src.SourceAbsolutePath))
	assert.Equal(t, CollectionNone, m.Membership(dst.SourceAbsolutePath))

	mp, ok := m.LookupTranslate(src.SourceAbsolutePath)
	require.True(t, ok)
	assert.Equal(t, MappingRename, mp.Kind)
	assert.Same(t, dst, mp.Target)

	_, ok = m.LookupNormal(src.SourceAbsolutePath)
	assert.False(t, ok)
	assert.Equal(t, []*FileResource{src, a}, m.Sources())
}

func TestLookupNormalizesUnicode(t *testing.T) {
	// "é" precomposed vs "e" + combining acute.
	nfc := "/src/caf\u00e9.css"
	nfd := "/src/cafe\u0301.css"
	f := NewFileResource(nfc, "/out/caf\u00e9.css")
	c := &Context{Resources: []*FileResource{f}}

	got, ok := c.Lookup(nfd)
	require.True(t, ok)
	assert.Same(t, f, got)

	_, ok = c.Lookup("/src/other.css")
	assert.False(t, ok)
}

func TestFileResourceStem(t *testing.T) {
	f := NewFileResource("/src/pages/index.ts", "/out/pages/index.ts")
	assert.Equal(t, "index.ts", f.Filename)
	assert.Equal(t, ".ts", f.Extname)
	assert.Equal(t, "index", f.Stem())
}
