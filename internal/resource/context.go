package resource

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Context is the single shared build state of one session. It is created once
// and passed by pointer to every stage; stages mutate it in place and never
// retain it past their own invocation.
type Context struct {
	InputPath  string
	OutputPath string
	// BuildPath is the absolute included subtree whose matched files need
	// generated content.
	BuildPath  string
	Lang       Lang
	Extensions []ExtensionRule

	// Files and Resources are populated by the scan stage.
	Files     *FileResourceMap
	Resources []*FileResource
}

// NewContext builds a context with absolute paths. buildPath is relative to
// input; empty selects the language default.
func NewContext(input, output, buildPath string, lang Lang, rules []ExtensionRule) (*Context, error) {
	absIn, err := filepath.Abs(input)
	if err != nil {
		return nil, fmt.Errorf("resolve input path: %w", err)
	}
	absOut, err := filepath.Abs(output)
	if err != nil {
		return nil, fmt.Errorf("resolve output path: %w", err)
	}
	if buildPath == "" {
		buildPath = lang.DefaultBuildPath()
	}
	if !filepath.IsAbs(buildPath) {
		buildPath = filepath.Join(absIn, buildPath)
	}
	return &Context{
		InputPath:  absIn,
		OutputPath: absOut,
		BuildPath:  filepath.Clean(buildPath),
		Lang:       lang,
		Extensions: rules,
		Files:      NewFileResourceMap(),
	}, nil
}

// DistPath mirrors source (under InputPath) into OutputPath.
func (c *Context) DistPath(source string) (string, error) {
	rel, err := filepath.Rel(c.InputPath, source)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside input path %s", source, c.InputPath)
	}
	return filepath.Join(c.OutputPath, rel), nil
}

// Rule returns the first extension rule matching ext.
func (c *Context) Rule(ext string) (ExtensionRule, bool) {
	for _, r := range c.Extensions {
		if r.Extname == ext {
			return r, true
		}
	}
	return ExtensionRule{}, false
}

// SourceExts returns the Extname of every renaming rule whose Replace is ext:
// the extensions a file with ext may have been generated from.
func (c *Context) SourceExts(ext string) []string {
	var out []string
	for _, r := range c.Extensions {
		if r.Renames() && r.Replace == ext {
			out = append(out, r.Extname)
		}
	}
	return out
}

// InBuildPath reports whether path lies inside the included subtree.
func (c *Context) InBuildPath(path string) bool {
	return IsWithin(c.BuildPath, path)
}

// Lookup finds the tracked resource whose source path equals path. Paths are
// compared in Unicode NFC so decomposed names reported by some filesystems
// still match.
func (c *Context) Lookup(path string) (*FileResource, bool) {
	want := norm.NFC.String(filepath.Clean(path))
	for _, r := range c.Resources {
		if r.SourceAbsolutePath == want || norm.NFC.String(r.SourceAbsolutePath) == want {
			return r, true
		}
	}
	return nil, false
}

// IsWithin reports whether path equals root or lies below it.
func IsWithin(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
