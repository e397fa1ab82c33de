package resource

import (
	"path/filepath"
	"strings"
)

// FileResource is one physical file tracked at a source and a destination
// location. Identity is SourceAbsolutePath; everything except AST and
// SourceCode is fixed at construction.
type FileResource struct {
	Filename           string
	SourceAbsolutePath string
	DistAbsolutePath   string
	Extname            string

	// AST and SourceCode are populated by a Translator.
	AST        any
	SourceCode string
}

// NewFileResource creates a resource for source mirrored at dist.
func NewFileResource(source, dist string) *FileResource {
	return &FileResource{
		Filename:           filepath.Base(source),
		SourceAbsolutePath: source,
		DistAbsolutePath:   dist,
		Extname:            filepath.Ext(source),
	}
}

// Stem returns the filename without its extension.
func (f *FileResource) Stem() string {
	return strings.TrimSuffix(f.Filename, f.Extname)
}

func (f *FileResource) String() string {
	return f.SourceAbsolutePath
}
