package resource

import "context"

// Lang selects the project flavour and with it the default build path and rules.
type Lang string

const (
	LangJS Lang = "js"
	LangTS Lang = "ts"
)

// IsValid reports whether l is a supported language.
func (l Lang) IsValid() bool {
	return l == LangJS || l == LangTS
}

// DefaultBuildPath returns the included subtree, relative to the input root,
// used when no build path is configured.
func (l Lang) DefaultBuildPath() string {
	if l == LangTS {
		return "miniprogram/pages"
	}
	return "pages"
}

// Translator produces generated content for a target from its source.
// Implementations must populate target.AST and target.SourceCode.
type Translator interface {
	Translate(ctx context.Context, c *Context, source, target *FileResource) error
}

// TranslatorFunc adapts a function to the Translator interface.
type TranslatorFunc func(ctx context.Context, c *Context, source, target *FileResource) error

func (f TranslatorFunc) Translate(ctx context.Context, c *Context, source, target *FileResource) error {
	return f(ctx, c, source, target)
}

// ExtensionRule maps files with Extname to a target. A non-empty Replace
// renames the target extension (".ts" -> ".js"); empty means identity.
type ExtensionRule struct {
	Extname    string
	Replace    string
	Translator Translator
	// TranslatorName labels the translator in logs and metrics.
	TranslatorName string
}

// Renames reports whether the rule derives a differently named target.
func (r ExtensionRule) Renames() bool {
	return r.Replace != "" && r.Replace != r.Extname
}
