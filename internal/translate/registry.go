package translate

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"sync"

	ferrors "git.home.luguber.info/inful/twm/internal/foundation/errors"
	"git.home.luguber.info/inful/twm/internal/resource"
)

// Built-in translator names.
const (
	NameMainCall    = "maincall"
	NamePassthrough = "passthrough"
)

var (
	ErrUnknownTranslator   = errors.New("unknown translator")
	ErrDuplicateTranslator = errors.New("translator already registered")
)

// Registry maps translator names to implementations.
type Registry struct {
	mu          sync.RWMutex
	translators map[string]resource.Translator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{translators: map[string]resource.Translator{}}
}

// DefaultRegistry returns a registry with the built-in translators.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(NameMainCall, MainCall{})
	_ = r.Register(NamePassthrough, Passthrough{})
	return r
}

// Register adds t under name.
func (r *Registry) Register(name string, t resource.Translator) error {
	if name == "" || t == nil {
		return fmt.Errorf("translator name and implementation are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.translators[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTranslator, name)
	}
	r.translators[name] = t
	return nil
}

// Get returns the translator registered under name.
func (r *Registry) Get(name string) (resource.Translator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.translators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTranslator, name)
	}
	return t, nil
}

// Names lists registered translators in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.translators))
	for n := range r.translators {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Run invokes t for one file, converting a panic into an error so one bad
// file cannot take down the cycle.
func Run(ctx context.Context, t resource.Translator, c *resource.Context, source, target *resource.FileResource) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ferrors.TranslateError(fmt.Sprintf("translator panic: %v", r)).
				WithContext("path", source.SourceAbsolutePath).
				WithContext("stack", string(debug.Stack())).
				Build()
		}
	}()
	if t == nil {
		return ferrors.TranslateError("no translator for extension").
			WithContext("path", source.SourceAbsolutePath).
			WithContext("ext", source.Extname).
			Build()
	}
	if err := t.Translate(ctx, c, source, target); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryTranslate, "translate file").
			WithContext("path", source.SourceAbsolutePath).
			Build()
	}
	return nil
}
