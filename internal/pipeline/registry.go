package pipeline

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrDuplicatePlugin = errors.New("plugin already registered")
	ErrUnknownStage    = errors.New("unknown stage")
)

// Metadata describes a plugin.
type Metadata struct {
	Name        string
	Stage       string
	Description string
}

// Validate checks that the metadata names a plugin and a known stage.
func (m Metadata) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if !IsStage(m.Stage) {
		return fmt.Errorf("%w: %q for plugin %s", ErrUnknownStage, m.Stage, m.Name)
	}
	return nil
}

// Plugin taps exactly one stage of Hooks.
type Plugin interface {
	Metadata() Metadata
	Apply(h *Hooks) error
}

// Registry holds plugins in registration order.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	names   map[string]struct{}
}

// NewRegistry creates a new empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{names: map[string]struct{}{}}
}

// Register appends plugin. Names must be unique.
func (r *Registry) Register(plugin Plugin) error {
	if plugin == nil {
		return fmt.Errorf("cannot register nil plugin")
	}
	md := plugin.Metadata()
	if err := md.Validate(); err != nil {
		return fmt.Errorf("invalid plugin metadata: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.names[md.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePlugin, md.Name)
	}
	r.names[md.Name] = struct{}{}
	r.plugins = append(r.plugins, plugin)
	return nil
}

// List returns the plugins in registration order.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Plugin(nil), r.plugins...)
}

// Has checks if a plugin with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.names[name]
	return ok
}

// Apply lets every plugin tap h, in registration order.
func (r *Registry) Apply(h *Hooks) error {
	for _, p := range r.List() {
		if err := p.Apply(h); err != nil {
			return fmt.Errorf("apply plugin %s: %w", p.Metadata().Name, err)
		}
	}
	return nil
}
