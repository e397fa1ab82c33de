// Package normalization maps loosely written configuration strings onto
// typed enumerations.
package normalization

import (
	"fmt"
	"slices"
	"strings"
)

// Normalizer maps case-folded, trimmed strings to enum values.
type Normalizer[T comparable] struct {
	values       map[string]T
	defaultValue T
	keys         []string
}

// NewNormalizer builds a normalizer. Keys of values are folded the same way
// inputs are.
func NewNormalizer[T comparable](values map[string]T, defaultValue T) *Normalizer[T] {
	n := &Normalizer[T]{
		values:       make(map[string]T, len(values)),
		defaultValue: defaultValue,
		keys:         make([]string, 0, len(values)),
	}
	for k, v := range values {
		key := fold(k)
		n.values[key] = v
		n.keys = append(n.keys, key)
	}
	slices.Sort(n.keys)
	return n
}

// Normalize returns the value for raw, or the default when raw is unknown.
func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.values[fold(raw)]; ok {
		return v
	}
	return n.defaultValue
}

// Parse is Normalize without the fallback. Empty input yields the default.
func (n *Normalizer[T]) Parse(raw string) (T, error) {
	if fold(raw) == "" {
		return n.defaultValue, nil
	}
	if v, ok := n.values[fold(raw)]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q, valid options: %v", raw, n.keys)
}

// Keys returns the accepted spellings, sorted.
func (n *Normalizer[T]) Keys() []string {
	return slices.Clone(n.keys)
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
