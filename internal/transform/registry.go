// SPDX-License-Identifier: MPL-2.0

package transform

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

type (
	// Transformer rewrites the text of one file. Implementations must be
	// pure with respect to their input: the same source and file produce the
	// same output.
	Transformer interface {
		Transform(ctx context.Context, source, file string) (string, error)
	}

	// Func adapts an ordinary function to the Transformer interface.
	Func func(ctx context.Context, source, file string) (string, error)

	// Registry maps explicit handles to transformers. Hosts register every
	// transformer before compiling; rules refer to them by handle only.
	Registry struct {
		mu    sync.RWMutex
		items map[string]Transformer
	}
)

// Transform calls f.
func (f Func) Transform(ctx context.Context, source, file string) (string, error) {
	return f(ctx, source, file)
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Transformer)}
}

// Builtins returns a registry pre-populated with the built-in transformers:
// "esbuild", "json" and "raw".
func Builtins() *Registry {
	r := NewRegistry()
	// Built-in handles are distinct, so registration cannot fail.
	_ = r.Register(HandleEsbuild, Func(esbuildTransform))
	_ = r.Register(HandleJSON, Func(jsonTransform))
	_ = r.Register(HandleRaw, Func(rawTransform))
	return r
}

// Register adds t under name. Empty names and duplicate handles are rejected.
func (r *Registry) Register(name string, t Transformer) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("transformer handle must not be empty")
	}
	if t == nil {
		return fmt.Errorf("transformer %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateTransformer, name)
	}
	r.items[name] = t
	return nil
}

// Lookup returns the transformer registered under name.
func (r *Registry) Lookup(name string) (Transformer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.items[name]
	if !ok {
		return nil, &UnknownTransformerError{Name: name}
	}
	return t, nil
}

// Names returns the registered handles in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
