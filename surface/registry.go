// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"sort"
	"sync"
)

// Built-in renderer names.
const (
	RendererCanvas = "canvas"
	RendererSVG    = "svg"
)

// Factory creates a new Target with the given options.
type Factory func(opts Options) (Target, error)

// RegistryEntry represents a registered renderer.
type RegistryEntry struct {
	// Name is the renderer name a page view is configured with.
	Name string

	// Priority determines the default choice (higher = preferred).
	Priority int

	// Kind is the variant the factory produces.
	Kind Kind

	// Factory creates targets.
	Factory Factory
}

var globalRegistry = NewRegistry()

// Registry maps renderer names to target factories.
//
//	t, err := surface.NewTarget("svg", surface.Options{Width: 612, Height: 792})
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*RegistryEntry
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*RegistryEntry)}
}

// DefaultRegistry returns the registry the package-level functions use.
func DefaultRegistry() *Registry { return globalRegistry }

// Register adds a renderer to the global registry. Registering an existing
// name replaces it.
func Register(name string, priority int, kind Kind, factory Factory) {
	globalRegistry.Register(name, priority, kind, factory)
}

// Unregister removes a renderer from the global registry.
func Unregister(name string) {
	globalRegistry.Unregister(name)
}

// List returns registered renderer names, highest priority first.
func List() []string {
	return globalRegistry.List()
}

// Get returns the entry for a renderer.
func Get(name string) (*RegistryEntry, bool) {
	return globalRegistry.Get(name)
}

// NewTarget creates a target for the named renderer. An empty name selects
// the highest-priority renderer.
func NewTarget(name string, opts Options) (Target, error) {
	return globalRegistry.NewTarget(name, opts)
}

// Register adds a renderer to this registry.
func (r *Registry) Register(name string, priority int, kind Kind, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[name] = &RegistryEntry{
		Name:     name,
		Priority: priority,
		Kind:     kind,
		Factory:  factory,
	}
}

// Unregister removes a renderer from this registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, name)
}

// List returns registered renderer names sorted by priority.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedNames()
}

// Get returns a copy of the entry for a renderer.
func (r *Registry) Get(name string) (*RegistryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	entryCopy := *entry
	return &entryCopy, true
}

// NewTarget creates a target for the named renderer, or for the preferred
// renderer when name is empty.
func (r *Registry) NewTarget(name string, opts Options) (Target, error) {
	r.mu.RLock()
	if name == "" {
		names := r.sortedNames()
		if len(names) == 0 {
			r.mu.RUnlock()
			return nil, ErrNoRenderer
		}
		name = names[0]
	}
	entry, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &RendererNotFoundError{Name: name}
	}
	return entry.Factory(opts)
}

// sortedNames must be called with the lock held.
func (r *Registry) sortedNames() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		pi, pj := r.entries[names[i]].Priority, r.entries[names[j]].Priority
		if pi != pj {
			return pi > pj
		}
		return names[i] < names[j]
	})
	return names
}

// ErrNoRenderer is returned when no renderer is registered.
var ErrNoRenderer = errors.New("surface: no renderer registered")

// RendererNotFoundError indicates a named renderer is not registered.
type RendererNotFoundError struct {
	Name string
}

func (e *RendererNotFoundError) Error() string {
	return "surface: renderer not found: " + e.Name
}

func init() {
	Register(RendererCanvas, 100, KindCanvas, func(opts Options) (Target, error) {
		return NewCanvas(opts), nil
	})
	Register(RendererSVG, 10, KindVector, func(opts Options) (Target, error) {
		return NewVector(opts), nil
	})
}
