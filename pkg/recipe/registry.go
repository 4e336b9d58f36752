package recipe

import (
	"slices"
	"strings"
	"sync"
)

// Registry is the startup-built dispatch table from slug to recipe parts.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	def    Definition
	load   Loader
	source DataSource
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds or replaces a recipe. source may be nil for recipes
// without a data fetch.
func (r *Registry) Register(def Definition, load Loader, source DataSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[def.Slug] = entry{def: def, load: load, source: source}
}

// Definition returns the definition for slug.
func (r *Registry) Definition(slug string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[slug]
	return e.def, ok
}

// Loader returns the component loader for slug.
func (r *Registry) Loader(slug string) (Loader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[slug]
	if !ok || e.load == nil {
		return nil, false
	}
	return e.load, true
}

// Source returns the data source for slug, if any.
func (r *Registry) Source(slug string) (DataSource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[slug]
	if !ok || e.source == nil {
		return nil, false
	}
	return e.source, true
}

// Definitions lists all registered definitions sorted by slug.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defs := make([]Definition, 0, len(r.entries))
	for _, e := range r.entries {
		defs = append(defs, e.def)
	}
	r.mu.RUnlock()
	slices.SortFunc(defs, func(a, b Definition) int {
		return strings.Compare(a.Slug, b.Slug)
	})
	return defs
}

// Len reports the number of registered recipes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
