package prefill

import (
	"sync"
)

// Registry maps source kinds to providers.
//
// Registering a kind twice replaces the earlier provider but keeps its
// position, so All and ProvidersFor return providers in first-registration
// order. Registry is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[SourceKind]DataSourceProvider
	order     []SourceKind
}

// NewRegistry creates a registry holding the given providers.
func NewRegistry(providers ...DataSourceProvider) *Registry {
	r := &Registry{
		providers: make(map[SourceKind]DataSourceProvider),
	}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// NewDefaultRegistry creates a registry with the direct, transitive and
// global providers already registered.
func NewDefaultRegistry(g GraphView, globals ...GlobalSource) *Registry {
	return NewRegistry(
		NewDirectProvider(g),
		NewTransitiveProvider(g),
		NewGlobalProvider(globals...),
	)
}

// Register stores a provider under its kind. The last registration wins.
func (r *Registry) Register(p DataSourceProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kind := p.Kind()
	if _, exists := r.providers[kind]; !exists {
		r.order = append(r.order, kind)
	}
	r.providers[kind] = p
}

// Get returns the provider registered for kind.
func (r *Registry) Get(kind SourceKind) (DataSourceProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[kind]
	return p, ok
}

// All returns every registered provider.
func (r *Registry) All() []DataSourceProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]DataSourceProvider, 0, len(r.order))
	for _, kind := range r.order {
		out = append(out, r.providers[kind])
	}
	return out
}

// ProvidersFor returns the providers that can contribute to the target form.
func (r *Registry) ProvidersFor(targetFormID string) []DataSourceProvider {
	var out []DataSourceProvider
	for _, p := range r.All() {
		if p.CanHandleForm(targetFormID) {
			out = append(out, p)
		}
	}
	return out
}

// Ready reports whether a provider is registered for every given kind, or
// for every built-in kind when none are given.
func (r *Registry) Ready(kinds ...SourceKind) bool {
	if len(kinds) == 0 {
		kinds = Kinds
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, kind := range kinds {
		if _, ok := r.providers[kind]; !ok {
			return false
		}
	}
	return true
}
