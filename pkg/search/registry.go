package search

import (
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/furrow/pkg/domain"
)

// Factory builds a Strategy from options.
type Factory func(opts ...Option) (Strategy, error)

// Registry maps strategy names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// DefaultRegistry returns a registry holding the built-in strategies.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("tree", func(opts ...Option) (Strategy, error) { return NewTree(opts...), nil })
	r.Register("coverage", func(opts ...Option) (Strategy, error) { return NewCoverage(opts...) })
	r.Register("loops", func(opts ...Option) (Strategy, error) { return NewLoops(opts...), nil })
	r.Register("stochastic", func(opts ...Option) (Strategy, error) { return NewStochastic(opts...), nil })
	return r
}

// Register adds a factory to the registry.
// If a factory with the same name exists, it is overwritten.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// New looks up a strategy by name and builds it.
func (r *Registry) New(name string, opts ...Option) (Strategy, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", domain.ErrUnknownStrategy, name, r.Names())
	}
	return f(opts...)
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
