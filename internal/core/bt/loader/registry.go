package loader

import (
	"fmt"
	"sort"
	"sync"

	"github.com/zeusync/behave/internal/core/bt"
)

// Factory creates a fresh leaf for one node of a tree.
type Factory func(params Params) (bt.Leaf, error)

// Registry maps leaf names used in definitions to their factories. It is
// safe for concurrent use; one registry can feed many trees.
type Registry struct {
	mu     sync.RWMutex
	leaves map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{leaves: make(map[string]Factory)}
}

// NewDefaultRegistry returns a registry holding the builtin leaves.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterBuiltins(r)
	return r
}

// Register installs factory under name, replacing any previous one.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	r.leaves[name] = factory
	r.mu.Unlock()
}

// RegisterFunc registers a stateless leaf shared by every node using name.
func (r *Registry) RegisterFunc(name string, fn bt.ActionFunc) {
	r.Register(name, func(Params) (bt.Leaf, error) { return fn, nil })
}

// RegisterCondition registers a stateless predicate.
func (r *Registry) RegisterCondition(name string, fn bt.ConditionFunc) {
	r.Register(name, func(Params) (bt.Leaf, error) { return fn, nil })
}

func (r *Registry) New(name string, params Params) (bt.Leaf, error) {
	r.mu.RLock()
	f := r.leaves[name]
	r.mu.RUnlock()
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLeaf, name)
	}
	leaf, err := f(params)
	if err != nil {
		return nil, fmt.Errorf("leaf %s: %w", name, err)
	}
	return leaf, nil
}

func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.leaves[name]
	return ok
}

// Names returns the registered leaf names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.leaves))
	for name := range r.leaves {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
