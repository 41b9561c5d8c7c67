package eval

import (
	"slices"
	"sync"

	"github.com/shibukawa/snapgram/suggest"
)

// Operation reduces a node from the values of its arguments.
type Operation func(f *Frame) Result

// Registry maps operation names to operations.
type Registry struct {
	mu  sync.RWMutex
	ops map[string]Operation
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]Operation)}
}

// Define adds or replaces an operation.
func (r *Registry) Define(name string, op Operation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ops[name] = op
}

// Lookup returns the operation registered as name.
func (r *Registry) Lookup(name string) (Operation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	op, ok := r.ops[name]

	return op, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Suggest returns the registered name closest to name, or "".
func (r *Registry) Suggest(name string) string {
	return suggest.Closest(name, r.Names())
}
