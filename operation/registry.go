package operation

import (
	"sort"
	"sync"

	"github.com/kbukum/assetgraph/graph"
)

// Registry maps node kinds to their operations.
type Registry struct {
	mu  sync.RWMutex
	ops map[graph.Kind]Operation
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{ops: make(map[graph.Kind]Operation)}
}

// Register sets the operation for kind, replacing any earlier one.
func (r *Registry) Register(kind graph.Kind, op Operation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops[kind] = op
}

// Get returns the operation for kind.
func (r *Registry) Get(kind graph.Kind) (Operation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[kind]
	return op, ok
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []graph.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]graph.Kind, 0, len(r.ops))
	for k := range r.ops {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
