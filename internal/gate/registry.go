package gate

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DefaultPermits is used for gates without a configured permit count.
const DefaultPermits = 1

// Registry creates gates lazily by name. Once created, a gate's permit count
// never changes.
type Registry struct {
	permits map[string]int
	gates   sync.Map // string -> *Gate
}

// NewRegistry validates the configured permit counts. Every value must be at
// least 1.
func NewRegistry(permits map[string]int) (*Registry, error) {
	var errs []string
	cfg := make(map[string]int, len(permits))
	for name, n := range permits {
		if n < 1 {
			errs = append(errs, fmt.Sprintf("gate '%s': permits must be at least 1, got %d", name, n))
			continue
		}
		cfg[name] = n
	}
	if len(errs) > 0 {
		sort.Strings(errs)
		return nil, fmt.Errorf("gate configuration invalid:\n- %s", strings.Join(errs, "\n- "))
	}
	return &Registry{permits: cfg}, nil
}

// Gate returns the gate with the given name, creating it on first use.
func (r *Registry) Gate(name string) *Gate {
	if g, ok := r.gates.Load(name); ok {
		return g.(*Gate)
	}
	n, ok := r.permits[name]
	if !ok {
		n = DefaultPermits
	}
	g, _ := r.gates.LoadOrStore(name, newGate(name, n))
	return g.(*Gate)
}

type registryKey struct{}

// WithRegistry returns a context carrying r.
func WithRegistry(ctx context.Context, r *Registry) context.Context {
	return context.WithValue(ctx, registryKey{}, r)
}

// FromContext returns the registry carried by ctx, or nil.
func FromContext(ctx context.Context) *Registry {
	r, _ := ctx.Value(registryKey{}).(*Registry)
	return r
}
