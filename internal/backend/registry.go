package backend

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/metasearch/internal/domain"
)

// Registry maps backend names to implementations. Built once at startup.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// Register adds b under b.Name(). Names are unique.
func (r *Registry) Register(b Backend) error {
	name := b.Name()
	if name == "" {
		return fmt.Errorf("register backend: empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.backends[name]; ok {
		return fmt.Errorf("register backend %q: already registered", name)
	}
	r.backends[name] = b
	return nil
}

// Get returns the backend registered under name.
func (r *Registry) Get(name string) (Backend, error) {
	r.mu.RLock()
	b, ok := r.backends[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownBackend, name)
	}
	return b, nil
}

// Names returns registered names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.backends))
	for n := range r.backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered backends.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.backends)
}

// LoadAll calls Load on every backend. The first failure aborts startup.
func (r *Registry) LoadAll(ctx context.Context, logger *zap.Logger) error {
	for _, n := range r.Names() {
		b, _ := r.Get(n)
		if err := b.Load(ctx); err != nil {
			return fmt.Errorf("load backend %s: %w", n, err)
		}
		logger.Info("Backend loaded", zap.String("backend", n))
	}
	return nil
}
