// Package preview defines preview backends: components that turn a result
// link into a structured page summary.
package preview

import (
	"context"
	"regexp"
	"sync"

	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/result"
)

// Backend summarizes pages whose URL it matches.
type Backend interface {
	Name() string
	Match(link string) bool
	Preview(ctx context.Context, link string, rc domain.RequestContext) (*result.PreviewResult, error)
}

// Pattern matches links against a regular expression. Backends embed it.
type Pattern struct {
	re *regexp.Regexp
}

// NewPattern compiles expr. It panics on an invalid expression.
func NewPattern(expr string) Pattern {
	return Pattern{re: regexp.MustCompile(expr)}
}

// Match reports whether link matches the pattern.
func (p Pattern) Match(link string) bool {
	return p.re != nil && p.re.MatchString(link)
}

// Registry holds preview backends in registration order; the first match wins.
type Registry struct {
	mu       sync.RWMutex
	backends []Backend
}

// NewRegistry creates a registry with the given backends.
func NewRegistry(backends ...Backend) *Registry {
	return &Registry{backends: backends}
}

// Register appends b.
func (r *Registry) Register(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends = append(r.backends, b)
}

// Find returns the first backend matching link.
func (r *Registry) Find(link string) (Backend, bool) {
	if link == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.backends {
		if b.Match(link) {
			return b, true
		}
	}
	return nil, false
}

// CanPreview reports whether any backend matches link.
func (r *Registry) CanPreview(link string) bool {
	_, ok := r.Find(link)
	return ok
}

// Len returns the number of registered backends.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.backends)
}
