package bang

import (
	"sort"
	"strings"
	"sync"

	"github.com/kailas-cloud/metasearch/internal/domain/query"
	"github.com/kailas-cloud/metasearch/internal/domain/result"
)

// DefaultSuggestLimit is the number of bang suggestions returned by default.
const DefaultSuggestLimit = 10

// Registry holds bangs in registration order.
// Populated once at startup, read-only afterwards.
type Registry struct {
	mu    sync.RWMutex
	order []string
	bangs map[string]Bang
}

// NewRegistry creates an empty bang registry.
func NewRegistry() *Registry {
	return &Registry{bangs: make(map[string]Bang)}
}

// Register adds or replaces a bang. A leading "!" on key is ignored.
// Replacing keeps the original registration position.
func (r *Registry) Register(key string, b Bang) {
	key = normalizeKey(key)
	if key == "" {
		return
	}
	b.Key = key

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bangs[key]; !exists {
		r.order = append(r.order, key)
	}
	r.bangs[key] = b
}

// Resolve returns the bang registered under key.
func (r *Registry) Resolve(key string) (Bang, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bangs[normalizeKey(key)]
	return b, ok
}

// Len returns the number of registered bangs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Suggest lists bangs for a "!prefix" input with no term, or all bangs for a lone "!".
// Sorted by priority descending (stable), de-duplicated by (label, url), truncated to limit.
func (r *Registry) Suggest(q query.Query, limit int) []result.Suggestion {
	listAll := q.IsListBangs()
	if !listAll && (!q.HasBang() || q.Term() != "") {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}

	r.mu.RLock()
	candidates := make([]Bang, 0)
	for _, key := range r.order {
		if listAll || strings.HasPrefix(key, q.Bang()) {
			candidates = append(candidates, r.bangs[key])
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority > candidates[j].Priority
	})

	type pair struct{ label, url string }
	seen := make(map[pair]struct{}, len(candidates))
	out := make([]result.Suggestion, 0, limit)
	for _, b := range candidates {
		p := pair{b.Label, b.URL}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, result.Suggestion{Bang: b.Key, Label: b.Label})
		if len(out) == limit {
			break
		}
	}
	return out
}
