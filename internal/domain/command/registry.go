package command

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/query"
	"github.com/kailas-cloud/metasearch/internal/domain/result"
)

// DefaultSuggestLimit is the number of command suggestions returned by default.
const DefaultSuggestLimit = 20

// Handler resolves a command to a full result without backend fan-out.
type Handler func(ctx context.Context, rc domain.RequestContext) (*result.SearchResult, error)

// Command is a built-in or discovered "/name" handler.
type Command struct {
	Key     string
	Label   string
	Handler Handler
}

// Registry maps command keys to handlers.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds or replaces a command. A leading "/" on key is ignored.
func (r *Registry) Register(key string, c Command) {
	key = strings.TrimPrefix(strings.TrimSpace(key), query.CommandMarker)
	if key == "" {
		return
	}
	c.Key = key

	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[key] = c
}

// Invoke runs the handler registered under key.
// Unknown keys fail with an error matching both domain.ErrUnknownCommand and domain.ErrBadQuery.
func (r *Registry) Invoke(ctx context.Context, key string, rc domain.RequestContext) (*result.SearchResult, error) {
	r.mu.RLock()
	c, ok := r.commands[key]
	r.mu.RUnlock()

	if !ok || c.Handler == nil {
		return nil, domain.NewUnknownCommand(key)
	}
	return c.Handler(ctx, rc)
}

// List returns all commands sorted by label.
func (r *Registry) List() []Command {
	r.mu.RLock()
	out := make([]Command, 0, len(r.commands))
	for _, c := range r.commands {
		out = append(out, c)
	}
	r.mu.RUnlock()

	sortByLabel(out)
	return out
}

// Suggest lists commands matching the "/prefix" of q, or all commands for a lone "/".
// Sorted by label, truncated to limit.
func (r *Registry) Suggest(q query.Query, limit int) []result.Suggestion {
	listAll := q.IsListCommands()
	if !listAll && !q.HasCommand() {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}

	r.mu.RLock()
	matched := make([]Command, 0)
	for key, c := range r.commands {
		if listAll || strings.HasPrefix(key, q.Command()) {
			matched = append(matched, c)
		}
	}
	r.mu.RUnlock()

	sortByLabel(matched)
	if len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]result.Suggestion, len(matched))
	for i, c := range matched {
		out[i] = result.Suggestion{Command: c.Key, Label: c.Label}
	}
	return out
}

// sortByLabel orders by label, then key so map iteration order never leaks.
func sortByLabel(cmds []Command) {
	sort.Slice(cmds, func(i, j int) bool {
		if cmds[i].Label != cmds[j].Label {
			return cmds[i].Label < cmds[j].Label
		}
		return cmds[i].Key < cmds[j].Key
	})
}
