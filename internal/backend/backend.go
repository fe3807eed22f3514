// Package backend defines the contract every search backend implements and
// the registry the orchestrators resolve configured backend names against.
package backend

import (
	"context"
	"fmt"
	"net/url"

	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/query"
	"github.com/kailas-cloud/metasearch/internal/domain/result"
)

// Options are caller-supplied refinements of a search or suggestion request.
type Options struct {
	Category string
	Filters  map[string]string
	// XHR marks client-side follow-up requests (pagination, filter changes).
	XHR bool
}

// Backend resolves queries against one external data source.
//
// Search and Suggest write into the shared accumulator: they insert items
// without removing earlier ones and set categories/filters only through the
// first-writer-wins helpers. Scope is the per-request signaling map.
type Backend interface {
	Name() string
	// Load runs once at process start.
	Load(ctx context.Context) error
	Search(ctx context.Context, q query.Query, acc *result.SearchResult, opts Options, rc domain.RequestContext, scope Scope) error
	Suggest(ctx context.Context, q query.Query, acc *result.Suggestions, opts Options, rc domain.RequestContext, scope Scope) error
	// PublicMethod serves backend-specific operations outside the search flow.
	PublicMethod(ctx context.Context, method string, params url.Values) (any, error)
}

// Base provides no-op Load/Suggest and an empty PublicMethod set.
// Backends embed it and override what they support.
type Base struct{}

// Load does nothing.
func (Base) Load(context.Context) error { return nil }

// Suggest contributes nothing.
func (Base) Suggest(context.Context, query.Query, *result.Suggestions, Options, domain.RequestContext, Scope) error {
	return nil
}

// PublicMethod rejects every method.
func (Base) PublicMethod(_ context.Context, method string, _ url.Values) (any, error) {
	return nil, fmt.Errorf("%w: %s", domain.ErrUnknownMethod, method)
}
