package search

import (
	"context"

	"github.com/kailas-cloud/metasearch/internal/backend"
	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/bang"
	"github.com/kailas-cloud/metasearch/internal/domain/query"
	"github.com/kailas-cloud/metasearch/internal/domain/result"
)

// Bangs resolves and suggests bang shortcuts.
type Bangs interface {
	Resolve(key string) (bang.Bang, bool)
	Suggest(q query.Query, limit int) []result.Suggestion
}

// Commands invokes and suggests "/name" commands.
type Commands interface {
	Invoke(ctx context.Context, key string, rc domain.RequestContext) (*result.SearchResult, error)
	Suggest(q query.Query, limit int) []result.Suggestion
}

// Backends resolves configured backend names.
type Backends interface {
	Get(name string) (backend.Backend, error)
}

// Rater looks up the trust rating of a link's host.
type Rater interface {
	Score(link string) (float64, bool)
}

// PreviewMatcher reports whether a link has a preview backend.
type PreviewMatcher interface {
	CanPreview(link string) bool
}

// Sanitizer filters markup in every string of a structure.
type Sanitizer interface {
	Deep(v any) any
}
