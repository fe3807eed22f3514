package chi

import (
	"context"
	"net/url"

	"github.com/kailas-cloud/metasearch/internal/backend"
	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/result"
	healthuc "github.com/kailas-cloud/metasearch/internal/usecase/health"
)

// SearchService aggregates results and suggestions.
type SearchService interface {
	Search(ctx context.Context, raw string, rc domain.RequestContext, opts backend.Options) (*result.SearchResult, error)
	Suggest(ctx context.Context, raw string, rc domain.RequestContext, opts backend.Options) (*result.Suggestions, error)
	InvokePublicMethod(ctx context.Context, backendName, method string, params url.Values) (any, error)
}

// PreviewService resolves page previews.
type PreviewService interface {
	Preview(ctx context.Context, link string, rc domain.RequestContext) (*result.PreviewResult, error)
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
