package preview

import (
	"context"
	"time"

	"github.com/kailas-cloud/metasearch/internal/domain/result"
	dompreview "github.com/kailas-cloud/metasearch/internal/preview"
)

// Finder selects the preview backend for a link.
type Finder interface {
	Find(link string) (dompreview.Backend, bool)
}

// Cache stores previews by link.
type Cache interface {
	Get(ctx context.Context, key string) (result.PreviewResult, bool, error)
	Set(ctx context.Context, key string, value result.PreviewResult, ttl time.Duration) error
}

// Sanitizer filters markup in every string of a structure.
type Sanitizer interface {
	Deep(v any) any
}
