// Package preview serves cached page previews for result links.
package preview

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/result"
	"github.com/kailas-cloud/metasearch/internal/logger"
	dompreview "github.com/kailas-cloud/metasearch/internal/preview"
)

// DefaultTTL is how long a preview stays cached.
const DefaultTTL = 2 * time.Hour

// fetchTimeout bounds a shared preview fetch.
const fetchTimeout = 15 * time.Second

// Service resolves previews through the first matching backend.
type Service struct {
	finder    Finder
	cache     Cache
	sanitizer Sanitizer
	ttl       time.Duration
	group     singleflight.Group
}

// New creates a preview service. A zero ttl uses DefaultTTL.
func New(finder Finder, cache Cache, sanitizer Sanitizer, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{finder: finder, cache: cache, sanitizer: sanitizer, ttl: ttl}
}

// CanPreview reports whether some backend matches link.
func (s *Service) CanPreview(link string) bool {
	_, ok := s.finder.Find(link)
	return ok
}

// Preview returns the sanitized preview of link, or nil when no backend
// matches. Cache failures are treated as a miss.
func (s *Service) Preview(ctx context.Context, link string, rc domain.RequestContext) (*result.PreviewResult, error) {
	b, ok := s.finder.Find(link)
	if !ok {
		return nil, nil
	}
	log := logger.FromContext(ctx).With(zap.String("preview", b.Name()), zap.String("link", link))

	if cached, hit, err := s.cache.Get(ctx, link); err != nil {
		log.Warn("Preview cache unavailable", zap.Error(err))
	} else if hit {
		return &cached, nil
	}

	// Concurrent requests for one link share a single upstream fetch. It runs
	// detached from the caller that started it, so one disconnect does not
	// fail the others; each caller still stops waiting on its own context.
	ch := s.group.DoChan(link, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		return s.fetch(fetchCtx, b, link, rc, log)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		// Callers sharing a fetch each get their own copy.
		return r.Val.(*result.PreviewResult).Clone(), nil
	}
}

func (s *Service) fetch(
	ctx context.Context, b dompreview.Backend, link string, rc domain.RequestContext, log *zap.Logger,
) (*result.PreviewResult, error) {
	res, err := b.Preview(ctx, link, rc)
	if err != nil {
		return nil, fmt.Errorf("preview %s: %w", b.Name(), err)
	}
	if res == nil {
		return nil, nil
	}
	if out, ok := s.sanitizer.Deep(res).(*result.PreviewResult); ok && out != nil {
		res = out
	}

	if err := s.cache.Set(ctx, link, *res, s.ttl); err != nil {
		log.Warn("Failed to cache preview", zap.Error(err))
	}
	return res, nil
}
