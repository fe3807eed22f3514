package searxng

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/metasearch/internal/backend"
	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/version"
)

// retriedKey marks a request that already spent its one 429 retry.
const retriedKey = Name + ":retried"

const maxBody = 4 << 20

// get performs a rate-limited GET. A 429 is retried once per request scope;
// any later 429 in the same request fails.
func (b *Backend) get(
	ctx context.Context, path string, params url.Values,
	rc domain.RequestContext, scope backend.Scope,
) ([]byte, error) {
	for {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("searxng rate limit: %w", err)
		}

		status, body, err := b.do(ctx, path, params, rc)
		if err != nil {
			return nil, domain.NewUpstreamError(Name, err)
		}
		switch {
		case status == http.StatusOK:
			return body, nil
		case status == http.StatusTooManyRequests && !scope.Flag(retriedKey):
			scope.Mark(retriedKey)
			b.logger.Warn("Upstream rate limited, retrying once", zap.String("path", path))
			if err := sleep(ctx, b.cfg.RetryDelay); err != nil {
				return nil, err
			}
		default:
			return nil, domain.NewUpstreamError(Name, fmt.Errorf("%s: unexpected status %d", path, status))
		}
	}
}

func (b *Backend) do(ctx context.Context, path string, params url.Values, rc domain.RequestContext) (int, []byte, error) {
	u := *b.endpoint
	u.Path += path
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if rc.Locale != "" {
		req.Header.Set("Accept-Language", rc.Locale)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return 0, nil, fmt.Errorf("%s: read body: %w", path, err)
	}
	return resp.StatusCode, body, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("searxng retry: %w", ctx.Err())
	case <-t.C:
		return nil
	}
}
