package preview

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/result"
	dompreview "github.com/kailas-cloud/metasearch/internal/preview"
)

// mockBackend previews links under prefix and counts calls.
// With release set, Preview signals started and blocks until release closes.
type mockBackend struct {
	prefix  string
	calls   atomic.Int32
	err     error
	html    string
	empty   bool
	started chan struct{}
	release chan struct{}
}

func (m *mockBackend) Name() string { return "mock" }

func (m *mockBackend) Match(link string) bool { return strings.HasPrefix(link, m.prefix) }

func (m *mockBackend) Preview(ctx context.Context, link string, _ domain.RequestContext) (*result.PreviewResult, error) {
	m.calls.Add(1)
	if m.release != nil {
		select {
		case m.started <- struct{}{}:
		default:
		}
		select {
		case <-m.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.empty {
		return nil, nil
	}
	return &result.PreviewResult{
		Link:      link,
		Title:     "Page",
		HTML:      m.html,
		Deeplinks: []result.PreviewDeeplink{{Icon: "map-pin-line", Link: link + "#map"}},
	}, nil
}

var _ dompreview.Backend = (*mockBackend)(nil)
