package chi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/metasearch/internal/backend"
	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/result"
	healthuc "github.com/kailas-cloud/metasearch/internal/usecase/health"
)

type mockSearch struct {
	res     *result.SearchResult
	err     error
	lastRaw string
	lastRC  domain.RequestContext
	lastOpt backend.Options
	params  url.Values
}

func (m *mockSearch) Search(_ context.Context, raw string, rc domain.RequestContext, opts backend.Options) (*result.SearchResult, error) {
	m.lastRaw, m.lastRC, m.lastOpt = raw, rc, opts
	return m.res, m.err
}

func (m *mockSearch) Suggest(_ context.Context, raw string, rc domain.RequestContext, opts backend.Options) (*result.Suggestions, error) {
	m.lastRaw, m.lastRC, m.lastOpt = raw, rc, opts
	if m.err != nil {
		return nil, m.err
	}
	return &result.Suggestions{Items: []result.Suggestion{{Label: raw + " suggestion"}}}, nil
}

func (m *mockSearch) InvokePublicMethod(_ context.Context, name, method string, params url.Values) (any, error) {
	m.params = params
	if m.err != nil {
		return nil, m.err
	}
	return map[string]string{"backend": name, "method": method}, nil
}

type mockPreview struct {
	links []string
	err   error
}

func (m *mockPreview) Preview(_ context.Context, link string, _ domain.RequestContext) (*result.PreviewResult, error) {
	m.links = append(m.links, link)
	if m.err != nil {
		return nil, m.err
	}
	return &result.PreviewResult{Link: link, Title: "Preview"}, nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

func newTestRouter(search *mockSearch, preview *mockPreview, health *mockHealth) http.Handler {
	if health == nil {
		health = &mockHealth{report: healthuc.Report{Status: healthuc.Healthy}}
	}
	r := chi.NewRouter()
	NewServer(search, preview, health, nil).Routes(r)
	return r
}

func boolPtr(v bool) *bool { return &v }
