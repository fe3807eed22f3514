package search

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/kailas-cloud/metasearch/internal/backend"
	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/bang"
	"github.com/kailas-cloud/metasearch/internal/domain/command"
	"github.com/kailas-cloud/metasearch/internal/domain/query"
	"github.com/kailas-cloud/metasearch/internal/domain/result"
	"github.com/kailas-cloud/metasearch/internal/sanitize"
)

// mockBackend records calls and delegates to optional funcs.
type mockBackend struct {
	backend.Base
	name      string
	searchFn  func(ctx context.Context, q query.Query, acc *result.SearchResult, scope backend.Scope) error
	suggestFn func(q query.Query, acc *result.Suggestions) error
	searches  int
	suggests  int
	scopes    []backend.Scope
}

func (m *mockBackend) Name() string { return m.name }

func (m *mockBackend) Search(
	ctx context.Context, q query.Query, acc *result.SearchResult,
	_ backend.Options, _ domain.RequestContext, scope backend.Scope,
) error {
	m.searches++
	m.scopes = append(m.scopes, scope)
	if m.searchFn != nil {
		return m.searchFn(ctx, q, acc, scope)
	}
	return nil
}

func (m *mockBackend) Suggest(
	_ context.Context, q query.Query, acc *result.Suggestions,
	_ backend.Options, _ domain.RequestContext, _ backend.Scope,
) error {
	m.suggests++
	if m.suggestFn != nil {
		return m.suggestFn(q, acc)
	}
	return nil
}

func (m *mockBackend) PublicMethod(ctx context.Context, method string, params url.Values) (any, error) {
	if method == "echo" {
		return params.Get("v"), nil
	}
	return m.Base.PublicMethod(ctx, method, params)
}

// mockRater scores hosts by exact suffix.
type mockRater map[string]float64

func (m mockRater) Score(link string) (float64, bool) {
	u, err := url.Parse(link)
	if err != nil {
		return 0, false
	}
	s, ok := m[u.Hostname()]
	return s, ok
}

// prefixMatcher previews links starting with prefix.
type prefixMatcher string

func (p prefixMatcher) CanPreview(link string) bool { return strings.HasPrefix(link, string(p)) }

var errBoom = errors.New("boom")

type fixture struct {
	svc      *Service
	backends *backend.Registry
	commands *command.Registry
}

func newFixture(cfg Config, backends ...backend.Backend) fixture {
	br := backend.NewRegistry()
	for _, b := range backends {
		if err := br.Register(b); err != nil {
			panic(err)
		}
	}

	bangs := bang.NewRegistry()
	bangs.Register("g", bang.Bang{Label: "Google", Priority: 100, URL: "https://www.google.com/search?q=%s"})
	bangs.Register("w", bang.Bang{Label: "Wikipedia", Priority: 50, URL: "https://en.wikipedia.org/wiki/%s"})
	bangs.Register("local", bang.Bang{Label: "No target", Priority: 1})

	cmds := command.NewRegistry()
	cmds.Register("hello", command.Command{
		Label: "Say hello",
		Handler: func(context.Context, domain.RequestContext) (*result.SearchResult, error) {
			res := result.New()
			res.AppendItems(&result.Item{Title: "Hello", Link: "https://docs.example/hello"})
			return res, nil
		},
	})
	cmds.Register("fail", command.Command{
		Label: "Always fails",
		Handler: func(context.Context, domain.RequestContext) (*result.SearchResult, error) {
			return nil, errBoom
		},
	})
	cmds.Register("invalid", command.Command{
		Label: "Rejects input",
		Handler: func(context.Context, domain.RequestContext) (*result.SearchResult, error) {
			return nil, domain.NewBadQuery("Please provide a city.")
		},
	})

	svc := New(cfg, bangs, cmds, br,
		mockRater{"good.example": 9.5},
		prefixMatcher("https://docs.example/"),
		sanitize.New(nil),
	)
	return fixture{svc: svc, backends: br, commands: cmds}
}
