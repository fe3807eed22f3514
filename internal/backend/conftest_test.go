package backend

import (
	"context"
	"errors"
	"net/url"

	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/query"
	"github.com/kailas-cloud/metasearch/internal/domain/result"
)

// mockBackend records calls and delegates to optional funcs.
type mockBackend struct {
	Base
	name     string
	loadErr  error
	searchFn func(acc *result.SearchResult, scope Scope) error
	loads    int
	searches int
}

func (m *mockBackend) Name() string { return m.name }

func (m *mockBackend) Load(context.Context) error {
	m.loads++
	return m.loadErr
}

func (m *mockBackend) Search(
	_ context.Context, _ query.Query, acc *result.SearchResult,
	_ Options, _ domain.RequestContext, scope Scope,
) error {
	m.searches++
	if m.searchFn != nil {
		return m.searchFn(acc, scope)
	}
	return nil
}

func (m *mockBackend) PublicMethod(ctx context.Context, method string, params url.Values) (any, error) {
	if method == "echo" {
		return params.Get("v"), nil
	}
	return m.Base.PublicMethod(ctx, method, params)
}

var errBoom = errors.New("boom")
