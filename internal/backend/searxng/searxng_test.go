package searxng

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/kailas-cloud/metasearch/internal/backend"
	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/query"
	"github.com/kailas-cloud/metasearch/internal/domain/result"
)

var rc = domain.RequestContext{Locale: "en-US", SafeSearch: true}

func TestNew_InvalidEndpoint(t *testing.T) {
	for _, ep := range []string{"", "not-a-url", "/relative"} {
		if _, err := New(Config{Endpoint: ep}, nil, nil, nil, nil); !errors.Is(err, domain.ErrValidationFailed) {
			t.Errorf("New(%q) error = %v", ep, err)
		}
	}
}

func TestSearch_GalleryAfterThirdOrganic(t *testing.T) {
	up := &upstream{body: generalBody}
	b := newTestBackend(t, up, false)

	acc := result.New()
	acc.AppendItems(&result.Item{Type: result.TypeCalculator})
	err := b.Search(context.Background(), query.Parse("privacy"), acc, backend.Options{}, rc, backend.NewScope())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	var types []string
	for _, it := range acc.Items {
		if it.Type != "" {
			types = append(types, it.Type)
		} else {
			types = append(types, it.Title)
		}
	}
	want := []string{"calculator", "One", "Two", "Three", "gallery", "Four"}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Fatalf("order = %v, want %v", types, want)
	}

	three := acc.Items[3]
	if three.Footer != "c.example" || three.Timestamp == 0 {
		t.Errorf("item = %+v", three)
	}
	gallery := acc.Items[4]
	if len(gallery.Items) != 1 || gallery.Items[0].Options["original"] != "https://img.example/p.jpg" {
		t.Errorf("gallery = %+v", gallery.Items)
	}

	for _, p := range []string{"format=json", "categories=general", "safesearch=2", "language=en-US", "q=privacy"} {
		if !strings.Contains(up.lastURL, p) {
			t.Errorf("request %q missing %s", up.lastURL, p)
		}
	}
}

func TestSearch_CategoriesFirstWriterWins(t *testing.T) {
	b := newTestBackend(t, &upstream{body: `{"results":[]}`}, false)

	acc := result.New()
	acc.SetCategories([]string{"A", "B"})
	acc.SetFilters([]result.Filter{{Name: "x"}})
	_ = b.Search(context.Background(), query.Parse("q"), acc, backend.Options{}, rc, backend.NewScope())

	if len(acc.Categories) != 2 || acc.Categories[0] != "A" {
		t.Errorf("categories overwritten: %v", acc.Categories)
	}
	if acc.Filters[0].Name != "x" {
		t.Errorf("filters overwritten: %v", acc.Filters)
	}

	fresh := result.New()
	_ = b.Search(context.Background(), query.Parse("q"), fresh, backend.Options{Category: CategoryNews}, rc, backend.NewScope())
	if fresh.Category != CategoryNews || len(fresh.Categories) != 4 || len(fresh.Filters) != 1 {
		t.Errorf("fresh = %+v", fresh)
	}
}

func TestSearch_ImagesLayoutAndFilterWhitelist(t *testing.T) {
	up := &upstream{body: `{"results":[{"url":"https://i/1.png","title":"i","img_src":"https://i/1.png"}]}`}
	b := newTestBackend(t, up, false)

	acc := result.New()
	opts := backend.Options{Category: CategoryImages, Filters: map[string]string{"time_range": "week", "evil": "1"}}
	if err := b.Search(context.Background(), query.Parse("cats"), acc, opts, rc, backend.NewScope()); err != nil {
		t.Fatal(err)
	}
	if acc.Layout != "gallery" || len(acc.Items) != 1 {
		t.Errorf("acc = %+v", acc)
	}
	if !strings.Contains(up.lastURL, "time_range=week") || strings.Contains(up.lastURL, "evil") {
		t.Errorf("filters not whitelisted: %s", up.lastURL)
	}
}

func TestSearch_CachedPerKey(t *testing.T) {
	up := &upstream{body: generalBody}
	b := newTestBackend(t, up, true)
	ctx := context.Background()

	for range 2 {
		acc := result.New()
		if err := b.Search(ctx, query.Parse("privacy"), acc, backend.Options{}, rc, backend.NewScope()); err != nil {
			t.Fatal(err)
		}
		if len(acc.Items) != 5 {
			t.Fatalf("items = %d", len(acc.Items))
		}
	}
	if up.callCount() != 1 {
		t.Errorf("upstream calls = %d, want 1", up.callCount())
	}

	_ = b.Search(ctx, query.Parse("privacy"), result.New(), backend.Options{Filters: map[string]string{"time_range": "day"}}, rc, backend.NewScope())
	if up.callCount() != 2 {
		t.Errorf("different filter should miss the cache, calls = %d", up.callCount())
	}
}

func TestSearch_RetriesOnceOn429PerScope(t *testing.T) {
	up := &upstream{body: `{"results":[]}`, statuses: []int{http.StatusTooManyRequests}}
	b := newTestBackend(t, up, false)
	scope := backend.NewScope()

	if err := b.Search(context.Background(), query.Parse("q"), result.New(), backend.Options{}, rc, scope); err != nil {
		t.Fatalf("first 429 should be retried: %v", err)
	}
	if up.callCount() != 2 || !scope.Flag(retriedKey) {
		t.Fatalf("calls = %d, flagged = %v", up.callCount(), scope.Flag(retriedKey))
	}

	up.statuses = []int{http.StatusTooManyRequests}
	err := b.Search(context.Background(), query.Parse("q"), result.New(), backend.Options{}, rc, scope)
	if !errors.Is(err, domain.ErrUpstreamFailure) {
		t.Fatalf("second 429 in the same request should fail, got %v", err)
	}

	up.statuses = []int{http.StatusTooManyRequests}
	if err := b.Search(context.Background(), query.Parse("q"), result.New(), backend.Options{}, rc, backend.NewScope()); err != nil {
		t.Errorf("new request scope should retry again: %v", err)
	}
}

func TestSearch_UpstreamErrors(t *testing.T) {
	b := newTestBackend(t, &upstream{statuses: []int{http.StatusInternalServerError}}, false)
	err := b.Search(context.Background(), query.Parse("q"), result.New(), backend.Options{}, rc, backend.NewScope())
	if !errors.Is(err, domain.ErrUpstreamFailure) {
		t.Errorf("500: error = %v", err)
	}

	b = newTestBackend(t, &upstream{body: "<html>"}, false)
	err = b.Search(context.Background(), query.Parse("q"), result.New(), backend.Options{}, rc, backend.NewScope())
	if !errors.Is(err, domain.ErrUpstreamFailure) {
		t.Errorf("bad json: error = %v", err)
	}
}

func TestSearch_EmptyTermSkipsUpstream(t *testing.T) {
	up := &upstream{body: generalBody}
	b := newTestBackend(t, up, false)
	_ = b.Search(context.Background(), query.Parse("   "), result.New(), backend.Options{}, rc, backend.NewScope())
	if up.callCount() != 0 {
		t.Error("empty term should not reach upstream")
	}
}

func TestSuggest(t *testing.T) {
	up := &upstream{body: `["priv",["privacy","private browsing"," "]]`}
	b := newTestBackend(t, up, true)
	ctx := context.Background()

	for range 2 {
		acc := &result.Suggestions{}
		if err := b.Suggest(ctx, query.Parse("priv"), acc, backend.Options{}, rc, backend.NewScope()); err != nil {
			t.Fatal(err)
		}
		if len(acc.Items) != 2 || acc.Items[0].Label != "privacy" {
			t.Fatalf("items = %+v", acc.Items)
		}
	}
	if up.callCount() != 1 {
		t.Errorf("upstream calls = %d, want 1 (cached)", up.callCount())
	}

	acc := &result.Suggestions{}
	_ = b.Suggest(ctx, query.Parse("!"), acc, backend.Options{}, rc, backend.NewScope())
	if len(acc.Items) != 0 || up.callCount() != 1 {
		t.Error("lone bang marker should not query upstream")
	}
}

func TestParseAutocomplete(t *testing.T) {
	got, err := parseAutocomplete([]byte(`["a","b","c"]`))
	if err != nil || len(got) != 3 {
		t.Errorf("plain list = %v, %v", got, err)
	}
	if _, err := parseAutocomplete([]byte(`{}`)); err == nil {
		t.Error("expected error for object")
	}
}
