// Package searxng queries a SearXNG instance through its JSON API.
package searxng

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/metasearch/internal/backend"
	"github.com/kailas-cloud/metasearch/internal/cache"
	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/query"
	"github.com/kailas-cloud/metasearch/internal/domain/result"
)

// Name is the registry name of the backend.
const Name = "searxng"

// Cache lifetimes.
const (
	ResultsTTL     = 20 * time.Minute
	SuggestionsTTL = 2 * time.Hour
)

// Category names understood by SearXNG.
const (
	CategoryGeneral = "general"
	CategoryImages  = "images"
	CategoryNews    = "news"
	CategoryVideos  = "videos"
)

const (
	galleryAfter    = 3 // organic items before the gallery widget
	galleryMax      = 8
	suggestionsMax  = 10
	timeRangeFilter = "time_range"
)

// Config configures the backend.
type Config struct {
	Endpoint   string
	Categories []string
	// RPM caps upstream requests per minute; 0 disables the limiter.
	RPM        int
	RetryDelay time.Duration
}

// Page is the cached, backend-local part of a search response.
type Page struct {
	Items  []*result.Item `json:"items"`
	Layout string         `json:"layout,omitempty"`
}

// Backend is the SearXNG search and suggestion backend.
type Backend struct {
	backend.Base

	cfg         Config
	endpoint    *url.URL
	client      *http.Client
	limiter     *rate.Limiter
	results     cache.Cache[Page]
	suggestions cache.Cache[[]result.Suggestion]
	logger      *zap.Logger
}

// New creates the backend. Nil caches disable caching.
func New(
	cfg Config, client *http.Client,
	results cache.Cache[Page], suggestions cache.Cache[[]result.Suggestion],
	logger *zap.Logger,
) (*Backend, error) {
	endpoint, err := url.Parse(strings.TrimSuffix(cfg.Endpoint, "/"))
	if err != nil || endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("%w: searxng endpoint %q", domain.ErrValidationFailed, cfg.Endpoint)
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = []string{CategoryGeneral, CategoryImages, CategoryNews, CategoryVideos}
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RPM > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RPM)), max(1, cfg.RPM/10))
	}

	return &Backend{
		cfg:         cfg,
		endpoint:    endpoint,
		client:      client,
		limiter:     limiter,
		results:     results,
		suggestions: suggestions,
		logger:      logger,
	}, nil
}

// Name returns the registry name.
func (*Backend) Name() string { return Name }

// Search fetches (or reads cached) results for the selected category and
// appends them after the items accumulated so far.
func (b *Backend) Search(
	ctx context.Context, q query.Query, acc *result.SearchResult,
	opts backend.Options, rc domain.RequestContext, scope backend.Scope,
) error {
	if strings.TrimSpace(q.Term()) == "" {
		return nil
	}
	category := b.category(opts.Category)
	filters := b.filterValues(opts.Filters)
	key := cache.Key(rc.Locale, category, filters.Encode(), q.Term())

	page, ok := b.cachedPage(ctx, key)
	if !ok {
		params := url.Values{
			"q":          {q.Term()},
			"format":     {"json"},
			"categories": {category},
			"safesearch": {safeSearch(rc)},
		}
		if rc.Locale != "" {
			params.Set("language", rc.Locale)
		}
		for k, v := range filters {
			params[k] = v
		}

		body, err := b.get(ctx, "/search", params, rc, scope)
		if err != nil {
			return err
		}
		var resp searchResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return domain.NewUpstreamError(Name, fmt.Errorf("decode search: %w", err))
		}
		page = buildPage(category, resp.Results)
		b.storePage(ctx, key, page)
	}

	if acc.SetCategories(b.cfg.Categories) {
		acc.Category = category
	}
	acc.SetFilters(filtersFor(category))
	if page.Layout != "" {
		acc.Layout = page.Layout
	}
	acc.AppendItems(page.Items...)
	return nil
}

// Suggest appends autocompletion entries for the term.
func (b *Backend) Suggest(
	ctx context.Context, q query.Query, acc *result.Suggestions,
	_ backend.Options, rc domain.RequestContext, scope backend.Scope,
) error {
	term := strings.TrimSpace(q.Term())
	if term == "" || q.IsListBangs() || q.IsListCommands() {
		return nil
	}
	key := cache.Key(rc.Locale, term)

	if b.suggestions != nil {
		items, ok, err := b.suggestions.Get(ctx, key)
		if err != nil {
			b.logger.Warn("Suggestion cache read failed", zap.Error(err))
		} else if ok {
			acc.Append(items...)
			return nil
		}
	}

	params := url.Values{"q": {term}}
	if rc.Locale != "" {
		params.Set("language", rc.Locale)
	}
	body, err := b.get(ctx, "/autocompleter", params, rc, scope)
	if err != nil {
		return err
	}
	labels, err := parseAutocomplete(body)
	if err != nil {
		return domain.NewUpstreamError(Name, err)
	}

	items := make([]result.Suggestion, 0, min(len(labels), suggestionsMax))
	for _, l := range labels {
		if len(items) == suggestionsMax {
			break
		}
		if l = strings.TrimSpace(l); l != "" {
			items = append(items, result.Suggestion{Label: l, Icon: "search-line"})
		}
	}

	if b.suggestions != nil {
		if err := b.suggestions.Set(ctx, key, items, SuggestionsTTL); err != nil {
			b.logger.Warn("Suggestion cache write failed", zap.Error(err))
		}
	}
	acc.Append(items...)
	return nil
}

func (b *Backend) cachedPage(ctx context.Context, key string) (Page, bool) {
	if b.results == nil {
		return Page{}, false
	}
	page, ok, err := b.results.Get(ctx, key)
	if err != nil {
		b.logger.Warn("Result cache read failed", zap.Error(err))
		return Page{}, false
	}
	return page, ok
}

func (b *Backend) storePage(ctx context.Context, key string, page Page) {
	if b.results == nil {
		return
	}
	if err := b.results.Set(ctx, key, page, ResultsTTL); err != nil {
		b.logger.Warn("Result cache write failed", zap.Error(err))
	}
}

func (b *Backend) category(requested string) string {
	for _, c := range b.cfg.Categories {
		if c == requested {
			return c
		}
	}
	return b.cfg.Categories[0]
}

// filterValues keeps only filters the backend offers, with a known value.
func (b *Backend) filterValues(in map[string]string) url.Values {
	out := url.Values{}
	v, ok := in[timeRangeFilter]
	if !ok || v == "" {
		return out
	}
	for _, o := range timeRangeOptions {
		if o.Value == v {
			out.Set(timeRangeFilter, v)
		}
	}
	return out
}

func safeSearch(rc domain.RequestContext) string {
	if rc.SafeSearch {
		return "2"
	}
	return "0"
}

var timeRangeOptions = []result.FilterOption{
	{Label: "Any time", Value: ""},
	{Label: "Past day", Value: "day"},
	{Label: "Past week", Value: "week"},
	{Label: "Past month", Value: "month"},
	{Label: "Past year", Value: "year"},
}

func filtersFor(category string) []result.Filter {
	if category == CategoryImages {
		return nil
	}
	return []result.Filter{{Label: "Time", Name: timeRangeFilter, Options: timeRangeOptions}}
}
