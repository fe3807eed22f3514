// Package search aggregates results and suggestions from the configured
// backends into one response.
package search

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/metasearch/internal/backend"
	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/query"
	"github.com/kailas-cloud/metasearch/internal/domain/result"
	"github.com/kailas-cloud/metasearch/internal/logger"
)

// DefaultBackendTimeout bounds a single backend call when none is configured.
const DefaultBackendTimeout = 10 * time.Second

// Config holds the ordered backend lists.
type Config struct {
	SearchBackends  []string
	SuggestBackends []string
	BackendTimeout  time.Duration
	// SuggestLimit bounds bang and command suggestions. Zero keeps each
	// registry's own default.
	SuggestLimit int
}

// Service runs the aggregation pipeline.
type Service struct {
	cfg       Config
	bangs     Bangs
	commands  Commands
	backends  Backends
	rater     Rater
	previews  PreviewMatcher
	sanitizer Sanitizer
}

// New creates a search service. rater and previews may be nil.
func New(
	cfg Config, bangs Bangs, commands Commands, backends Backends,
	rater Rater, previews PreviewMatcher, sanitizer Sanitizer,
) *Service {
	if cfg.BackendTimeout <= 0 {
		cfg.BackendTimeout = DefaultBackendTimeout
	}
	return &Service{
		cfg:       cfg,
		bangs:     bangs,
		commands:  commands,
		backends:  backends,
		rater:     rater,
		previews:  previews,
		sanitizer: sanitizer,
	}
}

// Search resolves raw into a result.
//
// A bang with a target URL short-circuits into a redirect. A command is
// handed to the command registry; a bad query becomes a notice. Otherwise
// every configured backend runs in order against one shared accumulator.
func (s *Service) Search(
	ctx context.Context, raw string, rc domain.RequestContext, opts backend.Options,
) (*result.SearchResult, error) {
	q := query.Parse(raw)

	if q.HasBang() {
		if b, ok := s.bangs.Resolve(q.Bang()); ok && b.IsStatic() {
			return result.NewRedirect(b.Target(q.Term())), nil
		}
	}

	var (
		res *result.SearchResult
		err error
	)
	if q.HasCommand() {
		res, err = s.runCommand(ctx, q, rc)
	} else {
		res, err = s.runBackends(ctx, q, rc, opts)
	}
	if err != nil {
		return nil, err
	}

	if n := res.DropLeafChildren(); n > 0 {
		logger.FromContext(ctx).Warn("Dropped items nested under non-widget items", zap.Int("items", n))
	}
	s.augment(res.Items)
	return s.sanitize(res), nil
}

func (s *Service) runCommand(ctx context.Context, q query.Query, rc domain.RequestContext) (*result.SearchResult, error) {
	res, err := s.commands.Invoke(ctx, q.Command(), rc)
	if err != nil {
		var bq *domain.BadQueryError
		if errors.As(err, &bq) {
			return result.NewNotice(bq.Message), nil
		}
		return nil, fmt.Errorf("command %s: %w", q.Command(), err)
	}
	if res == nil {
		res = result.New()
	}
	return res, nil
}

func (s *Service) runBackends(
	ctx context.Context, q query.Query, rc domain.RequestContext, opts backend.Options,
) (*result.SearchResult, error) {
	acc := result.New()
	scope := backend.NewScope()

	for _, name := range s.cfg.SearchBackends {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := s.backends.Get(name)
		if err != nil {
			return nil, err
		}

		before := snapshot(acc)
		callCtx, cancel := context.WithTimeout(logger.With(ctx, zap.String("backend", name)), s.cfg.BackendTimeout)
		err = b.Search(callCtx, q, acc, opts, rc, scope)
		cancel()
		if err != nil {
			return nil, err
		}
		if err := before.check(acc); err != nil {
			logger.FromContext(ctx).Error("Backend broke merge rules", zap.String("backend", name), zap.Error(err))
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrBackendContract, name, err)
		}
	}
	return acc, ctx.Err()
}

// Suggest collects bang, command and backend suggestions for raw.
func (s *Service) Suggest(
	ctx context.Context, raw string, rc domain.RequestContext, opts backend.Options,
) (*result.Suggestions, error) {
	q := query.Parse(raw)

	acc := &result.Suggestions{Items: []result.Suggestion{}}
	acc.Append(s.bangs.Suggest(q, s.cfg.SuggestLimit)...)
	acc.Append(s.commands.Suggest(q, s.cfg.SuggestLimit)...)

	scope := backend.NewScope()
	for _, name := range s.cfg.SuggestBackends {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := s.backends.Get(name)
		if err != nil {
			return nil, err
		}
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.BackendTimeout)
		err = b.Suggest(callCtx, q, acc, opts, rc, scope)
		cancel()
		if err != nil {
			return nil, err
		}
	}

	if out, ok := s.sanitizer.Deep(acc).(*result.Suggestions); ok {
		return out, nil
	}
	return acc, nil
}

// InvokePublicMethod calls a backend-specific operation.
func (s *Service) InvokePublicMethod(ctx context.Context, backendName, method string, params url.Values) (any, error) {
	b, err := s.backends.Get(backendName)
	if err != nil {
		return nil, err
	}
	return b.PublicMethod(ctx, method, params)
}

// augment attaches trust ratings and preview flags through items, their
// deeplinks and nested items. An explicit preview value is kept.
func (s *Service) augment(items []*result.Item) {
	for _, it := range items {
		if it == nil {
			continue
		}
		if it.Link != "" {
			if v := s.score(it.Link); v != nil {
				it.PrivacyScore = v
			}
			if it.Preview == nil && s.canPreview(it.Link) {
				it.Preview = boolPtr(true)
			}
		}
		for _, dl := range it.Deeplinks {
			if dl == nil || dl.Link == "" {
				continue
			}
			if v := s.score(dl.Link); v != nil {
				dl.PrivacyScore = v
			}
			if dl.Preview == nil && s.canPreview(dl.Link) {
				dl.Preview = boolPtr(true)
			}
		}
		s.augment(it.Items)
	}
}

// score returns the trust rating of link's host, or nil.
func (s *Service) score(link string) *float64 {
	if s.rater == nil {
		return nil
	}
	if v, ok := s.rater.Score(link); ok {
		return &v
	}
	return nil
}

func (s *Service) canPreview(link string) bool {
	return s.previews != nil && s.previews.CanPreview(link)
}

func (s *Service) sanitize(res *result.SearchResult) *result.SearchResult {
	if out, ok := s.sanitizer.Deep(res).(*result.SearchResult); ok {
		return out
	}
	return res
}

func boolPtr(v bool) *bool { return &v }

// accState is the part of the accumulator a backend must not take back.
type accState struct {
	items      []*result.Item
	categories []string
	filters    []result.Filter
}

func snapshot(acc *result.SearchResult) accState {
	return accState{
		items:      slices.Clone(acc.Items),
		categories: acc.Categories,
		filters:    acc.Filters,
	}
}

// check verifies earlier items survive in their order and restores
// categories or filters a backend replaced.
func (st accState) check(acc *result.SearchResult) error {
	if len(st.categories) > 0 {
		acc.Categories = st.categories
	}
	if len(st.filters) > 0 {
		acc.Filters = st.filters
	}

	i := 0
	for _, it := range acc.Items {
		if i < len(st.items) && it == st.items[i] {
			i++
		}
	}
	if i != len(st.items) {
		return fmt.Errorf("dropped or reordered %d of %d items", len(st.items)-i, len(st.items))
	}
	return nil
}
