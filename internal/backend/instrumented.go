package backend

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/query"
	"github.com/kailas-cloud/metasearch/internal/domain/result"
	"github.com/kailas-cloud/metasearch/internal/metrics"
)

// Instrumented wraps a Backend with call metrics and debug logging.
type Instrumented struct {
	inner  Backend
	logger *zap.Logger
}

// NewInstrumented wraps b.
func NewInstrumented(b Backend, logger *zap.Logger) *Instrumented {
	return &Instrumented{inner: b, logger: logger.With(zap.String("backend", b.Name()))}
}

// Name returns the wrapped backend's name.
func (i *Instrumented) Name() string { return i.inner.Name() }

// Load delegates to the wrapped backend.
func (i *Instrumented) Load(ctx context.Context) error {
	return i.observe("load", func() error { return i.inner.Load(ctx) })
}

// Search delegates and records the call.
func (i *Instrumented) Search(
	ctx context.Context, q query.Query, acc *result.SearchResult,
	opts Options, rc domain.RequestContext, scope Scope,
) error {
	return i.observe("search", func() error {
		return i.inner.Search(ctx, q, acc, opts, rc, scope)
	})
}

// Suggest delegates and records the call.
func (i *Instrumented) Suggest(
	ctx context.Context, q query.Query, acc *result.Suggestions,
	opts Options, rc domain.RequestContext, scope Scope,
) error {
	return i.observe("suggest", func() error {
		return i.inner.Suggest(ctx, q, acc, opts, rc, scope)
	})
}

// PublicMethod delegates and records the call.
func (i *Instrumented) PublicMethod(ctx context.Context, method string, params url.Values) (any, error) {
	var out any
	err := i.observe("public", func() error {
		var err error
		out, err = i.inner.PublicMethod(ctx, method, params)
		return err
	})
	return out, err
}

func (i *Instrumented) observe(op string, call func() error) error {
	start := time.Now()
	err := call()
	duration := time.Since(start)

	name := i.inner.Name()
	metrics.BackendCallsTotal.WithLabelValues(name, op, metrics.Status(err)).Inc()
	metrics.BackendCallDuration.WithLabelValues(name, op).Observe(duration.Seconds())

	if err != nil {
		i.logger.Debug("Backend call failed",
			zap.String("op", op), zap.Duration("duration", duration), zap.Error(err))
		return fmt.Errorf("%s %s: %w", name, op, err)
	}
	i.logger.Debug("Backend call completed", zap.String("op", op), zap.Duration("duration", duration))
	return nil
}
