package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/metasearch/internal/domain"
)

// typedCache serializes values to JSON on top of a byte tier.
// Both tiers hold encoded bytes, so callers never share mutable state with the cache.
type typedCache[T any] struct {
	tier       tier
	name       string
	defaultTTL time.Duration
	counter    *prometheus.CounterVec
	logger     *zap.Logger
}

func (c *typedCache[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T

	data, ok, err := c.tier.get(ctx, key)
	if err != nil {
		c.inc("error")
		return zero, false, fmt.Errorf("%w: %s: %w", domain.ErrCacheUnavailable, c.name, err)
	}
	if !ok {
		c.inc("miss")
		return zero, false, nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.inc("error")
		c.logger.Warn("Failed to decode cached value",
			zap.String("cache", c.name), zap.String("key", key), zap.Error(err))
		return zero, false, nil
	}

	c.inc("hit")
	return v, true, nil
}

func (c *typedCache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}
	if err := c.tier.set(ctx, key, data, ttl); err != nil {
		c.inc("error")
		return fmt.Errorf("%w: %s: %w", domain.ErrCacheUnavailable, c.name, err)
	}
	return nil
}

func (c *typedCache[T]) inc(res string) {
	if c.counter != nil {
		c.counter.WithLabelValues(c.name, res).Inc()
	}
}
