// Package cache provides a typed key/value cache with two interchangeable
// tiers: a bounded in-process LRU and a remote Redis tier.
//
// The cache never populates itself. Callers check, then populate on miss.
// Remote failures surface as domain.ErrCacheUnavailable so callers can
// degrade to a miss.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/metasearch/internal/db"
)

// DefaultMaxEntries bounds the local tier when no size is configured.
const DefaultMaxEntries = 10000

// Cache stores values of type T with an expiry.
type Cache[T any] interface {
	// Get returns the value and true on hit. A miss is (zero, false, nil).
	Get(ctx context.Context, key string) (T, bool, error)
	// Set stores value for ttl; ttl <= 0 uses the configured default.
	Set(ctx context.Context, key string, value T, ttl time.Duration) error
}

// Key flattens composite key parts into one string.
func Key(parts ...string) string {
	return strings.Join(parts, ",")
}

// RemoteOptions selects the remote tier.
type RemoteOptions struct {
	Store     db.KVStore
	KeyPrefix string
	HashKeys  bool
	Codec     Codec // nil disables compression
}

// Options configures a cache instance.
type Options struct {
	// Name labels metrics and logs.
	Name       string
	DefaultTTL time.Duration
	MaxEntries int
	// Remote, when set, replaces the local tier entirely.
	Remote *RemoteOptions
	// Counter is a counter vec with labels "cache" and "result" (hit/miss/error).
	Counter *prometheus.CounterVec
	Logger  *zap.Logger
	// Now overrides the clock of the local tier.
	Now func() time.Time
}

// tier is a byte-level store behind the typed cache.
type tier interface {
	get(ctx context.Context, key string) ([]byte, bool, error)
	set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// New creates a cache. The tier is chosen once here: remote if configured,
// otherwise a local LRU bounded by MaxEntries.
func New[T any](opts Options) (Cache[T], error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	var t tier
	if opts.Remote != nil && opts.Remote.Store != nil {
		t = newRemoteTier(*opts.Remote)
	} else {
		size := opts.MaxEntries
		if size <= 0 {
			size = DefaultMaxEntries
		}
		lt, err := newLocalTier(size, opts.Now)
		if err != nil {
			return nil, err
		}
		t = lt
	}

	return &typedCache[T]{
		tier:       t,
		name:       opts.Name,
		defaultTTL: opts.DefaultTTL,
		counter:    opts.Counter,
		logger:     opts.Logger,
	}, nil
}
