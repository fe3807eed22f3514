package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type localEntry struct {
	data      []byte
	expiresAt time.Time // zero means no expiry
}

// localTier is an instance-private LRU. Expiry is checked on read.
// mu orders expired-entry removal against writes so a fresh value is never
// removed in place of the stale one.
type localTier struct {
	mu  sync.Mutex
	lru *lru.Cache[string, localEntry]
	now func() time.Time
}

func newLocalTier(maxEntries int, now func() time.Time) (*localTier, error) {
	l, err := lru.New[string, localEntry](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	return &localTier{lru: l, now: now}, nil
}

func (t *localTier) get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := t.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !t.now().Before(e.expiresAt) {
		t.removeIfExpired(key, e.expiresAt)
		return nil, false, nil
	}
	return e.data, true, nil
}

func (t *localTier) set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := localEntry{data: value}
	if ttl > 0 {
		e.expiresAt = t.now().Add(ttl)
	}
	t.mu.Lock()
	t.lru.Add(key, e)
	t.mu.Unlock()
	return nil
}

// removeIfExpired drops key only while it still holds the entry that
// expired at expiresAt.
func (t *localTier) removeIfExpired(key string, expiresAt time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.lru.Peek(key); ok && cur.expiresAt.Equal(expiresAt) {
		t.lru.Remove(key)
	}
}
