package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/metasearch/internal/domain"
)

func TestKey_JoinsParts(t *testing.T) {
	if got := Key("en", "web", "{}", "privacy"); got != "en,web,{},privacy" {
		t.Errorf("Key() = %q", got)
	}
}

func TestLocal_RoundTripAndExpiry(t *testing.T) {
	clock := newFakeClock()
	c, err := New[payload](Options{Name: "test", MaxEntries: 10, Now: clock.Now})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	v := payload{Title: "hello", Tags: []string{"a", "b"}, Score: 4.5}

	if err := c.Set(ctx, "k", v, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, v) {
		t.Errorf("Get() = %+v, want %+v", got, v)
	}

	clock.Advance(59 * time.Second)
	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Error("entry expired too early")
	}

	clock.Advance(time.Second)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("entry should expire once ttl has elapsed")
	}
}

func TestLocal_ExpiryKeepsFreshValue(t *testing.T) {
	clock := newFakeClock()
	tier, err := newLocalTier(10, clock.Now)
	if err != nil {
		t.Fatalf("newLocalTier: %v", err)
	}
	ctx := context.Background()

	_ = tier.set(ctx, "k", []byte("stale"), time.Minute)
	stale, _ := tier.lru.Peek("k")
	clock.Advance(time.Minute)

	// A writer replaces the value between the expired read and its removal.
	_ = tier.set(ctx, "k", []byte("fresh"), time.Minute)
	tier.removeIfExpired("k", stale.expiresAt)

	got, ok, err := tier.get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(got) != "fresh" {
		t.Errorf("get = %q, want fresh", got)
	}

	clock.Advance(time.Minute)
	if _, ok, _ := tier.get(ctx, "k"); ok {
		t.Error("expired entry should be gone")
	}
	if tier.lru.Contains("k") {
		t.Error("expired entry should be removed from the lru")
	}
}

func TestLocal_DefaultTTL(t *testing.T) {
	clock := newFakeClock()
	c, _ := New[string](Options{DefaultTTL: 2 * time.Hour, Now: clock.Now})
	ctx := context.Background()

	_ = c.Set(ctx, "k", "v", 0)
	clock.Advance(2*time.Hour - time.Second)
	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Fatal("default ttl not applied")
	}
	clock.Advance(time.Second)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatal("entry should expire after default ttl")
	}
}

func TestLocal_NoTTLNeverExpires(t *testing.T) {
	clock := newFakeClock()
	c, _ := New[string](Options{Now: clock.Now})
	_ = c.Set(context.Background(), "k", "v", 0)
	clock.Advance(365 * 24 * time.Hour)
	if _, ok, _ := c.Get(context.Background(), "k"); !ok {
		t.Fatal("entry without ttl should not expire")
	}
}

func TestLocal_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := New[int](Options{MaxEntries: 2})
	ctx := context.Background()

	_ = c.Set(ctx, "a", 1, 0)
	_ = c.Set(ctx, "b", 2, 0)
	_, _, _ = c.Get(ctx, "a") // a becomes most recent
	_ = c.Set(ctx, "c", 3, 0)

	if _, ok, _ := c.Get(ctx, "b"); ok {
		t.Error("b should have been evicted")
	}
	if v, ok, _ := c.Get(ctx, "a"); !ok || v != 1 {
		t.Error("a should survive")
	}
}

func TestLocal_ValuesAreIsolated(t *testing.T) {
	c, _ := New[payload](Options{})
	ctx := context.Background()
	v := payload{Tags: []string{"x"}}
	_ = c.Set(ctx, "k", v, 0)
	v.Tags[0] = "mutated"

	got, _, _ := c.Get(ctx, "k")
	if got.Tags[0] != "x" {
		t.Errorf("cached value changed through caller alias: %v", got.Tags)
	}
}

func TestLocal_ConcurrentAccess(t *testing.T) {
	c, _ := New[int](Options{MaxEntries: 16})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%20)
			_ = c.Set(ctx, key, i, time.Minute)
			_, _, _ = c.Get(ctx, key)
		}(i)
	}
	wg.Wait()
}

func TestRemote_PrefixAndHash(t *testing.T) {
	store := newMockKVStore()
	c, _ := New[string](Options{Remote: &RemoteOptions{Store: store, KeyPrefix: "preview:", HashKeys: true}})
	ctx := context.Background()

	if err := c.Set(ctx, "https://example.com/a", "v", time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	keys := store.keys()
	if len(keys) != 1 {
		t.Fatalf("keys = %v", keys)
	}
	k := keys[0]
	if !strings.HasPrefix(k, "preview:") {
		t.Errorf("key %q missing prefix", k)
	}
	if strings.Contains(k, "example.com") {
		t.Errorf("key %q should be hashed", k)
	}
	if len(strings.TrimPrefix(k, "preview:")) != 64 {
		t.Errorf("hashed key length = %d, want 64 hex chars", len(k)-len("preview:"))
	}
	if store.lastTTL != time.Hour {
		t.Errorf("ttl = %v, want 1h", store.lastTTL)
	}

	got, ok, err := c.Get(ctx, "https://example.com/a")
	if err != nil || !ok || got != "v" {
		t.Fatalf("Get() = %q, %v, %v", got, ok, err)
	}
}

func TestRemote_PlainKey(t *testing.T) {
	store := newMockKVStore()
	c, _ := New[string](Options{Remote: &RemoteOptions{Store: store, KeyPrefix: "brave:"}})
	_ = c.Set(context.Background(), Key("de", "web", "q"), "v", 0)

	if _, ok := store.data["brave:de,web,q"]; !ok {
		t.Errorf("keys = %v", store.keys())
	}
}

func TestRemote_CompressionRoundTrip(t *testing.T) {
	for _, name := range []string{CodecBrotli, CodecZstd} {
		t.Run(name, func(t *testing.T) {
			codec, err := CodecByName(name)
			if err != nil {
				t.Fatalf("CodecByName: %v", err)
			}
			store := newMockKVStore()
			c, _ := New[payload](Options{Remote: &RemoteOptions{Store: store, Codec: codec}})
			ctx := context.Background()
			v := payload{Title: strings.Repeat("compressible ", 100), Tags: []string{"t"}, Score: 1}

			if err := c.Set(ctx, "k", v, time.Minute); err != nil {
				t.Fatalf("Set: %v", err)
			}
			raw := store.data["k"]
			if bytes.Contains(raw, []byte("compressible")) {
				t.Error("stored bytes are not compressed")
			}
			got, ok, err := c.Get(ctx, "k")
			if err != nil || !ok {
				t.Fatalf("Get: ok=%v err=%v", ok, err)
			}
			if !reflect.DeepEqual(got, v) {
				t.Error("round trip mismatch")
			}
		})
	}
}

func TestCodecByName_Unknown(t *testing.T) {
	if _, err := CodecByName("lz4"); err == nil {
		t.Fatal("expected error for unknown codec")
	}
}

func TestRemote_MissIsNotAnError(t *testing.T) {
	c, _ := New[string](Options{Remote: &RemoteOptions{Store: newMockKVStore()}})
	v, ok, err := c.Get(context.Background(), "absent")
	if err != nil || ok || v != "" {
		t.Fatalf("Get() = %q, %v, %v; want miss", v, ok, err)
	}
}

func TestRemote_FailureIsCacheUnavailable(t *testing.T) {
	store := newMockKVStore()
	store.getErr = errors.New("connection refused")
	store.setErr = errors.New("connection refused")
	c, _ := New[string](Options{Name: "brave", Remote: &RemoteOptions{Store: store}})
	ctx := context.Background()

	if _, _, err := c.Get(ctx, "k"); !errors.Is(err, domain.ErrCacheUnavailable) {
		t.Errorf("Get error = %v, want ErrCacheUnavailable", err)
	}
	if err := c.Set(ctx, "k", "v", 0); !errors.Is(err, domain.ErrCacheUnavailable) {
		t.Errorf("Set error = %v, want ErrCacheUnavailable", err)
	}
}

func TestRemote_CorruptValueIsMiss(t *testing.T) {
	store := newMockKVStore()
	store.data["k"] = []byte("not json")
	c, _ := New[payload](Options{Remote: &RemoteOptions{Store: store}})

	_, ok, err := c.Get(context.Background(), "k")
	if ok || err != nil {
		t.Fatalf("corrupt value should read as miss, got ok=%v err=%v", ok, err)
	}
}

func TestCounter_HitMissError(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"cache", "result"})
	c, _ := New[string](Options{Name: "unit", Counter: counter})
	ctx := context.Background()

	_, _, _ = c.Get(ctx, "k")
	_ = c.Set(ctx, "k", "v", 0)
	_, _, _ = c.Get(ctx, "k")
	_, _, _ = c.Get(ctx, "k")

	if got := testutil.ToFloat64(counter.WithLabelValues("unit", "miss")); got != 1 {
		t.Errorf("miss = %v, want 1", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("unit", "hit")); got != 2 {
		t.Errorf("hit = %v, want 2", got)
	}
}
