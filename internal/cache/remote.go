package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/metasearch/internal/db"
)

// remoteTier stores values in a shared KV store with optional key hashing
// and compression.
type remoteTier struct {
	store    db.KVStore
	prefix   string
	hashKeys bool
	codec    Codec
}

func newRemoteTier(opts RemoteOptions) *remoteTier {
	return &remoteTier{
		store:    opts.Store,
		prefix:   opts.KeyPrefix,
		hashKeys: opts.HashKeys,
		codec:    opts.Codec,
	}
}

// storeKey hashes (if enabled) and prefixes key.
func (t *remoteTier) storeKey(key string) string {
	if t.hashKeys {
		h := sha256.Sum256([]byte(key))
		key = hex.EncodeToString(h[:])
	}
	return t.prefix + key
}

func (t *remoteTier) get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := t.store.Get(ctx, t.storeKey(key))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if t.codec != nil {
		data, err = t.codec.Decompress(data)
		if err != nil {
			return nil, false, fmt.Errorf("decompress %s: %w", t.codec.Name(), err)
		}
	}
	return data, true, nil
}

func (t *remoteTier) set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if t.codec != nil {
		var err error
		value, err = t.codec.Compress(value)
		if err != nil {
			return fmt.Errorf("compress %s: %w", t.codec.Name(), err)
		}
	}
	return t.store.SetWithTTL(ctx, t.storeKey(key), value, ttl)
}
