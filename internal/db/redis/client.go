package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/rueidis"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/metasearch/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config holds connection parameters for a Redis store.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

type dialFunc func(rueidis.ClientOption) (rueidis.Client, error)

// Store implements db.Store via rueidis.
// The connection is opened on first use and shared afterwards; concurrent
// first callers wait for the same in-flight connect.
type Store struct {
	opt  rueidis.ClientOption
	dial dialFunc

	mu      sync.RWMutex
	client  rueidis.Client
	closed  bool
	connect singleflight.Group
}

// NewStore creates a Redis store. No connection is made until the first command.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	return &Store{
		opt: rueidis.ClientOption{
			InitAddress:  cfg.Addrs,
			Username:     cfg.Username,
			Password:     cfg.Password,
			SelectDB:     cfg.DB,
			DisableCache: true,
		},
		dial: rueidis.NewClient,
	}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	c, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if err := c.Do(ctx, c.B().Ping().Build()).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close shuts down the client if one was opened.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
}

// conn returns the shared client, connecting on demand.
func (s *Store) conn(ctx context.Context) (rueidis.Client, error) {
	s.mu.RLock()
	c, closed := s.client, s.closed
	s.mu.RUnlock()
	if closed {
		return nil, &db.Error{Op: db.OpConnect, Err: db.ErrNotConnected}
	}
	if c != nil {
		return c, nil
	}

	ch := s.connect.DoChan("connect", func() (any, error) {
		s.mu.RLock()
		existing := s.client
		s.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}

		client, err := s.dial(s.opt)
		if err != nil {
			return nil, &db.Error{Op: db.OpConnect, Err: err}
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			client.Close()
			return nil, &db.Error{Op: db.OpConnect, Err: db.ErrNotConnected}
		}
		s.client = client
		return client, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("connect: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(rueidis.Client), nil
	}
}
