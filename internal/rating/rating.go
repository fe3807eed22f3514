// Package rating resolves trust ratings for result hostnames from a
// read-only dataset (privacyspy.org index format).
package rating

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Rating is one rated product.
type Rating struct {
	Name      string   `json:"name"`
	Slug      string   `json:"slug"`
	Score     float64  `json:"score"`
	Hostnames []string `json:"hostnames"`
}

// Store maps hostnames to ratings. It is safe for concurrent use; a reload
// swaps the whole table.
type Store struct {
	mu     sync.RWMutex
	byHost map[string]Rating
	logger *zap.Logger
}

// NewStore creates an empty store.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{byHost: map[string]Rating{}, logger: logger}
}

// Load replaces the table with the JSON array read from r.
func (s *Store) Load(r io.Reader) error {
	var items []Rating
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return fmt.Errorf("decode ratings: %w", err)
	}

	byHost := make(map[string]Rating, len(items))
	for _, it := range items {
		for _, h := range it.Hostnames {
			byHost[normalizeHost(h)] = it
		}
	}

	s.mu.Lock()
	s.byHost = byHost
	s.mu.Unlock()
	return nil
}

// LoadFile loads the dataset at path.
func (s *Store) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open ratings: %w", err)
	}
	defer f.Close()

	if err := s.Load(f); err != nil {
		return err
	}
	s.logger.Info("Ratings loaded", zap.String("path", path), zap.Int("hostnames", s.Len()))
	return nil
}

// Len returns the number of indexed hostnames.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byHost)
}

// Lookup finds the rating for host, trying the longest domain suffix first.
// A leading "www." is ignored. Bare top-level domains never match.
func (s *Store) Lookup(host string) (Rating, bool) {
	host = normalizeHost(host)
	if host == "" {
		return Rating{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for {
		if r, ok := s.byHost[host]; ok {
			return r, true
		}
		i := strings.IndexByte(host, '.')
		if i < 0 {
			return Rating{}, false
		}
		host = host[i+1:]
		if !strings.Contains(host, ".") {
			return Rating{}, false
		}
	}
}

// Score returns the rating score for the host of link.
func (s *Store) Score(link string) (float64, bool) {
	if link == "" {
		return 0, false
	}
	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return 0, false
	}
	r, ok := s.Lookup(u.Hostname())
	if !ok {
		return 0, false
	}
	return r.Score, true
}

func normalizeHost(h string) string {
	h = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(h), "."))
	return strings.TrimPrefix(h, "www.")
}
