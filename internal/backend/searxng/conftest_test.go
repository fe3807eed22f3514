package searxng

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/kailas-cloud/metasearch/internal/cache"
	"github.com/kailas-cloud/metasearch/internal/domain/result"
)

// upstream is a scripted SearXNG server.
type upstream struct {
	mu       sync.Mutex
	statuses []int // consumed per request, then 200
	body     string
	calls    int
	lastURL  string
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.calls++
	u.lastURL = r.URL.String()
	status := http.StatusOK
	if len(u.statuses) > 0 {
		status = u.statuses[0]
		u.statuses = u.statuses[1:]
	}
	u.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(u.body))
}

func (u *upstream) callCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls
}

func newTestBackend(t *testing.T, up *upstream, withCache bool) *Backend {
	t.Helper()
	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)

	var results cache.Cache[Page]
	var suggestions cache.Cache[[]result.Suggestion]
	if withCache {
		results, _ = cache.New[Page](cache.Options{Name: "searxng"})
		suggestions, _ = cache.New[[]result.Suggestion](cache.Options{Name: "searxng_suggest"})
	}
	b, err := New(Config{Endpoint: srv.URL}, srv.Client(), results, suggestions, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b
}

const generalBody = `{"results":[
	{"url":"https://a.example/1","title":"One","content":"first","engine":"duckduckgo"},
	{"url":"https://b.example/2","title":"Two","content":"second","engine":"brave"},
	{"url":"https://img.example/p.jpg","title":"Pic","img_src":"https://img.example/p.jpg","category":"images","resolution":"800x600"},
	{"url":"https://www.c.example/3","title":"Three","content":"third","publishedDate":"2024-03-08T10:00:00Z"},
	{"url":"https://d.example/4","title":"Four","content":"fourth"},
	{"url":"","title":"broken"}
]}`
