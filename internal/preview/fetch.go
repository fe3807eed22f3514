package preview

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dyatlov/go-opengraph/opengraph"
)

// Fetch defaults.
const (
	DefaultUserAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultFetchTimeout = 5 * time.Second
	DefaultMaxPageBytes = 5 << 20
)

// Page is a fetched HTML document.
type Page struct {
	URL  string
	Body []byte
}

// OpenGraph parses the page's OpenGraph metadata.
// Relative image URLs are resolved against the page URL.
func (p *Page) OpenGraph() (*opengraph.OpenGraph, error) {
	og := opengraph.NewOpenGraph()
	if err := og.ProcessHTML(bytes.NewReader(p.Body)); err != nil {
		return nil, fmt.Errorf("parse opengraph: %w", err)
	}
	base, err := url.Parse(p.URL)
	if err != nil {
		return og, nil
	}
	for _, img := range og.Images {
		if ref, err := url.Parse(img.URL); err == nil && img.URL != "" {
			img.URL = base.ResolveReference(ref).String()
		}
	}
	return og, nil
}

// Image returns the first OpenGraph image URL, or "".
func (p *Page) Image() string {
	og, err := p.OpenGraph()
	if err != nil || len(og.Images) == 0 {
		return ""
	}
	return og.Images[0].URL
}

// Fetcher downloads pages with a browser user agent and a bounded timeout.
type Fetcher struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	maxBytes  int64
}

// NewFetcher creates a fetcher. A nil client uses http.DefaultClient.
func NewFetcher(client *http.Client, timeout time.Duration) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Fetcher{
		client:    client,
		userAgent: DefaultUserAgent,
		timeout:   timeout,
		maxBytes:  DefaultMaxPageBytes,
	}
}

// Fetch downloads link. Any status other than 200 is an error.
func (f *Fetcher) Fetch(ctx context.Context, link string) (*Page, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", link, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: invalid response code %d", link, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", link, err)
	}
	return &Page{URL: link, Body: body}, nil
}
