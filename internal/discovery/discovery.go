// Package discovery registers commands advertised by external APIs.
//
// Each API serves GET /_discovery:
//
//	{"commands": [{"command": "weather", "label": "Weather", "url": "/weather"}]}
//
// Every advertised command is registered with a handler that calls the API
// with the request context forwarded as headers.
package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/command"
	"github.com/kailas-cloud/metasearch/internal/domain/result"
	"github.com/kailas-cloud/metasearch/internal/version"
)

// Path is the discovery endpoint relative to an API's base URL.
const Path = "/_discovery"

const maxBody = 2 << 20

// API is a configured external API.
type API struct {
	Name string
	URL  string
}

type document struct {
	Commands  []commandSpec `json:"commands"`
	UploadURL string        `json:"uploadUrl,omitempty"`
}

type commandSpec struct {
	Command string `json:"command"`
	Label   string `json:"label"`
	URL     string `json:"url"`
}

type apiError struct {
	Message string `json:"message"`
}

// Client loads discovery documents and calls discovered commands.
type Client struct {
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a discovery client.
func NewClient(client *http.Client, logger *zap.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{http: client, logger: logger}
}

// Load fetches the discovery document of api and registers its commands.
// Returns the number of registered commands.
func (c *Client) Load(ctx context.Context, api API, reg *command.Registry) (int, error) {
	base := strings.TrimSuffix(api.URL, "/")
	var doc document
	if err := c.getJSON(ctx, api.Name, base+Path, domain.RequestContext{}, &doc); err != nil {
		return 0, fmt.Errorf("discover %s: %w", api.Name, err)
	}

	n := 0
	for _, entry := range doc.Commands {
		if entry.Command == "" || entry.URL == "" {
			c.logger.Warn("Skipping incomplete command", zap.String("api", api.Name), zap.String("command", entry.Command))
			continue
		}
		reg.Register(entry.Command, command.Command{
			Label:   entry.Label,
			Handler: c.handler(api.Name, base+entry.URL),
		})
		n++
	}
	c.logger.Info("API discovered", zap.String("api", api.Name), zap.Int("commands", n))
	return n, nil
}

// LoadAll discovers every API. Failures are logged and skipped.
func (c *Client) LoadAll(ctx context.Context, apis []API, reg *command.Registry) int {
	total := 0
	for _, api := range apis {
		n, err := c.Load(ctx, api, reg)
		if err != nil {
			c.logger.Warn("API discovery failed", zap.String("api", api.Name), zap.Error(err))
			continue
		}
		total += n
	}
	return total
}

func (c *Client) handler(apiName, url string) command.Handler {
	return func(ctx context.Context, rc domain.RequestContext) (*result.SearchResult, error) {
		res := result.New()
		if err := c.getJSON(ctx, apiName, url, rc, res); err != nil {
			return nil, err
		}
		return res, nil
	}
}

// getJSON GETs url and decodes the body into out. A 400 carrying a message
// becomes a bad query; other non-200 statuses are upstream failures.
func (c *Client) getJSON(ctx context.Context, apiName, url string, rc domain.RequestContext, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrValidationFailed, apiName, err)
	}
	setContextHeaders(req, rc)

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.NewUpstreamError(apiName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return domain.NewUpstreamError(apiName, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusBadRequest:
		var e apiError
		if json.Unmarshal(body, &e) == nil && e.Message != "" {
			return domain.NewBadQuery("%s", e.Message)
		}
		fallthrough
	default:
		return domain.NewUpstreamError(apiName, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return domain.NewUpstreamError(apiName, errors.Join(errors.New("decode response"), err))
	}
	return nil
}

func setContextHeaders(req *http.Request, rc domain.RequestContext) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	set := func(k, v string) {
		if v != "" {
			req.Header.Set(k, v)
		}
	}
	set("X-Locale", rc.Locale)
	set("X-Region", rc.Region)
	set("X-Country", rc.Country)
	set("X-User-Id", rc.UserID())
	set("X-User-Role", rc.UserRole())
}
