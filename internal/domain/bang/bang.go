package bang

import (
	"net/url"
	"strings"
)

// Placeholder is substituted with the escaped search term.
const Placeholder = "%s"

// Bang redirects a query straight to a target site.
type Bang struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Priority int    `json:"priority"`
	URL      string `json:"url"`
}

// Target returns the redirect URL for term.
// The term is query-escaped with spaces as %20 so it is valid in both
// path and query positions of the template.
func (b Bang) Target(term string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(term), "+", "%20")
	return strings.ReplaceAll(b.URL, Placeholder, escaped)
}

// IsStatic reports whether the bang has a URL to redirect to.
func (b Bang) IsStatic() bool { return b.URL != "" }

func normalizeKey(key string) string {
	return strings.TrimPrefix(strings.TrimSpace(key), "!")
}
