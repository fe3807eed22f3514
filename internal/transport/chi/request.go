package chi

import (
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/text/language"

	"github.com/kailas-cloud/metasearch/internal/domain"
)

// Cookies and headers the session layer sets.
const (
	cookieLanguage   = "language"
	cookieRegion     = "region"
	cookieSafeSearch = "safe_search"

	headerUserID   = "X-User-Id"
	headerUserRole = "X-User-Role"
)

// RequestContextFrom resolves locale, region, country and safe search from
// cookies, falling back to the first Accept-Language tag. The user identity
// is taken from headers set by an upstream session layer.
func RequestContextFrom(r *http.Request) domain.RequestContext {
	preferred := preferredTag(r.Header.Get("Accept-Language"))

	rc := domain.RequestContext{
		Locale:     cookieValue(r, cookieLanguage),
		Region:     cookieValue(r, cookieRegion),
		SafeSearch: cookieValue(r, cookieSafeSearch) == "true",
	}
	if rc.Locale == "" {
		rc.Locale = preferred
	}
	if rc.Region == "" {
		rc.Region = preferred
	}
	rc.Country = countryOf(rc.Region)

	if id := r.Header.Get(headerUserID); id != "" {
		rc.User = &domain.User{ID: id, Role: r.Header.Get(headerUserRole)}
	}
	return rc
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// preferredTag returns the highest-weighted Accept-Language tag.
func preferredTag(header string) string {
	if header == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	return tags[0].String()
}

// countryOf returns the last "-" or "_" separated part of a region tag.
func countryOf(region string) string {
	if region == "" {
		return ""
	}
	parts := strings.FieldsFunc(region, func(r rune) bool { return r == '-' || r == '_' })
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

func isXHR(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
