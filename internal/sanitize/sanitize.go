// Package sanitize filters HTML in outgoing values down to a fixed safe subset.
package sanitize

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// maxDepth bounds the structure walk.
const maxDepth = 64

var tagPattern = regexp.MustCompile(`<\w+[^>]*>`)

var allowedElements = []string{
	"h1", "h2", "h3", "h4", "h5", "h6",
	"br", "b", "i", "em", "strong",
	"a", "div", "p", "pre", "code",
	"ul", "ol", "li",
	"table", "tr", "td", "th",
	"dl", "dt", "dd",
	"span", "section", "article", "details", "summary",
}

// Sanitizer applies the allow-list policy to strings and nested structures.
// It is safe for concurrent use.
type Sanitizer struct {
	policy *bluemonday.Policy
	logger *zap.Logger
}

// New creates a sanitizer with the fixed allow-list.
func New(logger *zap.Logger) *Sanitizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := bluemonday.NewPolicy()
	p.AllowElements(allowedElements...)
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	return &Sanitizer{policy: p, logger: logger}
}

// String sanitizes s when it looks like markup. Plain text is returned unchanged.
func (s *Sanitizer) String(v string) string {
	if !tagPattern.MatchString(v) {
		return v
	}
	return strings.TrimSpace(s.policy.Sanitize(v))
}

// Deep sanitizes every string reachable from v in place and returns v.
// Pointers, structs, slices, arrays, maps and interfaces are walked; other
// values pass through. A failure is logged and leaves the rest of v untouched.
func (s *Sanitizer) Deep(v any) (out any) {
	out = v
	if v == nil {
		return out
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("Sanitization skipped", zap.String("panic", fmt.Sprint(r)))
		}
	}()

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return reflect.ValueOf(s.String(rv.String())).Convert(rv.Type()).Interface()
	}
	s.walk(rv, 0)
	return out
}

func (s *Sanitizer) walk(v reflect.Value, depth int) {
	if depth > maxDepth {
		return
	}

	switch v.Kind() {
	case reflect.String:
		if v.CanSet() {
			v.SetString(s.String(v.String()))
		}
	case reflect.Pointer:
		if !v.IsNil() {
			s.walk(v.Elem(), depth+1)
		}
	case reflect.Interface:
		if v.IsNil() {
			return
		}
		if cp, ok := s.copyWalk(v.Elem(), depth+1); ok && v.CanSet() {
			v.Set(cp)
		}
	case reflect.Struct:
		for i := range v.NumField() {
			if f := v.Field(i); f.CanSet() {
				s.walk(f, depth+1)
			}
		}
	case reflect.Slice, reflect.Array:
		for i := range v.Len() {
			s.walk(v.Index(i), depth+1)
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if cp, ok := s.copyWalk(iter.Value(), depth+1); ok {
				v.SetMapIndex(iter.Key(), cp)
			}
		}
	}
}

// copyWalk walks an addressable copy of a value that cannot be set in place
// (map entries, interface contents). Reference kinds are walked directly.
func (s *Sanitizer) copyWalk(v reflect.Value, depth int) (reflect.Value, bool) {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice:
		s.walk(v, depth)
		return v, false
	case reflect.String, reflect.Struct, reflect.Array, reflect.Interface:
		cp := reflect.New(v.Type()).Elem()
		cp.Set(v)
		s.walk(cp, depth)
		return cp, true
	default:
		return v, false
	}
}
