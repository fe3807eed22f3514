// Package mdn previews MDN Web Docs pages.
package mdn

import (
	"bytes"
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/result"
	"github.com/kailas-cloud/metasearch/internal/preview"
	"github.com/kailas-cloud/metasearch/internal/segment"
)

// Name is the registry name of the backend.
const Name = "mdn"

var (
	fragment = regexp.MustCompile(`#([^?]+)`)
	preLang  = regexp.MustCompile(`\b(js|html|css)\b`)
	idUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
)

// Fetcher downloads pages.
type Fetcher interface {
	Fetch(ctx context.Context, link string) (*preview.Page, error)
}

// Backend previews developer.mozilla.org documentation.
type Backend struct {
	preview.Pattern
	fetcher Fetcher
}

// New creates the backend.
func New(fetcher Fetcher) *Backend {
	return &Backend{
		Pattern: preview.NewPattern(`^https://developer\.mozilla\.org/[^/]+/docs/`),
		fetcher: fetcher,
	}
}

// Name returns the registry name.
func (*Backend) Name() string { return Name }

// Preview summarizes the article body, starting at the fragment's heading if any.
func (b *Backend) Preview(ctx context.Context, link string, _ domain.RequestContext) (*result.PreviewResult, error) {
	page, err := b.fetcher.Fetch(ctx, link)
	if err != nil {
		return nil, domain.NewUpstreamError(Name, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, domain.NewUpstreamError(Name, err)
	}

	opts := segment.Options{
		Headings:    "h1",
		Snippets:    "h2, h3, h4, h5, h6, p, ul, ol, dl, pre, table",
		Ignore:      ".metadata, .prev-next, #specifications, #browser_compatibility",
		MaxSections: 200,
		MaxSnippets: 200,
		Root: func(d *goquery.Document) *goquery.Selection {
			return d.Find("#content")
		},
		Before: tagCodeLanguages,
	}
	if m := fragment.FindStringSubmatch(link); m != nil {
		opts.Headings = "#" + idUnsafe.ReplaceAllStringFunc(m[1], func(s string) string { return `\` + s })
	}

	res, err := segment.Segment(doc, link, opts)
	if err != nil {
		return nil, domain.NewUpstreamError(Name, err)
	}

	out := &result.PreviewResult{
		Link:   link,
		Icon:   "/favicons/mdn.svg",
		Footer: `Source: <a href="` + html.EscapeString(link) + `">developer.mozilla.org</a>. CC-BY-SA.`,
	}
	var body strings.Builder
	for _, s := range res.Sections {
		body.WriteString(s.Snippet)
	}
	out.HTML = body.String()
	if len(res.Sections) > 0 {
		out.Title = res.Sections[0].Title
	}
	return out, nil
}

// tagCodeLanguages copies the language marker MDN puts on <pre> onto the
// inner <code>, where fragment cleanup looks for it.
func tagCodeLanguages(_ *goquery.Document, root *goquery.Selection) {
	root.Find("pre").Each(func(_ int, pre *goquery.Selection) {
		if m := preLang.FindStringSubmatch(pre.AttrOr("class", "")); m != nil {
			pre.Find("code").AddClass("language-" + m[1])
		}
	})
}
