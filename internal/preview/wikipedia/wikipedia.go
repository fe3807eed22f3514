// Package wikipedia previews Wikipedia articles: the lead section of the
// article, or the section a fragment points at.
package wikipedia

import (
	"bytes"
	"context"
	"html"
	"net/url"
	"regexp"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/result"
	"github.com/kailas-cloud/metasearch/internal/preview"
	"github.com/kailas-cloud/metasearch/internal/segment"
)

// Name is the registry name of the backend.
const Name = "wikipedia"

const minImageWidth = 100

var fragment = regexp.MustCompile(`#([^?]+)`)

// Fetcher downloads pages.
type Fetcher interface {
	Fetch(ctx context.Context, link string) (*preview.Page, error)
}

// Backend previews *.wikipedia.org articles.
type Backend struct {
	preview.Pattern
	fetcher Fetcher
}

// New creates the backend.
func New(fetcher Fetcher) *Backend {
	return &Backend{
		Pattern: preview.NewPattern(`^https://[^/]+\.wikipedia\.org/wiki/.`),
		fetcher: fetcher,
	}
}

// Name returns the registry name.
func (*Backend) Name() string { return Name }

// Match excludes the Special, Wikipedia and Portal namespaces.
func (b *Backend) Match(link string) bool {
	if !b.Pattern.Match(link) {
		return false
	}
	return !namespaced.MatchString(link)
}

var namespaced = regexp.MustCompile(`/wiki/(Special|Wikipedia|Portal):`)

// Preview fetches the article and summarizes its first matching section.
func (b *Backend) Preview(ctx context.Context, link string, _ domain.RequestContext) (*result.PreviewResult, error) {
	page, err := b.fetcher.Fetch(ctx, link)
	if err != nil {
		return nil, domain.NewUpstreamError(Name, err)
	}

	opts := segment.DefaultOptions()
	opts.Headings = "h1"
	if m := fragment.FindStringSubmatch(link); m != nil {
		id := cssEscape(m[1])
		opts.Headings = "h2 > #" + id + ", h3 > #" + id + ", h2#" + id + ", h3#" + id
	}
	opts.Snippets = "h3, h4, h5, p, ul, ol, pre"
	opts.Stops = "h1, h2"
	opts.Ignore = ".ambox, .infobox, .nomobile, .sidebar, .toc"
	opts.MaxSections = 1
	opts.MaxSnippets = 3
	opts.Root = func(doc *goquery.Document) *goquery.Selection {
		doc.Find(".mw-editsection").Remove()
		doc.Find("sup > a").Parent().Remove()
		doc.Find("#coordinates").Remove()
		return doc.Selection
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, domain.NewUpstreamError(Name, err)
	}
	geohack, _ := doc.Find("#coordinates a.external").Attr("href")

	res, err := segment.Segment(doc, link, opts)
	if err != nil {
		return nil, domain.NewUpstreamError(Name, err)
	}

	out := &result.PreviewResult{
		Link:   link,
		Icon:   "/favicons/wikipedia.svg",
		Footer: `<div class="mt-3 small">Source: <a href="` + html.EscapeString(link) + `">wikipedia.org</a>. CC BY-SA 3.0.</div>`,
		Image:  articleImage(res.Doc, page),
	}
	if len(res.Sections) > 0 {
		out.Title = res.Sections[0].Title
		out.HTML = res.Sections[0].Snippet
	}
	if geohack != "" {
		out.Deeplinks = []result.PreviewDeeplink{{Icon: "map-pin-line", Link: url.QueryEscape(geohack)}}
	}
	return out, nil
}

// articleImage picks the first sizable infobox or thumbnail image, falling
// back to the page's OpenGraph image.
func articleImage(doc *goquery.Document, page *preview.Page) string {
	var src string
	doc.Find(".thumb, .infobox, .sidebar, .vcard").Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		w, _ := strconv.Atoi(img.AttrOr("width", "0"))
		if w == 0 || w > minImageWidth {
			src = img.AttrOr("src", "")
			return src == ""
		}
		return true
	})
	if src == "" {
		return page.Image()
	}
	if base, err := url.Parse(page.URL); err == nil {
		if ref, err := url.Parse(src); err == nil {
			return base.ResolveReference(ref).String()
		}
	}
	return src
}

var cssUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// cssEscape escapes a fragment for use as an id selector.
func cssEscape(id string) string {
	if unescaped, err := url.PathUnescape(id); err == nil {
		id = unescaped
	}
	return cssUnsafe.ReplaceAllStringFunc(id, func(s string) string {
		return `\` + s
	})
}
