// Package segment splits an HTML document into heading-delimited sections
// with a bounded number of cleaned snippets each. Preview backends build
// their summaries on top of it.
package segment

import (
	"fmt"
	"html"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Defaults applied by DefaultOptions.
const (
	DefaultHeadings    = "h1, h2, h3, h4, h5, h6"
	DefaultSnippets    = "p, ul, ol, pre"
	DefaultStops       = "h1, h2, h3, h4, h5, h6, hr"
	DefaultMaxSections = 10
	DefaultMaxSnippets = 3
)

// Options controls which elements open sections, become snippets or stop
// snippet collection. Stops and Ignore are taken literally; an empty value
// disables them.
type Options struct {
	Headings    string
	Snippets    string
	Stops       string
	Ignore      string
	MaxSections int
	MaxSnippets int
	// Root narrows the document before matching. Nil means the whole document.
	Root func(doc *goquery.Document) *goquery.Selection
	// Before runs on the narrowed root before matching.
	Before func(doc *goquery.Document, root *goquery.Selection)
}

// DefaultOptions returns the generic heading/paragraph layout.
func DefaultOptions() Options {
	return Options{
		Headings:    DefaultHeadings,
		Snippets:    DefaultSnippets,
		Stops:       DefaultStops,
		MaxSections: DefaultMaxSections,
		MaxSnippets: DefaultMaxSnippets,
	}
}

// Section is one titled block of the segmented document.
type Section struct {
	// Title is HTML-escaped heading text.
	Title string `json:"title"`
	// Snippet is the concatenated cleaned HTML of the section's snippets.
	Snippet string `json:"snippet"`
}

// Result is the segmented document. Doc stays available for callers that
// extract extra data (images, coordinates) after segmentation.
type Result struct {
	Doc      *goquery.Document
	Sections []Section
}

// Parse reads HTML from r and segments it.
func Parse(r io.Reader, baseURL string, opts Options) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return Segment(doc, baseURL, opts)
}

type section struct {
	title    string
	snippets []string
}

// Segment walks the matched elements of doc in document order and groups
// snippets under the preceding heading.
func Segment(doc *goquery.Document, baseURL string, opts Options) (*Result, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if opts.Headings == "" {
		opts.Headings = DefaultHeadings
	}
	if opts.Snippets == "" {
		opts.Snippets = DefaultSnippets
	}
	if opts.MaxSections <= 0 {
		opts.MaxSections = DefaultMaxSections
	}
	if opts.MaxSnippets <= 0 {
		opts.MaxSnippets = DefaultMaxSnippets
	}

	root := doc.Selection
	if opts.Root != nil {
		root = opts.Root(doc)
	}
	if opts.Before != nil {
		opts.Before(doc, root)
	}

	var sections []*section
	skip := false
	c := cleaner{base: base}

	root.Find(joinSelectors(opts.Headings, opts.Snippets, opts.Stops)).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if opts.Ignore != "" && el.Closest(opts.Ignore).Length() > 0 {
			return true
		}

		switch {
		case el.Is(opts.Headings):
			if len(sections) >= opts.MaxSections {
				return false
			}
			if title := strings.TrimSpace(el.Text()); title != "" {
				skip = false
				sections = append(sections, &section{title: title})
			}
		case opts.Stops != "" && el.Is(opts.Stops):
			skip = true
		default:
			if skip || len(sections) == 0 {
				return true
			}
			cur := sections[len(sections)-1]
			if len(cur.snippets) >= opts.MaxSnippets || strings.TrimSpace(el.Text()) == "" {
				return true
			}
			cur.snippets = append(cur.snippets, c.clean(el))
		}
		return true
	})

	out := make([]Section, len(sections))
	for i, s := range sections {
		out[i] = Section{
			Title:   html.EscapeString(s.title),
			Snippet: strings.Join(s.snippets, ""),
		}
	}
	return &Result{Doc: doc, Sections: out}, nil
}

func joinSelectors(sels ...string) string {
	parts := make([]string, 0, len(sels))
	for _, s := range sels {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}
