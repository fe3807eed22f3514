package mdn

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/preview"
)

const doc = `<html><body>
<nav><h1>Menu</h1></nav>
<main id="content">
<h1>Array.prototype.map()</h1>
<p>The <code>map()</code> method creates a new array.</p>
<h2 id="syntax">Syntax</h2>
<pre class="brush: js notranslate"><code>arr.map(fn)</code></pre>
<h2 id="specifications">Specifications</h2>
<section id="specifications"><p>spec table</p></section>
<h2 id="see_also">See also</h2>
<ul><li><a href="/en-US/docs/Web/JavaScript/Reference/Global_Objects/Array/forEach">forEach</a></li></ul>
</main>
</body></html>`

type stubFetcher struct{ err error }

func (s stubFetcher) Fetch(_ context.Context, link string) (*preview.Page, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &preview.Page{URL: link, Body: []byte(doc)}, nil
}

const link = "https://developer.mozilla.org/en-US/docs/Web/JavaScript/Reference/Global_Objects/Array/map"

func TestMatch(t *testing.T) {
	b := New(stubFetcher{})
	if !b.Match(link) {
		t.Error("docs link should match")
	}
	if b.Match("https://developer.mozilla.org/en-US/blog/") {
		t.Error("blog should not match")
	}
}

func TestPreview(t *testing.T) {
	res, err := New(stubFetcher{}).Preview(context.Background(), link, domain.RequestContext{})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if res.Title != "Array.prototype.map()" {
		t.Errorf("Title = %q", res.Title)
	}
	for _, want := range []string{
		`<div class="font-bold">Syntax</div>`,
		`<code class="language-js">`,
		`href="https://developer.mozilla.org/en-US/docs/Web/JavaScript/Reference/Global_Objects/Array/forEach"`,
	} {
		if !strings.Contains(res.HTML, want) {
			t.Errorf("HTML missing %s:\n%s", want, res.HTML)
		}
	}
	if strings.Contains(res.HTML, "spec table") || strings.Contains(res.HTML, "Menu") {
		t.Errorf("HTML contains ignored content:\n%s", res.HTML)
	}
}

func TestPreview_Fragment(t *testing.T) {
	res, err := New(stubFetcher{}).Preview(context.Background(), link+"#see_also", domain.RequestContext{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Title != "See also" || !strings.Contains(res.HTML, "forEach") || strings.Contains(res.HTML, "creates a new array") {
		t.Errorf("res = %q / %q", res.Title, res.HTML)
	}
}

func TestPreview_FetchError(t *testing.T) {
	_, err := New(stubFetcher{err: errors.New("down")}).Preview(context.Background(), link, domain.RequestContext{})
	if !errors.Is(err, domain.ErrUpstreamFailure) {
		t.Errorf("error = %v", err)
	}
}
