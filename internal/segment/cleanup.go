package segment

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const headingSelector = "h1, h2, h3, h4, h5, h6"

var (
	languageClass  = regexp.MustCompile(`language-(\w+)`)
	absoluteHrefRe = regexp.MustCompile(`^(https?:)?//`)
)

// cleaner rewrites snippet fragments against the document's base URL.
type cleaner struct {
	base *url.URL
}

// clean returns the outer HTML of a cleaned copy of el. The document is not modified.
func (c cleaner) clean(el *goquery.Selection) string {
	if el.Is(headingSelector) {
		return cleanHeading(el)
	}
	if el.Is("pre") {
		return cleanPre(el)
	}

	frag := el.Clone()
	frag.Find(headingSelector).Each(func(_ int, h *goquery.Selection) {
		h.ReplaceWithHtml(cleanHeading(h))
	})
	frag.Find("pre").Each(func(_ int, pre *goquery.Selection) {
		pre.ReplaceWithHtml(cleanPre(pre))
	})
	frag.Find("a").Each(func(_ int, a *goquery.Selection) {
		c.rewriteLink(a)
	})

	out, err := goquery.OuterHtml(frag)
	if err != nil {
		return ""
	}
	return out
}

// rewriteLink makes relative hrefs absolute and unwraps in-page anchors.
func (c cleaner) rewriteLink(a *goquery.Selection) {
	href, ok := a.Attr("href")
	if !ok || href == "" || absoluteHrefRe.MatchString(href) {
		return
	}
	if strings.HasPrefix(href, "#") {
		a.ReplaceWithHtml(html.EscapeString(a.Text()))
		return
	}
	ref, err := url.Parse(href)
	if err != nil {
		return
	}
	a.SetAttr("href", c.base.ResolveReference(ref).String())
}

// cleanHeading flattens a heading to a bold block, keeping a link's content if present.
func cleanHeading(h *goquery.Selection) string {
	inner := h
	if a := h.Find("a"); a.Length() > 0 {
		inner = a.First()
	}
	content, err := inner.Html()
	if err != nil {
		content = html.EscapeString(inner.Text())
	}
	return `<div class="font-bold">` + content + `</div>`
}

// cleanPre re-renders a code block with syntax highlighting.
func cleanPre(pre *goquery.Selection) string {
	lang := ""
	if class, ok := pre.Find("code").Attr("class"); ok {
		if m := languageClass.FindStringSubmatch(class); m != nil {
			lang = m[1]
		}
	}
	return highlight(pre.Text(), lang)
}
