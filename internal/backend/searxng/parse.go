package searxng

import (
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/kailas-cloud/metasearch/internal/domain/result"
)

type searchResponse struct {
	Results []searchItem `json:"results"`
}

type searchItem struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	Engine        string `json:"engine"`
	Category      string `json:"category"`
	ImgSrc        string `json:"img_src"`
	ThumbnailSrc  string `json:"thumbnail_src"`
	Thumbnail     string `json:"thumbnail"`
	PublishedDate string `json:"publishedDate"`
	Resolution    string `json:"resolution"`
}

func (s searchItem) isImage() bool {
	return s.Category == CategoryImages || s.ImgSrc != ""
}

func (s searchItem) thumb() string {
	switch {
	case s.ThumbnailSrc != "":
		return s.ThumbnailSrc
	case s.Thumbnail != "":
		return s.Thumbnail
	default:
		return s.ImgSrc
	}
}

func (s searchItem) toItem() *result.Item {
	it := &result.Item{
		Link:    s.URL,
		Title:   strings.TrimSpace(s.Title),
		Snippet: strings.TrimSpace(s.Content),
		Image:   s.thumb(),
		Footer:  hostname(s.URL),
		Source:  s.Engine,
	}
	if ts, err := time.Parse(time.RFC3339, s.PublishedDate); err == nil {
		it.Timestamp = ts.UnixMilli()
	}
	if s.isImage() {
		it.Options = map[string]any{"original": s.ImgSrc}
		if s.Resolution != "" {
			it.Footer = s.Resolution + " &bull; " + it.Footer
		}
	}
	return it
}

// buildPage maps raw results for one category. On the general category,
// image results are grouped into a gallery after the third organic item.
func buildPage(category string, raw []searchItem) Page {
	switch category {
	case CategoryImages:
		return Page{Layout: "gallery", Items: mapItems(raw)}
	case CategoryVideos:
		return Page{Layout: "cards", Items: mapItems(raw)}
	}

	var organic, images []*result.Item
	for _, s := range raw {
		if s.URL == "" || s.Title == "" {
			continue
		}
		if s.isImage() {
			images = append(images, s.toItem())
		} else {
			organic = append(organic, s.toItem())
		}
	}
	if len(images) > 0 {
		if len(images) > galleryMax {
			images = images[:galleryMax]
		}
		gallery := result.NewWidget(result.TypeGallery, CategoryImages, images...)
		gallery.Link = "?category=" + CategoryImages
		at := min(galleryAfter, len(organic))
		organic = slices.Insert(organic, at, gallery)
	}
	return Page{Items: organic}
}

func mapItems(raw []searchItem) []*result.Item {
	out := make([]*result.Item, 0, len(raw))
	for _, s := range raw {
		if s.URL == "" {
			continue
		}
		out = append(out, s.toItem())
	}
	return out
}

// parseAutocomplete accepts the OpenSearch form ["q", ["a", "b"]] and a plain list.
func parseAutocomplete(body []byte) ([]string, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode autocomplete: %w", err)
	}
	if len(raw) == 2 {
		var list []string
		if err := json.Unmarshal(raw[1], &list); err == nil {
			return list, nil
		}
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			out = append(out, s)
		}
	}
	return out, nil
}

func hostname(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
