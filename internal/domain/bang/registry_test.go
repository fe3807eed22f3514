package bang

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/metasearch/internal/domain/query"
)

func newTestRegistry() *Registry {
	r := NewRegistry()
	r.Register("w", Bang{Label: "Wikipedia", Priority: 50, URL: "https://en.wikipedia.org/wiki/%s"})
	r.Register("wiki", Bang{Label: "Wikipedia", Priority: 40, URL: "https://en.wikipedia.org/wiki/%s"})
	r.Register("!wa", Bang{Label: "Wolfram Alpha", Priority: 30, URL: "https://www.wolframalpha.com/input/?i=%s"})
	r.Register("g", Bang{Label: "Google", Priority: 100, URL: "https://www.google.com/search?q=%s"})
	r.Register("gh", Bang{Label: "GitHub", Priority: 30, URL: "https://github.com/search?q=%s"})
	r.Register("ddg", Bang{Label: "DuckDuckGo", Priority: 30, URL: "https://duckduckgo.com/?q=%s"})
	return r
}

func TestResolve_StripsMarker(t *testing.T) {
	r := newTestRegistry()
	b, ok := r.Resolve("!wa")
	if !ok {
		t.Fatal("expected !wa to resolve")
	}
	if b.Key != "wa" {
		t.Errorf("Key = %q, want wa", b.Key)
	}
	if _, ok := r.Resolve("nope"); ok {
		t.Error("unknown key should not resolve")
	}
}

func TestTarget_EscapesTerm(t *testing.T) {
	b := Bang{URL: "https://www.google.com/search?q=%s"}
	got := b.Target("a b&c")
	want := "https://www.google.com/search?q=a%20b%26c"
	if got != want {
		t.Errorf("Target() = %q, want %q", got, want)
	}
}

func TestSuggest_ListAllSortedAndDeduplicated(t *testing.T) {
	r := newTestRegistry()
	got := r.Suggest(query.Parse("!"), 10)

	if len(got) != 5 {
		t.Fatalf("len = %d, want 5 (wiki duplicates w): %+v", len(got), got)
	}
	if got[0].Bang != "g" {
		t.Errorf("first = %q, want g (highest priority)", got[0].Bang)
	}
	// equal priorities keep registration order
	want := []string{"g", "w", "wa", "gh", "ddg"}
	for i, key := range want {
		if got[i].Bang != key {
			t.Errorf("got[%d] = %q, want %q", i, got[i].Bang, key)
		}
	}
}

func TestSuggest_NoDuplicatePairsAndLimit(t *testing.T) {
	r := newTestRegistry()
	for _, limit := range []int{1, 2, 3, 10} {
		got := r.Suggest(query.Parse("!"), limit)
		if len(got) > limit {
			t.Errorf("limit %d: len = %d", limit, len(got))
		}
		seen := map[string]bool{}
		for _, s := range got {
			b, _ := r.Resolve(s.Bang)
			k := b.Label + "|" + b.URL
			if seen[k] {
				t.Errorf("limit %d: duplicate pair %s", limit, k)
			}
			seen[k] = true
		}
	}
}

func TestSuggest_Prefix(t *testing.T) {
	r := newTestRegistry()
	got := r.Suggest(query.Parse("!w"), 10)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(got), got)
	}
	if got[0].Bang != "w" || got[1].Bang != "wa" {
		t.Errorf("got %+v", got)
	}
}

func TestSuggest_NotTriggered(t *testing.T) {
	r := newTestRegistry()
	for _, raw := range []string{"hello", "!w privacy", "/calc"} {
		if got := r.Suggest(query.Parse(raw), 10); len(got) != 0 {
			t.Errorf("Suggest(%q) = %+v, want none", raw, got)
		}
	}
}

func TestPopulate_Policy(t *testing.T) {
	data := `[
		{"t":"g","s":"Google","r":10,"u":"https://www.google.com/search?q={{{s}}}"},
		{"t":"b","s":"Bing","r":5,"u":"https://www.bing.com/search?q={{{s}}}"},
		{"t":"yt","s":"YouTube","r":8,"u":"https://www.youtube.com/results?search_query={{{s}}}"}
	]`
	entries, err := ReadDataset(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadDataset: %v", err)
	}

	t.Run("deny", func(t *testing.T) {
		r := NewRegistry()
		Populate(r, entries, Policy{Deny: []string{"b"}})
		if _, ok := r.Resolve("b"); ok {
			t.Error("denied bang registered")
		}
		g, ok := r.Resolve("g")
		if !ok {
			t.Fatal("g missing")
		}
		if !strings.Contains(g.URL, Placeholder) {
			t.Errorf("placeholder not normalized: %q", g.URL)
		}
	})

	t.Run("allow", func(t *testing.T) {
		r := NewRegistry()
		Populate(r, entries, Policy{Allow: []string{"yt"}, Deny: []string{"yt"}})
		if r.Len() != 1 {
			t.Errorf("Len() = %d, want 1", r.Len())
		}
	})

	t.Run("add", func(t *testing.T) {
		r := NewRegistry()
		Populate(r, entries, Policy{Add: map[string]Bang{
			"!g": {Label: "My Google", Priority: 1, URL: "https://g.example/?q=%s"},
		}})
		g, _ := r.Resolve("g")
		if g.Label != "My Google" {
			t.Errorf("add should override dataset, got %q", g.Label)
		}
	})
}
