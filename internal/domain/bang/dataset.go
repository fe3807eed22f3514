package bang

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ddgPlaceholder is the term placeholder used by the public bang dataset.
const ddgPlaceholder = "{{{s}}}"

// Entry is one record of the static bang dataset.
type Entry struct {
	Trigger  string `json:"t"`
	Label    string `json:"s"`
	Priority int    `json:"r"`
	URL      string `json:"u"`
}

// Policy selects which dataset bangs are registered and adds custom ones.
type Policy struct {
	Allow []string
	Deny  []string
	Add   map[string]Bang
}

// ReadDataset decodes a JSON array of dataset entries.
func ReadDataset(r io.Reader) ([]Entry, error) {
	var entries []Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode bang dataset: %w", err)
	}
	return entries, nil
}

// Populate registers dataset entries allowed by p, then p.Add.
// With a non-empty allow-list only listed triggers are taken; the deny-list
// applies otherwise.
func Populate(reg *Registry, entries []Entry, p Policy) int {
	allow := toSet(p.Allow)
	deny := toSet(p.Deny)

	n := 0
	for _, e := range entries {
		if len(allow) > 0 {
			if _, ok := allow[e.Trigger]; !ok {
				continue
			}
		} else if _, denied := deny[e.Trigger]; denied {
			continue
		}
		reg.Register(e.Trigger, Bang{
			Label:    e.Label,
			Priority: e.Priority,
			URL:      strings.ReplaceAll(e.URL, ddgPlaceholder, Placeholder),
		})
		n++
	}
	for key, b := range p.Add {
		reg.Register(key, b)
		n++
	}
	return n
}

func toSet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[normalizeKey(k)] = struct{}{}
	}
	return set
}
