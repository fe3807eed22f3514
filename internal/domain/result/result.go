package result

// Widget item types. Only these carry nested items.
const (
	TypeGallery    = "gallery"
	TypeCards      = "cards"
	TypeCalculator = "calculator"
	TypeCurrency   = "currency"
	TypeCommand    = "command"
)

var widgetTypes = map[string]struct{}{
	TypeGallery:    {},
	TypeCards:      {},
	TypeCalculator: {},
	TypeCurrency:   {},
}

// IsWidgetType reports whether items of type t may group nested items.
func IsWidgetType(t string) bool {
	_, ok := widgetTypes[t]
	return ok
}

// Metadata is a name/value pair shown under an item.
type Metadata struct {
	Name  string `json:"name"`
	Link  string `json:"link,omitempty"`
	Value string `json:"value"`
}

// Deeplink is a secondary link attached to an item.
type Deeplink struct {
	Title        string   `json:"title"`
	Link         string   `json:"link"`
	Snippet      string   `json:"snippet,omitempty"`
	Preview      *bool    `json:"preview,omitempty"`
	PrivacyScore *float64 `json:"privacyScore,omitempty"`
}

// Item is one result entry. Widgets (gallery, cards, ...) group leaf items in Items.
type Item struct {
	ID           string         `json:"id,omitempty"`
	Link         string         `json:"link,omitempty"`
	Title        string         `json:"title,omitempty"`
	Snippet      string         `json:"snippet,omitempty"`
	Image        string         `json:"image,omitempty"`
	Icon         string         `json:"icon,omitempty"`
	Footer       string         `json:"footer,omitempty"`
	Subtitle     string         `json:"subtitle,omitempty"`
	Source       string         `json:"source,omitempty"`
	Type         string         `json:"type,omitempty"`
	Layout       string         `json:"layout,omitempty"`
	Labels       []string       `json:"labels,omitempty"`
	Metadata     []Metadata     `json:"metadata,omitempty"`
	Deeplinks    []*Deeplink    `json:"deeplinks,omitempty"`
	Items        []*Item        `json:"items,omitempty"`
	Options      map[string]any `json:"options,omitempty"`
	Timestamp    int64          `json:"timestamp,omitempty"`
	Preview      *bool          `json:"preview,omitempty"`
	PrivacyScore *float64       `json:"privacyScore,omitempty"`
}

// NewWidget creates a grouping item of the given type holding children.
func NewWidget(widgetType, title string, children ...*Item) *Item {
	return &Item{Type: widgetType, Title: title, Items: children}
}

// IsWidget reports whether the item's type may group nested items.
func (i *Item) IsWidget() bool {
	return IsWidgetType(i.Type)
}

// FilterOption is one selectable value of a Filter.
type FilterOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Filter is a named result refinement offered by a backend.
type Filter struct {
	Label   string         `json:"label"`
	Name    string         `json:"name"`
	Options []FilterOption `json:"options"`
}

// SearchResult is the accumulator every backend of a request writes into.
type SearchResult struct {
	Items      []*Item        `json:"items,omitempty"`
	Category   string         `json:"category,omitempty"`
	Categories []string       `json:"categories,omitempty"`
	Filters    []Filter       `json:"filters,omitempty"`
	Layout     string         `json:"layout,omitempty"`
	Notice     string         `json:"notice,omitempty"`
	Redirect   string         `json:"redirect,omitempty"`
	Preview    *PreviewResult `json:"preview,omitempty"`
}

// New returns an empty accumulator.
func New() *SearchResult {
	return &SearchResult{Items: []*Item{}}
}

// NewNotice returns a result carrying only a notice.
func NewNotice(msg string) *SearchResult {
	return &SearchResult{Notice: msg}
}

// NewRedirect returns a result that short-circuits to url.
func NewRedirect(url string) *SearchResult {
	return &SearchResult{Redirect: url}
}

// SetCategories stores categories unless an earlier writer already did.
// Returns true when the value was taken.
func (r *SearchResult) SetCategories(categories []string) bool {
	if len(r.Categories) > 0 || len(categories) == 0 {
		return false
	}
	r.Categories = categories
	return true
}

// SetFilters stores filters unless an earlier writer already did.
func (r *SearchResult) SetFilters(filters []Filter) bool {
	if len(r.Filters) > 0 || len(filters) == 0 {
		return false
	}
	r.Filters = filters
	return true
}

// AppendItems adds items after everything accumulated so far.
func (r *SearchResult) AppendItems(items ...*Item) {
	r.Items = append(r.Items, items...)
}

// InsertItems inserts items at index, clamped to [0, len(Items)].
// Existing items keep their relative order.
func (r *SearchResult) InsertItems(index int, items ...*Item) {
	if len(items) == 0 {
		return
	}
	if index < 0 {
		index = 0
	}
	if index > len(r.Items) {
		index = len(r.Items)
	}
	merged := make([]*Item, 0, len(r.Items)+len(items))
	merged = append(merged, r.Items[:index]...)
	merged = append(merged, items...)
	merged = append(merged, r.Items[index:]...)
	r.Items = merged
}

// HasItemType reports whether a top-level item of type t is present.
func (r *SearchResult) HasItemType(t string) bool {
	for _, it := range r.Items {
		if it != nil && it.Type == t {
			return true
		}
	}
	return false
}

// Walk calls fn for every item, depth first, including nested widget items.
func (r *SearchResult) Walk(fn func(*Item)) {
	walkItems(r.Items, fn)
}

// DropLeafChildren removes nested items from every non-widget item and
// returns how many items were cut.
func (r *SearchResult) DropLeafChildren() int {
	n := 0
	r.Walk(func(it *Item) {
		if len(it.Items) > 0 && !it.IsWidget() {
			n += len(it.Items)
			it.Items = nil
		}
	})
	return n
}

func walkItems(items []*Item, fn func(*Item)) {
	for _, it := range items {
		if it == nil {
			continue
		}
		fn(it)
		walkItems(it.Items, fn)
	}
}

// Bool returns a pointer to b, for explicit Preview values.
func Bool(b bool) *bool { return &b }
