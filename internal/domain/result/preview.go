package result

import "slices"

// PreviewDeeplink is a link shown next to a preview.
type PreviewDeeplink struct {
	Icon  string `json:"icon,omitempty"`
	Label string `json:"label,omitempty"`
	Link  string `json:"link"`
}

// PreviewResult is the structured summary of a previewable page.
type PreviewResult struct {
	Link      string            `json:"link"`
	Title     string            `json:"title,omitempty"`
	Subtitle  string            `json:"subtitle,omitempty"`
	Footer    string            `json:"footer,omitempty"`
	Icon      string            `json:"icon,omitempty"`
	Image     string            `json:"image,omitempty"`
	HTML      string            `json:"html,omitempty"`
	Category  string            `json:"category,omitempty"`
	Deeplinks []PreviewDeeplink `json:"deeplinks,omitempty"`
}

// Clone returns a copy that shares no slices with p.
func (p *PreviewResult) Clone() *PreviewResult {
	if p == nil {
		return nil
	}
	out := *p
	out.Deeplinks = slices.Clone(p.Deeplinks)
	return &out
}
