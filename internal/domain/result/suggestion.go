package result

// Suggestion is one autocomplete entry. Bang and Command are set for
// bang and command suggestions respectively.
type Suggestion struct {
	Label       string `json:"label"`
	Bang        string `json:"bang,omitempty"`
	Command     string `json:"command,omitempty"`
	Description string `json:"description,omitempty"`
	Aside       string `json:"aside,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Image       string `json:"image,omitempty"`
}

// Suggestions is the accumulator of a suggestion request.
type Suggestions struct {
	Items  []Suggestion `json:"items"`
	Notice string       `json:"notice,omitempty"`
}

// Append adds suggestions after the existing ones.
func (s *Suggestions) Append(items ...Suggestion) {
	s.Items = append(s.Items, items...)
}
