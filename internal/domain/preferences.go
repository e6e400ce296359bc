package domain

import "strings"

// Preferences are the caller's stated tastes, fed to both retrieval and prompts.
type Preferences struct {
	Food      []string `json:"food,omitempty"`
	Interests []string `json:"interests,omitempty"`
	Budget    string   `json:"budget,omitempty"`
	Pace      string   `json:"pace,omitempty"`
	Vibe      string   `json:"vibe,omitempty"`
}

// IsEmpty reports whether no preference is set.
func (p Preferences) IsEmpty() bool {
	return len(cleanList(p.Food)) == 0 &&
		len(cleanList(p.Interests)) == 0 &&
		strings.TrimSpace(p.Budget) == "" &&
		strings.TrimSpace(p.Pace) == "" &&
		strings.TrimSpace(p.Vibe) == ""
}

// FoodLabels returns trimmed, non-empty food labels in caller order.
func (p Preferences) FoodLabels() []string { return cleanList(p.Food) }

// InterestLabels returns trimmed, non-empty interests in caller order.
func (p Preferences) InterestLabels() []string { return cleanList(p.Interests) }

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
