package candidate

import "strings"

// cuisineValues maps user-facing food labels (lowercase) to the index's cuisine values.
var cuisineValues = map[string]string{
	"cafe":           "Cafe",
	"coffee":         "Cafe",
	"bahraini":       "Bahraini",
	"arabic":         "Middle Eastern",
	"middle eastern": "Middle Eastern",
	"lebanese":       "Lebanese",
	"indian":         "Indian",
	"seafood":        "Seafood",
	"italian":        "Italian",
	"asian":          "Asian",
	"japanese":       "Japanese",
	"chinese":        "Chinese",
	"fast food":      "Fast Food",
	"burgers":        "Fast Food",
	"desserts":       "Desserts",
	"bakery":         "Bakery",
	"healthy":        "Healthy",
	"vegetarian":     "Vegetarian",
	"international":  "International",
}

// CuisineValue maps a food label to the value stored under FieldCuisine.
// Unknown labels pass through trimmed.
func CuisineValue(label string) string {
	label = strings.TrimSpace(label)
	if v, ok := cuisineValues[strings.ToLower(label)]; ok {
		return v
	}
	return label
}

// CuisineValues maps labels in order, dropping blanks and repeated values.
func CuisineValues(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		v := CuisineValue(l)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// MatchesCuisine reports whether the record is a restaurant serving one of
// the given index cuisine values, compared case-insensitively.
func (r Record) MatchesCuisine(values []string) bool {
	if r.kind != KindRestaurant || r.cuisine == "" {
		return false
	}
	for _, v := range values {
		if strings.EqualFold(r.cuisine, v) {
			return true
		}
	}
	return false
}
