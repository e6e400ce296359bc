// Package prompt renders candidate sets and caller context into model instructions.
// Every function is pure: identical input yields byte-identical output.
package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gobahrain/gobahrain/internal/domain"
	"github.com/gobahrain/gobahrain/internal/domain/candidate"
)

// BuildContext renders candidates as numbered lines. Only present attributes are rendered.
// Restaurants whose cuisine matches a preferred food label are marked.
// Returns "" for an empty candidate set.
func BuildContext(cands []candidate.Record, prefs domain.Preferences) string {
	if len(cands) == 0 {
		return ""
	}

	preferred := candidate.CuisineValues(prefs.FoodLabels())

	var b strings.Builder
	for i, c := range cands {
		fmt.Fprintf(&b, "%d. %s [%s]", i+1, c.Name(), c.Kind())
		attrs := attributes(c, preferred)
		if len(attrs) > 0 {
			b.WriteString(" - ")
			b.WriteString(strings.Join(attrs, " | "))
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func attributes(c candidate.Record, preferred []string) []string {
	var attrs []string
	add := func(label, value string) {
		if v := strings.TrimSpace(value); v != "" {
			attrs = append(attrs, label+": "+v)
		}
	}

	add("description", c.Description())
	add("category", c.Category())
	add("cuisine", c.Cuisine())
	if c.MatchesCuisine(preferred) {
		attrs = append(attrs, "matches food preference")
	}
	add("meal", c.MealType())
	add("venue", c.Venue())
	add("vibe", c.Vibe())
	add("price", c.PriceRange())
	if r, ok := c.Rating(); ok {
		add("rating", strconv.FormatFloat(r, 'f', -1, 64))
	}
	add("location", c.Location())

	if c.Kind() == candidate.KindEvent {
		add("time", timeWindow(c.StartTime(), c.EndTime()))
		if hour, ok := domain.ParseClockHour(c.StartTime()); ok {
			add("time of day", string(domain.BucketForHour(hour)))
		}
		add("dates", dateRange(c.StartDate(), c.EndDate()))
	}
	if coords, ok := c.Coordinates(); ok {
		add("coords", strconv.FormatFloat(coords.Lat, 'f', -1, 64)+","+strconv.FormatFloat(coords.Lng, 'f', -1, 64))
	}
	return attrs
}

func timeWindow(start, end string) string {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	switch {
	case start != "" && end != "":
		return start + "-" + end
	case start != "":
		return "from " + start
	case end != "":
		return "until " + end
	default:
		return ""
	}
}

func dateRange(start, end string) string {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start != "" && end != "" && start != end {
		return start + " to " + end
	}
	if start != "" {
		return start
	}
	return end
}

// PreferencesBlock renders preferences with a fixed key order. Empty preferences render "".
func PreferencesBlock(prefs domain.Preferences) string {
	lines := []struct{ key, value string }{
		{"budget", strings.TrimSpace(prefs.Budget)},
		{"food", strings.Join(prefs.FoodLabels(), ", ")},
		{"interests", strings.Join(prefs.InterestLabels(), ", ")},
		{"pace", strings.TrimSpace(prefs.Pace)},
		{"vibe", strings.TrimSpace(prefs.Vibe)},
	}

	var b strings.Builder
	for _, l := range lines {
		if l.value == "" {
			continue
		}
		fmt.Fprintf(&b, "\n- %s: %s", l.key, l.value)
	}
	if b.Len() == 0 {
		return ""
	}
	return "User preferences:" + b.String()
}

// MatchQuery turns interest and food labels into client-matching query text.
// Returns "" when both are empty so the caller's default phrase applies.
func MatchQuery(interests, food []string) string {
	prefs := domain.Preferences{Interests: interests, Food: food}
	var parts []string
	if in := prefs.InterestLabels(); len(in) > 0 {
		parts = append(parts, "Interests: "+strings.Join(in, ", ")+".")
	}
	if f := prefs.FoodLabels(); len(f) > 0 {
		parts = append(parts, "Food: "+strings.Join(f, ", ")+".")
	}
	return strings.Join(parts, " ")
}

func joinSections(sections ...string) string {
	kept := make([]string, 0, len(sections))
	for _, s := range sections {
		if s = strings.TrimSpace(s); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, "\n\n")
}
