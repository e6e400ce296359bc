package candidate

import (
	"time"

	"github.com/gobahrain/gobahrain/internal/domain"
)

// Step records one vector query attempted while resolving a recipe.
type Step struct {
	Category string
	Filter   string
	TopK     int
	Matches  int
	Err      error
	Latency  time.Duration
}

// Set is the ordered, deduplicated output of one resolution.
type Set struct {
	Candidates []Record
	Steps      []Step
	Fallback   bool
}

// Names returns candidate display names in order.
func (s Set) Names() []string {
	names := make([]string, len(s.Candidates))
	for i, c := range s.Candidates {
		names[i] = c.Name()
	}
	return names
}

// Len returns the number of candidates.
func (s Set) Len() int { return len(s.Candidates) }

// FromMatches normalizes raw matches in provider order, discarding unnamed records.
func FromMatches(matches []domain.ScoredMatch) []Record {
	out := make([]Record, 0, len(matches))
	for _, m := range matches {
		if r, ok := Normalize(m.ID, m.Score, m.Metadata); ok {
			out = append(out, r)
		}
	}
	return out
}
