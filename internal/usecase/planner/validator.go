package planner

import (
	"fmt"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/gobahrain/gobahrain/internal/domain"
	"github.com/gobahrain/gobahrain/internal/domain/candidate"
)

// SuggestionThreshold is the minimum Jaro-Winkler similarity for a closest-name suggestion.
const SuggestionThreshold = 0.85

// IssueKind classifies a plan item that does not agree with its candidate set.
type IssueKind string

// Issue kinds.
const (
	IssueUnknownSpot       IssueKind = "unknown_spot"
	IssueEventTimeMismatch IssueKind = "event_time_mismatch"
	IssueTypeMismatch      IssueKind = "type_mismatch"
)

// Issue is one validation finding for the plan item at Index.
type Issue struct {
	Index      int       `json:"index"`
	Spot       string    `json:"spot"`
	Kind       IssueKind `json:"kind"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`
}

// Report lists validation issues in item order.
type Report struct {
	Issues []Issue
}

// OK reports whether no issue was found.
func (r Report) OK() bool { return len(r.Issues) == 0 }

// Validator checks generated plan items against the candidates the prompt offered.
// In trust mode issues are reported and items kept; strict mode drops offending items.
type Validator struct {
	strict bool
}

// NewValidator creates a validator.
func NewValidator(strict bool) *Validator {
	return &Validator{strict: strict}
}

// Strict reports whether offending items are dropped.
func (v *Validator) Strict() bool { return v.strict }

// Validate reports every spot that is not an exact candidate name, every event scheduled outside
// the bucket of its start time and every item whose type disagrees with the candidate kind.
func (v *Validator) Validate(items []domain.PlanItem, cands []candidate.Record) Report {
	byName := make(map[string]candidate.Record, len(cands))
	for _, c := range cands {
		if _, dup := byName[c.Name()]; !dup {
			byName[c.Name()] = c
		}
	}

	var report Report
	for i, item := range items {
		c, ok := byName[item.Spot]
		if !ok {
			report.Issues = append(report.Issues, Issue{
				Index:      i,
				Spot:       item.Spot,
				Kind:       IssueUnknownSpot,
				Message:    "spot is not one of the offered candidates",
				Suggestion: closestName(item.Spot, cands),
			})
			continue
		}

		if kind := c.Kind(); kind == candidate.KindPlace || kind == candidate.KindRestaurant || kind == candidate.KindEvent {
			if string(kind) != string(item.Type) {
				report.Issues = append(report.Issues, Issue{
					Index:   i,
					Spot:    item.Spot,
					Kind:    IssueTypeMismatch,
					Message: fmt.Sprintf("type %s but candidate is a %s", item.Type, kind),
				})
			}
		}

		if c.Kind() == candidate.KindEvent {
			if hour, ok := domain.ParseClockHour(c.StartTime()); ok {
				if bucket := domain.BucketForHour(hour); bucket != item.Time {
					report.Issues = append(report.Issues, Issue{
						Index:   i,
						Spot:    item.Spot,
						Kind:    IssueEventTimeMismatch,
						Message: fmt.Sprintf("event starts at %s (%s) but is scheduled in the %s", c.StartTime(), bucket, item.Time),
					})
				}
			}
		}
	}
	return report
}

// Apply validates items. Strict mode removes every item with an issue and fails with
// domain.ErrPlanValidation when nothing remains; trust mode returns items unchanged.
func (v *Validator) Apply(items []domain.PlanItem, cands []candidate.Record) ([]domain.PlanItem, Report, error) {
	report := v.Validate(items, cands)
	if !v.strict || report.OK() {
		return items, report, nil
	}

	bad := make(map[int]struct{}, len(report.Issues))
	for _, is := range report.Issues {
		bad[is.Index] = struct{}{}
	}
	kept := make([]domain.PlanItem, 0, len(items))
	for i, item := range items {
		if _, drop := bad[i]; !drop {
			kept = append(kept, item)
		}
	}
	if len(kept) == 0 {
		return nil, report, fmt.Errorf("all %d plan items rejected: %w", len(items), domain.ErrPlanValidation)
	}
	return kept, report, nil
}

// closestName returns the most similar candidate name at or above SuggestionThreshold.
func closestName(spot string, cands []candidate.Record) string {
	target := strings.ToLower(strings.TrimSpace(spot))
	best := ""
	var bestScore float32
	for _, c := range cands {
		score := edlib.JaroWinklerSimilarity(target, c.NameKey())
		if score > bestScore {
			best, bestScore = c.Name(), score
		}
	}
	if bestScore < SuggestionThreshold {
		return ""
	}
	return best
}
