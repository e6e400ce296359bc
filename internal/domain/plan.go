package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeOfDay is the scheduling bucket of a plan item.
type TimeOfDay string

// Scheduling buckets.
const (
	Morning   TimeOfDay = "Morning"
	Afternoon TimeOfDay = "Afternoon"
	Evening   TimeOfDay = "Evening"
)

// ParseTimeOfDay normalizes a bucket name case-insensitively.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "morning":
		return Morning, nil
	case "afternoon":
		return Afternoon, nil
	case "evening":
		return Evening, nil
	default:
		return "", fmt.Errorf("unknown time of day %q", s)
	}
}

// BucketForHour maps a 24h clock hour to its scheduling bucket.
func BucketForHour(hour int) TimeOfDay {
	switch {
	case hour < 12:
		return Morning
	case hour < 17:
		return Afternoon
	default:
		return Evening
	}
}

// ParseClockHour extracts the 24h hour from "HH:MM", "HH", "H:MM am" or "H pm" forms.
func ParseClockHour(s string) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}

	meridiem := ""
	for _, suffix := range []string{"am", "pm"} {
		if strings.HasSuffix(s, suffix) {
			meridiem = suffix
			s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
		}
	}

	hourPart, _, _ := strings.Cut(s, ":")
	hour, err := strconv.Atoi(hourPart)
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}

	switch meridiem {
	case "am":
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 12 {
			hour += 12
		}
	}
	return hour, true
}

// PlanType is the kind of stop in a plan item.
type PlanType string

// Plan item kinds.
const (
	PlanPlace      PlanType = "place"
	PlanRestaurant PlanType = "restaurant"
	PlanEvent      PlanType = "event"
)

// ParsePlanType normalizes a stop kind case-insensitively.
func ParsePlanType(s string) (PlanType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "place":
		return PlanPlace, nil
	case "restaurant":
		return PlanRestaurant, nil
	case "event":
		return PlanEvent, nil
	default:
		return "", fmt.Errorf("unknown plan type %q", s)
	}
}

// PlanItem is one stop of a generated day plan.
type PlanItem struct {
	Spot   string    `json:"spot"`
	Time   TimeOfDay `json:"time"`
	Type   PlanType  `json:"type"`
	Lat    float64   `json:"lat"`
	Lng    float64   `json:"lng"`
	Reason string    `json:"reason"`
}
