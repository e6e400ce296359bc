package prompt

import (
	"strings"

	"github.com/gobahrain/gobahrain/internal/domain"
)

// Day-plan decoding parameters.
const (
	DayPlanTemperature = 0.4
	DayPlanMaxTokens   = 1800
)

const dayPlanPersona = `You are Go Bahrain's day planner. Build a one-day itinerary in Bahrain.`

const dayPlanRules = `Rules:
- Use only candidates from the list above. Copy each "spot" exactly as the candidate name is written.
- Include at least 6 stops: breakfast, lunch, dinner and 3 place visits. More stops are allowed.
- Morning is 08:00-12:00, Afternoon is 12:00-17:00, Evening is 17:00-22:00.
- Breakfast is in the Morning, lunch in the Afternoon, dinner in the Evening.
- For breakfast, prefer a venue that matches the user's food preference before a generic breakfast venue.
- Schedule an event only inside its own time window and under the time of day its start time falls in. Never move an event to another time of day.
- If a category has no candidates, leave it out rather than inventing one.`

const dayPlanOutput = `Output only a JSON array, no prose. Every element must have exactly these fields:
{"spot": string, "time": "Morning" | "Afternoon" | "Evening", "type": "place" | "restaurant" | "event", "lat": number, "lng": number, "reason": string}
Use the candidate's coords for lat and lng when listed, otherwise 0.`

// DayPlanSystemPrompt builds the day-plan instruction around the candidate context.
func DayPlanSystemPrompt(context string, prefs domain.Preferences) string {
	candidates := "Candidates:\n" + context
	if context == "" {
		candidates = "Candidates: none available. Return an empty JSON array []."
	}
	return joinSections(dayPlanPersona, candidates, dayPlanRules, PreferencesBlock(prefs), dayPlanOutput)
}

// DayPlanUserPrompt wraps the caller's request.
func DayPlanUserPrompt(message string, prefs domain.Preferences) string {
	var b strings.Builder
	b.WriteString("Plan my day in Bahrain: ")
	b.WriteString(strings.TrimSpace(message))
	if food := prefs.FoodLabels(); len(food) > 0 {
		b.WriteString("\nI like to eat: ")
		b.WriteString(strings.Join(food, ", "))
	}
	b.WriteString("\nReturn the JSON array only.")
	return b.String()
}
