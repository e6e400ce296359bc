package gobahrain

import "github.com/gobahrain/gobahrain/internal/domain"

// Preferences are the caller's stated tastes.
type Preferences struct {
	Food      []string `json:"food,omitempty"`
	Interests []string `json:"interests,omitempty"`
	Budget    string   `json:"budget,omitempty"`
	Pace      string   `json:"pace,omitempty"`
	Vibe      string   `json:"vibe,omitempty"`
}

// PlanItem is one stop of a generated day plan.
type PlanItem struct {
	Spot   string  `json:"spot"`
	Time   string  `json:"time"` // Morning, Afternoon, Evening
	Type   string  `json:"type"` // place, restaurant, event
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Reason string  `json:"reason"`
}

// PlanIssue flags a plan item that does not agree with the retrieved candidates.
type PlanIssue struct {
	Index      int    `json:"index"`
	Spot       string `json:"spot"`
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// DayPlan is the result of Plan.
type DayPlan struct {
	// Raw is the model output the items were parsed from.
	Raw string `json:"day_plan"`
	// UsedPlacesCount is approximate: candidate names found in Raw.
	UsedPlacesCount int         `json:"used_places_count"`
	LatencyMs       int64       `json:"latency_ms"`
	Items           []PlanItem  `json:"items"`
	Issues          []PlanIssue `json:"issues"`
}

// ClientMatch is one raw client profile hit.
type ClientMatch struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ClientMatches is the result of MatchClients.
type ClientMatches struct {
	Clients   []ClientMatch `json:"clients"`
	LatencyMs int64         `json:"latency_ms"`
}

// Action is a follow-up the assistant asks the app to perform.
type Action struct {
	Type  string `json:"type"` // show_posts, show_reviews
	Query string `json:"query,omitempty"`
	Place string `json:"place,omitempty"`
}

// ChatTurn is one prior message of a conversation.
type ChatTurn struct {
	Role    string   `json:"role"` // user, assistant
	Text    string   `json:"text"`
	Actions []Action `json:"actions,omitempty"`
}

// ChatReply is the result of Chat.
type ChatReply struct {
	Reply           string   `json:"reply"`
	Actions         []Action `json:"actions"`
	CandidatesCount int      `json:"candidates_count"`
	LatencyMs       int64    `json:"latency_ms"`
}

// Place is one explorer entry.
type Place struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Kind        string   `json:"kind"`
	Category    string   `json:"category,omitempty"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
	Score       float64  `json:"score"`
}

// PlaceList is the result of Places. Fallback is set when the static list was served.
type PlaceList struct {
	Places    []Place `json:"places"`
	Fallback  bool    `json:"fallback"`
	LatencyMs int64   `json:"latency_ms"`
}

// PlacesQuery filters Places. Zero values use server defaults.
type PlacesQuery struct {
	Text string
	TopK int
	// MappableOnly keeps places with coordinates (AR and map views).
	MappableOnly bool
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status  string            `json:"status"` // "ok", "degraded", "error"
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"` // component → "ok"/"error"
}

// Community types are shared with the server.
type (
	Post   = domain.Post
	Review = domain.Review
	POI    = domain.POI
)

// NearbyQuery locates points of interest around a coordinate.
type NearbyQuery struct {
	Lat      float64
	Lng      float64
	RadiusKm float64 // 0 uses the server default
	Limit    int
}
