package candidate

import "strings"

// Kind classifies a retrievable record.
type Kind string

// Record kinds.
const (
	KindPlace      Kind = "place"
	KindRestaurant Kind = "restaurant"
	KindEvent      Kind = "event"
	KindClient     Kind = "client"
)

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Record is the normalized view of one retrievable item (immutable value object).
type Record struct {
	id          string
	kind        Kind
	name        string
	description string
	category    string
	cuisine     string
	venue       string
	priceRange  string
	rating      float64
	hasRating   bool
	location    string
	vibe        string
	coords      *Coordinates
	score       float64
	meta        map[string]any
}

// Attributes are the optional fields of a Record.
type Attributes struct {
	Description string
	Category    string
	Cuisine     string
	Venue       string
	PriceRange  string
	Rating      *float64
	Location    string
	Vibe        string
	Coordinates *Coordinates
}

// New creates a Record. A blank name is rejected by returning ok=false.
func New(id string, kind Kind, name string, score float64, attrs Attributes, meta map[string]any) (Record, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Record{}, false
	}
	r := Record{
		id:          id,
		kind:        kind,
		name:        name,
		description: strings.TrimSpace(attrs.Description),
		category:    strings.TrimSpace(attrs.Category),
		cuisine:     strings.TrimSpace(attrs.Cuisine),
		venue:       strings.TrimSpace(attrs.Venue),
		priceRange:  strings.TrimSpace(attrs.PriceRange),
		location:    strings.TrimSpace(attrs.Location),
		vibe:        strings.TrimSpace(attrs.Vibe),
		score:       score,
		meta:        cloneMeta(meta),
	}
	if attrs.Rating != nil {
		r.rating = *attrs.Rating
		r.hasRating = true
	}
	if attrs.Coordinates != nil {
		c := *attrs.Coordinates
		r.coords = &c
	}
	return r, true
}

// ID returns the source identifier.
func (r Record) ID() string { return r.id }

// Kind returns the record kind.
func (r Record) Kind() Kind { return r.kind }

// Name returns the display name.
func (r Record) Name() string { return r.name }

// Description returns the free-text description.
func (r Record) Description() string { return r.description }

// Category returns the place category.
func (r Record) Category() string { return r.category }

// Cuisine returns the restaurant cuisine.
func (r Record) Cuisine() string { return r.cuisine }

// Venue returns the event venue.
func (r Record) Venue() string { return r.venue }

// PriceRange returns the price indicator.
func (r Record) PriceRange() string { return r.priceRange }

// Rating returns the rating and whether one was present.
func (r Record) Rating() (float64, bool) { return r.rating, r.hasRating }

// Location returns the address or area.
func (r Record) Location() string { return r.location }

// Vibe returns the atmosphere description.
func (r Record) Vibe() string { return r.vibe }

// Coordinates returns the lat/lng pair and whether both were present.
func (r Record) Coordinates() (Coordinates, bool) {
	if r.coords == nil {
		return Coordinates{}, false
	}
	return *r.coords, true
}

// Score returns the similarity score from the vector index.
func (r Record) Score() float64 { return r.score }

// Meta returns a copy of the untouched source metadata.
func (r Record) Meta() map[string]any { return cloneMeta(r.meta) }

// MealType returns the meal_type metadata value.
func (r Record) MealType() string { return r.metaString("meal_type") }

// EventType returns the event_type metadata value.
func (r Record) EventType() string { return r.metaString("event_type") }

// StartTime returns the start_time metadata value.
func (r Record) StartTime() string { return r.metaString("start_time") }

// EndTime returns the end_time metadata value.
func (r Record) EndTime() string { return r.metaString("end_time") }

// StartDate returns the start_date metadata value.
func (r Record) StartDate() string { return r.metaString("start_date") }

// EndDate returns the end_date metadata value.
func (r Record) EndDate() string { return r.metaString("end_date") }

// NameKey is the case-insensitive deduplication key.
func (r Record) NameKey() string { return NameKey(r.name) }

// NameKey folds a display name into its deduplication key.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (r Record) metaString(key string) string {
	s, _ := stringValue(r.meta[key])
	return s
}

func cloneMeta(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
