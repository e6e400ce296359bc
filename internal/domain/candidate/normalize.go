package candidate

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Metadata keys that classify a record in the vector index.
const (
	FieldRecordType = "record_type"
	FieldClientType = "client_type"
	FieldCuisine    = "cuisine"
	FieldMealType   = "meal_type"
)

// Values of record_type and client_type.
const (
	RecordTypeClient = "client"
	RecordTypeEvent  = "event"
	ClientTypePlace  = "place"
	ClientTypeRest   = "restaurant"
)

var (
	nameKeys        = []string{"name", "title", "client_name", "place_name", "restaurant_name", "event_name"}
	descriptionKeys = []string{"description", "desc", "about", "summary"}
	categoryKeys    = []string{"category", "place_category", "type"}
	cuisineKeys     = []string{"cuisine", "cuisine_type", "food_category"}
	venueKeys       = []string{"venue", "venue_name"}
	priceKeys       = []string{"price_range", "priceRange", "price", "price_level"}
	ratingKeys      = []string{"rating", "avg_rating", "stars"}
	locationKeys    = []string{"location", "address", "area", "city"}
	vibeKeys        = []string{"vibe", "atmosphere", "ambience"}
	latKeys         = []string{"lat", "latitude", "Lat", "Latitude"}
	lngKeys         = []string{"lng", "lon", "long", "longitude", "Lng", "Longitude"}
)

// Normalize maps one raw vector match onto a Record.
// Every source field-name variant is resolved here so callers never branch on them.
// Returns ok=false when no name can be resolved.
func Normalize(id string, score float64, metadata map[string]any) (Record, bool) {
	name := firstString(metadata, nameKeys)
	if name == "" {
		return Record{}, false
	}

	attrs := Attributes{
		Description: firstString(metadata, descriptionKeys),
		Category:    firstString(metadata, categoryKeys),
		Cuisine:     firstString(metadata, cuisineKeys),
		Venue:       firstString(metadata, venueKeys),
		PriceRange:  firstString(metadata, priceKeys),
		Location:    firstString(metadata, locationKeys),
		Vibe:        firstString(metadata, vibeKeys),
	}
	if rating, ok := firstFloat(metadata, ratingKeys); ok {
		attrs.Rating = &rating
	}
	lat, latOK := firstFloat(metadata, latKeys)
	lng, lngOK := firstFloat(metadata, lngKeys)
	if latOK && lngOK {
		attrs.Coordinates = &Coordinates{Lat: lat, Lng: lng}
	}

	return New(id, KindOf(metadata), name, score, attrs, metadata)
}

// KindOf classifies metadata by record_type and client_type.
func KindOf(metadata map[string]any) Kind {
	recordType, _ := stringValue(metadata[FieldRecordType])
	if strings.EqualFold(recordType, RecordTypeEvent) {
		return KindEvent
	}
	clientType, _ := stringValue(metadata[FieldClientType])
	switch strings.ToLower(clientType) {
	case ClientTypeRest:
		return KindRestaurant
	case ClientTypePlace:
		return KindPlace
	default:
		return KindClient
	}
}

func firstString(m map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := stringValue(m[k]); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstFloat(m map[string]any, keys []string) (float64, bool) {
	for _, k := range keys {
		if f, ok := floatValue(m[k]); ok {
			return f, true
		}
	}
	return 0, false
}

func stringValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	default:
		return "", false
	}
}

func floatValue(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
