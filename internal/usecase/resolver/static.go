package resolver

import "github.com/gobahrain/gobahrain/internal/domain/candidate"

type staticPlace struct {
	id, name, category, description, location string
	lat, lng                                  float64
}

// staticPlaces is shown when place lookup cannot reach the index.
var staticPlaces = []staticPlace{
	{"static-bahrain-fort", "Bahrain Fort", "history",
		"UNESCO-listed fort on an ancient Dilmun tell overlooking the sea", "Karbabad", 26.2336, 50.5206},
	{"static-national-museum", "Bahrain National Museum", "culture",
		"The kingdom's largest museum covering Dilmun burial mounds to pearling", "Manama", 26.2403, 50.5930},
	{"static-al-fateh", "Al Fateh Grand Mosque", "culture",
		"One of the largest mosques in the world, open to visitors with guided tours", "Juffair", 26.2189, 50.5970},
	{"static-bab-al-bahrain", "Bab Al Bahrain", "shopping",
		"Historic gateway to the Manama souq with spices, textiles and gold", "Manama", 26.2361, 50.5756},
	{"static-avenues", "The Avenues Mall", "shopping",
		"Waterfront mall on Bahrain Bay with shops, cafes and sea views", "Bahrain Bay", 26.2430, 50.5860},
	{"static-tree-of-life", "Tree of Life", "nature",
		"A 400-year-old mesquite tree growing alone in the southern desert", "Sakhir", 25.9944, 50.5833},
	{"static-al-areen", "Al Areen Wildlife Park", "nature",
		"Desert reserve home to Arabian oryx, gazelles and migratory birds", "Zallaq", 25.9947, 50.5097},
	{"static-circuit", "Bahrain International Circuit", "adventure",
		"Formula 1 home with karting, drag racing and track experiences", "Sakhir", 26.0325, 50.5106},
}

// StaticPlaces returns the curated fallback places as candidates, in fixed order.
func StaticPlaces() []candidate.Record {
	out := make([]candidate.Record, 0, len(staticPlaces))
	for _, p := range staticPlaces {
		rec, ok := candidate.New(p.id, candidate.KindPlace, p.name, 0, candidate.Attributes{
			Description: p.description,
			Category:    p.category,
			Location:    p.location,
			Coordinates: &candidate.Coordinates{Lat: p.lat, Lng: p.lng},
		}, map[string]any{
			candidate.FieldRecordType: candidate.RecordTypeClient,
			candidate.FieldClientType: candidate.ClientTypePlace,
			"source":                  "static",
		})
		if ok {
			out = append(out, rec)
		}
	}
	return out
}
