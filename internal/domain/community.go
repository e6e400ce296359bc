package domain

import "time"

// Post is a community post served for show_posts actions.
type Post struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Caption   string    `json:"caption"`
	PlaceName string    `json:"place_name,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	Likes     int       `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
}

// Review is a community review served for show_reviews actions.
type Review struct {
	ID        string    `json:"id"`
	PlaceName string    `json:"place_name"`
	Author    string    `json:"author"`
	Rating    float64   `json:"rating"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// POI is a geofenced point of interest for the AR explorer.
type POI struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	DistanceKm  float64 `json:"distance_km"`
}
