// Package gateway reads community content (posts, reviews, points of interest) from PostgreSQL.
package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/gobahrain/gobahrain/internal/db"
	"github.com/gobahrain/gobahrain/internal/domain"
)

// Limits on listing sizes.
const (
	DefaultLimit = 20
	MaxLimit     = 100
	MaxRadiusKm  = 50.0
)

// querier is the subset of pgxpool.Pool the gateway needs.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

// Store serves keyword and geofence lookups.
type Store struct {
	pool querier
}

// New creates a gateway store.
func New(pool querier) *Store {
	return &Store{pool: pool}
}

const searchPostsSQL = `SELECT id, author, caption, COALESCE(place_name, ''), COALESCE(image_url, ''), likes, created_at
FROM posts
WHERE caption ILIKE $1 OR place_name ILIKE $1
ORDER BY created_at DESC
LIMIT $2`

// SearchPosts returns posts whose caption or place matches keyword, newest first.
func (s *Store) SearchPosts(ctx context.Context, keyword string, limit int) ([]domain.Post, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("keyword is required: %w", domain.ErrInvalidRequest)
	}

	rows, err := s.pool.Query(ctx, searchPostsSQL, likePattern(keyword), clampLimit(limit))
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	posts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Post, error) {
		var p domain.Post
		err := row.Scan(&p.ID, &p.Author, &p.Caption, &p.PlaceName, &p.ImageURL, &p.Likes, &p.CreatedAt)
		return p, err
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return posts, nil
}

const reviewsSQL = `SELECT id, place_name, author, rating, body, created_at
FROM reviews
WHERE lower(place_name) = lower($1)
ORDER BY created_at DESC
LIMIT $2`

// ReviewsForPlace returns reviews for a place (case-insensitive exact name), newest first.
func (s *Store) ReviewsForPlace(ctx context.Context, place string, limit int) ([]domain.Review, error) {
	place = strings.TrimSpace(place)
	if place == "" {
		return nil, fmt.Errorf("place is required: %w", domain.ErrInvalidRequest)
	}

	rows, err := s.pool.Query(ctx, reviewsSQL, place, clampLimit(limit))
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	reviews, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Review, error) {
		var r domain.Review
		err := row.Scan(&r.ID, &r.PlaceName, &r.Author, &r.Rating, &r.Body, &r.CreatedAt)
		return r, err
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return reviews, nil
}

// Haversine distance in km; 6371 is the mean Earth radius.
const nearbySQL = `SELECT id, name, COALESCE(category, ''), COALESCE(description, ''), lat, lng, distance_km
FROM (
	SELECT id, name, category, description, lat, lng,
		6371 * 2 * asin(sqrt(
			power(sin(radians(lat - $1) / 2), 2) +
			cos(radians($1)) * cos(radians(lat)) * power(sin(radians(lng - $2) / 2), 2)
		)) AS distance_km
	FROM pois
) AS p
WHERE distance_km <= $3
ORDER BY distance_km
LIMIT $4`

// NearbyPOIs returns points of interest within radiusKm of (lat, lng), nearest first.
func (s *Store) NearbyPOIs(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]domain.POI, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, fmt.Errorf("coordinates out of range: %w", domain.ErrInvalidRequest)
	}
	if radiusKm <= 0 || radiusKm > MaxRadiusKm {
		return nil, fmt.Errorf("radius must be in (0, %.0f] km: %w", MaxRadiusKm, domain.ErrInvalidRequest)
	}

	rows, err := s.pool.Query(ctx, nearbySQL, lat, lng, radiusKm, clampLimit(limit))
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	pois, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.POI, error) {
		var p domain.POI
		err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Description, &p.Lat, &p.Lng, &p.DistanceKm)
		return p, err
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return pois, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// likePattern escapes LIKE wildcards and wraps the keyword for a contains match.
func likePattern(keyword string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(keyword) + "%"
}
