package domain

import (
	"time"
)

// Trip is a user-owned itinerary (e.g. "Japan, spring 2026").
type Trip struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
}

// TripDay is one day inside a trip; activities and route legs hang off it.
type TripDay struct {
	ID        string    `json:"id"`
	TripID    string    `json:"trip_id"`
	DayIndex  int       `json:"day_index"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Activity is a planned stop on a trip day. Geometry is nil when the
// place has no usable coordinates; such activities still appear in the
// list view but are never plotted.
type Activity struct {
	ID              string         `json:"id"`
	DayID           string         `json:"day_id"`
	OrderIndex      int            `json:"order_index"`
	Geometry        *GeoPoint      `json:"geometry,omitempty"`
	DisplayLabel    string         `json:"display_label"`
	Type            string         `json:"type"` // sight, food, hotel, transit, other
	DurationMinutes *int           `json:"duration_minutes,omitempty"`
	TimeWindow      string         `json:"time_window,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// RouteLeg is the cached connection between two adjacent activities on a
// day. It is recomputed upstream when activities move or reorder and is
// read-only inside the sync engine.
type RouteLeg struct {
	ID             string     `json:"id"`
	DayID          string     `json:"day_id"`
	FromActivityID string     `json:"from_activity_id"`
	ToActivityID   *string    `json:"to_activity_id,omitempty"`
	Polyline       []GeoPoint `json:"polyline"`
	DistanceMeters float64    `json:"distance_meters"`
	DurationSec    int        `json:"duration_sec"`
	TransportTypes []string   `json:"transport_types"`
	CreatedAt      time.Time  `json:"created_at"`
}

// SearchResult is an ephemeral place candidate produced by a spatial
// query. It lives only for the query/interaction session and is never
// persisted by this service.
type SearchResult struct {
	ID              string    `json:"id"`
	SourceTable     string    `json:"source_table"`
	Name            string    `json:"name"`
	Category        string    `json:"category,omitempty"`
	Geometry        *GeoPoint `json:"geometry,omitempty"`
	PopularityScore float64   `json:"popularity_score"`
	Score           *float64  `json:"score,omitempty"` // computed field
}
