package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/escaduto/spotospot/internal/core/domain"
	"github.com/escaduto/spotospot/internal/core/ports"
)

// Transport types a route leg may carry.
var validTransportTypes = map[string]bool{
	"walk":    true,
	"bike":    true,
	"drive":   true,
	"transit": true,
	"flight":  true,
	"ferry":   true,
}

// DaySnapshot is everything the map needs for one trip day: the day
// row, its activities in order, and the cached legs between them.
type DaySnapshot struct {
	Day        *domain.TripDay   `json:"day"`
	Activities []domain.Activity `json:"activities"`
	Legs       []domain.RouteLeg `json:"legs"`
}

// ItineraryService loads and persists itinerary entities. It is the
// store-facing half of the sync loop: intents emitted by the layer
// controllers land here, and refreshed entity lists flow back down.
type ItineraryService struct {
	trips      ports.TripRepository
	activities ports.ActivityRepository
	legs       ports.RouteLegRepository
	cache      ports.CacheService
}

// NewItineraryService creates a new ItineraryService.
func NewItineraryService(trips ports.TripRepository, activities ports.ActivityRepository, legs ports.RouteLegRepository, cache ports.CacheService) *ItineraryService {
	return &ItineraryService{trips: trips, activities: activities, legs: legs, cache: cache}
}

// DaySnapshot assembles the full map payload for one day.
func (s *ItineraryService) DaySnapshot(ctx context.Context, dayID string) (*DaySnapshot, error) {
	cacheKey := "day:snapshot:" + dayID
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var snap DaySnapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				return &snap, nil
			}
		}
	}

	day, err := s.trips.GetDay(ctx, dayID)
	if err != nil {
		return nil, fmt.Errorf("load day: %w", err)
	}
	activities, err := s.activities.ListByDay(ctx, dayID)
	if err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}
	legs, err := s.legs.ListByDay(ctx, dayID)
	if err != nil {
		return nil, fmt.Errorf("load legs: %w", err)
	}

	snap := &DaySnapshot{Day: day, Activities: activities, Legs: legs}

	// Short TTL: the snapshot is refetched after every mutation anyway.
	if s.cache != nil {
		if data, err := json.Marshal(snap); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 60)
		}
	}
	return snap, nil
}

// GetTrip returns a trip by ID.
func (s *ItineraryService) GetTrip(ctx context.Context, id string) (*domain.Trip, error) {
	return s.trips.GetTrip(ctx, id)
}

// ListDays returns the days of a trip in order.
func (s *ItineraryService) ListDays(ctx context.Context, tripID string) ([]domain.TripDay, error) {
	return s.trips.ListDays(ctx, tripID)
}

// Reposition commits a new location for an activity and invalidates the
// day's snapshot.
func (s *ItineraryService) Reposition(ctx context.Context, activityID string, p domain.GeoPoint) error {
	if !p.Valid() {
		return fmt.Errorf("invalid coordinates (%v, %v)", p.Lat, p.Lng)
	}
	a, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return fmt.Errorf("load activity: %w", err)
	}
	if err := s.activities.UpdateGeometry(ctx, activityID, p); err != nil {
		return fmt.Errorf("update geometry: %w", err)
	}
	s.invalidateDay(ctx, a.DayID)
	return nil
}

// Reorder persists a new dense order for a day's activities.
func (s *ItineraryService) Reorder(ctx context.Context, dayID string, orderedIDs []string) error {
	if len(orderedIDs) == 0 {
		return fmt.Errorf("ordered ids must not be empty")
	}
	if err := s.activities.UpdateOrder(ctx, dayID, orderedIDs); err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	s.invalidateDay(ctx, dayID)
	return nil
}

// AddFromPlace appends a new activity built from a search result.
func (s *ItineraryService) AddFromPlace(ctx context.Context, dayID string, r *domain.SearchResult) (*domain.Activity, error) {
	if r == nil || r.Name == "" {
		return nil, fmt.Errorf("search result is required")
	}

	existing, err := s.activities.ListByDay(ctx, dayID)
	if err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}
	next := 0
	for _, a := range existing {
		if a.OrderIndex >= next {
			next = a.OrderIndex + 1
		}
	}

	a := &domain.Activity{
		DayID:        dayID,
		OrderIndex:   next,
		Geometry:     r.Geometry,
		DisplayLabel: r.Name,
		Type:         categoryToType(r.Category),
		Metadata: map[string]any{
			"source_table": r.SourceTable,
			"source_id":    r.ID,
		},
	}
	if err := s.activities.Insert(ctx, a); err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}
	s.invalidateDay(ctx, dayID)
	return a, nil
}

// ReplacePlace swaps the place behind an activity in edit mode for a
// search result, keeping its slot in the day.
func (s *ItineraryService) ReplacePlace(ctx context.Context, activityID string, r *domain.SearchResult) error {
	if r == nil || r.Name == "" {
		return fmt.Errorf("search result is required")
	}
	a, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return fmt.Errorf("load activity: %w", err)
	}
	if err := s.activities.ReplacePlace(ctx, activityID, r); err != nil {
		return fmt.Errorf("replace place: %w", err)
	}
	s.invalidateDay(ctx, a.DayID)
	return nil
}

// SetTransportTypes updates transport types for one or more legs (the
// bulk path serves the multi-selection editor).
func (s *ItineraryService) SetTransportTypes(ctx context.Context, legIDs []string, types []string) error {
	if len(legIDs) == 0 {
		return fmt.Errorf("leg ids must not be empty")
	}
	if len(types) == 0 {
		return fmt.Errorf("transport types must not be empty")
	}
	for _, t := range types {
		if !validTransportTypes[t] {
			return fmt.Errorf("unknown transport type %q", t)
		}
	}
	if err := s.legs.UpdateTransportTypes(ctx, legIDs, types); err != nil {
		return fmt.Errorf("update transport types: %w", err)
	}
	// Leg rows carry the day id; invalidate lazily via the first leg.
	if leg, err := s.legs.GetByID(ctx, legIDs[0]); err == nil {
		s.invalidateDay(ctx, leg.DayID)
	}
	return nil
}

func (s *ItineraryService) invalidateDay(ctx context.Context, dayID string) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, "day:snapshot:"+dayID)
	}
}

func categoryToType(category string) string {
	switch category {
	case "restaurant", "cafe", "bar", "food":
		return "food"
	case "hotel", "hostel", "lodging":
		return "hotel"
	case "station", "airport", "port":
		return "transit"
	case "":
		return "other"
	default:
		return "sight"
	}
}
