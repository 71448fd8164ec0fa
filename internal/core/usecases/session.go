package usecases

import (
	"context"
	"fmt"

	"github.com/escaduto/spotospot/internal/core/mapstate"
	"github.com/escaduto/spotospot/internal/core/ports"
)

// MapSession binds one rendering surface (one connected map client) to
// its own feature-state store, the three layer controllers, and a
// search orchestrator. Sessions share repositories but never map state.
type MapSession struct {
	Store        *mapstate.Store
	Activities   *ActivityLayerController
	Routes       *RouteLayerController
	Search       *SearchLayerController
	Orchestrator *SearchOrchestrator

	itinerary *ItineraryService
	dayID     string
}

// NewMapSession assembles a session around a surface. Route dimming is
// wired to activity selection here: the route layer listens and derives
// its dimmed flags whenever the selection moves.
func NewMapSession(surface ports.MapSurface, intents ports.IntentPublisher, strategies []ports.PlaceSearcher, itinerary *ItineraryService) *MapSession {
	store := mapstate.NewStore(surface)

	activities := NewActivityLayerController(store, surface, intents)
	routes := NewRouteLayerController(store, surface, intents)
	search := NewSearchLayerController(store, surface, intents, activities.EditingID)

	activities.OnSelectionChanged(routes.ApplySelection)

	return &MapSession{
		Store:        store,
		Activities:   activities,
		Routes:       routes,
		Search:       search,
		Orchestrator: NewSearchOrchestrator(strategies, search),
		itinerary:    itinerary,
	}
}

// LoadDay fetches the day snapshot and pushes both entity layers.
func (s *MapSession) LoadDay(ctx context.Context, dayID string) error {
	if s.itinerary == nil {
		return fmt.Errorf("no itinerary service configured")
	}
	snap, err := s.itinerary.DaySnapshot(ctx, dayID)
	if err != nil {
		return err
	}
	s.dayID = dayID
	s.Activities.SetActivities(snap.Activities)
	s.Routes.SetRoutes(snap.Legs)
	return nil
}

// DayID returns the currently loaded day, or "" before LoadDay.
func (s *MapSession) DayID() string {
	return s.dayID
}

// RefreshDay re-pulls the current day after a mutation.
func (s *MapSession) RefreshDay(ctx context.Context) error {
	if s.dayID == "" {
		return nil
	}
	return s.LoadDay(ctx, s.dayID)
}

// Close tears everything down; safe against an already-gone surface.
func (s *MapSession) Close() {
	s.Activities.Close()
	s.Routes.Close()
	s.Search.Close()
}
