package ports

import (
	"context"

	"github.com/escaduto/spotospot/internal/core/domain"
)

// TripRepository persists trips and their days.
type TripRepository interface {
	GetTrip(ctx context.Context, id string) (*domain.Trip, error)
	GetDay(ctx context.Context, id string) (*domain.TripDay, error)
	ListDays(ctx context.Context, tripID string) ([]domain.TripDay, error)
}

// ActivityRepository persists activities. Geometry travels as the hex
// EWKB wire form; adapters decode/encode it at the boundary so the core
// only ever sees GeoPoint.
type ActivityRepository interface {
	ListByDay(ctx context.Context, dayID string) ([]domain.Activity, error)
	GetByID(ctx context.Context, id string) (*domain.Activity, error)
	Insert(ctx context.Context, a *domain.Activity) error
	UpdateGeometry(ctx context.Context, id string, p domain.GeoPoint) error
	UpdateOrder(ctx context.Context, dayID string, orderedIDs []string) error
	ReplacePlace(ctx context.Context, id string, r *domain.SearchResult) error
}

// RouteLegRepository reads the cached activity-to-activity connections.
// Legs are recomputed upstream when activities move; this service only
// updates their transport types.
type RouteLegRepository interface {
	ListByDay(ctx context.Context, dayID string) ([]domain.RouteLeg, error)
	GetByID(ctx context.Context, id string) (*domain.RouteLeg, error)
	UpdateTransportTypes(ctx context.Context, ids []string, types []string) error
}

// PlaceSearcher is one strategy for answering a spatial query. The
// orchestrator walks an ordered chain of these; not every deployment
// has the indexed predicate available.
type PlaceSearcher interface {
	Name() string
	SearchText(ctx context.Context, query string, near *domain.GeoPoint, limit int) ([]domain.SearchResult, error)
	SearchViewport(ctx context.Context, bounds domain.Bounds, limit int) ([]domain.SearchResult, error)
}
