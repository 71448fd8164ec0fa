package ports

import (
	"context"

	"github.com/escaduto/spotospot/internal/core/domain"
)

// BaseMap is the pseudo layer group for pointer events that hit the
// bare map rather than any feature.
const BaseMap = "basemap"

// PointerEvent is a raw pointer event scoped to one layer group.
type PointerEvent struct {
	FeatureID int                `json:"feature_id"`
	LngLat    *domain.GeoPoint   `json:"lnglat,omitempty"`
	Screen    domain.ScreenPoint `json:"screen"`
	Modifier  bool               `json:"modifier"` // platform modifier key held
}

// PointerHandlers are the callbacks a controller wires onto one layer
// group. Nil handlers are simply not invoked.
type PointerHandlers struct {
	OnMove        func(PointerEvent)
	OnLeave       func(PointerEvent)
	OnClick       func(PointerEvent)
	OnContextMenu func(PointerEvent)
	OnDragEnd     func(PointerEvent)
}

// MapSurface is the rendering-engine collaborator: a declarative
// point/line renderer consuming GeoJSON-shaped collections, exposing
// integer-indexed feature state, and emitting pointer events per named
// layer. Registration returns an unregister token; calling it (or
// re-registering) tears the old handlers down exactly once, and both
// are safe against a surface that is already gone.
type MapSurface interface {
	ReplaceCollection(group string, fc domain.FeatureCollection)
	WriteFlags(group string, featureID int, changed map[string]bool)
	Register(group string, h PointerHandlers) (unregister func())

	// The entity being edited is rendered as a separate draggable
	// overlay; declarative point layers cannot drag per feature.
	ShowDragOverlay(entityID string, at domain.GeoPoint)
	RemoveDragOverlay()

	// ShowPopup displays the transient search-result detail popup.
	ShowPopup(r domain.SearchResult, at domain.GeoPoint)
	HidePopup()

	// ViewportSize returns the current viewport in pixels, used to
	// clamp editor-panel placement.
	ViewportSize() (width, height float64)
}

// IntentPublisher forwards typed intents to whoever persists them.
type IntentPublisher interface {
	Publish(ctx context.Context, intent domain.Intent) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
