package usecases

import (
	"context"
	"log/slog"
	"sync"

	"github.com/escaduto/spotospot/internal/core/domain"
	"github.com/escaduto/spotospot/internal/core/mapstate"
	"github.com/escaduto/spotospot/internal/core/ports"
	"github.com/escaduto/spotospot/internal/pkg/geo"
)

// Transport editor panel footprint in pixels, used to clamp the panel
// inside the viewport when opened at the pointer.
const (
	editorPanelWidth  = 300.0
	editorPanelHeight = 360.0
	editorPanelMargin = 8.0
)

// RouteLayerController keeps the route line layer in sync with the
// day's cached legs. A leg's badge position (the arc-length midpoint of
// its polyline) rides along as a feature property so the entity keeps a
// single integer feature id.
type RouteLayerController struct {
	mu      sync.Mutex
	store   *mapstate.Store
	surface ports.MapSurface
	intents ports.IntentPublisher

	legs []domain.RouteLeg
	byID map[string]domain.RouteLeg

	selectedActivityID string
	multiSelected      map[string]bool

	unregister func()
}

// NewRouteLayerController wires the controller onto the surface.
func NewRouteLayerController(store *mapstate.Store, surface ports.MapSurface, intents ports.IntentPublisher) *RouteLayerController {
	return &RouteLayerController{
		store:         store,
		surface:       surface,
		intents:       intents,
		byID:          map[string]domain.RouteLeg{},
		multiSelected: map[string]bool{},
	}
}

// SetRoutes rebuilds the layer from a fresh leg list. Legs with an
// empty polyline are omitted. Dimming is re-derived from the current
// activity selection after the rebuild.
func (c *RouteLayerController) SetRoutes(legs []domain.RouteLeg) {
	c.mu.Lock()

	c.legs = legs
	c.byID = make(map[string]domain.RouteLeg, len(legs))
	for id := range c.multiSelected {
		delete(c.multiSelected, id)
	}

	features := make([]domain.Feature, 0, len(legs))
	for _, leg := range legs {
		c.byID[leg.ID] = leg
		if len(leg.Polyline) == 0 {
			continue
		}
		props := map[string]any{
			"from_activity_id": leg.FromActivityID,
			"distance_meters":  leg.DistanceMeters,
			"duration_sec":     leg.DurationSec,
			"transport_types":  leg.TransportTypes,
		}
		if mid, ok := geo.Midpoint(leg.Polyline); ok {
			props["midpoint"] = []float64{mid.Lng, mid.Lat}
		}
		features = append(features, domain.Feature{
			EntityID:   leg.ID,
			Geometry:   domain.LineGeometry(leg.Polyline),
			Properties: props,
		})
	}
	c.store.Rebuild(domain.GroupRoutes, features)

	if c.unregister != nil {
		c.unregister()
	}
	c.unregister = c.surface.Register(domain.GroupRoutes, ports.PointerHandlers{
		OnMove:        c.handleMove,
		OnLeave:       c.handleLeave,
		OnClick:       c.handleClick,
		OnContextMenu: c.handleContextMenu,
	})

	selected := c.selectedActivityID
	c.mu.Unlock()

	c.ApplySelection(selected)
}

// ApplySelection derives route dimming from the activity selection:
// with an activity selected, every leg not originating at it dims. This
// is the only way routes get dimmed; user interaction never sets the
// flag directly.
func (c *RouteLayerController) ApplySelection(selectedActivityID string) {
	c.mu.Lock()
	c.selectedActivityID = selectedActivityID
	legs := c.legs
	c.mu.Unlock()

	for _, leg := range legs {
		dim := selectedActivityID != "" && leg.FromActivityID != selectedActivityID
		c.store.Apply(domain.GroupRoutes, leg.ID, domain.FlagChange{Dimmed: domain.Bool(dim)})
	}
}

// MultiSelectedIDs returns the legs currently in the multi-selection,
// in no particular order.
func (c *RouteLayerController) MultiSelectedIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(c.multiSelected))
	for id := range c.multiSelected {
		out = append(out, id)
	}
	return out
}

// ClearMultiSelection drops the multi-selection, e.g. after a bulk
// transport-type edit has been committed.
func (c *RouteLayerController) ClearMultiSelection() {
	c.mu.Lock()
	ids := make([]string, 0, len(c.multiSelected))
	for id := range c.multiSelected {
		ids = append(ids, id)
		delete(c.multiSelected, id)
	}
	c.mu.Unlock()

	for _, id := range ids {
		c.store.Apply(domain.GroupRoutes, id, domain.FlagChange{MultiSelected: domain.Bool(false)})
	}
}

// Close tears down handler registration. Idempotent.
func (c *RouteLayerController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unregister != nil {
		c.unregister()
		c.unregister = nil
	}
}

func (c *RouteLayerController) handleMove(ev ports.PointerEvent) {
	if id, ok := c.store.EntityID(domain.GroupRoutes, ev.FeatureID); ok {
		c.store.Hover(domain.GroupRoutes, id)
	}
}

func (c *RouteLayerController) handleLeave(ports.PointerEvent) {
	c.store.ClearHover(domain.GroupRoutes)
}

// handleClick: a plain click selects the leg's origin activity; with
// the platform modifier it instead toggles multi-selection membership
// for bulk transport-type edits.
func (c *RouteLayerController) handleClick(ev ports.PointerEvent) {
	id, ok := c.store.EntityID(domain.GroupRoutes, ev.FeatureID)
	if !ok {
		return
	}
	c.mu.Lock()
	leg, ok := c.byID[id]
	c.mu.Unlock()
	if !ok {
		return
	}

	if ev.Modifier {
		c.mu.Lock()
		now := !c.multiSelected[id]
		c.multiSelected[id] = now
		if !now {
			delete(c.multiSelected, id)
		}
		c.mu.Unlock()

		c.store.Apply(domain.GroupRoutes, id, domain.FlagChange{MultiSelected: domain.Bool(now)})
		c.emit(domain.Intent{Kind: domain.IntentToggleMultiSelect, RouteID: id})
		return
	}

	c.emit(domain.Intent{Kind: domain.IntentSelectActivity, ActivityID: leg.FromActivityID, RouteID: id})
}

// handleContextMenu opens the transport-type editor at the pointer,
// clamped so the panel never renders outside the viewport.
func (c *RouteLayerController) handleContextMenu(ev ports.PointerEvent) {
	id, ok := c.store.EntityID(domain.GroupRoutes, ev.FeatureID)
	if !ok {
		return
	}
	w, h := c.surface.ViewportSize()
	at := ClampToViewport(ev.Screen, w, h)
	c.emit(domain.Intent{Kind: domain.IntentOpenTransportEditor, RouteID: id, Screen: &at})
}

// ClampToViewport pins a panel anchor so a panel of the editor's
// footprint stays fully visible.
func ClampToViewport(at domain.ScreenPoint, width, height float64) domain.ScreenPoint {
	maxX := width - editorPanelWidth - editorPanelMargin
	maxY := height - editorPanelHeight - editorPanelMargin

	x, y := at.X, at.Y
	if x > maxX {
		x = maxX
	}
	if y > maxY {
		y = maxY
	}
	if x < editorPanelMargin {
		x = editorPanelMargin
	}
	if y < editorPanelMargin {
		y = editorPanelMargin
	}
	return domain.ScreenPoint{X: x, Y: y}
}

func (c *RouteLayerController) emit(intent domain.Intent) {
	if err := c.intents.Publish(context.Background(), intent); err != nil {
		slog.Warn("publish intent failed", "kind", intent.Kind, "error", err)
	}
}
