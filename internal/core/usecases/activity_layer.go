package usecases

import (
	"context"
	"log/slog"
	"sync"

	"github.com/escaduto/spotospot/internal/core/domain"
	"github.com/escaduto/spotospot/internal/core/mapstate"
	"github.com/escaduto/spotospot/internal/core/ports"
)

// ActivityLayerController keeps the activity marker layer in sync with
// the day's activity list and translates pointer events into typed
// intents. The one activity being edited is additionally rendered as a
// draggable overlay, since the declarative point layer cannot drag a
// single feature.
type ActivityLayerController struct {
	mu      sync.Mutex
	store   *mapstate.Store
	surface ports.MapSurface
	intents ports.IntentPublisher

	activities []domain.Activity
	byID       map[string]domain.Activity

	selectedID string
	editingID  string

	// dragLatch swallows the base-map click that follows an overlay
	// drag-end; one gesture must not commit two repositions.
	dragLatch bool

	unregister    func()
	unregisterMap func()

	selectionListeners []func(selectedID string)
}

// NewActivityLayerController wires the controller onto the surface.
func NewActivityLayerController(store *mapstate.Store, surface ports.MapSurface, intents ports.IntentPublisher) *ActivityLayerController {
	c := &ActivityLayerController{
		store:   store,
		surface: surface,
		intents: intents,
		byID:    map[string]domain.Activity{},
	}
	return c
}

// OnSelectionChanged registers a listener invoked whenever the selected
// activity changes. The route layer derives its dimming from this.
func (c *ActivityLayerController) OnSelectionChanged(fn func(selectedID string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectionListeners = append(c.selectionListeners, fn)
}

// SetActivities rebuilds the layer from a fresh entity list. Activities
// without geometry are omitted from the collection, never plotted at
// (0,0). Handler registration is torn down and re-done exactly once.
func (c *ActivityLayerController) SetActivities(activities []domain.Activity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.activities = activities
	c.byID = make(map[string]domain.Activity, len(activities))

	features := make([]domain.Feature, 0, len(activities))
	for _, a := range activities {
		c.byID[a.ID] = a
		if a.Geometry == nil {
			continue
		}
		features = append(features, domain.Feature{
			EntityID: a.ID,
			Geometry: domain.PointGeometry(*a.Geometry),
			Properties: map[string]any{
				"label":       a.DisplayLabel,
				"type":        a.Type,
				"order_index": a.OrderIndex,
			},
		})
	}
	c.store.Rebuild(domain.GroupActivities, features)

	c.teardownLocked()
	c.unregister = c.surface.Register(domain.GroupActivities, ports.PointerHandlers{
		OnMove:    c.handleMove,
		OnLeave:   c.handleLeave,
		OnClick:   c.handleClick,
		OnDragEnd: c.HandleOverlayDragEnd,
	})
	c.unregisterMap = c.surface.Register(ports.BaseMap, ports.PointerHandlers{
		OnClick: c.handleMapClick,
	})

	// An in-progress edit survives a refetch if the entity does.
	if c.editingID != "" {
		if a, ok := c.byID[c.editingID]; ok && a.Geometry != nil {
			c.surface.ShowDragOverlay(a.ID, *a.Geometry)
		} else {
			c.stopEditingLocked()
		}
	}
}

// Select moves the selection highlight and notifies listeners.
func (c *ActivityLayerController) Select(id string) {
	c.mu.Lock()
	if c.selectedID == id {
		c.mu.Unlock()
		return
	}
	if c.selectedID != "" {
		c.store.Apply(domain.GroupActivities, c.selectedID, domain.FlagChange{Selected: domain.Bool(false)})
	}
	c.selectedID = id
	if id != "" {
		c.store.Apply(domain.GroupActivities, id, domain.FlagChange{Selected: domain.Bool(true)})
	}
	listeners := make([]func(string), len(c.selectionListeners))
	copy(listeners, c.selectionListeners)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(id)
	}
}

// SelectedID returns the currently selected activity id, "" if none.
func (c *ActivityLayerController) SelectedID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedID
}

// StartEditing puts one activity into inline-edit mode: editing flag on
// the feature plus the draggable overlay at its current position.
func (c *ActivityLayerController) StartEditing(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.byID[id]
	if !ok {
		return
	}
	if c.editingID != "" && c.editingID != id {
		c.store.Apply(domain.GroupActivities, c.editingID, domain.FlagChange{Editing: domain.Bool(false)})
	}
	c.editingID = id
	c.store.Apply(domain.GroupActivities, id, domain.FlagChange{Editing: domain.Bool(true)})
	if a.Geometry != nil {
		c.surface.ShowDragOverlay(id, *a.Geometry)
	}
}

// StopEditing leaves edit mode and removes the overlay.
func (c *ActivityLayerController) StopEditing() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopEditingLocked()
}

func (c *ActivityLayerController) stopEditingLocked() {
	if c.editingID == "" {
		return
	}
	c.store.Apply(domain.GroupActivities, c.editingID, domain.FlagChange{Editing: domain.Bool(false)})
	c.editingID = ""
	c.surface.RemoveDragOverlay()
}

// EditingID returns the activity in edit mode, "" if none.
func (c *ActivityLayerController) EditingID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editingID
}

// HandleOverlayDragEnd commits the overlay position as the activity's
// new location. It also arms the drag latch so the map click fired by
// the same gesture is swallowed.
func (c *ActivityLayerController) HandleOverlayDragEnd(ev ports.PointerEvent) {
	c.mu.Lock()
	editing := c.editingID
	if editing != "" {
		c.dragLatch = true
	}
	c.mu.Unlock()

	if editing == "" || ev.LngLat == nil || !ev.LngLat.Valid() {
		return
	}
	c.emit(domain.Intent{
		Kind:       domain.IntentRepositionActivity,
		ActivityID: editing,
		Point:      ev.LngLat,
	})
}

// Close tears down handler registrations and the overlay. Safe to call
// more than once and against a surface that is already gone.
func (c *ActivityLayerController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
	if c.editingID != "" {
		c.editingID = ""
		c.surface.RemoveDragOverlay()
	}
}

func (c *ActivityLayerController) teardownLocked() {
	if c.unregister != nil {
		c.unregister()
		c.unregister = nil
	}
	if c.unregisterMap != nil {
		c.unregisterMap()
		c.unregisterMap = nil
	}
}

func (c *ActivityLayerController) handleMove(ev ports.PointerEvent) {
	if id, ok := c.store.EntityID(domain.GroupActivities, ev.FeatureID); ok {
		c.store.Hover(domain.GroupActivities, id)
	}
}

func (c *ActivityLayerController) handleLeave(ports.PointerEvent) {
	c.store.ClearHover(domain.GroupActivities)
}

func (c *ActivityLayerController) handleClick(ev ports.PointerEvent) {
	id, ok := c.store.EntityID(domain.GroupActivities, ev.FeatureID)
	if !ok {
		return
	}
	c.Select(id)
	c.emit(domain.Intent{Kind: domain.IntentSelectActivity, ActivityID: id})
}

// handleMapClick commits a click on the bare map as the new position of
// the activity being edited; it converges on the same reposition intent
// as the overlay drag.
func (c *ActivityLayerController) handleMapClick(ev ports.PointerEvent) {
	c.mu.Lock()
	if c.dragLatch {
		c.dragLatch = false
		c.mu.Unlock()
		return
	}
	editing := c.editingID
	c.mu.Unlock()

	if editing == "" || ev.LngLat == nil || !ev.LngLat.Valid() {
		return
	}
	c.emit(domain.Intent{
		Kind:       domain.IntentRepositionActivity,
		ActivityID: editing,
		Point:      ev.LngLat,
	})
}

func (c *ActivityLayerController) emit(intent domain.Intent) {
	if err := c.intents.Publish(context.Background(), intent); err != nil {
		slog.Warn("publish intent failed", "kind", intent.Kind, "error", err)
	}
}
