package usecases

import (
	"context"
	"log/slog"
	"sync"

	"github.com/escaduto/spotospot/internal/core/domain"
	"github.com/escaduto/spotospot/internal/core/mapstate"
	"github.com/escaduto/spotospot/internal/core/ports"
)

// SearchLayerController renders ad-hoc search results and turns clicks
// into add-or-replace intents: with an activity in edit mode a click
// replaces its place, otherwise it appends a new activity.
type SearchLayerController struct {
	mu      sync.Mutex
	store   *mapstate.Store
	surface ports.MapSurface
	intents ports.IntentPublisher

	// editingActivity reports which activity is in edit mode, "" when
	// none; the activity controller provides it.
	editingActivity func() string

	results []domain.SearchResult
	byID    map[string]domain.SearchResult

	unregister func()
}

// NewSearchLayerController wires the controller onto the surface.
func NewSearchLayerController(store *mapstate.Store, surface ports.MapSurface, intents ports.IntentPublisher, editingActivity func() string) *SearchLayerController {
	if editingActivity == nil {
		editingActivity = func() string { return "" }
	}
	return &SearchLayerController{
		store:           store,
		surface:         surface,
		intents:         intents,
		editingActivity: editingActivity,
		byID:            map[string]domain.SearchResult{},
	}
}

// SetResults rebuilds the layer from a fresh result list. Results
// without geometry are omitted; they still appear in the companion
// list, just never on the map.
func (c *SearchLayerController) SetResults(results []domain.SearchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.results = results
	c.byID = make(map[string]domain.SearchResult, len(results))

	features := make([]domain.Feature, 0, len(results))
	for _, r := range results {
		c.byID[r.ID] = r
		if r.Geometry == nil {
			continue
		}
		props := map[string]any{
			"name":         r.Name,
			"category":     r.Category,
			"source_table": r.SourceTable,
		}
		if r.Score != nil {
			props["score"] = *r.Score
		}
		features = append(features, domain.Feature{
			EntityID:   r.ID,
			Geometry:   domain.PointGeometry(*r.Geometry),
			Properties: props,
		})
	}
	c.store.Rebuild(domain.GroupSearch, features)

	if c.unregister != nil {
		c.unregister()
	}
	c.unregister = c.surface.Register(domain.GroupSearch, ports.PointerHandlers{
		OnMove:  c.handleMove,
		OnLeave: c.handleLeave,
		OnClick: c.handleClick,
	})
}

// Results returns the current result list, for the companion list view.
func (c *SearchLayerController) Results() []domain.SearchResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.SearchResult, len(c.results))
	copy(out, c.results)
	return out
}

// HoverResult drives the hover highlight and detail popup from the
// companion list; the map path goes through the same code.
func (c *SearchLayerController) HoverResult(id string) {
	c.mu.Lock()
	r, ok := c.byID[id]
	c.mu.Unlock()
	if !ok {
		return
	}
	c.store.Hover(domain.GroupSearch, id)
	if r.Geometry != nil {
		c.surface.ShowPopup(r, *r.Geometry)
	}
}

// LeaveResult clears the hover highlight and popup.
func (c *SearchLayerController) LeaveResult() {
	c.store.ClearHover(domain.GroupSearch)
	c.surface.HidePopup()
}

// Close tears down the handler registration and defensively hides the
// popup; the pointer may leave via DOM removal without a leave event.
func (c *SearchLayerController) Close() {
	c.mu.Lock()
	if c.unregister != nil {
		c.unregister()
		c.unregister = nil
	}
	c.mu.Unlock()

	c.store.ClearHover(domain.GroupSearch)
	c.surface.HidePopup()
}

func (c *SearchLayerController) handleMove(ev ports.PointerEvent) {
	if id, ok := c.store.EntityID(domain.GroupSearch, ev.FeatureID); ok {
		c.HoverResult(id)
	}
}

func (c *SearchLayerController) handleLeave(ports.PointerEvent) {
	c.LeaveResult()
}

func (c *SearchLayerController) handleClick(ev ports.PointerEvent) {
	id, ok := c.store.EntityID(domain.GroupSearch, ev.FeatureID)
	if !ok {
		return
	}
	c.mu.Lock()
	r, ok := c.byID[id]
	c.mu.Unlock()
	if !ok {
		return
	}

	if editing := c.editingActivity(); editing != "" {
		c.emit(domain.Intent{Kind: domain.IntentReplaceActivity, ActivityID: editing, Result: &r})
		return
	}
	c.emit(domain.Intent{Kind: domain.IntentAddActivity, Result: &r})
}

func (c *SearchLayerController) emit(intent domain.Intent) {
	if err := c.intents.Publish(context.Background(), intent); err != nil {
		slog.Warn("publish intent failed", "kind", intent.Kind, "error", err)
	}
}
