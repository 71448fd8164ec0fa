package usecases_test

import (
	"context"
	"sync"

	"github.com/escaduto/spotospot/internal/core/domain"
	"github.com/escaduto/spotospot/internal/core/ports"
)

// ---- Fake rendering surface ----

type surfaceFlagWrite struct {
	group     string
	featureID int
	changed   map[string]bool
}

type fakeSurface struct {
	mu          sync.Mutex
	collections map[string][]domain.FeatureCollection
	flagWrites  []surfaceFlagWrite
	handlers    map[string]ports.PointerHandlers
	active      map[string]int // live registrations per group
	unregisters int

	overlayEntity string
	overlayAt     *domain.GeoPoint

	popup   *domain.SearchResult
	popupAt *domain.GeoPoint

	width, height float64
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		collections: map[string][]domain.FeatureCollection{},
		handlers:    map[string]ports.PointerHandlers{},
		active:      map[string]int{},
		width:       1280,
		height:      800,
	}
}

func (f *fakeSurface) ReplaceCollection(group string, fc domain.FeatureCollection) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collections[group] = append(f.collections[group], fc)
}

func (f *fakeSurface) WriteFlags(group string, featureID int, changed map[string]bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flagWrites = append(f.flagWrites, surfaceFlagWrite{group, featureID, changed})
}

func (f *fakeSurface) Register(group string, h ports.PointerHandlers) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[group] = h
	f.active[group]++

	done := false
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if done {
			return
		}
		done = true
		f.active[group]--
		f.unregisters++
	}
}

func (f *fakeSurface) ShowDragOverlay(entityID string, at domain.GeoPoint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overlayEntity = entityID
	f.overlayAt = &at
}

func (f *fakeSurface) RemoveDragOverlay() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overlayEntity = ""
	f.overlayAt = nil
}

func (f *fakeSurface) ShowPopup(r domain.SearchResult, at domain.GeoPoint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.popup = &r
	f.popupAt = &at
}

func (f *fakeSurface) HidePopup() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.popup = nil
	f.popupAt = nil
}

func (f *fakeSurface) ViewportSize() (float64, float64) {
	return f.width, f.height
}

// fire dispatches a pointer event to the currently registered handler.
func (f *fakeSurface) fire(group, event string, ev ports.PointerEvent) {
	f.mu.Lock()
	h := f.handlers[group]
	f.mu.Unlock()

	switch event {
	case "move":
		if h.OnMove != nil {
			h.OnMove(ev)
		}
	case "leave":
		if h.OnLeave != nil {
			h.OnLeave(ev)
		}
	case "click":
		if h.OnClick != nil {
			h.OnClick(ev)
		}
	case "contextmenu":
		if h.OnContextMenu != nil {
			h.OnContextMenu(ev)
		}
	case "dragend":
		if h.OnDragEnd != nil {
			h.OnDragEnd(ev)
		}
	}
}

func (f *fakeSurface) lastCollection(group string) (domain.FeatureCollection, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cs := f.collections[group]
	if len(cs) == 0 {
		return domain.FeatureCollection{}, false
	}
	return cs[len(cs)-1], true
}

// ---- Fake intent publisher ----

type fakeIntents struct {
	mu      sync.Mutex
	intents []domain.Intent
}

func (f *fakeIntents) Publish(ctx context.Context, intent domain.Intent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intents = append(f.intents, intent)
	return nil
}

func (f *fakeIntents) all() []domain.Intent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Intent, len(f.intents))
	copy(out, f.intents)
	return out
}

func (f *fakeIntents) last() (domain.Intent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.intents) == 0 {
		return domain.Intent{}, false
	}
	return f.intents[len(f.intents)-1], true
}

// ---- Fake search strategy ----

type fakeSearcher struct {
	name       string
	textFn     func(ctx context.Context, query string, near *domain.GeoPoint, limit int) ([]domain.SearchResult, error)
	viewportFn func(ctx context.Context, bounds domain.Bounds, limit int) ([]domain.SearchResult, error)
}

func (f *fakeSearcher) Name() string { return f.name }

func (f *fakeSearcher) SearchText(ctx context.Context, query string, near *domain.GeoPoint, limit int) ([]domain.SearchResult, error) {
	if f.textFn != nil {
		return f.textFn(ctx, query, near, limit)
	}
	return nil, nil
}

func (f *fakeSearcher) SearchViewport(ctx context.Context, bounds domain.Bounds, limit int) ([]domain.SearchResult, error) {
	if f.viewportFn != nil {
		return f.viewportFn(ctx, bounds, limit)
	}
	return nil, nil
}

// ---- Entity builders ----

func geom(lat, lng float64) *domain.GeoPoint {
	return &domain.GeoPoint{Lat: lat, Lng: lng}
}

func activity(id string, order int, g *domain.GeoPoint) domain.Activity {
	return domain.Activity{ID: id, OrderIndex: order, Geometry: g, DisplayLabel: id, Type: "sight"}
}

func leg(id, from string, line ...domain.GeoPoint) domain.RouteLeg {
	return domain.RouteLeg{
		ID:             id,
		FromActivityID: from,
		Polyline:       line,
		TransportTypes: []string{"walk"},
	}
}
