package usecases_test

import (
	"testing"

	"github.com/escaduto/spotospot/internal/core/domain"
	"github.com/escaduto/spotospot/internal/core/mapstate"
	"github.com/escaduto/spotospot/internal/core/ports"
	"github.com/escaduto/spotospot/internal/core/usecases"
)

func newRouteController(surface *fakeSurface, intents *fakeIntents) (*usecases.RouteLayerController, *mapstate.Store) {
	store := mapstate.NewStore(surface)
	return usecases.NewRouteLayerController(store, surface, intents), store
}

func TestRouteLayer_BadgeMidpointProperty(t *testing.T) {
	surface := newFakeSurface()
	ctrl, _ := newRouteController(surface, &fakeIntents{})

	// A two-point flight leg: the badge must sit halfway, not at an
	// endpoint.
	ctrl.SetRoutes([]domain.RouteLeg{
		leg("r1", "a", domain.GeoPoint{Lat: 0, Lng: 0}, domain.GeoPoint{Lat: 2, Lng: 0}),
	})

	fc, ok := surface.lastCollection(domain.GroupRoutes)
	if !ok || len(fc.Features) != 1 {
		t.Fatalf("expected 1 route feature, got %+v", fc)
	}
	mid, ok := fc.Features[0].Properties["midpoint"].([]float64)
	if !ok {
		t.Fatal("midpoint property missing")
	}
	if mid[1] != 1 || mid[0] != 0 {
		t.Errorf("expected midpoint (lat 1, lng 0), got lng=%v lat=%v", mid[0], mid[1])
	}
}

func TestRouteLayer_EmptyPolylineOmitted(t *testing.T) {
	surface := newFakeSurface()
	ctrl, _ := newRouteController(surface, &fakeIntents{})

	ctrl.SetRoutes([]domain.RouteLeg{
		leg("r1", "a"),
		leg("r2", "a", domain.GeoPoint{Lat: 0, Lng: 0}, domain.GeoPoint{Lat: 1, Lng: 0}),
	})

	fc, _ := surface.lastCollection(domain.GroupRoutes)
	if len(fc.Features) != 1 || fc.Features[0].EntityID != "r2" {
		t.Errorf("geometry-less leg must be omitted: %+v", fc.Features)
	}
}

func TestRouteLayer_PlainClickSelectsOriginActivity(t *testing.T) {
	surface := newFakeSurface()
	intents := &fakeIntents{}
	ctrl, store := newRouteController(surface, intents)
	ctrl.SetRoutes([]domain.RouteLeg{
		leg("r1", "act-1", domain.GeoPoint{Lat: 0, Lng: 0}, domain.GeoPoint{Lat: 1, Lng: 0}),
	})

	fid, _ := store.FeatureID(domain.GroupRoutes, "r1")
	surface.fire(domain.GroupRoutes, "click", ports.PointerEvent{FeatureID: fid})

	intent, ok := intents.last()
	if !ok || intent.Kind != domain.IntentSelectActivity {
		t.Fatalf("expected select intent, got %+v", intent)
	}
	if intent.ActivityID != "act-1" || intent.RouteID != "r1" {
		t.Errorf("unexpected payload: %+v", intent)
	}
}

func TestRouteLayer_ModifierClickTogglesMultiSelect(t *testing.T) {
	surface := newFakeSurface()
	intents := &fakeIntents{}
	ctrl, store := newRouteController(surface, intents)
	ctrl.SetRoutes([]domain.RouteLeg{
		leg("r1", "a", domain.GeoPoint{Lat: 0, Lng: 0}, domain.GeoPoint{Lat: 1, Lng: 0}),
	})

	fid, _ := store.FeatureID(domain.GroupRoutes, "r1")
	ev := ports.PointerEvent{FeatureID: fid, Modifier: true}

	surface.fire(domain.GroupRoutes, "click", ev)
	flags, _ := store.Flags(domain.GroupRoutes, "r1")
	if !flags.MultiSelected {
		t.Error("modifier click should add to multi-selection")
	}
	if ids := ctrl.MultiSelectedIDs(); len(ids) != 1 || ids[0] != "r1" {
		t.Errorf("unexpected multi-selection: %v", ids)
	}

	surface.fire(domain.GroupRoutes, "click", ev)
	flags, _ = store.Flags(domain.GroupRoutes, "r1")
	if flags.MultiSelected {
		t.Error("second modifier click should remove from multi-selection")
	}
	if len(ctrl.MultiSelectedIDs()) != 0 {
		t.Error("multi-selection should be empty after toggle off")
	}

	intent, _ := intents.last()
	if intent.Kind != domain.IntentToggleMultiSelect {
		t.Errorf("expected toggle intent, got %+v", intent)
	}
}

func TestRouteLayer_ClearMultiSelection(t *testing.T) {
	surface := newFakeSurface()
	ctrl, store := newRouteController(surface, &fakeIntents{})
	ctrl.SetRoutes([]domain.RouteLeg{
		leg("r1", "a", domain.GeoPoint{Lat: 0, Lng: 0}, domain.GeoPoint{Lat: 1, Lng: 0}),
		leg("r2", "a", domain.GeoPoint{Lat: 1, Lng: 0}, domain.GeoPoint{Lat: 2, Lng: 0}),
	})

	for _, id := range []string{"r1", "r2"} {
		fid, _ := store.FeatureID(domain.GroupRoutes, id)
		surface.fire(domain.GroupRoutes, "click", ports.PointerEvent{FeatureID: fid, Modifier: true})
	}

	ctrl.ClearMultiSelection()
	for _, id := range []string{"r1", "r2"} {
		flags, _ := store.Flags(domain.GroupRoutes, id)
		if flags.MultiSelected {
			t.Errorf("%s still multi-selected after clear", id)
		}
	}
}

func TestRouteLayer_ContextMenuOpensClampedEditor(t *testing.T) {
	surface := newFakeSurface() // viewport 1280x800
	intents := &fakeIntents{}
	ctrl, store := newRouteController(surface, intents)
	ctrl.SetRoutes([]domain.RouteLeg{
		leg("r1", "a", domain.GeoPoint{Lat: 0, Lng: 0}, domain.GeoPoint{Lat: 1, Lng: 0}),
	})

	fid, _ := store.FeatureID(domain.GroupRoutes, "r1")
	surface.fire(domain.GroupRoutes, "contextmenu", ports.PointerEvent{
		FeatureID: fid,
		Screen:    domain.ScreenPoint{X: 1270, Y: 790},
	})

	intent, ok := intents.last()
	if !ok || intent.Kind != domain.IntentOpenTransportEditor || intent.Screen == nil {
		t.Fatalf("expected editor intent with screen point, got %+v", intent)
	}
	if intent.Screen.X > 1280-300 || intent.Screen.Y > 800-360 {
		t.Errorf("editor anchor not clamped: %+v", intent.Screen)
	}
}

func TestClampToViewport(t *testing.T) {
	cases := []struct {
		name   string
		in     domain.ScreenPoint
		wantIn func(p domain.ScreenPoint) bool
	}{
		{"center untouched", domain.ScreenPoint{X: 400, Y: 200},
			func(p domain.ScreenPoint) bool { return p.X == 400 && p.Y == 200 }},
		{"right edge pulled in", domain.ScreenPoint{X: 1279, Y: 200},
			func(p domain.ScreenPoint) bool { return p.X <= 1280-300-8 }},
		{"bottom edge pulled in", domain.ScreenPoint{X: 400, Y: 799},
			func(p domain.ScreenPoint) bool { return p.Y <= 800-360-8 }},
		{"negative pinned to margin", domain.ScreenPoint{X: -50, Y: -50},
			func(p domain.ScreenPoint) bool { return p.X == 8 && p.Y == 8 }},
	}
	for _, tc := range cases {
		got := usecases.ClampToViewport(tc.in, 1280, 800)
		if !tc.wantIn(got) {
			t.Errorf("%s: got %+v", tc.name, got)
		}
	}
}

func TestRouteLayer_RebuildKeepsDimmingDerivation(t *testing.T) {
	surface := newFakeSurface()
	ctrl, store := newRouteController(surface, &fakeIntents{})

	ctrl.ApplySelection("act-2")
	ctrl.SetRoutes([]domain.RouteLeg{
		leg("r1", "act-1", domain.GeoPoint{Lat: 0, Lng: 0}, domain.GeoPoint{Lat: 1, Lng: 0}),
		leg("r2", "act-2", domain.GeoPoint{Lat: 1, Lng: 0}, domain.GeoPoint{Lat: 2, Lng: 0}),
	})

	f1, _ := store.Flags(domain.GroupRoutes, "r1")
	f2, _ := store.Flags(domain.GroupRoutes, "r2")
	if !f1.Dimmed || f2.Dimmed {
		t.Errorf("dimming not re-derived after rebuild: r1=%+v r2=%+v", f1, f2)
	}
}
