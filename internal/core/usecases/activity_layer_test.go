package usecases_test

import (
	"testing"

	"github.com/escaduto/spotospot/internal/core/domain"
	"github.com/escaduto/spotospot/internal/core/mapstate"
	"github.com/escaduto/spotospot/internal/core/ports"
	"github.com/escaduto/spotospot/internal/core/usecases"
)

func newActivityController(surface *fakeSurface, intents *fakeIntents) (*usecases.ActivityLayerController, *mapstate.Store) {
	store := mapstate.NewStore(surface)
	return usecases.NewActivityLayerController(store, surface, intents), store
}

func TestActivityLayer_OmitsEntitiesWithoutGeometry(t *testing.T) {
	surface := newFakeSurface()
	ctrl, _ := newActivityController(surface, &fakeIntents{})

	ctrl.SetActivities([]domain.Activity{
		activity("a", 0, nil),
		activity("b", 1, geom(10, 20)),
	})

	fc, ok := surface.lastCollection(domain.GroupActivities)
	if !ok {
		t.Fatal("no collection pushed")
	}
	if len(fc.Features) != 1 {
		t.Fatalf("expected exactly 1 feature, got %d", len(fc.Features))
	}
	if fc.Features[0].EntityID != "b" {
		t.Errorf("expected feature for b, got %s", fc.Features[0].EntityID)
	}
}

func TestActivityLayer_ClickSelectsAndEmitsIntent(t *testing.T) {
	surface := newFakeSurface()
	intents := &fakeIntents{}
	ctrl, store := newActivityController(surface, intents)

	ctrl.SetActivities([]domain.Activity{
		activity("a", 0, geom(1, 1)),
		activity("b", 1, geom(2, 2)),
	})

	fid, _ := store.FeatureID(domain.GroupActivities, "b")
	surface.fire(domain.GroupActivities, "click", ports.PointerEvent{FeatureID: fid})

	if ctrl.SelectedID() != "b" {
		t.Errorf("expected b selected, got %q", ctrl.SelectedID())
	}
	flags, _ := store.Flags(domain.GroupActivities, "b")
	if !flags.Selected {
		t.Error("selected flag not set")
	}
	intent, ok := intents.last()
	if !ok || intent.Kind != domain.IntentSelectActivity || intent.ActivityID != "b" {
		t.Errorf("unexpected intent: %+v", intent)
	}
}

func TestActivityLayer_SelectMovesHighlight(t *testing.T) {
	surface := newFakeSurface()
	ctrl, store := newActivityController(surface, &fakeIntents{})
	ctrl.SetActivities([]domain.Activity{
		activity("a", 0, geom(1, 1)),
		activity("b", 1, geom(2, 2)),
	})

	ctrl.Select("a")
	ctrl.Select("b")

	fa, _ := store.Flags(domain.GroupActivities, "a")
	fb, _ := store.Flags(domain.GroupActivities, "b")
	if fa.Selected || !fb.Selected {
		t.Errorf("selection did not move: a=%+v b=%+v", fa, fb)
	}
}

func TestActivityLayer_SelectionDimsForeignRoutes(t *testing.T) {
	surface := newFakeSurface()
	intents := &fakeIntents{}
	store := mapstate.NewStore(surface)
	acts := usecases.NewActivityLayerController(store, surface, intents)
	routes := usecases.NewRouteLayerController(store, surface, intents)
	acts.OnSelectionChanged(routes.ApplySelection)

	acts.SetActivities([]domain.Activity{
		activity("a", 0, nil),
		activity("b", 1, geom(10, 20)),
	})
	routes.SetRoutes([]domain.RouteLeg{
		leg("r1", "a", domain.GeoPoint{Lat: 0, Lng: 0}, domain.GeoPoint{Lat: 1, Lng: 1}),
		leg("r2", "b", domain.GeoPoint{Lat: 1, Lng: 1}, domain.GeoPoint{Lat: 2, Lng: 2}),
	})

	acts.Select("b")

	f1, _ := store.Flags(domain.GroupRoutes, "r1")
	f2, _ := store.Flags(domain.GroupRoutes, "r2")
	if !f1.Dimmed {
		t.Error("route from unselected activity should dim")
	}
	if f2.Dimmed {
		t.Error("route from selected activity must not dim")
	}

	// Clearing the selection restores every route.
	acts.Select("")
	f1, _ = store.Flags(domain.GroupRoutes, "r1")
	if f1.Dimmed {
		t.Error("dim must clear with the selection")
	}
}

func TestActivityLayer_EditingShowsOverlay(t *testing.T) {
	surface := newFakeSurface()
	ctrl, store := newActivityController(surface, &fakeIntents{})
	ctrl.SetActivities([]domain.Activity{activity("a", 0, geom(5, 6))})

	ctrl.StartEditing("a")

	if surface.overlayEntity != "a" {
		t.Errorf("overlay not shown for a: %q", surface.overlayEntity)
	}
	flags, _ := store.Flags(domain.GroupActivities, "a")
	if !flags.Editing {
		t.Error("editing flag not set")
	}

	ctrl.StopEditing()
	if surface.overlayEntity != "" {
		t.Error("overlay not removed")
	}
}

func TestActivityLayer_MapClickRepositionsWhileEditing(t *testing.T) {
	surface := newFakeSurface()
	intents := &fakeIntents{}
	ctrl, _ := newActivityController(surface, intents)
	ctrl.SetActivities([]domain.Activity{activity("a", 0, geom(5, 6))})
	ctrl.StartEditing("a")

	target := geom(7, 8)
	surface.fire(ports.BaseMap, "click", ports.PointerEvent{FeatureID: -1, LngLat: target})

	intent, ok := intents.last()
	if !ok || intent.Kind != domain.IntentRepositionActivity {
		t.Fatalf("expected reposition intent, got %+v", intent)
	}
	if intent.ActivityID != "a" || intent.Point == nil || intent.Point.Lat != 7 {
		t.Errorf("unexpected intent payload: %+v", intent)
	}
}

func TestActivityLayer_MapClickIgnoredWhenNotEditing(t *testing.T) {
	surface := newFakeSurface()
	intents := &fakeIntents{}
	ctrl, _ := newActivityController(surface, intents)
	ctrl.SetActivities([]domain.Activity{activity("a", 0, geom(5, 6))})

	surface.fire(ports.BaseMap, "click", ports.PointerEvent{FeatureID: -1, LngLat: geom(7, 8)})

	if len(intents.all()) != 0 {
		t.Errorf("expected no intent, got %+v", intents.all())
	}
}

func TestActivityLayer_DragEndSwallowsSameGestureClick(t *testing.T) {
	surface := newFakeSurface()
	intents := &fakeIntents{}
	ctrl, _ := newActivityController(surface, intents)
	ctrl.SetActivities([]domain.Activity{activity("a", 0, geom(5, 6))})
	ctrl.StartEditing("a")

	// Drag-end followed by the click the same gesture produces.
	surface.fire(domain.GroupActivities, "dragend", ports.PointerEvent{LngLat: geom(9, 9)})
	surface.fire(ports.BaseMap, "click", ports.PointerEvent{LngLat: geom(9, 9)})

	all := intents.all()
	if len(all) != 1 {
		t.Fatalf("one gesture must emit one reposition, got %d intents", len(all))
	}
	if all[0].Kind != domain.IntentRepositionActivity || all[0].Point.Lat != 9 {
		t.Errorf("unexpected intent: %+v", all[0])
	}

	// A later, separate map click goes through again.
	surface.fire(ports.BaseMap, "click", ports.PointerEvent{LngLat: geom(3, 3)})
	if len(intents.all()) != 2 {
		t.Error("later clicks must not be swallowed")
	}
}

func TestActivityLayer_RefetchKeepsEditOverlay(t *testing.T) {
	surface := newFakeSurface()
	ctrl, _ := newActivityController(surface, &fakeIntents{})
	ctrl.SetActivities([]domain.Activity{activity("a", 0, geom(5, 6))})
	ctrl.StartEditing("a")

	// Refetch with the activity moved.
	ctrl.SetActivities([]domain.Activity{activity("a", 0, geom(7, 8))})

	if surface.overlayEntity != "a" {
		t.Error("edit overlay must survive a refetch of the same entity")
	}
	if surface.overlayAt == nil || surface.overlayAt.Lat != 7 {
		t.Errorf("overlay not moved to refreshed position: %+v", surface.overlayAt)
	}

	// Refetch without the activity ends the edit.
	ctrl.SetActivities([]domain.Activity{activity("b", 0, geom(1, 1))})
	if ctrl.EditingID() != "" || surface.overlayEntity != "" {
		t.Error("edit must end when the entity disappears")
	}
}

func TestActivityLayer_ReregistrationTearsDownOldHandlers(t *testing.T) {
	surface := newFakeSurface()
	ctrl, _ := newActivityController(surface, &fakeIntents{})

	ctrl.SetActivities([]domain.Activity{activity("a", 0, geom(1, 1))})
	ctrl.SetActivities([]domain.Activity{activity("a", 0, geom(1, 1))})

	if n := surface.active[domain.GroupActivities]; n != 1 {
		t.Errorf("expected exactly 1 live registration, got %d", n)
	}

	ctrl.Close()
	ctrl.Close() // idempotent
	if n := surface.active[domain.GroupActivities]; n != 0 {
		t.Errorf("expected 0 live registrations after close, got %d", n)
	}
}

func TestActivityLayer_HoverFollowsPointer(t *testing.T) {
	surface := newFakeSurface()
	ctrl, store := newActivityController(surface, &fakeIntents{})
	ctrl.SetActivities([]domain.Activity{
		activity("a", 0, geom(1, 1)),
		activity("b", 1, geom(2, 2)),
	})

	fidA, _ := store.FeatureID(domain.GroupActivities, "a")
	fidB, _ := store.FeatureID(domain.GroupActivities, "b")
	surface.fire(domain.GroupActivities, "move", ports.PointerEvent{FeatureID: fidA})
	surface.fire(domain.GroupActivities, "move", ports.PointerEvent{FeatureID: fidB})

	fa, _ := store.Flags(domain.GroupActivities, "a")
	fb, _ := store.Flags(domain.GroupActivities, "b")
	if fa.Hover || !fb.Hover {
		t.Errorf("hover did not follow pointer: a=%+v b=%+v", fa, fb)
	}

	surface.fire(domain.GroupActivities, "leave", ports.PointerEvent{})
	fb, _ = store.Flags(domain.GroupActivities, "b")
	if fb.Hover {
		t.Error("hover must clear on leave")
	}
}
