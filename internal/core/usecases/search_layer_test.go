package usecases_test

import (
	"testing"

	"github.com/escaduto/spotospot/internal/core/domain"
	"github.com/escaduto/spotospot/internal/core/mapstate"
	"github.com/escaduto/spotospot/internal/core/ports"
	"github.com/escaduto/spotospot/internal/core/usecases"
)

func searchResult(id string, g *domain.GeoPoint) domain.SearchResult {
	return domain.SearchResult{ID: id, SourceTable: "places", Name: id, Geometry: g, PopularityScore: 50}
}

func newSearchController(surface *fakeSurface, intents *fakeIntents, editing func() string) (*usecases.SearchLayerController, *mapstate.Store) {
	store := mapstate.NewStore(surface)
	return usecases.NewSearchLayerController(store, surface, intents, editing), store
}

func TestSearchLayer_ClickAddsWhenNotEditing(t *testing.T) {
	surface := newFakeSurface()
	intents := &fakeIntents{}
	ctrl, store := newSearchController(surface, intents, nil)
	ctrl.SetResults([]domain.SearchResult{searchResult("p1", geom(1, 2))})

	fid, _ := store.FeatureID(domain.GroupSearch, "p1")
	surface.fire(domain.GroupSearch, "click", ports.PointerEvent{FeatureID: fid})

	intent, ok := intents.last()
	if !ok || intent.Kind != domain.IntentAddActivity {
		t.Fatalf("expected add intent, got %+v", intent)
	}
	if intent.Result == nil || intent.Result.ID != "p1" {
		t.Errorf("intent missing result: %+v", intent)
	}
}

func TestSearchLayer_ClickReplacesWhenEditing(t *testing.T) {
	surface := newFakeSurface()
	intents := &fakeIntents{}
	ctrl, store := newSearchController(surface, intents, func() string { return "act-9" })
	ctrl.SetResults([]domain.SearchResult{searchResult("p1", geom(1, 2))})

	fid, _ := store.FeatureID(domain.GroupSearch, "p1")
	surface.fire(domain.GroupSearch, "click", ports.PointerEvent{FeatureID: fid})

	intent, _ := intents.last()
	if intent.Kind != domain.IntentReplaceActivity || intent.ActivityID != "act-9" {
		t.Errorf("expected replace intent for act-9, got %+v", intent)
	}
}

func TestSearchLayer_NilGeometryNeverPlotted(t *testing.T) {
	surface := newFakeSurface()
	ctrl, _ := newSearchController(surface, &fakeIntents{}, nil)

	ctrl.SetResults([]domain.SearchResult{
		searchResult("ghost", nil),
		searchResult("real", geom(1, 2)),
	})

	fc, _ := surface.lastCollection(domain.GroupSearch)
	if len(fc.Features) != 1 || fc.Features[0].EntityID != "real" {
		t.Errorf("geometry-less result plotted: %+v", fc.Features)
	}
	// Both still appear in the companion list.
	if len(ctrl.Results()) != 2 {
		t.Errorf("companion list should keep both, got %d", len(ctrl.Results()))
	}
}

func TestSearchLayer_HoverShowsPopupAndLeaveClears(t *testing.T) {
	surface := newFakeSurface()
	ctrl, store := newSearchController(surface, &fakeIntents{}, nil)
	ctrl.SetResults([]domain.SearchResult{searchResult("p1", geom(1, 2))})

	fid, _ := store.FeatureID(domain.GroupSearch, "p1")
	surface.fire(domain.GroupSearch, "move", ports.PointerEvent{FeatureID: fid})

	if surface.popup == nil || surface.popup.ID != "p1" {
		t.Fatalf("popup not shown: %+v", surface.popup)
	}
	flags, _ := store.Flags(domain.GroupSearch, "p1")
	if !flags.Hover {
		t.Error("hover flag not set")
	}

	surface.fire(domain.GroupSearch, "leave", ports.PointerEvent{})
	if surface.popup != nil {
		t.Error("popup must clear on leave")
	}
}

func TestSearchLayer_ListHoverUsesSamePath(t *testing.T) {
	surface := newFakeSurface()
	ctrl, store := newSearchController(surface, &fakeIntents{}, nil)
	ctrl.SetResults([]domain.SearchResult{searchResult("p1", geom(1, 2))})

	ctrl.HoverResult("p1")
	if surface.popup == nil {
		t.Fatal("popup not shown from list hover")
	}
	flags, _ := store.Flags(domain.GroupSearch, "p1")
	if !flags.Hover {
		t.Error("hover flag not set from list hover")
	}

	ctrl.LeaveResult()
	if surface.popup != nil {
		t.Error("popup must clear")
	}
}

func TestSearchLayer_CloseDefensivelyHidesPopup(t *testing.T) {
	surface := newFakeSurface()
	ctrl, _ := newSearchController(surface, &fakeIntents{}, nil)
	ctrl.SetResults([]domain.SearchResult{searchResult("p1", geom(1, 2))})
	ctrl.HoverResult("p1")

	// The pointer leaves via DOM removal: no leave event ever fires.
	ctrl.Close()

	if surface.popup != nil {
		t.Error("close must hide the popup")
	}
	if n := surface.active[domain.GroupSearch]; n != 0 {
		t.Errorf("expected 0 live registrations, got %d", n)
	}
	ctrl.Close() // idempotent
}
