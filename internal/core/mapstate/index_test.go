package mapstate_test

import (
	"testing"

	"github.com/escaduto/spotospot/internal/core/mapstate"
)

func TestIDIndex_SequentialInListOrder(t *testing.T) {
	ix := mapstate.NewIDIndex([]string{"a", "b", "c"})

	for i, id := range []string{"a", "b", "c"} {
		fid, ok := ix.FeatureID(id)
		if !ok || fid != i {
			t.Errorf("entity %s: expected feature id %d, got %d ok=%v", id, i, fid, ok)
		}
		back, ok := ix.EntityID(i)
		if !ok || back != id {
			t.Errorf("feature %d: expected entity %s, got %s ok=%v", i, id, back, ok)
		}
	}
	if ix.Len() != 3 {
		t.Errorf("expected len 3, got %d", ix.Len())
	}
}

func TestIDIndex_UnknownLookups(t *testing.T) {
	ix := mapstate.NewIDIndex([]string{"a"})

	if _, ok := ix.FeatureID("ghost"); ok {
		t.Error("unknown entity id must not resolve")
	}
	if _, ok := ix.EntityID(5); ok {
		t.Error("out-of-range feature id must not resolve")
	}
	if _, ok := ix.EntityID(-1); ok {
		t.Error("negative feature id must not resolve")
	}
}

func TestIDIndex_DuplicateEntityKeepsFirst(t *testing.T) {
	ix := mapstate.NewIDIndex([]string{"a", "b", "a"})

	if ix.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", ix.Len())
	}
	fid, ok := ix.FeatureID("a")
	if !ok || fid != 0 {
		t.Errorf("duplicate should keep first position, got %d", fid)
	}
}

func TestIDIndex_Empty(t *testing.T) {
	ix := mapstate.NewIDIndex(nil)
	if ix.Len() != 0 {
		t.Errorf("expected empty index, got len %d", ix.Len())
	}
}
