package usecases_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/escaduto/spotospot/internal/core/domain"
	"github.com/escaduto/spotospot/internal/core/mapstate"
	"github.com/escaduto/spotospot/internal/core/ports"
	"github.com/escaduto/spotospot/internal/core/usecases"
)

func newOrchestrator(strategies []ports.PlaceSearcher) (*usecases.SearchOrchestrator, *usecases.SearchLayerController) {
	surface := newFakeSurface()
	store := mapstate.NewStore(surface)
	layer := usecases.NewSearchLayerController(store, surface, &fakeIntents{}, nil)
	return usecases.NewSearchOrchestrator(strategies, layer), layer
}

func waitState(t *testing.T, o *usecases.SearchOrchestrator, want usecases.SearchState) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if o.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("state never reached %v, stuck at %v", want, o.State())
}

func TestOrchestrator_StaleResponseDiscarded(t *testing.T) {
	oldGate := make(chan struct{})
	newGate := make(chan struct{})
	searcher := &fakeSearcher{
		name: "primary",
		textFn: func(_ context.Context, query string, _ *domain.GeoPoint, _ int) ([]domain.SearchResult, error) {
			switch query {
			case "old":
				<-oldGate
				return []domain.SearchResult{searchResult("stale-place", geom(1, 1))}, nil
			default:
				<-newGate
				return []domain.SearchResult{searchResult("fresh-place", geom(2, 2))}, nil
			}
		},
	}
	o, layer := newOrchestrator([]ports.PlaceSearcher{searcher})

	applied := make(chan uint64, 4)
	o.SetAppliedHook(func(tag uint64) { applied <- tag })

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); o.SearchNow(context.Background(), "old", nil) }()
	time.Sleep(10 * time.Millisecond) // let the old request reach its gate
	go func() { defer wg.Done(); o.SearchNow(context.Background(), "new", nil) }()

	// The newer request resolves first.
	close(newGate)
	if tag := <-applied; tag != 2 {
		t.Fatalf("expected tag 2 applied, got %d", tag)
	}

	// The stale response lands afterwards and must be dropped.
	close(oldGate)
	wg.Wait()
	waitState(t, o, usecases.SearchSuperseded)

	results := layer.Results()
	if len(results) != 1 || results[0].ID != "fresh-place" {
		t.Errorf("stale response overwrote fresh results: %+v", results)
	}
	select {
	case tag := <-applied:
		t.Errorf("stale response was applied with tag %d", tag)
	default:
	}
}

func TestOrchestrator_DebounceCoalescesKeystrokes(t *testing.T) {
	var mu sync.Mutex
	var queries []string
	searcher := &fakeSearcher{
		name: "primary",
		textFn: func(_ context.Context, query string, _ *domain.GeoPoint, _ int) ([]domain.SearchResult, error) {
			mu.Lock()
			queries = append(queries, query)
			mu.Unlock()
			return []domain.SearchResult{searchResult(query, geom(1, 1))}, nil
		},
	}
	o, _ := newOrchestrator([]ports.PlaceSearcher{searcher})
	o.SetDebounce(20*time.Millisecond, 20*time.Millisecond)

	applied := make(chan uint64, 4)
	o.SetAppliedHook(func(tag uint64) { applied <- tag })

	o.QueryText("b", nil)
	o.QueryText("bi", nil)
	o.QueryText("bilbao", nil)

	select {
	case <-applied:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced query never resolved")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(queries) != 1 || queries[0] != "bilbao" {
		t.Errorf("expected a single fetch for the final keystroke, got %v", queries)
	}
}

func TestOrchestrator_ViewportQueryUsesBounds(t *testing.T) {
	var got domain.Bounds
	searcher := &fakeSearcher{
		name: "primary",
		viewportFn: func(_ context.Context, bounds domain.Bounds, _ int) ([]domain.SearchResult, error) {
			got = bounds
			return []domain.SearchResult{searchResult("p1", geom(1, 1))}, nil
		},
	}
	o, layer := newOrchestrator([]ports.PlaceSearcher{searcher})
	o.SetDebounce(5*time.Millisecond, 5*time.Millisecond)

	applied := make(chan uint64, 1)
	o.SetAppliedHook(func(tag uint64) { applied <- tag })

	want := domain.Bounds{MinLat: 0, MinLng: 0, MaxLat: 2, MaxLng: 2}
	o.QueryViewport(want)

	select {
	case <-applied:
	case <-time.After(2 * time.Second):
		t.Fatal("viewport query never resolved")
	}
	if got != want {
		t.Errorf("bounds not forwarded: got %+v", got)
	}
	if len(layer.Results()) != 1 {
		t.Errorf("results not applied: %+v", layer.Results())
	}
}

func TestOrchestrator_FallbackChainOrder(t *testing.T) {
	var calls []string
	failing := &fakeSearcher{
		name: "indexed",
		textFn: func(context.Context, string, *domain.GeoPoint, int) ([]domain.SearchResult, error) {
			calls = append(calls, "indexed")
			return nil, context.DeadlineExceeded
		},
	}
	empty := &fakeSearcher{
		name: "rpc",
		textFn: func(context.Context, string, *domain.GeoPoint, int) ([]domain.SearchResult, error) {
			calls = append(calls, "rpc")
			return nil, nil
		},
	}
	slow := &fakeSearcher{
		name: "scan",
		textFn: func(context.Context, string, *domain.GeoPoint, int) ([]domain.SearchResult, error) {
			calls = append(calls, "scan")
			return []domain.SearchResult{searchResult("p1", geom(1, 1))}, nil
		},
	}
	o, layer := newOrchestrator([]ports.PlaceSearcher{failing, empty, slow})

	o.SearchNow(context.Background(), "bilbao", nil)

	if len(calls) != 3 || calls[0] != "indexed" || calls[1] != "rpc" || calls[2] != "scan" {
		t.Errorf("unexpected chain order: %v", calls)
	}
	if len(layer.Results()) != 1 || layer.Results()[0].ID != "p1" {
		t.Errorf("fallback result not applied: %+v", layer.Results())
	}
}

func TestOrchestrator_ChainExhaustionResolvesEmpty(t *testing.T) {
	empty := &fakeSearcher{name: "indexed"}
	o, layer := newOrchestrator([]ports.PlaceSearcher{empty})

	o.SearchNow(context.Background(), "nowhere", nil)

	if o.State() != usecases.SearchResolved {
		t.Errorf("exhaustion must resolve, got state %v", o.State())
	}
	if len(layer.Results()) != 0 {
		t.Errorf("expected empty results, got %+v", layer.Results())
	}
}

func TestOrchestrator_ResultsRankedAroundOrigin(t *testing.T) {
	near := geom(0, 0)
	far := searchResult("far", geom(0, 10))
	nearby := searchResult("close", geom(0, 0.01))
	searcher := &fakeSearcher{
		name: "primary",
		textFn: func(context.Context, string, *domain.GeoPoint, int) ([]domain.SearchResult, error) {
			return []domain.SearchResult{far, nearby}, nil
		},
	}
	o, layer := newOrchestrator([]ports.PlaceSearcher{searcher})

	o.SearchNow(context.Background(), "museo", near)

	results := layer.Results()
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "close" {
		t.Errorf("closer result must rank first: %v, %v", results[0].ID, results[1].ID)
	}
	if results[0].Score == nil {
		t.Error("ranked results must carry a score")
	}
}
