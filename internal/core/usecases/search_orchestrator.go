package usecases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/escaduto/spotospot/internal/core/domain"
	"github.com/escaduto/spotospot/internal/core/ports"
	"github.com/escaduto/spotospot/internal/pkg/geo"
)

// SearchState is the orchestrator's lifecycle state.
type SearchState int

const (
	SearchIdle SearchState = iota
	SearchDebouncing
	SearchFetching
	SearchResolved
	SearchSuperseded
)

const (
	defaultTextDebounce     = 300 * time.Millisecond
	defaultViewportDebounce = 800 * time.Millisecond
	defaultSearchLimit      = 25
)

// searchRequest is one debounced query, tagged with its fence value.
type searchRequest struct {
	tag     uint64
	query   string
	near    *domain.GeoPoint
	bounds  *domain.Bounds
	weights geo.RankWeights
}

// SearchOrchestrator debounces free-text and viewport queries, issues
// them through an ordered strategy chain, and fences responses with a
// monotonic request counter: a response whose tag is no longer the
// latest is discarded, never applied. The underlying query is not
// aborted; queries are idempotent reads, so comparison-and-drop is the
// whole cancellation mechanism.
type SearchOrchestrator struct {
	mu         sync.Mutex
	strategies []ports.PlaceSearcher
	layer      *SearchLayerController

	textDebounce     time.Duration
	viewportDebounce time.Duration
	limit            int

	seq   uint64
	timer *time.Timer
	state SearchState

	// onApplied is a hook fired after results land on the layer.
	onApplied func(tag uint64)
	// onSuperseded is a hook fired when a stale response is dropped.
	onSuperseded func()
}

// NewSearchOrchestrator builds an orchestrator over the given strategy
// chain, in priority order.
func NewSearchOrchestrator(strategies []ports.PlaceSearcher, layer *SearchLayerController) *SearchOrchestrator {
	return &SearchOrchestrator{
		strategies:       strategies,
		layer:            layer,
		textDebounce:     defaultTextDebounce,
		viewportDebounce: defaultViewportDebounce,
		limit:            defaultSearchLimit,
	}
}

// SetDebounce overrides the debounce windows; zero keeps the default.
func (o *SearchOrchestrator) SetDebounce(text, viewport time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if text > 0 {
		o.textDebounce = text
	}
	if viewport > 0 {
		o.viewportDebounce = viewport
	}
}

// SetAppliedHook installs an instrumentation callback fired after a
// response has been applied to the layer, with its fence tag.
func (o *SearchOrchestrator) SetAppliedHook(fn func(tag uint64)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onApplied = fn
}

// SetSupersededHook installs an instrumentation callback fired whenever
// a stale response is discarded.
func (o *SearchOrchestrator) SetSupersededHook(fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onSuperseded = fn
}

// State returns the current lifecycle state.
func (o *SearchOrchestrator) State() SearchState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// QueryText schedules a debounced free-text search ranked around near.
// Every keystroke lands here; each call supersedes whatever was pending.
func (o *SearchOrchestrator) QueryText(query string, near *domain.GeoPoint) {
	o.schedule(searchRequest{
		query:   query,
		near:    near,
		weights: geo.FreeTextWeights,
	}, o.textDebounce)
}

// QueryViewport schedules a debounced viewport-bounded refetch.
func (o *SearchOrchestrator) QueryViewport(bounds domain.Bounds) {
	b := bounds
	o.schedule(searchRequest{
		bounds:  &b,
		weights: geo.ViewportWeights,
	}, o.viewportDebounce)
}

// SearchNow bypasses the debounce window (explicit submit) but still
// participates in fencing.
func (o *SearchOrchestrator) SearchNow(ctx context.Context, query string, near *domain.GeoPoint) {
	req := searchRequest{query: query, near: near, weights: geo.FreeTextWeights}
	o.mu.Lock()
	o.seq++
	req.tag = o.seq
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	o.state = SearchFetching
	o.mu.Unlock()

	o.fetch(ctx, req)
}

func (o *SearchOrchestrator) schedule(req searchRequest, delay time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()

	// Bumping the counter immediately invalidates any in-flight fetch.
	o.seq++
	req.tag = o.seq
	o.state = SearchDebouncing

	if o.timer != nil {
		o.timer.Stop()
	}
	o.timer = time.AfterFunc(delay, func() {
		o.mu.Lock()
		if req.tag != o.seq {
			o.mu.Unlock()
			return // superseded while debouncing
		}
		o.state = SearchFetching
		o.mu.Unlock()

		o.fetch(context.Background(), req)
	})
}

// fetch walks the strategy chain, then applies the response iff its tag
// is still the latest.
func (o *SearchOrchestrator) fetch(ctx context.Context, req searchRequest) {
	results := o.runChain(ctx, req)

	o.mu.Lock()
	if req.tag != o.seq {
		o.state = SearchSuperseded
		superseded := o.onSuperseded
		o.mu.Unlock()
		if superseded != nil {
			superseded()
		}
		return
	}
	o.state = SearchResolved
	hook := o.onApplied
	o.mu.Unlock()

	origin := o.origin(req)
	ranked := geo.Rank(results, origin, req.weights)
	o.layer.SetResults(ranked)

	if hook != nil {
		hook(req.tag)
	}
}

// runChain tries each strategy in priority order; the first non-error,
// non-empty result wins. Empty results fall through: the slow fallback
// may over-fetch when the true answer is legitimately empty, but a
// deployment without the indexed predicate still gets answers.
// Exhaustion yields an empty set, not an error.
func (o *SearchOrchestrator) runChain(ctx context.Context, req searchRequest) []domain.SearchResult {
	for _, s := range o.strategies {
		var (
			results []domain.SearchResult
			err     error
		)
		if req.bounds != nil {
			results, err = s.SearchViewport(ctx, *req.bounds, o.limit)
		} else {
			results, err = s.SearchText(ctx, req.query, req.near, o.limit)
		}
		if err != nil {
			slog.Debug("search strategy failed", "strategy", s.Name(), "error", err)
			continue
		}
		if len(results) == 0 {
			continue
		}
		return results
	}
	return nil
}

func (o *SearchOrchestrator) origin(req searchRequest) domain.GeoPoint {
	if req.bounds != nil {
		return req.bounds.Center()
	}
	if req.near != nil {
		return *req.near
	}
	return domain.GeoPoint{}
}
