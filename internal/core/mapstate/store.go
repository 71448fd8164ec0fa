package mapstate

import (
	"sync"

	"github.com/escaduto/spotospot/internal/core/domain"
)

// Sink receives collection replacements and per-feature flag deltas.
// The WebSocket surface hub implements it in production; tests use a
// recording fake.
type Sink interface {
	ReplaceCollection(group string, fc domain.FeatureCollection)
	WriteFlags(group string, featureID int, changed map[string]bool)
}

type groupState struct {
	index   *IDIndex
	flags   map[string]domain.StateFlags
	hovered string // entity id currently carrying hover, "" if none
}

// Store is the feature-state store. It owns one IDIndex per layer
// group and guarantees that flag toggles never trigger a collection
// replacement (which flickers and drops pointer capture) and that
// collection replacements never leave flags pointing at recycled
// integer ids.
type Store struct {
	mu     sync.Mutex
	sink   Sink
	groups map[string]*groupState

	onStaleWrite func(group string)
}

// NewStore creates a Store writing through to sink.
func NewStore(sink Sink) *Store {
	return &Store{sink: sink, groups: make(map[string]*groupState)}
}

// SetStaleWriteHook registers a callback fired whenever a flag write is
// dropped because its entity id is no longer in the index. Set before
// the store is shared; not synchronized afterwards.
func (s *Store) SetStaleWriteHook(fn func(group string)) {
	s.onStaleWrite = fn
}

// Rebuild replaces the group's collection. Feature ids are assigned
// sequentially in slice order from each feature's EntityID; flags of
// entities that survive the rebuild are re-written against their new
// ids, flags of removed entities are forgotten.
func (s *Store) Rebuild(group string, features []domain.Feature) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(features))
	for i := range features {
		ids = append(ids, features[i].EntityID)
	}
	index := NewIDIndex(ids)

	out := make([]domain.Feature, 0, index.Len())
	for i := range features {
		fid, ok := index.FeatureID(features[i].EntityID)
		if !ok || fid != len(out) {
			continue // duplicate entity id, first occurrence won
		}
		f := features[i]
		f.Type = "Feature"
		f.ID = fid
		out = append(out, f)
	}

	g := s.groups[group]
	oldFlags := map[string]domain.StateFlags{}
	oldHovered := ""
	if g != nil {
		oldFlags = g.flags
		oldHovered = g.hovered
	}

	ng := &groupState{index: index, flags: make(map[string]domain.StateFlags)}
	s.groups[group] = ng

	s.sink.ReplaceCollection(group, domain.NewFeatureCollection(out))

	// Replay surviving flags against the fresh integer ids.
	for id, flags := range oldFlags {
		fid, ok := index.FeatureID(id)
		if !ok {
			continue
		}
		ng.flags[id] = flags
		if diff := fullDiff(flags); len(diff) > 0 {
			s.sink.WriteFlags(group, fid, diff)
		}
	}
	if _, ok := index.FeatureID(oldHovered); ok {
		ng.hovered = oldHovered
	}
}

// Apply writes only the changed boolean flags for one entity. A write
// against an id absent from the current index is a routine no-op: the
// caller may hold a reference from before a rebuild. Returns whether
// anything was written.
func (s *Store) Apply(group, entityID string, change domain.FlagChange) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(group, entityID, change)
}

func (s *Store) applyLocked(group, entityID string, change domain.FlagChange) bool {
	g, ok := s.groups[group]
	if !ok {
		return false
	}
	fid, ok := g.index.FeatureID(entityID)
	if !ok {
		if s.onStaleWrite != nil {
			s.onStaleWrite(group)
		}
		return false // stale reference, dropped
	}

	flags := g.flags[entityID]
	diff := change.Diff(flags)
	if len(diff) == 0 {
		return false // idempotent re-apply, no redundant write
	}
	change.ApplyTo(&flags)
	g.flags[entityID] = flags

	if change.Hover != nil {
		if *change.Hover {
			g.hovered = entityID
		} else if g.hovered == entityID {
			g.hovered = ""
		}
	}

	s.sink.WriteFlags(group, fid, diff)
	return true
}

// Hover moves the group's single hover highlight to entityID,
// explicitly clearing the previous carrier first so a fast pointer
// never leaves a stuck highlight behind.
func (s *Store) Hover(group, entityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[group]
	if !ok {
		return
	}
	if g.hovered == entityID {
		return
	}
	if g.hovered != "" {
		s.applyLocked(group, g.hovered, domain.FlagChange{Hover: domain.Bool(false)})
	}
	s.applyLocked(group, entityID, domain.FlagChange{Hover: domain.Bool(true)})
}

// ClearHover removes the hover highlight, if any.
func (s *Store) ClearHover(group string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[group]
	if !ok || g.hovered == "" {
		return
	}
	s.applyLocked(group, g.hovered, domain.FlagChange{Hover: domain.Bool(false)})
	g.hovered = ""
}

// Flags returns the current flags for an entity.
func (s *Store) Flags(group, entityID string) (domain.StateFlags, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[group]
	if !ok {
		return domain.StateFlags{}, false
	}
	if _, live := g.index.FeatureID(entityID); !live {
		return domain.StateFlags{}, false
	}
	return g.flags[entityID], true
}

// FeatureID resolves an entity id to its live integer feature id.
func (s *Store) FeatureID(group, entityID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[group]
	if !ok {
		return 0, false
	}
	return g.index.FeatureID(entityID)
}

// EntityID resolves a live integer feature id to its entity id.
func (s *Store) EntityID(group string, featureID int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[group]
	if !ok {
		return "", false
	}
	return g.index.EntityID(featureID)
}

// EntityIDs returns the group's entity ids in feature-id order.
func (s *Store) EntityIDs(group string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[group]
	if !ok {
		return nil
	}
	return g.index.EntityIDs()
}

func fullDiff(f domain.StateFlags) map[string]bool {
	out := map[string]bool{}
	if f.Selected {
		out["selected"] = true
	}
	if f.Editing {
		out["editing"] = true
	}
	if f.Hover {
		out["hover"] = true
	}
	if f.MultiSelected {
		out["multiSelected"] = true
	}
	if f.Dimmed {
		out["dimmed"] = true
	}
	return out
}
