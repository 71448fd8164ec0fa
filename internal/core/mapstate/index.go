// Package mapstate keeps per-layer-group feature state consistent with
// application state. The rendering engine indexes features by a small
// integer, not by domain id, so every entity-list change rebuilds an
// explicit id-index map; flag writes issued against ids from before a
// rebuild are dropped rather than applied to the wrong entity.
package mapstate

// IDIndex is the bidirectional mapping between persistent entity ids
// and the sequential integer feature ids of one rebuilt collection.
type IDIndex struct {
	byEntity  map[string]int
	byFeature []string
}

// NewIDIndex assigns feature ids 0..n-1 in list order. A duplicate
// entity id keeps its first position; later occurrences are ignored so
// one entity never maps to two integers.
func NewIDIndex(entityIDs []string) *IDIndex {
	ix := &IDIndex{
		byEntity:  make(map[string]int, len(entityIDs)),
		byFeature: make([]string, 0, len(entityIDs)),
	}
	for _, id := range entityIDs {
		if _, dup := ix.byEntity[id]; dup {
			continue
		}
		ix.byEntity[id] = len(ix.byFeature)
		ix.byFeature = append(ix.byFeature, id)
	}
	return ix
}

// FeatureID resolves an entity id to its integer feature id.
func (ix *IDIndex) FeatureID(entityID string) (int, bool) {
	fid, ok := ix.byEntity[entityID]
	return fid, ok
}

// EntityID resolves an integer feature id back to the entity id.
func (ix *IDIndex) EntityID(featureID int) (string, bool) {
	if featureID < 0 || featureID >= len(ix.byFeature) {
		return "", false
	}
	return ix.byFeature[featureID], true
}

// EntityIDs returns the ids in feature-id order.
func (ix *IDIndex) EntityIDs() []string {
	out := make([]string, len(ix.byFeature))
	copy(out, ix.byFeature)
	return out
}

// Len returns the number of indexed entities.
func (ix *IDIndex) Len() int { return len(ix.byFeature) }
