package http

import (
	"encoding/json"
	"sync"
)

// DayUpdate is the cross-instance broadcast payload: some instance
// mutated this day, everyone viewing it should refetch.
type DayUpdate struct {
	DayID string `json:"day_id"`
}

// UpdateHub fans day-update broadcasts out to the sessions on this
// instance that are viewing the affected day. Notifications coalesce;
// a subscriber that has one pending refresh does not queue more.
type UpdateHub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*hubSub
}

type hubSub struct {
	dayID string
	ch    chan struct{}
}

func NewUpdateHub() *UpdateHub {
	return &UpdateHub{subs: map[int]*hubSub{}}
}

// Subscribe registers interest in one day. The returned channel fires
// on every update to that day and is closed by cancel. Cancel is safe
// to call more than once.
func (h *UpdateHub) Subscribe(dayID string) (<-chan struct{}, func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	sub := &hubSub{dayID: dayID, ch: make(chan struct{}, 1)}
	h.subs[id] = sub
	h.mu.Unlock()

	return sub.ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if s, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(s.ch)
		}
	}
}

// Notify wakes every subscriber watching dayID without blocking.
func (h *UpdateHub) Notify(dayID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.subs {
		if s.dayID != dayID {
			continue
		}
		select {
		case s.ch <- struct{}{}:
		default:
		}
	}
}

// Dispatch decodes a raw broadcast frame and notifies. Malformed or
// empty frames are dropped.
func (h *UpdateHub) Dispatch(data []byte) {
	var u DayUpdate
	if err := json.Unmarshal(data, &u); err != nil || u.DayID == "" {
		return
	}
	h.Notify(u.DayID)
}
