// Package realtime propagates store change notifications to connected
// clients. Delivery is at-least-once and coalescing: a subscriber holds a
// one-slot signal channel, so a burst of changes collapses into a single
// signal and the client re-fetches current state rather than replaying a
// history of deltas.
package realtime

import (
	"sync"
)

// Change names what kind of row changed in a session.
type Change struct {
	SessionID string `json:"session_id"`
	Table     string `json:"table"`
}

// Tables that publish changes.
const (
	TableItems        = "items"
	TableClaims       = "claims"
	TableParticipants = "participants"
)

type subscriber struct {
	ch chan Change
}

// Hub fans session change signals out to subscribers.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*subscriber]struct{})}
}

// Subscribe registers interest in a session's changes. The returned channel
// has a one-slot buffer; pending unread signals are coalesced. The cancel
// function must be called when the client goes away.
func (h *Hub) Subscribe(sessionID string) (<-chan Change, func()) {
	sub := &subscriber{ch: make(chan Change, 1)}

	h.mu.Lock()
	set, ok := h.subs[sessionID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[sessionID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[sessionID]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(h.subs, sessionID)
			}
		}
	}
	return sub.ch, cancel
}

// Publish signals that rows of table changed in sessionID. It never blocks:
// a subscriber with an undelivered signal keeps that one signal, which is
// correct because a re-fetch reflects store state at fetch time anyway.
func (h *Hub) Publish(sessionID, table string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[sessionID] {
		select {
		case sub.ch <- Change{SessionID: sessionID, Table: table}:
		default:
		}
	}
}

// SubscriberCount reports how many clients are watching a session.
func (h *Hub) SubscriberCount(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[sessionID])
}
