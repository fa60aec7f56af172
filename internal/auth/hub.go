package auth

import "sync"

// Listener receives auth-state events; nil means signed out.
type Listener func(*Identity)

// Hub fans auth-state changes out to per-session subscribers.
type Hub struct {
	mu   sync.Mutex
	next int
	byID map[string]map[int]Listener
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{byID: make(map[string]map[int]Listener)}
}

// Add registers fn for a session and returns its removal func.
func (h *Hub) Add(sessionID string, fn Listener) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	key := h.next
	if h.byID[sessionID] == nil {
		h.byID[sessionID] = make(map[int]Listener)
	}
	h.byID[sessionID][key] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.byID[sessionID], key)
		if len(h.byID[sessionID]) == 0 {
			delete(h.byID, sessionID)
		}
	}
}

// Publish delivers id to every subscriber of the session. Listeners run
// outside the lock.
func (h *Hub) Publish(sessionID string, id *Identity) {
	h.mu.Lock()
	listeners := make([]Listener, 0, len(h.byID[sessionID]))
	for _, fn := range h.byID[sessionID] {
		listeners = append(listeners, fn)
	}
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(id)
	}
}

// Count returns the number of subscribers for a session.
func (h *Hub) Count(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.byID[sessionID])
}
