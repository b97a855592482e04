// Package realtime fans out device state-change events to live viewer
// connections over WebSocket, scoped by owning user. Delivery is
// best-effort and at most once per connected viewer: there is no event
// log or replay, so viewers re-fetch the device list on (re)connect.
package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/unilocator/server/pkg/models"
)

// sendBufferSize is the per-viewer outbound message buffer. When it fills,
// further events for that viewer are dropped rather than stalling the
// publishing write path.
const sendBufferSize = 64

// Hub manages viewer connections and routes events to the owner's viewers.
type Hub struct {
	mu      sync.RWMutex
	viewers map[uuid.UUID]map[*Viewer]struct{}
}

func NewHub() *Hub {
	return &Hub{
		viewers: make(map[uuid.UUID]map[*Viewer]struct{}),
	}
}

// Subscribe registers a viewer under its owner id and returns it as the
// subscription handle for a later Unsubscribe.
func (h *Hub) Subscribe(ownerID uuid.UUID, v *Viewer) *Viewer {
	h.mu.Lock()
	if h.viewers[ownerID] == nil {
		h.viewers[ownerID] = make(map[*Viewer]struct{})
	}
	h.viewers[ownerID][v] = struct{}{}
	h.mu.Unlock()

	log.Printf("Viewer connected for user %s (%d total)", ownerID, h.ViewerCount())
	return v
}

// Unsubscribe removes a viewer. Only the goroutine that actually removes
// the viewer from the map closes its send channel, preventing double-close
// during shutdown races.
func (h *Hub) Unsubscribe(v *Viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.viewers[v.ownerID]
	if !ok {
		return
	}
	if _, existed := set[v]; existed {
		delete(set, v)
		close(v.send)
	}
	if len(set) == 0 {
		delete(h.viewers, v.ownerID)
	}
}

// Publish delivers an event to every viewer currently subscribed under
// ownerID. It never blocks: a viewer whose buffer is full simply misses
// the event.
func (h *Hub) Publish(ownerID uuid.UUID, event models.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal event %s: %v", event.Type, err)
		return
	}

	// Snapshot under the read lock, send outside it.
	h.mu.RLock()
	set := h.viewers[ownerID]
	targets := make([]*Viewer, 0, len(set))
	for v := range set {
		targets = append(targets, v)
	}
	h.mu.RUnlock()

	for _, v := range targets {
		v.trySend(data)
	}
}

// ViewerCount returns the number of connected viewers across all owners.
func (h *Hub) ViewerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, set := range h.viewers {
		count += len(set)
	}
	return count
}

// Shutdown disconnects all viewers so their write pumps exit cleanly.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ownerID, set := range h.viewers {
		for v := range set {
			close(v.send)
			if v.conn != nil {
				v.conn.Close()
			}
		}
		delete(h.viewers, ownerID)
	}
}
