// Package events broadcasts session lifecycle events to connected frontends.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chartsbridge/internal/classcharts"
)

// Event is one session lifecycle notification.
type Event struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
}

// subscriberBuffer bounds each subscriber's queue; a subscriber that stops
// draining loses events rather than blocking the publisher.
const subscriberBuffer = 16

// Hub fans session events out to subscribers. It implements
// classcharts.Publisher, so the client can feed it directly.
type Hub struct {
	mu   sync.Mutex
	subs map[uuid.UUID]chan Event
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uuid.UUID]chan Event)}
}

// Publish delivers an event to every subscriber without blocking.
func (h *Hub) Publish(kind classcharts.EventKind) {
	ev := Event{Type: string(kind), At: time.Now().UTC()}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber is not draining; drop rather than block.
		}
	}
}

// Subscribe registers a new subscriber and returns its id and channel.
func (h *Hub) Subscribe() (uuid.UUID, <-chan Event) {
	id := uuid.New()
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()
	return id, ch
}

// Unsubscribe removes a subscriber. Safe to call with an unknown id.
func (h *Hub) Unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
	h.mu.Unlock()
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
