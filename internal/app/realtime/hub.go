// Package realtime fans out change events to connected client sessions so
// open views can re-fetch affected lists without polling. Delivery is
// at-most-once and best-effort: there is no backlog, and a subscriber that
// connects after an event fired never sees it.
package realtime

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Event is one broadcast notification. Payload carries the minimal delta
// needed to refresh a view (ids and updated counts) for registration
// updates, or the full document for admin create/update/delete.
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"payload"`
}

// subscriberBuffer is the per-subscriber channel depth. A subscriber that
// falls this far behind starts losing events rather than blocking
// publishers.
const subscriberBuffer = 16

// Hub distributes events to all current subscribers. Publish never blocks:
// events for a full subscriber are dropped and counted.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]chan Event
	dropped atomic.Uint64
	log     *zap.Logger
}

// NewHub constructs an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subs: make(map[string]chan Event),
		log:  logger,
	}
}

// Subscribe registers a new subscriber under id and returns its event
// channel. The channel is closed by Unsubscribe.
func (h *Hub) Subscribe(id string) <-chan Event {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes the subscriber and closes its channel. Safe to call
// for an unknown id.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
	h.mu.Unlock()
}

// Publish sends ev to every current subscriber without blocking. Within a
// single publisher goroutine, events arrive at each subscriber in publish
// order.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.dropped.Add(1)
			if h.log != nil {
				h.log.Warn("dropping realtime event for slow subscriber",
					zap.String("subscriber", id),
					zap.String("event", ev.Name))
			}
		}
	}
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns the number of events dropped for slow subscribers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
