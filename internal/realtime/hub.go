// Package realtime fans analytics events out to live dashboard subscribers.
package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"

	"linkpro-analytics/internal/domain"
	"linkpro-analytics/internal/metrics"
)

// DefaultBuffer is the number of pending messages a subscriber may hold
const DefaultBuffer = 16

// Subscriber is one live connection listening to a single profile
type Subscriber struct {
	profileID int64
	send      chan []byte
}

// ProfileID returns the profile this subscriber listens to
func (s *Subscriber) ProfileID() int64 {
	return s.profileID
}

// Messages is closed once the subscriber is unsubscribed
func (s *Subscriber) Messages() <-chan []byte {
	return s.send
}

// Hub keeps the subscribers of every profile
// Delivery is best effort: a subscriber whose buffer is full misses the message
type Hub struct {
	mu          sync.RWMutex
	subscribers map[int64]map[*Subscriber]struct{} // profileID -> subscribers
	buffer      int
	logger      *slog.Logger
}

// NewHub creates an empty hub; a buffer <= 0 uses DefaultBuffer
func NewHub(buffer int, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subscribers: make(map[int64]map[*Subscriber]struct{}),
		buffer:      buffer,
		logger:      logger,
	}
}

// Subscribe registers a new subscriber for a profile
func (h *Hub) Subscribe(profileID int64) *Subscriber {
	sub := &Subscriber{profileID: profileID, send: make(chan []byte, h.buffer)}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscribers[profileID] == nil {
		h.subscribers[profileID] = make(map[*Subscriber]struct{})
	}
	h.subscribers[profileID][sub] = struct{}{}
	metrics.RealtimeSubscribers.Inc()

	return sub
}

// Unsubscribe removes the subscriber and closes its channel
// Calling it more than once is a no-op
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.subscribers[sub.profileID]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}

	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.subscribers, sub.profileID)
	}
	close(sub.send)
	metrics.RealtimeSubscribers.Dec()
}

// Broadcast delivers a raw message to every subscriber of a profile without blocking
func (h *Hub) Broadcast(profileID int64, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers[profileID] {
		select {
		case sub.send <- data:
		default:
			metrics.RecordMessageDropped()
			h.logger.Warn("dropping live update for slow subscriber", "profile_id", profileID)
		}
	}
}

// Publish serializes a tracking notification and broadcasts it
func (h *Hub) Publish(profileID int64, event domain.EventNotification) {
	if h.SubscriberCount(profileID) == 0 {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal live update", "error", err, "profile_id", profileID)
		return
	}
	h.Broadcast(profileID, data)
}

// SubscriberCount returns the number of live subscribers for a profile
func (h *Hub) SubscriberCount(profileID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[profileID])
}
