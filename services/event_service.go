package services

import (
	"sync"
)

// Event types published on the hub.
const (
	EventOrderCreated  = "order_created"
	EventOrderServed   = "order_served"
	EventStatusChanged = "status_changed"
	EventNowServing    = "now_serving"
)

// Event is a single change notification pushed to subscribed clients.
// StudentID is the owning student for order events and zero for broadcast
// events (canteen status, now serving).
type Event struct {
	Type      string      `json:"type"`
	StudentID uint        `json:"-"`
	Data      interface{} `json:"data"`
}

// EventHub fans change events out to subscribed clients. It replaces the
// document store's snapshot listeners: every mutation publishes an event,
// every open client stream holds a subscription. Publish never blocks; a
// subscriber whose buffer is full misses events instead of stalling writers.
type EventHub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

// NewEventHub creates an empty hub
func NewEventHub() *EventHub {
	return &EventHub{subs: make(map[int]chan Event)}
}

var eventHubInstance = NewEventHub()

// GetEventHub returns the process-wide hub instance
func GetEventHub() *EventHub {
	return eventHubInstance
}

// SetEventHub replaces the process-wide hub instance (primarily for testing)
func SetEventHub(h *EventHub) {
	eventHubInstance = h
}

// Subscribe registers a new subscriber and returns its event channel plus an
// unsubscribe function. Unsubscribing closes the channel; it is safe to call
// more than once.
func (h *EventHub) Subscribe(buffer int) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Event, buffer)
	h.subs[id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}

	return ch, unsubscribe
}

// Publish delivers the event to every current subscriber without blocking.
func (h *EventHub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- e:
		default:
			// Subscriber is not keeping up; drop the event for it.
		}
	}
}

// SubscriberCount reports how many subscriptions are currently open
func (h *EventHub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
