// Package realtime fans reservation changes out to live websocket clients
// and, optionally, to other instances over NATS.
package realtime

import (
	"sync"
	"time"

	"github.com/roomdesk/roomdesk/internal/services/reservation/domain"
)

// SubscriberBuffer is the number of undelivered events kept per subscriber.
const SubscriberBuffer = 64

// Event is one reservation change.
type Event struct {
	Type        domain.EventType
	Reservation domain.Reservation
	OccurredAt  time.Time
	Origin      string
}

// Filter selects the events a subscriber receives.
type Filter func(Event) bool

// Forwarder receives locally published events for fan-out beyond this process.
type Forwarder interface {
	Forward(event Event)
}

// Recorder receives push counters.
type Recorder interface {
	PushEvent(eventType, source string)
}

// Subscription is one subscriber's event stream.
type Subscription struct {
	hub     *Hub
	filter  Filter
	events  chan Event
	mu      sync.Mutex
	dropped int
	closed  bool
}

// Events returns the receive side of the subscription.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Dropped reports how many events were discarded because the buffer was full.
func (s *Subscription) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close detaches the subscription and closes its channel.
func (s *Subscription) Close() {
	s.hub.remove(s)
}

// offer enqueues event, discarding the oldest queued event when full.
func (s *Subscription) offer(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.events <- event:
			return
		default:
		}
		select {
		case <-s.events:
			s.dropped++
		default:
		}
	}
}

// Hub is an in-process publish/subscribe broker for reservation events.
type Hub struct {
	origin string
	clock  func() time.Time

	mu          sync.RWMutex
	subscribers map[*Subscription]struct{}
	forwarder   Forwarder
	recorder    Recorder
}

// HubOption customizes a Hub.
type HubOption func(*Hub)

// WithHubClock overrides the event timestamp source.
func WithHubClock(clock func() time.Time) HubOption {
	return func(h *Hub) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// WithHubRecorder sets the push metrics recorder.
func WithHubRecorder(recorder Recorder) HubOption {
	return func(h *Hub) {
		h.recorder = recorder
	}
}

// NewHub creates a hub whose events carry origin.
func NewHub(origin string, opts ...HubOption) *Hub {
	h := &Hub{
		origin:      origin,
		clock:       time.Now,
		subscribers: make(map[*Subscription]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Origin returns the instance identifier stamped on local events.
func (h *Hub) Origin() string {
	return h.origin
}

// SetForwarder installs the outbound fan-out; nil removes it.
func (h *Hub) SetForwarder(forwarder Forwarder) {
	h.mu.Lock()
	h.forwarder = forwarder
	h.mu.Unlock()
}

// Subscribe registers a subscriber. A nil filter receives every event.
func (h *Hub) Subscribe(filter Filter) *Subscription {
	sub := &Subscription{hub: h, filter: filter, events: make(chan Event, SubscriberBuffer)}
	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// SubscriberCount returns the number of live subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// PublishReservation publishes a local reservation change.
func (h *Hub) PublishReservation(eventType domain.EventType, reservation domain.Reservation) {
	h.Publish(Event{Type: eventType, Reservation: reservation})
}

// Publish delivers event locally and forwards it when it originated here.
func (h *Hub) Publish(event Event) {
	if event.Origin == "" {
		event.Origin = h.origin
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = h.clock().UTC()
	}
	h.deliver(event, "local")

	if event.Origin != h.origin {
		return
	}
	h.mu.RLock()
	forwarder := h.forwarder
	h.mu.RUnlock()
	if forwarder != nil {
		forwarder.Forward(event)
	}
}

// Deliver hands a remote event to local subscribers without forwarding it.
func (h *Hub) Deliver(event Event) {
	h.deliver(event, "relay")
}

func (h *Hub) deliver(event Event, source string) {
	h.mu.RLock()
	for sub := range h.subscribers {
		if sub.filter != nil && !sub.filter(event) {
			continue
		}
		sub.offer(event)
	}
	recorder := h.recorder
	h.mu.RUnlock()
	if recorder != nil {
		recorder.PushEvent(string(event.Type), source)
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	delete(h.subscribers, sub)
	h.mu.Unlock()

	sub.mu.Lock()
	if !sub.closed {
		sub.closed = true
		close(sub.events)
	}
	sub.mu.Unlock()
}

// VisibleTo returns the filter for a viewer: admins see everything, other
// users only their own reservations.
func VisibleTo(userID string, admin bool) Filter {
	return func(event Event) bool {
		return admin || (userID != "" && event.Reservation.RequesterUserID == userID)
	}
}
