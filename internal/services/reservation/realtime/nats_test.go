package realtime

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/roomdesk/roomdesk/internal/services/reservation/domain"
)

// loopbackBus is an in-memory stand-in for a NATS server shared by relays.
type loopbackBus struct {
	mu       sync.Mutex
	handlers map[string][]nats.MsgHandler
}

func newLoopbackBus() *loopbackBus {
	return &loopbackBus{handlers: map[string][]nats.MsgHandler{}}
}

func (b *loopbackBus) Publish(subject string, data []byte) error {
	b.mu.Lock()
	handlers := append([]nats.MsgHandler(nil), b.handlers[subject]...)
	b.mu.Unlock()
	for _, handler := range handlers {
		handler(&nats.Msg{Subject: subject, Data: append([]byte(nil), data...)})
	}
	return nil
}

func (b *loopbackBus) Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[subject] = append(b.handlers[subject], cb)
	return &nats.Subscription{Subject: subject}, nil
}

func TestNATSRelayBridgesInstances(t *testing.T) {
	t.Parallel()

	bus := newLoopbackBus()
	hubA := NewHub("node-a")
	hubB := NewHub("node-b")
	relayA := NewNATSRelay(bus, hubA, "")
	relayB := NewNATSRelay(bus, hubB, "")
	if err := relayA.Start(); err != nil {
		t.Fatalf("start relay a: %v", err)
	}
	if err := relayB.Start(); err != nil {
		t.Fatalf("start relay b: %v", err)
	}
	t.Cleanup(relayA.Close)
	t.Cleanup(relayB.Close)

	subA := hubA.Subscribe(nil)
	defer subA.Close()
	subB := hubB.Subscribe(nil)
	defer subB.Close()

	starts := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	hubA.PublishReservation(domain.EventUpdated, domain.Reservation{
		ID: "r1", RequesterUserID: "u1", Status: domain.StatusAccepted,
		StartsAt: starts, EndsAt: starts.Add(time.Hour),
	})

	local := receive(t, subA)
	if local.Origin != "node-a" {
		t.Fatalf("local origin = %q", local.Origin)
	}
	remote := receive(t, subB)
	if remote.Origin != "node-a" || remote.Reservation.ID != "r1" || remote.Reservation.Status != domain.StatusAccepted {
		t.Fatalf("remote = %+v", remote)
	}
	if !remote.Reservation.StartsAt.Equal(starts) {
		t.Fatalf("starts = %v", remote.Reservation.StartsAt)
	}

	select {
	case echo := <-subA.Events():
		t.Fatalf("origin hub received its own event back: %+v", echo)
	case <-time.After(50 * time.Millisecond):
	}
	select {
	case dup := <-subB.Events():
		t.Fatalf("remote hub received a duplicate: %+v", dup)
	default:
	}
}

func TestNATSRelayIgnoresMalformedMessages(t *testing.T) {
	t.Parallel()

	bus := newLoopbackBus()
	hub := NewHub("node-a")
	relay := NewNATSRelay(bus, hub, "custom.subject")
	if err := relay.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(relay.Close)
	sub := hub.Subscribe(nil)
	defer sub.Close()

	_ = bus.Publish("custom.subject", []byte("{not json"))
	unknown, _ := json.Marshal(relayMessage{Type: "reservation.deleted", Origin: "node-z"})
	_ = bus.Publish("custom.subject", unknown)

	select {
	case event := <-sub.Events():
		t.Fatalf("unexpected delivery %+v", event)
	default:
	}
}

func TestNATSRelayCloseStopsForwarding(t *testing.T) {
	t.Parallel()

	bus := newLoopbackBus()
	hub := NewHub("node-a")
	relay := NewNATSRelay(bus, hub, "")
	if err := relay.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	relay.Close()

	peer := NewHub("node-b")
	peerRelay := NewNATSRelay(bus, peer, "")
	if err := peerRelay.Start(); err != nil {
		t.Fatalf("start peer: %v", err)
	}
	t.Cleanup(peerRelay.Close)
	sub := peer.Subscribe(nil)
	defer sub.Close()

	hub.PublishReservation(domain.EventCreated, domain.Reservation{ID: "r1"})
	select {
	case event := <-sub.Events():
		t.Fatalf("closed relay still forwarded %+v", event)
	default:
	}
}
