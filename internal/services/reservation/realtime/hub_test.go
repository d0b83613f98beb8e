package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/roomdesk/roomdesk/internal/services/reservation/domain"
)

type recordedPush struct {
	eventType string
	source    string
}

type fakeRecorder struct {
	mu     sync.Mutex
	pushes []recordedPush
}

func (f *fakeRecorder) PushEvent(eventType, source string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes = append(f.pushes, recordedPush{eventType: eventType, source: source})
}

type captureForwarder struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureForwarder) Forward(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureForwarder) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func reservationFor(id, requester string) domain.Reservation {
	return domain.Reservation{ID: id, RequesterUserID: requester, Status: domain.StatusPending}
}

func receive(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case event := <-sub.Events():
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHubPublishStampsAndDelivers(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	recorder := &fakeRecorder{}
	hub := NewHub("node-a", WithHubClock(func() time.Time { return now }), WithHubRecorder(recorder))
	sub := hub.Subscribe(nil)
	defer sub.Close()

	hub.PublishReservation(domain.EventCreated, reservationFor("r1", "u1"))
	got := receive(t, sub)
	if got.Type != domain.EventCreated || got.Origin != "node-a" || !got.OccurredAt.Equal(now) {
		t.Fatalf("event = %+v", got)
	}
	if len(recorder.pushes) != 1 || recorder.pushes[0].source != "local" {
		t.Fatalf("pushes = %+v", recorder.pushes)
	}
}

func TestHubVisibilityFilter(t *testing.T) {
	t.Parallel()

	hub := NewHub("node-a")
	owner := hub.Subscribe(VisibleTo("u1", false))
	defer owner.Close()
	stranger := hub.Subscribe(VisibleTo("u2", false))
	defer stranger.Close()
	admin := hub.Subscribe(VisibleTo("admin", true))
	defer admin.Close()

	hub.PublishReservation(domain.EventUpdated, reservationFor("r1", "u1"))

	if got := receive(t, owner); got.Reservation.ID != "r1" {
		t.Fatalf("owner got %+v", got)
	}
	if got := receive(t, admin); got.Reservation.ID != "r1" {
		t.Fatalf("admin got %+v", got)
	}
	select {
	case event := <-stranger.Events():
		t.Fatalf("stranger received %+v", event)
	default:
	}
}

func TestHubDropsOldestWhenFull(t *testing.T) {
	t.Parallel()

	hub := NewHub("node-a")
	sub := hub.Subscribe(nil)
	defer sub.Close()

	total := SubscriberBuffer + 10
	for i := 0; i < total; i++ {
		hub.PublishReservation(domain.EventUpdated, domain.Reservation{ID: "r", Attendees: i})
	}
	if got := sub.Dropped(); got != 10 {
		t.Fatalf("dropped = %d, want 10", got)
	}
	first := receive(t, sub)
	if first.Reservation.Attendees != 10 {
		t.Fatalf("oldest kept = %d, want 10", first.Reservation.Attendees)
	}
	last := first
	for i := 1; i < SubscriberBuffer; i++ {
		last = receive(t, sub)
	}
	if last.Reservation.Attendees != total-1 {
		t.Fatalf("newest = %d, want %d", last.Reservation.Attendees, total-1)
	}
}

func TestHubForwardsOnlyLocalEvents(t *testing.T) {
	t.Parallel()

	recorder := &fakeRecorder{}
	hub := NewHub("node-a", WithHubRecorder(recorder))
	forwarder := &captureForwarder{}
	hub.SetForwarder(forwarder)
	sub := hub.Subscribe(nil)
	defer sub.Close()

	hub.PublishReservation(domain.EventCreated, reservationFor("r1", "u1"))
	hub.Deliver(Event{Type: domain.EventUpdated, Reservation: reservationFor("r2", "u1"), Origin: "node-b"})
	hub.Publish(Event{Type: domain.EventUpdated, Reservation: reservationFor("r3", "u1"), Origin: "node-c"})

	receive(t, sub)
	receive(t, sub)
	receive(t, sub)
	if got := forwarder.count(); got != 1 {
		t.Fatalf("forwarded = %d, want 1", got)
	}
	if recorder.pushes[1].source != "relay" {
		t.Fatalf("pushes = %+v", recorder.pushes)
	}
}

func TestSubscriptionCloseStopsDelivery(t *testing.T) {
	t.Parallel()

	hub := NewHub("node-a")
	sub := hub.Subscribe(nil)
	if hub.SubscriberCount() != 1 {
		t.Fatalf("subscribers = %d", hub.SubscriberCount())
	}
	sub.Close()
	sub.Close()
	if hub.SubscriberCount() != 0 {
		t.Fatalf("subscribers after close = %d", hub.SubscriberCount())
	}
	hub.PublishReservation(domain.EventCreated, reservationFor("r1", "u1"))
	if _, ok := <-sub.Events(); ok {
		t.Fatal("expected closed channel")
	}
}

func TestHubConcurrentPublishers(t *testing.T) {
	t.Parallel()

	hub := NewHub("node-a")
	sub := hub.Subscribe(nil)
	defer sub.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				hub.PublishReservation(domain.EventUpdated, reservationFor("r", "u"))
			}
		}()
	}
	wg.Wait()
	if got := len(sub.Events()) + sub.Dropped(); got != 400 {
		t.Fatalf("buffered+dropped = %d, want 400", got)
	}
}
