package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/roomdesk/roomdesk/internal/services/reservation/api/wire"
	"github.com/roomdesk/roomdesk/internal/services/reservation/domain"
)

// DefaultSubject carries reservation events between instances.
const DefaultSubject = "roomdesk.reservations.events"

// natsConn is the subset of *nats.Conn used by the relay.
type natsConn interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
}

type relayMessage struct {
	Type        string           `json:"type"`
	Origin      string           `json:"origin"`
	OccurredAt  time.Time        `json:"occurred_at"`
	Reservation wire.Reservation `json:"reservation"`
}

// ConnectNATS dials the NATS server at url with reconnects enabled.
func ConnectNATS(url, name string) (*nats.Conn, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("nats url is required")
	}
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("nats disconnected err=%v", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Printf("nats reconnected url=%s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return conn, nil
}

// NATSRelay bridges a Hub to a NATS subject. Local events are published;
// events from other origins are delivered to local subscribers.
type NATSRelay struct {
	conn    natsConn
	hub     *Hub
	subject string

	mu  sync.Mutex
	sub *nats.Subscription
}

// NewNATSRelay builds a relay on subject, or DefaultSubject when empty.
func NewNATSRelay(conn natsConn, hub *Hub, subject string) *NATSRelay {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSRelay{conn: conn, hub: hub, subject: subject}
}

// Start subscribes to the subject and installs the relay as the hub forwarder.
func (r *NATSRelay) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sub != nil {
		return nil
	}
	sub, err := r.conn.Subscribe(r.subject, r.handle)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", r.subject, err)
	}
	r.sub = sub
	r.hub.SetForwarder(r)
	return nil
}

// Close detaches the relay from the hub and drops the subscription.
func (r *NATSRelay) Close() {
	r.hub.SetForwarder(nil)
	r.mu.Lock()
	sub := r.sub
	r.sub = nil
	r.mu.Unlock()
	if sub != nil {
		_ = sub.Unsubscribe()
	}
}

// Forward publishes a local event to NATS.
func (r *NATSRelay) Forward(event Event) {
	payload, err := json.Marshal(relayMessage{
		Type:        string(event.Type),
		Origin:      event.Origin,
		OccurredAt:  event.OccurredAt,
		Reservation: wire.FromReservation(event.Reservation),
	})
	if err != nil {
		log.Printf("nats relay marshal failed reservation_id=%s err=%v", event.Reservation.ID, err)
		return
	}
	if err := r.conn.Publish(r.subject, payload); err != nil {
		log.Printf("nats relay publish failed reservation_id=%s err=%v", event.Reservation.ID, err)
	}
}

func (r *NATSRelay) handle(msg *nats.Msg) {
	if msg == nil {
		return
	}
	var decoded relayMessage
	if err := json.Unmarshal(msg.Data, &decoded); err != nil {
		log.Printf("nats relay dropped malformed message err=%v", err)
		return
	}
	if decoded.Origin == "" || decoded.Origin == r.hub.Origin() {
		return
	}
	eventType := domain.EventType(decoded.Type)
	if eventType != domain.EventCreated && eventType != domain.EventUpdated {
		log.Printf("nats relay dropped unknown event type=%q", decoded.Type)
		return
	}
	r.hub.Deliver(Event{
		Type:        eventType,
		Reservation: decoded.Reservation.ToReservation(),
		OccurredAt:  decoded.OccurredAt.UTC(),
		Origin:      decoded.Origin,
	})
}
