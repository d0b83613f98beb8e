package domain

import "strings"

const (
	// TopicReservationSubmitted tells admins a request waits for a decision.
	TopicReservationSubmitted = "reservation.submitted"
	// TopicReservationAccepted tells the requester the room is booked.
	TopicReservationAccepted = "reservation.accepted"
	// TopicReservationDeclined tells the requester the request was declined.
	TopicReservationDeclined = "reservation.declined"
)

// DeliveryPolicy defines the effective channels for one topic.
type DeliveryPolicy struct {
	InApp bool
	Email bool
}

// NormalizeTopic normalizes a producer-provided topic token.
func NormalizeTopic(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ResolveDeliveryPolicy returns the effective channel policy for one topic.
func ResolveDeliveryPolicy(topic string) DeliveryPolicy {
	switch NormalizeTopic(topic) {
	case TopicReservationSubmitted, TopicReservationAccepted, TopicReservationDeclined:
		return DeliveryPolicy{InApp: true, Email: true}
	default:
		return DeliveryPolicy{InApp: true, Email: false}
	}
}
