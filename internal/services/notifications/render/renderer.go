// Package render turns stored notifications into localized copy.
package render

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/roomdesk/roomdesk/internal/platform/errors/i18n"
	"golang.org/x/text/message"
)

const (
	// TopicReservationSubmitted is the admin-facing new request template id.
	TopicReservationSubmitted = "reservation.submitted"
	// TopicReservationAccepted is the requester-facing acceptance template id.
	TopicReservationAccepted = "reservation.accepted"
	// TopicReservationDeclined is the requester-facing decline template id.
	TopicReservationDeclined = "reservation.declined"

	defaultGenericTitle        = "Notification"
	defaultGenericBody         = "You have a new notification."
	defaultGenericEmailSubject = "Roomdesk notification"

	timeLayout = "2006-01-02 15:04 MST"
)

// Channel identifies where one notification artifact is rendered.
type Channel string

const (
	// ChannelInApp renders copy for the inbox.
	ChannelInApp Channel = "in_app"
	// ChannelEmail renders copy for email delivery.
	ChannelEmail Channel = "email"
)

// Input is one channel render request for a stored notification.
type Input struct {
	Topic       string
	PayloadJSON string
	Channel     Channel
}

// Output is localized, channel-aware copy derived from one notification.
type Output struct {
	Title        string
	BodyText     string
	EmailSubject string
}

// ReservationPayload is the payload producers attach to reservation topics.
type ReservationPayload struct {
	ReservationID string    `json:"reservation_id"`
	Title         string    `json:"title"`
	RoomName      string    `json:"room_name"`
	RequesterName string    `json:"requester_name"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Note          string    `json:"note,omitempty"`
}

// Localizer is the minimal message-printer contract required by the renderer.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// PrinterFor returns a message printer for a stored locale token.
func PrinterFor(locale string) *message.Printer {
	return message.NewPrinter(i18n.MatchLocale(locale))
}

// Render returns localized copy for one notification.
func Render(loc Localizer, input Input) Output {
	topic := normalizeToken(input.Topic)
	switch topic {
	case TopicReservationSubmitted, TopicReservationAccepted, TopicReservationDeclined:
	default:
		return genericOutput(loc)
	}

	var payload ReservationPayload
	if raw := strings.TrimSpace(input.PayloadJSON); raw != "" {
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return genericOutput(loc)
		}
	}
	if payload.StartTime.IsZero() || payload.EndTime.IsZero() {
		return genericOutput(loc)
	}

	prefix := "notification." + strings.ReplaceAll(topic, ".", "_")
	start := payload.StartTime.UTC().Format(timeLayout)
	end := payload.EndTime.UTC().Format(timeLayout)
	room := payload.RoomName
	if strings.TrimSpace(room) == "" {
		room = localizeWithFallback(loc, "notification.room.unknown", "a room")
	}

	titleKey := prefix + ".title"
	subjectKey := prefix + ".email_subject"
	bodyKey := prefix + ".body"
	title := localize(loc, titleKey)
	subject := localize(loc, subjectKey, payload.Title)
	var body string
	if topic == TopicReservationSubmitted {
		body = localize(loc, bodyKey, payload.RequesterName, room, payload.Title, start, end)
	} else {
		body = localize(loc, bodyKey, payload.Title, room, start, end)
	}
	if title == titleKey || body == bodyKey {
		return genericOutput(loc)
	}
	if subject == subjectKey {
		subject = title
	}
	if note := strings.TrimSpace(payload.Note); note != "" && topic != TopicReservationSubmitted {
		body += "\n" + localize(loc, "notification.reservation.note", note)
	}
	if input.Channel == ChannelEmail {
		if footer := localizeWithFallback(loc, "notification.email.footer", ""); footer != "" {
			body += "\n\n" + footer
		}
	}

	return Output{
		Title:        title,
		BodyText:     body,
		EmailSubject: subject,
	}
}

func genericOutput(loc Localizer) Output {
	return Output{
		Title:        localizeWithFallback(loc, "notification.generic.title", defaultGenericTitle),
		BodyText:     localizeWithFallback(loc, "notification.generic.body", defaultGenericBody),
		EmailSubject: localizeWithFallback(loc, "notification.generic.email_subject", defaultGenericEmailSubject),
	}
}

func localize(loc Localizer, key message.Reference, args ...any) string {
	if loc == nil {
		if asString, ok := key.(string); ok {
			return asString
		}
		return ""
	}
	return loc.Sprintf(key, args...)
}

func localizeWithFallback(loc Localizer, key string, fallback string) string {
	value := strings.TrimSpace(localize(loc, key))
	if value == "" || value == key {
		return fallback
	}
	return value
}

func normalizeToken(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
