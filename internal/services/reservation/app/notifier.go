// Package app composes reservation use-cases with their collaborators.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/roomdesk/roomdesk/internal/services/auth/user"
	notificationsdomain "github.com/roomdesk/roomdesk/internal/services/notifications/domain"
	"github.com/roomdesk/roomdesk/internal/services/notifications/render"
	"github.com/roomdesk/roomdesk/internal/services/reservation/domain"
)

const notificationSource = "reservation"

// Intents creates notification intents.
type Intents interface {
	CreateIntent(ctx context.Context, input notificationsdomain.CreateIntentInput) (notificationsdomain.Notification, error)
}

// Directory resolves notification recipients.
type Directory interface {
	GetUser(ctx context.Context, userID string) (user.User, error)
	ListAdmins(ctx context.Context) ([]user.User, error)
}

// Rooms resolves room display names.
type Rooms interface {
	GetRoom(ctx context.Context, roomID string) (domain.Room, error)
}

// Notifier turns reservation changes into notification intents.
type Notifier struct {
	intents   Intents
	directory Directory
	rooms     Rooms
}

// NewNotifier builds a reservation notifier.
func NewNotifier(intents Intents, directory Directory, rooms Rooms) *Notifier {
	return &Notifier{intents: intents, directory: directory, rooms: rooms}
}

// ReservationSubmitted notifies every admin about a new pending request.
func (n *Notifier) ReservationSubmitted(ctx context.Context, reservation domain.Reservation) error {
	if n == nil || n.intents == nil || n.directory == nil {
		return nil
	}
	admins, err := n.directory.ListAdmins(ctx)
	if err != nil {
		return fmt.Errorf("list admins: %w", err)
	}
	if len(admins) == 0 {
		return nil
	}
	payload, err := n.payload(ctx, reservation)
	if err != nil {
		return err
	}

	dedupeKey := "reservation:" + reservation.ID + ":submitted"
	var errs []error
	for _, admin := range admins {
		if _, err := n.intents.CreateIntent(ctx, notificationsdomain.CreateIntentInput{
			RecipientUserID: admin.ID,
			RecipientEmail:  admin.Email,
			Locale:          string(admin.Locale),
			Topic:           notificationsdomain.TopicReservationSubmitted,
			PayloadJSON:     payload,
			DedupeKey:       dedupeKey,
			Source:          notificationSource,
		}); err != nil {
			errs = append(errs, fmt.Errorf("notify admin %s: %w", admin.ID, err))
		}
	}
	return errors.Join(errs...)
}

// ReservationDecided notifies the requester about an accept or decline.
func (n *Notifier) ReservationDecided(ctx context.Context, reservation domain.Reservation) error {
	if n == nil || n.intents == nil {
		return nil
	}
	var topic string
	switch reservation.Status {
	case domain.StatusAccepted:
		topic = notificationsdomain.TopicReservationAccepted
	case domain.StatusDeclined:
		topic = notificationsdomain.TopicReservationDeclined
	default:
		return fmt.Errorf("reservation %s is not decided", reservation.ID)
	}

	email := reservation.RequesterEmail
	locale := ""
	if n.directory != nil {
		requester, err := n.directory.GetUser(ctx, reservation.RequesterUserID)
		if err != nil {
			return fmt.Errorf("get requester: %w", err)
		}
		if strings.TrimSpace(requester.Email) != "" {
			email = requester.Email
		}
		locale = string(requester.Locale)
	}
	payload, err := n.payload(ctx, reservation)
	if err != nil {
		return err
	}

	_, err = n.intents.CreateIntent(ctx, notificationsdomain.CreateIntentInput{
		RecipientUserID: reservation.RequesterUserID,
		RecipientEmail:  email,
		Locale:          locale,
		Topic:           topic,
		PayloadJSON:     payload,
		DedupeKey:       "reservation:" + reservation.ID + ":" + strings.ToLower(string(reservation.Status)),
		Source:          notificationSource,
	})
	return err
}

func (n *Notifier) payload(ctx context.Context, reservation domain.Reservation) (string, error) {
	roomName := reservation.RoomID
	if n.rooms != nil {
		room, err := n.rooms.GetRoom(ctx, reservation.RoomID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("get room: %w", err)
		}
		if err == nil && room.Name != "" {
			roomName = room.Name
		}
	}
	data, err := json.Marshal(render.ReservationPayload{
		ReservationID: reservation.ID,
		Title:         reservation.Title,
		RoomName:      roomName,
		RequesterName: reservation.RequesterName,
		StartTime:     reservation.StartsAt.UTC(),
		EndTime:       reservation.EndsAt.UTC(),
		Note:          reservation.DecisionNote,
	})
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return string(data), nil
}
