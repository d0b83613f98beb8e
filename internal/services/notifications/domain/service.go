// Package domain records reservation notifications for each user and serves
// their inbox.
package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/roomdesk/roomdesk/internal/platform/errors"
	"github.com/roomdesk/roomdesk/internal/platform/id"
)

var (
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "notification not found")
	// ErrConflict is returned by a Store when the recipient already holds a
	// notification with the same dedupe key.
	ErrConflict                = apperrors.New(apperrors.CodeNotificationDuplicate, "notification already recorded")
	ErrStoreNotConfigured      = apperrors.New(apperrors.CodeNotificationStoreUnavailable, "notification store is not configured")
	ErrRecipientUserIDRequired = apperrors.New(apperrors.CodeNotificationRecipientRequired, "recipient user id is required")
	ErrTopicRequired           = apperrors.New(apperrors.CodeNotificationTopicRequired, "notification topic is required")
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Notification is one inbox entry about a reservation.
type Notification struct {
	ID              string
	RecipientUserID string
	RecipientEmail  string
	Locale          string
	Topic           string
	PayloadJSON     string
	DedupeKey       string
	Source          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ReadAt          *time.Time
}

// NotificationPage is one page of an inbox, newest first.
type NotificationPage struct {
	Notifications []Notification
	NextPageToken string
}

// CreateIntentInput is what the reservation flow hands over when a booking is
// submitted or decided.
type CreateIntentInput struct {
	RecipientUserID string
	RecipientEmail  string
	Locale          string
	Topic           string
	PayloadJSON     string
	DedupeKey       string
	Source          string
}

type ListInboxInput struct {
	RecipientUserID string
	PageSize        int
	PageToken       string
}

type MarkReadInput struct {
	RecipientUserID string
	NotificationID  string
}

// Store persists notifications. Lookups of a missing row return ErrNotFound
// and duplicate dedupe keys return ErrConflict.
type Store interface {
	GetNotificationByRecipientAndDedupeKey(ctx context.Context, recipientUserID string, dedupeKey string) (Notification, error)
	// PutNotification stores notification together with the deliveries its
	// topic policy calls for.
	PutNotification(ctx context.Context, notification Notification) error
	ListNotificationsByRecipient(ctx context.Context, recipientUserID string, pageSize int, pageToken string) (NotificationPage, error)
	CountUnreadNotificationsByRecipient(ctx context.Context, recipientUserID string) (int, error)
	MarkNotificationRead(ctx context.Context, recipientUserID string, notificationID string, readAt time.Time) (Notification, error)
}

// Service records notifications and serves the inbox.
type Service struct {
	store Store
	clock func() time.Time
	newID func() (string, error)
}

// NewService returns a Service. A nil clock or id generator falls back to the
// wall clock and random ids.
func NewService(store Store, clock func() time.Time, newID func() (string, error)) *Service {
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &Service{
		store: store,
		clock: clock,
		newID: newID,
	}
}

// CreateIntent records a notification. A repeated dedupe key for the same
// recipient returns the notification already stored.
func (s *Service) CreateIntent(ctx context.Context, input CreateIntentInput) (Notification, error) {
	if s == nil || s.store == nil {
		return Notification{}, ErrStoreNotConfigured
	}
	recipientUserID := strings.TrimSpace(input.RecipientUserID)
	if recipientUserID == "" {
		return Notification{}, ErrRecipientUserIDRequired
	}
	topic := NormalizeTopic(input.Topic)
	if topic == "" {
		return Notification{}, ErrTopicRequired
	}
	dedupeKey := strings.TrimSpace(input.DedupeKey)
	if dedupeKey != "" {
		existing, err := s.store.GetNotificationByRecipientAndDedupeKey(ctx, recipientUserID, dedupeKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Notification{}, err
		}
	}

	notificationID, err := s.newID()
	if err != nil {
		return Notification{}, err
	}
	now := s.nowUTC()
	notification := Notification{
		ID:              notificationID,
		RecipientUserID: recipientUserID,
		RecipientEmail:  strings.TrimSpace(input.RecipientEmail),
		Locale:          strings.TrimSpace(input.Locale),
		Topic:           topic,
		PayloadJSON:     strings.TrimSpace(input.PayloadJSON),
		DedupeKey:       dedupeKey,
		Source:          strings.TrimSpace(input.Source),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.PutNotification(ctx, notification); err != nil {
		if dedupeKey != "" && errors.Is(err, ErrConflict) {
			existing, lookupErr := s.store.GetNotificationByRecipientAndDedupeKey(ctx, recipientUserID, dedupeKey)
			if lookupErr == nil {
				return existing, nil
			}
			if errors.Is(lookupErr, ErrNotFound) {
				return Notification{}, err
			}
			return Notification{}, lookupErr
		}
		return Notification{}, err
	}
	return notification, nil
}

// ListInbox pages through a user's notifications, newest first.
func (s *Service) ListInbox(ctx context.Context, input ListInboxInput) (NotificationPage, error) {
	if s == nil || s.store == nil {
		return NotificationPage{}, ErrStoreNotConfigured
	}
	recipientUserID := strings.TrimSpace(input.RecipientUserID)
	if recipientUserID == "" {
		return NotificationPage{}, ErrRecipientUserIDRequired
	}
	pageSize := input.PageSize
	switch {
	case pageSize <= 0:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}
	return s.store.ListNotificationsByRecipient(ctx, recipientUserID, pageSize, strings.TrimSpace(input.PageToken))
}

// UnreadCount counts a user's unread notifications.
func (s *Service) UnreadCount(ctx context.Context, recipientUserID string) (int, error) {
	if s == nil || s.store == nil {
		return 0, ErrStoreNotConfigured
	}
	recipientUserID = strings.TrimSpace(recipientUserID)
	if recipientUserID == "" {
		return 0, ErrRecipientUserIDRequired
	}
	return s.store.CountUnreadNotificationsByRecipient(ctx, recipientUserID)
}

// MarkRead stamps the read time on one of the user's notifications.
func (s *Service) MarkRead(ctx context.Context, input MarkReadInput) (Notification, error) {
	if s == nil || s.store == nil {
		return Notification{}, ErrStoreNotConfigured
	}
	recipientUserID := strings.TrimSpace(input.RecipientUserID)
	if recipientUserID == "" {
		return Notification{}, ErrRecipientUserIDRequired
	}
	notificationID := strings.TrimSpace(input.NotificationID)
	if notificationID == "" {
		return Notification{}, ErrNotFound
	}
	return s.store.MarkNotificationRead(ctx, recipientUserID, notificationID, s.nowUTC())
}

func (s *Service) nowUTC() time.Time {
	return s.clock().UTC().Truncate(time.Millisecond)
}
