// Package storage defines notification persistence records and contracts.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested notification or delivery record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a requested write conflicts with uniqueness constraints.
	ErrConflict = errors.New("record conflict")
)

// DeliveryChannel identifies one notification channel type.
type DeliveryChannel string

const (
	// DeliveryChannelInApp represents the signed-in inbox.
	DeliveryChannelInApp DeliveryChannel = "in_app"
	// DeliveryChannelEmail represents email delivery.
	DeliveryChannelEmail DeliveryChannel = "email"
)

// DeliveryStatus identifies one delivery lifecycle state.
type DeliveryStatus string

const (
	// DeliveryStatusPending means the delivery waits for its next attempt.
	DeliveryStatusPending DeliveryStatus = "pending"
	// DeliveryStatusDelivered means the channel delivery was completed.
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	// DeliveryStatusFailed means attempts were exhausted.
	DeliveryStatusFailed DeliveryStatus = "failed"
	// DeliveryStatusSkipped means the channel was intentionally skipped.
	DeliveryStatusSkipped DeliveryStatus = "skipped"
)

// NotificationRecord stores one user notification.
type NotificationRecord struct {
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

// NotificationPage stores a paged inbox listing result.
type NotificationPage struct {
	Notifications []NotificationRecord
	NextPageToken string
}

// DeliveryRecord stores one channel-delivery attempt state.
type DeliveryRecord struct {
	NotificationID string
	Channel        DeliveryChannel
	Status         DeliveryStatus
	AttemptCount   int
	NextAttemptAt  time.Time
	LastError      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeliveredAt    *time.Time
}

// PendingDelivery pairs a due delivery with its notification.
type PendingDelivery struct {
	Delivery     DeliveryRecord
	Notification NotificationRecord
}

// NotificationStore persists notification inbox state.
type NotificationStore interface {
	PutNotificationWithDeliveries(ctx context.Context, notification NotificationRecord, deliveries []DeliveryRecord) error
	GetNotificationByRecipientAndDedupeKey(ctx context.Context, recipientUserID string, dedupeKey string) (NotificationRecord, error)
	ListNotificationsByRecipient(ctx context.Context, recipientUserID string, pageSize int, pageToken string) (NotificationPage, error)
	CountUnreadNotificationsByRecipient(ctx context.Context, recipientUserID string) (int, error)
	MarkNotificationRead(ctx context.Context, recipientUserID string, notificationID string, readAt time.Time) (NotificationRecord, error)
}

// DeliveryStore persists channel delivery attempt state.
type DeliveryStore interface {
	ListPendingDeliveries(ctx context.Context, channel DeliveryChannel, limit int, now time.Time) ([]PendingDelivery, error)
	MarkDeliveryRetry(ctx context.Context, notificationID string, channel DeliveryChannel, attemptCount int, nextAttemptAt time.Time, lastError string) error
	MarkDeliverySucceeded(ctx context.Context, notificationID string, channel DeliveryChannel, attemptCount int, deliveredAt time.Time) error
	MarkDeliveryFailed(ctx context.Context, notificationID string, channel DeliveryChannel, attemptCount int, failedAt time.Time, lastError string) error
}
