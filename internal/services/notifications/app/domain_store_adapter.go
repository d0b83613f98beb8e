// Package app composes the notifications domain over its SQLite storage.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/roomdesk/roomdesk/internal/services/notifications/domain"
	"github.com/roomdesk/roomdesk/internal/services/notifications/storage"
)

// NewDomainStore adapts storage records to the domain Store. When
// emailDeliveryEnabled is false, email deliveries are recorded as skipped.
func NewDomainStore(notificationStore storage.NotificationStore, emailDeliveryEnabled bool) domain.Store {
	return newDomainStoreAdapter(notificationStore, emailDeliveryEnabled)
}

type domainStoreAdapter struct {
	notificationStore    storage.NotificationStore
	emailDeliveryEnabled bool
}

func newDomainStoreAdapter(notificationStore storage.NotificationStore, emailDeliveryEnabled bool) *domainStoreAdapter {
	return &domainStoreAdapter{
		notificationStore:    notificationStore,
		emailDeliveryEnabled: emailDeliveryEnabled,
	}
}

func (a *domainStoreAdapter) GetNotificationByRecipientAndDedupeKey(ctx context.Context, recipientUserID string, dedupeKey string) (domain.Notification, error) {
	if a == nil || a.notificationStore == nil {
		return domain.Notification{}, domain.ErrStoreNotConfigured
	}
	record, err := a.notificationStore.GetNotificationByRecipientAndDedupeKey(ctx, recipientUserID, dedupeKey)
	if err != nil {
		return domain.Notification{}, mapStorageError(err)
	}
	return toDomainNotification(record), nil
}

func (a *domainStoreAdapter) PutNotification(ctx context.Context, notification domain.Notification) error {
	if a == nil || a.notificationStore == nil {
		return domain.ErrStoreNotConfigured
	}
	baseTime := notification.CreatedAt.UTC()
	if baseTime.IsZero() {
		baseTime = time.Now().UTC()
	}

	policy := domain.ResolveDeliveryPolicy(notification.Topic)
	deliveries := make([]storage.DeliveryRecord, 0, 2)
	if policy.InApp {
		deliveries = append(deliveries, storage.DeliveryRecord{
			NotificationID: notification.ID,
			Channel:        storage.DeliveryChannelInApp,
			Status:         storage.DeliveryStatusDelivered,
			AttemptCount:   1,
			NextAttemptAt:  baseTime,
			CreatedAt:      baseTime,
			UpdatedAt:      baseTime,
			DeliveredAt:    &baseTime,
		})
	}
	if policy.Email {
		status := storage.DeliveryStatusPending
		lastError := ""
		switch {
		case !a.emailDeliveryEnabled:
			status = storage.DeliveryStatusSkipped
			lastError = "email delivery disabled"
		case notification.RecipientEmail == "":
			status = storage.DeliveryStatusSkipped
			lastError = "recipient has no email address"
		}
		deliveries = append(deliveries, storage.DeliveryRecord{
			NotificationID: notification.ID,
			Channel:        storage.DeliveryChannelEmail,
			Status:         status,
			NextAttemptAt:  baseTime,
			LastError:      lastError,
			CreatedAt:      baseTime,
			UpdatedAt:      baseTime,
		})
	}

	return mapStorageError(a.notificationStore.PutNotificationWithDeliveries(ctx, toStorageNotification(notification), deliveries))
}

func (a *domainStoreAdapter) ListNotificationsByRecipient(ctx context.Context, recipientUserID string, pageSize int, pageToken string) (domain.NotificationPage, error) {
	if a == nil || a.notificationStore == nil {
		return domain.NotificationPage{}, domain.ErrStoreNotConfigured
	}
	page, err := a.notificationStore.ListNotificationsByRecipient(ctx, recipientUserID, pageSize, pageToken)
	if err != nil {
		return domain.NotificationPage{}, mapStorageError(err)
	}
	result := domain.NotificationPage{
		Notifications: make([]domain.Notification, 0, len(page.Notifications)),
		NextPageToken: page.NextPageToken,
	}
	for _, record := range page.Notifications {
		result.Notifications = append(result.Notifications, toDomainNotification(record))
	}
	return result, nil
}

func (a *domainStoreAdapter) CountUnreadNotificationsByRecipient(ctx context.Context, recipientUserID string) (int, error) {
	if a == nil || a.notificationStore == nil {
		return 0, domain.ErrStoreNotConfigured
	}
	unread, err := a.notificationStore.CountUnreadNotificationsByRecipient(ctx, recipientUserID)
	if err != nil {
		return 0, mapStorageError(err)
	}
	return unread, nil
}

func (a *domainStoreAdapter) MarkNotificationRead(ctx context.Context, recipientUserID string, notificationID string, readAt time.Time) (domain.Notification, error) {
	if a == nil || a.notificationStore == nil {
		return domain.Notification{}, domain.ErrStoreNotConfigured
	}
	record, err := a.notificationStore.MarkNotificationRead(ctx, recipientUserID, notificationID, readAt)
	if err != nil {
		return domain.Notification{}, mapStorageError(err)
	}
	return toDomainNotification(record), nil
}

func toStorageNotification(notification domain.Notification) storage.NotificationRecord {
	return storage.NotificationRecord{
		ID:              notification.ID,
		RecipientUserID: notification.RecipientUserID,
		RecipientEmail:  notification.RecipientEmail,
		Locale:          notification.Locale,
		Topic:           notification.Topic,
		PayloadJSON:     notification.PayloadJSON,
		DedupeKey:       notification.DedupeKey,
		Source:          notification.Source,
		CreatedAt:       notification.CreatedAt,
		UpdatedAt:       notification.UpdatedAt,
		ReadAt:          notification.ReadAt,
	}
}

func toDomainNotification(record storage.NotificationRecord) domain.Notification {
	return domain.Notification{
		ID:              record.ID,
		RecipientUserID: record.RecipientUserID,
		RecipientEmail:  record.RecipientEmail,
		Locale:          record.Locale,
		Topic:           record.Topic,
		PayloadJSON:     record.PayloadJSON,
		DedupeKey:       record.DedupeKey,
		Source:          record.Source,
		CreatedAt:       record.CreatedAt,
		UpdatedAt:       record.UpdatedAt,
		ReadAt:          record.ReadAt,
	}
}

func mapStorageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return domain.ErrNotFound
	case errors.Is(err, storage.ErrConflict):
		return domain.ErrConflict
	default:
		return err
	}
}
