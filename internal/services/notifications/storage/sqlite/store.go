// Package sqlite persists notifications and their channel deliveries in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roomdesk/roomdesk/internal/platform/storage/sqlitedb"
	"github.com/roomdesk/roomdesk/internal/services/notifications/storage"
	"github.com/roomdesk/roomdesk/internal/services/notifications/storage/sqlite/migrations"
)

const notificationColumns = `id, recipient_user_id, recipient_email, locale, topic, payload_json, dedupe_key, source, created_at, updated_at, read_at`

// Store provides SQLite-backed persistence for notifications state.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a notifications SQLite store at the provided path.
func Open(ctx context.Context, path string) (*Store, error) {
	sqlDB, err := sqlitedb.Open(ctx, path, migrations.FS)
	if err != nil {
		return nil, fmt.Errorf("open notifications store: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// PutNotificationWithDeliveries atomically persists one notification with initial deliveries.
func (s *Store) PutNotificationWithDeliveries(ctx context.Context, notification storage.NotificationRecord, deliveries []storage.DeliveryRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	normalizedNotification, err := normalizeNotificationRecord(notification)
	if err != nil {
		return err
	}
	normalizedDeliveries := make([]storage.DeliveryRecord, 0, len(deliveries))
	for _, delivery := range deliveries {
		normalizedDelivery, normalizeErr := normalizeDeliveryRecord(delivery)
		if normalizeErr != nil {
			return normalizeErr
		}
		normalizedDeliveries = append(normalizedDeliveries, normalizedDelivery)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin notification write: %w", err)
	}
	rollbackWith := func(cause error) error {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w: rollback notification write: %v", cause, rollbackErr)
		}
		return cause
	}

	if err := putNotificationExec(ctx, tx, normalizedNotification); err != nil {
		return rollbackWith(err)
	}
	for _, delivery := range normalizedDeliveries {
		if err := putDeliveryExec(ctx, tx, delivery); err != nil {
			return rollbackWith(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit notification write: %w", err)
	}
	return nil
}

// GetNotificationByRecipientAndDedupeKey loads one recipient notification by dedupe key.
func (s *Store) GetNotificationByRecipientAndDedupeKey(ctx context.Context, recipientUserID string, dedupeKey string) (storage.NotificationRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.NotificationRecord{}, err
	}
	recipientUserID = strings.TrimSpace(recipientUserID)
	dedupeKey = strings.TrimSpace(dedupeKey)
	if recipientUserID == "" {
		return storage.NotificationRecord{}, fmt.Errorf("recipient user id is required")
	}
	if dedupeKey == "" {
		return storage.NotificationRecord{}, storage.ErrNotFound
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+notificationColumns+`
FROM notifications
WHERE recipient_user_id = ? AND dedupe_key = ?
`, recipientUserID, dedupeKey)
	record, err := scanNotification(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.NotificationRecord{}, storage.ErrNotFound
		}
		return storage.NotificationRecord{}, fmt.Errorf("get notification by dedupe key: %w", err)
	}
	return record, nil
}

// ListNotificationsByRecipient lists one recipient inbox newest-first. The
// page token is the ID of the last notification on the previous page.
func (s *Store) ListNotificationsByRecipient(ctx context.Context, recipientUserID string, pageSize int, pageToken string) (storage.NotificationPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.NotificationPage{}, err
	}
	recipientUserID = strings.TrimSpace(recipientUserID)
	pageToken = strings.TrimSpace(pageToken)
	if recipientUserID == "" {
		return storage.NotificationPage{}, fmt.Errorf("recipient user id is required")
	}
	if pageSize <= 0 {
		return storage.NotificationPage{}, fmt.Errorf("page size must be greater than zero")
	}

	limit := pageSize + 1
	if pageToken == "" {
		rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+prefixed("n", notificationColumns)+`
FROM notifications n
JOIN notification_deliveries d ON d.notification_id = n.id
WHERE n.recipient_user_id = ?
  AND d.channel = ?
  AND d.status = ?
ORDER BY n.created_at DESC, n.id DESC
LIMIT ?
`, recipientUserID, storage.DeliveryChannelInApp, storage.DeliveryStatusDelivered, limit)
		if err != nil {
			return storage.NotificationPage{}, fmt.Errorf("list notifications: %w", err)
		}
		defer rows.Close()
		return collectNotificationPage(rows, pageSize)
	}

	cursor, err := s.notificationCreatedAtByID(ctx, recipientUserID, pageToken)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.NotificationPage{}, nil
		}
		return storage.NotificationPage{}, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+prefixed("n", notificationColumns)+`
FROM notifications n
JOIN notification_deliveries d ON d.notification_id = n.id
WHERE n.recipient_user_id = ?
  AND d.channel = ?
  AND d.status = ?
  AND (n.created_at < ? OR (n.created_at = ? AND n.id < ?))
ORDER BY n.created_at DESC, n.id DESC
LIMIT ?
`, recipientUserID, storage.DeliveryChannelInApp, storage.DeliveryStatusDelivered, sqlitedb.ToMillis(cursor), sqlitedb.ToMillis(cursor), pageToken, limit)
	if err != nil {
		return storage.NotificationPage{}, fmt.Errorf("list notifications with token: %w", err)
	}
	defer rows.Close()
	return collectNotificationPage(rows, pageSize)
}

// CountUnreadNotificationsByRecipient returns unread inbox count for one recipient.
func (s *Store) CountUnreadNotificationsByRecipient(ctx context.Context, recipientUserID string) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	recipientUserID = strings.TrimSpace(recipientUserID)
	if recipientUserID == "" {
		return 0, fmt.Errorf("recipient user id is required")
	}

	var unread int
	if err := s.sqlDB.QueryRowContext(ctx, `
SELECT COUNT(1)
FROM notifications n
JOIN notification_deliveries d ON d.notification_id = n.id
WHERE n.recipient_user_id = ?
  AND n.read_at IS NULL
  AND d.channel = ?
  AND d.status = ?
`, recipientUserID, storage.DeliveryChannelInApp, storage.DeliveryStatusDelivered).Scan(&unread); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return unread, nil
}

// MarkNotificationRead marks one inbox notification as read for a recipient.
// Marking an already read notification keeps the first read time.
func (s *Store) MarkNotificationRead(ctx context.Context, recipientUserID string, notificationID string, readAt time.Time) (storage.NotificationRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.NotificationRecord{}, err
	}
	recipientUserID = strings.TrimSpace(recipientUserID)
	notificationID = strings.TrimSpace(notificationID)
	if recipientUserID == "" {
		return storage.NotificationRecord{}, fmt.Errorf("recipient user id is required")
	}
	if notificationID == "" {
		return storage.NotificationRecord{}, fmt.Errorf("notification id is required")
	}

	now := sqlitedb.ToMillis(readAt)
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE notifications
SET read_at = COALESCE(read_at, ?), updated_at = ?
WHERE recipient_user_id = ?
  AND id = ?
  AND EXISTS (
    SELECT 1
    FROM notification_deliveries d
    WHERE d.notification_id = notifications.id
      AND d.channel = ?
      AND d.status = ?
  )
`, now, now, recipientUserID, notificationID, storage.DeliveryChannelInApp, storage.DeliveryStatusDelivered)
	if err != nil {
		return storage.NotificationRecord{}, fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return storage.NotificationRecord{}, fmt.Errorf("mark notification read rows affected: %w", err)
	}
	if affected == 0 {
		return storage.NotificationRecord{}, storage.ErrNotFound
	}
	return s.getNotificationByRecipientAndID(ctx, recipientUserID, notificationID)
}

// ListPendingDeliveries lists due channel deliveries ordered by next-attempt time.
func (s *Store) ListPendingDeliveries(ctx context.Context, channel storage.DeliveryChannel, limit int, now time.Time) ([]storage.PendingDelivery, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	channel = storage.DeliveryChannel(strings.TrimSpace(string(channel)))
	if channel == "" {
		return nil, fmt.Errorf("delivery channel is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	if now.IsZero() {
		return nil, fmt.Errorf("now is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT d.notification_id, d.channel, d.status, d.attempt_count, d.next_attempt_at, d.last_error,
       d.created_at, d.updated_at, d.delivered_at, `+prefixed("n", notificationColumns)+`
FROM notification_deliveries d
JOIN notifications n ON n.id = d.notification_id
WHERE d.channel = ?
  AND d.status = ?
  AND d.next_attempt_at <= ?
ORDER BY d.next_attempt_at ASC, d.notification_id ASC
LIMIT ?
`, channel, storage.DeliveryStatusPending, sqlitedb.ToMillis(now), limit)
	if err != nil {
		return nil, fmt.Errorf("list pending deliveries: %w", err)
	}
	defer rows.Close()

	results := make([]storage.PendingDelivery, 0, limit)
	for rows.Next() {
		var (
			delivery     storage.DeliveryRecord
			notification storage.NotificationRecord
			channelRaw   string
			statusRaw    string
			nextAttempt  int64
			created      int64
			updated      int64
			delivered    sql.NullInt64
			nCreated     int64
			nUpdated     int64
			nRead        sql.NullInt64
		)
		if err := rows.Scan(
			&delivery.NotificationID, &channelRaw, &statusRaw, &delivery.AttemptCount, &nextAttempt, &delivery.LastError,
			&created, &updated, &delivered,
			&notification.ID, &notification.RecipientUserID, &notification.RecipientEmail, &notification.Locale,
			&notification.Topic, &notification.PayloadJSON, &notification.DedupeKey, &notification.Source,
			&nCreated, &nUpdated, &nRead,
		); err != nil {
			return nil, fmt.Errorf("scan pending delivery row: %w", err)
		}
		delivery.Channel = storage.DeliveryChannel(channelRaw)
		delivery.Status = storage.DeliveryStatus(statusRaw)
		delivery.NextAttemptAt = sqlitedb.FromMillis(nextAttempt)
		delivery.CreatedAt = sqlitedb.FromMillis(created)
		delivery.UpdatedAt = sqlitedb.FromMillis(updated)
		delivery.DeliveredAt = sqlitedb.TimeFromNull(delivered)
		notification.CreatedAt = sqlitedb.FromMillis(nCreated)
		notification.UpdatedAt = sqlitedb.FromMillis(nUpdated)
		notification.ReadAt = sqlitedb.TimeFromNull(nRead)
		results = append(results, storage.PendingDelivery{Delivery: delivery, Notification: notification})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending delivery rows: %w", err)
	}
	return results, nil
}

// MarkDeliveryRetry records one failed attempt and schedules the next one.
func (s *Store) MarkDeliveryRetry(ctx context.Context, notificationID string, channel storage.DeliveryChannel, attemptCount int, nextAttemptAt time.Time, lastError string) error {
	if nextAttemptAt.IsZero() {
		return fmt.Errorf("next attempt at is required")
	}
	return s.updateDelivery(ctx, "mark delivery retry", `
UPDATE notification_deliveries
SET status = ?, attempt_count = ?, next_attempt_at = ?, last_error = ?, updated_at = ?, delivered_at = NULL
WHERE notification_id = ? AND channel = ?
`, storage.DeliveryStatusPending, attemptCount, sqlitedb.ToMillis(nextAttemptAt), strings.TrimSpace(lastError), sqlitedb.ToMillis(time.Now()),
		strings.TrimSpace(notificationID), channel)
}

// MarkDeliverySucceeded records successful channel delivery.
func (s *Store) MarkDeliverySucceeded(ctx context.Context, notificationID string, channel storage.DeliveryChannel, attemptCount int, deliveredAt time.Time) error {
	if deliveredAt.IsZero() {
		return fmt.Errorf("delivered at is required")
	}
	now := sqlitedb.ToMillis(deliveredAt)
	return s.updateDelivery(ctx, "mark delivery succeeded", `
UPDATE notification_deliveries
SET status = ?, attempt_count = ?, updated_at = ?, delivered_at = ?, last_error = ''
WHERE notification_id = ? AND channel = ?
`, storage.DeliveryStatusDelivered, attemptCount, now, now, strings.TrimSpace(notificationID), channel)
}

// MarkDeliveryFailed records the final failed attempt.
func (s *Store) MarkDeliveryFailed(ctx context.Context, notificationID string, channel storage.DeliveryChannel, attemptCount int, failedAt time.Time, lastError string) error {
	if failedAt.IsZero() {
		return fmt.Errorf("failed at is required")
	}
	return s.updateDelivery(ctx, "mark delivery failed", `
UPDATE notification_deliveries
SET status = ?, attempt_count = ?, last_error = ?, updated_at = ?, delivered_at = NULL
WHERE notification_id = ? AND channel = ?
`, storage.DeliveryStatusFailed, attemptCount, strings.TrimSpace(lastError), sqlitedb.ToMillis(failedAt),
		strings.TrimSpace(notificationID), channel)
}

// GetDelivery loads one delivery row.
func (s *Store) GetDelivery(ctx context.Context, notificationID string, channel storage.DeliveryChannel) (storage.DeliveryRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.DeliveryRecord{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT notification_id, channel, status, attempt_count, next_attempt_at, last_error, created_at, updated_at, delivered_at
FROM notification_deliveries
WHERE notification_id = ? AND channel = ?
`, strings.TrimSpace(notificationID), channel)
	record, err := scanDelivery(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.DeliveryRecord{}, storage.ErrNotFound
		}
		return storage.DeliveryRecord{}, fmt.Errorf("get delivery: %w", err)
	}
	return record, nil
}

func (s *Store) updateDelivery(ctx context.Context, op string, query string, args ...any) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) notificationCreatedAtByID(ctx context.Context, recipientUserID string, notificationID string) (time.Time, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT created_at
FROM notifications
WHERE recipient_user_id = ? AND id = ?
`, recipientUserID, notificationID)
	var createdAt int64
	if err := row.Scan(&createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, storage.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("lookup notification cursor: %w", err)
	}
	return sqlitedb.FromMillis(createdAt), nil
}

func (s *Store) getNotificationByRecipientAndID(ctx context.Context, recipientUserID string, notificationID string) (storage.NotificationRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+notificationColumns+`
FROM notifications
WHERE recipient_user_id = ? AND id = ?
`, recipientUserID, notificationID)
	record, err := scanNotification(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.NotificationRecord{}, storage.ErrNotFound
		}
		return storage.NotificationRecord{}, fmt.Errorf("get notification by id: %w", err)
	}
	return record, nil
}

type scanner func(dest ...any) error

type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

func normalizeNotificationRecord(record storage.NotificationRecord) (storage.NotificationRecord, error) {
	record.ID = strings.TrimSpace(record.ID)
	record.RecipientUserID = strings.TrimSpace(record.RecipientUserID)
	record.RecipientEmail = strings.TrimSpace(record.RecipientEmail)
	record.Locale = strings.TrimSpace(record.Locale)
	record.Topic = strings.TrimSpace(record.Topic)
	record.DedupeKey = strings.TrimSpace(record.DedupeKey)
	record.Source = strings.TrimSpace(record.Source)
	record.PayloadJSON = strings.TrimSpace(record.PayloadJSON)
	if record.PayloadJSON == "" {
		record.PayloadJSON = "{}"
	}
	if record.ID == "" {
		return storage.NotificationRecord{}, fmt.Errorf("notification id is required")
	}
	if record.RecipientUserID == "" {
		return storage.NotificationRecord{}, fmt.Errorf("recipient user id is required")
	}
	if record.Topic == "" {
		return storage.NotificationRecord{}, fmt.Errorf("topic is required")
	}
	if record.CreatedAt.IsZero() {
		return storage.NotificationRecord{}, fmt.Errorf("created_at is required")
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}
	return record, nil
}

func normalizeDeliveryRecord(record storage.DeliveryRecord) (storage.DeliveryRecord, error) {
	record.NotificationID = strings.TrimSpace(record.NotificationID)
	record.LastError = strings.TrimSpace(record.LastError)
	if record.NotificationID == "" {
		return storage.DeliveryRecord{}, fmt.Errorf("notification id is required")
	}
	switch record.Channel {
	case storage.DeliveryChannelInApp, storage.DeliveryChannelEmail:
	default:
		return storage.DeliveryRecord{}, fmt.Errorf("delivery channel %q is invalid", record.Channel)
	}
	switch record.Status {
	case storage.DeliveryStatusPending, storage.DeliveryStatusDelivered, storage.DeliveryStatusFailed, storage.DeliveryStatusSkipped:
	default:
		return storage.DeliveryRecord{}, fmt.Errorf("delivery status %q is invalid", record.Status)
	}
	if record.AttemptCount < 0 {
		return storage.DeliveryRecord{}, fmt.Errorf("attempt count must be non-negative")
	}
	if record.CreatedAt.IsZero() {
		return storage.DeliveryRecord{}, fmt.Errorf("created_at is required")
	}
	if record.NextAttemptAt.IsZero() {
		record.NextAttemptAt = record.CreatedAt
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}
	return record, nil
}

func putNotificationExec(ctx context.Context, execer sqlExecer, record storage.NotificationRecord) error {
	_, err := execer.ExecContext(ctx, `
INSERT INTO notifications (`+notificationColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		record.ID, record.RecipientUserID, record.RecipientEmail, record.Locale, record.Topic,
		record.PayloadJSON, record.DedupeKey, record.Source,
		sqlitedb.ToMillis(record.CreatedAt), sqlitedb.ToMillis(record.UpdatedAt), sqlitedb.NullMillis(record.ReadAt),
	)
	if sqlitedb.IsUniqueViolation(err) {
		return storage.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("put notification: %w", err)
	}
	return nil
}

func putDeliveryExec(ctx context.Context, execer sqlExecer, record storage.DeliveryRecord) error {
	_, err := execer.ExecContext(ctx, `
INSERT INTO notification_deliveries (
    notification_id, channel, status, attempt_count, next_attempt_at, last_error, created_at, updated_at, delivered_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		record.NotificationID, record.Channel, record.Status, record.AttemptCount,
		sqlitedb.ToMillis(record.NextAttemptAt), record.LastError,
		sqlitedb.ToMillis(record.CreatedAt), sqlitedb.ToMillis(record.UpdatedAt), sqlitedb.NullMillis(record.DeliveredAt),
	)
	if sqlitedb.IsUniqueViolation(err) {
		return storage.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("put delivery: %w", err)
	}
	return nil
}

func collectNotificationPage(rows *sql.Rows, pageSize int) (storage.NotificationPage, error) {
	page := storage.NotificationPage{Notifications: make([]storage.NotificationRecord, 0, pageSize)}
	for rows.Next() {
		record, err := scanNotification(rows.Scan)
		if err != nil {
			return storage.NotificationPage{}, fmt.Errorf("scan notification row: %w", err)
		}
		page.Notifications = append(page.Notifications, record)
	}
	if err := rows.Err(); err != nil {
		return storage.NotificationPage{}, fmt.Errorf("iterate notification rows: %w", err)
	}
	if len(page.Notifications) > pageSize {
		page.Notifications = page.Notifications[:pageSize]
		page.NextPageToken = page.Notifications[pageSize-1].ID
	}
	return page, nil
}

func scanNotification(scan scanner) (storage.NotificationRecord, error) {
	var (
		record    storage.NotificationRecord
		createdAt int64
		updatedAt int64
		readAt    sql.NullInt64
	)
	if err := scan(
		&record.ID, &record.RecipientUserID, &record.RecipientEmail, &record.Locale, &record.Topic,
		&record.PayloadJSON, &record.DedupeKey, &record.Source, &createdAt, &updatedAt, &readAt,
	); err != nil {
		return storage.NotificationRecord{}, err
	}
	record.CreatedAt = sqlitedb.FromMillis(createdAt)
	record.UpdatedAt = sqlitedb.FromMillis(updatedAt)
	record.ReadAt = sqlitedb.TimeFromNull(readAt)
	return record, nil
}

func scanDelivery(scan scanner) (storage.DeliveryRecord, error) {
	var (
		record        storage.DeliveryRecord
		channel       string
		status        string
		nextAttemptAt int64
		createdAt     int64
		updatedAt     int64
		deliveredAt   sql.NullInt64
	)
	if err := scan(
		&record.NotificationID, &channel, &status, &record.AttemptCount, &nextAttemptAt, &record.LastError,
		&createdAt, &updatedAt, &deliveredAt,
	); err != nil {
		return storage.DeliveryRecord{}, err
	}
	record.Channel = storage.DeliveryChannel(channel)
	record.Status = storage.DeliveryStatus(status)
	record.NextAttemptAt = sqlitedb.FromMillis(nextAttemptAt)
	record.CreatedAt = sqlitedb.FromMillis(createdAt)
	record.UpdatedAt = sqlitedb.FromMillis(updatedAt)
	record.DeliveredAt = sqlitedb.TimeFromNull(deliveredAt)
	return record, nil
}
