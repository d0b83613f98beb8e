package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/roomdesk/roomdesk/internal/services/notifications/storage"
)

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), ""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestPutListAndMarkRead(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC)

	putWithInbox(t, store, notification("notif-1", "user-1", "reservation:r1:accepted", now), true)
	putWithInbox(t, store, notification("notif-2", "user-1", "reservation:r2:accepted", now.Add(time.Minute)), true)
	putWithInbox(t, store, notification("notif-3", "user-1", "reservation:r3:declined", now.Add(2*time.Minute)), true)
	putWithInbox(t, store, notification("notif-email-only", "user-1", "reservation:r4:declined", now.Add(3*time.Minute)), false)
	putWithInbox(t, store, notification("notif-other", "user-2", "reservation:r5:accepted", now), true)

	first, err := store.ListNotificationsByRecipient(ctx, "user-1", 2, "")
	if err != nil {
		t.Fatalf("list first page: %v", err)
	}
	if got := ids(first.Notifications); len(got) != 2 || got[0] != "notif-3" || got[1] != "notif-2" {
		t.Fatalf("first page = %v, want [notif-3 notif-2]", got)
	}
	if first.NextPageToken != "notif-2" {
		t.Fatalf("next page token = %q, want notif-2", first.NextPageToken)
	}

	second, err := store.ListNotificationsByRecipient(ctx, "user-1", 2, first.NextPageToken)
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if got := ids(second.Notifications); len(got) != 1 || got[0] != "notif-1" {
		t.Fatalf("second page = %v, want [notif-1]", got)
	}
	if second.NextPageToken != "" {
		t.Fatalf("second page token = %q, want empty", second.NextPageToken)
	}

	unread, err := store.CountUnreadNotificationsByRecipient(ctx, "user-1")
	if err != nil {
		t.Fatalf("count unread: %v", err)
	}
	if unread != 3 {
		t.Fatalf("unread = %d, want 3", unread)
	}

	readAt := now.Add(time.Hour)
	read, err := store.MarkNotificationRead(ctx, "user-1", "notif-2", readAt)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if read.ReadAt == nil || !read.ReadAt.Equal(readAt) {
		t.Fatalf("read at = %v, want %v", read.ReadAt, readAt)
	}
	again, err := store.MarkNotificationRead(ctx, "user-1", "notif-2", readAt.Add(time.Hour))
	if err != nil {
		t.Fatalf("mark read again: %v", err)
	}
	if !again.ReadAt.Equal(readAt) {
		t.Fatalf("read at changed to %v", again.ReadAt)
	}

	unread, err = store.CountUnreadNotificationsByRecipient(ctx, "user-1")
	if err != nil {
		t.Fatalf("count unread: %v", err)
	}
	if unread != 2 {
		t.Fatalf("unread = %d, want 2", unread)
	}

	if _, err := store.MarkNotificationRead(ctx, "user-2", "notif-1", readAt); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("mark other recipient err = %v, want ErrNotFound", err)
	}
	if _, err := store.MarkNotificationRead(ctx, "user-1", "notif-email-only", readAt); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("mark email-only err = %v, want ErrNotFound", err)
	}
}

func TestDedupeKeyConflicts(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC)

	putWithInbox(t, store, notification("notif-1", "user-1", "reservation:r1:accepted", now), true)

	err := store.PutNotificationWithDeliveries(ctx, notification("notif-2", "user-1", "reservation:r1:accepted", now), nil)
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("duplicate dedupe err = %v, want ErrConflict", err)
	}

	// Same key for another recipient is allowed.
	putWithInbox(t, store, notification("notif-3", "user-2", "reservation:r1:accepted", now), true)

	found, err := store.GetNotificationByRecipientAndDedupeKey(ctx, "user-1", "reservation:r1:accepted")
	if err != nil {
		t.Fatalf("get by dedupe key: %v", err)
	}
	if found.ID != "notif-1" || found.RecipientEmail != "user-1@example.com" || found.Locale != "en" {
		t.Fatalf("found = %+v", found)
	}
	if _, err := store.GetNotificationByRecipientAndDedupeKey(ctx, "user-1", "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing dedupe err = %v, want ErrNotFound", err)
	}
}

func TestPutNotificationWithDeliveriesRollsBack(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC)

	record := notification("notif-1", "user-1", "reservation:r1:accepted", now)
	deliveries := []storage.DeliveryRecord{
		emailDelivery("notif-1", now),
		emailDelivery("notif-1", now),
	}
	if err := store.PutNotificationWithDeliveries(ctx, record, deliveries); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("put err = %v, want ErrConflict", err)
	}
	if _, err := store.GetNotificationByRecipientAndDedupeKey(ctx, "user-1", "reservation:r1:accepted"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("notification survived rollback: %v", err)
	}
}

func TestDeliveryQueueRetrySuccessAndFailure(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC)

	for _, id := range []string{"notif-1", "notif-2"} {
		if err := store.PutNotificationWithDeliveries(ctx,
			notification(id, "user-1", "key-"+id, now),
			[]storage.DeliveryRecord{emailDelivery(id, now)},
		); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}

	pending, err := store.ListPendingDeliveries(ctx, storage.DeliveryChannelEmail, 10, now)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}
	if pending[0].Notification.RecipientEmail != "user-1@example.com" || pending[0].Notification.Topic != "reservation.accepted" {
		t.Fatalf("pending notification = %+v", pending[0].Notification)
	}

	retryAt := now.Add(time.Minute)
	if err := store.MarkDeliveryRetry(ctx, "notif-1", storage.DeliveryChannelEmail, 1, retryAt, "smtp timeout"); err != nil {
		t.Fatalf("mark retry: %v", err)
	}
	if err := store.MarkDeliverySucceeded(ctx, "notif-2", storage.DeliveryChannelEmail, 1, now); err != nil {
		t.Fatalf("mark succeeded: %v", err)
	}

	pending, err = store.ListPendingDeliveries(ctx, storage.DeliveryChannelEmail, 10, now)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending before retry time = %d, want 0", len(pending))
	}
	pending, err = store.ListPendingDeliveries(ctx, storage.DeliveryChannelEmail, 10, retryAt)
	if err != nil {
		t.Fatalf("list pending at retry: %v", err)
	}
	if len(pending) != 1 || pending[0].Delivery.AttemptCount != 1 || pending[0].Delivery.LastError != "smtp timeout" {
		t.Fatalf("pending at retry = %+v", pending)
	}

	if err := store.MarkDeliveryFailed(ctx, "notif-1", storage.DeliveryChannelEmail, 2, retryAt, "mailbox unavailable"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	failed, err := store.GetDelivery(ctx, "notif-1", storage.DeliveryChannelEmail)
	if err != nil {
		t.Fatalf("get delivery: %v", err)
	}
	if failed.Status != storage.DeliveryStatusFailed || failed.AttemptCount != 2 {
		t.Fatalf("failed delivery = %+v", failed)
	}
	delivered, err := store.GetDelivery(ctx, "notif-2", storage.DeliveryChannelEmail)
	if err != nil {
		t.Fatalf("get delivery: %v", err)
	}
	if delivered.Status != storage.DeliveryStatusDelivered || delivered.DeliveredAt == nil {
		t.Fatalf("delivered = %+v", delivered)
	}

	if err := store.MarkDeliverySucceeded(ctx, "missing", storage.DeliveryChannelEmail, 1, now); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("mark missing err = %v, want ErrNotFound", err)
	}
}

func notification(id, recipient, dedupeKey string, createdAt time.Time) storage.NotificationRecord {
	return storage.NotificationRecord{
		ID:              id,
		RecipientUserID: recipient,
		RecipientEmail:  recipient + "@example.com",
		Locale:          "en",
		Topic:           "reservation.accepted",
		PayloadJSON:     `{"reservation_id":"r1"}`,
		DedupeKey:       dedupeKey,
		Source:          "reservation",
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
}

func emailDelivery(notificationID string, at time.Time) storage.DeliveryRecord {
	return storage.DeliveryRecord{
		NotificationID: notificationID,
		Channel:        storage.DeliveryChannelEmail,
		Status:         storage.DeliveryStatusPending,
		NextAttemptAt:  at,
		CreatedAt:      at,
		UpdatedAt:      at,
	}
}

func putWithInbox(t *testing.T, store *Store, record storage.NotificationRecord, inApp bool) {
	t.Helper()
	deliveries := []storage.DeliveryRecord{emailDelivery(record.ID, record.CreatedAt)}
	if inApp {
		at := record.CreatedAt
		deliveries = append(deliveries, storage.DeliveryRecord{
			NotificationID: record.ID,
			Channel:        storage.DeliveryChannelInApp,
			Status:         storage.DeliveryStatusDelivered,
			AttemptCount:   1,
			CreatedAt:      at,
			DeliveredAt:    &at,
		})
	}
	if err := store.PutNotificationWithDeliveries(context.Background(), record, deliveries); err != nil {
		t.Fatalf("put notification %s: %v", record.ID, err)
	}
}

func ids(records []storage.NotificationRecord) []string {
	out := make([]string, 0, len(records))
	for _, record := range records {
		out = append(out, record.ID)
	}
	return out
}

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "notifications.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}
