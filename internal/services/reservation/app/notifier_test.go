package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/roomdesk/roomdesk/internal/services/auth/user"
	notificationsdomain "github.com/roomdesk/roomdesk/internal/services/notifications/domain"
	"github.com/roomdesk/roomdesk/internal/services/notifications/render"
	"github.com/roomdesk/roomdesk/internal/services/reservation/domain"
)

type fakeIntents struct {
	inputs []notificationsdomain.CreateIntentInput
	failOn string
}

func (f *fakeIntents) CreateIntent(_ context.Context, input notificationsdomain.CreateIntentInput) (notificationsdomain.Notification, error) {
	if input.RecipientUserID == f.failOn {
		return notificationsdomain.Notification{}, errors.New("boom")
	}
	f.inputs = append(f.inputs, input)
	return notificationsdomain.Notification{ID: "n-" + input.RecipientUserID}, nil
}

type fakeDirectory struct {
	users    map[string]user.User
	admins   []user.User
	adminErr error
}

func (f fakeDirectory) GetUser(_ context.Context, userID string) (user.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return user.User{}, errors.New("no user")
	}
	return u, nil
}

func (f fakeDirectory) ListAdmins(context.Context) ([]user.User, error) {
	return f.admins, f.adminErr
}

type fakeRooms map[string]domain.Room

func (f fakeRooms) GetRoom(_ context.Context, roomID string) (domain.Room, error) {
	room, ok := f[roomID]
	if !ok {
		return domain.Room{}, domain.ErrNotFound
	}
	return room, nil
}

func sampleReservation() domain.Reservation {
	start := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	return domain.Reservation{
		ID:              "res-1",
		RoomID:          "room-1",
		RequesterUserID: "user-1",
		RequesterName:   "Ana",
		RequesterEmail:  "ana@example.com",
		Title:           "Planning",
		StartsAt:        start,
		EndsAt:          start.Add(time.Hour),
		Status:          domain.StatusPending,
	}
}

func TestReservationSubmittedNotifiesEveryAdmin(t *testing.T) {
	t.Parallel()

	intents := &fakeIntents{}
	directory := fakeDirectory{admins: []user.User{
		{ID: "admin-1", Email: "a1@example.com", Locale: user.LocaleEN},
		{ID: "admin-2", Email: "a2@example.com", Locale: user.LocalePTBR},
	}}
	notifier := NewNotifier(intents, directory, fakeRooms{"room-1": {ID: "room-1", Name: "Blue Room"}})

	if err := notifier.ReservationSubmitted(context.Background(), sampleReservation()); err != nil {
		t.Fatalf("ReservationSubmitted: %v", err)
	}
	if len(intents.inputs) != 2 {
		t.Fatalf("intents = %d, want 2", len(intents.inputs))
	}
	for i, input := range intents.inputs {
		if input.Topic != notificationsdomain.TopicReservationSubmitted {
			t.Fatalf("topic = %q", input.Topic)
		}
		if input.DedupeKey != "reservation:res-1:submitted" {
			t.Fatalf("dedupe key = %q", input.DedupeKey)
		}
		if input.RecipientUserID != directory.admins[i].ID || input.RecipientEmail != directory.admins[i].Email {
			t.Fatalf("recipient = %q/%q", input.RecipientUserID, input.RecipientEmail)
		}
	}
	if intents.inputs[1].Locale != string(user.LocalePTBR) {
		t.Fatalf("locale = %q", intents.inputs[1].Locale)
	}

	var payload render.ReservationPayload
	if err := json.Unmarshal([]byte(intents.inputs[0].PayloadJSON), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.RoomName != "Blue Room" || payload.RequesterName != "Ana" || payload.ReservationID != "res-1" {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestReservationSubmittedJoinsPerAdminErrors(t *testing.T) {
	t.Parallel()

	intents := &fakeIntents{failOn: "admin-1"}
	directory := fakeDirectory{admins: []user.User{{ID: "admin-1"}, {ID: "admin-2"}}}
	notifier := NewNotifier(intents, directory, fakeRooms{})

	err := notifier.ReservationSubmitted(context.Background(), sampleReservation())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(intents.inputs) != 1 || intents.inputs[0].RecipientUserID != "admin-2" {
		t.Fatalf("remaining admins were not notified: %+v", intents.inputs)
	}
}

func TestReservationSubmittedWithoutAdmins(t *testing.T) {
	t.Parallel()

	intents := &fakeIntents{}
	notifier := NewNotifier(intents, fakeDirectory{}, fakeRooms{})
	if err := notifier.ReservationSubmitted(context.Background(), sampleReservation()); err != nil {
		t.Fatalf("ReservationSubmitted: %v", err)
	}
	if len(intents.inputs) != 0 {
		t.Fatalf("intents = %d, want 0", len(intents.inputs))
	}
}

func TestReservationSubmittedAdminLookupError(t *testing.T) {
	t.Parallel()

	notifier := NewNotifier(&fakeIntents{}, fakeDirectory{adminErr: errors.New("down")}, fakeRooms{})
	if err := notifier.ReservationSubmitted(context.Background(), sampleReservation()); err == nil {
		t.Fatal("expected error")
	}
}

func TestReservationDecidedNotifiesRequester(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status    domain.Status
		wantTopic string
		wantKey   string
	}{
		{domain.StatusAccepted, notificationsdomain.TopicReservationAccepted, "reservation:res-1:accepted"},
		{domain.StatusDeclined, notificationsdomain.TopicReservationDeclined, "reservation:res-1:declined"},
	}
	for _, tc := range tests {
		t.Run(string(tc.status), func(t *testing.T) {
			t.Parallel()

			intents := &fakeIntents{}
			directory := fakeDirectory{users: map[string]user.User{
				"user-1": {ID: "user-1", Email: "ana@new.example.com", Locale: user.LocalePTBR},
			}}
			notifier := NewNotifier(intents, directory, fakeRooms{})

			reservation := sampleReservation()
			reservation.Status = tc.status
			reservation.DecisionNote = "see you there"
			if err := notifier.ReservationDecided(context.Background(), reservation); err != nil {
				t.Fatalf("ReservationDecided: %v", err)
			}
			if len(intents.inputs) != 1 {
				t.Fatalf("intents = %d, want 1", len(intents.inputs))
			}
			input := intents.inputs[0]
			if input.Topic != tc.wantTopic || input.DedupeKey != tc.wantKey {
				t.Fatalf("topic/key = %q/%q", input.Topic, input.DedupeKey)
			}
			if input.RecipientEmail != "ana@new.example.com" || input.Locale != string(user.LocalePTBR) {
				t.Fatalf("recipient = %q/%q", input.RecipientEmail, input.Locale)
			}

			var payload render.ReservationPayload
			if err := json.Unmarshal([]byte(input.PayloadJSON), &payload); err != nil {
				t.Fatalf("decode payload: %v", err)
			}
			if payload.Note != "see you there" || payload.RoomName != "room-1" {
				t.Fatalf("payload = %+v", payload)
			}
		})
	}
}

func TestReservationDecidedRejectsPending(t *testing.T) {
	t.Parallel()

	notifier := NewNotifier(&fakeIntents{}, nil, nil)
	if err := notifier.ReservationDecided(context.Background(), sampleReservation()); err == nil {
		t.Fatal("expected error for pending reservation")
	}
}
