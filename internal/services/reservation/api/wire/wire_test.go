package wire

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/roomdesk/roomdesk/internal/services/reservation/domain"
)

func TestReservationJSONFieldNames(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 5, 1, 14, 0, 0, 0, time.UTC)
	payload, err := json.Marshal(FromReservation(domain.Reservation{
		ID:        "res-1",
		RoomID:    "room-1",
		Title:     "Standup",
		Attendees: 3,
		StartsAt:  start,
		EndsAt:    start.Add(time.Hour),
		Status:    domain.StatusPending,
	}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(payload)
	for _, want := range []string{`"start_time":"2026-05-01T14:00:00Z"`, `"status":"PENDING"`, `"room_id":"room-1"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("payload %s missing %s", body, want)
		}
	}
	if strings.Contains(body, "decide_time") {
		t.Fatalf("pending payload should omit decide_time: %s", body)
	}
}

func TestReservationConversionKeepsDecision(t *testing.T) {
	t.Parallel()

	decided := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	original := domain.Reservation{ID: "res-2", Status: domain.StatusAccepted, DecidedByUserID: "admin", DecidedAt: &decided}
	back := FromReservation(original).ToReservation()
	if back.Status != domain.StatusAccepted || back.DecidedAt == nil || !back.DecidedAt.Equal(decided) {
		t.Fatalf("converted = %+v", back)
	}
}

func TestFromSlicesNeverNil(t *testing.T) {
	t.Parallel()

	if FromReservations(nil) == nil || FromRooms(nil) == nil {
		t.Fatal("expected empty slices")
	}
}
