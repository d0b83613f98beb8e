// Package domain holds the room reservation lifecycle: submission, review,
// listing and the room catalog.
package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Status is the review state of a reservation.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusDeclined Status = "DECLINED"
)

// ParseStatus parses a status token case-insensitively.
func ParseStatus(raw string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(raw))) {
	case StatusPending:
		return StatusPending, nil
	case StatusAccepted:
		return StatusAccepted, nil
	case StatusDeclined:
		return StatusDeclined, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Decided reports whether the status is terminal.
func (s Status) Decided() bool {
	return s == StatusAccepted || s == StatusDeclined
}

const (
	MaxTitleLength    = 120
	MaxPurposeLength  = 2000
	MaxNoteLength     = 500
	MaxDuration       = 12 * time.Hour
	MaxCalendarWindow = 62 * 24 * time.Hour
)

// Reservation is one booking request for a room.
type Reservation struct {
	ID              string
	RoomID          string
	RequesterUserID string
	RequesterName   string
	RequesterEmail  string
	Title           string
	Purpose         string
	Attendees       int
	StartsAt        time.Time
	EndsAt          time.Time
	Status          Status
	DecidedByUserID string
	DecisionNote    string
	DecidedAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Overlaps reports whether r intersects the half-open window [from, to).
func (r Reservation) Overlaps(from, to time.Time) bool {
	return r.StartsAt.Before(to) && r.EndsAt.After(from)
}

// Slot keeps only the booked slot of r: ID, room, window and status.
func (r Reservation) Slot() Reservation {
	return Reservation{
		ID:       r.ID,
		RoomID:   r.RoomID,
		StartsAt: r.StartsAt,
		EndsAt:   r.EndsAt,
		Status:   r.Status,
	}
}

// Actor is the caller of a reservation operation.
type Actor struct {
	UserID string
	Name   string
	Email  string
	Admin  bool
}

// CanRead reports whether the actor may see every field of r.
func (a Actor) CanRead(r Reservation) bool {
	return a.Admin || (a.UserID != "" && r.RequesterUserID == a.UserID)
}

// SubmitInput describes a new booking request.
type SubmitInput struct {
	RoomID    string
	Title     string
	Purpose   string
	Attendees int
	StartsAt  time.Time
	EndsAt    time.Time
}

// DecideInput identifies a reservation to accept or decline.
type DecideInput struct {
	ReservationID string
	Note          string
}

// ListInput configures a paginated list view.
type ListInput struct {
	PageSize  int
	PageToken string
	OrderBy   string
	Filter    string
}

// ListQuery is a normalized list request handed to the store.
// RequesterUserID scopes the listing to one user when set.
type ListQuery struct {
	RequesterUserID string
	PageSize        int
	PageToken       string
	OrderBy         string
	Filter          string
}

// Page is one page of a list view.
type Page struct {
	Reservations  []Reservation
	NextPageToken string
	TotalSize     int
}

// CalendarInput selects reservations overlapping [From, To).
type CalendarInput struct {
	RoomID string
	From   time.Time
	To     time.Time
}

// Decision is a compare-and-set transition out of PENDING.
type Decision struct {
	ReservationID   string
	Status          Status
	DecidedByUserID string
	Note            string
	DecidedAt       time.Time
}

func normalizeSubmit(input SubmitInput, room Room, now time.Time) (SubmitInput, error) {
	input.RoomID = strings.TrimSpace(input.RoomID)
	input.Title = strings.TrimSpace(input.Title)
	input.Purpose = strings.TrimSpace(input.Purpose)
	if input.RoomID == "" {
		return SubmitInput{}, ErrRoomRequired
	}
	if input.Title == "" || utf8.RuneCountInString(input.Title) > MaxTitleLength {
		return SubmitInput{}, ErrTitleInvalid
	}
	if utf8.RuneCountInString(input.Purpose) > MaxPurposeLength {
		return SubmitInput{}, ErrPurposeTooLong
	}
	if input.Attendees < 1 {
		return SubmitInput{}, ErrAttendeesInvalid
	}
	if room.Capacity > 0 && input.Attendees > room.Capacity {
		return SubmitInput{}, ErrOverCapacity
	}
	input.StartsAt = input.StartsAt.UTC().Truncate(time.Millisecond)
	input.EndsAt = input.EndsAt.UTC().Truncate(time.Millisecond)
	if input.StartsAt.IsZero() || input.EndsAt.IsZero() || !input.StartsAt.Before(input.EndsAt) {
		return SubmitInput{}, ErrTimeRangeInvalid
	}
	if input.EndsAt.Sub(input.StartsAt) > MaxDuration {
		return SubmitInput{}, ErrTooLong
	}
	if input.StartsAt.Before(now) {
		return SubmitInput{}, ErrInPast
	}
	return input, nil
}

func normalizeNote(note string) (string, error) {
	note = strings.TrimSpace(note)
	if utf8.RuneCountInString(note) > MaxNoteLength {
		return "", ErrNoteTooLong
	}
	return note, nil
}
