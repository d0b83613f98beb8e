// Package wire defines the JSON shapes of reservations and rooms shared by
// the HTTP API, the websocket push channel and the NATS relay.
package wire

import (
	"time"

	"github.com/roomdesk/roomdesk/internal/services/reservation/domain"
)

// Reservation is the JSON view of a reservation.
type Reservation struct {
	ID              string     `json:"id"`
	RoomID          string     `json:"room_id"`
	RequesterUserID string     `json:"requester_user_id"`
	RequesterName   string     `json:"requester_name"`
	RequesterEmail  string     `json:"requester_email"`
	Title           string     `json:"title"`
	Purpose         string     `json:"purpose,omitempty"`
	Attendees       int        `json:"attendees"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         time.Time  `json:"end_time"`
	Status          string     `json:"status"`
	DecidedByUserID string     `json:"decided_by_user_id,omitempty"`
	DecisionNote    string     `json:"decision_note,omitempty"`
	DecideTime      *time.Time `json:"decide_time,omitempty"`
	CreateTime      time.Time  `json:"create_time"`
	UpdateTime      time.Time  `json:"update_time"`
}

// FromReservation converts a domain reservation.
func FromReservation(r domain.Reservation) Reservation {
	return Reservation{
		ID:              r.ID,
		RoomID:          r.RoomID,
		RequesterUserID: r.RequesterUserID,
		RequesterName:   r.RequesterName,
		RequesterEmail:  r.RequesterEmail,
		Title:           r.Title,
		Purpose:         r.Purpose,
		Attendees:       r.Attendees,
		StartTime:       r.StartsAt,
		EndTime:         r.EndsAt,
		Status:          string(r.Status),
		DecidedByUserID: r.DecidedByUserID,
		DecisionNote:    r.DecisionNote,
		DecideTime:      r.DecidedAt,
		CreateTime:      r.CreatedAt,
		UpdateTime:      r.UpdatedAt,
	}
}

// FromReservations converts a slice, never returning nil.
func FromReservations(items []domain.Reservation) []Reservation {
	out := make([]Reservation, 0, len(items))
	for _, item := range items {
		out = append(out, FromReservation(item))
	}
	return out
}

// CalendarEntry is the calendar view of a reservation. Entries owned by
// other users carry only the booked slot.
type CalendarEntry struct {
	ID              string    `json:"id"`
	RoomID          string    `json:"room_id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	Status          string    `json:"status"`
	RequesterUserID string    `json:"requester_user_id,omitempty"`
	RequesterName   string    `json:"requester_name,omitempty"`
	RequesterEmail  string    `json:"requester_email,omitempty"`
	Title           string    `json:"title,omitempty"`
	Purpose         string    `json:"purpose,omitempty"`
	Attendees       int       `json:"attendees,omitempty"`
	DecisionNote    string    `json:"decision_note,omitempty"`
}

// FromCalendar converts calendar rows, never returning nil.
func FromCalendar(items []domain.Reservation) []CalendarEntry {
	out := make([]CalendarEntry, 0, len(items))
	for _, r := range items {
		out = append(out, CalendarEntry{
			ID:              r.ID,
			RoomID:          r.RoomID,
			StartTime:       r.StartsAt,
			EndTime:         r.EndsAt,
			Status:          string(r.Status),
			RequesterUserID: r.RequesterUserID,
			RequesterName:   r.RequesterName,
			RequesterEmail:  r.RequesterEmail,
			Title:           r.Title,
			Purpose:         r.Purpose,
			Attendees:       r.Attendees,
			DecisionNote:    r.DecisionNote,
		})
	}
	return out
}

// ToReservation converts back to the domain type.
func (r Reservation) ToReservation() domain.Reservation {
	return domain.Reservation{
		ID:              r.ID,
		RoomID:          r.RoomID,
		RequesterUserID: r.RequesterUserID,
		RequesterName:   r.RequesterName,
		RequesterEmail:  r.RequesterEmail,
		Title:           r.Title,
		Purpose:         r.Purpose,
		Attendees:       r.Attendees,
		StartsAt:        r.StartTime.UTC(),
		EndsAt:          r.EndTime.UTC(),
		Status:          domain.Status(r.Status),
		DecidedByUserID: r.DecidedByUserID,
		DecisionNote:    r.DecisionNote,
		DecidedAt:       r.DecideTime,
		CreatedAt:       r.CreateTime.UTC(),
		UpdatedAt:       r.UpdateTime.UTC(),
	}
}

// Room is the JSON view of a room.
type Room struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Location    string    `json:"location,omitempty"`
	Capacity    int       `json:"capacity"`
	Description string    `json:"description,omitempty"`
	CreateTime  time.Time `json:"create_time"`
	UpdateTime  time.Time `json:"update_time"`
}

// FromRoom converts a domain room.
func FromRoom(room domain.Room) Room {
	return Room{
		ID:          room.ID,
		Slug:        room.Slug,
		Name:        room.Name,
		Location:    room.Location,
		Capacity:    room.Capacity,
		Description: room.Description,
		CreateTime:  room.CreatedAt,
		UpdateTime:  room.UpdatedAt,
	}
}

// FromRooms converts a slice, never returning nil.
func FromRooms(items []domain.Room) []Room {
	out := make([]Room, 0, len(items))
	for _, item := range items {
		out = append(out, FromRoom(item))
	}
	return out
}
