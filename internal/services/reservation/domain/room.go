package domain

import (
	"regexp"
	"strings"
	"time"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]{2,48}$`)

// Room is a bookable resource. Capacity zero means unlimited.
type Room struct {
	ID          string
	Slug        string
	Name        string
	Location    string
	Capacity    int
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RoomInput describes a room to create or upsert.
type RoomInput struct {
	Slug        string
	Name        string
	Location    string
	Capacity    int
	Description string
}

// NormalizeRoomInput trims and validates room fields.
func NormalizeRoomInput(input RoomInput) (RoomInput, error) {
	input.Slug = strings.ToLower(strings.TrimSpace(input.Slug))
	input.Name = strings.TrimSpace(input.Name)
	input.Location = strings.TrimSpace(input.Location)
	input.Description = strings.TrimSpace(input.Description)
	if input.Name == "" {
		return RoomInput{}, ErrRoomNameEmpty
	}
	if !slugPattern.MatchString(input.Slug) {
		return RoomInput{}, ErrRoomSlugInvalid
	}
	if input.Capacity < 0 {
		return RoomInput{}, ErrRoomCapacityInvalid
	}
	return input, nil
}
