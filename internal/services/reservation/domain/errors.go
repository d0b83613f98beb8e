package domain

import apperrors "github.com/roomdesk/roomdesk/internal/platform/errors"

var (
	// ErrNotFound indicates a missing reservation or room.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")
	// ErrForbidden indicates the actor cannot see the reservation.
	ErrForbidden = apperrors.New(apperrors.CodeForbidden, "reservation belongs to another user")
	// ErrAdminRequired indicates an admin-only operation.
	ErrAdminRequired = apperrors.New(apperrors.CodeAdminRequired, "admin role required")

	ErrRoomRequired     = apperrors.New(apperrors.CodeReservationRoomRequired, "room is required")
	ErrTitleInvalid     = apperrors.New(apperrors.CodeReservationTitleInvalid, "title is empty or too long")
	ErrPurposeTooLong   = apperrors.New(apperrors.CodeReservationPurposeTooLong, "purpose is too long")
	ErrAttendeesInvalid = apperrors.New(apperrors.CodeReservationAttendeesInvalid, "attendees must be at least one")
	ErrOverCapacity     = apperrors.New(apperrors.CodeReservationOverCapacity, "attendees exceed room capacity")
	ErrTimeRangeInvalid = apperrors.New(apperrors.CodeReservationTimeRangeInvalid, "start must be before end")
	ErrTooLong          = apperrors.New(apperrors.CodeReservationTooLong, "reservation exceeds the maximum duration")
	ErrInPast           = apperrors.New(apperrors.CodeReservationInPast, "reservation starts in the past")
	ErrNoteTooLong      = apperrors.New(apperrors.CodeReservationNoteTooLong, "decision note is too long")
	ErrInvalidStatus    = apperrors.New(apperrors.CodeReservationInvalidStatus, "unknown reservation status")

	// ErrAlreadyDecided indicates the reservation already left PENDING.
	ErrAlreadyDecided = apperrors.New(apperrors.CodeReservationAlreadyDecided, "reservation was already decided")
	// ErrSlotUnavailable indicates an accepted reservation overlaps the slot.
	ErrSlotUnavailable = apperrors.New(apperrors.CodeReservationSlotUnavailable, "room is already booked for this slot")

	ErrCalendarRangeInvalid = apperrors.New(apperrors.CodeCalendarRangeInvalid, "calendar range is invalid")

	ErrRoomNameEmpty       = apperrors.New(apperrors.CodeRoomNameEmpty, "room name is required")
	ErrRoomSlugInvalid     = apperrors.New(apperrors.CodeRoomSlugInvalid, "room slug is invalid")
	ErrRoomCapacityInvalid = apperrors.New(apperrors.CodeRoomCapacityInvalid, "room capacity must not be negative")
	ErrRoomSlugTaken       = apperrors.New(apperrors.CodeRoomSlugTaken, "room slug is already in use")

	ErrPageTokenInvalid = apperrors.New(apperrors.CodeListPageTokenInvalid, "page token is invalid")
	ErrOrderByInvalid   = apperrors.New(apperrors.CodeListOrderByInvalid, "order_by is invalid")
	ErrFilterInvalid    = apperrors.New(apperrors.CodeListFilterInvalid, "filter is invalid")
)
