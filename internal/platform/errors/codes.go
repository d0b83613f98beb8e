package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Reservation errors
	CodeReservationRoomRequired     Code = "RESERVATION_ROOM_REQUIRED"
	CodeReservationTitleInvalid     Code = "RESERVATION_TITLE_INVALID"
	CodeReservationPurposeTooLong   Code = "RESERVATION_PURPOSE_TOO_LONG"
	CodeReservationAttendeesInvalid Code = "RESERVATION_ATTENDEES_INVALID"
	CodeReservationOverCapacity     Code = "RESERVATION_OVER_CAPACITY"
	CodeReservationTimeRangeInvalid Code = "RESERVATION_TIME_RANGE_INVALID"
	CodeReservationTooLong          Code = "RESERVATION_TOO_LONG"
	CodeReservationInPast           Code = "RESERVATION_IN_PAST"
	CodeReservationNoteTooLong      Code = "RESERVATION_NOTE_TOO_LONG"
	CodeReservationInvalidStatus    Code = "RESERVATION_INVALID_STATUS"
	CodeReservationAlreadyDecided   Code = "RESERVATION_ALREADY_DECIDED"
	CodeReservationSlotUnavailable  Code = "RESERVATION_SLOT_UNAVAILABLE"
	CodeCalendarRangeInvalid        Code = "CALENDAR_RANGE_INVALID"

	// Room errors
	CodeRoomNameEmpty       Code = "ROOM_NAME_EMPTY"
	CodeRoomSlugInvalid     Code = "ROOM_SLUG_INVALID"
	CodeRoomCapacityInvalid Code = "ROOM_CAPACITY_INVALID"
	CodeRoomSlugTaken       Code = "ROOM_SLUG_TAKEN"

	// Listing errors
	CodeListPageTokenInvalid Code = "LIST_PAGE_TOKEN_INVALID"
	CodeListOrderByInvalid   Code = "LIST_ORDER_BY_INVALID"
	CodeListFilterInvalid    Code = "LIST_FILTER_INVALID"

	// User and session errors
	CodeUserEmailInvalid       Code = "USER_EMAIL_INVALID"
	CodeUserDisplayNameEmpty   Code = "USER_DISPLAY_NAME_EMPTY"
	CodeUserPasswordTooShort   Code = "USER_PASSWORD_TOO_SHORT"
	CodeUserEmailTaken         Code = "USER_EMAIL_TAKEN"
	CodeUserInvalidCredentials Code = "USER_INVALID_CREDENTIALS"
	CodeSessionRequired        Code = "SESSION_REQUIRED"
	CodeSessionInvalid         Code = "SESSION_INVALID"
	CodeAdminRequired          Code = "ADMIN_REQUIRED"
	CodeForbidden              Code = "FORBIDDEN"

	// Notification errors
	CodeNotificationRecipientRequired Code = "NOTIFICATION_RECIPIENT_REQUIRED"
	CodeNotificationTopicRequired     Code = "NOTIFICATION_TOPIC_REQUIRED"
	CodeNotificationDuplicate         Code = "NOTIFICATION_DUPLICATE"
	CodeNotificationStoreUnavailable  Code = "NOTIFICATION_STORE_UNAVAILABLE"

	// Request errors
	CodeRequestMalformed Code = "REQUEST_MALFORMED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeReservationRoomRequired,
		CodeReservationTitleInvalid,
		CodeReservationPurposeTooLong,
		CodeReservationAttendeesInvalid,
		CodeReservationOverCapacity,
		CodeReservationTimeRangeInvalid,
		CodeReservationTooLong,
		CodeReservationInPast,
		CodeReservationNoteTooLong,
		CodeReservationInvalidStatus,
		CodeCalendarRangeInvalid,
		CodeRoomNameEmpty,
		CodeRoomSlugInvalid,
		CodeRoomCapacityInvalid,
		CodeListPageTokenInvalid,
		CodeListOrderByInvalid,
		CodeListFilterInvalid,
		CodeUserEmailInvalid,
		CodeUserDisplayNameEmpty,
		CodeUserPasswordTooShort,
		CodeNotificationRecipientRequired,
		CodeNotificationTopicRequired,
		CodeRequestMalformed:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeReservationAlreadyDecided,
		CodeReservationSlotUnavailable:
		return codes.FailedPrecondition

	// AlreadyExists - unique resource constraint
	case CodeRoomSlugTaken,
		CodeUserEmailTaken,
		CodeNotificationDuplicate:
		return codes.AlreadyExists

	case CodeUserInvalidCredentials,
		CodeSessionRequired,
		CodeSessionInvalid:
		return codes.Unauthenticated

	case CodeAdminRequired,
		CodeForbidden:
		return codes.PermissionDenied

	case CodeNotFound:
		return codes.NotFound

	case CodeNotificationStoreUnavailable:
		return codes.Unavailable

	default:
		return codes.Internal
	}
}

// HTTPStatus maps domain codes to HTTP status codes via their gRPC class.
func (c Code) HTTPStatus() int {
	switch c.GRPCCode() {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.FailedPrecondition, codes.AlreadyExists:
		return http.StatusConflict
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
