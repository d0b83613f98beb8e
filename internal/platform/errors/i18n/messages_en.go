package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, fallbackKey, "Something went wrong. Please try again.")
	message.SetString(lang, "error.REQUEST_MALFORMED", "The request could not be read.")
	message.SetString(lang, "error.NOT_FOUND", "We couldn't find what you were looking for.")
	message.SetString(lang, "error.RESERVATION_ROOM_REQUIRED", "Choose a room for your booking.")
	message.SetString(lang, "error.RESERVATION_TITLE_INVALID", "Give your booking a title of up to 120 characters.")
	message.SetString(lang, "error.RESERVATION_PURPOSE_TOO_LONG", "The purpose must be at most 2000 characters.")
	message.SetString(lang, "error.RESERVATION_ATTENDEES_INVALID", "Enter at least one attendee.")
	message.SetString(lang, "error.RESERVATION_OVER_CAPACITY", "That room cannot hold this many attendees.")
	message.SetString(lang, "error.RESERVATION_TIME_RANGE_INVALID", "The booking must end after it starts.")
	message.SetString(lang, "error.RESERVATION_TOO_LONG", "Bookings can last at most 12 hours.")
	message.SetString(lang, "error.RESERVATION_IN_PAST", "Bookings cannot start in the past.")
	message.SetString(lang, "error.RESERVATION_NOTE_TOO_LONG", "The note must be at most 500 characters.")
	message.SetString(lang, "error.RESERVATION_INVALID_STATUS", "Unknown reservation status.")
	message.SetString(lang, "error.RESERVATION_ALREADY_DECIDED", "This request has already been reviewed.")
	message.SetString(lang, "error.RESERVATION_SLOT_UNAVAILABLE", "The room is already booked for that time.")
	message.SetString(lang, "error.CALENDAR_RANGE_INVALID", "Pick a calendar range of at most 62 days.")
	message.SetString(lang, "error.ROOM_NAME_EMPTY", "Room name is required.")
	message.SetString(lang, "error.ROOM_SLUG_INVALID", "Room handle must be 2-48 lowercase letters, digits or dashes.")
	message.SetString(lang, "error.ROOM_CAPACITY_INVALID", "Room capacity cannot be negative.")
	message.SetString(lang, "error.ROOM_SLUG_TAKEN", "A room with that handle already exists.")
	message.SetString(lang, "error.LIST_PAGE_TOKEN_INVALID", "This page link has expired. Reload the list.")
	message.SetString(lang, "error.LIST_ORDER_BY_INVALID", "That column cannot be sorted.")
	message.SetString(lang, "error.LIST_FILTER_INVALID", "That filter is not supported.")
	message.SetString(lang, "error.USER_EMAIL_INVALID", "Enter a valid email address.")
	message.SetString(lang, "error.USER_DISPLAY_NAME_EMPTY", "Enter your name.")
	message.SetString(lang, "error.USER_PASSWORD_TOO_SHORT", "Passwords need at least 8 characters.")
	message.SetString(lang, "error.USER_EMAIL_TAKEN", "An account with that email already exists.")
	message.SetString(lang, "error.USER_INVALID_CREDENTIALS", "Invalid email or password.")
	message.SetString(lang, "error.SESSION_REQUIRED", "Please sign in to continue.")
	message.SetString(lang, "error.SESSION_INVALID", "Your session has expired. Please sign in again.")
	message.SetString(lang, "error.ADMIN_REQUIRED", "Only administrators can do that.")
	message.SetString(lang, "error.FORBIDDEN", "You don't have access to that.")
	message.SetString(lang, "error.NOTIFICATION_RECIPIENT_REQUIRED", "A notification needs a recipient.")
	message.SetString(lang, "error.NOTIFICATION_TOPIC_REQUIRED", "A notification needs a topic.")
	message.SetString(lang, "error.NOTIFICATION_DUPLICATE", "That notification was already sent.")
	message.SetString(lang, "error.NOTIFICATION_STORE_UNAVAILABLE", "Notifications are unavailable right now.")
}
