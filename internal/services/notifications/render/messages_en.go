package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, "notification.generic.title", defaultGenericTitle)
	message.SetString(lang, "notification.generic.body", defaultGenericBody)
	message.SetString(lang, "notification.generic.email_subject", defaultGenericEmailSubject)
	message.SetString(lang, "notification.room.unknown", "a room")
	message.SetString(lang, "notification.reservation.note", "Note from the reviewer: %s")
	message.SetString(lang, "notification.email.footer", "You are receiving this because of a room reservation on Roomdesk.")

	message.SetString(lang, "notification.reservation_submitted.title", "New room request")
	message.SetString(lang, "notification.reservation_submitted.email_subject", "Room request waiting for review: %s")
	message.SetString(lang, "notification.reservation_submitted.body", "%s requested %s for \"%s\" from %s to %s.")

	message.SetString(lang, "notification.reservation_accepted.title", "Room request accepted")
	message.SetString(lang, "notification.reservation_accepted.email_subject", "Accepted: %s")
	message.SetString(lang, "notification.reservation_accepted.body", "Your request \"%s\" for %s from %s to %s was accepted.")

	message.SetString(lang, "notification.reservation_declined.title", "Room request declined")
	message.SetString(lang, "notification.reservation_declined.email_subject", "Declined: %s")
	message.SetString(lang, "notification.reservation_declined.body", "Your request \"%s\" for %s from %s to %s was declined.")
}
