package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.MustParse("pt-BR")

	message.SetString(lang, "notification.generic.title", "Notificação")
	message.SetString(lang, "notification.generic.body", "Você tem uma nova notificação.")
	message.SetString(lang, "notification.generic.email_subject", "Notificação do Roomdesk")
	message.SetString(lang, "notification.room.unknown", "uma sala")
	message.SetString(lang, "notification.reservation.note", "Observação de quem avaliou: %s")
	message.SetString(lang, "notification.email.footer", "Você recebeu esta mensagem por causa de uma reserva de sala no Roomdesk.")

	message.SetString(lang, "notification.reservation_submitted.title", "Novo pedido de sala")
	message.SetString(lang, "notification.reservation_submitted.email_subject", "Pedido de sala aguardando avaliação: %s")
	message.SetString(lang, "notification.reservation_submitted.body", "%s pediu %s para \"%s\" de %s até %s.")

	message.SetString(lang, "notification.reservation_accepted.title", "Pedido de sala aceito")
	message.SetString(lang, "notification.reservation_accepted.email_subject", "Aceito: %s")
	message.SetString(lang, "notification.reservation_accepted.body", "Seu pedido \"%s\" para %s de %s até %s foi aceito.")

	message.SetString(lang, "notification.reservation_declined.title", "Pedido de sala recusado")
	message.SetString(lang, "notification.reservation_declined.email_subject", "Recusado: %s")
	message.SetString(lang, "notification.reservation_declined.body", "Seu pedido \"%s\" para %s de %s até %s foi recusado.")
}
