package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.BrazilianPortuguese

	message.SetString(lang, fallbackKey, "Algo deu errado. Tente novamente.")
	message.SetString(lang, "error.REQUEST_MALFORMED", "Não foi possível ler a solicitação.")
	message.SetString(lang, "error.NOT_FOUND", "Não encontramos o que você procurava.")
	message.SetString(lang, "error.RESERVATION_ROOM_REQUIRED", "Escolha uma sala para a reserva.")
	message.SetString(lang, "error.RESERVATION_TITLE_INVALID", "Dê à reserva um título de até 120 caracteres.")
	message.SetString(lang, "error.RESERVATION_PURPOSE_TOO_LONG", "O objetivo deve ter no máximo 2000 caracteres.")
	message.SetString(lang, "error.RESERVATION_ATTENDEES_INVALID", "Informe pelo menos um participante.")
	message.SetString(lang, "error.RESERVATION_OVER_CAPACITY", "A sala não comporta tantos participantes.")
	message.SetString(lang, "error.RESERVATION_TIME_RANGE_INVALID", "A reserva deve terminar depois de começar.")
	message.SetString(lang, "error.RESERVATION_TOO_LONG", "Reservas podem durar no máximo 12 horas.")
	message.SetString(lang, "error.RESERVATION_IN_PAST", "Reservas não podem começar no passado.")
	message.SetString(lang, "error.RESERVATION_NOTE_TOO_LONG", "A observação deve ter no máximo 500 caracteres.")
	message.SetString(lang, "error.RESERVATION_INVALID_STATUS", "Status de reserva desconhecido.")
	message.SetString(lang, "error.RESERVATION_ALREADY_DECIDED", "Esta solicitação já foi analisada.")
	message.SetString(lang, "error.RESERVATION_SLOT_UNAVAILABLE", "A sala já está reservada nesse horário.")
	message.SetString(lang, "error.CALENDAR_RANGE_INVALID", "Escolha um período de no máximo 62 dias.")
	message.SetString(lang, "error.ROOM_NAME_EMPTY", "O nome da sala é obrigatório.")
	message.SetString(lang, "error.ROOM_SLUG_INVALID", "O identificador da sala deve ter de 2 a 48 letras minúsculas, dígitos ou hífens.")
	message.SetString(lang, "error.ROOM_CAPACITY_INVALID", "A capacidade da sala não pode ser negativa.")
	message.SetString(lang, "error.ROOM_SLUG_TAKEN", "Já existe uma sala com esse identificador.")
	message.SetString(lang, "error.LIST_PAGE_TOKEN_INVALID", "Este link de página expirou. Recarregue a lista.")
	message.SetString(lang, "error.LIST_ORDER_BY_INVALID", "Essa coluna não pode ser ordenada.")
	message.SetString(lang, "error.LIST_FILTER_INVALID", "Esse filtro não é suportado.")
	message.SetString(lang, "error.USER_EMAIL_INVALID", "Informe um e-mail válido.")
	message.SetString(lang, "error.USER_DISPLAY_NAME_EMPTY", "Informe seu nome.")
	message.SetString(lang, "error.USER_PASSWORD_TOO_SHORT", "A senha precisa ter pelo menos 8 caracteres.")
	message.SetString(lang, "error.USER_EMAIL_TAKEN", "Já existe uma conta com esse e-mail.")
	message.SetString(lang, "error.USER_INVALID_CREDENTIALS", "E-mail ou senha inválidos.")
	message.SetString(lang, "error.SESSION_REQUIRED", "Entre para continuar.")
	message.SetString(lang, "error.SESSION_INVALID", "Sua sessão expirou. Entre novamente.")
	message.SetString(lang, "error.ADMIN_REQUIRED", "Apenas administradores podem fazer isso.")
	message.SetString(lang, "error.FORBIDDEN", "Você não tem acesso a isso.")
	message.SetString(lang, "error.NOTIFICATION_RECIPIENT_REQUIRED", "A notificação precisa de um destinatário.")
	message.SetString(lang, "error.NOTIFICATION_TOPIC_REQUIRED", "A notificação precisa de um assunto.")
	message.SetString(lang, "error.NOTIFICATION_DUPLICATE", "Essa notificação já foi enviada.")
	message.SetString(lang, "error.NOTIFICATION_STORE_UNAVAILABLE", "As notificações estão indisponíveis no momento.")
}
