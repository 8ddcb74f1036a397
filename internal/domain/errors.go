package domain

import "errors"

var (
	// ErrInvalidRequest — запрос без обязательных полей, не ретраится.
	ErrInvalidRequest = errors.New("некорректный запрос")
	// ErrNoRecipients — некому отправлять: нет активных получателей.
	ErrNoRecipients = errors.New("нет активных получателей")
	// ErrTransport — внешний мессенджер не принял сообщение.
	ErrTransport = errors.New("ошибка транспорта")
)
