package domain

import "context"

// Transport отправляет сообщения во внешний мессенджер.
type Transport interface {
	Send(ctx context.Context, out OutboundMessage) (string, error)
	// EditAnswered дописывает выбранный ответ в исходное сообщение
	// и убирает клавиатуру.
	EditAnswered(ctx context.Context, chatID, messageID, text string) error
}

// ActiveList отдаёт снимок активных получателей для рассылки.
type ActiveList interface {
	ListActive() []string
}

// Ledger сопоставляет отправленные сообщения с ответами на них.
type Ledger interface {
	RecordSent(messageID string)
	AppendReply(messageID, replyMessageID, text string) bool
	PopReplies(messageIDs []string) map[string][]ReplyEvent
}
