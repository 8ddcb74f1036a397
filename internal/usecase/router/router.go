package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"tg-relay/internal/domain"
	"tg-relay/internal/infra/metrics"
)

// Service — маршрутизатор сообщений: принимает запросы локального API,
// отдаёт их транспорту и связывает отправленное с ответами через журнал.
// Все зависимости передаются явно, никаких скрытых синглтонов.
type Service struct {
	transport   domain.Transport
	ledger      domain.Ledger
	recipients  domain.ActiveList
	primaryChat string
	log         zerolog.Logger
}

// NewService создаёт маршрутизатор. primaryChat может быть пустым —
// тогда адресатом send становится первый активный получатель.
func NewService(transport domain.Transport, ledger domain.Ledger, recipients domain.ActiveList, primaryChat string, logger zerolog.Logger) *Service {
	return &Service{
		transport:   transport,
		ledger:      ledger,
		recipients:  recipients,
		primaryChat: primaryChat,
		log:         logger,
	}
}

// Send проверяет запрос, отправляет сообщение в основной чат и
// регистрирует message_id в журнале ответов.
func (s *Service) Send(ctx context.Context, req domain.SendRequest) (string, error) {
	if strings.TrimSpace(req.Text) == "" && len(req.FileContent) == 0 {
		return "", fmt.Errorf("%w: нужен text или filecontent", domain.ErrInvalidRequest)
	}

	chatID, err := s.targetChat()
	if err != nil {
		return "", err
	}

	out := domain.OutboundMessage{
		ChatID:         chatID,
		Kind:           domain.MediaKindFor(req.Filename, req.FileContent),
		Text:           req.Text,
		Filename:       req.Filename,
		FileContent:    req.FileContent,
		Markdown:       req.Markdown,
		KeyboardChoice: req.KeyboardChoice,
		ReplyToID:      req.ReplyToID,
	}

	messageID, err := s.transport.Send(ctx, out)
	if err != nil {
		metrics.SendErrorsTotal.Inc()
		return "", fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}

	s.ledger.RecordSent(messageID)
	return messageID, nil
}

// GetReplies извлекает накопленные ответы; чтение разрушающее.
func (s *Service) GetReplies(messageIDs []string) map[string][]domain.ReplyEvent {
	return s.ledger.PopReplies(messageIDs)
}

// HandleReply принимает текстовый ответ человека (reply-to) от
// транспорта и кладёт его в журнал.
func (s *Service) HandleReply(originalMessageID, replyMessageID, text string) {
	s.ledger.AppendReply(originalMessageID, replyMessageID, text)
}

// HandleCallback принимает нажатие кнопки. Помимо журнала, просит
// транспорт отредактировать исходное сообщение: дописать выбранный
// ответ и убрать клавиатуру. Правка — косметика, её сбой не отменяет
// уже записанный ответ.
func (s *Service) HandleCallback(ctx context.Context, chatID, originalMessageID, originalText, value string) {
	if !s.ledger.AppendReply(originalMessageID, originalMessageID, value) {
		return
	}
	edited := originalText + "\n\nGot answer: " + value
	if err := s.transport.EditAnswered(ctx, chatID, originalMessageID, edited); err != nil {
		s.log.Warn().Err(err).Str("message_id", originalMessageID).Msg("не удалось отредактировать сообщение с ответом")
	}
}

// BroadcastText рассылает текст всем активным получателям. Рассылка
// best-effort: сбой по одному получателю логируется и не прерывает
// остальных, отката нет.
func (s *Service) BroadcastText(ctx context.Context, text string) {
	for _, chatID := range s.recipients.ListActive() {
		out := domain.OutboundMessage{ChatID: chatID, Kind: domain.MediaText, Text: text}
		if _, err := s.transport.Send(ctx, out); err != nil {
			metrics.SendErrorsTotal.Inc()
			s.log.Error().Err(err).Str("chat_id", chatID).Msg("не удалось отправить сообщение получателю")
		}
	}
}

// BroadcastFile рассылает файл всем активным получателям.
func (s *Service) BroadcastFile(ctx context.Context, filename string, content []byte, caption string) {
	kind := domain.MediaKindFor(filename, content)
	for _, chatID := range s.recipients.ListActive() {
		out := domain.OutboundMessage{
			ChatID:      chatID,
			Kind:        kind,
			Text:        caption,
			Filename:    filename,
			FileContent: content,
		}
		if _, err := s.transport.Send(ctx, out); err != nil {
			metrics.SendErrorsTotal.Inc()
			s.log.Error().Err(err).Str("chat_id", chatID).Str("filename", filename).Msg("не удалось отправить файл получателю")
		}
	}
}

func (s *Service) targetChat() (string, error) {
	if s.primaryChat != "" {
		return s.primaryChat, nil
	}
	active := s.recipients.ListActive()
	if len(active) == 0 {
		return "", domain.ErrNoRecipients
	}
	return active[0], nil
}
