package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"tg-relay/internal/domain"
	"tg-relay/internal/infra/metrics"
)

// Transport реализует domain.Transport поверх Bot API.
type Transport struct {
	bot *tgbotapi.BotAPI
	log zerolog.Logger
}

// NewTransport создаёт транспорт. timeout ограничивает каждый исходящий
// вызов к телеграму, чтобы зависший запрос не тормозил чужие.
func NewTransport(token string, timeout time.Duration, logger zerolog.Logger) (*Transport, error) {
	client := &http.Client{Timeout: timeout}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("создание бота: %w", err)
	}
	logger.Info().Str("username", bot.Self.UserName).Msg("бот авторизован")
	return &Transport{bot: bot, log: logger}, nil
}

// Bot отдаёт клиент Bot API для цикла апдейтов.
func (t *Transport) Bot() *tgbotapi.BotAPI {
	return t.bot
}

// Send отправляет сообщение и возвращает назначенный телеграмом id.
func (t *Transport) Send(ctx context.Context, out domain.OutboundMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	chatID, err := strconv.ParseInt(out.ChatID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("некорректный chat_id %q: %w", out.ChatID, err)
	}

	chattable, operation := t.build(chatID, out)

	start := time.Now()
	msg, err := t.bot.Send(chattable)
	metrics.ObserveNetworkRequest("telegram_bot", operation, start, err)
	if err != nil {
		return "", fmt.Errorf("%s: %w", operation, err)
	}
	return strconv.Itoa(msg.MessageID), nil
}

func (t *Transport) build(chatID int64, out domain.OutboundMessage) (tgbotapi.Chattable, string) {
	var base *tgbotapi.BaseChat

	switch out.Kind {
	case domain.MediaPhoto:
		cfg := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: out.Filename, Bytes: out.FileContent})
		cfg.Caption = out.Text
		if out.Markdown {
			cfg.ParseMode = tgbotapi.ModeMarkdown
		}
		base = &cfg.BaseChat
		t.applyCommon(base, out)
		return cfg, "send_photo"
	case domain.MediaVideo:
		cfg := tgbotapi.NewVideo(chatID, tgbotapi.FileBytes{Name: out.Filename, Bytes: out.FileContent})
		cfg.Caption = out.Text
		if out.Markdown {
			cfg.ParseMode = tgbotapi.ModeMarkdown
		}
		base = &cfg.BaseChat
		t.applyCommon(base, out)
		return cfg, "send_video"
	case domain.MediaDocument:
		cfg := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: out.Filename, Bytes: out.FileContent})
		cfg.Caption = out.Text
		if out.Markdown {
			cfg.ParseMode = tgbotapi.ModeMarkdown
		}
		base = &cfg.BaseChat
		t.applyCommon(base, out)
		return cfg, "send_document"
	default:
		cfg := tgbotapi.NewMessage(chatID, out.Text)
		if out.Markdown {
			cfg.ParseMode = tgbotapi.ModeMarkdown
		}
		base = &cfg.BaseChat
		t.applyCommon(base, out)
		return cfg, "send_message"
	}
}

func (t *Transport) applyCommon(base *tgbotapi.BaseChat, out domain.OutboundMessage) {
	if out.ReplyToID != "" {
		if replyTo, err := strconv.Atoi(out.ReplyToID); err == nil {
			base.ReplyToMessageID = replyTo
		} else {
			t.log.Warn().Str("reply_to_id", out.ReplyToID).Msg("некорректный reply_to_id, игнорируем")
		}
	}
	if len(out.KeyboardChoice) > 0 {
		base.ReplyMarkup = choiceKeyboard(out.KeyboardChoice)
	}
}

// choiceKeyboard строит клавиатуру, где каждый вариант — и подпись
// кнопки, и payload коллбэка.
func choiceKeyboard(choices []string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(choices))
	for _, choice := range choices {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(choice, choice),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// EditAnswered переписывает текст исходного сообщения и убирает
// клавиатуру — так в чате видно, какой ответ уже принят.
func (t *Transport) EditAnswered(ctx context.Context, chatID, messageID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chat, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("некорректный chat_id %q: %w", chatID, err)
	}
	msgID, err := strconv.Atoi(messageID)
	if err != nil {
		return fmt.Errorf("некорректный message_id %q: %w", messageID, err)
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(chat, msgID, text, tgbotapi.NewInlineKeyboardMarkup())

	start := time.Now()
	_, err = t.bot.Request(edit)
	metrics.ObserveNetworkRequest("telegram_bot", "edit_message", start, err)
	if err != nil {
		return fmt.Errorf("edit_message: %w", err)
	}
	return nil
}
