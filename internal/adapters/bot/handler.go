package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"tg-relay/internal/adapters/telegram"
	"tg-relay/internal/domain"
	"tg-relay/internal/infra/metrics"
	"tg-relay/internal/usecase/auth"
	"tg-relay/internal/usecase/recipients"
	"tg-relay/internal/usecase/router"
)

// Handler обслуживает поток апдейтов бота: команды управления
// подпиской и ответы людей на отправленные сообщения.
type Handler struct {
	bot      *tgbotapi.BotAPI
	log      zerolog.Logger
	store    *recipients.Store
	router   *router.Service
	mode     domain.AuthMode
	password string
}

// NewHandler создаёт обработчик.
func NewHandler(bot *tgbotapi.BotAPI, logger zerolog.Logger, store *recipients.Store, routerUC *router.Service, mode domain.AuthMode, password string) *Handler {
	return &Handler{
		bot:      bot,
		log:      logger,
		store:    store,
		router:   routerUC,
		mode:     mode,
		password: password,
	}
}

// Run крутит long-poll апдейтов до отмены контекста.
func (h *Handler) Run(ctx context.Context) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := h.bot.GetUpdatesChan(cfg)
	h.log.Info().Msg("цикл апдейтов запущен")
	for {
		select {
		case <-ctx.Done():
			h.bot.StopReceivingUpdates()
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			h.HandleUpdate(ctx, upd)
		}
	}
}

// HandleUpdate обрабатывает входящий апдейт.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		h.handleMessage(ctx, upd.Message)
	} else if upd.CallbackQuery != nil {
		h.handleCallback(ctx, upd.CallbackQuery)
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.ReplyToMessage != nil {
		h.router.HandleReply(
			strconv.Itoa(msg.ReplyToMessage.MessageID),
			strconv.Itoa(msg.MessageID),
			msg.Text,
		)
		return
	}

	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	text := strings.TrimSpace(msg.Text)
	switch {
	case strings.HasPrefix(text, "/start"):
		h.handleStart(msg.Chat.ID, chatID)
	case strings.HasPrefix(text, "/stop"):
		h.handleStop(msg.Chat.ID, chatID)
	case strings.HasPrefix(text, "/password"):
		supplied := strings.TrimSpace(strings.TrimPrefix(text, "/password"))
		h.handlePassword(msg.Chat.ID, chatID, supplied)
	}
}

func (h *Handler) handleStart(chat int64, chatID string) {
	if !h.store.IsValid(chatID) {
		if h.mode == domain.AuthModeUserList {
			h.reply(chat, fmt.Sprintf("Вход только по списку. Передайте администратору ваш id '%s'", chatID))
		} else {
			h.reply(chat, fmt.Sprintf("Передайте администратору ваш id '%s' или войдите через /password <пароль>", chatID))
		}
		h.log.Warn().Str("chat_id", chatID).Msg("неизвестный пользователь прислал /start")
		return
	}

	if err := h.store.Activate(chatID); err != nil {
		h.log.Warn().Err(err).Str("chat_id", chatID).Msg("активация не сохранилась на диск")
	}
	h.reply(chat, "Бот будет присылать вам все сообщения. /stop — отписаться.")
}

func (h *Handler) handleStop(chat int64, chatID string) {
	if !h.store.IsValid(chatID) {
		h.reply(chat, "Вас нет в базе, но хорошо — сообщения приходить не будут.")
		return
	}
	if !h.store.IsActive(chatID) {
		h.reply(chat, "Вы и так не получаете сообщений. /start — возобновить.")
		return
	}
	if err := h.store.Deactivate(chatID); err != nil {
		h.log.Warn().Err(err).Str("chat_id", chatID).Msg("деактивация не сохранилась на диск")
	}
	h.reply(chat, "Сообщения больше приходить не будут. /start — возобновить.")
}

func (h *Handler) handlePassword(chat int64, chatID, supplied string) {
	if h.store.IsValid(chatID) {
		h.reply(chat, "У вас уже есть доступ.")
		return
	}

	decision := auth.CanRegister(false, h.mode, supplied, h.password)
	if !decision.Allowed {
		switch decision.Reason {
		case auth.DenyUserListOnly:
			h.reply(chat, fmt.Sprintf("Хорошая попытка, но вход только по списку. Передайте администратору ваш id '%s'", chatID))
			h.log.Warn().Str("chat_id", chatID).Msg("попытка входа по паролю при режиме userlist")
		case auth.DenyNoPassword:
			h.reply(chat, "Не удалось разобрать пароль. Формат: /password <пароль>")
		default:
			h.reply(chat, "Неверный пароль")
			h.log.Warn().Str("chat_id", chatID).Msg("попытка входа с неверным паролем")
		}
		return
	}

	if err := h.store.Add(chatID); err != nil {
		h.log.Warn().Err(err).Str("chat_id", chatID).Msg("новый получатель не сохранился на диск")
	}
	h.reply(chat, "Вы добавлены в базу! /start — получать сообщения, /stop — отписаться.")
	h.log.Warn().Str("chat_id", chatID).Msg("пользователь добавлен в базу")
}

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message != nil {
		h.router.HandleCallback(
			ctx,
			strconv.FormatInt(cb.Message.Chat.ID, 10),
			strconv.Itoa(cb.Message.MessageID),
			cb.Message.Text,
			cb.Data,
		)
	}
	start := time.Now()
	_, err := h.bot.Request(tgbotapi.NewCallback(cb.ID, ""))
	metrics.ObserveNetworkRequest("telegram_bot", "answer_callback", start, err)
	if err != nil {
		h.log.Error().Err(err).Msg("не удалось ответить на callback")
	}
}

func (h *Handler) reply(chatID int64, text string) {
	for _, part := range telegram.SplitMessage(text) {
		msg := tgbotapi.NewMessage(chatID, part)
		start := time.Now()
		_, err := h.bot.Send(msg)
		metrics.ObserveNetworkRequest("telegram_bot", "send_message", start, err)
		if err != nil {
			h.log.Error().Err(err).Msg("не удалось отправить сообщение")
			return
		}
	}
}
