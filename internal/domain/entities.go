package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// AuthMode определяет способ авторизации получателей.
type AuthMode string

const (
	// AuthModeUserList открывает доступ только пользователям из списка.
	AuthModeUserList AuthMode = "userlist"
	// AuthModePassword дополнительно пускает любого, кто знает пароль.
	AuthModePassword AuthMode = "password"
)

// ReplyEvent — один ответ человека на отправленное сообщение.
type ReplyEvent struct {
	Timestamp      time.Time `json:"ts"`
	ReplyMessageID string    `json:"message_id"`
	Text           string    `json:"text"`
}

// SendRequest описывает запрос send локального API после валидации формы.
type SendRequest struct {
	Text           string
	Filename       string
	FileContent    []byte
	Markdown       bool
	KeyboardChoice []string
	ReplyToID      string
}

// MediaKind — тип исходящего сообщения для транспорта.
type MediaKind string

const (
	MediaText     MediaKind = "text"
	MediaPhoto    MediaKind = "photo"
	MediaVideo    MediaKind = "video"
	MediaDocument MediaKind = "document"
)

var (
	imageExtensions = map[string]struct{}{".jpg": {}, ".jpeg": {}, ".png": {}}
	videoExtensions = map[string]struct{}{".mp4": {}, ".avi": {}, ".mov": {}}
)

// MediaKindFor выбирает тип сообщения по расширению имени файла.
// Пустое содержимое всегда означает обычный текст.
func MediaKindFor(filename string, content []byte) MediaKind {
	if len(content) == 0 {
		return MediaText
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := imageExtensions[ext]; ok {
		return MediaPhoto
	}
	if _, ok := videoExtensions[ext]; ok {
		return MediaVideo
	}
	return MediaDocument
}

// OutboundMessage — собранное сообщение, готовое к отправке транспортом.
type OutboundMessage struct {
	ChatID         string
	Kind           MediaKind
	Text           string
	Filename       string
	FileContent    []byte
	Markdown       bool
	KeyboardChoice []string
	ReplyToID      string
}
