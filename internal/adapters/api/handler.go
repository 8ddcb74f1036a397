package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"tg-relay/internal/domain"
	"tg-relay/internal/infra/metrics"
	"tg-relay/internal/usecase/router"
)

// Handler — локальный API релея: один POST-эндпоинт с диспетчеризацией
// по полю method.
type Handler struct {
	router *router.Service
	log    zerolog.Logger
}

// NewHandler создаёт обработчик локального API.
func NewHandler(routerUC *router.Service, logger zerolog.Logger) *Handler {
	return &Handler{router: routerUC, log: logger}
}

// Register вешает маршруты на chi.Router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/", h.handle)
}

type envelope struct {
	Method string          `json:"method"`
	Data   json.RawMessage `json:"data"`
}

type sendData struct {
	Text           string   `json:"text"`
	Filename       string   `json:"filename"`
	FileContent    string   `json:"filecontent"`
	Markdown       bool     `json:"markdown"`
	KeyboardChoice []string `json:"keyboard_choice"`
	ReplyToID      string   `json:"reply_to_id"`
}

type getRepliesData struct {
	MessageIDs []string `json:"message_ids"`
}

type sendTextData struct {
	Text string `json:"text"`
}

type sendFileData struct {
	Filename    string `json:"filename"`
	FileContent string `json:"filecontent"`
	Text        string `json:"text"`
}

func (h *Handler) handle(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req envelope
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, "send", http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Method == "" {
		h.fail(w, "unknown", http.StatusNotFound, "'method' keyword was not found")
		return
	}
	if len(req.Data) == 0 {
		h.fail(w, req.Method, http.StatusBadRequest, "data was not found")
		return
	}

	switch req.Method {
	case "send":
		h.handleSend(w, r, req.Data)
	case "get_replies":
		h.handleGetReplies(w, req.Data)
	case "send_text":
		h.handleSendText(w, r, req.Data)
	case "send_file":
		h.handleSendFile(w, r, req.Data)
	default:
		h.fail(w, req.Method, http.StatusNotFound, "Unknown method")
	}
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request, raw json.RawMessage) {
	var data sendData
	if err := json.Unmarshal(raw, &data); err != nil {
		h.fail(w, "send", http.StatusBadRequest, "invalid data")
		return
	}

	var content []byte
	if data.FileContent != "" {
		decoded, err := base64.StdEncoding.DecodeString(data.FileContent)
		if err != nil {
			h.fail(w, "send", http.StatusBadRequest, "filecontent is not valid base64")
			return
		}
		content = decoded
	}

	messageID, err := h.router.Send(r.Context(), domain.SendRequest{
		Text:           data.Text,
		Filename:       data.Filename,
		FileContent:    content,
		Markdown:       data.Markdown,
		KeyboardChoice: data.KeyboardChoice,
		ReplyToID:      data.ReplyToID,
	})
	if err != nil {
		h.failFromError(w, "send", err)
		return
	}

	h.ok(w, "send", map[string]any{"message_id": messageID})
}

func (h *Handler) handleGetReplies(w http.ResponseWriter, raw json.RawMessage) {
	var data getRepliesData
	if err := json.Unmarshal(raw, &data); err != nil {
		h.fail(w, "get_replies", http.StatusBadRequest, "invalid data")
		return
	}

	replies := h.router.GetReplies(data.MessageIDs)
	h.ok(w, "get_replies", map[string]any{"replies": replies})
}

func (h *Handler) handleSendText(w http.ResponseWriter, r *http.Request, raw json.RawMessage) {
	var data sendTextData
	if err := json.Unmarshal(raw, &data); err != nil {
		h.fail(w, "send_text", http.StatusBadRequest, "invalid data")
		return
	}
	if data.Text == "" {
		h.fail(w, "send_text", http.StatusBadRequest, "text was not found")
		return
	}

	h.router.BroadcastText(r.Context(), data.Text)
	h.ok(w, "send_text", nil)
}

func (h *Handler) handleSendFile(w http.ResponseWriter, r *http.Request, raw json.RawMessage) {
	var data sendFileData
	if err := json.Unmarshal(raw, &data); err != nil {
		h.fail(w, "send_file", http.StatusBadRequest, "invalid data")
		return
	}
	if data.Filename == "" {
		h.fail(w, "send_file", http.StatusBadRequest, "filename was not found")
		return
	}
	if data.FileContent == "" {
		h.fail(w, "send_file", http.StatusBadRequest, "filecontent was not found")
		return
	}
	content, err := base64.StdEncoding.DecodeString(data.FileContent)
	if err != nil {
		h.fail(w, "send_file", http.StatusBadRequest, "filecontent is not valid base64")
		return
	}

	h.router.BroadcastFile(r.Context(), data.Filename, content, data.Text)
	h.ok(w, "send_file", nil)
}

func (h *Handler) ok(w http.ResponseWriter, method string, data map[string]any) {
	metrics.APIRequestsTotal.WithLabelValues(method, strconv.Itoa(http.StatusOK)).Inc()
	resp := map[string]any{"status": "ok"}
	if data != nil {
		resp["data"] = data
	}
	writeJSON(w, http.StatusOK, resp)
}

// failFromError переводит класс ошибки ядра в HTTP-статус: кривой
// запрос — 400, всё остальное (транспорт, нет получателей) — 500,
// ретраить решает вызывающий.
func (h *Handler) failFromError(w http.ResponseWriter, method string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrInvalidRequest) {
		status = http.StatusBadRequest
	}
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("method", method).Msg("запрос локального API не выполнен")
	}
	h.fail(w, method, status, err.Error())
}

func (h *Handler) fail(w http.ResponseWriter, method string, status int, detail string) {
	metrics.APIRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	writeJSON(w, status, map[string]any{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
