// Package client — Go-клиент локального API tg-relay. Хост и порт
// берутся из TGCLI_HOST/TGCLI_PORT, чтобы вызывающим скриптам не
// требовалась своя конфигурация.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"
)

const (
	// DefaultHost — адрес релея по умолчанию.
	DefaultHost = "127.0.0.1"
	// DefaultPort — порт релея по умолчанию.
	DefaultPort = 4444
	// DefaultTimeout ограничивает каждый запрос к релею.
	DefaultTimeout = 10 * time.Second
)

// Reply — один ответ человека на отправленное сообщение.
type Reply struct {
	Timestamp time.Time `json:"ts"`
	MessageID string    `json:"message_id"`
	Text      string    `json:"text"`
}

// SendOptions описывает исходящее сообщение.
type SendOptions struct {
	Text           string
	Filename       string
	Data           []byte
	Markdown       bool
	KeyboardChoice []string
	ReplyToID      string
}

// Client — клиент локального API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New создаёт клиент для указанных хоста и порта.
func New(host string, port int) *Client {
	return &Client{
		baseURL: fmt.Sprintf("http://%s:%d/", host, port),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
}

// FromEnv создаёт клиент по TGCLI_HOST и TGCLI_PORT.
func FromEnv() *Client {
	host := os.Getenv("TGCLI_HOST")
	if host == "" {
		host = DefaultHost
	}
	port := DefaultPort
	if raw := os.Getenv("TGCLI_PORT"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			port = parsed
		}
	}
	return New(host, port)
}

type envelope struct {
	Method string `json:"method"`
	Data   any    `json:"data"`
}

type response struct {
	Status string `json:"status"`
	Data   struct {
		MessageID string             `json:"message_id"`
		Replies   map[string][]Reply `json:"replies"`
	} `json:"data"`
	Detail string `json:"detail"`
}

// Send отправляет сообщение и возвращает его message_id.
func (c *Client) Send(ctx context.Context, opts SendOptions) (string, error) {
	data := map[string]any{
		"text":            opts.Text,
		"filename":        opts.Filename,
		"filecontent":     base64.StdEncoding.EncodeToString(opts.Data),
		"markdown":        opts.Markdown,
		"keyboard_choice": opts.KeyboardChoice,
		"reply_to_id":     opts.ReplyToID,
	}
	if len(opts.Data) == 0 {
		data["filecontent"] = ""
	}

	res, err := c.post(ctx, envelope{Method: "send", Data: data})
	if err != nil {
		return "", err
	}
	return res.Data.MessageID, nil
}

// GetReplies забирает накопленные ответы. Чтение разрушающее: второй
// вызов с теми же id вернёт пусто.
func (c *Client) GetReplies(ctx context.Context, messageIDs []string) (map[string][]Reply, error) {
	res, err := c.post(ctx, envelope{
		Method: "get_replies",
		Data:   map[string]any{"message_ids": messageIDs},
	})
	if err != nil {
		return nil, err
	}
	return res.Data.Replies, nil
}

// WaitReplies опрашивает релей, пока не появится хотя бы один ответ
// или не истечёт контекст.
func (c *Client) WaitReplies(ctx context.Context, messageIDs []string, poll time.Duration) (map[string][]Reply, error) {
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		replies, err := c.GetReplies(ctx, messageIDs)
		if err != nil {
			return nil, err
		}
		if len(replies) > 0 {
			return replies, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) post(ctx context.Context, env envelope) (response, error) {
	payload, err := json.Marshal(env)
	if err != nil {
		return response{}, fmt.Errorf("кодирование запроса: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return response{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return response{}, err
	}
	defer resp.Body.Close()

	var res response
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return response{}, fmt.Errorf("разбор ответа: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return response{}, fmt.Errorf("релей ответил %d: %s", resp.StatusCode, res.Detail)
	}
	if res.Status != "ok" {
		return response{}, fmt.Errorf("релей ответил статусом %q", res.Status)
	}
	return res, nil
}
