package monitor

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"tg-relay/client"
)

// RunTail шлёт последние lines строк файла раз в интервал.
func (p *Publisher) RunTail(ctx context.Context, path string, lines int, interval time.Duration) error {
	p.publishTail(ctx, path, lines)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.publishTail(ctx, path, lines)
		}
	}
}

func (p *Publisher) publishTail(ctx context.Context, path string, lines int) {
	text, err := tailLines(path, lines)
	if err != nil {
		p.Log.Error().Err(err).Str("path", path).Msg("не удалось прочитать хвост файла")
		return
	}
	body := fmt.Sprintf("Хвост файла '```%s```':\n---\n```\n%s\n```", path, text)
	if _, err := p.Client.Send(ctx, client.SendOptions{Text: body, Markdown: true}); err != nil {
		p.Log.Error().Err(err).Str("path", path).Msg("не удалось отправить хвост файла")
	}
}

// tailLines возвращает последние n строк файла. Файлы в этом сценарии
// небольшие (логи под отправку в чат), читаем целиком.
func tailLines(path string, n int) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	all := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return strings.Join(all, "\n"), nil
}
