package monitor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"tg-relay/client"
)

// Publisher отправляет содержимое файла в чат. Обёртка над клиентом
// релея, чтобы мониторы не знали про протокол.
type Publisher struct {
	Client *client.Client
	Log    zerolog.Logger
}

func (p *Publisher) publishFile(ctx context.Context, path, caption string) {
	data, err := os.ReadFile(path)
	if err != nil {
		p.Log.Error().Err(err).Str("path", path).Msg("не удалось прочитать файл")
		return
	}
	if _, err := p.Client.Send(ctx, client.SendOptions{
		Text:     caption,
		Filename: filepath.Base(path),
		Data:     data,
	}); err != nil {
		p.Log.Error().Err(err).Str("path", path).Msg("не удалось отправить файл")
	}
}

// RunFileInterval шлёт файл раз в интервал; первый раз — сразу.
func (p *Publisher) RunFileInterval(ctx context.Context, path string, interval time.Duration) error {
	caption := fmt.Sprintf("Файл '%s' раз в '%s'", path, interval)
	p.publishFile(ctx, path, caption)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.publishFile(ctx, path, caption)
		}
	}
}

// RunFileOnChange шлёт файл при каждом создании или изменении.
// Наблюдаем за каталогом: так ловится и пересоздание файла.
func (p *Publisher) RunFileOnChange(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("создание наблюдателя: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("наблюдение за каталогом: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != abs {
				continue
			}
			if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write) {
				p.publishFile(ctx, abs, fmt.Sprintf("Файл '%s' изменился...", path))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.Log.Error().Err(err).Msg("ошибка наблюдателя")
		}
	}
}
