package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tg-relay/internal/domain"
	"tg-relay/internal/infra/metrics"
)

// DefaultRetention — сколько храним ответы без востребования.
const DefaultRetention = 48 * time.Hour

type entry struct {
	sentAt time.Time
	events []domain.ReplyEvent
}

// Ledger — журнал соответствий «отправленное сообщение → ответы».
// Живёт только в памяти: рестарт процесса теряет невычитанные ответы,
// это осознанный отказ от долговечности. Record/Append/Pop/Sweep
// сериализуются одним мьютексом, объём данных крошечный.
type Ledger struct {
	mu        sync.Mutex
	entries   map[string]*entry
	retention time.Duration
	log       zerolog.Logger
}

// New создаёт журнал с указанным окном хранения.
func New(retention time.Duration, logger zerolog.Logger) *Ledger {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Ledger{
		entries:   make(map[string]*entry),
		retention: retention,
		log:       logger,
	}
}

// RecordSent заводит пустой список ответов для messageID. Идемпотентна.
func (l *Ledger) RecordSent(messageID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[messageID]; ok {
		return
	}
	l.entries[messageID] = &entry{sentAt: time.Now()}
	metrics.LedgerSize.Set(float64(len(l.entries)))
}

// AppendReply дописывает ответ к ранее отправленному сообщению.
// Ответ на неизвестный или истёкший id молча отбрасывается — это не
// ошибка, возвращаем false.
func (l *Ledger) AppendReply(messageID, replyMessageID, text string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[messageID]
	if !ok {
		l.log.Debug().Str("message_id", messageID).Msg("ответ на неизвестное сообщение отброшен")
		metrics.StaleRepliesTotal.Inc()
		return false
	}
	e.events = append(e.events, domain.ReplyEvent{
		Timestamp:      time.Now(),
		ReplyMessageID: replyMessageID,
		Text:           text,
	})
	metrics.ReplyEventsTotal.Inc()
	return true
}

// PopReplies извлекает и удаляет накопленные ответы по каждому id.
// Единственный путь чтения, и он разрушающий: повторный вызов с тем же
// id вернёт пусто. Идентификаторы без записей в результат не попадают.
func (l *Ledger) PopReplies(messageIDs []string) map[string][]domain.ReplyEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string][]domain.ReplyEvent)
	for _, id := range messageIDs {
		e, ok := l.entries[id]
		if !ok || len(e.events) == 0 {
			continue
		}
		out[id] = e.events
		delete(l.entries, id)
	}
	metrics.LedgerSize.Set(float64(len(l.entries)))
	return out
}

// SweepExpired удаляет события старше окна хранения, сохраняя порядок
// уцелевших. Запись целиком умирает, только когда событий не осталось
// и сама отправка старше окна: свежее неотвеченное сообщение чистка
// не трогает. Возвращает число удалённых записей.
func (l *Ledger) SweepExpired(now time.Time) int {
	cutoff := now.Add(-l.retention)
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, e := range l.entries {
		kept := e.events[:0]
		for _, ev := range e.events {
			if ev.Timestamp.After(cutoff) {
				kept = append(kept, ev)
			}
		}
		e.events = kept
		if len(e.events) == 0 && !e.sentAt.After(cutoff) {
			delete(l.entries, id)
			removed++
		}
	}
	if removed > 0 {
		metrics.SweepRemovedTotal.Add(float64(removed))
	}
	metrics.LedgerSize.Set(float64(len(l.entries)))
	return removed
}

// Len возвращает количество записей в журнале.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// RunSweeper запускает периодическую чистку журнала. Работает в своей
// горутине до отмены контекста, чтобы трафик запросов её не вытеснял.
func RunSweeper(ctx context.Context, l *Ledger, interval time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed := l.SweepExpired(now)
			logger.Debug().Int("removed", removed).Int("left", l.Len()).Msg("чистка журнала ответов")
		}
	}
}
