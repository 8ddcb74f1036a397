package ledger

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestLedger() *Ledger {
	return New(48*time.Hour, zerolog.Nop())
}

func TestAppendReplyUnknownID(t *testing.T) {
	l := newTestLedger()
	if l.AppendReply("777", "778", "привет") {
		t.Fatalf("ответ на неизвестный id должен отбрасываться")
	}
	if l.Len() != 0 {
		t.Fatalf("журнал должен остаться пустым, записей: %d", l.Len())
	}
}

func TestPopRepliesDestructive(t *testing.T) {
	l := newTestLedger()
	l.RecordSent("100")
	if !l.AppendReply("100", "101", "first") {
		t.Fatalf("ответ на известный id должен приниматься")
	}
	if !l.AppendReply("100", "102", "second") {
		t.Fatalf("второй ответ должен приниматься")
	}

	got := l.PopReplies([]string{"100", "999"})
	events := got["100"]
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Text != "first" || events[1].Text != "second" {
		t.Fatalf("порядок ответов нарушен: %q, %q", events[0].Text, events[1].Text)
	}
	if _, ok := got["999"]; ok {
		t.Fatalf("неизвестный id не должен попадать в результат")
	}

	again := l.PopReplies([]string{"100"})
	if len(again) != 0 {
		t.Fatalf("повторное чтение должно быть пустым, получили %d", len(again))
	}
}

func TestPopRepliesKeepsUnansweredEntry(t *testing.T) {
	l := newTestLedger()
	l.RecordSent("200")

	if got := l.PopReplies([]string{"200"}); len(got) != 0 {
		t.Fatalf("без ответов результат должен быть пустым")
	}

	// Запись без событий переживает чтение: поздний ответ не должен
	// стать ничейным.
	if !l.AppendReply("200", "201", "late") {
		t.Fatalf("ответ после пустого чтения должен приниматься")
	}
	got := l.PopReplies([]string{"200"})
	if len(got["200"]) != 1 {
		t.Fatalf("поздний ответ потерян")
	}
}

func TestRecordSentIdempotent(t *testing.T) {
	l := newTestLedger()
	l.RecordSent("300")
	if !l.AppendReply("300", "301", "answer") {
		t.Fatalf("ответ должен приниматься")
	}
	l.RecordSent("300")
	if got := l.PopReplies([]string{"300"}); len(got["300"]) != 1 {
		t.Fatalf("повторный RecordSent не должен затирать ответы")
	}
}

func TestSweepExpiredRemovesOldEntries(t *testing.T) {
	l := newTestLedger()
	l.RecordSent("400")
	l.AppendReply("400", "401", "old")

	removed := l.SweepExpired(time.Now().Add(100 * time.Hour))
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if l.Len() != 0 {
		t.Fatalf("журнал должен опустеть, записей: %d", l.Len())
	}
	if l.AppendReply("400", "402", "after sweep") {
		t.Fatalf("ответ после чистки должен отбрасываться")
	}
}

func TestSweepExpiredKeepsFreshEntries(t *testing.T) {
	l := newTestLedger()
	l.RecordSent("500")
	l.AppendReply("500", "501", "fresh")

	if removed := l.SweepExpired(time.Now()); removed != 0 {
		t.Fatalf("свежие записи не должны удаляться, удалено %d", removed)
	}
	if got := l.PopReplies([]string{"500"}); len(got["500"]) != 1 {
		t.Fatalf("свежий ответ потерян после чистки")
	}
}

func TestSweepExpiredKeepsFreshUnanswered(t *testing.T) {
	l := newTestLedger()
	l.RecordSent("600")

	if removed := l.SweepExpired(time.Now()); removed != 0 {
		t.Fatalf("свежее неотвеченное сообщение не должно удаляться")
	}
	if !l.AppendReply("600", "601", "still alive") {
		t.Fatalf("ответ на уцелевшую запись должен приниматься")
	}
}
