package router

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/rs/zerolog"

	"tg-relay/internal/domain"
)

type stubTransport struct {
	sent    []domain.OutboundMessage
	sendErr error
	edits   []string
	editErr error
}

func (s *stubTransport) Send(_ context.Context, msg domain.OutboundMessage) (string, error) {
	s.sent = append(s.sent, msg)
	if s.sendErr != nil {
		return "", s.sendErr
	}
	return strconv.Itoa(100 + len(s.sent)), nil
}

func (s *stubTransport) EditAnswered(_ context.Context, _, _ string, text string) error {
	s.edits = append(s.edits, text)
	return s.editErr
}

type stubLedger struct {
	recorded []string
	appended map[string][]string
	popped   [][]string
	accept   bool
}

func (s *stubLedger) RecordSent(id string) { s.recorded = append(s.recorded, id) }

func (s *stubLedger) AppendReply(id, _, text string) bool {
	if s.appended == nil {
		s.appended = map[string][]string{}
	}
	s.appended[id] = append(s.appended[id], text)
	return s.accept
}

func (s *stubLedger) PopReplies(ids []string) map[string][]domain.ReplyEvent {
	s.popped = append(s.popped, ids)
	return map[string][]domain.ReplyEvent{}
}

type stubList struct {
	active []string
}

func (s *stubList) ListActive() []string { return s.active }

func newTestService(transport *stubTransport, ledger *stubLedger, list *stubList, primary string) *Service {
	return NewService(transport, ledger, list, primary, zerolog.Nop())
}

func TestSendRejectsEmptyRequest(t *testing.T) {
	svc := newTestService(&stubTransport{}, &stubLedger{}, &stubList{active: []string{"1"}}, "")
	_, err := svc.Send(context.Background(), domain.SendRequest{Text: "   "})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("ожидали ErrInvalidRequest, получили %v", err)
	}
}

func TestSendWithoutRecipients(t *testing.T) {
	svc := newTestService(&stubTransport{}, &stubLedger{}, &stubList{}, "")
	_, err := svc.Send(context.Background(), domain.SendRequest{Text: "hello"})
	if !errors.Is(err, domain.ErrNoRecipients) {
		t.Fatalf("ожидали ErrNoRecipients, получили %v", err)
	}
}

func TestSendTargetsPrimaryChat(t *testing.T) {
	transport := &stubTransport{}
	ledger := &stubLedger{}
	svc := newTestService(transport, ledger, &stubList{active: []string{"222"}}, "111")

	id, err := svc.Send(context.Background(), domain.SendRequest{Text: "hello"})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if transport.sent[0].ChatID != "111" {
		t.Fatalf("основной чат имеет приоритет, отправили в %s", transport.sent[0].ChatID)
	}
	if len(ledger.recorded) != 1 || ledger.recorded[0] != id {
		t.Fatalf("успешная отправка должна регистрироваться в журнале: %v", ledger.recorded)
	}
}

func TestSendFallsBackToFirstActive(t *testing.T) {
	transport := &stubTransport{}
	svc := newTestService(transport, &stubLedger{}, &stubList{active: []string{"333", "444"}}, "")

	if _, err := svc.Send(context.Background(), domain.SendRequest{Text: "hello"}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if transport.sent[0].ChatID != "333" {
		t.Fatalf("без основного чата адресат — первый активный, получили %s", transport.sent[0].ChatID)
	}
}

func TestSendClassifiesMedia(t *testing.T) {
	cases := map[string]domain.MediaKind{
		"photo.JPG":   domain.MediaPhoto,
		"clip.mp4":    domain.MediaVideo,
		"archive.zip": domain.MediaDocument,
	}
	for filename, expected := range cases {
		transport := &stubTransport{}
		svc := newTestService(transport, &stubLedger{}, &stubList{active: []string{"1"}}, "")
		req := domain.SendRequest{Filename: filename, FileContent: []byte{1, 2, 3}}
		if _, err := svc.Send(context.Background(), req); err != nil {
			t.Fatalf("не ожидали ошибку для %s: %v", filename, err)
		}
		if got := transport.sent[0].Kind; got != expected {
			t.Fatalf("%s: ожидали %s, получили %s", filename, expected, got)
		}
	}
}

func TestSendWrapsTransportError(t *testing.T) {
	transport := &stubTransport{sendErr: errors.New("boom")}
	ledger := &stubLedger{}
	svc := newTestService(transport, ledger, &stubList{active: []string{"1"}}, "")

	_, err := svc.Send(context.Background(), domain.SendRequest{Text: "hello"})
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("ожидали ErrTransport, получили %v", err)
	}
	if len(ledger.recorded) != 0 {
		t.Fatalf("неудачная отправка не должна попадать в журнал")
	}
}

func TestHandleCallbackEditsMessage(t *testing.T) {
	transport := &stubTransport{}
	ledger := &stubLedger{accept: true}
	svc := newTestService(transport, ledger, &stubList{}, "")

	svc.HandleCallback(context.Background(), "1", "50", "Deploy?", "yes")
	if len(ledger.appended["50"]) != 1 || ledger.appended["50"][0] != "yes" {
		t.Fatalf("нажатие кнопки должно попадать в журнал: %v", ledger.appended)
	}
	if len(transport.edits) != 1 {
		t.Fatalf("исходное сообщение должно редактироваться, правок: %d", len(transport.edits))
	}
	if transport.edits[0] != "Deploy?\n\nGot answer: yes" {
		t.Fatalf("unexpected edited text: %q", transport.edits[0])
	}
}

func TestHandleCallbackStaleSkipsEdit(t *testing.T) {
	transport := &stubTransport{}
	svc := newTestService(transport, &stubLedger{accept: false}, &stubList{}, "")

	svc.HandleCallback(context.Background(), "1", "50", "Deploy?", "yes")
	if len(transport.edits) != 0 {
		t.Fatalf("истёкшее нажатие не должно редактировать сообщение")
	}
}

func TestBroadcastTextBestEffort(t *testing.T) {
	transport := &stubTransport{sendErr: errors.New("boom")}
	svc := newTestService(transport, &stubLedger{}, &stubList{active: []string{"1", "2", "3"}}, "")

	svc.BroadcastText(context.Background(), "news")
	if len(transport.sent) != 3 {
		t.Fatalf("сбой одного получателя не должен прерывать рассылку, отправок: %d", len(transport.sent))
	}
}

func TestBroadcastFileSendsToAllActive(t *testing.T) {
	transport := &stubTransport{}
	svc := newTestService(transport, &stubLedger{}, &stubList{active: []string{"1", "2"}}, "")

	svc.BroadcastFile(context.Background(), "report.png", []byte{1}, "daily")
	if len(transport.sent) != 2 {
		t.Fatalf("ожидали 2 отправки, получили %d", len(transport.sent))
	}
	for _, msg := range transport.sent {
		if msg.Kind != domain.MediaPhoto {
			t.Fatalf("png должен уходить как фото, получили %s", msg.Kind)
		}
		if msg.Text != "daily" {
			t.Fatalf("подпись потеряна: %q", msg.Text)
		}
	}
}
