package recipients

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestStore(t *testing.T, seed []string) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "database.json")
	return Load(path, seed, zerolog.Nop()), path
}

func TestLoadCreatesMissingDatabase(t *testing.T) {
	s, path := newTestStore(t, nil)
	if got := s.ListActive(); len(got) != 0 {
		t.Fatalf("новая база должна быть пустой, получили %v", got)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("файл базы должен создаваться на старте: %v", err)
	}
}

func TestLoadSeedsActiveUsers(t *testing.T) {
	s, _ := newTestStore(t, []string{"111", " 222 ", ""})
	got := s.ListActive()
	if len(got) != 2 || got[0] != "111" || got[1] != "222" {
		t.Fatalf("ожидали [111 222], получили %v", got)
	}
}

func TestAddIdempotent(t *testing.T) {
	s, _ := newTestStore(t, nil)
	if err := s.Add("42"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if err := s.Add("42"); err != nil {
		t.Fatalf("повторное добавление должно быть no-op: %v", err)
	}
	if got := s.ListActive(); len(got) != 1 {
		t.Fatalf("ожидали одного получателя, получили %v", got)
	}
	if !s.IsValid("42") || !s.IsActive("42") {
		t.Fatalf("добавленный получатель должен быть известен и активен")
	}
}

func TestDeactivateActivateCycle(t *testing.T) {
	s, _ := newTestStore(t, []string{"42"})

	if err := s.Deactivate("42"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if s.IsActive("42") {
		t.Fatalf("после deactivate получатель не должен быть активен")
	}
	if !s.IsValid("42") {
		t.Fatalf("deactivate не должен забывать получателя")
	}
	if got := s.ListActive(); len(got) != 0 {
		t.Fatalf("активных быть не должно, получили %v", got)
	}

	if err := s.Activate("42"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !s.IsActive("42") {
		t.Fatalf("после activate получатель должен быть активен")
	}

	// Повторные переходы — no-op.
	if err := s.Activate("42"); err != nil {
		t.Fatalf("повторный activate должен быть no-op: %v", err)
	}
	if err := s.Deactivate("нет такого"); err != nil {
		t.Fatalf("deactivate неизвестного должен быть no-op: %v", err)
	}
}

func TestStatePersistsAcrossLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.json")

	s := Load(path, []string{"1", "2"}, zerolog.Nop())
	if err := s.Deactivate("2"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	reloaded := Load(path, nil, zerolog.Nop())
	if !reloaded.IsActive("1") {
		t.Fatalf("активный получатель потерян после перезагрузки")
	}
	if reloaded.IsActive("2") || !reloaded.IsValid("2") {
		t.Fatalf("неактивный получатель должен остаться неактивным")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("не удалось прочитать базу: %v", err)
	}
	if !strings.Contains(string(raw), `"users"`) {
		t.Fatalf("файл базы должен содержать документ users: %s", raw)
	}
}

func TestListActiveReturnsSnapshot(t *testing.T) {
	s, _ := newTestStore(t, []string{"1"})
	snapshot := s.ListActive()
	if err := s.Add("2"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(snapshot) != 1 {
		t.Fatalf("снимок не должен меняться после Add, получили %v", snapshot)
	}
}
