package recipients

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// DefaultPath — запасной путь базы, если основной недоступен.
const DefaultPath = "/tmp/tgcli_database.json"

type userSets struct {
	Active   []string `json:"active"`
	Inactive []string `json:"inactive"`
}

type document struct {
	Users userSets `json:"users"`
}

// Store — персистентный список получателей с активным/неактивным
// состоянием. Все операции сериализуются одним мьютексом: чтение,
// изменение и запись файла — единый шаг с точки зрения вызывающего.
type Store struct {
	mu   sync.Mutex
	path string
	doc  document
	log  zerolog.Logger
}

// Load читает базу по указанному пути. Отсутствующий файл — не ошибка:
// стартуем с пустой базой и создаём файл. Нечитаемый файл деградирует
// к запасному пути, затем к пустой базе; процесс не падает.
// Каждый id из seed, которого ещё нет в базе, попадает в active.
func Load(path string, seed []string, logger zerolog.Logger) *Store {
	s := &Store{path: path, log: logger}

	if err := s.read(path); err != nil {
		if os.IsNotExist(err) {
			logger.Info().Str("path", path).Msg("база получателей не найдена, создаём новую")
		} else {
			logger.Error().Err(err).Str("path", path).Str("fallback", DefaultPath).
				Msg("не удалось прочитать базу получателей, пробуем запасной путь")
			s.path = DefaultPath
			if err := s.read(DefaultPath); err != nil && !os.IsNotExist(err) {
				logger.Warn().Err(err).Str("path", DefaultPath).Msg("запасная база тоже не читается, стартуем с пустой")
			}
		}
	}

	for _, id := range seed {
		id = strings.TrimSpace(id)
		if id == "" || s.contains(id) {
			continue
		}
		s.doc.Users.Active = append(s.doc.Users.Active, id)
	}

	logger.Info().Strs("active", s.doc.Users.Active).Strs("inactive", s.doc.Users.Inactive).
		Msg("база получателей загружена")
	if err := s.persist(); err != nil {
		logger.Error().Err(err).Msg("не удалось сохранить базу получателей")
	}
	return s
}

func (s *Store) read(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("разбор базы: %w", err)
	}
	s.doc = doc
	return nil
}

// persist переписывает весь документ целиком через временный файл и
// rename, чтобы сбой посреди записи не испортил прежнее содержимое.
// Вызывается только под s.mu.
func (s *Store) persist() error {
	raw, err := json.MarshalIndent(s.doc, "", "    ")
	if err != nil {
		return fmt.Errorf("кодирование базы: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".tgcli_database-*")
	if err != nil {
		return fmt.Errorf("временный файл базы: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("запись базы: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("запись базы: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("замена базы: %w", err)
	}
	return nil
}

func (s *Store) contains(id string) bool {
	return containsID(s.doc.Users.Active, id) || containsID(s.doc.Users.Inactive, id)
}

func containsID(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(list []string, id string) []string {
	out := list[:0]
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// IsValid сообщает, известен ли id базе (в любом состоянии).
func (s *Store) IsValid(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contains(id)
}

// IsActive сообщает, активен ли получатель.
func (s *Store) IsActive(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return containsID(s.doc.Users.Active, id)
}

// Add вносит нового получателя в active. Повторное добавление — no-op.
// Ошибка записи файла возвращается для логирования, но изменение в
// памяти остаётся: потеря записи — осознанный компромисс, а не сбой.
func (s *Store) Add(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.contains(id) {
		return nil
	}
	s.doc.Users.Active = append(s.doc.Users.Active, id)
	return s.persistLogged()
}

// Activate переводит получателя из inactive в active. Если id не в
// inactive — no-op.
func (s *Store) Activate(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !containsID(s.doc.Users.Inactive, id) {
		return nil
	}
	s.doc.Users.Inactive = removeID(s.doc.Users.Inactive, id)
	if !containsID(s.doc.Users.Active, id) {
		s.doc.Users.Active = append(s.doc.Users.Active, id)
	}
	return s.persistLogged()
}

// Deactivate переводит получателя из active в inactive. Если id не в
// active — no-op. Записи никогда не удаляются совсем.
func (s *Store) Deactivate(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !containsID(s.doc.Users.Active, id) {
		return nil
	}
	s.doc.Users.Active = removeID(s.doc.Users.Active, id)
	if !containsID(s.doc.Users.Inactive, id) {
		s.doc.Users.Inactive = append(s.doc.Users.Inactive, id)
	}
	return s.persistLogged()
}

// ListActive возвращает снимок активных получателей; последующие
// изменения базы на него не влияют.
func (s *Store) ListActive() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.doc.Users.Active...)
}

func (s *Store) persistLogged() error {
	if err := s.persist(); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("не удалось сохранить базу получателей")
		return err
	}
	return nil
}
