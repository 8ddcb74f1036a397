package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию релея. Значение собирается один раз
// на старте и дальше никем не изменяется.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" json:"-"`
	Debug  bool   `envconfig:"TGCLI_DEBUG" json:"debug"`

	Token  string `envconfig:"TGCLI_TOKEN" json:"token"`
	ChatID string `envconfig:"TGCLI_CHAT_ID" json:"chat_id"`

	API struct {
		Host string `envconfig:"TGCLI_HOST" json:"host"`
		Port int    `envconfig:"TGCLI_PORT" json:"port"`
	} `envconfig:"" json:"api"`

	Auth struct {
		Mode     string   `envconfig:"AUTH_MODE" json:"mode"`
		Users    []string `envconfig:"AUTH_USERS" json:"users"`
		Password string   `envconfig:"AUTH_PASSWORD" json:"password"`
	} `envconfig:"" json:"auth"`

	DBPath      string `envconfig:"DB_PATH" json:"database"`
	MetricsAddr string `envconfig:"METRICS_ADDR" json:"metrics_addr"`

	Ledger struct {
		Retention     time.Duration `envconfig:"REPLY_RETENTION" json:"retention"`
		SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" json:"sweep_interval"`
	} `envconfig:"" json:"ledger"`

	TransportTimeout time.Duration `envconfig:"TRANSPORT_TIMEOUT" json:"transport_timeout"`
}

// Default возвращает встроенные значения по умолчанию.
func Default() AppConfig {
	var cfg AppConfig
	cfg.AppEnv = "prod"
	cfg.API.Host = "0.0.0.0"
	cfg.API.Port = 4444
	cfg.Auth.Mode = "userlist"
	cfg.DBPath = "/workspace/tgcli_database.json"
	cfg.MetricsAddr = ":9090"
	cfg.Ledger.Retention = 48 * time.Hour
	cfg.Ledger.SweepInterval = 24 * time.Hour
	cfg.TransportTimeout = 5 * time.Second
	return cfg
}

// Load собирает конфиг: значения по умолчанию, поверх — JSON-файл,
// поверх — переменные окружения. Отсутствующий файл не ошибка.
func Load(path string) (AppConfig, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(raw, &cfg); err != nil {
				return AppConfig{}, fmt.Errorf("разбор конфига %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// работаем с дефолтами, предупреждение пишет вызывающий
		default:
			return AppConfig{}, fmt.Errorf("чтение конфига %s: %w", path, err)
		}
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("разбор окружения: %w", err)
	}

	return cfg, nil
}

// Validate проверяет стартовые требования: без токена и, в режиме
// password, без пароля процесс запускаться не должен.
func (c AppConfig) Validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return fmt.Errorf("не задан токен бота (TGCLI_TOKEN)")
	}
	switch c.Auth.Mode {
	case "userlist":
	case "password":
		if strings.TrimSpace(c.Auth.Password) == "" {
			return fmt.Errorf("режим password требует непустой пароль (AUTH_PASSWORD)")
		}
	default:
		return fmt.Errorf("неизвестный режим авторизации %q", c.Auth.Mode)
	}
	return nil
}

// ListenAddr — адрес локального API.
func (c AppConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}
