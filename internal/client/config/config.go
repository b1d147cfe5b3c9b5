// Package config читает настройки клиента из переменных окружения
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config настройки клиента. Флаги командной строки переопределяют эти значения.
type Config struct {
	ServerURL    string        `env:"AGRO_SERVER_URL" env-default:"http://localhost:8080"`
	DBPath       string        `env:"AGRO_CLIENT_DB" env-default:"agroprofile-client.db"`
	Timeout      time.Duration `env:"AGRO_CLIENT_TIMEOUT" env-default:"30s"`
	// OfflineLogin работает только для профиля, зарегистрированного офлайн на этом устройстве
	OfflineLogin bool          `env:"AGRO_OFFLINE_LOGIN" env-default:"false"`
}

// Load читает переменные окружения
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("cannot read env: %w", err)
	}
	return &cfg, nil
}

// Validate проверяет адрес сервера и путь к базе
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server url %q: %w", c.ServerURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server url %q must use http or https", c.ServerURL)
	}
	if u.Host == "" {
		return fmt.Errorf("server url %q has no host", c.ServerURL)
	}
	if c.DBPath == "" {
		return fmt.Errorf("local database path cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}
