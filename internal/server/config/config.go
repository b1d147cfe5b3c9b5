// Package config загружает настройки сервера из YAML файла и переменных окружения
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	// MinSecretLen минимальная длина HMAC секрета вне local окружения
	MinSecretLen = 32

	// localSecret используется только при Env=local и пустом AGRO_JWT_SECRET
	localSecret = "local-development-secret-do-not-use-in-prod"
)

// Config общая структура для хранения настроек сервера
type Config struct {
	Env        string     `yaml:"env" env:"AGRO_ENV" env-default:"local"`
	LogLevel   string     `yaml:"log_level" env:"AGRO_LOG_LEVEL" env-default:"info"`
	Storage    Storage    `yaml:"storage"`
	JWT        JWT        `yaml:"jwt"`
	HTTPServer HTTPServer `yaml:"http_server"`
	RateLimit  RateLimit  `yaml:"rate_limit"`
}

// HTTPServer настройки HTTP сервера
type HTTPServer struct {
	Address         string        `yaml:"address" env:"AGRO_HTTP_ADDRESS" env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"AGRO_HTTP_READ_TIMEOUT" env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"AGRO_HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"AGRO_HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"AGRO_SHUTDOWN_TIMEOUT" env-default:"15s"`
}

// Storage настройки SQLite
type Storage struct {
	DBPath string `yaml:"db_path" env:"AGRO_DB_PATH" env-default:"agroprofile.db"`
}

// JWT настройки сессионных токенов
type JWT struct {
	Secret   string        `yaml:"secret" env:"AGRO_JWT_SECRET"`
	TokenTTL time.Duration `yaml:"token_ttl" env:"AGRO_TOKEN_TTL" env-default:"24h"`
}

// RateLimit ограничение частоты запросов к register/login на один IP
type RateLimit struct {
	RPS        float64 `yaml:"rps" env:"AGRO_RATE_LIMIT" env-default:"5"`
	Burst      int     `yaml:"burst" env:"AGRO_RATE_BURST" env-default:"10"`
	// TrustProxy лимит по X-Forwarded-For. Только за своим reverse proxy.
	TrustProxy bool    `yaml:"trust_proxy" env:"AGRO_TRUST_PROXY" env-default:"false"`
}

// Load читает конфиг. Если path не пустой, сначала читается YAML файл,
// затем переменные окружения поверх него.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("cannot read config %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("cannot read env: %w", err)
		}
	}

	if cfg.Env == EnvLocal && cfg.JWT.Secret == "" {
		cfg.JWT.Secret = localSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate проверяет значения, для которых нет безопасного дефолта
func (c *Config) Validate() error {
	var errs []error

	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		errs = append(errs, fmt.Errorf("unknown env %q", c.Env))
	}

	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt secret is required"))
	} else if c.Env != EnvLocal && len(c.JWT.Secret) < MinSecretLen {
		errs = append(errs, fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLen))
	}

	if c.JWT.TokenTTL <= 0 {
		errs = append(errs, errors.New("token ttl must be positive"))
	}
	if c.Storage.DBPath == "" {
		errs = append(errs, errors.New("db path is required"))
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("rate limit and burst must be positive"))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// SlogLevel возвращает уровень логирования
func (c *Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// String выводит конфиг без секрета
func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"LogLevel: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  ReadTimeout: %s\n"+
			"  WriteTimeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Storage:\n"+
			"  DBPath: %s\n"+
			"JWT:\n"+
			"  Secret: ***\n"+
			"  TokenTTL: %s\n"+
			"RateLimit:\n"+
			"  RPS: %g\n"+
			"  Burst: %d\n"+
			"  TrustProxy: %t\n",
		c.Env,
		c.LogLevel,
		c.HTTPServer.Address,
		c.HTTPServer.ReadTimeout,
		c.HTTPServer.WriteTimeout,
		c.HTTPServer.IdleTimeout,
		c.Storage.DBPath,
		c.JWT.TokenTTL,
		c.RateLimit.RPS,
		c.RateLimit.Burst,
		c.RateLimit.TrustProxy,
	)
}
