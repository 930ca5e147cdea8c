package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // TIMEZONE работает и в образах без системной базы зон

	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Environment string
	DBDSN       string
	Storage     string
	HTTPAddr    string
	Location    *time.Location

	CommitTimeout      time.Duration
	RequestTimeout     time.Duration
	MaxResolveDays     int
	CommitRatePerMin   int
	CommitBurst        int
	CommitLimiterTTL   time.Duration
	CompletionInterval time.Duration

	TelegramToken  string
	OperatorChatID int64

	LogFile string
	// EnvFileLoaded true если значения подтянуты из .env
	EnvFileLoaded bool
}

// Load читает конфигурацию из окружения, предварительно подгружая .env если он есть
func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	loaded := godotenv.Load(".env") == nil
	return FromEnv(loaded)
}

// FromEnv собирает конфигурацию из уже выставленных переменных окружения
func FromEnv(envFileLoaded bool) (*Config, error) {
	cfg := &Config{
		Environment:   getenv("ENV", "development"),
		DBDSN:         os.Getenv("DB_DSN"),
		Storage:       getenv("STORAGE", StoragePostgres),
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		LogFile:       os.Getenv("LOG_FILE"),
		EnvFileLoaded: envFileLoaded,
	}

	var err error
	if cfg.Location, err = time.LoadLocation(getenv("TIMEZONE", "UTC")); err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	if cfg.CommitTimeout, err = durationEnv("COMMIT_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = durationEnv("REQUEST_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.CompletionInterval, err = durationEnv("COMPLETION_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.MaxResolveDays, err = intEnv("MAX_RESOLVE_DAYS", 62); err != nil {
		return nil, err
	}
	if cfg.CommitRatePerMin, err = intEnv("COMMIT_RATE_PER_MIN", 30); err != nil {
		return nil, err
	}
	if cfg.CommitBurst, err = intEnv("COMMIT_BURST", 10); err != nil {
		return nil, err
	}
	if cfg.CommitLimiterTTL, err = durationEnv("COMMIT_LIMITER_IDLE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if raw := os.Getenv("OPERATOR_CHAT_ID"); raw != "" {
		if cfg.OperatorChatID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, fmt.Errorf("OPERATOR_CHAT_ID must be an integer: %w", err)
		}
	}

	// Проверяем обязательные поля
	switch cfg.Storage {
	case StoragePostgres:
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required but not set")
		}
	case StorageMemory:
	default:
		return nil, fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, cfg.Storage)
	}
	if cfg.CommitTimeout <= 0 {
		return nil, fmt.Errorf("COMMIT_TIMEOUT must be positive")
	}
	if cfg.MaxResolveDays < 1 {
		return nil, fmt.Errorf("MAX_RESOLVE_DAYS must be at least 1")
	}
	if cfg.TelegramToken != "" && cfg.OperatorChatID == 0 {
		return nil, fmt.Errorf("OPERATOR_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}

	return cfg, nil
}

// NotificationsEnabled включены ли уведомления оператору в Telegram
func (c *Config) NotificationsEnabled() bool {
	return c.TelegramToken != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
