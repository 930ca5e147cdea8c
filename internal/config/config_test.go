package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"ENV", "DB_DSN", "STORAGE", "HTTP_ADDR", "TIMEZONE", "COMMIT_TIMEOUT", "REQUEST_TIMEOUT",
	"MAX_RESOLVE_DAYS", "COMMIT_RATE_PER_MIN", "COMMIT_BURST", "TELEGRAM_TOKEN",
	"OPERATOR_CHAT_ID", "LOG_FILE", "COMPLETION_INTERVAL", "COMMIT_LIMITER_IDLE_TTL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DSN", "postgres://localhost/concierge")

	cfg, err := FromEnv(false)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, 5*time.Second, cfg.CommitTimeout)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Hour, cfg.CompletionInterval)
	assert.Equal(t, 62, cfg.MaxResolveDays)
	assert.Equal(t, 30, cfg.CommitRatePerMin)
	assert.Equal(t, 10, cfg.CommitBurst)
	assert.Equal(t, 10*time.Minute, cfg.CommitLimiterTTL)
	assert.False(t, cfg.NotificationsEnabled())
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE", "memory")
	t.Setenv("TIMEZONE", "Europe/Moscow")
	t.Setenv("COMMIT_TIMEOUT", "2s")
	t.Setenv("MAX_RESOLVE_DAYS", "14")
	t.Setenv("COMMIT_LIMITER_IDLE_TTL", "30m")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("OPERATOR_CHAT_ID", "-100500")

	cfg, err := FromEnv(true)
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, "Europe/Moscow", cfg.Location.String())
	assert.Equal(t, 2*time.Second, cfg.CommitTimeout)
	assert.Equal(t, 14, cfg.MaxResolveDays)
	assert.Equal(t, 30*time.Minute, cfg.CommitLimiterTTL)
	assert.Equal(t, int64(-100500), cfg.OperatorChatID)
	assert.True(t, cfg.NotificationsEnabled())
	assert.True(t, cfg.EnvFileLoaded)
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing dsn", map[string]string{}},
		{"unknown storage", map[string]string{"STORAGE": "redis"}},
		{"bad timezone", map[string]string{"STORAGE": "memory", "TIMEZONE": "Mars/Olympus"}},
		{"bad duration", map[string]string{"STORAGE": "memory", "COMMIT_TIMEOUT": "soon"}},
		{"zero timeout", map[string]string{"STORAGE": "memory", "COMMIT_TIMEOUT": "0s"}},
		{"bad int", map[string]string{"STORAGE": "memory", "COMMIT_BURST": "ten"}},
		{"token without chat", map[string]string{"STORAGE": "memory", "TELEGRAM_TOKEN": "123:abc"}},
		{"bad chat id", map[string]string{"STORAGE": "memory", "OPERATOR_CHAT_ID": "ops"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv(false)
			assert.Error(t, err)
		})
	}
}
