package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks the legacy aliases so a developer's shell does not leak
// into the tests. viper treats empty variables as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GOOGLE_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY", "OPENAI_BASE_URL",
		"DATABASE_URL", "REDIS_ADDR", "GRPC_ADDR", "GRPC_HOST", "GRPC_PORT", "HTTP_ADDR",
		"SMARTSCHEDULER_LLM_PROVIDER", "SMARTSCHEDULER_CALENDAR_BACKEND", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:50051", cfg.GRPCAddr)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.GRPCRequestTimeout)
	assert.Equal(t, CalendarLocal, cfg.CalendarBackend)
	assert.Equal(t, "primary", cfg.CalendarID)
	assert.Equal(t, 30*time.Minute, cfg.SlotStep)
	assert.Equal(t, 9, cfg.WorkdayStartHour)
	assert.Equal(t, 17, cfg.WorkdayEndHour)
	assert.Equal(t, 7*24*time.Hour, cfg.CancelHorizon)
	assert.Equal(t, LLMNone, cfg.LLMProvider)
	assert.Equal(t, "en-US", cfg.SpeechLanguage)
	assert.Equal(t, "espeak -s 175 --stdin", cfg.TTSCommand)
	assert.Empty(t, cfg.RedisAddr)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EnvOverridesAndAliases(t *testing.T) {
	clearEnv(t)
	t.Setenv("GRPC_ADDR", "127.0.0.1:6000")
	t.Setenv("SMARTSCHEDULER_CALENDAR_SLOT_STEP", "15m")
	t.Setenv("SMARTSCHEDULER_CALENDAR_BACKEND", "Google")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("SMARTSCHEDULER_LLM_PHRASING", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.GRPCHost)
	assert.Equal(t, 6000, cfg.GRPCPort)
	assert.Equal(t, "127.0.0.1:6000", cfg.GRPCAddr)
	assert.Equal(t, 15*time.Minute, cfg.SlotStep)
	assert.Equal(t, CalendarGoogle, cfg.CalendarBackend)
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DatabaseURL)
	assert.Equal(t, LLMOpenAI, cfg.LLMProvider)
	assert.True(t, cfg.LLMPhrasing)
}

func TestLoad_GeminiPreferredWhenBothKeysSet(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, LLMGemini, cfg.LLMProvider)
	assert.Equal(t, "g-key", cfg.GeminiAPIKey)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "smartscheduler.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
calendar:
  id: team@example.com
  workday_start: 8
  workday_end: 18
redis:
  addr: localhost:6379
  busy_ttl: 2m
log:
  level: debug
`), 0o600))
	t.Setenv("SMARTSCHEDULER_LOG_LEVEL", "warn")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "team@example.com", cfg.CalendarID)
	assert.Equal(t, 8, cfg.WorkdayStartHour)
	assert.Equal(t, 18, cfg.WorkdayEndHour)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2*time.Minute, cfg.BusyCacheTTL)
	assert.Equal(t, "warn", cfg.LogLevel, "environment wins over the file")

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad duration", env: map[string]string{"SMARTSCHEDULER_GRPC_REQUEST_TIMEOUT": "soon"}},
		{name: "unknown backend", env: map[string]string{"SMARTSCHEDULER_CALENDAR_BACKEND": "outlook"}},
		{name: "unknown provider", env: map[string]string{"SMARTSCHEDULER_LLM_PROVIDER": "llama"}},
		{name: "provider without key", env: map[string]string{"SMARTSCHEDULER_LLM_PROVIDER": "gemini"}},
		{name: "inverted workday", env: map[string]string{"SMARTSCHEDULER_CALENDAR_WORKDAY_START": "18"}},
		{name: "zero step", env: map[string]string{"SMARTSCHEDULER_CALENDAR_SLOT_STEP": "0s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
