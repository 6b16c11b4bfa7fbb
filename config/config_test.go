package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "db.local")
	t.Setenv("DB_NAME", "travel")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("GROQ_API_KEY", "gsk_test")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, "require", cfg.DB.SSLMode)
	assert.Equal(t, "travel2024!", cfg.Auth.AppPassword)
	assert.Equal(t, time.Hour, cfg.SessionTimeout())
	assert.Equal(t, "llama-3.1-8b-instant", cfg.LLM.GroqModel)
	assert.Equal(t, "sqlite", cfg.Telemetry.Backend)
	assert.Equal(t, "monitoring.db", cfg.Telemetry.SQLitePath)
	assert.Equal(t, "logs.txt", cfg.Telemetry.LogFile)
	assert.Equal(t, "8080", cfg.Port)

	assert.Equal(t,
		"host=db.local port=5432 dbname=travel user=app password=pw sslmode=require",
		PostgresDSN(cfg))
}

func TestLoadRejectsMissingGroqKey(t *testing.T) {
	setRequired(t)
	t.Setenv("GROQ_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GROQ_API_KEY")
}

func TestLoadRequiresMongoURIForMongoBackend(t *testing.T) {
	setRequired(t)
	t.Setenv("TELEMETRY_BACKEND", "mongo")
	t.Setenv("MONGO_URI", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGO_URI")
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SESSION_TIMEOUT", "90")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.SessionTimeout())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
}

func TestLoadTelemetryNeedsOnlyTelemetrySettings(t *testing.T) {
	for _, k := range []string{"DB_HOST", "DB_NAME", "DB_USER", "DB_PASSWORD", "REDIS_ADDR", "GROQ_API_KEY"} {
		t.Setenv(k, "")
	}
	t.Setenv("TELEMETRY_SQLITE_PATH", "/tmp/mon.db")

	cfg, err := LoadTelemetry()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Telemetry.Backend)
	assert.Equal(t, "/tmp/mon.db", cfg.Telemetry.SQLitePath)
	assert.Equal(t, "info", cfg.LogLevel)

	t.Setenv("TELEMETRY_BACKEND", "mongo")
	_, err = LoadTelemetry()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGO_URI")
}

func TestLoadLLMNeedsOnlyProviderSettings(t *testing.T) {
	for _, k := range []string{"DB_HOST", "DB_NAME", "DB_USER", "DB_PASSWORD", "REDIS_ADDR"} {
		t.Setenv(k, "")
	}
	t.Setenv("GROQ_API_KEY", "gsk_test")

	cfg, err := LoadLLM()
	require.NoError(t, err)
	assert.Equal(t, "gsk_test", cfg.LLM.GroqAPIKey)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.LLM.GroqModel)

	t.Setenv("GROQ_API_KEY", "")
	_, err = LoadLLM()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GROQ_API_KEY")
}
