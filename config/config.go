package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the typed process configuration. Values come from the
// environment after .env and config.env have been loaded into it.
type Config struct {
	Port     string `env:"PORT" env-default:"8080"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`

	DB struct {
		Host     string `env:"DB_HOST" env-required:"true"`
		Port     int    `env:"DB_PORT" env-default:"5432"`
		Name     string `env:"DB_NAME" env-required:"true"`
		User     string `env:"DB_USER" env-required:"true"`
		Password string `env:"DB_PASSWORD" env-required:"true"`
		SSLMode  string `env:"DB_SSLMODE" env-default:"require"`
	}

	LLM LLMSettings

	Auth struct {
		AppPassword       string `env:"APP_PASSWORD" env-default:"travel2024!"`
		TimeoutSeconds    int    `env:"SESSION_TIMEOUT" env-default:"3600"`
		SigningKey        string `env:"SESSION_SIGNING_KEY"`
		AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`
	}

	RedisAddr string `env:"REDIS_ADDR" env-required:"true"`

	Telemetry TelemetrySettings

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:","`
}

type LLMSettings struct {
	Provider    string `env:"LLM_PROVIDER" env-default:"groq"`
	GroqAPIKey  string `env:"GROQ_API_KEY"`
	GroqModel   string `env:"GROQ_MODEL" env-default:"llama-3.1-8b-instant"`
	GroqBaseURL string `env:"GROQ_BASE_URL" env-default:"https://api.groq.com/openai/v1"`

	VertexProject  string `env:"VERTEX_PROJECT"`
	VertexLocation string `env:"VERTEX_LOCATION" env-default:"us-central1"`
	VertexModel    string `env:"VERTEX_MODEL" env-default:"gemini-1.5-flash"`
	VertexCredFile string `env:"VERTEX_CREDENTIALS_FILE"`
}

type TelemetrySettings struct {
	Backend    string `env:"TELEMETRY_BACKEND" env-default:"sqlite"`
	SQLitePath string `env:"TELEMETRY_SQLITE_PATH" env-default:"monitoring.db"`
	LogFile    string `env:"TELEMETRY_LOG_FILE" env-default:"logs.txt"`
	MongoURI   string `env:"MONGO_URI"`
	MongoDB    string `env:"MONGO_DB" env-default:"yootravel"`
}

// TelemetryConfig is what the telemetry maintenance command needs. It
// does not require the primary database or Redis.
type TelemetryConfig struct {
	LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
	Telemetry TelemetrySettings
}

// LLMConfig is what the provider check command needs.
type LLMConfig struct {
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`
	LLM      LLMSettings
}

func loadDotenv() {
	for _, f := range []string{".env", "config.env"} {
		_ = godotenv.Load(f)
	}
}

// Load reads .env and config.env (when present) into the environment and
// then populates Config from it. Missing required settings are an error.
func Load() (*Config, error) {
	loadDotenv()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func LoadTelemetry() (*TelemetryConfig, error) {
	loadDotenv()

	var cfg TelemetryConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Telemetry.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func LoadLLM() (*LLMConfig, error) {
	loadDotenv()

	var cfg LLMConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.LLM.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	if c.Auth.TimeoutSeconds <= 0 {
		return errors.New("SESSION_TIMEOUT must be positive")
	}
	return nil
}

func (l *LLMSettings) Validate() error {
	switch strings.ToLower(l.Provider) {
	case "groq":
		if l.GroqAPIKey == "" {
			return errors.New("GROQ_API_KEY not found in environment variables")
		}
	case "vertex":
		if l.VertexProject == "" {
			return errors.New("VERTEX_PROJECT is required when LLM_PROVIDER=vertex")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", l.Provider)
	}
	return nil
}

func (t *TelemetrySettings) Validate() error {
	switch strings.ToLower(t.Backend) {
	case "sqlite":
	case "mongo":
		if t.MongoURI == "" {
			return errors.New("MONGO_URI is required when TELEMETRY_BACKEND=mongo")
		}
	default:
		return fmt.Errorf("unknown TELEMETRY_BACKEND %q", t.Backend)
	}
	return nil
}

// SessionTimeout is the idle window after which a chat session must log in again.
func (c *Config) SessionTimeout() time.Duration {
	return time.Duration(c.Auth.TimeoutSeconds) * time.Second
}
