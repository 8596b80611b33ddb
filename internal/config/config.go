package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// ServerConfig holds the settings both services share.
type ServerConfig struct {
	AllowedOrigin  string     `env:"ALLOWED_ORIGIN" envDefault:"http://localhost:3000"`
	LogLevel       slog.Level `env:"LOG_LEVEL" envDefault:"info"`
	MetricsEnabled bool       `env:"METRICS_ENABLED" envDefault:"true"`
}

type EcgConfig struct {
	ServerConfig
	Port int `env:"PORT" envDefault:"8001"`
}

type AiConfig struct {
	ServerConfig
	Port int `env:"PORT" envDefault:"8002"`

	Provider string        `env:"AI_PROVIDER" envDefault:"gemini"`
	Timeout  time.Duration `env:"AI_TIMEOUT" envDefault:"30s"`

	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	GoogleAPIKey  string `env:"GOOGLE_API_KEY"`
	GeminiModel   string `env:"GEMINI_MODEL" envDefault:"gemini-pro"`
	GeminiBaseURL string `env:"GEMINI_BASE_URL"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// GeminiKey prefers GEMINI_API_KEY and falls back to GOOGLE_API_KEY.
func (c AiConfig) GeminiKey() string {
	if c.GeminiAPIKey != "" {
		return c.GeminiAPIKey
	}
	return c.GoogleAPIKey
}

func Load[T any]() (T, error) {
	var cfg T
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("error parsing config: %w", err)
	}
	return cfg, nil
}
