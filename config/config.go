// Package config loads runtime configuration for model providers, session
// backends, and logging from the environment. A local .env file is honored
// when present, making development setups a one-file affair.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/hupe1980/agentcore/logging"
)

// Config aggregates all environment-driven settings.
type Config struct {
	Log       LogConfig
	OpenAI    OpenAIConfig
	Anthropic AnthropicConfig
	Redis     RedisConfig
}

// LogConfig controls the default logger.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"text"`
}

// Logger builds the logger the config describes. LOG_FORMAT=zap selects
// zap's production core; "json" and "text" select a slog backed logger in
// that format at the configured level.
func (c LogConfig) Logger() (logging.Logger, error) {
	if c.Format == "zap" {
		return logging.NewZapProduction()
	}
	return logging.NewSlogLogger(logging.ParseLevel(c.Level), c.Format, false), nil
}

// OpenAIConfig holds OpenAI adapter credentials.
type OpenAIConfig struct {
	APIKey  string `envconfig:"OPENAI_API_KEY"`
	BaseURL string `envconfig:"OPENAI_BASE_URL"`
	Model   string `envconfig:"OPENAI_MODEL" default:"gpt-4o"`
}

// AnthropicConfig holds Anthropic adapter credentials.
type AnthropicConfig struct {
	APIKey string `envconfig:"ANTHROPIC_API_KEY"`
	Model  string `envconfig:"ANTHROPIC_MODEL" default:"claude-sonnet-4-20250514"`
}

// RedisConfig holds the redis session backend settings.
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// Addr returns the host:port address for the redis client.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads configuration from the environment, first sourcing a .env file
// when one exists in the working directory.
func Load() (*Config, error) {
	// Missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}

	return &cfg, nil
}
