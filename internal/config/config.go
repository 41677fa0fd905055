// Package config provides application configuration.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds all application configuration.
type Config struct {
	Port           string   `env:"PORT" envDefault:"8080"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Storage selects where the patient journal is persisted.
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"sqlite"`
	DBPath        string `env:"DB_PATH" envDefault:"./data/healthmon.db"`
	DatabaseURL   string `env:"DATABASE_URL"`

	// Model service credentials and limits.
	LLMProvider      string        `env:"LLM_PROVIDER" envDefault:"openai"`
	LLMTimeout       time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`
	LLMTemperature   float32       `env:"LLM_TEMPERATURE" envDefault:"0.4"`
	OpenAIAPIKey     string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string        `env:"OPENAI_BASE_URL"`
	OpenAIModel      string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	YandexOAuthToken string        `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string        `env:"YANDEX_FOLDER_ID"`

	// Prompt assembly bounds.
	ChatWindowLimit    int `env:"CHAT_WINDOW_LIMIT" envDefault:"10"`
	DeviceSummaryLimit int `env:"DEVICE_SUMMARY_LIMIT" envDefault:"3"`
	PromptMaxBytes     int `env:"PROMPT_MAX_BYTES" envDefault:"16384"`

	// Report composition.
	ReportChatLimit int `env:"REPORT_CHAT_LIMIT" envDefault:"6"`

	ConversationLog ConversationLogConfig
}

// ConversationLogConfig controls NDJSON conversation logging.
type ConversationLogConfig struct {
	Enabled   bool   `env:"CONVERSATION_LOG_ENABLED" envDefault:"false"`
	Dir       string `env:"CONVERSATION_LOG_DIR" envDefault:"./data/logs/conversations"`
	QueueSize int    `env:"CONVERSATION_LOG_QUEUE_SIZE" envDefault:"256"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the cross-field constraints the tag defaults cannot
// express.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	switch c.StorageDriver {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q (want sqlite, postgres or memory)", c.StorageDriver)
	}
	if c.StorageDriver == "sqlite" && c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty when STORAGE_DRIVER=sqlite")
	}
	if c.StorageDriver == "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL cannot be empty when STORAGE_DRIVER=postgres")
	}
	switch c.LLMProvider {
	case "openai", "yandex":
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q (want openai or yandex)", c.LLMProvider)
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be > 0")
	}
	if c.ChatWindowLimit <= 0 {
		return fmt.Errorf("CHAT_WINDOW_LIMIT must be > 0")
	}
	if c.DeviceSummaryLimit <= 0 {
		return fmt.Errorf("DEVICE_SUMMARY_LIMIT must be > 0")
	}
	if c.PromptMaxBytes <= 0 {
		return fmt.Errorf("PROMPT_MAX_BYTES must be > 0")
	}
	if c.ReportChatLimit <= 0 {
		return fmt.Errorf("REPORT_CHAT_LIMIT must be > 0")
	}
	if c.ConversationLog.Dir == "" {
		return fmt.Errorf("CONVERSATION_LOG_DIR cannot be empty")
	}
	if c.ConversationLog.QueueSize <= 0 {
		return fmt.Errorf("CONVERSATION_LOG_QUEUE_SIZE must be > 0")
	}
	return nil
}
