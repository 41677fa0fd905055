package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.StorageDriver != "sqlite" {
		t.Errorf("StorageDriver = %q, want %q", cfg.StorageDriver, "sqlite")
	}
	if cfg.LLMProvider != "openai" {
		t.Errorf("LLMProvider = %q, want %q", cfg.LLMProvider, "openai")
	}
	if cfg.LLMTimeout != 30*time.Second {
		t.Errorf("LLMTimeout = %v, want 30s", cfg.LLMTimeout)
	}
	if cfg.ChatWindowLimit != 10 {
		t.Errorf("ChatWindowLimit = %d, want 10", cfg.ChatWindowLimit)
	}
	if cfg.DeviceSummaryLimit != 3 {
		t.Errorf("DeviceSummaryLimit = %d, want 3", cfg.DeviceSummaryLimit)
	}
	if cfg.PromptMaxBytes != 16384 {
		t.Errorf("PromptMaxBytes = %d, want 16384", cfg.PromptMaxBytes)
	}
	if cfg.ReportChatLimit != 6 {
		t.Errorf("ReportChatLimit = %d, want 6", cfg.ReportChatLimit)
	}
	if cfg.ConversationLog.Enabled {
		t.Error("ConversationLog.Enabled = true, want false by default")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,https://app.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want %q", cfg.Port, "9090")
	}
	if cfg.StorageDriver != "memory" {
		t.Errorf("StorageDriver = %q, want %q", cfg.StorageDriver, "memory")
	}
	if cfg.LLMTimeout != 5*time.Second {
		t.Errorf("LLMTimeout = %v, want 5s", cfg.LLMTimeout)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "http://localhost:5173" {
		t.Errorf("AllowedOrigins = %v, want two parsed origins", cfg.AllowedOrigins)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "cassandra")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() succeeded with unknown STORAGE_DRIVER")
	}
	if !strings.Contains(err.Error(), "STORAGE_DRIVER") {
		t.Errorf("error %q does not mention STORAGE_DRIVER", err)
	}
}

func TestLoadRequiresDatabaseURLForPostgres(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() succeeded without DATABASE_URL for postgres driver")
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "anthropic")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() succeeded with unknown LLM_PROVIDER")
	}
}
