package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://game.local")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8090" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.EnrichConcurrency != 4 || cfg.ImageMaxRetries != 3 {
		t.Errorf("EnrichConcurrency = %d, ImageMaxRetries = %d", cfg.EnrichConcurrency, cfg.ImageMaxRetries)
	}
	if cfg.JournalDBPath != "" || cfg.RedisURL != "" {
		t.Errorf("optional infrastructure enabled by default: %+v", cfg)
	}
	if cfg.CachePrefix != "sketchclient:player:" {
		t.Errorf("CachePrefix = %q", cfg.CachePrefix)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://game.local")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("POLL_INTERVAL", "500ms")
	t.Setenv("SESSION_ID", "42")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
	if cfg.PollInterval != 500*time.Millisecond {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.SessionID != "42" || cfg.RedisURL == "" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing base url", map[string]string{}},
		{"zero poll interval", map[string]string{"API_BASE_URL": "http://x", "POLL_INTERVAL": "0s"}},
		{"zero concurrency", map[string]string{"API_BASE_URL": "http://x", "ENRICH_CONCURRENCY": "0"}},
		{"zero retries", map[string]string{"API_BASE_URL": "http://x", "IMAGE_MAX_RETRIES": "0"}},
		{"username without password", map[string]string{"API_BASE_URL": "http://x", "API_USERNAME": "ana"}},
		{"bad duration", map[string]string{"API_BASE_URL": "http://x", "HTTP_TIMEOUT": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("API_BASE_URL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("Load succeeded, want error")
			}
		})
	}
}
