package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8090"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	// Game backend.
	APIBaseURL  string        `env:"API_BASE_URL,notEmpty"`
	APIToken    string        `env:"API_TOKEN"`
	APIUsername string        `env:"API_USERNAME"`
	APIPassword string        `env:"API_PASSWORD"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`

	// Synchronization.
	SessionID         string        `env:"SESSION_ID"`
	PollInterval      time.Duration `env:"POLL_INTERVAL" envDefault:"2s"`
	EnrichConcurrency int           `env:"ENRICH_CONCURRENCY" envDefault:"4"`
	ImageMaxRetries   int           `env:"IMAGE_MAX_RETRIES" envDefault:"3"`

	// Optional infrastructure. Empty disables the journal and keeps the
	// player cache in memory.
	JournalDBPath string `env:"JOURNAL_DB_PATH"`
	RedisURL      string `env:"REDIS_URL"`
	CachePrefix   string `env:"CACHE_PREFIX" envDefault:"sketchclient:player:"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	if c.EnrichConcurrency < 1 {
		return fmt.Errorf("ENRICH_CONCURRENCY must be at least 1, got %d", c.EnrichConcurrency)
	}
	if c.ImageMaxRetries < 1 {
		return fmt.Errorf("IMAGE_MAX_RETRIES must be at least 1, got %d", c.ImageMaxRetries)
	}
	if (c.APIUsername == "") != (c.APIPassword == "") {
		return fmt.Errorf("API_USERNAME and API_PASSWORD must be set together")
	}
	return nil
}
