package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"soapbox"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	PostgresDSN string `env:"POSTGRES_DSN"`

	// Environment namespaces rate-limit counters so staging traffic
	// never consumes production windows.
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	AdminAPIKey    string   `env:"ADMIN_API_KEY"`
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	AutoApproveOnVerify bool          `env:"AUTO_APPROVE_ON_VERIFY" envDefault:"false"`
	VerificationTTL     time.Duration `env:"VERIFICATION_TTL" envDefault:"24h"`

	SubmitMaxAttempts int           `env:"SUBMIT_MAX_ATTEMPTS" envDefault:"5"`
	SubmitWindow      time.Duration `env:"SUBMIT_WINDOW" envDefault:"1h"`
	VerifyMaxAttempts int           `env:"VERIFY_MAX_ATTEMPTS" envDefault:"10"`
	VerifyWindow      time.Duration `env:"VERIFY_WINDOW" envDefault:"1h"`
	ResendMaxAttempts int           `env:"RESEND_MAX_ATTEMPTS" envDefault:"3"`
	ResendWindow      time.Duration `env:"RESEND_WINDOW" envDefault:"1h"`

	ReputationAPIURL     string        `env:"REPUTATION_API_URL"`
	ReputationAPITimeout time.Duration `env:"REPUTATION_API_TIMEOUT" envDefault:"2s"`

	WorkerPollInterval time.Duration `env:"WORKER_POLL_INTERVAL" envDefault:"2s"`

	EnableOutboxRelay   bool `env:"ENABLE_OUTBOX_RELAY" envDefault:"true"`
	EnableEmailConsumer bool `env:"ENABLE_EMAIL_CONSUMER" envDefault:"true"`
	EnableCounterPruner bool `env:"ENABLE_COUNTER_PRUNER" envDefault:"true"`
}

func Load() (Config, error) {
	// Best-effort: absent .env files are the normal case in deployed
	// environments.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	cfg.ServiceName = strings.TrimSpace(cfg.ServiceName)
	cfg.Environment = strings.TrimSpace(cfg.Environment)
	return cfg, nil
}
