// Package config provides environment-driven configuration for the
// action sync queue.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds engine, retry and scheduler settings.
type Config struct {
	// DataDir is where the queue database lives.
	DataDir string `env:"ACTIONSYNC_DATA_DIR" envDefault:"."`

	// UserPubkey identifies the session owner. Required by the desktop
	// bridge; library embedders pass the pubkey to sync.New directly.
	UserPubkey string `env:"ACTIONSYNC_USER_PUBKEY"`

	// Retry policy for executor invocations.
	MaxRetries      int           `env:"ACTIONSYNC_MAX_RETRIES" envDefault:"3"`
	InitialDelay    time.Duration `env:"ACTIONSYNC_INITIAL_DELAY" envDefault:"1s"`
	MaxDelay        time.Duration `env:"ACTIONSYNC_MAX_DELAY" envDefault:"1h"`
	DelayMultiplier float64       `env:"ACTIONSYNC_DELAY_MULTIPLIER" envDefault:"2"`

	// Retention window for completed actions.
	CompletedRetention time.Duration `env:"ACTIONSYNC_COMPLETED_RETENTION" envDefault:"168h"`

	// Scheduler intervals.
	SyncInterval    time.Duration `env:"ACTIONSYNC_SYNC_INTERVAL" envDefault:"15m"`
	CleanupInterval time.Duration `env:"ACTIONSYNC_CLEANUP_INTERVAL" envDefault:"1h"`

	// LogLevel is one of DEBUG, INFO, WARN, ERROR.
	LogLevel string `env:"ACTIONSYNC_LOG_LEVEL" envDefault:"INFO"`
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	if c.MaxRetries < 1 {
		return fmt.Errorf("max retries must be at least 1, got %d", c.MaxRetries)
	}
	if c.InitialDelay <= 0 {
		return fmt.Errorf("initial delay must be positive, got %v", c.InitialDelay)
	}
	if c.MaxDelay < c.InitialDelay {
		return fmt.Errorf("max delay %v is below initial delay %v", c.MaxDelay, c.InitialDelay)
	}
	if c.DelayMultiplier <= 1 {
		return fmt.Errorf("delay multiplier must be above 1, got %v", c.DelayMultiplier)
	}
	return nil
}
