package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds scheduler settings.
type Config struct {
	// HandlerTimeout bounds every handler run. Zero disables the deadline.
	HandlerTimeout time.Duration `envconfig:"HANDLER_TIMEOUT"`

	// ShutdownTimeout is the maximum time Shutdown waits for running
	// handlers after cancelling them.
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT"`

	// Metrics registers the observability metrics extension.
	Metrics bool `envconfig:"METRICS"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ShutdownTimeout: 30 * time.Second,
		Metrics:         true,
	}
}

// ConfigFromEnv returns DefaultConfig overridden by environment variables
// named prefix_HANDLER_TIMEOUT, prefix_SHUTDOWN_TIMEOUT and prefix_METRICS.
// Durations use time.ParseDuration syntax.
func ConfigFromEnv(prefix string) (Config, error) {
	cfg := DefaultConfig()
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("scheduler: load config from environment: %w", err)
	}
	if cfg.HandlerTimeout < 0 || cfg.ShutdownTimeout < 0 {
		return Config{}, errors.New("scheduler: negative timeout in environment config")
	}
	return cfg, nil
}
