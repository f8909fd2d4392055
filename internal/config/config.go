package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the operational tunables shared by the tools. These are
// environment-driven on purpose: the command lines stay identical to
// their historical forms while deployments can still adjust timing.
type Config struct {
	// PollInterval is the period between reads of a regular-file
	// control channel.
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"100ms"`

	// CtrlBufSize bounds a single read from the control channel.
	CtrlBufSize int `envconfig:"CTRL_BUF" default:"256"`

	// RetrySleep is how long a streamed control reader backs off after
	// its writer closes, when terminate-on-close is not in effect.
	RetrySleep time.Duration `envconfig:"RETRY_SLEEP" default:"100ms"`

	// ChunkSize is the unit of bulk byte copying in the gated loops.
	ChunkSize int `envconfig:"CHUNK_SIZE" default:"4096"`
}

// Load loads configuration from MISCTOOLS_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("misctools", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.PollInterval <= 0 || cfg.CtrlBufSize <= 0 || cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("non-positive tunable in environment")
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from the environment or falls back
// to the defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		PollInterval: 100 * time.Millisecond,
		CtrlBufSize:  256,
		RetrySleep:   100 * time.Millisecond,
		ChunkSize:    4096,
	}
}
