// Package config reads environment defaults for the propnet command.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/roach88/propnet/internal/latch"
)

// Config holds defaults that command-line flags override.
type Config struct {
	// DB is the SQLite path for runs and cached latches. Empty disables
	// persistence.
	DB string `env:"PROPNET_DB"`

	// VerifyBudget bounds a verify run's wall time. Zero means no budget.
	VerifyBudget time.Duration `env:"PROPNET_VERIFY_BUDGET" envDefault:"0s"`

	// VerifyRounds bounds a verify run's games. Zero means no cap.
	VerifyRounds int `env:"PROPNET_VERIFY_ROUNDS" envDefault:"1000"`

	// Workers is the number of parallel verification workers.
	Workers int `env:"PROPNET_WORKERS" envDefault:"1"`

	// LatchMaxLeaves bounds latch analysis per proposition.
	LatchMaxLeaves int `env:"PROPNET_LATCH_MAX_LEAVES" envDefault:"16"`

	// Seed drives random playouts.
	Seed uint64 `env:"PROPNET_SEED" envDefault:"1"`
}

// Load parses the environment.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values no command can use.
func (c Config) Validate() error {
	switch {
	case c.VerifyBudget < 0:
		return fmt.Errorf("config: PROPNET_VERIFY_BUDGET must be non-negative, got %s", c.VerifyBudget)
	case c.VerifyRounds < 0:
		return fmt.Errorf("config: PROPNET_VERIFY_ROUNDS must be non-negative, got %d", c.VerifyRounds)
	case c.Workers < 1:
		return fmt.Errorf("config: PROPNET_WORKERS must be at least 1, got %d", c.Workers)
	case c.LatchMaxLeaves < 1 || c.LatchMaxLeaves > latch.MaxLeavesLimit:
		return fmt.Errorf("config: PROPNET_LATCH_MAX_LEAVES must be between 1 and %d, got %d",
			latch.MaxLeavesLimit, c.LatchMaxLeaves)
	}
	return nil
}
