package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"PROPNET_DB", "PROPNET_VERIFY_BUDGET", "PROPNET_VERIFY_ROUNDS",
		"PROPNET_WORKERS", "PROPNET_LATCH_MAX_LEAVES", "PROPNET_SEED",
	} {
		// Setenv restores the variable after the test; Unsetenv clears it now.
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Config{
		VerifyRounds:   1000,
		Workers:        1,
		LatchMaxLeaves: 16,
		Seed:           1,
	}, cfg)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PROPNET_DB", "/tmp/runs.db")
	t.Setenv("PROPNET_VERIFY_BUDGET", "30s")
	t.Setenv("PROPNET_VERIFY_ROUNDS", "0")
	t.Setenv("PROPNET_WORKERS", "4")
	t.Setenv("PROPNET_LATCH_MAX_LEAVES", "8")
	t.Setenv("PROPNET_SEED", "99")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/runs.db", cfg.DB)
	assert.Equal(t, 30*time.Second, cfg.VerifyBudget)
	assert.Equal(t, 0, cfg.VerifyRounds)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 8, cfg.LatchMaxLeaves)
	assert.Equal(t, uint64(99), cfg.Seed)
}

func TestLoad_ParseError(t *testing.T) {
	t.Setenv("PROPNET_WORKERS", "many")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config:")
}

func TestValidate(t *testing.T) {
	valid := Config{VerifyRounds: 1, Workers: 1, LatchMaxLeaves: 1}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"negative budget", func(c *Config) { c.VerifyBudget = -time.Second }, "PROPNET_VERIFY_BUDGET"},
		{"negative rounds", func(c *Config) { c.VerifyRounds = -1 }, "PROPNET_VERIFY_ROUNDS"},
		{"no workers", func(c *Config) { c.Workers = 0 }, "PROPNET_WORKERS"},
		{"no leaves", func(c *Config) { c.LatchMaxLeaves = 0 }, "PROPNET_LATCH_MAX_LEAVES"},
		{"too many leaves", func(c *Config) { c.LatchMaxLeaves = 31 }, "PROPNET_LATCH_MAX_LEAVES"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
