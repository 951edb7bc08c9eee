package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/propnet/internal/config"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "propnet", cmd.Use)
	assert.Contains(t, cmd.Long, "propositional networks")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"compile", "dot", "latches", "verify", "runs", "play", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestFlagDefaultsFromConfig(t *testing.T) {
	cfg := config.Config{DB: "runs.db", VerifyRounds: 7, Workers: 3, LatchMaxLeaves: 5, Seed: 42}
	cmd := newRootCommand(cfg, nil)

	verifyCmd, _, err := cmd.Find([]string{"verify"})
	require.NoError(t, err)
	assert.Equal(t, "7", verifyCmd.Flags().Lookup("rounds").DefValue)
	assert.Equal(t, "3", verifyCmd.Flags().Lookup("workers").DefValue)
	assert.Equal(t, "42", verifyCmd.Flags().Lookup("seed").DefValue)
	assert.Equal(t, "runs.db", verifyCmd.Flags().Lookup("db").DefValue)

	latchesCmd, _, err := cmd.Find([]string{"latches"})
	require.NoError(t, err)
	assert.Equal(t, "5", latchesCmd.Flags().Lookup("max-leaves").DefValue)
}

func TestInvalidFormat(t *testing.T) {
	cmd := newRootCommand(testRootOptions("text").Config, nil)
	_, err := execute(cmd, "--format", "xml", "compile", flipCircuit)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid format")
}

func TestConfigErrorIsCommandError(t *testing.T) {
	cmd := newRootCommand(config.Config{}, errors.New("config: bad PROPNET_WORKERS"))
	_, err := execute(cmd, "compile", flipCircuit)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorContains(t, err, "PROPNET_WORKERS")
}
