package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunTestsPassWithGolden(t *testing.T) {
	out, err := execute(NewTestCommand(testRootOptions("json")), scenariosDir, "--golden", goldenFixture)
	require.NoError(t, err)

	var res TestResult
	resp := decode(t, out, &res)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 2, res.Passed)
	assert.Zero(t, res.Failed)
}

func TestRunTestsText(t *testing.T) {
	out, err := execute(NewTestCommand(testRootOptions("text")), scenariosDir, "--golden", goldenFixture)
	require.NoError(t, err)

	assert.Contains(t, out, "\u2713 flip_play")
	assert.Contains(t, out, "\u2713 edge_cases")
	assert.Contains(t, out, "2 passed, 0 failed, 2 total")
}

func TestRunTestsFilter(t *testing.T) {
	out, err := execute(NewTestCommand(testRootOptions("json")), scenariosDir, "--filter", "flip*")
	require.NoError(t, err)

	var res TestResult
	decode(t, out, &res)
	require.Len(t, res.Scenarios, 1)
	assert.Equal(t, "flip_play", res.Scenarios[0].Name)
}

func TestRunTestsUpdateWritesGolden(t *testing.T) {
	golden := t.TempDir()

	_, err := execute(NewTestCommand(testRootOptions("text")), scenariosDir, "--golden", golden, "--update")
	require.NoError(t, err)

	for _, name := range []string{"flip_play", "edge_cases"} {
		got, err := os.ReadFile(filepath.Join(golden, name+".golden"))
		require.NoError(t, err)
		want, err := os.ReadFile(filepath.Join(goldenFixture, name+".golden"))
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got), name)
	}
}

func TestRunTestsGoldenMismatch(t *testing.T) {
	golden := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(golden, "edge_cases.golden"), []byte(`{}`), 0o644))

	out, err := execute(NewTestCommand(testRootOptions("json")), scenariosDir, "--golden", golden)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var res TestResult
	resp := decode(t, out, &res)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 1, res.Failed)
	for _, s := range res.Scenarios {
		if s.Name == "edge_cases" {
			assert.False(t, s.Pass)
			assert.Contains(t, s.Errors[0], "golden")
		}
	}
}

func TestRunTestsFailingScenario(t *testing.T) {
	dir := t.TempDir()
	circuitPath, err := filepath.Abs(flipCircuit)
	require.NoError(t, err)

	scenario := `name: wrong_start
description: "Expects the wrong initial state"
circuit: ` + circuitPath + `
steps:
  - op: initial
    expect:
      state: ["(control black)"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong_start.yaml"), []byte(scenario), 0o644))

	out, err := execute(NewTestCommand(testRootOptions("text")), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "\u2717 wrong_start")
	assert.Contains(t, out, "0 passed, 1 failed, 1 total")
}

func TestRunTestsInvalidScenario(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: broken\nbogus: 1\n"), 0o644))

	out, err := execute(NewTestCommand(testRootOptions("text")), dir)
	require.Error(t, err)
	assert.Contains(t, out, "\u2717 broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestRunTestsEmptyDir(t *testing.T) {
	out, err := execute(NewTestCommand(testRootOptions("text")), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestRunTestsMissingDir(t *testing.T) {
	_, err := execute(NewTestCommand(testRootOptions("text")), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
