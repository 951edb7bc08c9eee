package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// scenarioDir returns a temp dir holding game.cue next to the scenarios.
func scenarioDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	src, err := os.ReadFile("testdata/circuits/edge.cue")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "game.cue"), src, 0o644))
	return dir
}

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/flip_play.yaml")
	require.NoError(t, err)

	assert.Equal(t, "flip_play", s.Name)
	assert.True(t, s.Latches)
	assert.Equal(t, filepath.Join("testdata", "circuits", "flip.cue"), s.Circuit)
	require.Len(t, s.Steps, 12)
	assert.Equal(t, OpInitial, s.Steps[0].Op)
	assert.Equal(t, []string{"b", "noop"}, s.Steps[3].Moves)
	require.NotNil(t, s.Steps[9].Expect.Goal)
	assert.Equal(t, 100, *s.Steps[9].Expect.Goal)
	assert.Len(t, s.Assertions, 3)
}

func TestLoadScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{
			name:    "unknown field",
			content: "name: x\ndescription: d\ncircuit: game.cue\nstep:\n  - op: initial\n",
			errText: "failed to parse YAML",
		},
		{
			name:    "missing name",
			content: "description: d\ncircuit: game.cue\nsteps:\n  - op: initial\n",
			errText: "name is required",
		},
		{
			name:    "missing description",
			content: "name: x\ncircuit: game.cue\nsteps:\n  - op: initial\n",
			errText: "description is required",
		},
		{
			name:    "missing circuit",
			content: "name: x\ndescription: d\nsteps:\n  - op: initial\n",
			errText: "circuit is required",
		},
		{
			name:    "circuit not found",
			content: "name: x\ndescription: d\ncircuit: nope.cue\nsteps:\n  - op: initial\n",
			errText: "circuit file not found",
		},
		{
			name:    "no steps",
			content: "name: x\ndescription: d\ncircuit: game.cue\nsteps: []\n",
			errText: "steps list is required",
		},
		{
			name:    "unknown op",
			content: "name: x\ndescription: d\ncircuit: game.cue\nsteps:\n  - op: undo\n",
			errText: `unknown op "undo"`,
		},
		{
			name:    "legal without role",
			content: "name: x\ndescription: d\ncircuit: game.cue\nsteps:\n  - op: legal\n",
			errText: "role is required for legal",
		},
		{
			name:    "next without moves",
			content: "name: x\ndescription: d\ncircuit: game.cue\nsteps:\n  - op: next\n",
			errText: "moves list is required",
		},
		{
			name:    "value without node",
			content: "name: x\ndescription: d\ncircuit: game.cue\nsteps:\n  - op: value\n",
			errText: "node is required",
		},
		{
			name:    "unknown assertion",
			content: "name: x\ndescription: d\ncircuit: game.cue\nsteps:\n  - op: initial\nassertions:\n  - type: nope\n",
			errText: `unknown assertion type "nope"`,
		},
		{
			name:    "final_state without state",
			content: "name: x\ndescription: d\ncircuit: game.cue\nsteps:\n  - op: initial\nassertions:\n  - type: final_state\n",
			errText: "state is required",
		},
		{
			name:    "trace_count without op",
			content: "name: x\ndescription: d\ncircuit: game.cue\nsteps:\n  - op: initial\nassertions:\n  - type: trace_count\n    count: 1\n",
			errText: "op is required for trace_count",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := scenarioDir(t)
			path := writeScenario(t, dir, "s.yaml", tt.content)

			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenarios_Directory(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "edge_cases", scenarios[0].Name)
	assert.Equal(t, "flip_play", scenarios[1].Name)
}
