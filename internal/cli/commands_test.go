package cli

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/propnet/internal/circuit"
	"github.com/roach88/propnet/internal/compiler"
	"github.com/roach88/propnet/internal/ir"
	"github.com/roach88/propnet/internal/propnet"
	"github.com/roach88/propnet/internal/store"
	"github.com/roach88/propnet/internal/verify"
)

func TestCompileText(t *testing.T) {
	out, err := execute(NewCompileCommand(testRootOptions("text")), flipCircuit)
	require.NoError(t, err)

	assert.Contains(t, out, "\u2713 Compiled")
	assert.Contains(t, out, "roles: 2")
	assert.Contains(t, out, "Propositions:")
}

func TestCompileJSON(t *testing.T) {
	out, err := execute(NewCompileCommand(testRootOptions("json")), flipCircuit)
	require.NoError(t, err)

	var stats circuit.Stats
	resp := decode(t, out, &stats)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, stats.Roles)
	assert.NotEmpty(t, stats.Hash)
	assert.Positive(t, stats.Nodes)
}

func TestCompileOutputToFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "stats.json")

	_, err := execute(NewCompileCommand(testRootOptions("text")), flipCircuit, "--output", outputFile)
	require.NoError(t, err)

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	var stats circuit.Stats
	require.NoError(t, json.Unmarshal(data, &stats))
	assert.Equal(t, 2, stats.Roles)
}

func TestCompileMissingPath(t *testing.T) {
	out, err := execute(NewCompileCommand(testRootOptions("json")), filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decode(t, out, nil)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestCompileMalformedCircuit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.cue")
	require.NoError(t, os.WriteFile(path, []byte(`package bad

roles: ["r"]

nodes: {
	init: {kind: "init"}
	legal_go: {kind: "legal", role: "r", action: "go", in: ["missing"]}
}
`), 0o644))

	out, err := execute(NewCompileCommand(testRootOptions("json")), path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decode(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Contains(t, []string{ErrCodeMalformed, ErrCodeCompile}, resp.Error.Code)
}

func TestDot(t *testing.T) {
	out, err := execute(NewDotCommand(testRootOptions("text")), flipCircuit)
	require.NoError(t, err)
	assert.Contains(t, out, "digraph")
}

func TestDotInitialToFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "flip.dot")

	out, err := execute(NewDotCommand(testRootOptions("text")), flipCircuit, "--initial", "-o", outputFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote DOT")

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "digraph")
	assert.Contains(t, string(data), "red")
}

func TestLatchesFindsConstantGoal(t *testing.T) {
	out, err := execute(NewLatchesCommand(testRootOptions("json")), edgeCircuit)
	require.NoError(t, err)

	var res LatchesResult
	decode(t, out, &res)
	assert.False(t, res.Cached)
	assert.Equal(t, 16, res.MaxLeaves)

	names := map[string]bool{}
	for _, l := range res.Latches {
		names[l.Name] = l.Value
	}
	value, ok := names["goal_100"]
	require.True(t, ok, "goal_100 should be latched: %+v", res.Latches)
	assert.True(t, value)
	assert.NotContains(t, names, "goal_50")
	assert.NotContains(t, names, "done")
}

func TestLatchesCachedInStore(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	out, err := execute(NewLatchesCommand(testRootOptions("json")), edgeCircuit, "--db", db)
	require.NoError(t, err)
	var first LatchesResult
	decode(t, out, &first)
	assert.False(t, first.Cached)

	out, err = execute(NewLatchesCommand(testRootOptions("json")), edgeCircuit, "--db", db)
	require.NoError(t, err)
	var second LatchesResult
	decode(t, out, &second)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Latches, second.Latches)
	assert.Equal(t, first.Analyzed, second.Analyzed)

	out, err = execute(NewLatchesCommand(testRootOptions("json")), edgeCircuit, "--db", db, "--refresh")
	require.NoError(t, err)
	var third LatchesResult
	decode(t, out, &third)
	assert.False(t, third.Cached)
}

func TestLatchesRejectsZeroBound(t *testing.T) {
	_, err := execute(NewLatchesCommand(testRootOptions("text")), edgeCircuit, "--max-leaves", "0")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestLatchesRejectsBoundOverLimit(t *testing.T) {
	_, err := execute(NewLatchesCommand(testRootOptions("text")), edgeCircuit, "--max-leaves", "64")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "between 1 and 30")
}

func TestVerifyPasses(t *testing.T) {
	out, err := execute(NewVerifyCommand(testRootOptions("json")), flipCircuit, "--rounds", "50", "--seed", "7")
	require.NoError(t, err)

	var res VerifyResult
	resp := decode(t, out, &res)
	assert.Equal(t, "ok", resp.Status)
	require.NotNil(t, res.Report)
	assert.Equal(t, 50, res.Report.Rounds)
	assert.Equal(t, 150, res.Report.Steps)
	assert.Equal(t, uint64(7), res.Report.Seed)
	assert.Nil(t, res.Report.Divergence)
	assert.NotEmpty(t, res.Circuit)
}

func TestVerifyText(t *testing.T) {
	out, err := execute(NewVerifyCommand(testRootOptions("text")), flipCircuit,
		"--rounds", "20", "--workers", "4", "--latches")
	require.NoError(t, err)
	assert.Contains(t, out, "\u2713 20 rounds, 60 steps, no divergence")
}

func TestEvaluatorPairKeepsReferenceUnlatched(t *testing.T) {
	c, err := compiler.LoadCircuit(flipCircuit)
	require.NoError(t, err)
	legal, ok := c.Lookup("legal_w_a")
	require.True(t, ok)

	wrong := circuit.Latches{legal: false}
	pair := evaluatorPair(c, []propnet.Option{propnet.WithLatches(wrong)})

	rep, err := verify.CheckParallel(t.Context(), pair, 1, verify.Options{
		MaxRounds: 10,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	require.NotNil(t, rep.Divergence)
	assert.Equal(t, verify.FieldLegalCount, rep.Divergence.Field)
	assert.Equal(t, ir.Role("white"), rep.Divergence.Role)
	assert.Equal(t, "2", rep.Divergence.Reference)
	assert.Equal(t, "1", rep.Divergence.Subject)
}

func TestVerifyRejectsBadWorkers(t *testing.T) {
	_, err := execute(NewVerifyCommand(testRootOptions("text")), flipCircuit, "--workers", "0")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestVerifyRecordsRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	out, err := execute(NewVerifyCommand(testRootOptions("json")), flipCircuit, "--rounds", "10", "--db", db)
	require.NoError(t, err)
	var res VerifyResult
	decode(t, out, &res)

	st, err := store.Open(db)
	require.NoError(t, err)
	run, err := st.ReadRun(t.Context(), res.Report.ID)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	assert.Equal(t, res.Circuit, run.CircuitHash)
	assert.Equal(t, 10, run.Report.Rounds)
	assert.Equal(t, ir.EngineVersion, run.EngineVersion)
}

func TestRunsListAndShow(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	out, err := execute(NewVerifyCommand(testRootOptions("json")), flipCircuit, "--rounds", "5", "--db", db)
	require.NoError(t, err)
	var verified VerifyResult
	decode(t, out, &verified)

	out, err = execute(NewRunsCommand(testRootOptions("json")), "--db", db)
	require.NoError(t, err)
	var runs []store.Run
	decode(t, out, &runs)
	require.Len(t, runs, 1)
	assert.Equal(t, verified.Report.ID, runs[0].Report.ID)

	out, err = execute(NewRunsCommand(testRootOptions("text")), "--db", db, verified.Report.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Run "+verified.Report.ID)
	assert.Contains(t, out, "\u2713 no divergence")

	out, err = execute(NewRunsCommand(testRootOptions("text")), "--db", db, "--circuit", "other")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

func TestRunsUnknownID(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	out, err := execute(NewRunsCommand(testRootOptions("json")), "--db", db, "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decode(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestRunsRequiresStore(t *testing.T) {
	_, err := execute(NewRunsCommand(testRootOptions("text")))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestPlayFlip(t *testing.T) {
	out, err := execute(NewPlayCommand(testRootOptions("json")), flipCircuit, "--seed", "3")
	require.NoError(t, err)

	var res PlayResult
	decode(t, out, &res)
	assert.True(t, res.Terminal)
	require.Len(t, res.States, 4)
	assert.Len(t, res.Moves, 3)
	assert.Equal(t, ir.StateOf("(control white)", "(step 0)"), res.States[0])
	assert.True(t, res.States[3].Contains("(step 3)"))
	require.Len(t, res.Goals, 2)
	assert.Equal(t, 100, res.Goals["white"]+res.Goals["black"])
}

func TestPlayStopsAtMaxSteps(t *testing.T) {
	out, err := execute(NewPlayCommand(testRootOptions("text")), flipCircuit, "--max-steps", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "stopped after 1 moves")
}
