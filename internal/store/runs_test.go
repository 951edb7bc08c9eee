package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/propnet/internal/circuit"
	"github.com/roach88/propnet/internal/ir"
	"github.com/roach88/propnet/internal/latch"
	"github.com/roach88/propnet/internal/verify"
)

var testStart = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func passedReport(id string, started time.Time) *verify.Report {
	return &verify.Report{
		ID:      id,
		Seed:    42,
		Workers: 2,
		Rounds:  1000,
		Steps:   3000,
		Started: started,
		Elapsed: 1500 * time.Millisecond,
	}
}

func TestWriteRun_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rep := passedReport("run-1", testStart)
	require.NoError(t, s.WriteRun(ctx, "hash-a", rep))

	got, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "hash-a", got.CircuitHash)
	assert.Equal(t, ir.EngineVersion, got.EngineVersion)
	assert.Equal(t, ir.IRVersion, got.IRVersion)
	assert.Equal(t, *rep, got.Report)
	assert.True(t, got.Report.Passed())
}

func TestWriteRun_WithDivergence(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rep := passedReport("run-2", testStart)
	rep.Divergence = &verify.Divergence{
		Worker:    1,
		Round:     3,
		Step:      2,
		Field:     verify.FieldGoal,
		Role:      "black",
		StateA:    ir.StateOf("(step 3)", "(mark)"),
		StateB:    ir.StateOf("(step 3)"),
		Reference: "0",
		Subject:   "100",
	}
	require.NoError(t, s.WriteRun(ctx, "hash-a", rep))

	got, err := s.ReadRun(ctx, "run-2")
	require.NoError(t, err)
	require.NotNil(t, got.Report.Divergence)
	assert.Equal(t, *rep.Divergence, *got.Report.Divergence)
	assert.False(t, got.Report.Passed())

	var passed int
	require.NoError(t, s.db.QueryRow("SELECT passed FROM runs WHERE id = 'run-2'").Scan(&passed))
	assert.Equal(t, 0, passed)

	var stateA string
	require.NoError(t, s.db.QueryRow("SELECT state_a FROM divergences WHERE run_id = 'run-2'").Scan(&stateA))
	assert.Equal(t, `["(mark)","(step 3)"]`, stateA)
}

func TestWriteRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteRun(ctx, "hash-a", passedReport("run-1", testStart)))

	again := passedReport("run-1", testStart)
	again.Rounds = 1
	require.NoError(t, s.WriteRun(ctx, "hash-a", again))

	got, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 1000, got.Report.Rounds, "first write wins")
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRun(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListRuns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteRun(ctx, "hash-a", passedReport("a-old", testStart)))
	require.NoError(t, s.WriteRun(ctx, "hash-a", passedReport("a-new", testStart.Add(time.Hour))))
	require.NoError(t, s.WriteRun(ctx, "hash-b", passedReport("b-1", testStart.Add(time.Minute))))

	runs, err := s.ListRuns(ctx, "hash-a", 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "a-new", runs[0].Report.ID)
	assert.Equal(t, "a-old", runs[1].Report.ID)

	all, err := s.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := s.ListRuns(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "a-new", limited[0].Report.ID)

	none, err := s.ListRuns(ctx, "hash-z", 0)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

// ============================================================================
// Latches
// ============================================================================

func TestLatches_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rep := &latch.Report{
		Circuit:  "hash-a",
		Latches:  circuit.Latches{4: true, 7: false},
		Skipped:  []int{9},
		Analyzed: 5,
	}
	require.NoError(t, s.WriteLatches(ctx, 16, rep))

	got, err := s.ReadLatches(ctx, "hash-a", 16)
	require.NoError(t, err)
	assert.Equal(t, rep.Latches, got.Latches)
	assert.Equal(t, []int{9}, got.Skipped)
	assert.Equal(t, 5, got.Analyzed)
	assert.Equal(t, 16, got.MaxLeaves)
}

func TestLatches_KeyedByBound(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteLatches(ctx, 4, &latch.Report{Circuit: "hash-a", Latches: circuit.Latches{}}))

	_, err := s.ReadLatches(ctx, "hash-a", 16)
	assert.True(t, errors.Is(err, ErrNotFound))

	got, err := s.ReadLatches(ctx, "hash-a", 4)
	require.NoError(t, err)
	assert.Empty(t, got.Latches)
	assert.Equal(t, []int{}, got.Skipped)
}

func TestLatches_Replace(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteLatches(ctx, 16, &latch.Report{
		Circuit: "hash-a",
		Latches: circuit.Latches{1: true, 2: true},
	}))
	require.NoError(t, s.WriteLatches(ctx, 16, &latch.Report{
		Circuit:  "hash-a",
		Latches:  circuit.Latches{3: false},
		Analyzed: 2,
	}))

	got, err := s.ReadLatches(ctx, "hash-a", 16)
	require.NoError(t, err)
	assert.Equal(t, circuit.Latches{3: false}, got.Latches)
	assert.Equal(t, 2, got.Analyzed)
}
