package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/propnet/internal/circuit"
	"github.com/roach88/propnet/internal/ir"
	"github.com/roach88/propnet/internal/verify"
)

// Run is a stored verification report.
type Run struct {
	CircuitHash   string        `json:"circuit_hash"`
	EngineVersion string        `json:"engine_version"`
	IRVersion     string        `json:"ir_version"`
	Report        verify.Report `json:"report"`
}

// LatchRecord is a cached latch analysis.
type LatchRecord struct {
	CircuitHash string
	MaxLeaves   int
	Analyzed    int
	Skipped     []int
	Latches     circuit.Latches
}

// ReadRun returns the run with the given ID, or ErrNotFound.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, circuit_hash, seed, workers, rounds, steps, started_at, elapsed_ns, engine_version, ir_version
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, err
	}

	d, err := s.readDivergence(ctx, id)
	if err != nil {
		return Run{}, err
	}
	run.Report.Divergence = d
	return run, nil
}

// ListRuns returns the runs recorded for a circuit, newest first. An empty
// hash lists runs of every circuit. limit <= 0 means no limit.
//
// Returns an empty slice (not nil) if there are no runs.
func (s *Store) ListRuns(ctx context.Context, circuitHash string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, circuit_hash, seed, workers, rounds, steps, started_at, elapsed_ns, engine_version, ir_version
		FROM runs
		WHERE ? = '' OR circuit_hash = ?
		ORDER BY started_at DESC, id COLLATE BINARY ASC
		LIMIT ?
	`, circuitHash, circuitHash, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	for i := range runs {
		d, err := s.readDivergence(ctx, runs[i].Report.ID)
		if err != nil {
			return nil, err
		}
		runs[i].Report.Divergence = d
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run       Run
		seed      int64
		started   string
		elapsedNS int64
	)
	err := row.Scan(
		&run.Report.ID,
		&run.CircuitHash,
		&seed,
		&run.Report.Workers,
		&run.Report.Rounds,
		&run.Report.Steps,
		&started,
		&elapsedNS,
		&run.EngineVersion,
		&run.IRVersion,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	run.Report.Seed = uint64(seed)
	run.Report.Elapsed = time.Duration(elapsedNS)
	run.Report.Started, err = parseTime(started)
	if err != nil {
		return Run{}, fmt.Errorf("scan run %s: %w", run.Report.ID, err)
	}
	return run, nil
}

// readDivergence returns nil when the run passed.
func (s *Store) readDivergence(ctx context.Context, runID string) (*verify.Divergence, error) {
	var (
		d              verify.Divergence
		role           string
		stateA, stateB string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT worker, round, step, field, role, state_a, state_b, reference, subject
		FROM divergences
		WHERE run_id = ?
	`, runID).Scan(&d.Worker, &d.Round, &d.Step, &d.Field, &role, &stateA, &stateB, &d.Reference, &d.Subject)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query divergence for run %s: %w", runID, err)
	}

	d.Role = ir.Role(role)
	if d.StateA, err = unmarshalState(stateA); err != nil {
		return nil, fmt.Errorf("divergence for run %s: %w", runID, err)
	}
	if d.StateB, err = unmarshalState(stateB); err != nil {
		return nil, fmt.Errorf("divergence for run %s: %w", runID, err)
	}
	return &d, nil
}

// ReadLatches returns the cached analysis of a circuit made with the given
// leaf bound, or ErrNotFound.
func (s *Store) ReadLatches(ctx context.Context, circuitHash string, maxLeaves int) (*LatchRecord, error) {
	rec := &LatchRecord{
		CircuitHash: circuitHash,
		MaxLeaves:   maxLeaves,
		Latches:     circuit.Latches{},
	}
	var skipped string
	err := s.db.QueryRowContext(ctx, `
		SELECT analyzed, skipped
		FROM latch_analyses
		WHERE circuit_hash = ? AND max_leaves = ?
	`, circuitHash, maxLeaves).Scan(&rec.Analyzed, &skipped)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latches for %s: %w", circuitHash, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query latch analysis: %w", err)
	}
	if rec.Skipped, err = unmarshalInts(skipped); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT node, value
		FROM latches
		WHERE circuit_hash = ? AND max_leaves = ?
		ORDER BY node ASC
	`, circuitHash, maxLeaves)
	if err != nil {
		return nil, fmt.Errorf("query latches: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var node, value int
		if err := rows.Scan(&node, &value); err != nil {
			return nil, fmt.Errorf("scan latch: %w", err)
		}
		rec.Latches[node] = value != 0
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate latches: %w", err)
	}
	return rec, nil
}
