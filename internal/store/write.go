package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/propnet/internal/ir"
	"github.com/roach88/propnet/internal/latch"
	"github.com/roach88/propnet/internal/verify"
)

// WriteRun records a verification report for the circuit with the given
// content hash, together with its divergence if it has one.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - rewriting a run ID is
// silently ignored.
func (s *Store) WriteRun(ctx context.Context, circuitHash string, rep *verify.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, circuit_hash, seed, workers, rounds, steps, started_at, elapsed_ns, passed, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rep.ID,
		circuitHash,
		int64(rep.Seed),
		rep.Workers,
		rep.Rounds,
		rep.Steps,
		formatTime(rep.Started),
		rep.Elapsed.Nanoseconds(),
		boolToInt(rep.Passed()),
		ir.EngineVersion,
		ir.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}

	if rep.Divergence != nil {
		if err := writeDivergence(ctx, tx, rep.ID, rep.Divergence); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

func writeDivergence(ctx context.Context, tx *sql.Tx, runID string, d *verify.Divergence) error {
	stateA, err := marshalState(d.StateA)
	if err != nil {
		return fmt.Errorf("write divergence: %w", err)
	}
	stateB, err := marshalState(d.StateB)
	if err != nil {
		return fmt.Errorf("write divergence: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO divergences
		(run_id, worker, round, step, field, role, state_a, state_b, reference, subject)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		d.Worker,
		d.Round,
		d.Step,
		d.Field,
		string(d.Role),
		stateA,
		stateB,
		d.Reference,
		d.Subject,
	)
	if err != nil {
		return fmt.Errorf("write divergence: %w", err)
	}
	return nil
}

// WriteLatches caches a latch analysis made with the given leaf bound.
// An earlier analysis of the same circuit and bound is replaced.
func (s *Store) WriteLatches(ctx context.Context, maxLeaves int, rep *latch.Report) error {
	skipped, err := marshalInts(rep.Skipped)
	if err != nil {
		return fmt.Errorf("write latches: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write latches: %w", err)
	}
	defer tx.Rollback()

	// Children first for the foreign key.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM latches WHERE circuit_hash = ? AND max_leaves = ?`,
		rep.Circuit, maxLeaves,
	); err != nil {
		return fmt.Errorf("write latches: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO latch_analyses (circuit_hash, max_leaves, analyzed, skipped)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(circuit_hash, max_leaves) DO UPDATE SET
			analyzed = excluded.analyzed,
			skipped = excluded.skipped
	`, rep.Circuit, maxLeaves, rep.Analyzed, skipped); err != nil {
		return fmt.Errorf("write latches: %w", err)
	}

	for _, node := range rep.Latches.Indices() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO latches (circuit_hash, max_leaves, node, value)
			VALUES (?, ?, ?, ?)
		`, rep.Circuit, maxLeaves, node, boolToInt(rep.Latches[node])); err != nil {
			return fmt.Errorf("write latches: node %d: %w", node, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write latches: %w", err)
	}
	return nil
}
