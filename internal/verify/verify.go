// Package verify checks one StateMachine against a reference by playing
// random games on both and comparing their answers.
package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/roach88/propnet/internal/ir"
	"github.com/roach88/propnet/internal/propnet"
)

// Divergence fields.
const (
	FieldLegalCount = "legal_count"
	FieldLegalError = "legal_error"
	FieldNextError  = "next_error"
	FieldTerminal   = "terminal"
	FieldGoal       = "goal"
	FieldGoalError  = "goal_error"
)

// DefaultRounds is used when neither a round cap nor a budget is given.
const DefaultRounds = 100

// Options controls a consistency check.
type Options struct {
	// Budget bounds wall time. Zero means no budget.
	Budget time.Duration
	// MaxRounds bounds the number of games. Zero means no cap; with no
	// budget either, DefaultRounds applies.
	MaxRounds int
	// MaxDepth ends a game unchecked after this many moves. Zero means
	// games run to a terminal state.
	MaxDepth int
	// Seed drives the joint-move sampler.
	Seed uint64

	Clock  Clock
	IDs    IDGenerator
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxRounds <= 0 && o.Budget <= 0 {
		o.MaxRounds = DefaultRounds
	}
	if o.Clock == nil {
		o.Clock = systemClock{}
	}
	if o.IDs == nil {
		o.IDs = UUIDv7Generator{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Divergence is the first disagreement found.
type Divergence struct {
	Worker int     `json:"worker"`
	Round  int     `json:"round"`
	Step   int     `json:"step"`
	Field  string  `json:"field"`
	Role   ir.Role `json:"role,omitempty"`
	// StateA is the reference's state, StateB the subject's.
	StateA    ir.ExternalState `json:"state_a"`
	StateB    ir.ExternalState `json:"state_b"`
	Reference string           `json:"reference"`
	Subject   string           `json:"subject"`
}

func (d *Divergence) String() string {
	who := ""
	if d.Role != "" {
		who = " for " + string(d.Role)
	}
	return fmt.Sprintf("round %d step %d: %s%s: reference %s, subject %s (reference state %s, subject state %s)",
		d.Round, d.Step, d.Field, who, d.Reference, d.Subject, d.StateA, d.StateB)
}

// Report is the outcome of a check.
type Report struct {
	ID      string        `json:"id"`
	Seed    uint64        `json:"seed"`
	Workers int           `json:"workers"`
	Rounds  int           `json:"rounds"`
	Steps   int           `json:"steps"`
	Started time.Time     `json:"started"`
	Elapsed time.Duration `json:"elapsed"`
	// Divergence is nil when the check passed.
	Divergence *Divergence `json:"divergence,omitempty"`
}

// Passed reports whether no divergence was found.
func (r *Report) Passed() bool { return r.Divergence == nil }

// Check plays random games on ref and subj side by side. Joint moves are
// sampled from ref and applied to both.
//
// After every move the number of legal moves per role is compared. At the
// end of a game the subject must also find the state terminal, and every
// role's goal must match; roles whose reference goal fails are skipped.
//
// Check stops at the first divergence, which is recorded in the report and
// is not an error. An error is returned when the reference itself fails to
// produce a move or a successor, or when ctx is cancelled; the partial
// report is returned with it.
func Check(ctx context.Context, ref, subj propnet.StateMachine, opts Options) (*Report, error) {
	opts = opts.withDefaults()
	r := &runner{
		ref:  ref,
		subj: subj,
		opts: opts,
		rng:  newRand(opts.Seed),
	}
	rep := &Report{
		ID:      opts.IDs.Generate(),
		Seed:    opts.Seed,
		Workers: 1,
		Started: opts.Clock.Now(),
	}
	opts.Logger.Info("consistency check starting",
		"id", rep.ID,
		"seed", opts.Seed,
		"max_rounds", opts.MaxRounds,
		"budget", opts.Budget)

	err := r.run(ctx, rep)
	rep.Elapsed = opts.Clock.Now().Sub(rep.Started)

	switch {
	case err != nil:
		opts.Logger.Warn("consistency check aborted", "id", rep.ID, "rounds", rep.Rounds, "error", err)
	case rep.Divergence != nil:
		opts.Logger.Warn("consistency check found divergence", "id", rep.ID, "divergence", rep.Divergence.String())
	default:
		opts.Logger.Info("consistency check passed", "id", rep.ID, "rounds", rep.Rounds, "steps", rep.Steps)
	}
	return rep, err
}

type runner struct {
	ref, subj propnet.StateMachine
	opts      Options
	rng       *rand.Rand
	worker    int
}

func (r *runner) expired(started time.Time) bool {
	return r.opts.Budget > 0 && r.opts.Clock.Now().Sub(started) >= r.opts.Budget
}

func (r *runner) run(ctx context.Context, rep *Report) error {
	for r.opts.MaxRounds <= 0 || rep.Rounds < r.opts.MaxRounds {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.expired(rep.Started) {
			return nil
		}
		done, err := r.round(ctx, rep)
		if err != nil || rep.Divergence != nil {
			return err
		}
		if !done {
			return ctx.Err()
		}
		rep.Rounds++
		r.opts.Logger.Debug("round passed", "worker", r.worker, "round", rep.Rounds)
	}
	return nil
}

// round plays one game. done is false when the game was cut short by the
// budget or ctx. A game that hits the depth cap is done but its final
// state is not checked.
func (r *runner) round(ctx context.Context, rep *Report) (done bool, err error) {
	roles := r.ref.Roles()
	a := r.ref.InitialState()
	b := r.subj.InitialState()
	diverge := func(step int, field string, role ir.Role, ref, subj string) {
		rep.Divergence = &Divergence{
			Worker:    r.worker,
			Round:     rep.Rounds + 1,
			Step:      step,
			Field:     field,
			Role:      role,
			StateA:    a,
			StateB:    b,
			Reference: ref,
			Subject:   subj,
		}
	}

	step := 0
	for ; !r.ref.IsTerminal(a); step++ {
		if ctx.Err() != nil || r.expired(rep.Started) {
			return false, nil
		}
		if r.opts.MaxDepth > 0 && step >= r.opts.MaxDepth {
			return true, nil
		}

		for _, role := range roles {
			want, refErr := r.ref.LegalMoves(a, role)
			got, subjErr := r.subj.LegalMoves(b, role)
			switch {
			case (refErr == nil) != (subjErr == nil):
				diverge(step, FieldLegalError, role, errString(refErr), errString(subjErr))
				return false, nil
			case refErr == nil && len(want) != len(got):
				diverge(step, FieldLegalCount, role, strconv.Itoa(len(want)), strconv.Itoa(len(got)))
				return false, nil
			}
		}

		jm, err := propnet.RandomJointMove(r.ref, a, r.rng)
		if err != nil {
			return false, fmt.Errorf("reference joint move at round %d step %d: %w", rep.Rounds+1, step, err)
		}
		nextA, err := r.ref.NextState(a, jm)
		if err != nil {
			return false, fmt.Errorf("reference next state at round %d step %d: %w", rep.Rounds+1, step, err)
		}
		nextB, err := r.subj.NextState(b, jm)
		if err != nil {
			diverge(step, FieldNextError, "", "ok", err.Error())
			return false, nil
		}
		a, b = nextA, nextB
		rep.Steps++
	}

	if !r.subj.IsTerminal(b) {
		diverge(step, FieldTerminal, "", "true", "false")
		return false, nil
	}
	for _, role := range roles {
		want, err := r.ref.Goal(a, role)
		if err != nil {
			continue
		}
		got, err := r.subj.Goal(b, role)
		if err != nil {
			diverge(step, FieldGoalError, role, strconv.Itoa(want), err.Error())
			return false, nil
		}
		if got != want {
			diverge(step, FieldGoal, role, strconv.Itoa(want), strconv.Itoa(got))
			return false, nil
		}
	}
	return true, nil
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func errString(err error) string {
	if err == nil {
		return "ok"
	}
	return err.Error()
}

// errDiverged stops sibling workers once one of them found a divergence.
var errDiverged = errors.New("divergence found")
