package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/propnet/internal/circuit"
	"github.com/roach88/propnet/internal/compiler"
	"github.com/roach88/propnet/internal/ir"
	"github.com/roach88/propnet/internal/latch"
	"github.com/roach88/propnet/internal/propnet"
)

// Error kinds recorded in traces.
const (
	ErrAmbiguousGoal = "ambiguous_goal"
	ErrNoLegalMoves  = "no_legal_moves"
	ErrUnknownRole   = "unknown_role"
	ErrMoveArity     = "move_arity"
	ErrUnknownNode   = "unknown_node"
	ErrOther         = "error"
)

// ErrorKind classifies an evaluator error for traces and expectations.
func ErrorKind(err error) string {
	switch {
	case propnet.IsAmbiguousGoal(err):
		return ErrAmbiguousGoal
	case propnet.IsNoLegalMoves(err):
		return ErrNoLegalMoves
	case propnet.IsUnknownRole(err):
		return ErrUnknownRole
	case propnet.IsMoveArity(err):
		return ErrMoveArity
	default:
		return ErrOther
	}
}

// probe is the evaluator surface the harness drives.
type probe interface {
	propnet.StateMachine
	SetState(ir.ExternalState)
	Value(node int) bool
}

// Harness runs scenarios against one circuit.
type Harness struct {
	circuit *circuit.Circuit
	logger  *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger. By default the harness logs nothing.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// Run loads the scenario's circuit and executes the scenario.
//
// The returned error covers loading and evaluator construction only;
// disagreements and failed expectations are reported in the Result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	c, err := compiler.LoadCircuit(scenario.Circuit)
	if err != nil {
		return nil, fmt.Errorf("failed to load circuit: %w", err)
	}
	return RunCircuit(c, scenario, opts...)
}

// RunCircuit executes a scenario against an already built circuit; the
// scenario's circuit path is ignored.
//
// Execution flow:
// 1. Optionally analyze latches
// 2. Build an incremental and a recursive evaluator
// 3. Execute the steps on each
// 4. Compare the two traces
// 5. Check expectations and assertions against the incremental trace
func RunCircuit(c *circuit.Circuit, scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		circuit: c,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}

	var popts []propnet.Option
	if scenario.Latches {
		rep, err := latch.New(c).AnalyzeAll(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to analyze latches: %w", err)
		}
		popts = append(popts, propnet.WithLatches(rep.Latches))
		h.logger.Debug("latches applied", "scenario", scenario.Name, "count", len(rep.Latches))
	}

	inc, err := propnet.NewIncremental(c, popts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build incremental evaluator: %w", err)
	}
	rec, err := propnet.NewRecursive(c, popts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build recursive evaluator: %w", err)
	}

	incTrace, incFinal := h.execute(inc, scenario.Steps)
	recTrace, recFinal := h.execute(rec, scenario.Steps)

	result := NewResult()
	result.Trace = incTrace
	result.Final = incFinal
	result.FinalTerminal = inc.IsTerminal(incFinal)

	for _, msg := range compareTraces(incTrace, recTrace) {
		result.AddError(msg)
	}
	if incFinal != recFinal {
		result.AddError(fmt.Sprintf("evaluators disagree on final state: incremental %s, recursive %s", incFinal, recFinal))
	}

	for i, step := range scenario.Steps {
		if step.Expect == nil {
			continue
		}
		if msg := checkExpect(step.Op, step.Expect, incTrace[i]); msg != "" {
			result.AddError(fmt.Sprintf("steps[%d] (%s): %s", i, step.Op, msg))
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	h.logger.Info("scenario finished",
		"scenario", scenario.Name,
		"steps", len(scenario.Steps),
		"pass", result.Pass)
	return result, nil
}

// execute runs steps on m from the empty state.
func (h *Harness) execute(m probe, steps []Step) ([]TraceEvent, ir.ExternalState) {
	var cur ir.ExternalState
	trace := make([]TraceEvent, 0, len(steps))

	for i, s := range steps {
		ev := TraceEvent{
			Seq:   i + 1,
			Op:    s.Op,
			Role:  s.Role,
			Moves: s.Moves,
			Node:  s.Node,
			State: s.State,
		}

		switch s.Op {
		case OpInitial:
			cur = m.InitialState()
			ev.Result = cur
		case OpSet:
			cur = ir.StateOf(s.State...)
		case OpTerminal:
			ev.Result = m.IsTerminal(cur)
		case OpLegal:
			legal, err := m.LegalMoves(cur, ir.Role(s.Role))
			if err != nil {
				ev.Error = ErrorKind(err)
			} else {
				ev.Result = legal
			}
		case OpGoal:
			g, err := m.Goal(cur, ir.Role(s.Role))
			if err != nil {
				ev.Error = ErrorKind(err)
			} else {
				ev.Result = g
			}
		case OpNext:
			next, err := m.NextState(cur, ir.MovesOf(s.Moves...))
			if err != nil {
				ev.Error = ErrorKind(err)
			} else {
				cur = next
				ev.Result = next
			}
		case OpValue:
			idx, ok := h.circuit.Lookup(s.Node)
			if !ok {
				ev.Error = ErrUnknownNode
				break
			}
			m.SetState(cur)
			ev.Result = m.Value(idx)
		}

		trace = append(trace, ev)
	}
	return trace, cur
}

// compareTraces lists the events on which the two evaluators differ.
func compareTraces(a, b []TraceEvent) []string {
	var out []string
	for i := range a {
		x, errX := ir.MarshalCanonical(a[i].canonical())
		y, errY := ir.MarshalCanonical(b[i].canonical())
		if errX != nil || errY != nil {
			out = append(out, fmt.Sprintf("steps[%d]: cannot encode trace event", i))
			continue
		}
		if !bytes.Equal(x, y) {
			out = append(out, fmt.Sprintf("steps[%d] (%s): evaluators disagree: incremental %s, recursive %s", i, a[i].Op, x, y))
		}
	}
	return out
}

// checkExpect returns an empty string when ev satisfies e.
func checkExpect(op string, e *Expect, ev TraceEvent) string {
	if e.Error != "" {
		if ev.Error != e.Error {
			return fmt.Sprintf("expected error %s, got %s", e.Error, orNone(ev.Error))
		}
		return ""
	}
	if ev.Error != "" {
		return fmt.Sprintf("unexpected error %s", ev.Error)
	}

	switch op {
	case OpInitial, OpNext:
		if e.State == nil {
			return ""
		}
		want := ir.StateOf(e.State...)
		if got := ev.Result.(ir.ExternalState); got != want {
			return fmt.Sprintf("expected state %s, got %s", want, got)
		}
	case OpLegal:
		if e.Actions == nil {
			return ""
		}
		want := ir.Actions(e.Actions...)
		if got := ev.Result.([]ir.Action); !slices.Equal(got, want) {
			return fmt.Sprintf("expected actions %v, got %v", want, got)
		}
	case OpGoal:
		if e.Goal != nil && ev.Result.(int) != *e.Goal {
			return fmt.Sprintf("expected goal %d, got %d", *e.Goal, ev.Result.(int))
		}
	case OpTerminal:
		if e.Terminal != nil && ev.Result.(bool) != *e.Terminal {
			return fmt.Sprintf("expected terminal %t, got %t", *e.Terminal, ev.Result.(bool))
		}
	case OpValue:
		if e.Value != nil && ev.Result.(bool) != *e.Value {
			return fmt.Sprintf("expected value %t, got %t", *e.Value, ev.Result.(bool))
		}
	}
	return ""
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
