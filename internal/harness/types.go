package harness

import (
	"github.com/roach88/propnet/internal/ir"
)

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq   int      `json:"seq"`
	Op    string   `json:"op"`
	Role  string   `json:"role,omitempty"`
	Moves []string `json:"moves,omitempty"`
	Node  string   `json:"node,omitempty"`
	State []string `json:"state,omitempty"`

	// Result is an ir.ExternalState (initial, next), []ir.Action (legal),
	// int (goal) or bool (terminal, value). Nil for set and on error.
	Result any `json:"result,omitempty"`

	// Error is the error kind when the step failed.
	Error string `json:"error,omitempty"`
}

// canonical converts the event to a map for ir.MarshalCanonical.
func (e TraceEvent) canonical() map[string]any {
	m := map[string]any{
		"seq": e.Seq,
		"op":  e.Op,
	}
	if e.Role != "" {
		m["role"] = e.Role
	}
	if e.Moves != nil {
		m["moves"] = e.Moves
	}
	if e.Node != "" {
		m["node"] = e.Node
	}
	if e.Op == OpSet {
		state := e.State
		if state == nil {
			state = []string{}
		}
		m["state"] = state
	}
	if e.Result != nil {
		m["result"] = e.Result
	}
	if e.Error != "" {
		m["error"] = e.Error
	}
	return m
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if the evaluators agreed and every expectation and
	// assertion held.
	Pass bool `json:"pass"`

	// Trace is the executed steps in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the current state after the last step.
	Final ir.ExternalState `json:"final"`

	// FinalTerminal reports whether Final is terminal.
	FinalTerminal bool `json:"final_terminal"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
