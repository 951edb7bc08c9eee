package propnet

import (
	"github.com/roach88/propnet/internal/circuit"
	"github.com/roach88/propnet/internal/ir"
	"github.com/roach88/propnet/internal/query"
)

// Stats counts evaluator work since construction. LeafFlips is only
// counted by Incremental.
type Stats struct {
	Queries    uint64 `json:"queries"`
	LeafFlips  uint64 `json:"leaf_flips"`
	Recomputed uint64 `json:"recomputed"`
}

// evaluator is the value arena behind a machine.
type evaluator interface {
	// assign sets every BASE and INPUT leaf: true for the listed ones,
	// false for the rest. INIT takes init.
	assign(bases, inputs []int, init bool)
	// value reads a node under the current assignment.
	value(node int) bool
}

// machine implements the StateMachine queries on top of an evaluator.
type machine struct {
	c  *circuit.Circuit
	tr *query.Translator
	ev evaluator

	initial     ir.ExternalState
	haveInitial bool

	stats Stats
}

func newMachine(c *circuit.Circuit, opts []Option) (*machine, *config, error) {
	if t := c.Terminal(); t < 0 || t >= c.Len() {
		return nil, nil, &UndefinedTerminalError{Circuit: c.Hash()}
	}
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.latches.Check(c); err != nil {
		return nil, nil, err
	}
	return &machine{c: c, tr: query.NewTranslator(c)}, cfg, nil
}

// Circuit returns the evaluated circuit.
func (m *machine) Circuit() *circuit.Circuit { return m.c }

// Stats returns the work counters.
func (m *machine) Stats() Stats { return m.stats }

// Roles returns the roles in joint-move order.
func (m *machine) Roles() []ir.Role { return m.c.Roles() }

// InitialState forces INIT true with every BASE and INPUT false and reads
// the transition wires. The result is cached.
func (m *machine) InitialState() ir.ExternalState {
	if m.haveInitial {
		return m.initial
	}
	m.stats.Queries++
	m.ev.assign(nil, nil, true)
	m.initial = m.tr.NextState(m.ev.value)
	m.haveInitial = true
	m.ev.assign(nil, nil, false)
	return m.initial
}

// IsTerminal reports whether the TERMINAL proposition is true in s.
func (m *machine) IsTerminal(s ir.ExternalState) bool {
	m.load(s, nil)
	return m.ev.value(m.c.Terminal())
}

// LegalMoves returns role's legal actions in s in circuit order.
func (m *machine) LegalMoves(s ir.ExternalState, role ir.Role) ([]ir.Action, error) {
	if _, ok := m.tr.RoleIndex(role); !ok {
		return nil, &UnknownRoleError{Role: role}
	}
	m.load(s, nil)
	legal := m.tr.LegalActions(role, m.ev.value)
	if len(legal) == 0 && !m.ev.value(m.c.Terminal()) {
		return nil, &NoLegalMovesError{Role: role, State: s}
	}
	return legal, nil
}

// Goal returns the reward of role's single true GOAL proposition in s.
func (m *machine) Goal(s ir.ExternalState, role ir.Role) (int, error) {
	if _, ok := m.tr.RoleIndex(role); !ok {
		return 0, &UnknownRoleError{Role: role}
	}
	m.load(s, nil)
	rewards := m.tr.TrueRewards(role, m.ev.value)
	if len(rewards) != 1 {
		return 0, &AmbiguousGoalError{Role: role, State: s, Rewards: rewards}
	}
	return rewards[0], nil
}

// NextState sets s and jm and reads the transition wires.
func (m *machine) NextState(s ir.ExternalState, jm ir.JointMove) (ir.ExternalState, error) {
	if want := len(m.c.Roles()); jm.Len() != want {
		return ir.ExternalState{}, &MoveArityError{Got: jm.Len(), Want: want}
	}
	m.load(s, m.tr.InputLeaves(jm))
	return m.tr.NextState(m.ev.value), nil
}

// SetState assigns s with no moves, for probing with Value.
func (m *machine) SetState(s ir.ExternalState) {
	m.load(s, nil)
}

// SetMoves assigns s and jm, for probing with Value. Arity is not checked;
// actions past the last role are ignored.
func (m *machine) SetMoves(s ir.ExternalState, jm ir.JointMove) {
	m.load(s, m.tr.InputLeaves(jm))
}

// Value reads a node under the current assignment.
func (m *machine) Value(node int) bool {
	return m.ev.value(node)
}

func (m *machine) load(s ir.ExternalState, inputs []int) {
	m.stats.Queries++
	bases, _ := m.tr.BaseLeaves(s)
	m.ev.assign(bases, inputs, false)
}
