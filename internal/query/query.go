// Package query translates between caller-level values (ExternalState,
// JointMove, roles) and the node indices of a crystallized circuit.
//
// It holds no values of its own. Reads go through a Reader supplied by the
// evaluator that owns the value arena.
package query

import (
	"github.com/roach88/propnet/internal/circuit"
	"github.com/roach88/propnet/internal/ir"
)

// Reader returns the current value of a node.
type Reader func(node int) bool

// Translator maps states, moves and roles onto one circuit.
// It is read-only after construction and safe for concurrent use.
type Translator struct {
	c     *circuit.Circuit
	roles map[ir.Role]int
	// wires[i] is the transition feeding the i-th BASE of c.Bases().
	wires []int
}

// NewTranslator precomputes the lookup tables for c.
func NewTranslator(c *circuit.Circuit) *Translator {
	t := &Translator{
		c:     c,
		roles: make(map[ir.Role]int, len(c.Roles())),
		wires: make([]int, len(c.Bases())),
	}
	for i, r := range c.Roles() {
		t.roles[r] = i
	}
	for i, b := range c.Bases() {
		t.wires[i] = c.Node(b).Inputs[0]
	}
	return t
}

// Circuit returns the translated circuit.
func (t *Translator) Circuit() *circuit.Circuit { return t.c }

// RoleIndex returns the position of r in the circuit's role order. Roles
// are normalized like facts and actions.
func (t *Translator) RoleIndex(r ir.Role) (int, bool) {
	i, ok := t.roles[ir.NewRole(string(r))]
	return i, ok
}

// BaseLeaves returns the BASE propositions that are true in s, ascending.
// Facts with no BASE proposition are returned in unknown.
func (t *Translator) BaseLeaves(s ir.ExternalState) (leaves []int, unknown []ir.Fact) {
	for _, f := range s.Facts() {
		if i, ok := t.c.Base(f); ok {
			leaves = append(leaves, i)
		} else {
			unknown = append(unknown, f)
		}
	}
	return leaves, unknown
}

// InputLeaves returns the INPUT propositions named by jm, pairing the i-th
// action with the i-th role. Moves with no INPUT proposition are skipped.
// The caller checks jm's arity.
func (t *Translator) InputLeaves(jm ir.JointMove) []int {
	roles := t.c.Roles()
	var leaves []int
	for i, a := range jm.Actions() {
		if i >= len(roles) {
			break
		}
		if idx, ok := t.c.Input(ir.Move{Role: roles[i], Action: a}); ok {
			leaves = append(leaves, idx)
		}
	}
	return leaves
}

// CurrentState reads the BASE propositions.
func (t *Translator) CurrentState(read Reader) ir.ExternalState {
	var facts []ir.Fact
	for _, b := range t.c.Bases() {
		if read(b) {
			facts = append(facts, t.c.Node(b).Fact)
		}
	}
	return ir.NewExternalState(facts...)
}

// NextState reads the transition wire of every BASE proposition.
func (t *Translator) NextState(read Reader) ir.ExternalState {
	var facts []ir.Fact
	for i, b := range t.c.Bases() {
		if read(t.wires[i]) {
			facts = append(facts, t.c.Node(b).Fact)
		}
	}
	return ir.NewExternalState(facts...)
}

// LegalActions returns the actions of role's true LEGAL propositions in
// circuit order.
func (t *Translator) LegalActions(role ir.Role, read Reader) []ir.Action {
	var out []ir.Action
	for _, l := range t.c.Legals(ir.NewRole(string(role))) {
		if read(l) {
			out = append(out, t.c.Node(l).Action)
		}
	}
	return out
}

// TrueRewards returns the rewards of role's true GOAL propositions in
// circuit order.
func (t *Translator) TrueRewards(role ir.Role, read Reader) []int {
	var out []int
	for _, g := range t.c.Goals(ir.NewRole(string(role))) {
		if read(g) {
			out = append(out, t.c.Node(g).Reward)
		}
	}
	return out
}
