package circuit

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/propnet/internal/ir"
)

// Crystallize freezes the builder into a Circuit.
//
// Edge sets become sorted index arrays, node ids become stable indices, and
// a topological evaluation order is computed with transition wires excluded.
// Every structural invariant is checked; if any fails the result is a
// *MalformedCircuitError listing all violations and no circuit.
//
// The builder is not modified and may be crystallized again.
func Crystallize(b *Builder) (*Circuit, error) {
	nodes := make([]Node, len(b.nodes))
	for i, d := range b.nodes {
		s := d.spec
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("n%d", i)
		}
		nodes[i] = Node{
			Index:    i,
			Name:     name,
			Kind:     s.Kind,
			Prop:     s.Prop,
			Constant: s.Constant,
			Fact:     s.Fact,
			Role:     s.Role,
			Action:   s.Action,
			Reward:   s.Reward,
			Inputs:   sortedIDs(d.inputs),
			Outputs:  sortedIDs(d.outputs),
		}
	}

	c := &Circuit{
		nodes:    nodes,
		roles:    b.Roles(),
		names:    make(map[string]int, len(nodes)),
		bases:    make(map[ir.Fact]int),
		inputs:   make(map[ir.Move]int),
		legals:   make(map[ir.Role][]int),
		goals:    make(map[ir.Role][]int),
		terminal: -1,
		init:     -1,
	}

	v := &validator{c: c}
	v.checkRoles()
	for i := range nodes {
		v.checkNode(&nodes[i])
	}
	v.checkCoverage()

	graph := buildDependencyGraph(nodes)
	order, acyclic := topoOrder(graph)
	if !acyclic {
		v.violations = append(v.violations, cycleViolations(nodes, graph)...)
	}

	if len(v.violations) > 0 {
		return nil, &MalformedCircuitError{Violations: v.violations}
	}

	c.topo = order
	hash, err := c.computeHash()
	if err != nil {
		return nil, fmt.Errorf("hash circuit: %w", err)
	}
	c.hash = hash
	return c, nil
}

func sortedIDs(set map[NodeID]struct{}) []int {
	out := make([]int, 0, len(set))
	for id := range maps.Keys(set) {
		out = append(out, int(id))
	}
	slices.Sort(out)
	return out
}

// validator collects violations while filling the circuit's lookup tables.
type validator struct {
	c          *Circuit
	violations []Violation
	legalPairs map[ir.Move]int
}

func (v *validator) add(code string, node int, format string, args ...any) {
	v.violations = append(v.violations, Violation{
		Code:    code,
		Node:    node,
		Message: fmt.Sprintf(format, args...),
	})
}

func (v *validator) checkRoles() {
	if len(v.c.roles) == 0 {
		v.add(CodeRoles, -1, "no roles declared")
	}
	seen := make(map[ir.Role]bool, len(v.c.roles))
	for _, r := range v.c.roles {
		if r == "" {
			v.add(CodeRoles, -1, "empty role name")
			continue
		}
		if seen[r] {
			v.add(CodeRoles, -1, "role %q declared twice", r)
		}
		seen[r] = true
	}
}

func (v *validator) declared(r ir.Role) bool {
	return slices.Contains(v.c.roles, r)
}

func (v *validator) checkNode(n *Node) {
	c := v.c
	if prev, dup := c.names[n.Name]; dup {
		v.add(CodeDuplicate, n.Index, "name %q already used by node %d", n.Name, prev)
	} else {
		c.names[n.Name] = n.Index
	}

	if n.Kind != KindProposition && n.Prop != PropNone {
		v.add(CodeKind, n.Index, "%s node carries proposition role %s", n.Kind, n.Prop)
	}

	switch n.Kind {
	case KindAnd, KindOr:
	case KindNot:
		if len(n.Inputs) != 1 {
			v.add(CodeArity, n.Index, "NOT has %d inputs, want exactly 1", len(n.Inputs))
		}
	case KindConstant:
		if len(n.Inputs) != 0 {
			v.add(CodeArity, n.Index, "CONSTANT has %d inputs, want none", len(n.Inputs))
		}
	case KindTransition:
		if len(n.Inputs) != 1 {
			v.add(CodeArity, n.Index, "TRANSITION has %d inputs, want exactly 1", len(n.Inputs))
		}
		for _, out := range n.Outputs {
			if !isWireTarget(&c.nodes[out]) {
				v.add(CodeTransitionWire, n.Index, "TRANSITION feeds %s node %d, want only BASE or INPUT",
					c.nodes[out].Label(), out)
			}
		}
	case KindProposition:
		v.checkProposition(n)
	default:
		v.add(CodeKind, n.Index, "unknown node kind %s", n.Kind)
	}
}

func (v *validator) checkProposition(n *Node) {
	c := v.c
	switch n.Prop {
	case PropBase, PropInput:
		if len(n.Inputs) != 1 {
			v.add(CodeTransitionWire, n.Index, "%s has %d inputs, want exactly one transition wire",
				n.Prop, len(n.Inputs))
		} else if in := c.nodes[n.Inputs[0]]; in.Kind != KindTransition {
			v.add(CodeTransitionWire, n.Index, "%s input is %s node %d, want TRANSITION",
				n.Prop, in.Kind, in.Index)
		}
		if n.Prop == PropBase {
			v.registerBase(n)
		} else {
			v.registerInput(n)
		}
	case PropInit:
		if len(n.Inputs) != 0 {
			v.add(CodeArity, n.Index, "INIT has %d inputs, want none", len(n.Inputs))
		}
		if c.init >= 0 {
			v.add(CodeSingleton, n.Index, "second INIT proposition (first is node %d)", c.init)
		} else {
			c.init = n.Index
		}
	case PropView, PropLegal, PropGoal, PropTerminal:
		if len(n.Inputs) > 1 {
			v.add(CodeArity, n.Index, "%s has %d inputs, want at most 1", n.Prop, len(n.Inputs))
		}
		switch n.Prop {
		case PropLegal:
			v.registerLegal(n)
		case PropGoal:
			v.registerGoal(n)
		case PropTerminal:
			if c.terminal >= 0 {
				v.add(CodeSingleton, n.Index, "second TERMINAL proposition (first is node %d)", c.terminal)
			} else {
				c.terminal = n.Index
			}
		}
	default:
		v.add(CodeKind, n.Index, "PROPOSITION without a proposition role")
	}
}

func (v *validator) registerBase(n *Node) {
	c := v.c
	if n.Fact == "" {
		v.add(CodeEmptyIdentifier, n.Index, "BASE without a fact")
		return
	}
	if prev, dup := c.bases[n.Fact]; dup {
		v.add(CodeDuplicate, n.Index, "fact %s already bound to node %d", n.Fact, prev)
		return
	}
	c.bases[n.Fact] = n.Index
	c.baseList = append(c.baseList, n.Index)
}

func (v *validator) registerInput(n *Node) {
	c := v.c
	if !v.checkMove(n) {
		return
	}
	m := n.Move()
	if prev, dup := c.inputs[m]; dup {
		v.add(CodeDuplicate, n.Index, "move %s already bound to node %d", m, prev)
		return
	}
	c.inputs[m] = n.Index
	c.inputList = append(c.inputList, n.Index)
}

func (v *validator) registerLegal(n *Node) {
	c := v.c
	if !v.checkMove(n) {
		return
	}
	if v.legalPairs == nil {
		v.legalPairs = make(map[ir.Move]int)
	}
	m := n.Move()
	if prev, dup := v.legalPairs[m]; dup {
		v.add(CodeDuplicate, n.Index, "legal %s already bound to node %d", m, prev)
		return
	}
	v.legalPairs[m] = n.Index
	c.legals[n.Role] = append(c.legals[n.Role], n.Index)
}

func (v *validator) registerGoal(n *Node) {
	if n.Role == "" {
		v.add(CodeEmptyIdentifier, n.Index, "GOAL without a role")
		return
	}
	if !v.declared(n.Role) {
		v.add(CodeUndeclaredRole, n.Index, "GOAL names undeclared role %q", n.Role)
		return
	}
	v.c.goals[n.Role] = append(v.c.goals[n.Role], n.Index)
}

func (v *validator) checkMove(n *Node) bool {
	if n.Role == "" || n.Action == "" {
		v.add(CodeEmptyIdentifier, n.Index, "%s needs a role and an action", n.Prop)
		return false
	}
	if !v.declared(n.Role) {
		v.add(CodeUndeclaredRole, n.Index, "%s names undeclared role %q", n.Prop, n.Role)
		return false
	}
	return true
}

func (v *validator) checkCoverage() {
	c := v.c
	if c.terminal < 0 {
		v.add(CodeSingleton, -1, "no TERMINAL proposition")
	}
	if c.init < 0 {
		v.add(CodeSingleton, -1, "no INIT proposition")
	}
	for _, r := range c.roles {
		if len(c.legals[r]) == 0 {
			v.add(CodeRoleCoverage, -1, "role %q has no LEGAL proposition", r)
		}
		if len(c.goals[r]) == 0 {
			v.add(CodeRoleCoverage, -1, "role %q has no GOAL proposition", r)
		}
	}
}
