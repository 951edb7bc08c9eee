package circuit

import (
	"maps"
	"slices"

	"github.com/roach88/propnet/internal/ir"
)

// Circuit is a crystallized, read-only propositional network.
//
// All accessors are safe for concurrent use. Slices returned by accessors
// are shared and must not be modified.
type Circuit struct {
	nodes []Node
	roles []ir.Role
	names map[string]int

	bases     map[ir.Fact]int
	inputs    map[ir.Move]int
	legals    map[ir.Role][]int
	goals     map[ir.Role][]int
	baseList  []int
	inputList []int
	terminal  int
	init      int

	topo []int
	hash string
}

// Len returns the number of nodes.
func (c *Circuit) Len() int { return len(c.nodes) }

// Node returns the node at index i.
func (c *Circuit) Node(i int) *Node { return &c.nodes[i] }

// Roles returns the declared roles in joint-move order.
func (c *Circuit) Roles() []ir.Role { return c.roles }

// RoleIndex returns the position of r in Roles, or -1.
func (c *Circuit) RoleIndex(r ir.Role) int { return slices.Index(c.roles, r) }

// Bases returns the BASE proposition indices in node order.
func (c *Circuit) Bases() []int { return c.baseList }

// Inputs returns the INPUT proposition indices in node order.
func (c *Circuit) Inputs() []int { return c.inputList }

// Base returns the BASE proposition bound to fact.
func (c *Circuit) Base(f ir.Fact) (int, bool) {
	i, ok := c.bases[f]
	return i, ok
}

// Input returns the INPUT proposition bound to m.
func (c *Circuit) Input(m ir.Move) (int, bool) {
	i, ok := c.inputs[m]
	return i, ok
}

// Legals returns the LEGAL propositions of role r in node order.
func (c *Circuit) Legals(r ir.Role) []int { return c.legals[r] }

// Goals returns the GOAL propositions of role r in node order.
func (c *Circuit) Goals(r ir.Role) []int { return c.goals[r] }

// Terminal returns the TERMINAL proposition.
func (c *Circuit) Terminal() int { return c.terminal }

// Init returns the INIT proposition.
func (c *Circuit) Init() int { return c.init }

// Topo returns every node in dependency order. A node appears after all
// nodes it reads, transition wires excepted.
func (c *Circuit) Topo() []int { return c.topo }

// Lookup returns the node named name.
func (c *Circuit) Lookup(name string) (int, bool) {
	i, ok := c.names[name]
	return i, ok
}

// Hash returns the content hash of the circuit's topology.
func (c *Circuit) Hash() string { return c.hash }

// Clone returns a deep copy sharing no memory with c.
func (c *Circuit) Clone() *Circuit {
	nodes := make([]Node, len(c.nodes))
	for i, n := range c.nodes {
		n.Inputs = slices.Clone(n.Inputs)
		n.Outputs = slices.Clone(n.Outputs)
		nodes[i] = n
	}
	return &Circuit{
		nodes:     nodes,
		roles:     slices.Clone(c.roles),
		names:     maps.Clone(c.names),
		bases:     maps.Clone(c.bases),
		inputs:    maps.Clone(c.inputs),
		legals:    cloneIndexMap(c.legals),
		goals:     cloneIndexMap(c.goals),
		baseList:  slices.Clone(c.baseList),
		inputList: slices.Clone(c.inputList),
		terminal:  c.terminal,
		init:      c.init,
		topo:      slices.Clone(c.topo),
		hash:      c.hash,
	}
}

func cloneIndexMap(m map[ir.Role][]int) map[ir.Role][]int {
	out := make(map[ir.Role][]int, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

// computeHash hashes the canonical JSON form of roles and nodes.
func (c *Circuit) computeHash() (string, error) {
	nodes := make([]any, len(c.nodes))
	for i := range c.nodes {
		nodes[i] = nodeRecord(&c.nodes[i])
	}
	data, err := ir.MarshalCanonical(map[string]any{
		"roles": c.roles,
		"nodes": nodes,
	})
	if err != nil {
		return "", err
	}
	return ir.HashWithDomain(ir.DomainCircuit, data), nil
}

func nodeRecord(n *Node) map[string]any {
	rec := map[string]any{
		"kind":   n.Kind.String(),
		"name":   n.Name,
		"inputs": n.Inputs,
	}
	switch n.Prop {
	case PropNone:
		if n.Kind == KindConstant {
			rec["value"] = n.Constant
		}
	case PropBase:
		rec["prop"] = n.Prop.String()
		rec["fact"] = n.Fact
	case PropInput, PropLegal:
		rec["prop"] = n.Prop.String()
		rec["role"] = n.Role
		rec["action"] = n.Action
	case PropGoal:
		rec["prop"] = n.Prop.String()
		rec["role"] = n.Role
		rec["reward"] = n.Reward
	default:
		rec["prop"] = n.Prop.String()
	}
	return rec
}

// Stats summarizes a circuit's shape.
type Stats struct {
	Nodes     int            `json:"nodes"`
	Edges     int            `json:"edges"`
	Roles     int            `json:"roles"`
	Kinds     map[string]int `json:"kinds"`
	Props     map[string]int `json:"props"`
	MaxFanIn  int            `json:"max_fan_in"`
	MaxFanOut int            `json:"max_fan_out"`
	Hash      string         `json:"hash"`
}

// Stats counts nodes by kind and proposition role.
func (c *Circuit) Stats() Stats {
	s := Stats{
		Nodes: len(c.nodes),
		Roles: len(c.roles),
		Kinds: make(map[string]int),
		Props: make(map[string]int),
		Hash:  c.hash,
	}
	for i := range c.nodes {
		n := &c.nodes[i]
		s.Edges += len(n.Outputs)
		s.Kinds[n.Kind.String()]++
		if n.Prop != PropNone {
			s.Props[n.Prop.String()]++
		}
		s.MaxFanIn = max(s.MaxFanIn, len(n.Inputs))
		s.MaxFanOut = max(s.MaxFanOut, len(n.Outputs))
	}
	return s
}
