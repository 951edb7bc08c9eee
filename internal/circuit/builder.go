package circuit

import (
	"github.com/roach88/propnet/internal/ir"
)

// NodeID identifies a node inside a Builder. After Crystallize the same
// number is the node's stable index in the Circuit.
type NodeID int

// NodeSpec describes a node to add to a Builder. Only the fields that apply
// to the kind and proposition role are read.
type NodeSpec struct {
	Name     string
	Kind     Kind
	Prop     PropRole
	Constant bool
	Fact     ir.Fact
	Role     ir.Role
	Action   ir.Action
	Reward   int
}

type draft struct {
	spec    NodeSpec
	inputs  map[NodeID]struct{}
	outputs map[NodeID]struct{}
}

// Builder assembles a network before crystallization. Edges are kept as sets,
// so connecting the same pair twice is a no-op.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	roles []ir.Role
	nodes []*draft

	// falseWire is the shared constant-false transition used by inputs that
	// have no transition of their own; -1 until first needed.
	falseWire NodeID
}

// NewBuilder returns an empty builder for a game with the given roles, in
// the order joint moves list them.
func NewBuilder(roles ...ir.Role) *Builder {
	rs := make([]ir.Role, len(roles))
	for i, r := range roles {
		rs[i] = ir.NewRole(string(r))
	}
	return &Builder{roles: rs, falseWire: -1}
}

// Roles returns the declared roles.
func (b *Builder) Roles() []ir.Role {
	return append([]ir.Role(nil), b.roles...)
}

// Len returns the number of nodes added so far.
func (b *Builder) Len() int {
	return len(b.nodes)
}

// AddNode adds an unconnected node and returns its id.
//
// Identifiers (fact, role, action) are normalized the same way ExternalState
// and JointMove normalize them.
func (b *Builder) AddNode(spec NodeSpec) NodeID {
	spec.Fact = ir.NewFact(string(spec.Fact))
	spec.Role = ir.NewRole(string(spec.Role))
	spec.Action = ir.NewAction(string(spec.Action))
	if spec.Kind == 0 && spec.Prop != PropNone {
		spec.Kind = KindProposition
	}
	b.nodes = append(b.nodes, &draft{
		spec:    spec,
		inputs:  make(map[NodeID]struct{}),
		outputs: make(map[NodeID]struct{}),
	})
	return NodeID(len(b.nodes) - 1)
}

// Connect adds the edge from -> to. Ids outside the builder are ignored.
func (b *Builder) Connect(from, to NodeID) {
	if !b.valid(from) || !b.valid(to) {
		return
	}
	b.nodes[from].outputs[to] = struct{}{}
	b.nodes[to].inputs[from] = struct{}{}
}

// Disconnect removes the edge from -> to if present.
func (b *Builder) Disconnect(from, to NodeID) {
	if !b.valid(from) || !b.valid(to) {
		return
	}
	delete(b.nodes[from].outputs, to)
	delete(b.nodes[to].inputs, from)
}

// SetName renames a node.
func (b *Builder) SetName(id NodeID, name string) {
	if b.valid(id) {
		b.nodes[id].spec.Name = name
	}
}

func (b *Builder) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(b.nodes)
}

func (b *Builder) gate(kind Kind, ins []NodeID) NodeID {
	id := b.AddNode(NodeSpec{Kind: kind})
	for _, in := range ins {
		b.Connect(in, id)
	}
	return id
}

// And adds an AND gate over ins. With no inputs it is constantly true.
func (b *Builder) And(ins ...NodeID) NodeID { return b.gate(KindAnd, ins) }

// Or adds an OR gate over ins. With no inputs it is constantly false.
func (b *Builder) Or(ins ...NodeID) NodeID { return b.gate(KindOr, ins) }

// Not adds a NOT gate over in.
func (b *Builder) Not(in NodeID) NodeID { return b.gate(KindNot, []NodeID{in}) }

// Const adds a CONSTANT node.
func (b *Builder) Const(v bool) NodeID {
	return b.AddNode(NodeSpec{Kind: KindConstant, Constant: v})
}

// Transition adds a TRANSITION node fed by in.
func (b *Builder) Transition(in NodeID) NodeID {
	return b.gate(KindTransition, []NodeID{in})
}

// Base adds a BASE proposition for fact. Its transition wire is set with Next.
func (b *Builder) Base(fact ir.Fact) NodeID {
	return b.AddNode(NodeSpec{Prop: PropBase, Fact: fact})
}

// Input adds an INPUT proposition for role doing action and wires it to the
// shared constant-false transition.
func (b *Builder) Input(role ir.Role, action ir.Action) NodeID {
	id := b.AddNode(NodeSpec{Prop: PropInput, Role: role, Action: action})
	b.WireFalse(id)
	return id
}

// Legal adds a LEGAL proposition fed by in.
func (b *Builder) Legal(role ir.Role, action ir.Action, in NodeID) NodeID {
	id := b.AddNode(NodeSpec{Prop: PropLegal, Role: role, Action: action})
	b.Connect(in, id)
	return id
}

// Goal adds a GOAL proposition fed by in.
func (b *Builder) Goal(role ir.Role, reward int, in NodeID) NodeID {
	id := b.AddNode(NodeSpec{Prop: PropGoal, Role: role, Reward: reward})
	b.Connect(in, id)
	return id
}

// Terminal adds the TERMINAL proposition fed by in.
func (b *Builder) Terminal(in NodeID) NodeID {
	id := b.AddNode(NodeSpec{Prop: PropTerminal, Name: "terminal"})
	b.Connect(in, id)
	return id
}

// Init adds the INIT proposition.
func (b *Builder) Init() NodeID {
	return b.AddNode(NodeSpec{Prop: PropInit, Name: "init"})
}

// View adds a named VIEW proposition fed by in.
func (b *Builder) View(name string, in NodeID) NodeID {
	id := b.AddNode(NodeSpec{Prop: PropView, Name: name})
	b.Connect(in, id)
	return id
}

// Next sets the transition wire of a BASE or INPUT leaf: a new TRANSITION
// node reading from, feeding leaf. It returns the transition's id.
func (b *Builder) Next(leaf, from NodeID) NodeID {
	t := b.Transition(from)
	b.Connect(t, leaf)
	return t
}

// WireFalse connects leaf to the shared constant-false transition, creating
// it on first use.
func (b *Builder) WireFalse(leaf NodeID) {
	if b.falseWire < 0 {
		f := b.AddNode(NodeSpec{Kind: KindConstant, Name: "false_wire_const"})
		b.falseWire = b.Transition(f)
		b.SetName(b.falseWire, "false_wire")
	}
	b.Connect(b.falseWire, leaf)
}
