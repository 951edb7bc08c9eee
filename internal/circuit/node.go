package circuit

import (
	"fmt"

	"github.com/roach88/propnet/internal/ir"
)

// Kind is the gate type of a node.
type Kind uint8

const (
	KindAnd Kind = iota + 1
	KindOr
	KindNot
	KindConstant
	KindTransition
	KindProposition
)

var kindNames = map[Kind]string{
	KindAnd:         "AND",
	KindOr:          "OR",
	KindNot:         "NOT",
	KindConstant:    "CONSTANT",
	KindTransition:  "TRANSITION",
	KindProposition: "PROPOSITION",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// PropRole classifies a PROPOSITION node. Gates carry PropNone.
type PropRole uint8

const (
	PropNone PropRole = iota
	PropView
	PropBase
	PropInput
	PropLegal
	PropGoal
	PropTerminal
	PropInit
)

var propNames = map[PropRole]string{
	PropNone:     "NONE",
	PropView:     "VIEW",
	PropBase:     "BASE",
	PropInput:    "INPUT",
	PropLegal:    "LEGAL",
	PropGoal:     "GOAL",
	PropTerminal: "TERMINAL",
	PropInit:     "INIT",
}

func (p PropRole) String() string {
	if s, ok := propNames[p]; ok {
		return s
	}
	return fmt.Sprintf("PropRole(%d)", uint8(p))
}

// Node is one gate or proposition of the network.
//
// Nodes returned by a Circuit are shared and must be treated as read-only.
type Node struct {
	Index int
	Name  string
	Kind  Kind
	Prop  PropRole

	// Constant is the value of a CONSTANT node.
	Constant bool

	// Fact is set on BASE propositions.
	Fact ir.Fact

	// Role is set on INPUT, LEGAL and GOAL propositions; Action on INPUT
	// and LEGAL propositions.
	Role   ir.Role
	Action ir.Action

	// Reward is the goal value of a GOAL proposition.
	Reward int

	Inputs  []int
	Outputs []int
}

// IsLeaf reports whether the node's value is driven from outside the
// network (BASE, INPUT and INIT propositions).
func (n *Node) IsLeaf() bool {
	return n.Prop == PropBase || n.Prop == PropInput || n.Prop == PropInit
}

// IsGate reports whether the node is an AND, OR or NOT gate.
func (n *Node) IsGate() bool {
	return n.Kind == KindAnd || n.Kind == KindOr || n.Kind == KindNot
}

// Move returns the role-action pair of an INPUT or LEGAL proposition.
func (n *Node) Move() ir.Move {
	return ir.Move{Role: n.Role, Action: n.Action}
}

// Label returns a short human-readable description of the node.
func (n *Node) Label() string {
	switch n.Prop {
	case PropNone:
		if n.Kind == KindConstant {
			if n.Constant {
				return "TRUE"
			}
			return "FALSE"
		}
		return n.Kind.String()
	case PropBase:
		return "true " + string(n.Fact)
	case PropInput:
		return "does " + n.Move().String()
	case PropLegal:
		return "legal " + n.Move().String()
	case PropGoal:
		return fmt.Sprintf("goal (%s %d)", n.Role, n.Reward)
	case PropTerminal:
		return "terminal"
	case PropInit:
		return "init"
	default:
		return n.Name
	}
}
