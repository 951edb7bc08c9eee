package compiler

import (
	"fmt"
	"slices"
	"strings"

	"cuelang.org/go/cue"

	"github.com/roach88/propnet/internal/circuit"
	"github.com/roach88/propnet/internal/ir"
)

// nodeKinds maps a description kind to the node it creates.
var nodeKinds = map[string]circuit.NodeSpec{
	"and":        {Kind: circuit.KindAnd},
	"or":         {Kind: circuit.KindOr},
	"not":        {Kind: circuit.KindNot},
	"const":      {Kind: circuit.KindConstant},
	"transition": {Kind: circuit.KindTransition},
	"base":       {Kind: circuit.KindProposition, Prop: circuit.PropBase},
	"input":      {Kind: circuit.KindProposition, Prop: circuit.PropInput},
	"legal":      {Kind: circuit.KindProposition, Prop: circuit.PropLegal},
	"goal":       {Kind: circuit.KindProposition, Prop: circuit.PropGoal},
	"terminal":   {Kind: circuit.KindProposition, Prop: circuit.PropTerminal},
	"init":       {Kind: circuit.KindProposition, Prop: circuit.PropInit},
	"view":       {Kind: circuit.KindProposition, Prop: circuit.PropView},
}

// KindNames returns the accepted node kinds in sorted order.
func KindNames() []string {
	out := make([]string, 0, len(nodeKinds))
	for k := range nodeKinds {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

var nodeFields = map[string]bool{
	"kind": true, "in": true, "next": true, "fact": true,
	"role": true, "action": true, "reward": true, "value": true,
}

// Compile turns a description value into a crystallized circuit.
//
// Description errors are returned as *CompileError; structural errors are
// returned by crystallization as *circuit.MalformedCircuitError.
func Compile(v cue.Value) (*circuit.Circuit, error) {
	b, err := CompileBuilder(v)
	if err != nil {
		return nil, err
	}
	return circuit.Crystallize(b)
}

// nodeDecl is one parsed entry of the nodes struct.
type nodeDecl struct {
	name  string
	id    circuit.NodeID
	spec  circuit.NodeSpec
	in    []string
	next  string
	pos   cue.Value
	inPos cue.Value
}

// CompileBuilder parses a description into an uncrystallized builder.
//
// The value must have the shape:
//
//	roles: ["white", "black"]
//	nodes: {
//		p:      {kind: "base", fact: "(p)", next: "p_next"}
//		p_next: {kind: "or", in: ["init", "p"]}
//		...
//	}
//
// Node indices follow declaration order; transitions created by next are
// appended after all declared nodes.
func CompileBuilder(v cue.Value) (*circuit.Builder, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	roles, err := parseRoles(v)
	if err != nil {
		return nil, err
	}

	nodesVal := v.LookupPath(cue.ParsePath("nodes"))
	if !nodesVal.Exists() {
		return nil, &CompileError{
			Field:   "nodes",
			Message: "nodes is required",
			Pos:     v.Pos(),
		}
	}

	decls, err := parseNodes(nodesVal, roles)
	if err != nil {
		return nil, err
	}
	if len(decls) == 0 {
		return nil, &CompileError{
			Field:   "nodes",
			Message: "at least one node is required",
			Pos:     nodesVal.Pos(),
		}
	}

	b := circuit.NewBuilder(roles...)
	ids := make(map[string]circuit.NodeID, len(decls))
	for i := range decls {
		d := &decls[i]
		d.spec.Name = d.name
		d.id = b.AddNode(d.spec)
		ids[d.name] = d.id
	}

	for i := range decls {
		d := &decls[i]
		for _, ref := range d.in {
			from, ok := ids[ref]
			if !ok {
				return nil, &CompileError{
					Field:   "in",
					Message: fmt.Sprintf("node %s reads unknown node %q", d.name, ref),
					Pos:     d.inPos.Pos(),
				}
			}
			b.Connect(from, d.id)
		}
	}

	// Transition wires after edges, so next transitions get the highest indices.
	for i := range decls {
		d := &decls[i]
		if err := wireLeaf(b, d, ids); err != nil {
			return nil, err
		}
	}

	return b, nil
}

func wireLeaf(b *circuit.Builder, d *nodeDecl, ids map[string]circuit.NodeID) error {
	leaf := d.spec.Prop == circuit.PropBase || d.spec.Prop == circuit.PropInput
	switch {
	case d.next != "" && !leaf:
		return &CompileError{
			Field:   "next",
			Message: fmt.Sprintf("node %s: next is only valid on base and input nodes", d.name),
			Pos:     d.pos.Pos(),
		}
	case d.next != "":
		from, ok := ids[d.next]
		if !ok {
			return &CompileError{
				Field:   "next",
				Message: fmt.Sprintf("node %s: next names unknown node %q", d.name, d.next),
				Pos:     d.pos.Pos(),
			}
		}
		t := b.Next(d.id, from)
		b.SetName(t, d.name+"'")
	case d.spec.Prop == circuit.PropInput && len(d.in) == 0:
		b.WireFalse(d.id)
	case d.spec.Prop == circuit.PropBase && len(d.in) == 0:
		return &CompileError{
			Field:   "next",
			Message: fmt.Sprintf("base node %s needs next or a transition in in", d.name),
			Pos:     d.pos.Pos(),
		}
	}
	return nil
}

func parseRoles(v cue.Value) ([]ir.Role, error) {
	rolesVal := v.LookupPath(cue.ParsePath("roles"))
	if !rolesVal.Exists() {
		return nil, &CompileError{
			Field:   "roles",
			Message: "roles is required",
			Pos:     v.Pos(),
		}
	}
	names, err := parseStringList(rolesVal, "roles")
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, &CompileError{
			Field:   "roles",
			Message: "at least one role is required",
			Pos:     rolesVal.Pos(),
		}
	}
	roles := make([]ir.Role, len(names))
	for i, n := range names {
		roles[i] = ir.NewRole(n)
	}
	return roles, nil
}

func parseNodes(v cue.Value, roles []ir.Role) ([]nodeDecl, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var decls []nodeDecl
	for iter.Next() {
		d, err := parseNode(iter.Label(), iter.Value(), roles)
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	return decls, nil
}

func parseNode(name string, v cue.Value, roles []ir.Role) (nodeDecl, error) {
	d := nodeDecl{name: name, pos: v}

	fields, err := v.Fields()
	if err != nil {
		return d, formatCUEError(err)
	}
	for fields.Next() {
		if !nodeFields[fields.Label()] {
			return d, &CompileError{
				Field:   fields.Label(),
				Message: fmt.Sprintf("node %s: unknown field %q", name, fields.Label()),
				Pos:     fields.Value().Pos(),
			}
		}
	}

	kind, err := requireString(v, name, "kind")
	if err != nil {
		return d, err
	}
	spec, ok := nodeKinds[kind]
	if !ok {
		return d, &CompileError{
			Field:   "kind",
			Message: fmt.Sprintf("node %s: unknown kind %q (want one of %s)", name, kind, strings.Join(KindNames(), ", ")),
			Pos:     v.LookupPath(cue.ParsePath("kind")).Pos(),
		}
	}
	d.spec = spec

	if inVal := v.LookupPath(cue.ParsePath("in")); inVal.Exists() {
		d.in, err = parseStringList(inVal, "in")
		if err != nil {
			return d, err
		}
		d.inPos = inVal
	}
	if nextVal := v.LookupPath(cue.ParsePath("next")); nextVal.Exists() {
		d.next, err = nextVal.String()
		if err != nil {
			return d, formatCUEError(err)
		}
	}

	switch spec.Prop {
	case circuit.PropBase:
		fact, err := requireString(v, name, "fact")
		if err != nil {
			return d, err
		}
		d.spec.Fact = ir.NewFact(fact)
	case circuit.PropInput, circuit.PropLegal:
		role, err := requireRole(v, name, roles)
		if err != nil {
			return d, err
		}
		action, err := requireString(v, name, "action")
		if err != nil {
			return d, err
		}
		d.spec.Role = role
		d.spec.Action = ir.NewAction(action)
	case circuit.PropGoal:
		role, err := requireRole(v, name, roles)
		if err != nil {
			return d, err
		}
		reward, err := requireInt(v, name, "reward")
		if err != nil {
			return d, err
		}
		d.spec.Role = role
		d.spec.Reward = reward
	}

	if spec.Kind == circuit.KindConstant {
		val := v.LookupPath(cue.ParsePath("value"))
		if !val.Exists() {
			return d, missingField(v, name, "value")
		}
		b, err := val.Bool()
		if err != nil {
			return d, formatCUEError(err)
		}
		d.spec.Constant = b
	}

	return d, nil
}

func missingField(v cue.Value, node, field string) *CompileError {
	return &CompileError{
		Field:   field,
		Message: fmt.Sprintf("node %s: %s is required", node, field),
		Pos:     v.Pos(),
	}
}

func requireString(v cue.Value, node, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", missingField(v, node, field)
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	if strings.TrimSpace(s) == "" {
		return "", &CompileError{
			Field:   field,
			Message: fmt.Sprintf("node %s: %s must not be empty", node, field),
			Pos:     fv.Pos(),
		}
	}
	return s, nil
}

// requireInt reads an integer field. Floats are rejected.
func requireInt(v cue.Value, node, field string) (int, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return 0, missingField(v, node, field)
	}
	if fv.IncompleteKind() != cue.IntKind {
		return 0, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("node %s: %s must be an integer", node, field),
			Pos:     fv.Pos(),
		}
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return int(n), nil
}

func requireRole(v cue.Value, node string, roles []ir.Role) (ir.Role, error) {
	s, err := requireString(v, node, "role")
	if err != nil {
		return "", err
	}
	role := ir.NewRole(s)
	if !slices.Contains(roles, role) {
		return "", &CompileError{
			Field:   "role",
			Message: fmt.Sprintf("node %s: role %q is not declared in roles", node, s),
			Pos:     v.LookupPath(cue.ParsePath("role")).Pos(),
		}
	}
	return role, nil
}

func parseStringList(v cue.Value, field string) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("%s must be a list of strings", field),
				Pos:     iter.Value().Pos(),
			}
		}
		out = append(out, s)
	}
	return out, nil
}
