package propnet

import (
	"log/slog"

	"github.com/roach88/propnet/internal/circuit"
)

// Incremental is the push evaluator. See the package documentation.
type Incremental struct {
	*machine

	nodes    []*circuit.Node
	val      []bool
	count    []int32 // true inputs of AND/OR gates
	fixed    []bool  // latched nodes
	want     []bool  // scratch for assign
	leaves   []int   // every BASE and INPUT leaf
	init     int
	observer Observer

	stack []pending
}

// pending is a value change still to be pushed to a node's outputs.
type pending struct {
	node  int
	value bool
}

var _ StateMachine = (*Incremental)(nil)

// NewIncremental builds a push evaluator over c with every leaf false.
func NewIncremental(c *circuit.Circuit, opts ...Option) (*Incremental, error) {
	m, cfg, err := newMachine(c, opts)
	if err != nil {
		return nil, err
	}

	n := c.Len()
	e := &Incremental{
		machine:  m,
		nodes:    make([]*circuit.Node, n),
		val:      make([]bool, n),
		count:    make([]int32, n),
		fixed:    make([]bool, n),
		want:     make([]bool, n),
		init:     c.Init(),
		observer: cfg.observer,
	}
	e.leaves = append(append(e.leaves, c.Bases()...), c.Inputs()...)
	for i := range e.nodes {
		e.nodes[i] = c.Node(i)
	}
	for i, v := range cfg.latches {
		e.fixed[i] = true
		e.val[i] = v
	}
	m.ev = e

	e.initialize()
	slog.Debug("incremental evaluator ready",
		"circuit", c.Hash(),
		"nodes", n,
		"latches", len(cfg.latches))
	return e, nil
}

// initialize computes every derived value from scratch in topological
// order, with all leaves false.
func (e *Incremental) initialize() {
	for _, i := range e.machine.c.Topo() {
		n := e.nodes[i]
		if n.IsLeaf() {
			e.val[i] = false
			continue
		}
		var trues int32
		for _, in := range n.Inputs {
			if e.val[in] {
				trues++
			}
		}
		e.count[i] = trues
		if e.fixed[i] {
			continue
		}
		e.val[i] = e.compute(n)
	}
}

// compute derives a node's value from its inputs' current values and, for
// AND/OR, from its running count.
func (e *Incremental) compute(n *circuit.Node) bool {
	switch n.Kind {
	case circuit.KindAnd:
		return int(e.count[n.Index]) == len(n.Inputs)
	case circuit.KindOr:
		return e.count[n.Index] > 0
	case circuit.KindNot:
		return !e.val[n.Inputs[0]]
	case circuit.KindConstant:
		return n.Constant
	default:
		// TRANSITION and derived propositions mirror their input.
		if len(n.Inputs) == 0 {
			return false
		}
		return e.val[n.Inputs[0]]
	}
}

func (e *Incremental) assign(bases, inputs []int, init bool) {
	for _, i := range bases {
		e.want[i] = true
	}
	for _, i := range inputs {
		e.want[i] = true
	}
	for _, i := range e.leaves {
		e.setLeaf(i, e.want[i])
		e.want[i] = false
	}
	e.setLeaf(e.init, init)
}

// setLeaf changes one leaf and pushes the change if the value flipped.
func (e *Incremental) setLeaf(i int, v bool) {
	if e.val[i] == v {
		return
	}
	e.val[i] = v
	e.machine.stats.LeafFlips++
	e.propagate(i, v)
}

// propagate pushes the change of node to its outputs and onward. Each stack
// entry carries the value the node flipped to, so AND/OR counts stay exact
// even if a node flips twice before its entry is processed.
func (e *Incremental) propagate(node int, v bool) {
	e.stack = append(e.stack[:0], pending{node: node, value: v})
	for len(e.stack) > 0 {
		p := e.stack[len(e.stack)-1]
		e.stack = e.stack[:len(e.stack)-1]

		for _, out := range e.nodes[p.node].Outputs {
			n := e.nodes[out]
			if n.Prop == circuit.PropBase || n.Prop == circuit.PropInput {
				// Transition wires are read only when deriving the next state.
				continue
			}
			if n.Kind == circuit.KindAnd || n.Kind == circuit.KindOr {
				if p.value {
					e.count[out]++
				} else {
					e.count[out]--
				}
			}
			if e.fixed[out] {
				continue
			}

			nv := e.compute(n)
			e.machine.stats.Recomputed++
			if e.observer != nil {
				e.observer(out, nv)
			}
			if nv != e.val[out] {
				e.val[out] = nv
				e.stack = append(e.stack, pending{node: out, value: nv})
			}
		}
	}
}

func (e *Incremental) value(node int) bool {
	return e.val[node]
}
