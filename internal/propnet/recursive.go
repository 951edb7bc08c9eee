package propnet

import (
	"log/slog"

	"github.com/roach88/propnet/internal/circuit"
)

// Recursive is the pull evaluator. See the package documentation.
type Recursive struct {
	*machine

	nodes    []*circuit.Node
	leaf     []bool
	memo     []bool
	stamp    []uint64
	latched  []bool
	latch    []bool
	leaves   []int
	init     int
	epoch    Epoch
	observer Observer
}

var _ StateMachine = (*Recursive)(nil)

// NewRecursive builds a pull evaluator over c.
func NewRecursive(c *circuit.Circuit, opts ...Option) (*Recursive, error) {
	m, cfg, err := newMachine(c, opts)
	if err != nil {
		return nil, err
	}

	n := c.Len()
	e := &Recursive{
		machine:  m,
		nodes:    make([]*circuit.Node, n),
		leaf:     make([]bool, n),
		memo:     make([]bool, n),
		stamp:    make([]uint64, n),
		latched:  make([]bool, n),
		latch:    make([]bool, n),
		init:     c.Init(),
		observer: cfg.observer,
	}
	e.leaves = append(append(e.leaves, c.Bases()...), c.Inputs()...)
	for i := range e.nodes {
		e.nodes[i] = c.Node(i)
	}
	for i, v := range cfg.latches {
		e.latched[i] = true
		e.latch[i] = v
	}
	m.ev = e
	e.epoch.Next()

	slog.Debug("recursive evaluator ready",
		"circuit", c.Hash(),
		"nodes", n,
		"latches", len(cfg.latches))
	return e, nil
}

func (e *Recursive) assign(bases, inputs []int, init bool) {
	for _, i := range e.leaves {
		e.leaf[i] = false
	}
	for _, i := range bases {
		e.leaf[i] = true
	}
	for _, i := range inputs {
		e.leaf[i] = true
	}
	e.leaf[e.init] = init
	e.epoch.Next()
}

// value pulls a node's value through its input cone. Every node computed
// under the current epoch is memoized.
func (e *Recursive) value(i int) bool {
	n := e.nodes[i]
	switch {
	case n.IsLeaf():
		return e.leaf[i]
	case e.latched[i]:
		return e.latch[i]
	case e.stamp[i] == e.epoch.Current():
		return e.memo[i]
	}

	var v bool
	switch n.Kind {
	case circuit.KindAnd:
		v = true
		for _, in := range n.Inputs {
			if !e.value(in) {
				v = false
				break
			}
		}
	case circuit.KindOr:
		for _, in := range n.Inputs {
			if e.value(in) {
				v = true
				break
			}
		}
	case circuit.KindNot:
		v = !e.value(n.Inputs[0])
	case circuit.KindConstant:
		v = n.Constant
	default:
		if len(n.Inputs) > 0 {
			v = e.value(n.Inputs[0])
		}
	}

	e.memo[i] = v
	e.stamp[i] = e.epoch.Current()
	e.machine.stats.Recomputed++
	if e.observer != nil {
		e.observer(i, v)
	}
	return v
}
