// Package latch finds derived propositions whose value never changes.
//
// For a target node the analyzer collects its leaf ancestors (BASE, INPUT
// and INIT propositions reachable backwards without crossing a transition
// wire) and evaluates the target's cone under every assignment of those
// leaves. A target with the same value under all 2^k assignments is a latch.
// Targets with more than MaxLeaves ancestors are skipped.
package latch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/propnet/internal/circuit"
)

const (
	// DefaultMaxLeaves bounds enumeration at 2^16 assignments per target.
	DefaultMaxLeaves = 16

	// MaxLeavesLimit is the largest accepted bound. Larger bounds cannot
	// finish enumeration in practice.
	MaxLeavesLimit = 30
)

// ErrTooManyLeaves is returned for a target whose leaf ancestors exceed the
// analyzer's bound.
var ErrTooManyLeaves = errors.New("too many leaf ancestors")

// Analyzer runs latch analysis over one circuit. Ancestor sets are memoized
// across targets. An Analyzer is not safe for concurrent use.
type Analyzer struct {
	c         *circuit.Circuit
	maxLeaves int

	ancestors map[int][]int
	pos       []int  // topological position per node
	scratch   []bool // node values during enumeration
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithMaxLeaves sets the per-target leaf bound, clamped to
// [0, MaxLeavesLimit].
func WithMaxLeaves(n int) Option {
	return func(a *Analyzer) {
		a.maxLeaves = min(max(n, 0), MaxLeavesLimit)
	}
}

// New returns an analyzer for c.
func New(c *circuit.Circuit, opts ...Option) *Analyzer {
	a := &Analyzer{
		c:         c,
		maxLeaves: DefaultMaxLeaves,
		ancestors: make(map[int][]int),
		pos:       make([]int, c.Len()),
		scratch:   make([]bool, c.Len()),
	}
	for i, n := range c.Topo() {
		a.pos[n] = i
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// MaxLeaves returns the per-target leaf bound.
func (a *Analyzer) MaxLeaves() int { return a.maxLeaves }

// Ancestors returns the leaf ancestors of node in ascending order. A leaf is
// its own only ancestor. The result is shared and must not be modified.
func (a *Analyzer) Ancestors(node int) []int {
	if got, ok := a.ancestors[node]; ok {
		return got
	}
	n := a.c.Node(node)
	var out []int
	if n.IsLeaf() {
		out = []int{node}
	} else {
		for _, in := range n.Inputs {
			out = mergeSorted(out, a.Ancestors(in))
		}
	}
	a.ancestors[node] = out
	return out
}

// mergeSorted returns the sorted union of two ascending slices.
func mergeSorted(a, b []int) []int {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// Result is the analysis of one target.
type Result struct {
	Node    int  `json:"node"`
	Latched bool `json:"latched"`
	// Value is the latched value; meaningless unless Latched.
	Value  bool `json:"value"`
	Leaves int  `json:"leaves"`
	// Assignments is the number of leaf assignments evaluated before the
	// answer was known.
	Assignments int `json:"assignments"`
}

// Analyze decides whether node is a latch. It returns ErrTooManyLeaves
// (wrapped) when the node has more leaf ancestors than the bound.
func (a *Analyzer) Analyze(node int) (Result, error) {
	n := a.c.Node(node)
	if n.IsLeaf() || n.Kind == circuit.KindTransition {
		return Result{}, fmt.Errorf("node %d (%s) is not a derived node", node, n.Label())
	}

	leaves := a.Ancestors(node)
	res := Result{Node: node, Leaves: len(leaves)}
	if len(leaves) > a.maxLeaves || len(leaves) > MaxLeavesLimit {
		return res, fmt.Errorf("node %d has %d leaf ancestors, bound is %d: %w",
			node, len(leaves), a.maxLeaves, ErrTooManyLeaves)
	}

	cone := a.cone(node)
	var seenTrue, seenFalse bool
	total := uint64(1) << len(leaves)
	for mask := uint64(0); mask < total; mask++ {
		for bit, leaf := range leaves {
			a.scratch[leaf] = mask&(1<<bit) != 0
		}
		for _, i := range cone {
			a.scratch[i] = a.eval(a.c.Node(i))
		}
		res.Assignments++
		if a.scratch[node] {
			seenTrue = true
		} else {
			seenFalse = true
		}
		if seenTrue && seenFalse {
			return res, nil
		}
	}

	res.Latched = true
	res.Value = seenTrue
	return res, nil
}

// cone returns the derived nodes node depends on, node included, in
// topological order.
func (a *Analyzer) cone(node int) []int {
	visited := map[int]bool{}
	var out []int
	stack := []int{node}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[v] {
			continue
		}
		visited[v] = true
		n := a.c.Node(v)
		if n.IsLeaf() {
			continue
		}
		out = append(out, v)
		stack = append(stack, n.Inputs...)
	}
	slices.SortFunc(out, func(x, y int) int { return a.pos[x] - a.pos[y] })
	return out
}

func (a *Analyzer) eval(n *circuit.Node) bool {
	switch n.Kind {
	case circuit.KindAnd:
		for _, in := range n.Inputs {
			if !a.scratch[in] {
				return false
			}
		}
		return true
	case circuit.KindOr:
		for _, in := range n.Inputs {
			if a.scratch[in] {
				return true
			}
		}
		return false
	case circuit.KindNot:
		return !a.scratch[n.Inputs[0]]
	case circuit.KindConstant:
		return n.Constant
	default:
		if len(n.Inputs) == 0 {
			return false
		}
		return a.scratch[n.Inputs[0]]
	}
}

// Report summarizes an AnalyzeAll run.
type Report struct {
	Circuit  string          `json:"circuit"`
	Latches  circuit.Latches `json:"-"`
	Results  []Result        `json:"results"`
	Skipped  []int           `json:"skipped"`
	Analyzed int             `json:"analyzed"`
}

// AnalyzeAll analyzes every derived proposition (VIEW, LEGAL, GOAL and
// TERMINAL) in node order. Targets over the leaf bound are listed in
// Skipped. It stops early with ctx's error if ctx is cancelled.
func (a *Analyzer) AnalyzeAll(ctx context.Context) (*Report, error) {
	rep := &Report{
		Circuit: a.c.Hash(),
		Latches: circuit.Latches{},
	}
	for i := 0; i < a.c.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		n := a.c.Node(i)
		if !isTarget(n) {
			continue
		}
		res, err := a.Analyze(i)
		if errors.Is(err, ErrTooManyLeaves) {
			slog.Debug("latch target skipped", "node", n.Name, "leaves", res.Leaves)
			rep.Skipped = append(rep.Skipped, i)
			continue
		}
		if err != nil {
			return rep, err
		}
		rep.Analyzed++
		rep.Results = append(rep.Results, res)
		if res.Latched {
			rep.Latches[i] = res.Value
		}
	}
	slog.Debug("latch analysis complete",
		"circuit", rep.Circuit,
		"analyzed", rep.Analyzed,
		"latches", len(rep.Latches),
		"skipped", len(rep.Skipped))
	return rep, nil
}

func isTarget(n *circuit.Node) bool {
	switch n.Prop {
	case circuit.PropView, circuit.PropLegal, circuit.PropGoal, circuit.PropTerminal:
		return true
	}
	return false
}
