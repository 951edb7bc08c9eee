package propnet

import (
	"github.com/roach88/propnet/internal/circuit"
)

// Observer is called for every node an evaluator recomputes, with the
// node's new value.
type Observer func(node int, value bool)

type config struct {
	latches  circuit.Latches
	observer Observer
}

// Option configures an evaluator.
type Option func(*config)

// WithLatches makes the evaluator treat latched nodes as constants. Latched
// nodes are never recomputed.
func WithLatches(l circuit.Latches) Option {
	return func(c *config) {
		c.latches = l
	}
}

// WithObserver installs a hook called for every recomputed node.
func WithObserver(o Observer) Option {
	return func(c *config) {
		c.observer = o
	}
}
