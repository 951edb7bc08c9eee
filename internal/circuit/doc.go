// Package circuit implements the propositional network data model.
//
// A network is assembled with a Builder, whose edges are mutable sets, and
// then frozen by Crystallize into a Circuit: an arena of nodes addressed by
// stable integer index with fixed input/output index arrays. Crystallize
// validates every structural invariant and fails with MalformedCircuitError
// when one is violated.
//
// A crystallized Circuit is read-only. It holds topology only; the mutable
// value of every node lives in the evaluator that reads the circuit, so one
// Circuit can back any number of evaluators, one per goroutine.
//
// BASE and INPUT propositions are leaves. Their single input edge is a
// transition wire: the TRANSITION node feeding it carries the value the fact
// will have in the next state. Edges from a TRANSITION into its leaf are not
// dependency edges; they are excluded from cycle detection and from the
// topological evaluation order, which keeps the graph a true DAG.
package circuit
