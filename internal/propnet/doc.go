// Package propnet evaluates crystallized propositional networks as game
// state machines.
//
// Two evaluators implement StateMachine over the same read-only circuit:
//
//   - Incremental is the canonical evaluator. It keeps the leaf assignment
//     of the previous query and pushes only the leaves that changed through
//     the network. AND and OR gates keep running true-input counts, and a
//     node forwards a change only when its own value flips. A query costs
//     O(changed leaves x affected fanout).
//
//   - Recursive is a stateless pull evaluator. Each query bumps an epoch and
//     evaluates only the cone of the nodes it reads, memoizing every node
//     stamped with the current epoch. A query costs O(|cone of the queried
//     outputs|). It serves as the reference in consistency verification.
//
// Neither evaluator is safe for concurrent use. Run one evaluator per
// goroutine over a shared *circuit.Circuit.
//
// State-only queries (IsTerminal, LegalMoves, Goal) clear every INPUT leaf
// first, so their answers depend on the state alone. Facts in a state that
// have no BASE proposition are ignored, as are moves that name no INPUT
// proposition.
package propnet
