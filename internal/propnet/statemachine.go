package propnet

import (
	"math/rand/v2"

	"github.com/roach88/propnet/internal/ir"
)

// StateMachine answers the four game queries.
//
// Implementations may keep internal caches and are not required to be safe
// for concurrent use.
type StateMachine interface {
	// Roles returns the roles in joint-move order.
	Roles() []ir.Role

	// InitialState returns the state holding before any move.
	InitialState() ir.ExternalState

	// IsTerminal reports whether s ends the game.
	IsTerminal(s ir.ExternalState) bool

	// LegalMoves returns role's legal actions in s, in a fixed order.
	LegalMoves(s ir.ExternalState, role ir.Role) ([]ir.Action, error)

	// Goal returns role's reward in s.
	Goal(s ir.ExternalState, role ir.Role) (int, error)

	// NextState returns the successor of s under jm. It does not modify s.
	NextState(s ir.ExternalState, jm ir.JointMove) (ir.ExternalState, error)
}

// RandomJointMove picks one legal action per role uniformly at random.
func RandomJointMove(m StateMachine, s ir.ExternalState, rng *rand.Rand) (ir.JointMove, error) {
	roles := m.Roles()
	actions := make([]ir.Action, len(roles))
	for i, r := range roles {
		legal, err := m.LegalMoves(s, r)
		if err != nil {
			return ir.JointMove{}, err
		}
		if len(legal) == 0 {
			return ir.JointMove{}, &NoLegalMovesError{Role: r, State: s}
		}
		actions[i] = legal[rng.IntN(len(legal))]
	}
	return ir.NewJointMove(actions...), nil
}

// Goals returns the reward of every role in s, in role order.
func Goals(m StateMachine, s ir.ExternalState) ([]int, error) {
	roles := m.Roles()
	out := make([]int, len(roles))
	for i, r := range roles {
		g, err := m.Goal(s, r)
		if err != nil {
			return nil, err
		}
		out[i] = g
	}
	return out, nil
}

// Playout plays random joint moves from s until a terminal state or until
// maxSteps moves have been made (no limit when maxSteps <= 0). It returns
// the visited states, s first.
func Playout(m StateMachine, s ir.ExternalState, rng *rand.Rand, maxSteps int) ([]ir.ExternalState, error) {
	path := []ir.ExternalState{s}
	for step := 0; !m.IsTerminal(s) && (maxSteps <= 0 || step < maxSteps); step++ {
		jm, err := RandomJointMove(m, s, rng)
		if err != nil {
			return path, err
		}
		s, err = m.NextState(s, jm)
		if err != nil {
			return path, err
		}
		path = append(path, s)
	}
	return path, nil
}
