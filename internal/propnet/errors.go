package propnet

import (
	"errors"
	"fmt"

	"github.com/roach88/propnet/internal/ir"
)

// AmbiguousGoalError is returned by Goal when a role does not have exactly
// one true GOAL proposition.
type AmbiguousGoalError struct {
	Role  ir.Role
	State ir.ExternalState
	// Rewards lists the rewards of the true GOAL propositions, in circuit
	// order. Empty when none is true.
	Rewards []int
}

func (e *AmbiguousGoalError) Error() string {
	return fmt.Sprintf("ambiguous goal for role %s: %d true GOAL propositions %v in state %s",
		e.Role, len(e.Rewards), e.Rewards, e.State)
}

// Count returns the number of true GOAL propositions.
func (e *AmbiguousGoalError) Count() int { return len(e.Rewards) }

// UndefinedTerminalError is returned by the evaluator constructors when the
// circuit has no TERMINAL proposition to read.
type UndefinedTerminalError struct {
	Circuit string
}

func (e *UndefinedTerminalError) Error() string {
	return fmt.Sprintf("circuit %s has no TERMINAL proposition", e.Circuit)
}

// NoLegalMovesError is returned by LegalMoves when a role has no legal move
// in a non-terminal state.
type NoLegalMovesError struct {
	Role  ir.Role
	State ir.ExternalState
}

func (e *NoLegalMovesError) Error() string {
	return fmt.Sprintf("role %s has no legal moves in non-terminal state %s", e.Role, e.State)
}

// UnknownRoleError is returned for a role the circuit does not declare.
type UnknownRoleError struct {
	Role ir.Role
}

func (e *UnknownRoleError) Error() string {
	return fmt.Sprintf("unknown role %q", e.Role)
}

// MoveArityError is returned by NextState when a joint move does not hold
// exactly one action per role.
type MoveArityError struct {
	Got  int
	Want int
}

func (e *MoveArityError) Error() string {
	return fmt.Sprintf("joint move has %d actions, want %d (one per role)", e.Got, e.Want)
}

// IsAmbiguousGoal returns true if err is or wraps an AmbiguousGoalError.
func IsAmbiguousGoal(err error) bool {
	var e *AmbiguousGoalError
	return errors.As(err, &e)
}

// IsNoLegalMoves returns true if err is or wraps a NoLegalMovesError.
func IsNoLegalMoves(err error) bool {
	var e *NoLegalMovesError
	return errors.As(err, &e)
}

// IsUnknownRole returns true if err is or wraps an UnknownRoleError.
func IsUnknownRole(err error) bool {
	var e *UnknownRoleError
	return errors.As(err, &e)
}

// IsMoveArity returns true if err is or wraps a MoveArityError.
func IsMoveArity(err error) bool {
	var e *MoveArityError
	return errors.As(err, &e)
}
