package ir

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Role names a player of the game, e.g. "xplayer".
type Role string

// Action is a move term a role can play, e.g. "(mark 1 1)" or "noop".
type Action string

// Fact is a ground term that can be true in a game position, e.g.
// "(cell 1 1 b)". A fact is identified with the BASE proposition that
// carries it.
type Fact string

// Move is a role-action pair. It identifies an INPUT proposition
// ("does role action") or a LEGAL proposition ("legal role action").
type Move struct {
	Role   Role   `json:"role"`
	Action Action `json:"action"`
}

// String renders the move the way GDL writes a does relation.
func (m Move) String() string {
	return "(" + string(m.Role) + " " + string(m.Action) + ")"
}

// separator delimits encoded members of ExternalState and JointMove.
// It is stripped from identifiers during normalization.
const separator = "\x1f"

// NormalizeTerm converts an identifier to its canonical spelling:
// NFC normalized, surrounding whitespace trimmed, inner whitespace runs
// collapsed to a single space.
func NormalizeTerm(s string) string {
	s = strings.ReplaceAll(s, separator, "")
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// NewFact returns the canonical fact for s.
func NewFact(s string) Fact { return Fact(NormalizeTerm(s)) }

// NewAction returns the canonical action for s.
func NewAction(s string) Action { return Action(NormalizeTerm(s)) }

// NewRole returns the canonical role for s.
func NewRole(s string) Role { return Role(NormalizeTerm(s)) }

// Facts converts strings to canonical facts.
func Facts(ss ...string) []Fact {
	out := make([]Fact, len(ss))
	for i, s := range ss {
		out[i] = NewFact(s)
	}
	return out
}

// Actions converts strings to canonical actions.
func Actions(ss ...string) []Action {
	out := make([]Action, len(ss))
	for i, s := range ss {
		out[i] = NewAction(s)
	}
	return out
}
