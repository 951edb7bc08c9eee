package ir

import (
	"encoding/json"
	"slices"
	"strings"
)

// ExternalState is the caller-visible representation of a game position:
// the set of facts whose BASE propositions are true.
//
// The set is stored as one sorted, separator-joined string. That keeps the
// struct comparable, so two states are equal exactly when they hold the same
// facts and a state can be used as a map key without further hashing.
//
// The zero value is the empty state.
type ExternalState struct {
	enc string
}

// NewExternalState builds a state from facts. Facts are normalized,
// deduplicated and sorted; empty facts are dropped.
func NewExternalState(facts ...Fact) ExternalState {
	if len(facts) == 0 {
		return ExternalState{}
	}
	norm := make([]string, 0, len(facts))
	for _, f := range facts {
		s := NormalizeTerm(string(f))
		if s == "" {
			continue
		}
		norm = append(norm, s)
	}
	slices.Sort(norm)
	norm = slices.Compact(norm)
	return ExternalState{enc: strings.Join(norm, separator)}
}

// StateOf is shorthand for NewExternalState(Facts(ss...)...).
func StateOf(ss ...string) ExternalState {
	return NewExternalState(Facts(ss...)...)
}

// Facts returns the facts of the state in sorted order.
// The returned slice is a fresh copy.
func (s ExternalState) Facts() []Fact {
	if s.enc == "" {
		return nil
	}
	parts := strings.Split(s.enc, separator)
	out := make([]Fact, len(parts))
	for i, p := range parts {
		out[i] = Fact(p)
	}
	return out
}

// Len returns the number of facts in the state.
func (s ExternalState) Len() int {
	if s.enc == "" {
		return 0
	}
	return strings.Count(s.enc, separator) + 1
}

// IsEmpty reports whether no fact is true.
func (s ExternalState) IsEmpty() bool {
	return s.enc == ""
}

// Contains reports whether f is true in the state.
func (s ExternalState) Contains(f Fact) bool {
	if s.enc == "" {
		return false
	}
	facts := strings.Split(s.enc, separator)
	_, found := slices.BinarySearch(facts, NormalizeTerm(string(f)))
	return found
}

// Key returns the encoded form of the state. Equal states have equal keys.
func (s ExternalState) Key() string {
	return s.enc
}

// String renders the state as "{f1, f2, ...}".
func (s ExternalState) String() string {
	if s.enc == "" {
		return "{}"
	}
	return "{" + strings.ReplaceAll(s.enc, separator, ", ") + "}"
}

// MarshalJSON encodes the state as a sorted array of facts.
func (s ExternalState) MarshalJSON() ([]byte, error) {
	facts := s.Facts()
	if facts == nil {
		facts = []Fact{}
	}
	return json.Marshal(facts)
}

// UnmarshalJSON decodes an array of facts.
func (s *ExternalState) UnmarshalJSON(data []byte) error {
	var facts []Fact
	if err := json.Unmarshal(data, &facts); err != nil {
		return err
	}
	*s = NewExternalState(facts...)
	return nil
}

// JointMove is an ordered list holding exactly one action per role, in the
// circuit's role order.
//
// Like ExternalState, it is encoded into a comparable struct so it can be
// used as a map key.
type JointMove struct {
	enc string
	n   int
}

// NewJointMove builds a joint move from actions in role order.
func NewJointMove(actions ...Action) JointMove {
	if len(actions) == 0 {
		return JointMove{}
	}
	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = NormalizeTerm(string(a))
	}
	return JointMove{enc: strings.Join(parts, separator), n: len(actions)}
}

// MovesOf is shorthand for NewJointMove(Actions(ss...)...).
func MovesOf(ss ...string) JointMove {
	return NewJointMove(Actions(ss...)...)
}

// Len returns the number of actions (one per role).
func (m JointMove) Len() int {
	return m.n
}

// Actions returns the actions in role order. The returned slice is a fresh copy.
func (m JointMove) Actions() []Action {
	if m.n == 0 {
		return nil
	}
	parts := strings.SplitN(m.enc, separator, m.n)
	out := make([]Action, len(parts))
	for i, p := range parts {
		out[i] = Action(p)
	}
	return out
}

// At returns the action of the i-th role.
func (m JointMove) At(i int) Action {
	return m.Actions()[i]
}

// String renders the joint move as "[a1, a2, ...]".
func (m JointMove) String() string {
	return "[" + strings.ReplaceAll(m.enc, separator, ", ") + "]"
}

// MarshalJSON encodes the joint move as an array of actions.
func (m JointMove) MarshalJSON() ([]byte, error) {
	actions := m.Actions()
	if actions == nil {
		actions = []Action{}
	}
	return json.Marshal(actions)
}

// UnmarshalJSON decodes an array of actions.
func (m *JointMove) UnmarshalJSON(data []byte) error {
	var actions []Action
	if err := json.Unmarshal(data, &actions); err != nil {
		return err
	}
	*m = NewJointMove(actions...)
	return nil
}
