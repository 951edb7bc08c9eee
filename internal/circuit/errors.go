package circuit

import (
	"errors"
	"fmt"
	"strings"
)

// Violation codes reported by Crystallize.
const (
	CodeKind            = "C101" // kind/proposition tag mismatch
	CodeArity           = "C102" // wrong number of inputs
	CodeTransitionWire  = "C103" // transition wire malformed
	CodeDuplicate       = "C104" // duplicate fact, move, legal pair or name
	CodeUndeclaredRole  = "C105" // role not declared on the builder
	CodeSingleton       = "C106" // not exactly one TERMINAL or INIT
	CodeRoleCoverage    = "C107" // role without LEGAL or GOAL
	CodeCycle           = "C108" // cycle outside transition wires
	CodeRoles           = "C109" // missing or duplicate role declaration
	CodeEmptyIdentifier = "C110" // empty fact, role or action
)

// Violation is one broken structural invariant.
type Violation struct {
	Code string `json:"code"`
	// Node is the offending node index, or -1 for circuit-wide violations.
	Node    int    `json:"node"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	if v.Node < 0 {
		return fmt.Sprintf("[%s] %s", v.Code, v.Message)
	}
	return fmt.Sprintf("[%s] node %d: %s", v.Code, v.Node, v.Message)
}

// MalformedCircuitError is returned by Crystallize when the builder does not
// describe a valid network. It lists every violation found.
type MalformedCircuitError struct {
	Violations []Violation
}

func (e *MalformedCircuitError) Error() string {
	if len(e.Violations) == 1 {
		return "malformed circuit: " + e.Violations[0].String()
	}
	lines := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		lines[i] = "  " + v.String()
	}
	return fmt.Sprintf("malformed circuit: %d violations:\n%s", len(e.Violations), strings.Join(lines, "\n"))
}

// Has reports whether any violation carries code.
func (e *MalformedCircuitError) Has(code string) bool {
	for _, v := range e.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}

// IsMalformed reports whether err is or wraps a MalformedCircuitError.
func IsMalformed(err error) bool {
	var mce *MalformedCircuitError
	return errors.As(err, &mce)
}
