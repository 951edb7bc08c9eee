package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/propnet/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s\n", event.Seq, formatEvent(event))
	}

	return buf.String()
}

// formatEvent renders an event on one line, e.g. "next [b noop] -> {(mark)}".
func formatEvent(e TraceEvent) string {
	var buf strings.Builder
	buf.WriteString(e.Op)
	switch {
	case e.Role != "":
		buf.WriteString(" " + e.Role)
	case e.Moves != nil:
		fmt.Fprintf(&buf, " %v", e.Moves)
	case e.Node != "":
		buf.WriteString(" " + e.Node)
	case e.Op == OpSet:
		buf.WriteString(" " + ir.StateOf(e.State...).String())
	}
	switch {
	case e.Error != "":
		buf.WriteString(" !" + e.Error)
	case e.Result != nil:
		fmt.Fprintf(&buf, " -> %v", e.Result)
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against result and returns the
// failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var out []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			out = append(out, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return out
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertFinalState:
		return assertFinalState(result, a)
	case AssertFinalTerminal:
		return assertFinalTerminal(result, a)
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertFinalState(result *Result, a Assertion) error {
	want := ir.StateOf(a.State...)
	if result.Final == want {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalState,
		Expected: want.String(),
		Actual:   result.Final.String(),
		Trace:    result.Trace,
	}
}

func assertFinalTerminal(result *Result, a Assertion) error {
	if result.FinalTerminal == *a.Terminal {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalTerminal,
		Expected: fmt.Sprintf("terminal = %t", *a.Terminal),
		Actual:   fmt.Sprintf("terminal = %t in %s", result.FinalTerminal, result.Final),
		Trace:    result.Trace,
	}
}

// assertTraceCount counts successful and failed steps alike.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	n := 0
	for _, e := range trace {
		if e.Op == a.Op {
			n++
		}
	}
	if n == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%s appears %d times", a.Op, a.Count),
		Actual:   fmt.Sprintf("%s appears %d times", a.Op, n),
		Trace:    trace,
	}
}
