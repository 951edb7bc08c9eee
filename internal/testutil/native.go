package testutil

import (
	"fmt"
	"strings"

	"github.com/roach88/propnet/internal/ir"
)

// FlipMachine is a direct Go implementation of the flip game, written
// without a circuit. It satisfies propnet.StateMachine.
type FlipMachine struct{}

func (FlipMachine) Roles() []ir.Role { return []ir.Role{White, Black} }

func (FlipMachine) InitialState() ir.ExternalState {
	return ir.StateOf("(control white)", "(step 0)")
}

func (FlipMachine) IsTerminal(s ir.ExternalState) bool {
	return s.Contains("(step 3)")
}

func (FlipMachine) LegalMoves(s ir.ExternalState, role ir.Role) ([]ir.Action, error) {
	var ctl ir.Fact
	switch role {
	case White:
		ctl = "(control white)"
	case Black:
		ctl = "(control black)"
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
	if s.Contains(ctl) {
		return ir.Actions("a", "b"), nil
	}
	return ir.Actions("noop"), nil
}

func (FlipMachine) Goal(s ir.ExternalState, role ir.Role) (int, error) {
	mark := s.Contains("(mark)")
	switch role {
	case White:
		if mark {
			return 100, nil
		}
		return 0, nil
	case Black:
		if mark {
			return 0, nil
		}
		return 100, nil
	default:
		return 0, fmt.Errorf("unknown role %q", role)
	}
}

func (FlipMachine) NextState(s ir.ExternalState, jm ir.JointMove) (ir.ExternalState, error) {
	if jm.Len() != 2 {
		return ir.ExternalState{}, fmt.Errorf("joint move has %d actions, want 2", jm.Len())
	}
	var next []string
	if s.Contains("(control black)") {
		next = append(next, "(control white)")
	}
	if s.Contains("(control white)") {
		next = append(next, "(control black)")
	}
	for i := 0; i < 3; i++ {
		if s.Contains(ir.Fact(fmt.Sprintf("(step %d)", i))) {
			next = append(next, fmt.Sprintf("(step %d)", i+1))
		}
	}
	flip := jm.At(0) == "b" || jm.At(1) == "b"
	if s.Contains("(mark)") != flip {
		next = append(next, "(mark)")
	}
	return ir.StateOf(next...), nil
}

// Tic-tac-toe roles.
const (
	XPlayer ir.Role = "xplayer"
	OPlayer ir.Role = "oplayer"
)

// board is a parsed tic-tac-toe state. A cell may carry several marks in
// states no legal play reaches; each flag is tracked independently.
type board struct {
	x, o, b [3][3]bool
	ctlX    bool
	ctlO    bool
}

func parseBoard(s ir.ExternalState) board {
	var bd board
	for _, f := range s.Facts() {
		fields := strings.Fields(strings.Trim(string(f), "()"))
		switch {
		case len(fields) == 4 && fields[0] == "cell":
			m, n, ok := cellIndex(fields[1], fields[2])
			if !ok {
				continue
			}
			switch fields[3] {
			case "x":
				bd.x[m][n] = true
			case "o":
				bd.o[m][n] = true
			case "b":
				bd.b[m][n] = true
			}
		case len(fields) == 2 && fields[0] == "control":
			switch ir.Role(fields[1]) {
			case XPlayer:
				bd.ctlX = true
			case OPlayer:
				bd.ctlO = true
			}
		}
	}
	return bd
}

func cellIndex(ms, ns string) (int, int, bool) {
	if len(ms) != 1 || len(ns) != 1 || ms[0] < '1' || ms[0] > '3' || ns[0] < '1' || ns[0] > '3' {
		return 0, 0, false
	}
	return int(ms[0] - '1'), int(ns[0] - '1'), true
}

// tttLines lists every row, column and diagonal as cell coordinates.
var tttLines = func() [][3][2]int {
	var out [][3][2]int
	for i := 0; i < 3; i++ {
		out = append(out, [3][2]int{{i, 0}, {i, 1}, {i, 2}})
		out = append(out, [3][2]int{{0, i}, {1, i}, {2, i}})
	}
	out = append(out, [3][2]int{{0, 0}, {1, 1}, {2, 2}})
	out = append(out, [3][2]int{{0, 2}, {1, 1}, {2, 0}})
	return out
}()

func hasLine(cells *[3][3]bool) bool {
	for _, l := range tttLines {
		if cells[l[0][0]][l[0][1]] && cells[l[1][0]][l[1][1]] && cells[l[2][0]][l[2][1]] {
			return true
		}
	}
	return false
}

func (bd *board) open() bool {
	for m := 0; m < 3; m++ {
		for n := 0; n < 3; n++ {
			if bd.b[m][n] {
				return true
			}
		}
	}
	return false
}

// TicTacToeMachine is a direct Go implementation of tic-tac-toe using the
// same facts and moves as TicTacToeBuilder. It satisfies
// propnet.StateMachine.
type TicTacToeMachine struct{}

func (TicTacToeMachine) Roles() []ir.Role { return []ir.Role{XPlayer, OPlayer} }

func (TicTacToeMachine) InitialState() ir.ExternalState {
	facts := []string{"(control xplayer)"}
	for m := 1; m <= 3; m++ {
		for n := 1; n <= 3; n++ {
			facts = append(facts, fmt.Sprintf("(cell %d %d b)", m, n))
		}
	}
	return ir.StateOf(facts...)
}

func (TicTacToeMachine) IsTerminal(s ir.ExternalState) bool {
	bd := parseBoard(s)
	return hasLine(&bd.x) || hasLine(&bd.o) || !bd.open()
}

func (t TicTacToeMachine) LegalMoves(s ir.ExternalState, role ir.Role) ([]ir.Action, error) {
	bd := parseBoard(s)
	var ctl, other bool
	switch role {
	case XPlayer:
		ctl, other = bd.ctlX, bd.ctlO
	case OPlayer:
		ctl, other = bd.ctlO, bd.ctlX
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
	var out []ir.Action
	if ctl {
		for m := 0; m < 3; m++ {
			for n := 0; n < 3; n++ {
				if bd.b[m][n] {
					out = append(out, markAction(m, n))
				}
			}
		}
	}
	if other {
		out = append(out, "noop")
	}
	if len(out) == 0 && !t.IsTerminal(s) {
		return nil, fmt.Errorf("role %s has no legal moves in %s", role, s)
	}
	return out, nil
}

func (TicTacToeMachine) Goal(s ir.ExternalState, role ir.Role) (int, error) {
	bd := parseBoard(s)
	var mine, theirs *[3][3]bool
	switch role {
	case XPlayer:
		mine, theirs = &bd.x, &bd.o
	case OPlayer:
		mine, theirs = &bd.o, &bd.x
	default:
		return 0, fmt.Errorf("unknown role %q", role)
	}

	var rewards []int
	if hasLine(mine) {
		rewards = append(rewards, 100)
	}
	if !hasLine(mine) && !hasLine(theirs) && !bd.open() {
		rewards = append(rewards, 50)
	}
	if hasLine(theirs) {
		rewards = append(rewards, 0)
	}
	if len(rewards) != 1 {
		return 0, fmt.Errorf("role %s has %d goals", role, len(rewards))
	}
	return rewards[0], nil
}

func (TicTacToeMachine) NextState(s ir.ExternalState, jm ir.JointMove) (ir.ExternalState, error) {
	if jm.Len() != 2 {
		return ir.ExternalState{}, fmt.Errorf("joint move has %d actions, want 2", jm.Len())
	}
	bd := parseBoard(s)
	xm := jm.At(0)
	om := jm.At(1)

	var next []string
	for m := 0; m < 3; m++ {
		for n := 0; n < 3; n++ {
			a := markAction(m, n)
			markedX := xm == a && bd.b[m][n]
			markedO := om == a && bd.b[m][n]
			if bd.x[m][n] || markedX {
				next = append(next, cellFact(m, n, "x"))
			}
			if bd.o[m][n] || markedO {
				next = append(next, cellFact(m, n, "o"))
			}
			if bd.b[m][n] && xm != a && om != a {
				next = append(next, cellFact(m, n, "b"))
			}
		}
	}
	if bd.ctlO {
		next = append(next, "(control xplayer)")
	}
	if bd.ctlX {
		next = append(next, "(control oplayer)")
	}
	return ir.StateOf(next...), nil
}

func markAction(m, n int) ir.Action {
	return ir.Action(fmt.Sprintf("(mark %d %d)", m+1, n+1))
}

func cellFact(m, n int, v string) string {
	return fmt.Sprintf("(cell %d %d %s)", m+1, n+1, v)
}
