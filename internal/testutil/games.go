package testutil

import (
	"fmt"

	"github.com/roach88/propnet/internal/circuit"
	"github.com/roach88/propnet/internal/ir"
)

// MustCrystallize crystallizes b and panics on a malformed circuit.
// Fixture builders are expected to be correct.
func MustCrystallize(b *circuit.Builder) *circuit.Circuit {
	c, err := circuit.Crystallize(b)
	if err != nil {
		panic(err)
	}
	return c
}

// Flip game roles.
const (
	White ir.Role = "white"
	Black ir.Role = "black"
)

// FlipBuilder returns the alternating flip game.
//
// White and black alternate; the player in control plays a or b, the other
// plays noop. Playing b toggles the mark. After three moves (step 3) the game
// ends; white scores 100 if the mark is set and 0 otherwise, black the
// reverse.
//
// Facts: (control white), (control black), (step 0) .. (step 3), (mark).
func FlipBuilder() *circuit.Builder {
	b := circuit.NewBuilder(White, Black)
	init := b.Init()

	ctlW := b.Base("(control white)")
	ctlB := b.Base("(control black)")
	steps := make([]circuit.NodeID, 4)
	for i := range steps {
		steps[i] = b.Base(ir.Fact(fmt.Sprintf("(step %d)", i)))
	}
	mark := b.Base("(mark)")

	inputs := make(map[ir.Move]circuit.NodeID)
	for _, r := range []ir.Role{White, Black} {
		for _, a := range []ir.Action{"a", "b", "noop"} {
			inputs[ir.Move{Role: r, Action: a}] = b.Input(r, a)
		}
	}

	b.Next(ctlW, b.Or(init, ctlB))
	b.Next(ctlB, ctlW)
	b.Next(steps[0], init)
	for i := 1; i < len(steps); i++ {
		b.Next(steps[i], steps[i-1])
	}

	// mark' = mark XOR (someone played b)
	flip := b.Or(inputs[ir.Move{Role: White, Action: "b"}], inputs[ir.Move{Role: Black, Action: "b"}])
	b.Next(mark, b.Or(
		b.And(mark, b.Not(flip)),
		b.And(b.Not(mark), flip),
	))

	for _, side := range []struct {
		role ir.Role
		ctl  circuit.NodeID
	}{{White, ctlW}, {Black, ctlB}} {
		b.Legal(side.role, "a", side.ctl)
		b.Legal(side.role, "b", side.ctl)
		b.Legal(side.role, "noop", b.Not(side.ctl))
	}

	notMark := b.Not(mark)
	b.Goal(White, 100, mark)
	b.Goal(White, 0, notMark)
	b.Goal(Black, 100, notMark)
	b.Goal(Black, 0, mark)

	b.Terminal(steps[3])
	return b
}

// FlipCircuit returns the crystallized flip game.
func FlipCircuit() *circuit.Circuit {
	return MustCrystallize(FlipBuilder())
}

// TicTacToeBuilder returns tic-tac-toe for xplayer and oplayer.
//
// Facts: (cell M N x|o|b) for M, N in 1..3, (control xplayer|oplayer).
// Moves: (mark M N) and noop. A cell stays blank unless someone marks it.
func TicTacToeBuilder() *circuit.Builder {
	b := circuit.NewBuilder(XPlayer, OPlayer)
	init := b.Init()

	var cellX, cellO, cellB [3][3]circuit.NodeID
	for m := 0; m < 3; m++ {
		for n := 0; n < 3; n++ {
			cellX[m][n] = b.Base(ir.Fact(cellFact(m, n, "x")))
			cellO[m][n] = b.Base(ir.Fact(cellFact(m, n, "o")))
			cellB[m][n] = b.Base(ir.Fact(cellFact(m, n, "b")))
		}
	}
	ctlX := b.Base("(control xplayer)")
	ctlO := b.Base("(control oplayer)")

	var markX, markO [3][3]circuit.NodeID
	for m := 0; m < 3; m++ {
		for n := 0; n < 3; n++ {
			markX[m][n] = b.Input(XPlayer, markAction(m, n))
			markO[m][n] = b.Input(OPlayer, markAction(m, n))
		}
	}
	b.Input(XPlayer, "noop")
	b.Input(OPlayer, "noop")

	for m := 0; m < 3; m++ {
		for n := 0; n < 3; n++ {
			blank := cellB[m][n]
			b.Next(cellX[m][n], b.Or(cellX[m][n], b.And(markX[m][n], blank)))
			b.Next(cellO[m][n], b.Or(cellO[m][n], b.And(markO[m][n], blank)))
			b.Next(blank, b.Or(init, b.And(blank, b.Not(markX[m][n]), b.Not(markO[m][n]))))
		}
	}
	b.Next(ctlX, b.Or(init, ctlO))
	b.Next(ctlO, ctlX)

	for _, side := range []struct {
		role     ir.Role
		ctl      circuit.NodeID
		opponent circuit.NodeID
	}{{XPlayer, ctlX, ctlO}, {OPlayer, ctlO, ctlX}} {
		for m := 0; m < 3; m++ {
			for n := 0; n < 3; n++ {
				b.Legal(side.role, markAction(m, n), b.And(cellB[m][n], side.ctl))
			}
		}
		b.Legal(side.role, "noop", side.opponent)
	}

	line := func(cells *[3][3]circuit.NodeID) circuit.NodeID {
		var ands []circuit.NodeID
		for _, l := range tttLines {
			ands = append(ands, b.And(cells[l[0][0]][l[0][1]], cells[l[1][0]][l[1][1]], cells[l[2][0]][l[2][1]]))
		}
		return b.Or(ands...)
	}
	lineX := line(&cellX)
	lineO := line(&cellO)

	var blanks []circuit.NodeID
	for m := 0; m < 3; m++ {
		blanks = append(blanks, cellB[m][:]...)
	}
	open := b.Or(blanks...)
	notLineX, notLineO, closed := b.Not(lineX), b.Not(lineO), b.Not(open)
	draw := b.And(notLineX, notLineO, closed)

	b.Goal(XPlayer, 100, lineX)
	b.Goal(XPlayer, 50, draw)
	b.Goal(XPlayer, 0, lineO)
	b.Goal(OPlayer, 100, lineO)
	b.Goal(OPlayer, 50, draw)
	b.Goal(OPlayer, 0, lineX)

	b.Terminal(b.Or(lineX, lineO, closed))
	return b
}

// TicTacToeCircuit returns the crystallized tic-tac-toe game.
func TicTacToeCircuit() *circuit.Circuit {
	return MustCrystallize(TicTacToeBuilder())
}
