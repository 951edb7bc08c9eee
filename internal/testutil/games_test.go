package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/propnet/internal/circuit"
	"github.com/roach88/propnet/internal/ir"
)

func TestFlipCircuit_Shape(t *testing.T) {
	c := FlipCircuit()

	assert.Equal(t, []ir.Role{White, Black}, c.Roles())
	assert.Len(t, c.Bases(), 7)
	assert.Len(t, c.Inputs(), 6)
	assert.Len(t, c.Legals(White), 3)
	assert.Len(t, c.Goals(Black), 2)
}

func TestTicTacToeCircuit_Shape(t *testing.T) {
	c := TicTacToeCircuit()

	assert.Len(t, c.Bases(), 29)
	assert.Len(t, c.Inputs(), 20)
	assert.Len(t, c.Legals(XPlayer), 10)
	assert.Len(t, c.Goals(OPlayer), 3)
}

func TestMustCrystallize_Panics(t *testing.T) {
	assert.Panics(t, func() { MustCrystallize(circuit.NewBuilder()) })
}

func TestFlipMachine(t *testing.T) {
	m := FlipMachine{}
	s := m.InitialState()
	assert.False(t, m.IsTerminal(s))

	legal, err := m.LegalMoves(s, Black)
	require.NoError(t, err)
	assert.Equal(t, ir.Actions("noop"), legal)

	for _, jm := range []ir.JointMove{ir.MovesOf("b", "noop"), ir.MovesOf("noop", "a"), ir.MovesOf("a", "noop")} {
		s, err = m.NextState(s, jm)
		require.NoError(t, err)
	}
	assert.True(t, m.IsTerminal(s))

	g, err := m.Goal(s, White)
	require.NoError(t, err)
	assert.Equal(t, 100, g)

	_, err = m.Goal(s, "ghost")
	assert.Error(t, err)
	_, err = m.NextState(s, ir.MovesOf("a"))
	assert.Error(t, err)
}

func TestTicTacToeMachine_Win(t *testing.T) {
	m := TicTacToeMachine{}
	s := m.InitialState()

	moves := []ir.JointMove{
		ir.MovesOf("(mark 1 1)", "noop"),
		ir.MovesOf("noop", "(mark 2 1)"),
		ir.MovesOf("(mark 1 2)", "noop"),
		ir.MovesOf("noop", "(mark 2 2)"),
		ir.MovesOf("(mark 1 3)", "noop"),
	}
	for _, jm := range moves {
		require.False(t, m.IsTerminal(s))
		var err error
		s, err = m.NextState(s, jm)
		require.NoError(t, err)
	}

	assert.True(t, m.IsTerminal(s))
	x, err := m.Goal(s, XPlayer)
	require.NoError(t, err)
	o, err := m.Goal(s, OPlayer)
	require.NoError(t, err)
	assert.Equal(t, 100, x)
	assert.Equal(t, 0, o)
	assert.True(t, s.Contains("(cell 1 3 x)"))
	assert.False(t, s.Contains("(cell 1 3 b)"))
}

func TestTicTacToeMachine_GoalUndefinedMidGame(t *testing.T) {
	m := TicTacToeMachine{}
	_, err := m.Goal(m.InitialState(), XPlayer)
	assert.Error(t, err)
}
