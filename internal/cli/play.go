package cli

import (
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/roach88/propnet/internal/ir"
	"github.com/roach88/propnet/internal/propnet"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	Seed     uint64
	MaxSteps int
}

// PlayResult is the output of the play command.
type PlayResult struct {
	Seed     uint64             `json:"seed"`
	States   []ir.ExternalState `json:"states"`
	Moves    []ir.JointMove     `json:"moves"`
	Terminal bool               `json:"terminal"`
	Goals    map[ir.Role]int    `json:"goals,omitempty"`
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play <path>",
		Short: "Play one random game",
		Long: `Play a random game with the incremental evaluator from the initial
state, printing each state and joint move, then the goal values of the
final state.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, args[0], cmd)
		},
	}

	cmd.Flags().Uint64Var(&opts.Seed, "seed", rootOpts.Config.Seed, "random seed")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", 1000, "stop after this many moves")

	return cmd
}

func runPlay(opts *PlayOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	c, err := loadCircuit(f, path)
	if err != nil {
		return err
	}
	m, err := propnet.NewIncremental(c)
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeQuery, err.Error(), nil)
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	res := PlayResult{Seed: opts.Seed, Moves: []ir.JointMove{}}

	s := m.InitialState()
	res.States = append(res.States, s)
	for step := 0; step < opts.MaxSteps && !m.IsTerminal(s); step++ {
		jm, err := propnet.RandomJointMove(m, s, rng)
		if err != nil {
			return f.fail(ExitCommandError, ErrCodeQuery, fmt.Sprintf("step %d: %v", step, err), nil)
		}
		s, err = m.NextState(s, jm)
		if err != nil {
			return f.fail(ExitCommandError, ErrCodeQuery, fmt.Sprintf("step %d: %v", step, err), nil)
		}
		res.Moves = append(res.Moves, jm)
		res.States = append(res.States, s)
	}
	res.Terminal = m.IsTerminal(s)

	var goalErr error
	if res.Terminal {
		goals, err := propnet.Goals(m, s)
		if err != nil {
			goalErr = err
		} else {
			res.Goals = make(map[ir.Role]int, len(goals))
			for i, r := range m.Roles() {
				res.Goals[r] = goals[i]
			}
		}
	}

	if f.JSON() {
		return f.Success(res)
	}

	w := f.Writer
	for i, st := range res.States {
		fmt.Fprintf(w, "%3d  %s\n", i, st)
		if i < len(res.Moves) {
			fmt.Fprintf(w, "     %s\n", res.Moves[i])
		}
	}
	if !res.Terminal {
		fmt.Fprintf(w, "\nstopped after %d moves without reaching a terminal state\n", len(res.Moves))
		return nil
	}
	if goalErr != nil {
		fmt.Fprintf(w, "\ngoals unavailable: %v\n", goalErr)
		return nil
	}
	fmt.Fprintln(w)
	for _, r := range m.Roles() {
		fmt.Fprintf(w, "  %-10s %d\n", r, res.Goals[r])
	}
	return nil
}
