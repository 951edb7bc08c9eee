package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/propnet/internal/circuit"
	"github.com/roach88/propnet/internal/latch"
	"github.com/roach88/propnet/internal/propnet"
	"github.com/roach88/propnet/internal/verify"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Rounds   int
	Budget   time.Duration
	Seed     uint64
	Workers  int
	MaxDepth int
	Latches  bool
	DB       string
}

// VerifyResult is the output of the verify command.
type VerifyResult struct {
	Circuit string         `json:"circuit"`
	Report  *verify.Report `json:"report"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}
	cfg := rootOpts.Config

	cmd := &cobra.Command{
		Use:   "verify <path>",
		Short: "Check the incremental evaluator against the recursive one",
		Long: `Play random games on a circuit and compare every query of the
incremental evaluator with the recursive reference: legal moves, next
states, terminality and goals.

The run stops at the first divergence, after --rounds games, or when
--budget elapses, whichever comes first.

Exit codes:
  0 - No divergence
  1 - Divergence found
  2 - Command error

Examples:
  propnet verify ./games/tictactoe.cue --rounds 10000
  propnet verify ./games/tictactoe.cue --budget 30s --workers 4 --db runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Rounds, "rounds", cfg.VerifyRounds, "number of games (0 for budget only)")
	cmd.Flags().DurationVar(&opts.Budget, "budget", cfg.VerifyBudget, "wall-clock budget (0 for none)")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", cfg.Seed, "random seed")
	cmd.Flags().IntVar(&opts.Workers, "workers", cfg.Workers, "parallel workers")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "maximum moves per game (0 for none)")
	cmd.Flags().BoolVar(&opts.Latches, "latches", false, "analyze latches and pin them in the incremental evaluator")
	cmd.Flags().StringVar(&opts.DB, "db", cfg.DB, "run store path (PROPNET_DB)")

	return cmd
}

func runVerify(opts *VerifyOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	switch {
	case opts.Rounds < 0:
		return f.fail(ExitCommandError, ErrCodeGeneric, "--rounds must not be negative", nil)
	case opts.Budget < 0:
		return f.fail(ExitCommandError, ErrCodeGeneric, "--budget must not be negative", nil)
	case opts.Workers < 1:
		return f.fail(ExitCommandError, ErrCodeGeneric, "--workers must be at least 1", nil)
	}

	c, err := loadCircuit(f, path)
	if err != nil {
		return err
	}

	st, err := openStore(f, opts.DB)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	var popts []propnet.Option
	if opts.Latches {
		rep, err := latch.New(c, latch.WithMaxLeaves(opts.Config.LatchMaxLeaves)).AnalyzeAll(ctx)
		if err != nil {
			return f.fail(ExitCommandError, ErrCodeQuery, err.Error(), nil)
		}
		f.VerboseLog("Pinned %d latches", len(rep.Latches))
		popts = append(popts, propnet.WithLatches(rep.Latches))
	}

	rep, err := verify.CheckParallel(ctx, evaluatorPair(c, popts), opts.Workers, verify.Options{
		Budget:    opts.Budget,
		MaxRounds: opts.Rounds,
		MaxDepth:  opts.MaxDepth,
		Seed:      opts.Seed,
		Logger:    slog.Default(),
	})
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeQuery, err.Error(), nil)
	}

	if st != nil {
		if err := st.WriteRun(ctx, c.Hash(), rep); err != nil {
			return f.fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		f.VerboseLog("Recorded run %s", rep.ID)
	}

	res := VerifyResult{Circuit: c.Hash(), Report: rep}

	if rep.Passed() {
		if f.JSON() {
			return f.Success(res)
		}
		fmt.Fprintf(f.Writer, "\u2713 %d rounds, %d steps, no divergence (run %s, %s)\n",
			rep.Rounds, rep.Steps, rep.ID, rep.Elapsed.Round(time.Millisecond))
		return nil
	}

	if f.JSON() {
		_ = f.Error(ErrCodeDivergence, rep.Divergence.String(), res)
	} else {
		fmt.Fprintf(f.Writer, "\u2717 divergence after %d rounds (run %s)\n", rep.Rounds, rep.ID)
		fmt.Fprintf(f.Writer, "  %s\n", rep.Divergence)
	}
	return NewExitError(ExitFailure, "divergence found")
}

// evaluatorPair builds a recursive reference and an incremental subject
// for each worker. subjOpts apply to the subject only; the reference
// always evaluates the full circuit.
func evaluatorPair(c *circuit.Circuit, subjOpts []propnet.Option) verify.Pair {
	return func() (propnet.StateMachine, propnet.StateMachine, error) {
		ref, err := propnet.NewRecursive(c)
		if err != nil {
			return nil, nil, err
		}
		subj, err := propnet.NewIncremental(c, subjOpts...)
		if err != nil {
			return nil, nil, err
		}
		return ref, subj, nil
	}
}
