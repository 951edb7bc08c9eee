package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/propnet/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	DB      string
	Circuit string
	Limit   int
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List or show recorded verification runs",
		Long: `List verification runs recorded in the run store, newest first, or
show a single run with its divergence.

Examples:
  propnet runs --db runs.db
  propnet runs --db runs.db --circuit 3f2a... --limit 5
  propnet runs --db runs.db 01925d6e-...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return runRuns(opts, id, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", rootOpts.Config.DB, "run store path (PROPNET_DB)")
	cmd.Flags().StringVar(&opts.Circuit, "circuit", "", "only runs of this circuit hash")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list (0 for all)")

	return cmd
}

func runRuns(opts *RunsOptions, id string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	if opts.DB == "" {
		return f.fail(ExitCommandError, ErrCodeStore, "no run store: pass --db or set PROPNET_DB", nil)
	}
	st, err := openStore(f, opts.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	if id != "" {
		run, err := st.ReadRun(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return f.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("run not found: %s", id), nil)
		}
		if err != nil {
			return f.fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		if f.JSON() {
			return f.Success(run)
		}
		writeRunDetail(f, run)
		return nil
	}

	runs, err := st.ListRuns(ctx, opts.Circuit, opts.Limit)
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	if f.JSON() {
		return f.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(f.Writer, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		mark := "\u2713"
		if !r.Report.Passed() {
			mark = "\u2717"
		}
		fmt.Fprintf(f.Writer, "%s %s  %s  %s  %d rounds  %d steps\n",
			mark, r.Report.ID, shortHash(r.CircuitHash),
			r.Report.Started.Format(time.RFC3339), r.Report.Rounds, r.Report.Steps)
	}
	return nil
}

func writeRunDetail(f *OutputFormatter, run store.Run) {
	w := f.Writer
	rep := run.Report
	fmt.Fprintf(w, "Run %s\n\n", rep.ID)
	fmt.Fprintf(w, "  circuit: %s\n", run.CircuitHash)
	fmt.Fprintf(w, "  engine:  %s (ir %s)\n", run.EngineVersion, run.IRVersion)
	fmt.Fprintf(w, "  started: %s\n", rep.Started.Format(time.RFC3339Nano))
	fmt.Fprintf(w, "  elapsed: %s\n", rep.Elapsed)
	fmt.Fprintf(w, "  seed:    %d (%d workers)\n", rep.Seed, rep.Workers)
	fmt.Fprintf(w, "  rounds:  %d (%d steps)\n", rep.Rounds, rep.Steps)
	if rep.Divergence == nil {
		fmt.Fprintln(w, "\n\u2713 no divergence")
		return
	}
	fmt.Fprintf(w, "\n\u2717 worker %d %s\n", rep.Divergence.Worker, rep.Divergence)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
