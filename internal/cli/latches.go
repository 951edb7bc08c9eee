package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/propnet/internal/circuit"
	"github.com/roach88/propnet/internal/latch"
	"github.com/roach88/propnet/internal/store"
)

// LatchesOptions holds flags for the latches command.
type LatchesOptions struct {
	*RootOptions
	MaxLeaves int
	DB        string
	Refresh   bool
}

// LatchedNode is one latched proposition in command output.
type LatchedNode struct {
	Node  int    `json:"node"`
	Name  string `json:"name"`
	Value bool   `json:"value"`
}

// LatchesResult is the output of the latches command.
type LatchesResult struct {
	Circuit   string        `json:"circuit"`
	MaxLeaves int           `json:"max_leaves"`
	Cached    bool          `json:"cached"`
	Analyzed  int           `json:"analyzed"`
	Skipped   []int         `json:"skipped"`
	Latches   []LatchedNode `json:"latches"`
}

// NewLatchesCommand creates the latches command.
func NewLatchesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LatchesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "latches <path>",
		Short: "Find propositions with a constant value",
		Long: `Exhaustively evaluate every derived proposition over its leaf
ancestors and report the ones that never change value.

Targets with more leaf ancestors than --max-leaves are skipped. With --db
the analysis is cached by circuit hash and bound.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLatches(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.MaxLeaves, "max-leaves", rootOpts.Config.LatchMaxLeaves, "leaf ancestor bound per target")
	cmd.Flags().StringVar(&opts.DB, "db", rootOpts.Config.DB, "run store path (PROPNET_DB)")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "ignore a cached analysis")

	return cmd
}

func runLatches(opts *LatchesOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	if opts.MaxLeaves < 1 || opts.MaxLeaves > latch.MaxLeavesLimit {
		return f.fail(ExitCommandError, ErrCodeGeneric,
			fmt.Sprintf("--max-leaves must be between 1 and %d", latch.MaxLeavesLimit), nil)
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

	res := LatchesResult{Circuit: c.Hash(), MaxLeaves: opts.MaxLeaves}

	if st != nil && !opts.Refresh {
		rec, err := st.ReadLatches(ctx, c.Hash(), opts.MaxLeaves)
		switch {
		case err == nil:
			f.VerboseLog("Using cached analysis for %s", c.Hash())
			res.Cached = true
			res.Analyzed = rec.Analyzed
			res.Skipped = rec.Skipped
			res.Latches = latchedNodes(c, rec.Latches)
			return writeLatches(f, res)
		case !errors.Is(err, store.ErrNotFound):
			return f.fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
	}

	rep, err := latch.New(c, latch.WithMaxLeaves(opts.MaxLeaves)).AnalyzeAll(ctx)
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeQuery, err.Error(), nil)
	}

	if st != nil {
		if err := st.WriteLatches(ctx, opts.MaxLeaves, rep); err != nil {
			return f.fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
	}

	res.Analyzed = rep.Analyzed
	res.Skipped = rep.Skipped
	res.Latches = latchedNodes(c, rep.Latches)
	return writeLatches(f, res)
}

func latchedNodes(c *circuit.Circuit, l circuit.Latches) []LatchedNode {
	out := []LatchedNode{}
	for _, i := range l.Indices() {
		n := c.Node(i)
		name := n.Name
		if name == "" {
			name = n.Label()
		}
		out = append(out, LatchedNode{Node: i, Name: name, Value: l[i]})
	}
	return out
}

func writeLatches(f *OutputFormatter, res LatchesResult) error {
	if res.Skipped == nil {
		res.Skipped = []int{}
	}
	if f.JSON() {
		return f.Success(res)
	}

	w := f.Writer
	suffix := ""
	if res.Cached {
		suffix = ", cached"
	}
	fmt.Fprintf(w, "\u2713 %d of %d propositions latched (%d skipped%s)\n",
		len(res.Latches), res.Analyzed, len(res.Skipped), suffix)
	for _, l := range res.Latches {
		fmt.Fprintf(w, "  @%-4d %-20s %t\n", l.Node, l.Name, l.Value)
	}
	return nil
}
