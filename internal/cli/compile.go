package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/propnet/internal/circuit"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // stats file path
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <path>",
		Short: "Compile a circuit description and report its shape",
		Long: `Compile a CUE circuit description (a file or a package directory),
validate it and print node counts and the content hash.

Exit codes:
  0 - Circuit is valid
  2 - Description or validation error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write stats as JSON to this file")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	c, err := loadCircuit(f, path)
	if err != nil {
		return err
	}
	stats := c.Stats()

	if opts.Output != "" {
		if err := writeStats(stats, opts.Output); err != nil {
			return f.fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
		f.VerboseLog("Wrote stats to %s", opts.Output)
	}

	if f.JSON() {
		return f.Success(stats)
	}
	writeStatsText(f, path, stats)
	return nil
}

func writeStats(stats circuit.Stats, path string) error {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func writeStatsText(f *OutputFormatter, path string, stats circuit.Stats) {
	w := f.Writer
	fmt.Fprintf(w, "\u2713 Compiled %s\n\n", path)
	fmt.Fprintf(w, "  hash:  %s\n", stats.Hash)
	fmt.Fprintf(w, "  nodes: %d (%d edges)\n", stats.Nodes, stats.Edges)
	fmt.Fprintf(w, "  roles: %d\n", stats.Roles)
	fmt.Fprintf(w, "  fan:   in <= %d, out <= %d\n", stats.MaxFanIn, stats.MaxFanOut)

	writeCounts(f, "Kinds:", stats.Kinds)
	writeCounts(f, "Propositions:", stats.Props)
}

func writeCounts(f *OutputFormatter, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	fmt.Fprintf(f.Writer, "\n%s\n", title)
	for _, k := range keys {
		fmt.Fprintf(f.Writer, "  %-10s %d\n", k, counts[k])
	}
}
