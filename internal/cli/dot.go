package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/propnet/internal/circuit"
	"github.com/roach88/propnet/internal/propnet"
)

// DotOptions holds flags for the dot command.
type DotOptions struct {
	*RootOptions
	Output  string
	Initial bool
}

// NewDotCommand creates the dot command.
func NewDotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dot <path>",
		Short: "Render a circuit as Graphviz DOT",
		Long: `Render a compiled circuit as a Graphviz digraph.

With --initial, propositions that hold in the initial state are filled red.

Examples:
  propnet dot ./games/flip.cue | dot -Tsvg > flip.svg
  propnet dot ./games/flip.cue --initial -o flip.dot`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDot(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write DOT to this file")
	cmd.Flags().BoolVar(&opts.Initial, "initial", false, "colour propositions true in the initial state")

	return cmd
}

func runDot(opts *DotOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	c, err := loadCircuit(f, path)
	if err != nil {
		return err
	}

	var value func(int) bool
	if opts.Initial {
		m, err := propnet.NewIncremental(c)
		if err != nil {
			return f.fail(ExitCommandError, ErrCodeQuery, err.Error(), nil)
		}
		m.SetState(m.InitialState())
		value = m.Value
	}

	var buf bytes.Buffer
	if err := circuit.WriteDot(&buf, c, value); err != nil {
		return f.fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, buf.Bytes(), 0o644); err != nil {
			return f.fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
		if f.JSON() {
			return f.Success(map[string]string{"output": opts.Output})
		}
		fmt.Fprintf(f.Writer, "Wrote DOT to %s\n", opts.Output)
		return nil
	}

	if f.JSON() {
		return f.Success(map[string]string{"dot": buf.String()})
	}
	_, err = f.Writer.Write(buf.Bytes())
	return err
}
