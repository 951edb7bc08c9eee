package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/propnet/internal/config"
)

var (
	flipCircuit   = filepath.Join("..", "harness", "testdata", "circuits", "flip.cue")
	edgeCircuit   = filepath.Join("..", "harness", "testdata", "circuits", "edge.cue")
	scenariosDir  = filepath.Join("..", "harness", "testdata", "scenarios")
	goldenFixture = filepath.Join("..", "harness", "testdata", "golden")
)

// response mirrors CLIResponse with the payload left undecoded.
type response struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

func testRootOptions(format string) *RootOptions {
	return &RootOptions{
		Format: format,
		Config: config.Config{
			VerifyRounds:   100,
			Workers:        1,
			LatchMaxLeaves: 16,
			Seed:           1,
		},
	}
}

func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func decode(t *testing.T, out string, data any) response {
	t.Helper()
	var resp response
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	if data != nil && resp.Data != nil {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp
}
