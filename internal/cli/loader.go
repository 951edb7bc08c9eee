package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/propnet/internal/circuit"
	"github.com/roach88/propnet/internal/compiler"
	"github.com/roach88/propnet/internal/store"
)

// loadCircuit compiles the description at path. Failures are written to f
// and returned as command errors.
func loadCircuit(f *OutputFormatter, path string) (*circuit.Circuit, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, f.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("circuit not found: %s", path), nil)
	}

	c, err := compiler.LoadCircuit(path)
	if err != nil {
		var malformed *circuit.MalformedCircuitError
		var compileErr *compiler.CompileError
		switch {
		case errors.As(err, &malformed):
			return nil, f.fail(ExitCommandError, ErrCodeMalformed, malformed.Error(), malformed.Violations)
		case errors.As(err, &compileErr):
			return nil, f.fail(ExitCommandError, ErrCodeCompile, compileErr.Error(), nil)
		default:
			return nil, f.fail(ExitCommandError, ErrCodeLoadFailed, err.Error(), nil)
		}
	}

	f.VerboseLog("Loaded %s: %d nodes, hash %s", path, c.Len(), c.Hash())
	return c, nil
}

// openStore opens the run store at path, or returns nil when path is empty.
func openStore(f *OutputFormatter, path string) (*store.Store, error) {
	if path == "" {
		return nil, nil
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, f.fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("opening store %s: %v", path, err), nil)
	}
	f.VerboseLog("Using store %s", path)
	return st, nil
}
