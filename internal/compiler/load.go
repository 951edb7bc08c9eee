package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/propnet/internal/circuit"
)

// Load reads a circuit description from a .cue file or from a directory
// holding one CUE package.
func Load(path string) (cue.Value, error) {
	info, err := os.Stat(path)
	if err != nil {
		return cue.Value{}, fmt.Errorf("stat %s: %w", path, err)
	}

	cfg := &load.Config{Dir: path}
	args := []string{"."}
	if !info.IsDir() {
		cfg.Dir = filepath.Dir(path)
		args = []string{filepath.Base(path)}
	}

	instances := load.Instances(args, cfg)
	if len(instances) == 0 {
		return cue.Value{}, fmt.Errorf("no CUE instances loaded from %s", path)
	}
	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, formatCUEError(inst.Err)
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return value, nil
}

// LoadCircuit loads, compiles and crystallizes the description at path.
func LoadCircuit(path string) (*circuit.Circuit, error) {
	v, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Compile(v)
}

// CompileString compiles and crystallizes a description given as CUE source.
// filename is used in error positions.
func CompileString(filename, src string) (*circuit.Circuit, error) {
	v := cuecontext.New().CompileString(src, cue.Filename(filename))
	return Compile(v)
}
