package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of queries against one circuit.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Circuit is the path of the CUE circuit description.
	// Relative paths are resolved against the scenario file's directory.
	Circuit string `yaml:"circuit"`

	// Latches runs the latch analyzer first and gives its annotations to
	// both evaluators.
	Latches bool `yaml:"latches,omitempty"`

	// Steps are executed in order against a current state, which starts
	// empty.
	Steps []Step `yaml:"steps"`

	// Assertions are checked after the last step.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one query.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// Role is required by legal and goal.
	Role string `yaml:"role,omitempty"`

	// Moves is the joint move of next, one action per role.
	Moves []string `yaml:"moves,omitempty"`

	// Node is the node name read by value.
	Node string `yaml:"node,omitempty"`

	// State is the fact list assigned by set.
	State []string `yaml:"state,omitempty"`

	// Expect checks the step's outcome. If nil, any outcome is accepted.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect is the expected outcome of a step. Only the field matching the
// step's op is consulted, unless Error is set.
type Expect struct {
	State    []string `yaml:"state,omitempty"`
	Actions  []string `yaml:"actions,omitempty"`
	Terminal *bool    `yaml:"terminal,omitempty"`
	Goal     *int     `yaml:"goal,omitempty"`
	Value    *bool    `yaml:"value,omitempty"`

	// Error is the expected error kind (see ErrorKind). An empty Error
	// means the step must succeed.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the run as a whole.
type Assertion struct {
	// Type specifies the assertion type:
	// - "final_state": the current state after the last step equals State
	// - "final_terminal": the current state's terminal flag equals Terminal
	// - "trace_count": Op appears exactly Count times in the trace
	Type string `yaml:"type"`

	State    []string `yaml:"state,omitempty"`
	Terminal *bool    `yaml:"terminal,omitempty"`
	Op       string   `yaml:"op,omitempty"`
	Count    int      `yaml:"count,omitempty"`
}

// Step operations.
const (
	OpInitial  = "initial"
	OpSet      = "set"
	OpTerminal = "terminal"
	OpLegal    = "legal"
	OpGoal     = "goal"
	OpNext     = "next"
	OpValue    = "value"
)

// Assertion type constants.
const (
	AssertFinalState    = "final_state"
	AssertFinalTerminal = "final_terminal"
	AssertTraceCount    = "trace_count"
)

var knownOps = map[string]bool{
	OpInitial: true, OpSet: true, OpTerminal: true, OpLegal: true,
	OpGoal: true, OpNext: true, OpValue: true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve the circuit path BEFORE validation
	if scenario.Circuit != "" && !filepath.IsAbs(scenario.Circuit) {
		scenario.Circuit = filepath.Join(filepath.Dir(path), scenario.Circuit)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, in name order.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Circuit == "" {
		return fmt.Errorf("circuit is required")
	}
	if _, err := os.Stat(s.Circuit); os.IsNotExist(err) {
		return fmt.Errorf("circuit file not found: %s", s.Circuit)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s *Step) error {
	if s.Op == "" {
		return fmt.Errorf("steps[%d]: op is required", index)
	}
	if !knownOps[s.Op] {
		return fmt.Errorf("steps[%d]: unknown op %q", index, s.Op)
	}

	switch s.Op {
	case OpLegal, OpGoal:
		if s.Role == "" {
			return fmt.Errorf("steps[%d]: role is required for %s", index, s.Op)
		}
	case OpNext:
		if len(s.Moves) == 0 {
			return fmt.Errorf("steps[%d]: moves list is required for next", index)
		}
	case OpValue:
		if s.Node == "" {
			return fmt.Errorf("steps[%d]: node is required for value", index)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFinalState:
		if a.State == nil {
			return fmt.Errorf("assertions[%d]: state is required for final_state", index)
		}
	case AssertFinalTerminal:
		if a.Terminal == nil {
			return fmt.Errorf("assertions[%d]: terminal is required for final_terminal", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
