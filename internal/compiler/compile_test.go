package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/propnet/internal/circuit"
	"github.com/roach88/propnet/internal/ir"
)

const minimalSrc = `
roles: ["r"]
nodes: {
	init:     {kind: "init"}
	p:        {kind: "base", fact: "p", next: "init"}
	n:        {kind: "not", in: ["p"]}
	q:        {kind: "view", in: ["n"]}
	always:   {kind: "and"}
	legal_go: {kind: "legal", role: "r", action: "go", in: ["always"]}
	goal_100: {kind: "goal", role: "r", reward: 100, in: ["p"]}
	terminal: {kind: "terminal", in: ["p"]}
	does_go:  {kind: "input", role: "r", action: "go"}
}
`

func requireCompileError(t *testing.T, err error, field string) *CompileError {
	t.Helper()
	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, field, ce.Field, "error: %v", err)
	return ce
}

// ============================================================================
// Compile: valid descriptions
// ============================================================================

func TestCompile_Minimal(t *testing.T) {
	c, err := CompileString("minimal.cue", minimalSrc)
	require.NoError(t, err)

	assert.Equal(t, 12, c.Len())
	assert.Equal(t, []ir.Role{"r"}, c.Roles())

	for i, name := range []string{"init", "p", "n", "q", "always", "legal_go", "goal_100", "terminal", "does_go"} {
		idx, ok := c.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, i, idx, "declaration order fixes index of %s", name)
	}

	wire, ok := c.Lookup("p'")
	require.True(t, ok)
	assert.Equal(t, 9, wire)
	assert.Equal(t, circuit.KindTransition, c.Node(wire).Kind)
	assert.Equal(t, []int{0}, c.Node(wire).Inputs)
	assert.Equal(t, []int{wire}, c.Node(1).Inputs)

	falseWire, ok := c.Lookup("false_wire")
	require.True(t, ok)
	assert.Equal(t, []int{falseWire}, c.Node(8).Inputs)

	goal := c.Node(c.Goals("r")[0])
	assert.Equal(t, 100, goal.Reward)
	_, ok = c.Input(ir.Move{Role: "r", Action: "go"})
	assert.True(t, ok)
}

func TestCompile_ConstAndExplicitTransition(t *testing.T) {
	src := `
roles: ["r"]
nodes: {
	init:  {kind: "init"}
	t:     {kind: "const", value: true}
	tr:    {kind: "transition", in: ["t"]}
	p:     {kind: "base", fact: "(p)", in: ["tr"]}
	legal: {kind: "legal", role: "r", action: "go", in: ["t"]}
	goal:  {kind: "goal", role: "r", reward: 0, in: ["p"]}
	term:  {kind: "terminal", in: ["p"]}
}
`
	c, err := CompileString("const.cue", src)
	require.NoError(t, err)
	assert.Equal(t, 7, c.Len())

	tIdx, _ := c.Lookup("t")
	assert.True(t, c.Node(tIdx).Constant)
	p, ok := c.Base("(p)")
	require.True(t, ok)
	tr, _ := c.Lookup("tr")
	assert.Equal(t, []int{tr}, c.Node(p).Inputs)
}

func TestCompile_SameHashAsBuilder(t *testing.T) {
	c1, err := CompileString("a.cue", minimalSrc)
	require.NoError(t, err)
	c2, err := CompileString("b.cue", minimalSrc)
	require.NoError(t, err)
	assert.Equal(t, c1.Hash(), c2.Hash(), "file name does not affect identity")
}

// ============================================================================
// Compile: description errors
// ============================================================================

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{
			name:  "missing roles",
			src:   `nodes: {init: {kind: "init"}}`,
			field: "roles",
		},
		{
			name:  "empty roles",
			src:   `roles: [], nodes: {init: {kind: "init"}}`,
			field: "roles",
		},
		{
			name:  "missing nodes",
			src:   `roles: ["r"]`,
			field: "nodes",
		},
		{
			name:  "unknown kind",
			src:   `roles: ["r"], nodes: {x: {kind: "xor"}}`,
			field: "kind",
		},
		{
			name:  "missing kind",
			src:   `roles: ["r"], nodes: {x: {in: []}}`,
			field: "kind",
		},
		{
			name:  "unknown field",
			src:   `roles: ["r"], nodes: {x: {kind: "and", inputs: []}}`,
			field: "inputs",
		},
		{
			name:  "unknown reference",
			src:   `roles: ["r"], nodes: {x: {kind: "and", in: ["ghost"]}}`,
			field: "in",
		},
		{
			name:  "undeclared role",
			src:   `roles: ["r"], nodes: {g: {kind: "goal", role: "s", reward: 1}}`,
			field: "role",
		},
		{
			name:  "base without fact",
			src:   `roles: ["r"], nodes: {p: {kind: "base", next: "p"}}`,
			field: "fact",
		},
		{
			name:  "base without next",
			src:   `roles: ["r"], nodes: {p: {kind: "base", fact: "p"}}`,
			field: "next",
		},
		{
			name:  "next on gate",
			src:   `roles: ["r"], nodes: {a: {kind: "and", next: "a"}}`,
			field: "next",
		},
		{
			name:  "next unknown",
			src:   `roles: ["r"], nodes: {p: {kind: "base", fact: "p", next: "ghost"}}`,
			field: "next",
		},
		{
			name:  "float reward",
			src:   `roles: ["r"], nodes: {g: {kind: "goal", role: "r", reward: 1.5}}`,
			field: "reward",
		},
		{
			name:  "const without value",
			src:   `roles: ["r"], nodes: {c: {kind: "const"}}`,
			field: "value",
		},
		{
			name:  "legal without action",
			src:   `roles: ["r"], nodes: {l: {kind: "legal", role: "r"}}`,
			field: "action",
		},
		{
			name:  "non-string in",
			src:   `roles: ["r"], nodes: {a: {kind: "and", in: [1]}}`,
			field: "in",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileString("bad.cue", tt.src)
			requireCompileError(t, err, tt.field)
		})
	}
}

func TestCompile_ErrorCarriesPosition(t *testing.T) {
	src := "roles: [\"r\"]\nnodes: {\n\tx: {kind: \"xor\"}\n}\n"
	_, err := CompileString("pos.cue", src)
	ce := requireCompileError(t, err, "kind")
	require.True(t, ce.Pos.IsValid())
	assert.Equal(t, 3, ce.Pos.Line())
	assert.Contains(t, err.Error(), "pos.cue:3:")
}

func TestCompile_CUEError(t *testing.T) {
	_, err := CompileString("syntax.cue", "roles: [\"r\"\nnodes: {")
	requireCompileError(t, err, "cue")
}

func TestCompile_StructuralErrorsFromCrystallize(t *testing.T) {
	src := `
roles: ["r"]
nodes: {
	init: {kind: "init"}
	n:    {kind: "not", in: ["init", "init2"]}
	init2: {kind: "and"}
}
`
	_, err := CompileString("malformed.cue", src)
	require.Error(t, err)
	assert.True(t, circuit.IsMalformed(err))

	var mce *circuit.MalformedCircuitError
	require.ErrorAs(t, err, &mce)
	assert.True(t, mce.Has(circuit.CodeArity))
	assert.True(t, mce.Has(circuit.CodeSingleton), "no terminal")
	assert.True(t, mce.Has(circuit.CodeRoleCoverage))
}

// ============================================================================
// Load
// ============================================================================

func TestLoadCircuit_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.cue")
	require.NoError(t, os.WriteFile(path, []byte("package game\n"+minimalSrc), 0o644))

	c, err := LoadCircuit(path)
	require.NoError(t, err)
	assert.Equal(t, 12, c.Len())
}

func TestLoadCircuit_Directory(t *testing.T) {
	dir := t.TempDir()
	roles := "package game\n\nroles: [\"r\"]\n"
	nodes := "package game\n\n" + minimalSrc[len("\nroles: [\"r\"]\n"):]
	require.NoError(t, os.WriteFile(filepath.Join(dir, "roles.cue"), []byte(roles), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nodes.cue"), []byte(nodes), 0o644))

	c, err := LoadCircuit(dir)
	require.NoError(t, err)
	assert.Equal(t, 12, c.Len())
}

func TestLoadCircuit_Missing(t *testing.T) {
	_, err := LoadCircuit(filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadCircuit_SyntaxError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.cue")
	require.NoError(t, os.WriteFile(path, []byte("roles: [\"r\"\nnodes: {"), 0o644))

	_, err := LoadCircuit(path)
	require.Error(t, err)
}
