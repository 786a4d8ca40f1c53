package pdg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/microc-analysis/pkg/cfg"
	"github.com/l3aro/microc-analysis/pkg/parser"
)

// e0 int a, e1 int b, e2 read a, e3 a > 0, e4 not a > 0, e5 b := a,
// e6 b := 0, e7 write b
const branchProgram = "int a; int b; read a; if (a > 0) { b := a; } else { b := 0; } write b;"

// e0 int a, e1 a > 0, e2 a := a - 1, e3 not a > 0, e4 write a
const loopProgram = "int a; while (a > 0) { a := a - 1; } write a;"

func build(t *testing.T, src string) *Graph {
	t.Helper()
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	g, _, err := cfg.Build(prog)
	require.NoError(t, err)
	return Build(g)
}

func strPtr(s string) *string { return &s }

func TestBuild_Branch(t *testing.T) {
	p := build(t, branchProgram)

	assert.Equal(t, []Dependence{
		{From: 2, To: 3, Type: DepTypeData, Label: "a"},
		{From: 2, To: 4, Type: DepTypeData, Label: "a"},
		{From: 2, To: 5, Type: DepTypeData, Label: "a"},
		{From: 3, To: 5, Type: DepTypeControl, Label: "a > 0"},
		{From: 4, To: 6, Type: DepTypeControl, Label: "not a > 0"},
		{From: 5, To: 7, Type: DepTypeData, Label: "b"},
		{From: 6, To: 7, Type: DepTypeData, Label: "b"},
	}, p.Deps)
	assert.Equal(t, []string{"a", "b"}, p.VariableNames())
}

func TestBuild_Loop(t *testing.T) {
	p := build(t, loopProgram)

	assert.Equal(t, []Dependence{
		{From: 2, To: 1, Type: DepTypeData, Label: "a"},
		{From: 2, To: 2, Type: DepTypeData, Label: "a"},
		{From: 1, To: 2, Type: DepTypeControl, Label: "a > 0"},
		{From: 2, To: 3, Type: DepTypeData, Label: "a"},
		{From: 2, To: 4, Type: DepTypeData, Label: "a"},
	}, p.Deps)
}

func TestPostDominators(t *testing.T) {
	p := build(t, loopProgram)
	pdom := PostDominators(p.Program)

	want := map[int][]uint{
		0: {0, 1, 3, 4},
		1: {1, 3, 4},
		2: {1, 2, 3, 4},
		3: {3, 4},
		4: {4},
	}
	for id, nodes := range want {
		var got []uint
		for i, ok := pdom[id].NextSet(0); ok; i, ok = pdom[id].NextSet(i + 1) {
			got = append(got, i)
		}
		assert.Equal(t, nodes, got, "q%d", id)
	}
}

func TestBackwardSlice(t *testing.T) {
	p := build(t, branchProgram)

	assert.Equal(t, []int{2, 3, 4, 5, 6, 7}, p.BackwardSlice(7, nil))
	assert.Equal(t, []int{2, 3, 5}, p.BackwardSlice(5, nil))
	assert.Equal(t, []int{0}, p.BackwardSlice(0, nil))

	loop := build(t, loopProgram)
	assert.Equal(t, []int{1, 2, 4}, loop.BackwardSlice(4, nil))
}

func TestForwardSlice(t *testing.T) {
	p := build(t, branchProgram)

	assert.Equal(t, []int{2, 3, 4, 5, 6, 7}, p.ForwardSlice(2, nil))
	assert.Equal(t, []int{6, 7}, p.ForwardSlice(6, nil))
	assert.Equal(t, []int{4, 6, 7}, p.ForwardSlice(4, nil))
}

func TestVariableFilter(t *testing.T) {
	p := build(t, branchProgram)

	// data dependences on a are dropped, control dependences are kept
	assert.Equal(t, []int{3, 4, 5, 6, 7}, p.BackwardSlice(7, strPtr("b")))
	assert.Equal(t, []int{7}, p.BackwardSlice(7, strPtr("a")))
	assert.Equal(t, []int{2, 3, 4, 5, 6}, p.ForwardSlice(2, strPtr("a")))
	assert.Equal(t, []int{2}, p.ForwardSlice(2, strPtr("b")))
}

func TestSlice_OutOfRange(t *testing.T) {
	p := build(t, branchProgram)
	assert.Nil(t, p.BackwardSlice(-1, nil))
	assert.Nil(t, p.ForwardSlice(8, nil))

	var nilGraph *Graph
	assert.Nil(t, nilGraph.BackwardSlice(0, nil))
	assert.Nil(t, nilGraph.ForwardSlice(0, nil))
	assert.Empty(t, nilGraph.VariableNames())
	assert.Equal(t, DependencyInfo{}, nilGraph.Dependencies(0))
}

func TestDependencies(t *testing.T) {
	p := build(t, loopProgram)
	info := p.Dependencies(2)

	assert.Equal(t, []Dependence{{From: 1, To: 2, Type: DepTypeControl, Label: "a > 0"}}, info.ControlIn)
	assert.Empty(t, info.ControlOut)
	assert.Equal(t, []Dependence{{From: 2, To: 2, Type: DepTypeData, Label: "a"}}, info.DataIn)
	assert.Len(t, info.DataOut, 4)

	assert.Equal(t, "e1 -control(a > 0)-> e2", info.ControlIn[0].String())
}

func TestBuild_EmptyProgram(t *testing.T) {
	p := build(t, "")
	assert.Empty(t, p.Deps)
	assert.Empty(t, p.Program.Edges)
	assert.Nil(t, p.BackwardSlice(0, nil))
}
