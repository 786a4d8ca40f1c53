package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/microc-analysis/pkg/expr"
	"github.com/l3aro/microc-analysis/pkg/syntax"
)

func TestParse_Declarations(t *testing.T) {
	prog, err := Parse("int x; int[5] A; {int fst; int snd} R;")
	require.NoError(t, err)
	require.Len(t, prog.Items, 3)

	x := prog.Items[0].(*syntax.Declaration)
	assert.Equal(t, syntax.DeclVariable, x.Kind)
	assert.Equal(t, "x", x.Name)

	a := prog.Items[1].(*syntax.Declaration)
	assert.Equal(t, syntax.DeclArray, a.Kind)
	assert.Equal(t, 5, a.Length)

	r := prog.Items[2].(*syntax.Declaration)
	assert.Equal(t, syntax.DeclRecord, r.Kind)
	assert.Equal(t, "R", r.Name)
}

func declString(d *syntax.Declaration) string {
	decl := expr.VariableDeclaration{Name: d.Name, Kind: expr.Scalar}
	switch d.Kind {
	case syntax.DeclArray:
		decl.Kind, decl.Length = expr.Array, d.Length
	case syntax.DeclRecord:
		decl.Kind = expr.Record
	}
	return decl.String() + ";"
}

func TestParse_DeclarationRoundTrip(t *testing.T) {
	for _, src := range []string{"int x;", "int[4] A;", "{int fst; int snd} R;", "{ int fst ; int snd } R ;"} {
		t.Run(src, func(t *testing.T) {
			prog, err := Parse(src)
			require.NoError(t, err)
			require.Len(t, prog.Items, 1)
			rendered := declString(prog.Items[0].(*syntax.Declaration))

			again, err := Parse(rendered)
			require.NoError(t, err, rendered)
			assert.Equal(t, prog.Items[0].(*syntax.Declaration).Kind, again.Items[0].(*syntax.Declaration).Kind)
			assert.Equal(t, rendered, declString(again.Items[0].(*syntax.Declaration)))
		})
	}
}

func TestParse_Statements(t *testing.T) {
	src := `
int a; int[3] A; {int fst; int snd} R;
a := 5;          // literal
A[a - 1] := R.fst * 2;
read R.snd;
write a + 1;
if (a > 0) { write a; } else { write 0; }
while (not a == 0 & true) { a := a - 1; }
`
	prog, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, prog.Items, 9)

	assign := prog.Items[4].(*syntax.Assign)
	assert.Equal(t, syntax.AccessArray, assign.Target.Kind)
	idx := assign.Target.Index.(*syntax.Arith)
	assert.Equal(t, "-", idx.Op)
	mul := assign.Value.(*syntax.Arith)
	assert.Equal(t, "*", mul.Op)
	assert.Equal(t, "fst", mul.Left.(*syntax.Access).Field)

	read := prog.Items[5].(*syntax.Read)
	assert.Equal(t, syntax.AccessRecord, read.Target.Kind)
	assert.Equal(t, "snd", read.Target.Field)

	ifs := prog.Items[7].(*syntax.If)
	assert.True(t, ifs.HasElse())
	assert.Len(t, ifs.Then, 1)
	assert.Equal(t, 0, ifs.Else[0].(*syntax.Write).Value.(*syntax.Num).Value)

	loop := prog.Items[8].(*syntax.While)
	and := loop.Cond.(*syntax.Logic)
	assert.Equal(t, "&", and.Op)
	not := and.Left.(*syntax.Not)
	assert.Equal(t, "==", not.X.(*syntax.Rel).Op)
	assert.True(t, and.Right.(*syntax.Bool).Value)
}

func TestParse_Precedence(t *testing.T) {
	prog, err := Parse("int a; a := 1 + 2 * 3 - 4;")
	require.NoError(t, err)

	value := prog.Items[1].(*syntax.Assign).Value.(*syntax.Arith)
	// (1 + (2 * 3)) - 4
	assert.Equal(t, "-", value.Op)
	plus := value.Left.(*syntax.Arith)
	assert.Equal(t, "+", plus.Op)
	assert.Equal(t, "*", plus.Right.(*syntax.Arith).Op)
}

func TestParse_ParenthesizedConditions(t *testing.T) {
	prog, err := Parse("int a; if ((a + 1) * 2 > 0 | (a < 3 & a > -3)) { write a; }")
	require.NoError(t, err)

	cond := prog.Items[1].(*syntax.If).Cond.(*syntax.Logic)
	assert.Equal(t, "|", cond.Op)
	left := cond.Left.(*syntax.Rel)
	assert.Equal(t, "*", left.Left.(*syntax.Arith).Op)
	right := cond.Right.(*syntax.Logic)
	assert.Equal(t, "&", right.Op)
	assert.Equal(t, -3, right.Right.(*syntax.Rel).Right.(*syntax.Num).Value)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing semicolon", "int a a := 1;"},
		{"keyword as name", "int while;"},
		{"bad character", "int a; a := 1 $ 2;"},
		{"missing relation", "int a; if (a) { write a; }"},
		{"unterminated block", "int a; while (a > 0) { a := a - 1;"},
		{"dangling operator", "int a; a := a +;"},
		{"record field terminated", "{int fst; int snd;} R;"},
		{"record fields swapped", "{int snd; int fst} R;"},
		{"record missing separator", "{int fst int snd} R;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			var se *SyntaxError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Greater(t, se.Pos.Line, 0)
		})
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	_, err := Parse("int a;\na := ;")
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 2, se.Pos.Line)
	assert.Equal(t, 6, se.Pos.Col)
}
