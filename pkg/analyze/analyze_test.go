package analyze

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/microc-analysis/internal/log"
	"github.com/l3aro/microc-analysis/pkg/cache"
	"github.com/l3aro/microc-analysis/pkg/cfg"
	"github.com/l3aro/microc-analysis/pkg/dfg"
	"github.com/l3aro/microc-analysis/pkg/parser"
	"github.com/l3aro/microc-analysis/pkg/report"
)

const branchProgram = "int a; a := 5; if (a > 0) { write a; } else { write 0; }"

const loopProgram = `int a; int b; int[4] A;
read a;
b := 0;
while (a > 0) {
  if (a > 2) { A[a] := b; } else { b := b - a; }
  a := a - 1;
}
write b;`

func TestRun(t *testing.T) {
	tests := []struct {
		analysis Analysis
		name     string
		node     int
		variable string
		want     string
	}{
		{SignDetection, "sign-detection", 3, "a", "{+}"},
		{LiveVariables, "live-variables", 3, "a", "live"},
		{ReachingDefinitions, "reaching-definitions", 3, "a", "{q1->q2}"},
	}

	for _, tt := range tests {
		for _, s := range Solvers() {
			t.Run(string(tt.analysis)+"/"+string(s), func(t *testing.T) {
				r, err := Run(context.Background(), branchProgram, Options{Analysis: tt.analysis, Solver: s})
				require.NoError(t, err)
				assert.Equal(t, tt.name, r.Analysis)
				assert.Equal(t, s.Label(), r.Solver)
				assert.Greater(t, r.Steps, 0)

				got, ok := r.Lookup(tt.node, tt.variable)
				require.True(t, ok)
				assert.Equal(t, tt.want, got)
			})
		}
	}
}

func TestRun_KeepsDiagnostics(t *testing.T) {
	r, err := Run(context.Background(), "int a; int b; a := 1;", Options{Analysis: SignDetection, Solver: FIFO})
	require.NoError(t, err)
	require.Len(t, r.Diagnostics, 1)
	assert.Equal(t, cfg.SeverityInfo, r.Diagnostics[0].Severity)
	assert.Contains(t, r.Diagnostics[0].Message, "b is declared but never used")
}

func TestRun_Cache(t *testing.T) {
	store := cache.NewReportStore("", 8)
	var logs bytes.Buffer
	opts := Options{
		Analysis: SignDetection,
		Solver:   RoundRobin,
		Cache:    store,
		Logger:   log.New(log.LoggerConfig{Level: log.DebugLevel, Output: &logs}),
	}

	first, err := Run(context.Background(), loopProgram, opts)
	require.NoError(t, err)
	second, err := Run(context.Background(), loopProgram, opts)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, int64(1), store.Stats().Hits)
	assert.Contains(t, logs.String(), "fixpoint reached")
	assert.Contains(t, logs.String(), "report served from cache")

	opts.Solver = Chaotic
	third, err := Run(context.Background(), loopProgram, opts)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, store.Len())
}

func TestRun_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Run(ctx, "int a; a := ;", Options{Analysis: SignDetection, Solver: Chaotic})
	var syntaxErr *parser.SyntaxError
	assert.True(t, errors.As(err, &syntaxErr), "got %v", err)

	_, err = Run(ctx, "a := 1;", Options{Analysis: SignDetection, Solver: Chaotic})
	var undeclared *cfg.UndeclaredVariableError
	require.True(t, errors.As(err, &undeclared), "got %v", err)
	assert.Equal(t, "a", undeclared.Name)

	_, err = Run(ctx, "int a;", Options{Analysis: "taint", Solver: Chaotic})
	assert.Error(t, err)

	_, err = Run(ctx, "int a;", Options{Analysis: SignDetection, Solver: "random"})
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Run(cancelled, "int a;", Options{Analysis: SignDetection, Solver: Chaotic})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseAnalysis(t *testing.T) {
	tests := []struct {
		in      string
		want    Analysis
		wantErr bool
	}{
		{"sign", SignDetection, false},
		{"Sign-Detection", SignDetection, false},
		{"rd", ReachingDefinitions, false},
		{"reaching-definitions", ReachingDefinitions, false},
		{"lv", LiveVariables, false},
		{"live", LiveVariables, false},
		{"interval", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAnalysis(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSolver(t *testing.T) {
	tests := []struct {
		in      string
		want    Solver
		wantErr bool
	}{
		{"chaotic", Chaotic, false},
		{"fifo", FIFO, false},
		{"worklist-lifo", LIFO, false},
		{"roundrobin", RoundRobin, false},
		{"round-robin", RoundRobin, false},
		{"worklist-round-robin", RoundRobin, false},
		{"rr", RoundRobin, false},
		{"random", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSolver(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	// every label parses back to its solver
	for _, s := range Solvers() {
		got, err := ParseSolver(s.Label())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestCompare(t *testing.T) {
	for _, a := range Analyses() {
		t.Run(string(a), func(t *testing.T) {
			c, err := Compare(context.Background(), loopProgram, a, nil)
			require.NoError(t, err)
			require.Len(t, c.Runs, 4)
			assert.True(t, c.Agree())
			assert.Equal(t, c.Report.Analysis, c.Analysis)

			var labels []string
			for _, r := range c.Runs {
				labels = append(labels, r.Solver)
				assert.Greater(t, r.Steps, 0)
			}
			assert.Equal(t, []string{"chaotic", "worklist-fifo", "worklist-lifo", "worklist-round-robin"}, labels)
		})
	}
}

func TestCompare_Errors(t *testing.T) {
	_, err := Compare(context.Background(), "int a; a := b;", SignDetection, nil)
	assert.Error(t, err)
	_, err = Compare(context.Background(), "int a;", "taint", nil)
	assert.Error(t, err)
}

func TestComparison_Disagreement(t *testing.T) {
	c := Comparison{Runs: []SolverRun{{Solver: "chaotic", Agrees: true}, {Solver: "worklist-fifo"}}}
	assert.False(t, c.Agree())

	a := []report.Node{{ID: 0, Defined: true, Bindings: []dfg.Binding{{Name: "a", Value: "{+}"}}}}
	b := []report.Node{{ID: 0, Defined: true, Bindings: []dfg.Binding{{Name: "a", Value: "{-,0,+}"}}}}
	assert.True(t, sameNodes(a, a))
	assert.False(t, sameNodes(a, b))
	assert.False(t, sameNodes(a, nil))
}
