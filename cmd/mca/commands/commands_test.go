package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/microc-analysis/internal/config"
	"github.com/l3aro/microc-analysis/pkg/cache"
	"github.com/l3aro/microc-analysis/pkg/report"
)

const branchProgram = "int a; a := 5; if (a > 0) { write a; } else { write 0; }"

// setup isolates HOME, the working directory and MCA_* variables and writes
// the program to prog.mc in the working directory.
func setup(t *testing.T, program string) (home, dir string) {
	t.Helper()
	home = t.TempDir()
	dir = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("NO_COLOR", "1")
	for _, k := range []string{"MCA_ANALYSIS", "MCA_SOLVER", "MCA_FORMAT", "MCA_CACHE_ENABLED", "MCA_CACHE_PATH", "MCA_CACHE_SIZE", "MCA_VERBOSE"} {
		t.Setenv(k, "")
	}
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("prog.mc", []byte(program), 0644))
	return home, dir
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestAnalyze_Text(t *testing.T) {
	setup(t, branchProgram)

	out, _, err := run(t, "", "analyze", "prog.mc")
	require.NoError(t, err)
	assert.Contains(t, out, "=== sign-detection (worklist-round-robin,")
	assert.Contains(t, out, "  q3: a = {+}")

	out, _, err = run(t, "", "analyze", "-a", "live", "-s", "chaotic", "prog.mc")
	require.NoError(t, err)
	assert.Contains(t, out, "=== live-variables (chaotic,")
	assert.Contains(t, out, "  q3: a = live")
}

func TestAnalyze_JSONFromStdin(t *testing.T) {
	setup(t, "")

	out, _, err := run(t, "int x; read x; write x;", "analyze", "-j", "-a", "rd", "-")
	require.NoError(t, err)

	var r report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "reaching-definitions", r.Analysis)
	v, ok := r.Lookup(2, "x")
	require.True(t, ok)
	assert.Equal(t, "{q1->q2}", v)
}

func TestAnalyze_OutputFile(t *testing.T) {
	_, dir := setup(t, branchProgram)
	path := filepath.Join(dir, "out.msgpack")

	out, _, err := run(t, "", "analyze", "-f", "msgpack", "-o", path, "prog.mc")
	require.NoError(t, err)
	assert.Empty(t, out)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	r, err := report.Decode(f, report.FormatMsgpack)
	require.NoError(t, err)
	assert.Equal(t, "sign-detection", r.Analysis)
}

func TestAnalyze_Cache(t *testing.T) {
	_, dir := setup(t, branchProgram)
	cachePath := filepath.Join(dir, "cache", "reports.msgpack")
	cfg := config.DefaultConfig()
	cfg.CacheEnabled = true
	cfg.CachePath = cachePath
	require.NoError(t, cfg.Save(config.ProjectConfigPath()))

	first, _, err := run(t, "", "analyze", "prog.mc")
	require.NoError(t, err)
	_, err = os.Stat(cachePath)
	require.NoError(t, err)

	second, logs, err := run(t, "", "analyze", "--verbose", "prog.mc")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Contains(t, logs, "report served from cache")

	out, _, err := run(t, "", "cache", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Reports: 1")

	out, _, err = run(t, "", "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 reports")

	store := cache.NewReportStore(cachePath, 4)
	require.NoError(t, store.Restore())
	assert.Equal(t, 0, store.Len())
}

func TestAnalyze_Errors(t *testing.T) {
	setup(t, "int a; a := b;")

	_, _, err := run(t, "", "analyze", "prog.mc")
	assert.ErrorContains(t, err, "undeclared")

	_, _, err = run(t, "", "analyze", "missing.mc")
	assert.Error(t, err)

	_, _, err = run(t, "", "analyze", "-a", "taint", "prog.mc")
	assert.ErrorContains(t, err, "invalid analysis")

	out, _, err := run(t, "", "analyze", ".")
	assert.ErrorContains(t, err, "1 of 1 files failed")
	assert.Contains(t, out, "--- prog.mc ---\nerror:")
	assert.Contains(t, out, "1 files analysed, 1 failed")

	_, _, err = run(t, "", "analyze", "--config", "nope.yaml", "prog.mc")
	assert.ErrorContains(t, err, "loading config")
}

func TestGraph(t *testing.T) {
	setup(t, "int a; while (a > 0) { a := a - 1; } write a;")

	out, _, err := run(t, "", "graph", "prog.mc")
	require.NoError(t, err)
	assert.Contains(t, out, "Nodes: 5, Edges: 5")
	assert.Contains(t, out, "Cyclomatic Complexity: 2")
	assert.Contains(t, out, "q2 -> q1: a := a - 1")
	assert.Contains(t, out, "Reverse postorder: q0 q1 q3 q4 q2")

	out, _, err = run(t, "", "graph", "--dot", "prog.mc")
	require.NoError(t, err)
	assert.Contains(t, out, "digraph")
	assert.Contains(t, out, "prog {")
	assert.Contains(t, out, `"a := a - 1"`)

	out, _, err = run(t, "", "graph", "-j", "prog.mc")
	require.NoError(t, err)
	var g map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	assert.Len(t, g["edges"], 5)
}

func TestGraphName(t *testing.T) {
	assert.Equal(t, "program", graphName("-"))
	assert.Equal(t, "loop_1", graphName("dir/loop-1.mc"))
	assert.Equal(t, "g_9lives", graphName("9lives.mc"))
}

func TestCompare(t *testing.T) {
	setup(t, "int a; int b; read a; while (a > 0) { b := b + a; a := a - 1; } write b;")

	out, _, err := run(t, "", "compare", "-a", "sign", "prog.mc")
	require.NoError(t, err)
	assert.Contains(t, out, "=== sign-detection ===")
	for _, s := range []string{"chaotic", "worklist-fifo", "worklist-lifo", "worklist-round-robin"} {
		assert.Contains(t, out, s)
	}
	assert.NotContains(t, out, "DIFFERENT")

	out, _, err = run(t, "", "compare", "-j", "-a", "live", "prog.mc")
	require.NoError(t, err)
	var c map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &c))
	assert.Equal(t, true, c["agree"])
	assert.Len(t, c["runs"], 4)
}

func TestInit_Defaults(t *testing.T) {
	home, _ := setup(t, "")

	out, _, err := run(t, "", "init", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration saved to: "+config.ProjectConfigPath())

	cfg, err := config.LoadFromFile(config.ProjectConfigPath())
	require.NoError(t, err)
	assert.Equal(t, *config.DefaultConfig(), *cfg)

	_, _, err = run(t, "", "init", "--yes", "--global")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(home, ".mca", "config.yaml"))
	assert.NoError(t, err)
}

func TestInitChoices(t *testing.T) {
	c := defaultChoices(false)
	c.Analysis = "live"
	c.CacheEnabled = true
	c.CacheSize = "7"
	cfg, err := c.config()
	require.NoError(t, err)
	assert.Equal(t, "live", cfg.Analysis)
	assert.Equal(t, 7, cfg.CacheSize)
	assert.True(t, cfg.CacheEnabled)

	c.CacheSize = "lots"
	_, err = c.config()
	assert.Error(t, err)
}

func TestSlice(t *testing.T) {
	setup(t, "int a; int b; read a; if (a > 0) { b := a; } else { b := 0; } write b;")

	out, _, err := run(t, "", "slice", "prog.mc", "--edge", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "=== Slice from e7 (backward) ===")
	assert.Contains(t, out, "e5  q4 -> q6: b := a")
	assert.Contains(t, out, "e5 -data(b)-> e7")

	out, _, err = run(t, "", "slice", "prog.mc", "-e", "2", "--forward", "--var", "b", "-j")
	require.NoError(t, err)
	var s struct {
		Direction string `json:"direction"`
		Variable  string `json:"variable"`
		Edges     []int  `json:"slice_edges"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, "forward", s.Direction)
	assert.Equal(t, "b", s.Variable)
	assert.Equal(t, []int{2}, s.Edges)

	_, _, err = run(t, "", "slice", "prog.mc")
	assert.ErrorContains(t, err, "edge must be between 0 and 7")
}

func TestAnalyze_Directory(t *testing.T) {
	setup(t, branchProgram)
	files := map[string]string{
		"progs/a.mc":       branchProgram,
		"progs/sub/b.mc":   "int x; read x; write x;",
		"progs/skip.mc":    "int a; a := b;",
		"progs/.mcaignore": "skip.mc\n",
	}
	for path, src := range files {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	}

	out, _, err := run(t, "", "analyze", "-w", "2", "progs")
	require.NoError(t, err)
	assert.Contains(t, out, "--- a.mc ---")
	assert.Contains(t, out, "--- sub/b.mc ---")
	assert.NotContains(t, out, "skip.mc")
	assert.Contains(t, out, "2 files analysed, 0 failed")

	out, _, err = run(t, "", "analyze", "-j", "progs")
	require.NoError(t, err)
	var results []struct {
		Path   string         `json:"path"`
		Report *report.Report `json:"report"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "a.mc", results[0].Path)
	assert.Equal(t, "sign-detection", results[0].Report.Analysis)

	require.NoError(t, os.MkdirAll("empty/sub", 0755))
	require.NoError(t, os.WriteFile("empty/notes.txt", []byte("x"), 0644))
	out, _, err = run(t, "", "analyze", "empty")
	require.NoError(t, err)
	assert.Equal(t, "\n0 files analysed, 0 failed\n", out)
	out, _, err = run(t, "", "analyze", "-j", "empty")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)

	require.NoError(t, os.Remove("progs/.mcaignore"))
	out, _, err = run(t, "", "analyze", "progs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 files failed")
	assert.Contains(t, out, "--- skip.mc ---\nerror:")
}

func TestDoctor(t *testing.T) {
	setup(t, branchProgram)

	out, _, err := run(t, "", "doctor")
	require.NoError(t, err)
	assert.Contains(t, out, "Using config: defaults")
	assert.Contains(t, out, "Status: - disabled")
	assert.Contains(t, out, "Solver: worklist-round-robin")
	assert.Contains(t, out, "Status: ✓ ready")

	cfg := config.DefaultConfig()
	cfg.CacheEnabled = true
	cfg.CachePath = "reports.msgpack"
	require.NoError(t, cfg.Save(config.ProjectConfigPath()))
	require.NoError(t, os.WriteFile("reports.msgpack", []byte("garbage"), 0644))

	out, _, err = run(t, "", "doctor")
	require.Error(t, err)
	assert.Contains(t, out, "Using config: .mca/config.yaml (project)")
	assert.Contains(t, out, "Status: ✗ error")
}
