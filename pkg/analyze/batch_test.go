package analyze

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/microc-analysis/pkg/cache"
)

func writeSources(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, src := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	}
	return root
}

func TestRunDir(t *testing.T) {
	root := writeSources(t, map[string]string{
		"branch.mc":      branchProgram,
		"nested/loop.mc": loopProgram,
		"broken.mc":      "int a; a := b;",
		"readme.txt":     "not a program",
	})

	results, err := RunDir(context.Background(), root, Options{Analysis: SignDetection, Solver: FIFO}, 2)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "branch.mc", results[0].Path)
	assert.Equal(t, "broken.mc", results[1].Path)
	assert.Equal(t, "nested/loop.mc", results[2].Path)

	assert.False(t, results[0].Failed())
	got, ok := results[0].Report.Lookup(3, "a")
	require.True(t, ok)
	assert.Equal(t, "{+}", got)

	assert.True(t, results[1].Failed())
	assert.Nil(t, results[1].Report)
	assert.Contains(t, results[1].Error, "undeclared")

	assert.False(t, results[2].Failed())
	assert.Equal(t, "worklist-fifo", results[2].Report.Solver)
}

func TestRunDir_SharedCache(t *testing.T) {
	root := writeSources(t, map[string]string{
		"a.mc": branchProgram,
		"b.mc": branchProgram,
		"c.mc": loopProgram,
	})
	store := cache.NewReportStore("", 8)

	results, err := RunDir(context.Background(), root, Options{Analysis: LiveVariables, Solver: Chaotic, Cache: store}, 0)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.False(t, r.Failed(), r.Path)
	}
	// identical sources share one entry
	assert.Equal(t, 2, store.Len())
}

func TestRunDir_Errors(t *testing.T) {
	_, err := RunDir(context.Background(), filepath.Join(t.TempDir(), "missing"), Options{Analysis: SignDetection, Solver: FIFO}, 1)
	assert.Error(t, err)

	root := writeSources(t, map[string]string{"a.mc": branchProgram})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = RunDir(ctx, root, Options{Analysis: SignDetection, Solver: FIFO}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunDir_Empty(t *testing.T) {
	results, err := RunDir(context.Background(), t.TempDir(), Options{Analysis: SignDetection, Solver: FIFO}, 1)
	require.NoError(t, err)
	assert.Empty(t, results)
}
