package scanner

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for path, content := range files {
		full := filepath.Join(root, path)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
	}
	return root
}

func paths(files []FileInfo) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func TestScannerScan(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.mc":              "int x; x := 1;",
		"lib/util.microc":      "int y;",
		"lib/UPPER.MC":         "int z;",
		"README.md":            "# Test",
		"notes.txt":            "x",
		".hidden/secret.mc":    "int h;",
		"node_modules/dep.mc":  "int d;",
		".git/objects/blob.mc": "int g;",
		"build/generated.mc":   "int b;",
	})

	files, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	want := []string{"lib/UPPER.MC", "lib/util.microc", "main.mc"}
	if got := paths(files); !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() = %v, want %v", got, want)
	}
	for _, f := range files {
		if !filepath.IsAbs(f.FullPath) {
			t.Errorf("FullPath %q is not absolute", f.FullPath)
		}
		if f.Size == 0 {
			t.Errorf("Size of %s is 0", f.Path)
		}
	}
}

func TestScannerWithIgnoreFile(t *testing.T) {
	root := writeTree(t, map[string]string{
		".mcaignore":        "# scratch files\n*.tmp.mc\nold/\n/top.mc\n",
		"top.mc":            "int a;",
		"keep.mc":           "int a;",
		"draft.tmp.mc":      "int a;",
		"old/legacy.mc":     "int a;",
		"src/top.mc":        "int a;",
		"src/old/legacy.mc": "int a;",
		"src/.mcaignore":    "gen/*.mc\n!gen/keep.mc\n",
		"src/gen/a.mc":      "int a;",
		"src/gen/keep.mc":   "int a;",
		"other/gen/a.mc":    "int a;",
		"src/deep/x.tmp.mc": "int a;",
	})

	files, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	want := []string{"keep.mc", "other/gen/a.mc", "src/gen/keep.mc", "src/top.mc"}
	if got := paths(files); !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() = %v, want %v", got, want)
	}
}

func TestScannerKeepHidden(t *testing.T) {
	root := writeTree(t, map[string]string{
		".hidden/a.mc": "int a;",
		"b.mc":         "int b;",
	})

	opts := DefaultOptions()
	opts.SkipHidden = false
	files, err := New(opts).Scan(root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	want := []string{".hidden/a.mc", "b.mc"}
	if got := paths(files); !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() = %v, want %v", got, want)
	}
}

func TestScannerSymlinks(t *testing.T) {
	root := writeTree(t, map[string]string{"real.mc": "int a;"})
	outside := writeTree(t, map[string]string{"far.mc": "int b;"})
	if err := os.Symlink(filepath.Join(root, "real.mc"), filepath.Join(root, "link.mc")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(filepath.Join(outside, "far.mc"), filepath.Join(root, "escape.mc")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	files, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if got := paths(files); !reflect.DeepEqual(got, []string{"real.mc"}) {
		t.Errorf("Scan() without following = %v", got)
	}

	opts := DefaultOptions()
	opts.FollowSymlinks = true
	files, err = New(opts).Scan(root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if got := paths(files); !reflect.DeepEqual(got, []string{"link.mc", "real.mc"}) {
		t.Errorf("Scan() following = %v", got)
	}
}

func TestScanNotADirectory(t *testing.T) {
	root := writeTree(t, map[string]string{"a.mc": "int a;"})
	if _, err := Scan(filepath.Join(root, "a.mc")); err == nil {
		t.Error("expected an error for a file root")
	}
	if _, err := Scan(filepath.Join(root, "missing")); err == nil {
		t.Error("expected an error for a missing root")
	}
}

func TestIsSource(t *testing.T) {
	s := New(DefaultOptions())
	tests := []struct {
		name string
		want bool
	}{
		{"prog.mc", true},
		{"prog.MC", true},
		{"prog.microc", true},
		{"prog.c", false},
		{"mc", false},
		{"prog.mc.bak", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.IsSource(tt.name); got != tt.want {
				t.Errorf("IsSource(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestPatternMatch(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		isDir   bool
		want    bool
	}{
		{"*.mc", "a.mc", false, true},
		{"*.mc", "dir/a.mc", false, true},
		{"*.mc", "a.c", false, false},
		{"/top.mc", "top.mc", false, true},
		{"/top.mc", "dir/top.mc", false, false},
		{"gen/", "gen", true, true},
		{"gen/", "src/gen", true, true},
		{"gen/", "gen", false, false},
		{"src/*.mc", "src/a.mc", false, true},
		{"src/*.mc", "x/src/a.mc", false, false},
		{"**/fixtures/*.mc", "a/b/fixtures/c.mc", false, true},
		{"**/fixtures/*.mc", "fixtures/c.mc", false, true},
		{"docs/**", "docs/a/b.mc", false, true},
		{"test?.mc", "test1.mc", false, true},
		{"test[0-9].mc", "testx.mc", false, false},
		{"!keep.mc", "keep.mc", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"_"+tt.path, func(t *testing.T) {
			p := ParsePattern(tt.pattern)
			if got := p.Match(tt.path, tt.isDir); got != tt.want {
				t.Errorf("ParsePattern(%q).Match(%q, %v) = %v, want %v", tt.pattern, tt.path, tt.isDir, got, tt.want)
			}
		})
	}
}

func TestRuleSetNegation(t *testing.T) {
	rules := ruleSet{ParsePattern("*.mc"), ParsePattern("!keep.mc")}
	if !rules.ignored("drop.mc", false) {
		t.Error("drop.mc should be ignored")
	}
	if rules.ignored("keep.mc", false) {
		t.Error("keep.mc should be re-included")
	}
	if !ParsePattern("!keep.mc").Negated() {
		t.Error("Negated() = false")
	}
}
