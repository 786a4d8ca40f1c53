package healthcheck

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/l3aro/microc-analysis/internal/config"
	"github.com/l3aro/microc-analysis/pkg/analyze"
	"github.com/l3aro/microc-analysis/pkg/cache"
)

func TestCheckWithNilConfig(t *testing.T) {
	_, err := Check(context.Background(), nil, "")
	if err == nil {
		t.Error("Expected error for nil config, got nil")
	}
}

func TestCheckDefaults(t *testing.T) {
	cfg := config.DefaultConfig()

	result, err := Check(context.Background(), cfg, "")
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}

	if result.Failed() {
		t.Errorf("Failed() = true, result = %+v", result)
	}
	if result.EffectiveScope != "" {
		t.Errorf("EffectiveScope = %q, want empty", result.EffectiveScope)
	}
	if result.Cache.Status != StatusDisabled {
		t.Errorf("Cache.Status = %q, want %q", result.Cache.Status, StatusDisabled)
	}
	if result.Pipeline.Status != StatusReady {
		t.Errorf("Pipeline.Status = %q, want %q (%s)", result.Pipeline.Status, StatusReady, result.Pipeline.Error)
	}
	if result.Pipeline.Analysis != "sign-detection" {
		t.Errorf("Pipeline.Analysis = %q", result.Pipeline.Analysis)
	}
	if result.Pipeline.Solver != "worklist-round-robin" {
		t.Errorf("Pipeline.Solver = %q", result.Pipeline.Solver)
	}
	if result.Pipeline.Steps == 0 {
		t.Error("Pipeline.Steps = 0")
	}
}

func TestCheckInvalidAnalysis(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Analysis = "taint"

	result, err := Check(context.Background(), cfg, "")
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if result.Pipeline.Status != StatusError {
		t.Errorf("Pipeline.Status = %q, want %q", result.Pipeline.Status, StatusError)
	}
	if !result.Failed() {
		t.Error("Failed() = false")
	}
}

func TestCheckCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reports.msgpack")

	cfg := config.DefaultConfig()
	cfg.CacheEnabled = true
	cfg.CachePath = path

	result, err := Check(context.Background(), cfg, "")
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if result.Cache.Status != StatusEmpty {
		t.Errorf("missing file: Cache.Status = %q, want %q", result.Cache.Status, StatusEmpty)
	}

	store := cache.NewReportStore(path, 4)
	opts := analyze.Options{Analysis: analyze.LiveVariables, Solver: analyze.FIFO, Cache: store}
	if _, err := analyze.Run(context.Background(), "int a; read a; write a;", opts); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if err := store.Persist(); err != nil {
		t.Fatalf("Persist() failed: %v", err)
	}

	result, _ = Check(context.Background(), cfg, "")
	if result.Cache.Status != StatusReady || result.Cache.Entries != 1 {
		t.Errorf("Cache = %+v, want ready with 1 entry", result.Cache)
	}

	if err := os.WriteFile(path, []byte("not msgpack"), 0644); err != nil {
		t.Fatal(err)
	}
	result, _ = Check(context.Background(), cfg, "")
	if result.Cache.Status != StatusError || result.Cache.Error == "" {
		t.Errorf("corrupt file: Cache = %+v, want error", result.Cache)
	}
	if !result.Failed() {
		t.Error("Failed() = false for a corrupt cache")
	}
}

func TestScopeFromPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		path string
		want string
	}{
		{"", ""},
		{filepath.Join(home, ".mca", "config.yaml"), "global"},
		{filepath.Join(".mca", "config.yaml"), "project"},
	}
	for _, tt := range tests {
		if got := scopeFromPath(tt.path); got != tt.want {
			t.Errorf("scopeFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
