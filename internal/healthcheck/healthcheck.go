package healthcheck

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/l3aro/microc-analysis/internal/config"
	"github.com/l3aro/microc-analysis/pkg/analyze"
	"github.com/l3aro/microc-analysis/pkg/cache"
)

// Status values shared by every check.
const (
	StatusReady    = "ready"
	StatusEmpty    = "empty"
	StatusDisabled = "disabled"
	StatusError    = "error"
)

// probeProgram exercises declarations, a loop and a branch.
const probeProgram = `int x; int y;
read x;
y := 0;
while (x > 0) {
  if (x > 1) { y := y + x; } else { y := y - 1; }
  x := x - 1;
}
write y;`

// CacheStatus describes the report cache file.
type CacheStatus struct {
	Path    string
	Status  string // "ready", "empty", "disabled" or "error"
	Entries int
	Error   string
}

// PipelineStatus is the outcome of analysing a probe program with the
// configured analysis and solver.
type PipelineStatus struct {
	Analysis string
	Solver   string
	Steps    int
	Duration time.Duration
	Status   string // "ready" or "error"
	Error    string
}

// HealthCheckResult contains the full health check output for display.
type HealthCheckResult struct {
	EffectivePath  string
	EffectiveScope string // "global", "project" or "" for defaults
	Format         string
	Cache          CacheStatus
	Pipeline       PipelineStatus
}

// Failed reports whether any check ended in an error.
func (r *HealthCheckResult) Failed() bool {
	return r.Cache.Status == StatusError || r.Pipeline.Status == StatusError
}

// Check performs a health check against the given config. effectivePath is
// the config file actually in use, empty when only defaults apply.
func Check(ctx context.Context, cfg *config.Config, effectivePath string) (*HealthCheckResult, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	return &HealthCheckResult{
		EffectivePath:  effectivePath,
		EffectiveScope: scopeFromPath(effectivePath),
		Format:         cfg.Format,
		Cache:          checkCache(cfg),
		Pipeline:       checkPipeline(ctx, cfg),
	}, nil
}

// scopeFromPath determines "global" or "project" scope from a config file path.
// Returns empty string if path is empty.
func scopeFromPath(path string) string {
	if path == "" {
		return ""
	}

	home, err := os.UserHomeDir()
	if err == nil {
		globalDir := filepath.Join(home, ".mca")
		if strings.HasPrefix(path, globalDir) {
			return "global"
		}
	}

	return "project"
}

func checkCache(cfg *config.Config) CacheStatus {
	status := CacheStatus{Path: cfg.CachePath}
	if !cfg.CacheEnabled {
		status.Status = StatusDisabled
		return status
	}

	store := cache.NewReportStore(cfg.CachePath, cfg.CacheSize)
	if err := store.Restore(); err != nil {
		status.Status = StatusError
		status.Error = err.Error()
		return status
	}
	status.Entries = store.Len()
	if status.Entries == 0 {
		status.Status = StatusEmpty
	} else {
		status.Status = StatusReady
	}
	return status
}

func checkPipeline(ctx context.Context, cfg *config.Config) PipelineStatus {
	status := PipelineStatus{Analysis: cfg.Analysis, Solver: cfg.Solver}

	opts, err := cfg.Options()
	if err != nil {
		status.Status = StatusError
		status.Error = err.Error()
		return status
	}

	start := time.Now()
	r, err := analyze.Run(ctx, probeProgram, opts)
	status.Duration = time.Since(start)
	if err != nil {
		status.Status = StatusError
		status.Error = err.Error()
		return status
	}

	status.Analysis = r.Analysis
	status.Solver = r.Solver
	status.Steps = r.Steps
	status.Status = StatusReady
	return status
}
