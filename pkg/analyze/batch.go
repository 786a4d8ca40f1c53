package analyze

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/l3aro/microc-analysis/internal/scanner"
	"github.com/l3aro/microc-analysis/pkg/report"
)

// FileReport is the outcome of analysing one file of a batch. Exactly one
// of Report and Error is set.
type FileReport struct {
	Path   string         `json:"path" yaml:"path" msgpack:"path"`
	Report *report.Report `json:"report,omitempty" yaml:"report,omitempty" msgpack:"report,omitempty"`
	Error  string         `json:"error,omitempty" yaml:"error,omitempty" msgpack:"error,omitempty"`
}

// Failed reports whether the file could not be analysed.
func (f FileReport) Failed() bool { return f.Error != "" }

// RunDir analyses every microC source found under root. Files that fail to
// read, parse or lower are reported individually and do not stop the batch.
// Results keep the scanner's path order. workers <= 0 uses one per CPU.
func RunDir(ctx context.Context, root string, opts Options, workers int) ([]FileReport, error) {
	files, err := scanner.Scan(root)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	return RunFiles(ctx, files, opts, workers)
}

// RunFiles analyses the given files concurrently.
func RunFiles(ctx context.Context, files []scanner.FileInfo, opts Options, workers int) ([]FileReport, error) {
	logger := opts.logger()
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]FileReport, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = FileReport{Path: f.Path}

			data, err := os.ReadFile(f.FullPath)
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			r, err := Run(ctx, string(data), opts)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("analysis failed", "file", f.Path, "error", err)
				results[i].Error = err.Error()
				return nil
			}
			results[i].Report = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.Debug("batch finished", "files", len(files))
	return results, nil
}
