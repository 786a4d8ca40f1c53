package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/l3aro/microc-analysis/internal/log"
	"github.com/l3aro/microc-analysis/pkg/analyze"
	"github.com/l3aro/microc-analysis/pkg/report"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <file|dir>",
		Short: "Solve a data-flow analysis on a microC program",
		Long: `Builds the program graph of a microC program and solves one analysis
over it, printing the value at every program point. Use "-" to read the
program from stdin. Given a directory, every .mc and .microc file below it
is analysed, honouring .mcaignore files.

Analyses: reaching (rd), live (lv), sign
Solvers:  chaotic, fifo, lifo, roundrobin`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyze,
	}
	cmd.Flags().StringP("analysis", "a", "", "Analysis to run (default from config)")
	cmd.Flags().StringP("solver", "s", "", "Solver to use (default from config)")
	cmd.Flags().StringP("format", "f", "", "Output format: text, json, yaml or msgpack")
	cmd.Flags().BoolP("json", "j", false, "Output as JSON")
	cmd.Flags().StringP("output", "o", "", "Write the report to a file")
	cmd.Flags().Bool("no-cache", false, "Bypass the report cache")
	cmd.Flags().IntP("workers", "w", 0, "Files analysed in parallel for a directory (default: one per CPU)")
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("analysis"); v != "" {
		cfg.Analysis = v
	}
	if v, _ := cmd.Flags().GetString("solver"); v != "" {
		cfg.Solver = v
	}
	if v, _ := cmd.Flags().GetString("format"); v != "" {
		cfg.Format = v
	}
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		cfg.Format = string(report.FormatJSON)
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.CacheEnabled = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cmd, cfg)
	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	opts.Logger = logger
	opts.Cache = openCache(cfg, logger)

	format := report.Format(cfg.Format)
	outputPath, _ := cmd.Flags().GetString("output")

	if isDir(args[0]) {
		workers, _ := cmd.Flags().GetInt("workers")
		results, err := analyze.RunDir(cmd.Context(), args[0], opts, workers)
		if err != nil {
			return err
		}
		persistCache(opts, logger)
		return writeBatch(cmd.OutOrStdout(), outputPath, results, format, logger)
	}

	src, err := readSource(cmd, args[0])
	if err != nil {
		return err
	}

	r, err := analyze.Run(cmd.Context(), src, opts)
	if err != nil {
		return err
	}
	persistCache(opts, logger)

	return writeReport(cmd.OutOrStdout(), outputPath, r, format, logger)
}

func persistCache(opts analyze.Options, logger log.Logger) {
	if opts.Cache == nil {
		return
	}
	if err := opts.Cache.Persist(); err != nil {
		logger.Warn("could not persist report cache", "error", err)
	}
}

func isDir(path string) bool {
	if path == "-" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// writeReport writes to path when given, to out otherwise. Binary output is
// never written to a terminal.
func writeReport(out io.Writer, path string, r *report.Report, format report.Format, logger log.Logger) error {
	if path == "" {
		if format == report.FormatMsgpack && log.IsTerminal(out) {
			return fmt.Errorf("refusing to write msgpack to a terminal, use --output")
		}
		return report.Encode(out, r, format)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := report.Encode(f, r, format); err != nil {
		return err
	}
	logger.Info("report written", "path", path, "format", format)
	return nil
}

// writeBatch writes the reports of a directory run. Text output separates
// files with a header line. It fails when any file failed.
func writeBatch(out io.Writer, path string, results []analyze.FileReport, format report.Format, logger log.Logger) error {
	failed := 0
	for _, fr := range results {
		if fr.Failed() {
			failed++
		}
	}

	w := out
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		defer f.Close()
		w = f
	} else if format == report.FormatMsgpack && log.IsTerminal(out) {
		return fmt.Errorf("refusing to write msgpack to a terminal, use --output")
	}

	if format == report.FormatText {
		for i, fr := range results {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "--- %s ---\n", fr.Path)
			if fr.Failed() {
				fmt.Fprintf(w, "error: %s\n", fr.Error)
				continue
			}
			if err := report.Encode(w, fr.Report, format); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "\n%d files analysed, %d failed\n", len(results), failed)
	} else if err := report.EncodeData(w, results, format); err != nil {
		return err
	}

	if path != "" {
		logger.Info("reports written", "path", path, "files", len(results))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}
