// Package commands provides the CLI commands for the microC analyzer.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/l3aro/microc-analysis/internal/config"
	"github.com/l3aro/microc-analysis/internal/log"
	"github.com/l3aro/microc-analysis/pkg/cache"
)

// NewRootCmd builds the mca command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mca",
		Short: "mca - data-flow analysis for microC programs",
		Long: `mca lowers microC programs to program graphs and solves data-flow
analyses over them.

Commands:
  analyze     Solve reaching definitions, live variables or sign detection
  graph       Print the program graph, its statistics or Graphviz DOT
  compare     Run every solver on one analysis and compare the fixpoints
  slice       Backward or forward slice over the program dependence graph
  cache       Inspect or clear the report cache
  init        Create a configuration file interactively
  doctor      Check the configuration, the cache and the analysis pipeline

Use "mca [command] --help" for more information about a command.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "Config file path (default: project then global config)")
	root.PersistentFlags().Bool("verbose", false, "Verbose logging")
	root.PersistentFlags().Bool("log-json", false, "Log as JSON lines")

	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newGraphCmd())
	root.AddCommand(newCompareCmd())
	root.AddCommand(newSliceCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newDoctorCmd())
	return root
}

// Execute runs the CLI.
func Execute(version string) error {
	root := NewRootCmd()
	root.Version = version
	root.SetVersionTemplate(`mca version {{.Version}}
`)
	return root.Execute()
}

// loadConfig reads --config when given, the layered configuration otherwise.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose, _ = cmd.Flags().GetBool("verbose")
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) log.Logger {
	level := log.WarnLevel
	if cfg.Verbose {
		level = log.DebugLevel
	}
	jsonOutput, _ := cmd.Flags().GetBool("log-json")
	return log.New(log.LoggerConfig{Level: level, JSONOutput: jsonOutput, Output: cmd.ErrOrStderr()})
}

// openCache returns the configured report store, or nil when caching is off.
func openCache(cfg *config.Config, logger log.Logger) *cache.ReportStore {
	if !cfg.CacheEnabled {
		return nil
	}
	store := cache.NewReportStore(cfg.CachePath, cfg.CacheSize)
	if err := store.Restore(); err != nil {
		logger.Warn("ignoring unreadable report cache", "path", cfg.CachePath, "error", err)
		store.Clear()
	}
	return store
}

// readSource reads a program from a file, or from stdin when path is "-".
func readSource(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("path is a directory, expected a file: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
