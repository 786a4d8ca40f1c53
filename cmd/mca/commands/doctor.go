package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/l3aro/microc-analysis/internal/config"
	"github.com/l3aro/microc-analysis/internal/healthcheck"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run health checks on configuration and cache",
		Long: `Checks the configuration in use, verifies that the report cache can be
read and analyses a small probe program with the configured analysis and
solver.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				path = config.EffectivePath()
			}

			result, err := healthcheck.Check(cmd.Context(), cfg, path)
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}

			displayDoctorResult(cmd.OutOrStdout(), result)
			if result.Failed() {
				return fmt.Errorf("health check failed: one or more checks reported an error")
			}
			return nil
		},
	}
}

func displayDoctorResult(w io.Writer, result *healthcheck.HealthCheckResult) {
	if result.EffectivePath == "" {
		fmt.Fprintln(w, "Using config: defaults (run 'mca init' to create a file)")
	} else {
		fmt.Fprintf(w, "Using config: %s (%s)\n", result.EffectivePath, result.EffectiveScope)
	}
	fmt.Fprintf(w, "Output format: %s\n", result.Format)

	fmt.Fprintln(w, "\nReport cache:")
	fmt.Fprintf(w, "  Path: %s\n", result.Cache.Path)
	printStatus(w, result.Cache.Status, result.Cache.Error)
	if result.Cache.Status == healthcheck.StatusReady {
		fmt.Fprintf(w, "  Reports: %d\n", result.Cache.Entries)
	}

	fmt.Fprintln(w, "\nAnalysis pipeline:")
	fmt.Fprintf(w, "  Analysis: %s\n", result.Pipeline.Analysis)
	fmt.Fprintf(w, "  Solver: %s\n", result.Pipeline.Solver)
	printStatus(w, result.Pipeline.Status, result.Pipeline.Error)
	if result.Pipeline.Status == healthcheck.StatusReady {
		fmt.Fprintf(w, "  Probe: %d steps in %s\n", result.Pipeline.Steps, result.Pipeline.Duration)
	}
}

func printStatus(w io.Writer, status, errMsg string) {
	fmt.Fprintf(w, "  Status: %s %s\n", formatStatusIcon(status), status)
	if errMsg != "" && status == healthcheck.StatusError {
		fmt.Fprintf(w, "  Error: %s\n", errMsg)
	}
}

func formatStatusIcon(status string) string {
	switch status {
	case healthcheck.StatusReady, healthcheck.StatusEmpty:
		return "✓"
	case healthcheck.StatusDisabled:
		return "-"
	case healthcheck.StatusError:
		return "✗"
	default:
		return "?"
	}
}
