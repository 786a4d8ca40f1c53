package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/microc-analysis/pkg/analyze"
)

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <file>",
		Short: "Run every solver on one analysis",
		Long: `Solves one analysis with chaotic iteration and every worklist strategy,
printing the number of steps each needed and whether they all reached the
same fixpoint. Exits with an error when the fixpoints differ.`,
		Args: cobra.ExactArgs(1),
		RunE: runCompare,
	}
	cmd.Flags().StringP("analysis", "a", "", "Analysis to run (default from config)")
	cmd.Flags().BoolP("json", "j", false, "Output as JSON")
	return cmd
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("analysis"); v != "" {
		cfg.Analysis = v
	}
	a, err := analyze.ParseAnalysis(cfg.Analysis)
	if err != nil {
		return err
	}

	src, err := readSource(cmd, args[0])
	if err != nil {
		return err
	}
	c, err := analyze.Compare(cmd.Context(), src, a, newLogger(cmd, cfg))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		data, err := json.MarshalIndent(struct {
			*analyze.Comparison
			Agree bool `json:"agree"`
		}{c, c.Agree()}, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		fmt.Fprintf(out, "=== %s ===\n", c.Analysis)
		for _, r := range c.Runs {
			mark := "same fixpoint"
			if !r.Agrees {
				mark = "DIFFERENT fixpoint"
			}
			fmt.Fprintf(out, "  %-22s %6d steps  %s\n", r.Solver, r.Steps, mark)
		}
	}

	if !c.Agree() {
		return fmt.Errorf("solvers disagree on %s", c.Analysis)
	}
	return nil
}
