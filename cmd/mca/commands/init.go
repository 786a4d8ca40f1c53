package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/l3aro/microc-analysis/internal/config"
	"github.com/l3aro/microc-analysis/pkg/analyze"
	"github.com/l3aro/microc-analysis/pkg/report"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize mca configuration interactively",
		Long: `Guides you through choosing the default analysis, solver, output format
and report cache, then saves them to a project or global config file.`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}
	cmd.Flags().Bool("global", false, "Save to ~/.mca/config.yaml")
	cmd.Flags().BoolP("yes", "y", false, "Skip the prompts and save the defaults")
	return cmd
}

// initChoices are the answers collected by the init form.
type initChoices struct {
	Analysis     string
	Solver       string
	Format       string
	CacheEnabled bool
	CacheSize    string
	Location     string
}

func defaultChoices(global bool) initChoices {
	d := config.DefaultConfig()
	c := initChoices{
		Analysis:     d.Analysis,
		Solver:       d.Solver,
		Format:       d.Format,
		CacheEnabled: d.CacheEnabled,
		CacheSize:    strconv.Itoa(d.CacheSize),
		Location:     "project",
	}
	if global {
		c.Location = "global"
	}
	return c
}

func runInit(cmd *cobra.Command, args []string) error {
	global, _ := cmd.Flags().GetBool("global")
	skip, _ := cmd.Flags().GetBool("yes")
	choices := defaultChoices(global)

	if !skip {
		if err := askChoices(&choices); err != nil {
			return err
		}
	}

	cfg, err := choices.config()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	configPath := config.ProjectConfigPath()
	if choices.Location == "global" {
		configPath = config.GlobalConfigPath()
	}

	if _, err := os.Stat(configPath); err == nil && !skip {
		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== Configuration Preview ===")
	fmt.Fprintf(out, "Config path: %s\n", configPath)
	fmt.Fprintf(out, "Analysis: %s\n", cfg.Analysis)
	fmt.Fprintf(out, "Solver: %s\n", cfg.Solver)
	fmt.Fprintf(out, "Format: %s\n", cfg.Format)
	if cfg.CacheEnabled {
		fmt.Fprintf(out, "Cache: %s (%d reports)\n", cfg.CachePath, cfg.CacheSize)
	} else {
		fmt.Fprintln(out, "Cache: disabled")
	}
	fmt.Fprintln(out, "================================")

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Fprintf(out, "Configuration saved to: %s\n", configPath)
	return nil
}

func askChoices(c *initChoices) error {
	analyses := make([]huh.Option[string], 0, len(analyze.Analyses()))
	for _, a := range analyze.Analyses() {
		analyses = append(analyses, huh.NewOption(string(a), string(a)))
	}
	solvers := make([]huh.Option[string], 0, len(analyze.Solvers()))
	for _, s := range analyze.Solvers() {
		solvers = append(solvers, huh.NewOption(s.Label(), string(s)))
	}
	formats := make([]huh.Option[string], 0, len(report.Formats()))
	for _, f := range report.Formats() {
		formats = append(formats, huh.NewOption(string(f), string(f)))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default analysis").
				Options(analyses...).
				Value(&c.Analysis),
			huh.NewSelect[string]().
				Title("Default solver").
				Description("Round-robin visits nodes in reverse postorder").
				Options(solvers...).
				Value(&c.Solver),
			huh.NewSelect[string]().
				Title("Output format").
				Options(formats...).
				Value(&c.Format),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Cache reports?").
				Description("Reuse reports of programs analysed before").
				Value(&c.CacheEnabled),
			huh.NewInput().
				Title("Cache size (reports)").
				Value(&c.CacheSize).
				Validate(func(s string) error {
					if n, err := strconv.Atoi(s); err != nil || n <= 0 {
						return fmt.Errorf("enter a positive number")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Project (./.mca/config.yaml)", "project"),
					huh.NewOption("Global (~/.mca/config.yaml)", "global"),
				).
				Value(&c.Location),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	return nil
}

func (c initChoices) config() (*config.Config, error) {
	size, err := strconv.Atoi(c.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("invalid cache size %q", c.CacheSize)
	}
	cfg := config.DefaultConfig()
	cfg.Analysis = c.Analysis
	cfg.Solver = c.Solver
	cfg.Format = c.Format
	cfg.CacheEnabled = c.CacheEnabled
	cfg.CacheSize = size
	return cfg, nil
}
