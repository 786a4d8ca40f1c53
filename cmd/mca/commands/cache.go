package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/microc-analysis/internal/config"
	"github.com/l3aro/microc-analysis/pkg/cache"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the report cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show the number of cached reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := loadStore(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cache path: %s\n", cfg.CachePath)
			fmt.Fprintf(cmd.OutOrStdout(), "Enabled: %t\n", cfg.CacheEnabled)
			fmt.Fprintf(cmd.OutOrStdout(), "Reports: %d (capacity %d)\n", store.Len(), cfg.CacheSize)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := loadStore(cmd)
			if err != nil {
				return err
			}
			n := store.Len()
			store.Clear()
			if err := store.Persist(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d reports from %s\n", n, cfg.CachePath)
			return nil
		},
	})
	return cmd
}

// loadStore opens the configured cache file even when caching is disabled.
func loadStore(cmd *cobra.Command) (*config.Config, *cache.ReportStore, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = config.DefaultConfig().CacheSize
	}
	store := cache.NewReportStore(cfg.CachePath, size)
	if err := store.Restore(); err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}
