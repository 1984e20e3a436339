package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/gophersatwork/jsonmin"
	"github.com/gophersatwork/jsonmin/internal/config"
	"github.com/gophersatwork/jsonmin/internal/logging"
	"github.com/spf13/cobra"
)

var errNotDurable = errors.New("cache.type is not filesystem; there is no cache to maintain")

func newCacheCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the output cache",
	}

	cmd.AddCommand(newCacheStatsCmd(flags))
	cmd.AddCommand(newCachePruneCmd(flags))
	cmd.AddCommand(newCacheClearCmd(flags))

	return cmd
}

func openCache(flags *globalFlags) (*jsonmin.Cache, error) {
	cfg, err := flags.load()
	if err != nil {
		return nil, err
	}
	if cfg.Cache.Type != config.CacheFilesystem {
		return nil, errNotDurable
	}
	return cfg.OpenCache(logging.GetLogger("cache"))
}

func newCacheStatsCmd(flags *globalFlags) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache(flags)
			if err != nil {
				return err
			}
			defer cache.Close()

			stats, err := cache.Stats()
			if err != nil {
				return fmt.Errorf("failed to read cache stats: %w", err)
			}
			p := newPrinter(cmd.OutOrStdout())
			p.CacheStats(cache.Root(), stats)

			if list {
				entries, err := cache.Entries()
				if err != nil {
					return fmt.Errorf("failed to list cache entries: %w", err)
				}
				p.CacheEntries(entries)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "list every entry")
	return cmd
}

func newCachePruneCmd(flags *globalFlags) *cobra.Command {
	var (
		olderThan time.Duration
		unused    bool
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove old cache entries",
		Long: `Remove entries created more than --older-than ago, or with --unused,
entries not read for that long.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive, got %s", olderThan)
			}
			cache, err := openCache(flags)
			if err != nil {
				return err
			}
			defer cache.Close()

			var removed int
			if unused {
				removed, err = cache.PruneUnused(olderThan)
			} else {
				removed, err = cache.Prune(olderThan)
			}
			if err != nil {
				return fmt.Errorf("failed to prune cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries\n", removed)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 7*24*time.Hour, "age threshold")
	cmd.Flags().BoolVar(&unused, "unused", false, "prune by last access instead of creation")
	return cmd
}

func newCacheClearCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cache entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache(flags)
			if err != nil {
				return err
			}
			defer cache.Close()

			if err := cache.Clear(); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")
			return nil
		},
	}
}
