package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quantfocus/semsim/pkg/cache"
	"github.com/quantfocus/semsim/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the grid cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	cfg := config.Cache{Backend: "file"}

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached grids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			gridCache, err := newCache(ctx, cfg)
			if err != nil {
				return err
			}
			defer gridCache.Close()

			clearer, ok := gridCache.(cache.Clearer)
			if _, null := gridCache.(*cache.NullCache); null || !ok {
				printWarning(c.out, "%s cache unavailable, nothing cleared", cfg.Backend)
				return nil
			}
			if err := clearer.Clear(ctx); err != nil {
				return fmt.Errorf("clear %s cache: %w", cfg.Backend, err)
			}

			printSuccess(c.out, "Cleared %s cache", cfg.Backend)
			if fc, ok := gridCache.(*cache.FileCache); ok {
				printDetail(c.out, "Directory: %s", fc.Dir())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.Backend, "backend", cfg.Backend, "cache backend: file, redis")
	cmd.Flags().StringVar(&cfg.Dir, "dir", "", "file cache directory (default: XDG cache dir)")
	cmd.Flags().StringVar(&cfg.RedisAddr, "redis-addr", "localhost:6379", "redis address")
	cmd.Flags().IntVar(&cfg.RedisDB, "redis-db", 0, "redis database")
	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the file cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(c.out, dir)
			return nil
		},
	}
}
