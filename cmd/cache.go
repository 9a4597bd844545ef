package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skovera/desk/internal/app"
	"github.com/skovera/desk/internal/cache"
	"github.com/skovera/desk/internal/config"
)

// cacheOptions holds dependencies for the cache command.
type cacheOptions struct {
	store cache.Store
}

func newCacheCmd(opts *cacheOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache",
	}

	clearCmd := &cobra.Command{
		Use:   "clear [PATTERN]",
		Short: "Clear cached responses",
		Long: `Clear cached API responses. With a pattern, only entries whose key
contains the pattern are removed.

Examples:
  desk cache clear          # Clear everything
  desk cache clear AAPL     # Clear entries for one symbol`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := ""
			if len(args) == 1 {
				pattern = args[0]
			}
			return runCacheClear(cmd, opts, pattern)
		},
	}

	cmd.AddCommand(clearCmd)
	cmd.SilenceUsage = true
	clearCmd.SilenceUsage = true

	return cmd
}

func runCacheClear(cmd *cobra.Command, opts *cacheOptions, pattern string) error {
	if opts.store == nil {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Caching is disabled; nothing to clear")
		return nil
	}

	keys, err := opts.store.Keys()
	if err != nil {
		return fmt.Errorf("failed to list cache entries: %w", err)
	}

	removed := 0
	for _, k := range keys {
		if pattern != "" && !strings.Contains(k, pattern) {
			continue
		}
		if err := opts.store.Delete(k); err != nil {
			return fmt.Errorf("failed to delete cache entry: %w", err)
		}
		removed++
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cache entries\n", removed)
	return nil
}

func init() {
	opts := &cacheOptions{}

	cacheCmd := newCacheCmd(opts)
	cacheCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.ConfigPath())
		if err != nil {
			return err
		}
		opts.store = app.NewStore(cfg)
		return nil
	}

	rootCmd.AddCommand(cacheCmd)
}
