package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/skovera/desk/internal/market"
	"github.com/skovera/desk/internal/output"
)

// newsOptions holds dependencies for the news command.
type newsOptions struct {
	market   *market.Service
	jsonMode bool
}

func newNewsCmd(opts newsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "news SYMBOL",
		Short: "Show recent news for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNews(cmd, opts, args[0])
		},
	}

	cmd.SilenceUsage = true

	return cmd
}

func runNews(cmd *cobra.Command, opts newsOptions, symbol string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	items, err := opts.market.News(ctx, symbol)
	if err != nil {
		return fmt.Errorf("failed to fetch news: %w", err)
	}

	if len(items) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No news found")
		return nil
	}

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	if opts.jsonMode {
		return formatter.Print(items)
	}

	for _, item := range items {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", item.PublishedAt.Format("2006-01-02 15:04"), item.Headline)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s\n", item.Source, item.URL)
		if item.Summary != "" {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", item.Summary)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}

func init() {
	var opts newsOptions

	newsCmd := &cobra.Command{
		Use:   "news SYMBOL",
		Short: "Show recent news for a symbol",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			svc, err := marketService(a, providerFlag)
			if err != nil {
				return err
			}
			opts.market = svc
			opts.jsonMode = GetJSONMode()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNews(cmd, opts, args[0])
		},
	}

	newsCmd.SilenceUsage = true

	rootCmd.AddCommand(newsCmd)
}
