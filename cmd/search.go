package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/skovera/desk/internal/market"
	"github.com/skovera/desk/internal/output"
)

// searchOptions holds dependencies for the search command.
type searchOptions struct {
	market   *market.Service
	jsonMode bool
}

func newSearchCmd(opts searchOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search for symbols",
		Long: `Search for symbols by ticker or company name.

Examples:
  desk search apple
  desk search MSFT --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, opts, strings.Join(args, " "))
		},
	}

	cmd.SilenceUsage = true

	return cmd
}

func runSearch(cmd *cobra.Command, opts searchOptions, query string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	matches, err := opts.market.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(matches) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No matches found")
		return nil
	}

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	if opts.jsonMode {
		return formatter.Print(matches)
	}

	headers := []string{"Symbol", "Name", "Type", "Region", "Currency"}
	rows := make([][]string, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, []string{m.Symbol, m.Name, m.Type, m.Region, m.Currency})
	}
	return formatter.Table(headers, rows)
}

func init() {
	var opts searchOptions

	searchCmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search for symbols",
		Long: `Search for symbols by ticker or company name.

Examples:
  desk search apple
  desk search MSFT --json`,
		Args: cobra.MinimumNArgs(1),
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
			return runSearch(cmd, opts, strings.Join(args, " "))
		},
	}

	searchCmd.SilenceUsage = true

	rootCmd.AddCommand(searchCmd)
}
