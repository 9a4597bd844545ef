package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/skovera/desk/internal/domain"
	"github.com/skovera/desk/internal/market"
	"github.com/skovera/desk/internal/output"
)

// quoteOptions holds dependencies for the quote command.
type quoteOptions struct {
	market   *market.Service
	jsonMode bool
}

// newQuoteCmd creates the quote command with the given options.
func newQuoteCmd(opts quoteOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote SYMBOL [SYMBOL...]",
		Short: "Get stock quotes",
		Long: `Get current quotes for one or more stock symbols.

Examples:
  desk quote AAPL                  # Get quote for Apple
  desk quote AAPL GOOGL MSFT      # Get quotes for multiple symbols
  desk quote AAPL --json          # Output in JSON format
  desk quote AAPL -p finnhub      # Force a specific provider`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuote(cmd, opts, args)
		},
	}

	cmd.SilenceUsage = true

	return cmd
}

func runQuote(cmd *cobra.Command, opts quoteOptions, symbols []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	quotes := make([]domain.Quote, 0, len(symbols))
	for _, sym := range symbols {
		quote, err := opts.market.Quote(ctx, sym)
		if err != nil {
			return fmt.Errorf("failed to fetch quote for %s: %w", sym, err)
		}
		quotes = append(quotes, quote)
	}

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	if opts.jsonMode {
		return formatter.Print(quotes)
	}

	headers := []string{"Symbol", "Price", "Change", "Change %", "Volume", "Provider"}
	rows := make([][]string, 0, len(quotes))
	for _, q := range quotes {
		rows = append(rows, []string{
			q.Symbol,
			output.FormatMoney(q.Price),
			output.FormatGainLoss(q.Change),
			output.FormatPercent(q.ChangePercent),
			output.FormatVolume(q.Volume),
			q.Provider,
		})
	}
	return formatter.Table(headers, rows)
}

func init() {
	var opts quoteOptions

	quoteCmd := &cobra.Command{
		Use:   "quote SYMBOL [SYMBOL...]",
		Short: "Get stock quotes",
		Long: `Get current quotes for one or more stock symbols.

Examples:
  desk quote AAPL                  # Get quote for Apple
  desk quote AAPL GOOGL MSFT      # Get quotes for multiple symbols
  desk quote AAPL --json          # Output in JSON format
  desk quote AAPL -p finnhub      # Force a specific provider`,
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
			return runQuote(cmd, opts, args)
		},
	}

	quoteCmd.SilenceUsage = true

	rootCmd.AddCommand(quoteCmd)
}
