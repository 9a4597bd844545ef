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

// barsOptions holds dependencies for the bars command.
type barsOptions struct {
	market   *market.Service
	interval string
	limit    int
	jsonMode bool
}

func newBarsCmd(opts barsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bars SYMBOL",
		Short: "Get historical price bars",
		Long: `Get historical OHLCV bars for a symbol.

Examples:
  desk bars AAPL                       # Daily bars
  desk bars AAPL --interval 5m         # 5-minute bars
  desk bars AAPL --limit 10 --json     # Last 10 bars as JSON`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBars(cmd, opts, args[0])
		},
	}

	cmd.SilenceUsage = true

	return cmd
}

func runBars(cmd *cobra.Command, opts barsOptions, symbol string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	bars, err := opts.market.Bars(ctx, symbol, domain.BarParams{
		Interval: opts.interval,
		Limit:    opts.limit,
	})
	if err != nil {
		return fmt.Errorf("failed to fetch bars: %w", err)
	}

	if len(bars) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No bars returned")
		return nil
	}

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	if opts.jsonMode {
		return formatter.Print(bars)
	}

	headers := []string{"Time", "Open", "High", "Low", "Close", "Volume"}
	rows := make([][]string, 0, len(bars))
	for _, b := range bars {
		rows = append(rows, []string{
			b.Time.Format("2006-01-02 15:04"),
			output.FormatMoney(b.Open),
			output.FormatMoney(b.High),
			output.FormatMoney(b.Low),
			output.FormatMoney(b.Close),
			output.FormatVolume(b.Volume),
		})
	}
	return formatter.Table(headers, rows)
}

func init() {
	var opts barsOptions
	var interval string
	var limit int

	barsCmd := &cobra.Command{
		Use:   "bars SYMBOL",
		Short: "Get historical price bars",
		Long: `Get historical OHLCV bars for a symbol.

Examples:
  desk bars AAPL                       # Daily bars
  desk bars AAPL --interval 5m         # 5-minute bars
  desk bars AAPL --limit 10 --json     # Last 10 bars as JSON`,
		Args: cobra.ExactArgs(1),
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
			opts.interval = interval
			opts.limit = limit
			opts.jsonMode = GetJSONMode()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBars(cmd, opts, args[0])
		},
	}

	barsCmd.Flags().StringVarP(&interval, "interval", "i", "1d", "Bar interval (1m, 5m, 15m, 1h, 1d, 1w)")
	barsCmd.Flags().IntVarP(&limit, "limit", "n", 30, "Maximum number of bars")
	barsCmd.SilenceUsage = true

	rootCmd.AddCommand(barsCmd)
}
