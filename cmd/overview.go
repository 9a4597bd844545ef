package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/skovera/desk/internal/market"
	"github.com/skovera/desk/internal/output"
)

// overviewOptions holds dependencies for the overview command.
type overviewOptions struct {
	market   *market.Service
	jsonMode bool
}

func newOverviewCmd(opts overviewOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overview SYMBOL",
		Short: "Show company fundamentals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOverview(cmd, opts, args[0])
		},
	}

	cmd.SilenceUsage = true

	return cmd
}

func runOverview(cmd *cobra.Command, opts overviewOptions, symbol string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	overview, err := opts.market.Overview(ctx, symbol)
	if err != nil {
		return fmt.Errorf("failed to fetch overview: %w", err)
	}

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	if opts.jsonMode {
		return formatter.Print(overview)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "%s - %s\n", overview.Symbol, overview.Name)
	if overview.Exchange != "" {
		_, _ = fmt.Fprintf(out, "Exchange:       %s\n", overview.Exchange)
	}
	if overview.Sector != "" {
		_, _ = fmt.Fprintf(out, "Sector:         %s / %s\n", overview.Sector, overview.Industry)
	}
	if overview.MarketCap > 0 {
		_, _ = fmt.Fprintf(out, "Market cap:     %s\n", output.FormatMoney(overview.MarketCap))
	}
	if overview.PERatio > 0 {
		_, _ = fmt.Fprintf(out, "P/E ratio:      %.2f\n", overview.PERatio)
	}
	if overview.EPS != 0 {
		_, _ = fmt.Fprintf(out, "EPS:            %.2f\n", overview.EPS)
	}
	if overview.DividendYield > 0 {
		_, _ = fmt.Fprintf(out, "Dividend yield: %.2f%%\n", overview.DividendYield)
	}
	if overview.High52 > 0 {
		_, _ = fmt.Fprintf(out, "52w range:      %s - %s\n", output.FormatMoney(overview.Low52), output.FormatMoney(overview.High52))
	}
	if overview.Description != "" {
		_, _ = fmt.Fprintf(out, "\n%s\n", overview.Description)
	}
	return nil
}

func init() {
	var opts overviewOptions

	overviewCmd := &cobra.Command{
		Use:   "overview SYMBOL",
		Short: "Show company fundamentals",
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
			return runOverview(cmd, opts, args[0])
		},
	}

	overviewCmd.SilenceUsage = true

	rootCmd.AddCommand(overviewCmd)
}
