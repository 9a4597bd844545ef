package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/skovera/desk/internal/output"
	"github.com/skovera/desk/internal/trading"
)

// positionsOptions holds dependencies for the positions command.
type positionsOptions struct {
	trading  *trading.Service
	jsonMode bool
}

func newPositionsCmd(opts positionsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "positions",
		Short: "List open positions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPositions(cmd, opts)
		},
	}

	cmd.SilenceUsage = true

	return cmd
}

func runPositions(cmd *cobra.Command, opts positionsOptions) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	positions, err := opts.trading.Positions(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch positions: %w", err)
	}

	if len(positions) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No positions")
		return nil
	}

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	if opts.jsonMode {
		return formatter.Print(positions)
	}

	headers := []string{"Symbol", "Qty", "Avg Entry", "Price", "Value", "P&L", "P&L %"}
	rows := make([][]string, 0, len(positions))
	for _, p := range positions {
		rows = append(rows, []string{
			p.Symbol,
			output.FormatQuantity(p.Quantity),
			output.FormatMoney(p.AvgEntryPrice),
			output.FormatMoney(p.CurrentPrice),
			output.FormatMoney(p.MarketValue),
			output.FormatGainLoss(p.UnrealizedPnl),
			output.FormatPercent(p.UnrealizedPnlPercent),
		})
	}
	return formatter.Table(headers, rows)
}

func init() {
	var opts positionsOptions

	positionsCmd := &cobra.Command{
		Use:   "positions",
		Short: "List open positions",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			svc, err := tradingService(a, providerFlag)
			if err != nil {
				return err
			}
			opts.trading = svc
			opts.jsonMode = GetJSONMode()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPositions(cmd, opts)
		},
	}

	positionsCmd.SilenceUsage = true

	rootCmd.AddCommand(positionsCmd)
}
