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

// moversOptions holds dependencies for the movers command.
type moversOptions struct {
	market   *market.Service
	jsonMode bool
}

func newMoversCmd(opts moversOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "movers [gainers|losers|actives]",
		Short:     "Show market movers",
		Long:      `Show the day's top gainers, losers, or most active symbols. Defaults to gainers.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"gainers", "losers", "actives"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := domain.MoverGainers
			if len(args) == 1 {
				kind = domain.MoverKind(args[0])
			}
			return runMovers(cmd, opts, kind)
		},
	}

	cmd.SilenceUsage = true

	return cmd
}

func runMovers(cmd *cobra.Command, opts moversOptions, kind domain.MoverKind) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	movers, err := opts.market.Movers(ctx, kind)
	if err != nil {
		return fmt.Errorf("failed to fetch movers: %w", err)
	}

	if len(movers) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No movers returned")
		return nil
	}

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	if opts.jsonMode {
		return formatter.Print(movers)
	}

	headers := []string{"Symbol", "Price", "Change", "Change %", "Volume"}
	rows := make([][]string, 0, len(movers))
	for _, m := range movers {
		rows = append(rows, []string{
			m.Symbol,
			output.FormatMoney(m.Price),
			output.FormatGainLoss(m.Change),
			output.FormatPercent(m.ChangePercent),
			output.FormatVolume(m.Volume),
		})
	}
	return formatter.Table(headers, rows)
}

func init() {
	var opts moversOptions

	moversCmd := &cobra.Command{
		Use:       "movers [gainers|losers|actives]",
		Short:     "Show market movers",
		Long:      `Show the day's top gainers, losers, or most active symbols. Defaults to gainers.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"gainers", "losers", "actives"},
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
			kind := domain.MoverGainers
			if len(args) == 1 {
				kind = domain.MoverKind(args[0])
			}
			return runMovers(cmd, opts, kind)
		},
	}

	moversCmd.SilenceUsage = true

	rootCmd.AddCommand(moversCmd)
}
