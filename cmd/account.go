package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/skovera/desk/internal/output"
	"github.com/skovera/desk/internal/trading"
)

// accountOptions holds dependencies for the account command.
type accountOptions struct {
	trading  *trading.Service
	jsonMode bool
}

func newAccountCmd(opts accountOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Show brokerage account summary",
		Long: `Show the account summary from the selected trading provider.

Examples:
  desk account
  desk account --json
  desk account -p ibkr`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccount(cmd, opts)
		},
	}

	cmd.SilenceUsage = true

	return cmd
}

func runAccount(cmd *cobra.Command, opts accountOptions) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	account, err := opts.trading.Account(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch account: %w", err)
	}

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	if opts.jsonMode {
		return formatter.Print(account)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Account:      %s (%s)\n", account.ID, account.Provider)
	_, _ = fmt.Fprintf(out, "Currency:     %s\n", account.Currency)
	_, _ = fmt.Fprintf(out, "Cash:         %s\n", output.FormatMoney(account.Cash))
	_, _ = fmt.Fprintf(out, "Buying power: %s\n", output.FormatMoney(account.BuyingPower))
	_, _ = fmt.Fprintf(out, "Equity:       %s\n", output.FormatMoney(account.Equity))
	return nil
}

func init() {
	var opts accountOptions

	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Show brokerage account summary",
		Long: `Show the account summary from the selected trading provider.

Examples:
  desk account
  desk account --json
  desk account -p ibkr`,
		Args: cobra.NoArgs,
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
			return runAccount(cmd, opts)
		},
	}

	accountCmd.SilenceUsage = true

	rootCmd.AddCommand(accountCmd)
}
