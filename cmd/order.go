package cmd

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/skovera/desk/internal/domain"
	"github.com/skovera/desk/internal/output"
	"github.com/skovera/desk/internal/trading"
)

// orderOptions holds dependencies for the order command tree.
type orderOptions struct {
	trading  *trading.Service
	jsonMode bool
}

// orderFlags are the shared submission flags for buy and sell.
type orderFlags struct {
	orderType  string
	limitPrice float64
	stopPrice  float64
	tif        string
	yes        bool
}

// newOrderCmd creates the order command and its subcommands.
func newOrderCmd(opts *orderOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Submit and manage orders",
		Long: `Submit, list, and cancel orders with the selected trading provider.

Examples:
  desk order buy AAPL 10                      # Market buy 10 shares (prompts)
  desk order buy AAPL 10 --yes                # Skip the confirmation prompt
  desk order buy AAPL 10 --type limit --limit-price 150.00
  desk order sell AAPL 5 --tif gtc
  desk order list
  desk order status ORDER_ID
  desk order cancel ORDER_ID`,
	}

	cmd.AddCommand(newOrderSubmitCmd(opts, domain.Buy))
	cmd.AddCommand(newOrderSubmitCmd(opts, domain.Sell))
	cmd.AddCommand(newOrderListCmd(opts))
	cmd.AddCommand(newOrderStatusCmd(opts))
	cmd.AddCommand(newOrderCancelCmd(opts))

	cmd.SilenceUsage = true

	return cmd
}

func newOrderSubmitCmd(opts *orderOptions, side domain.Side) *cobra.Command {
	var flags orderFlags

	cmd := &cobra.Command{
		Use:   string(side) + " SYMBOL QUANTITY",
		Short: "Submit a " + string(side) + " order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			req := domain.OrderRequest{
				Symbol:        args[0],
				Side:          side,
				Type:          domain.OrderType(flags.orderType),
				Quantity:      quantity,
				TimeInForce:   domain.TimeInForce(flags.tif),
				LimitPrice:    flags.limitPrice,
				StopPrice:     flags.stopPrice,
				ClientOrderID: uuid.NewString(),
			}
			return runOrderSubmit(cmd, opts, req, flags.yes)
		},
	}

	cmd.Flags().StringVarP(&flags.orderType, "type", "t", "market", "Order type (market, limit, stop, stop_limit)")
	cmd.Flags().Float64Var(&flags.limitPrice, "limit-price", 0, "Limit price (required for limit orders)")
	cmd.Flags().Float64Var(&flags.stopPrice, "stop-price", 0, "Stop price (required for stop orders)")
	cmd.Flags().StringVar(&flags.tif, "tif", "day", "Time in force (day, gtc, ioc, fok)")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "Submit without confirmation")
	cmd.SilenceUsage = true

	return cmd
}

func runOrderSubmit(cmd *cobra.Command, opts *orderOptions, req domain.OrderRequest, yes bool) error {
	if !yes {
		confirmed, err := confirmOrder(cmd, req)
		if err != nil {
			return err
		}
		if !confirmed {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Order not submitted.")
			return nil
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	order, err := opts.trading.CreateOrder(ctx, req)
	if err != nil {
		return fmt.Errorf("order failed: %w", err)
	}

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	if opts.jsonMode {
		return formatter.Print(order)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Order %s: %s %s %s @ %s (%s)\n",
		order.ID,
		order.Side,
		output.FormatQuantity(order.Quantity),
		order.Symbol,
		orderPriceLabel(order),
		order.Status,
	)
	return nil
}

func orderPriceLabel(order domain.Order) string {
	switch order.Type {
	case domain.Limit, domain.StopLimit:
		return output.FormatMoney(order.LimitPrice)
	case domain.Stop:
		return output.FormatMoney(order.StopPrice)
	}
	return "market"
}

// confirmOrder previews the order and prompts for confirmation.
func confirmOrder(cmd *cobra.Command, req domain.OrderRequest) (bool, error) {
	req = req.Normalize()

	price := "market"
	switch req.Type {
	case domain.Limit, domain.StopLimit:
		price = output.FormatMoney(req.LimitPrice)
	case domain.Stop:
		price = output.FormatMoney(req.StopPrice)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "%s %s %s @ %s (%s, %s)\n",
		strings.ToUpper(string(req.Side)),
		output.FormatQuantity(req.Quantity),
		req.Symbol,
		price,
		req.Type,
		req.TimeInForce,
	)
	_, _ = fmt.Fprint(out, "Submit? [y/N]: ")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return false, err
		}
		return false, nil
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes", nil
}

func newOrderListCmd(opts *orderOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrderList(cmd, opts)
		},
	}

	cmd.SilenceUsage = true

	return cmd
}

func runOrderList(cmd *cobra.Command, opts *orderOptions) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	orders, err := opts.trading.Orders(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch orders: %w", err)
	}

	if len(orders) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No orders")
		return nil
	}

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	if opts.jsonMode {
		return formatter.Print(orders)
	}

	headers := []string{"ID", "Symbol", "Side", "Type", "Qty", "Filled", "Status"}
	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []string{
			o.ID,
			o.Symbol,
			string(o.Side),
			string(o.Type),
			output.FormatQuantity(o.Quantity),
			output.FormatQuantity(o.FilledQuantity),
			string(o.Status),
		})
	}
	return formatter.Table(headers, rows)
}

func newOrderStatusCmd(opts *orderOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status ORDER_ID",
		Short: "Show the status of one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrderStatus(cmd, opts, args[0])
		},
	}

	cmd.SilenceUsage = true

	return cmd
}

func runOrderStatus(cmd *cobra.Command, opts *orderOptions, orderID string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	orders, err := opts.trading.Orders(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch orders: %w", err)
	}

	for _, o := range orders {
		if o.ID != orderID {
			continue
		}
		formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
		if opts.jsonMode {
			return formatter.Print(o)
		}
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "Order:    %s (%s)\n", o.ID, o.Provider)
		_, _ = fmt.Fprintf(out, "Symbol:   %s\n", o.Symbol)
		_, _ = fmt.Fprintf(out, "Side:     %s\n", o.Side)
		_, _ = fmt.Fprintf(out, "Type:     %s @ %s\n", o.Type, orderPriceLabel(o))
		_, _ = fmt.Fprintf(out, "Quantity: %s (filled %s)\n",
			output.FormatQuantity(o.Quantity), output.FormatQuantity(o.FilledQuantity))
		_, _ = fmt.Fprintf(out, "Status:   %s\n", o.Status)
		_, _ = fmt.Fprintf(out, "Created:  %s\n", o.CreatedAt.Format(time.RFC3339))
		return nil
	}

	return fmt.Errorf("order %q not found", orderID)
}

func newOrderCancelCmd(opts *orderOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel ORDER_ID",
		Short: "Cancel an open order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrderCancel(cmd, opts, args[0])
		},
	}

	cmd.SilenceUsage = true

	return cmd
}

func runOrderCancel(cmd *cobra.Command, opts *orderOptions, orderID string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	if err := opts.trading.CancelOrder(ctx, orderID); err != nil {
		return fmt.Errorf("cancel failed: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Order %s canceled\n", orderID)
	return nil
}

func init() {
	opts := &orderOptions{}

	wire := func(cmd *cobra.Command, args []string) error {
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
	}

	orderCmd := newOrderCmd(opts)
	orderCmd.PersistentPreRunE = wire
	rootCmd.AddCommand(orderCmd)

	// Shortcut for `order list`.
	ordersCmd := &cobra.Command{
		Use:     "orders",
		Short:   "List orders",
		Args:    cobra.NoArgs,
		PreRunE: wire,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrderList(cmd, opts)
		},
	}
	ordersCmd.SilenceUsage = true
	rootCmd.AddCommand(ordersCmd)
}
