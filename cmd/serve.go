package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/skovera/desk/internal/app"
	"github.com/skovera/desk/internal/server"
)

func init() {
	var addr string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve market data and trading over HTTP for dashboards and scripts.

Examples:
  desk serve                     # Listen on :8420
  desk serve --addr :9000
  desk serve --mock              # Serve simulated data only`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := "info"
			if verboseFlag {
				level = "debug"
			}
			a, err := app.New(app.Options{
				LogLevel:  level,
				LogJSON:   true,
				ForceMock: mockFlag,
			})
			if err != nil {
				return err
			}

			srv := server.New(server.Options{
				Market:   a.Market,
				Trading:  a.Trading,
				Registry: a.Registry,
				Log:      a.Log,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.ListenAndServe(ctx, addr)
		},
	}

	serveCmd.Flags().StringVar(&addr, "addr", ":8420", "Listen address")
	serveCmd.SilenceUsage = true

	rootCmd.AddCommand(serveCmd)
}
