package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/skovera/desk/internal/app"
	"github.com/skovera/desk/internal/market"
	"github.com/skovera/desk/internal/providers"
	"github.com/skovera/desk/internal/trading"
)

var Version = "dev"

// Persistent flags shared by every command.
var (
	jsonOutput   bool
	providerFlag string
	mockFlag     bool
	verboseFlag  bool
)

var rootCmd = &cobra.Command{
	Use:     "desk",
	Short:   "Multi-provider market data and trading CLI",
	Long:    `desk aggregates market data and brokerage access across providers (Polygon, Alpaca, IEX Cloud, Finnhub, Alpha Vantage, IBKR) behind one set of commands. With no provider configured it serves simulated data.`,
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVarP(&providerFlag, "provider", "p", "", "Provider to use (auto, polygon, alpaca, iexcloud, finnhub, alphavantage, ibkr, mock)")
	rootCmd.PersistentFlags().BoolVar(&mockFlag, "mock", false, "Use simulated data regardless of configured providers")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
}

// GetJSONMode returns whether JSON output mode is enabled.
func GetJSONMode() bool {
	return jsonOutput
}

// newApp assembles the application from the default config path and the
// system keyring, honoring the persistent flags.
func newApp() (*app.App, error) {
	level := ""
	if verboseFlag {
		level = "debug"
	}
	return app.New(app.Options{
		LogLevel:  level,
		ForceMock: mockFlag,
	})
}

// marketService resolves the --provider override against the app's market
// service.
func marketService(a *app.App, name string) (*market.Service, error) {
	id, err := providers.Parse(name)
	if err != nil {
		return nil, err
	}
	if id == providers.Auto {
		return a.Market, nil
	}
	return a.Market.WithProvider(id), nil
}

// tradingService resolves the --provider override against the app's trading
// service.
func tradingService(a *app.App, name string) (*trading.Service, error) {
	id, err := providers.Parse(name)
	if err != nil {
		return nil, err
	}
	if id == providers.Auto {
		return a.Trading, nil
	}
	return a.Trading.WithProvider(id), nil
}

func Execute() {
	rootCmd.Version = Version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
