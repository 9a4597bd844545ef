package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/skovera/desk/internal/config"
	"github.com/skovera/desk/internal/tui"
)

func init() {
	uiCmd := &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive dashboard",
		Long: `Open the interactive terminal dashboard with portfolio, watchlist,
and order views. Data refreshes every 30 seconds.

Examples:
  desk ui
  desk ui --mock                 # Simulated data only
  desk ui --provider alpaca`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			marketSvc, err := marketService(a, providerFlag)
			if err != nil {
				return err
			}
			tradingSvc, err := tradingService(a, providerFlag)
			if err != nil {
				return err
			}

			model := tui.New(a.Config, config.ConfigPath(), marketSvc, tradingSvc)
			p := tea.NewProgram(model, tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
	uiCmd.SilenceUsage = true

	rootCmd.AddCommand(uiCmd)
}
