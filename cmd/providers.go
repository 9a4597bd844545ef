package cmd

import (
	"github.com/spf13/cobra"

	"github.com/skovera/desk/internal/output"
	"github.com/skovera/desk/internal/providers"
)

// providersOptions holds dependencies for the providers command.
type providersOptions struct {
	registry *providers.Registry
	jsonMode bool
}

func newProvidersCmd(opts providersOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List providers and their availability",
		Long:  `List every known provider, what it serves, and whether credentials are configured.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProviders(cmd, opts)
		},
	}

	cmd.SilenceUsage = true

	return cmd
}

func runProviders(cmd *cobra.Command, opts providersOptions) error {
	statuses := opts.registry.Statuses()

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)

	headers := []string{"Provider", "Market Data", "Trading", "Available"}
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		rows = append(rows, []string{
			string(s.ID),
			yesNo(s.Market),
			yesNo(s.Trading),
			yesNo(s.Available),
		})
	}
	return formatter.Table(headers, rows)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func init() {
	var opts providersOptions

	providersCmd := &cobra.Command{
		Use:   "providers",
		Short: "List providers and their availability",
		Long:  `List every known provider, what it serves, and whether credentials are configured.`,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			opts.registry = a.Registry
			opts.jsonMode = GetJSONMode()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProviders(cmd, opts)
		},
	}

	providersCmd.SilenceUsage = true

	rootCmd.AddCommand(providersCmd)
}
