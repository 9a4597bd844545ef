package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/skovera/desk/internal/config"
	"github.com/skovera/desk/internal/keyring"
)

// passwordReader abstracts terminal password input for testing.
type passwordReader interface {
	ReadPassword() (string, error)
	IsTerminal() bool
}

// terminalReader reads passwords from the terminal using golang.org/x/term.
type terminalReader struct {
	fd int
}

func newTerminalReader(fd int) *terminalReader {
	return &terminalReader{fd: fd}
}

func (r *terminalReader) ReadPassword() (string, error) {
	password, err := term.ReadPassword(r.fd)
	if err != nil {
		return "", err
	}
	return string(password), nil
}

func (r *terminalReader) IsTerminal() bool {
	return term.IsTerminal(r.fd)
}

// linePrompter abstracts plain-text prompts for testing.
type linePrompter interface {
	ReadLine(prompt string) (string, error)
}

type terminalPrompter struct {
	scanner *bufio.Scanner
	writer  io.Writer
}

func newTerminalPrompter(r io.Reader, w io.Writer) *terminalPrompter {
	return &terminalPrompter{scanner: bufio.NewScanner(r), writer: w}
}

func (p *terminalPrompter) ReadLine(prompt string) (string, error) {
	_, _ = fmt.Fprint(p.writer, prompt)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", nil
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// credentialField describes one secret a provider needs.
type credentialField struct {
	name  string
	label string
}

// providerCredentials maps each configurable provider to its keyring fields.
var providerCredentials = map[string][]credentialField{
	"alphavantage": {{keyring.FieldAPIKey, "API key"}},
	"polygon":      {{keyring.FieldAPIKey, "API key"}},
	"iexcloud":     {{keyring.FieldAPIKey, "API token"}},
	"finnhub":      {{keyring.FieldAPIKey, "API key"}},
	"alpaca":       {{keyring.FieldKeyID, "Key ID"}, {keyring.FieldSecret, "Secret key"}},
}

// configureOptions holds dependencies for the configure command.
type configureOptions struct {
	configPath     string
	store          keyring.Store
	passwordReader passwordReader
	prompt         linePrompter
}

// newConfigureCmd creates the configure command with the given options.
func newConfigureCmd(opts configureOptions) *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "configure PROVIDER",
		Short: "Configure provider credentials",
		Long: `Store credentials for a provider in the system keyring.

IBKR takes no credentials; it is configured with a gateway URL and account
id, stored in the config file.

Examples:
  desk configure polygon          # Prompt for the Polygon API key
  desk configure alpaca           # Prompt for the Alpaca key ID and secret
  desk configure ibkr             # Prompt for the gateway URL and account id
  desk configure polygon --clear  # Remove stored Polygon credentials`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure(cmd, opts, args[0], clear)
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "Remove stored credentials for the provider")
	cmd.SilenceUsage = true

	return cmd
}

func runConfigure(cmd *cobra.Command, opts configureOptions, provider string, clear bool) error {
	provider = strings.ToLower(provider)

	if provider == "ibkr" {
		if clear {
			return runClearIBKR(cmd, opts)
		}
		return runConfigureIBKR(cmd, opts)
	}

	fields, ok := providerCredentials[provider]
	if !ok {
		return fmt.Errorf("unknown provider %q", provider)
	}

	if clear {
		for _, f := range fields {
			if err := opts.store.Delete(keyring.ServiceName, keyring.Key(provider, f.name)); err != nil {
				return fmt.Errorf("failed to clear %s: %w", f.label, err)
			}
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Credentials for %s cleared.\n", provider)
		return nil
	}

	if !opts.passwordReader.IsTerminal() {
		return fmt.Errorf("configure requires an interactive terminal\nRun this command directly in your terminal (not piped or in a script)")
	}

	for _, f := range fields {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Enter %s %s: ", provider, f.label)
		value, err := opts.passwordReader.ReadPassword()
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", f.label, err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout())

		if value == "" {
			return fmt.Errorf("%s cannot be empty", f.label)
		}
		if err := opts.store.Set(keyring.ServiceName, keyring.Key(provider, f.name), value); err != nil {
			return fmt.Errorf("failed to store %s in keyring: %w", f.label, err)
		}
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Credentials for %s saved.\n", provider)
	return nil
}

// runConfigureIBKR stores the gateway settings in the config file; the
// gateway authenticates its own session, so there is no secret to keep.
func runConfigureIBKR(cmd *cobra.Command, opts configureOptions) error {
	gatewayURL, err := opts.prompt.ReadLine("Client Portal gateway URL (e.g. https://localhost:5000): ")
	if err != nil {
		return fmt.Errorf("failed to read gateway URL: %w", err)
	}
	if gatewayURL == "" {
		return fmt.Errorf("gateway URL cannot be empty")
	}

	accountID, err := opts.prompt.ReadLine("Account ID (e.g. DU1234567): ")
	if err != nil {
		return fmt.Errorf("failed to read account ID: %w", err)
	}
	if accountID == "" {
		return fmt.Errorf("account ID cannot be empty")
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		cfg = config.DefaultConfig()
	}
	cfg.Providers.IBKR.GatewayURL = gatewayURL
	cfg.Providers.IBKR.AccountID = accountID

	if err := config.Save(opts.configPath, cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "IBKR gateway configuration saved.")
	return nil
}

func runClearIBKR(cmd *cobra.Command, opts configureOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		cfg = config.DefaultConfig()
	}
	cfg.Providers.IBKR = config.IBKRConfig{}

	if err := config.Save(opts.configPath, cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "IBKR gateway configuration cleared.")
	return nil
}

func init() {
	configureCmd := newConfigureCmd(configureOptions{
		configPath:     config.ConfigPath(),
		store:          keyring.NewEnvStore(keyring.NewSystemStore()),
		passwordReader: newTerminalReader(int(os.Stdin.Fd())),
		prompt:         newTerminalPrompter(os.Stdin, os.Stdout),
	})
	rootCmd.AddCommand(configureCmd)
}
