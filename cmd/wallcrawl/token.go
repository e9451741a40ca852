package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"wallcrawl/pkg/auth"
	"wallcrawl/pkg/ui"
)

var (
	tokenValue  string
	tokenReveal bool
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage stored bearer tokens",
	Long: `Manage bearer tokens sent with 'discover --token <label>'.

Tokens are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - WALLCRAWL_TOKEN_<LABEL> environment variables (read-only)`,
}

var tokenSetCmd = &cobra.Command{
	Use:   "set <label>",
	Short: "Store a token (prompts without echo when --value is omitted)",
	Example: `  wallcrawl token set pinterest
  wallcrawl token set drive --value "$DRIVE_TOKEN"`,
	Args: cobra.ExactArgs(1),
	RunE: runTokenSet,
}

var tokenGetCmd = &cobra.Command{
	Use:   "get <label>",
	Short: "Show a stored token (masked unless --reveal)",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenGet,
}

var tokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored token labels",
	Args:  cobra.NoArgs,
	RunE:  runTokenList,
}

var tokenDeleteCmd = &cobra.Command{
	Use:   "delete <label>",
	Short: "Remove a stored token",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenDelete,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenSetCmd)
	tokenCmd.AddCommand(tokenGetCmd)
	tokenCmd.AddCommand(tokenListCmd)
	tokenCmd.AddCommand(tokenDeleteCmd)

	tokenSetCmd.Flags().StringVar(&tokenValue, "value", "", "token value (read from the terminal if omitted)")
	tokenGetCmd.Flags().BoolVar(&tokenReveal, "reveal", false, "print the full token")
}

func runTokenSet(cmd *cobra.Command, args []string) error {
	label, err := auth.NormalizeLabel(args[0])
	if err != nil {
		return err
	}
	manager, err := auth.NewManager("")
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}

	value := strings.TrimSpace(tokenValue)
	if value == "" {
		auth.WriteTokenGuide(os.Stderr, label)
		fmt.Fprint(os.Stderr, "\nToken (input hidden): ")
		value, err = readSecret()
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
	}

	if err := manager.Store(&auth.Token{Label: label, Value: value}); err != nil {
		return err
	}
	ui.PrintSuccess("Token stored for " + label)
	return nil
}

func runTokenGet(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager("")
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}
	token, err := manager.Retrieve(args[0])
	if err != nil {
		return err
	}

	value := auth.Mask(token.Value)
	if tokenReveal {
		value = token.Value
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runTokenList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager("")
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}
	tokens, err := manager.List()
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		ui.PrintWarning("No tokens stored")
		return nil
	}

	out := cmd.OutOrStdout()
	for _, t := range tokens {
		modified := "env"
		if !t.LastModified.IsZero() {
			modified = t.LastModified.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(out, "%-20s %-16s %s\n", t.Label, auth.Mask(t.Value), modified)
	}
	return nil
}

func runTokenDelete(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager("")
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}
	if err := manager.Delete(args[0]); err != nil {
		return err
	}
	ui.PrintSuccess("Token removed for " + args[0])
	return nil
}

// readSecret reads a line from stdin without echo when stdin is a terminal
func readSecret() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err == nil {
			return strings.TrimSpace(string(b)), nil
		}
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
