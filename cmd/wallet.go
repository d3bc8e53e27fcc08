package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/Mohsinsiddi/w3dapp/internal/ui"
	"github.com/Mohsinsiddi/w3dapp/internal/wallet"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage the accounts w3dapp can act as",
}

var walletImportCmd = &cobra.Command{
	Use:   "import <name> [private-key]",
	Short: "Import a signing account",
	Long: `Import a private key into the OS keychain under name.

Without the key argument it is read from the terminal without echo, which
keeps it out of shell history. W3DAPP_KEY overrides every stored key.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		var hexKey string
		if len(args) == 2 {
			hexKey = args[1]
		} else {
			var err error
			if hexKey, err = readSecret("Private key: "); err != nil {
				return err
			}
		}

		w, err := newWalletManager().AddWithKey(name, hexKey)
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Signing wallet %q added: %s", name, ui.Addr(w.Address))))
		return nil
	},
}

var walletWatchCmd = &cobra.Command{
	Use:   "watch <name> <address>",
	Short: "Add a watch-only account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := newWalletManager().AddWatchOnly(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Watch-only wallet %q added: %s", w.Name, ui.Addr(w.Address))))
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		wallets, err := newWalletManager().List()
		if err != nil {
			return err
		}
		if len(wallets) == 0 {
			fmt.Println(ui.Info("No wallets configured yet."))
			fmt.Println(ui.Meta("  Add one with: w3dapp wallet import <name>"))
			return nil
		}
		fmt.Println(walletTable(wallets))
		fmt.Println(ui.Meta(fmt.Sprintf("%d wallet(s) configured", len(wallets))))
		return nil
	},
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove an account and its stored key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !assumeYes && !ui.Confirm(os.Stdin, os.Stderr, fmt.Sprintf("Remove wallet %q?", name)) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		if err := newWalletManager().Remove(name); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Wallet %q removed.", name)))
		return nil
	},
}

var walletDefaultCmd = &cobra.Command{
	Use:   "default <name>",
	Short: "Set the account used when --wallet is not given",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := newWalletManager().SetDefault(name); err != nil {
			return err
		}
		cfg.DefaultWallet = name
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Default wallet set to %q.", name)))
		return nil
	},
}

func walletTable(wallets []*wallet.Wallet) string {
	t := ui.NewTable([]ui.Column{
		{Title: "Name", Width: 16},
		{Title: "Address", Width: 42},
		{Title: "Type", Width: 12},
		{Title: "Default", Width: 8},
	})
	for _, w := range wallets {
		def := ""
		if w.IsDefault {
			def = "✓"
		}
		t.AddRow(ui.Row{w.Name, w.Address, w.Type, def})
	}
	return t.Render()
}

// readSecret reads one line from the terminal without echo, or a plain line
// when stdin is not a terminal.
func readSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading key: %w", err)
		}
		return strings.TrimSpace(line), nil
	}

	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading key: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func init() {
	walletCmd.AddCommand(walletImportCmd, walletWatchCmd, walletListCmd, walletRemoveCmd, walletDefaultCmd)
}
