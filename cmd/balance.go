package cmd

import (
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/w3dapp/internal/ui"
	"github.com/spf13/cobra"
)

var balanceToken string

var balanceCmd = &cobra.Command{
	Use:   "balance --token <address>",
	Short: "Show your balance of an ERC-20 token",
	Long: `Bind the token, request access to your account and print its balance.
The raw base-unit value is always shown; the formatted value needs the
token's decimals.

Examples:
  w3dapp balance --token 0x5FbDB2315678afecb367f032d93F642f64180aa3
  w3dapp balance --token 0x5FbD... --wallet deployer --yes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if balanceToken == "" {
			return errors.New("--token is required")
		}
		ctx := cmd.Context()

		c, info, err := bindToken(ctx, balanceToken, promptApprover())
		if err != nil {
			return err
		}
		defer c.Close()

		b, err := c.sess.GetBalance(ctx)
		if err != nil {
			return err
		}
		printBlock(fmt.Sprintf("%s balance", info.Symbol), ui.BalancePairs(b, info.Symbol))
		return nil
	},
}

func init() {
	balanceCmd.Flags().StringVar(&balanceToken, "token", "", "ERC-20 contract address")
}
