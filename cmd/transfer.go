package cmd

import (
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/w3dapp/internal/ui"
	"github.com/spf13/cobra"
)

var (
	transferToken string
	transferUnits bool
)

var transferCmd = &cobra.Command{
	Use:   "transfer <recipient> <amount> --token <address>",
	Short: "Send ERC-20 tokens",
	Long: `Transfer tokens from your account to recipient.

amount is in base units unless --units is given, in which case it is a
decimal token amount scaled by the token's decimals. Recipient and amount
are validated before account access is requested. You are asked to approve
the transfer unless --yes is set.

Examples:
  w3dapp transfer 0x7099...79C8 1000000 --token 0x5FbD...
  w3dapp transfer 0x7099...79C8 1.5 --units --token 0x5FbD... --yes`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if transferToken == "" {
			return errors.New("--token is required")
		}
		ctx := cmd.Context()
		recipient, amount := args[0], args[1]

		c, info, err := bindToken(ctx, transferToken, promptApprover())
		if err != nil {
			return err
		}
		defer c.Close()

		send := c.sess.Transfer
		if transferUnits {
			send = c.sess.TransferUnits
		}
		hash, err := send(ctx, recipient, amount)
		if err != nil {
			return err
		}

		unit := "base units"
		if transferUnits {
			unit = info.Symbol
		}
		fmt.Println(ui.Success(fmt.Sprintf("Transfer of %s %s to %s submitted", amount, unit, ui.Addr(recipient))))
		fmt.Printf("  %s %s\n", ui.Meta("tx:"), ui.Addr(hash.Hex()))
		if url := c.network().txURL(hash.Hex()); url != "" {
			fmt.Printf("  %s %s\n", ui.Meta("explorer:"), url)
		}
		return nil
	},
}

func init() {
	transferCmd.Flags().StringVar(&transferToken, "token", "", "ERC-20 contract address")
	transferCmd.Flags().BoolVar(&transferUnits, "units", false, "amount is a decimal token amount")
}
