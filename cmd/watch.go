package cmd

import (
	"github.com/Mohsinsiddi/w3dapp/internal/provider"
	"github.com/Mohsinsiddi/w3dapp/internal/ui"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <address>",
	Short: "Stream live Transfer events of a token",
	Long: `Bind an ERC-20 contract and show its Transfer events as they arrive.

WebSocket endpoints push logs; HTTP endpoints are polled every
--poll-interval seconds. Past events are not replayed.

Keyboard controls:
  ↑↓ / j k   navigate rows
  o          open selected tx in explorer
  c          copy selected tx hash
  q          quit`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Watching needs no account.
		c, err := connect(ctx, provider.DenyAll)
		if err != nil {
			c.Close()
			return err
		}
		defer c.Close()

		if _, err := c.sess.BindContract(ctx, args[0]); err != nil {
			return err
		}

		net := c.network()
		return ui.RunWatch(ctx, c.sess, net.label, net.txURL)
	},
}
