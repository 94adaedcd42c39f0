package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

var cardOpt struct {
	cardName   string
	nameOnCard string

	nonce     int64
	signature string
}

// cardCmd lists cards or, with --name, issues a new one
var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "list cards or issue a new one",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cardOpt.cardName == "" {
			return call(cmd, http.MethodGet, "/cards", nil)
		}

		return call(cmd, http.MethodPost, "/cards", map[string]string{
			"card_name":    cardOpt.cardName,
			"name_on_card": cardOpt.nameOnCard,
		})
	},
}

var cardDetailsCmd = &cobra.Command{
	Use:   "card-details <card-id>",
	Short: "reveal card number and cvv with a signed nonce",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodPost, "/cards/"+args[0]+"/details", map[string]any{
			"nonce":             cardOpt.nonce,
			"message_signature": cardOpt.signature,
		})
	},
}

func init() {
	rootCmd.AddCommand(cardCmd, cardDetailsCmd)

	cardCmd.Flags().StringVar(&cardOpt.cardName, "name", "", "card name (issues a card when set)")
	cardCmd.Flags().StringVar(&cardOpt.nameOnCard, "name-on-card", "", "embossed name")

	cardDetailsCmd.Flags().Int64Var(&cardOpt.nonce, "nonce", 0, "signed nonce")
	cardDetailsCmd.Flags().StringVar(&cardOpt.signature, "signature", "", "wallet signature over the nonce")
}
