package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

// statusCmd shows the current onboarding flow for the user
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "show the current onboarding flow",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodGet, "/onboarding", nil)
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "start or retry onboarding",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodPost, "/onboarding/start", nil)
	},
}

var smsCmd = &cobra.Command{
	Use:   "sms",
	Short: "request a phone confirmation code",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodPost, "/onboarding/sms", nil)
	},
}

var smsVerifyCmd = &cobra.Command{
	Use:   "sms-verify <code>",
	Short: "submit the phone confirmation code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodPost, "/onboarding/sms/verify", map[string]string{"code": args[0]})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd, startCmd, smsCmd, smsVerifyCmd)
}
