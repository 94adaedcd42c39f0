package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "onboard-cli",
	Short: "cli for the onboard gateway api",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("endpoint", "l", "http://localhost:8080", "api endpoint")
	rootCmd.PersistentFlags().StringP("email", "e", "", "user email")
	_ = viper.BindPFlag("endpoint", rootCmd.PersistentFlags().Lookup("endpoint"))
	_ = viper.BindPFlag("email", rootCmd.PersistentFlags().Lookup("email"))
}

func getClient() *resty.Client {
	return resty.New().
		SetBaseURL(viper.GetString("endpoint") + "/api").
		SetHeader("X-User-Email", viper.GetString("email"))
}

func call(cmd *cobra.Command, method, path string, body any) error {
	r := getClient().R().SetContext(cmd.Context())
	if body != nil {
		r.SetBody(body)
	}

	resp, err := r.Execute(method, path)
	if err != nil {
		return err
	}

	if resp.IsError() {
		return fmt.Errorf("status %d: %s", resp.StatusCode(), resp.Body())
	}

	return printJson(cmd, json.RawMessage(resp.Body()))
}

func printJson(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	cmd.Println(string(b))
	return nil
}
