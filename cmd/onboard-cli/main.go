package main

import "github.com/lumapay/onboard/cmd/onboard-cli/cmd"

func main() {
	cmd.Execute()
}
