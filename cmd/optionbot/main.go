package main

import (
	"os"

	"optionbot/cmd/optionbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
