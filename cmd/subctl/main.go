package main

import (
	"os"

	"github.com/good-yellow-bee/subhub/cmd/subctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
