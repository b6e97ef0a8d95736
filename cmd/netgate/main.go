package main

import (
	"os"

	"github.com/go-drift/netgate/cmd/netgate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
