package main

import (
	"os"

	"github.com/ainsophic/hubguard/cmd/hubguard/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
