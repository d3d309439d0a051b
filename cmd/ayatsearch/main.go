// Package main provides the entry point for the ayatsearch CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/ayatsearch/cmd/ayatsearch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
