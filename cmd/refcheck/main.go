package main

import (
	"os"

	"github.com/refcheck-dev/refcheck/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
