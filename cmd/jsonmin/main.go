package main

import (
	"fmt"
	"os"

	"github.com/gophersatwork/jsonmin/internal/cli"
)

func main() {
	rootCmd := cli.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.ErrorStyle(err))
		os.Exit(1)
	}
}
