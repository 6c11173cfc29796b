package main

import (
	"fmt"
	"os"

	"github.com/bnema/outputctl/cmd"
	"github.com/bnema/outputctl/internal/mutation"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(mutation.ExitCode(err))
	}
}
