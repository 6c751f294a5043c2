// Package main provides the entry point for the deepseeker CLI.
package main

import (
	"fmt"
	"os"

	"github.com/deepseeker/deepseeker/cmd/deepseeker/cmd"
	"github.com/deepseeker/deepseeker/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprint(os.Stderr, errors.FormatForCLI(err))
		os.Exit(1)
	}
}
