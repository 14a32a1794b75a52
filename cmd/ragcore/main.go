// Package main provides the entry point for the ragcore CLI.
package main

import (
	"fmt"
	"os"

	"github.com/Aman-CERP/ragcore/cmd/ragcore/cmd"
	ragerrors "github.com/Aman-CERP/ragcore/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprint(os.Stderr, ragerrors.FormatForCLI(err))
		os.Exit(1)
	}
}
