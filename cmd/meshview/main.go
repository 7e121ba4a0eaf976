// Package main is the entry point for the meshview binary.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/cli"
	"github.com/Faultbox/meshview/internal/logger"
)

func main() {
	if err := cli.Execute(os.Args[1:], os.Stdout, newViewCommand); err != nil {
		logger.Error("command failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
