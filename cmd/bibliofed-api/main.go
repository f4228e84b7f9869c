// Package main is the entry point for the federated resolver API server.
package main

import (
	"os"

	"github.com/bibliofed/bibliofed/cmd/bibliofed-api/app"
	"github.com/bibliofed/bibliofed/pkg/logger"
)

func main() {
	defer logger.Sync()

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
