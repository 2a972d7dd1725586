// Package main provides the entry point for the legistry CLI tool.
package main

import (
	"context"
	"os"

	"github.com/civiclens/legistry/cmd/legistry/app"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	application, err := app.New(version, commit, date)
	if err != nil {
		app.ExitOnError(err)
	}

	ctx, cancel := app.ContextWithSignals(context.Background())
	defer cancel()

	if err := application.Execute(ctx, os.Args[1:]); err != nil {
		if closeErr := application.Close(); closeErr != nil {
			application.Logger().Error().Err(closeErr).Msg("close error during error handling")
		}
		app.ExitOnError(err)
	}
	app.ExitOnError(application.Close())
}
