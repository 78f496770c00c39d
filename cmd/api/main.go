// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the SecretBox API.
//
// # Commands
//
//	api serve          Runs the HTTP server and the daily revocation reaper.
//	api migrate up     Applies every pending migration.
//	api migrate down   Rolls back the given number of migrations.
//	api reap           Purges expired revocation records once and exits.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/taibuivan/secretbox/internal/platform/constants"
)

// rootCmd is the base command; it only groups the subcommands.
var rootCmd = &cobra.Command{
	Use:           "api",
	Short:         "SecretBox account and session API",
	Version:       constants.AppVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(false)
	slog.SetDefault(log)

	if err := rootCmd.Execute(); err != nil {
		log.Error("command_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// newLogger builds the process-wide JSON logger tagged with the app name.
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	return rawLog.With(slog.String("app", constants.AppName))
}
