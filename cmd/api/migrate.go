// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/taibuivan/secretbox/internal/platform/config"
	"github.com/taibuivan/secretbox/internal/platform/migration"
)

var migrateDownSteps int

// migrateCmd groups the schema migration commands.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all up migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, slog.Default()); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the last migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := migration.RunDown(cfg.DatabaseURL, cfg.MigrationPath, migrateDownSteps, slog.Default()); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		return nil
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&migrateDownSteps, "steps", 1, "number of migrations to roll back")

	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
}
