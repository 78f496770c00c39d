// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/taibuivan/secretbox/internal/platform/constants"
	"github.com/taibuivan/secretbox/internal/users/auth"
)

// reapCmd runs one revocation sweep outside the daily schedule.
var reapCmd = &cobra.Command{
	Use:   "reap",
	Short: "Purge expired revocation records now",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), constants.ReaperTimeout)
		defer cancel()

		infra, err := connect(ctx)
		if err != nil {
			return err
		}
		defer infra.Close()

		purged, err := auth.NewReaper(infra.revocations(), nil, infra.log).Sweep(ctx)
		if err != nil {
			return fmt.Errorf("reap: %w", err)
		}

		infra.log.Info("reap_completed", slog.Int64("purged", purged))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reapCmd)
}
