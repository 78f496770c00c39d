// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/taibuivan/secretbox/internal/platform/constants"
	"github.com/taibuivan/secretbox/internal/platform/metrics"
)

// # Reaper

// Reaper deletes revocation records once every token they cover has expired.
type Reaper struct {
	revocations RevocationRepository
	metrics     *metrics.Collectors
	logger      *slog.Logger
	now         func() time.Time
	scheduler   *cron.Cron
}

// NewReaper creates a new Reaper.
func NewReaper(revocations RevocationRepository, collectors *metrics.Collectors, logger *slog.Logger) *Reaper {
	return &Reaper{
		revocations: revocations,
		metrics:     collectors,
		logger:      logger,
		now:         time.Now,
	}
}

/*
Sweep runs one purge immediately.

Returns:
  - int64: Number of deleted records
  - error: Storage failures
*/
func (reaper *Reaper) Sweep(context context.Context) (int64, error) {
	deleted, err := reaper.revocations.PurgeExpired(context, reaper.now())
	if err != nil {
		reaper.logger.ErrorContext(context, "reaper_sweep_failed", slog.Any("error", err))
		return 0, fmt.Errorf("auth_reaper_sweep_failed: %w", err)
	}

	if reaper.metrics != nil {
		reaper.metrics.ReaperPurgedTotal.Add(float64(deleted))
	}

	reaper.logger.InfoContext(context, "reaper_sweep_finished", slog.Int64("deleted", deleted))
	return deleted, nil
}

/*
Start schedules [Reaper.Sweep] on a cron spec (e.g. "0 1 * * *" for 01:00 daily).

Description: A failed run is logged and not retried; the next run covers it.
Overlapping runs are skipped.

Returns:
  - error: Invalid spec
*/
func (reaper *Reaper) Start(spec string) error {
	logger := cronLogger{logger: reaper.logger}
	scheduler := cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)), cron.WithLogger(logger))

	if _, err := scheduler.AddFunc(spec, reaper.run); err != nil {
		return fmt.Errorf("auth_reaper_invalid_schedule: %w", err)
	}

	reaper.scheduler = scheduler
	scheduler.Start()

	reaper.logger.Info("reaper_scheduled", slog.String("schedule", spec))
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (reaper *Reaper) Stop() {
	if reaper.scheduler == nil {
		return
	}
	<-reaper.scheduler.Stop().Done()
}

func (reaper *Reaper) run() {
	sweepContext, cancel := context.WithTimeout(context.Background(), constants.ReaperTimeout)
	defer cancel()

	// Errors are already logged by Sweep.
	_, _ = reaper.Sweep(sweepContext)
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (adapter cronLogger) Info(msg string, keysAndValues ...interface{}) {
	adapter.logger.Debug("cron_"+msg, keysAndValues...)
}

func (adapter cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	adapter.logger.Error("cron_"+msg, append(keysAndValues, "error", err)...)
}
