package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/khairulanwar/clinic-api/internal/model"
	"github.com/khairulanwar/clinic-api/internal/repository"
)

// RetentionWorker sweeps stale rows on a ticker: login attempts past
// the trailing window (defense in depth alongside the per-request
// purge) and audit logs past their retention period.
type RetentionWorker struct {
	attempts      repository.LoginAttemptRepository
	audit         repository.AuditRepository
	retentionDays int
	interval      time.Duration
	logger        zerolog.Logger
}

func NewRetentionWorker(attempts repository.LoginAttemptRepository, audit repository.AuditRepository,
	retentionDays int, interval time.Duration, logger zerolog.Logger) *RetentionWorker {
	return &RetentionWorker{
		attempts:      attempts,
		audit:         audit,
		retentionDays: retentionDays,
		interval:      interval,
		logger:        logger,
	}
}

func (w *RetentionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *RetentionWorker) sweep(ctx context.Context) {
	now := time.Now()

	purged, err := w.attempts.PurgeBefore(ctx, now.Add(-model.AttemptWindow))
	if err != nil {
		w.logger.Error().Err(err).Msg("login attempt purge failed")
	} else if purged > 0 {
		w.logger.Info().Int64("rows", purged).Msg("purged stale login attempts")
	}

	cutoff := now.AddDate(0, 0, -w.retentionDays)
	removed, err := w.audit.DeleteBefore(ctx, cutoff)
	if err != nil {
		w.logger.Error().Err(err).Msg("audit log cleanup failed")
	} else if removed > 0 {
		w.logger.Info().Int64("rows", removed).Time("cutoff", cutoff).Msg("removed expired audit logs")
	}
}
