package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/khairulanwar/clinic-api/internal/model"
	"github.com/khairulanwar/clinic-api/internal/repository"
	apperrors "github.com/khairulanwar/clinic-api/pkg/errors"
	"github.com/khairulanwar/clinic-api/pkg/metrics"
)

// Progressive schedule: the Nth consecutive failure inside the
// trailing window locks the account for this many minutes. Four
// failures are free; from ten on the duration caps at an hour.
func lockoutMinutes(failures int) int {
	switch {
	case failures < 5:
		return 0
	case failures == 5:
		return 1
	case failures == 6:
		return 5
	case failures == 7:
		return 10
	case failures == 8:
		return 15
	case failures == 9:
		return 30
	default:
		return 60
	}
}

// Service is the login attempt ledger. It records every attempt and
// computes progressive lockout windows keyed on the username's
// consecutive failures within the trailing hour.
type Service struct {
	repo    repository.LoginAttemptRepository
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(repo repository.LoginAttemptRepository, m *metrics.Metrics) *Service {
	return &Service{repo: repo, metrics: m, now: time.Now}
}

// CheckLockout reports an active lockout for the username, or nil.
// A row counts only while its lockout_until is still in the future;
// expired rows are inert until the purge sweep removes them.
func (s *Service) CheckLockout(ctx context.Context, username string) (*model.LockoutInfo, error) {
	info, err := s.repo.ActiveLockout(ctx, username, s.now())
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	return info, nil
}

// RecordAttempt logs one attempt and returns the resulting lockout
// state. The sequence is fixed: purge stale rows first, then count,
// then insert. Counting before purging would include attempts that
// no longer belong to the window.
func (s *Service) RecordAttempt(ctx context.Context, ip, username string, success bool) (*model.LockoutResult, error) {
	now := s.now()

	if _, err := s.repo.PurgeBefore(ctx, now.Add(-model.AttemptWindow)); err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}

	if success {
		// A successful login resets the schedule to zero.
		if err := s.repo.ClearFailures(ctx, username); err != nil {
			return nil, apperrors.StoreUnavailable(err)
		}
		attempt := &model.LoginAttempt{
			ID:          uuid.New(),
			IPAddress:   ip,
			Username:    username,
			Success:     true,
			AttemptTime: now,
		}
		if err := s.repo.Insert(ctx, attempt); err != nil {
			return nil, apperrors.StoreUnavailable(err)
		}
		return &model.LockoutResult{}, nil
	}

	prior, err := s.repo.CountRecentFailures(ctx, username, now.Add(-model.AttemptWindow))
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	failures := prior + 1

	minutes := lockoutMinutes(failures)
	attempt := &model.LoginAttempt{
		ID:           uuid.New(),
		IPAddress:    ip,
		Username:     username,
		Success:      false,
		AttemptTime:  now,
		AttemptCount: failures,
	}

	result := &model.LockoutResult{Attempts: failures}
	if minutes > 0 {
		until := now.Add(time.Duration(minutes) * time.Minute)
		attempt.LockoutUntil = &until
		result.Locked = true
		result.LockoutUntil = &until
		result.LockoutMinutes = minutes
		if s.metrics != nil {
			s.metrics.LockoutsTotal.Inc()
		}
	}

	if err := s.repo.Insert(ctx, attempt); err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	return result, nil
}
