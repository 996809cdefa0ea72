package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/khairulanwar/clinic-api/internal/model"
	"github.com/khairulanwar/clinic-api/internal/repository"
)

type loginAttemptRepository struct {
	BaseRepository
}

func NewLoginAttemptRepository(db *sqlx.DB) repository.LoginAttemptRepository {
	return &loginAttemptRepository{NewBaseRepository(db)}
}

// PurgeBefore removes every attempt older than the cutoff, for all
// usernames. The ledger calls this before each evaluation.
func (r *loginAttemptRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM login_attempts
		WHERE attempt_time < $1
	`
	result, err := r.GetDB().ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge login attempts: %w", err)
	}
	return result.RowsAffected()
}

func (r *loginAttemptRepository) CountRecentFailures(ctx context.Context, username string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM login_attempts
		WHERE username = $1 AND success = false AND attempt_time >= $2
	`
	var count int
	if err := r.GetDB().GetContext(ctx, &count, query, username, since); err != nil {
		return 0, fmt.Errorf("failed to count failed attempts: %w", err)
	}
	return count, nil
}

func (r *loginAttemptRepository) Insert(ctx context.Context, attempt *model.LoginAttempt) error {
	query := `
		INSERT INTO login_attempts (
			id, ip_address, username, success,
			attempt_time, lockout_until, attempt_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.GetDB().ExecContext(ctx, query,
		attempt.ID,
		attempt.IPAddress,
		attempt.Username,
		attempt.Success,
		attempt.AttemptTime,
		attempt.LockoutUntil,
		attempt.AttemptCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert login attempt: %w", err)
	}
	return nil
}

// ClearFailures wipes the failure history for a username. Called on
// successful login so the next failure starts over at attempt 1.
func (r *loginAttemptRepository) ClearFailures(ctx context.Context, username string) error {
	query := `
		DELETE FROM login_attempts
		WHERE username = $1 AND success = false
	`
	if _, err := r.GetDB().ExecContext(ctx, query, username); err != nil {
		return fmt.Errorf("failed to clear login attempts: %w", err)
	}
	return nil
}

// ActiveLockout returns the most recent attempt whose lockout_until is
// still in the future, or nil. Expired lockout rows stay inert until
// the purge sweep removes them.
func (r *loginAttemptRepository) ActiveLockout(ctx context.Context, username string, now time.Time) (*model.LockoutInfo, error) {
	query := `
		SELECT username, lockout_until, attempt_count
		FROM login_attempts
		WHERE username = $1 AND lockout_until IS NOT NULL AND lockout_until > $2
		ORDER BY attempt_time DESC
		LIMIT 1
	`
	var row struct {
		Username     string    `db:"username"`
		LockoutUntil time.Time `db:"lockout_until"`
		AttemptCount int       `db:"attempt_count"`
	}
	err := r.GetDB().GetContext(ctx, &row, query, username, now)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check lockout: %w", err)
	}

	return &model.LockoutInfo{
		Username:     row.Username,
		LockoutUntil: row.LockoutUntil,
		Attempts:     row.AttemptCount,
	}, nil
}
