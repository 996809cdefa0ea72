package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptWindow is the trailing period over which failed logins are
// counted toward a lockout. Rows older than this are purged before
// every evaluation.
const AttemptWindow = time.Hour

type LoginAttempt struct {
	ID           uuid.UUID  `db:"id"`
	IPAddress    string     `db:"ip_address"`
	Username     string     `db:"username"`
	Success      bool       `db:"success"`
	AttemptTime  time.Time  `db:"attempt_time"`
	LockoutUntil *time.Time `db:"lockout_until"`
	AttemptCount int        `db:"attempt_count"`
}

// LockoutInfo describes an active lockout returned from a check.
type LockoutInfo struct {
	Username     string
	LockoutUntil time.Time
	Attempts     int
}

// LockoutResult is the outcome of recording an attempt.
type LockoutResult struct {
	Locked         bool       `json:"locked"`
	LockoutUntil   *time.Time `json:"lockout_until,omitempty"`
	Attempts       int        `json:"attempts"`
	LockoutMinutes int        `json:"lockout_minutes"`
}
