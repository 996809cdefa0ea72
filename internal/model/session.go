package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionTimeout is the inactivity window. Activity slides it; a
// request arriving later than this after the last one destroys the
// session.
const SessionTimeout = 900 * time.Second

type Session struct {
	ID           string    `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Username     string    `json:"username"`
	Role         Role      `json:"role"`
	LoginTime    time.Time `json:"login_time"`
	LastActivity time.Time `json:"last_activity"`
}

// Expired reports whether the session has been idle past the timeout
// as of now.
func (s *Session) Expired(now time.Time) bool {
	return now.Sub(s.LastActivity) > SessionTimeout
}
