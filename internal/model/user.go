package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleDoctor Role = "doctor"
)

type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	Password string `json:"password" binding:"required"`
}

// LoginResult is the tri-state outcome handed back to the HTTP layer.
// Locked and invalid-credential outcomes are not errors.
type LoginResult struct {
	Success       bool       `json:"success"`
	Role          Role       `json:"role,omitempty"`
	Token         string     `json:"token,omitempty"`
	Locked        bool       `json:"locked"`
	LockoutUntil  *time.Time `json:"lockout_until,omitempty"`
	Attempts      int        `json:"attempts,omitempty"`
	LockoutMinute int        `json:"lockout_minutes,omitempty"`
}
