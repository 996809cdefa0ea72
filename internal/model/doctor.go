package model

import (
	"time"

	"github.com/google/uuid"
)

type Doctor struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Specialization string    `db:"specialization" json:"specialization"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

type RegisterDoctorRequest struct {
	Name           string `json:"name" binding:"required,max=200"`
	Specialization string `json:"specialization" binding:"max=200"`
}
