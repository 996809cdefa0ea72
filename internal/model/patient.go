package model

import (
	"time"

	"github.com/google/uuid"
)

// Patient rows carry two independently encrypted fields: the IC number
// and the diagnosis. Each uses its own key; the repository decrypts at
// the data-access boundary and never exposes ciphertext to callers.
type Patient struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	Name               string    `db:"name" json:"name"`
	EncryptedICNumber  []byte    `db:"ic_number" json:"-"`
	ICNumber           string    `db:"-" json:"ic_number,omitempty"`
	EncryptedDiagnosis []byte    `db:"diagnosis" json:"-"`
	Diagnosis          string    `db:"-" json:"diagnosis,omitempty"`
	Phone              string    `db:"phone" json:"phone"`
	Email              string    `db:"email" json:"email,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

type RegisterPatientRequest struct {
	Name      string `json:"name" binding:"required,max=200"`
	ICNumber  string `json:"ic_number" binding:"required,max=50"`
	Diagnosis string `json:"diagnosis" binding:"max=2000"`
	Phone     string `json:"phone" binding:"max=30"`
	Email     string `json:"email" binding:"omitempty,email"`
}

// PatientRef is the lightweight lookup result used for existence
// checks and notifications; no encrypted fields are touched.
type PatientRef struct {
	ID    uuid.UUID `db:"id" json:"id"`
	Name  string    `db:"name" json:"name"`
	Email string    `db:"email" json:"-"`
}
