package model

import (
	"time"

	"github.com/google/uuid"
)

// Allowed appointment lengths in minutes. Edits are validated
// against this set; anything else is rejected.
var AllowedDurations = map[int]bool{
	30:  true,
	60:  true,
	90:  true,
	120: true,
}

type Appointment struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	PatientID       uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID        *uuid.UUID `db:"doctor_id" json:"doctor_id,omitempty"`
	DoctorName      string     `db:"doctor_name" json:"doctor_name"`
	StartTime       time.Time  `db:"start_time" json:"start_time"`
	EndTime         time.Time  `db:"end_time" json:"end_time"`
	EncryptedReason []byte     `db:"reason" json:"-"`
	Reason          string     `db:"-" json:"reason,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// Duration returns the appointment length.
func (a *Appointment) Duration() time.Duration {
	return a.EndTime.Sub(a.StartTime)
}

// Overlaps reports whether [a.StartTime, a.EndTime) intersects
// [start, end). Half-open semantics: back-to-back appointments where
// one ends exactly when the other starts do not overlap.
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return start.Before(a.EndTime) && a.StartTime.Before(end)
}

type ScheduleAppointmentRequest struct {
	PatientID       string `json:"patient_id" binding:"required"`
	DoctorName      string `json:"doctor_name" binding:"required"`
	Date            string `json:"date" binding:"required,dateonly"`
	Time            string `json:"time" binding:"required,timeofday"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1"`
	Reason          string `json:"reason" binding:"max=1000"`
}

type EditAppointmentRequest struct {
	Date            string `json:"date" binding:"required,dateonly"`
	Time            string `json:"time" binding:"required,timeofday"`
	DurationMinutes int    `json:"duration_minutes" binding:"required"`
	Reason          string `json:"reason" binding:"max=1000"`
}

type AppointmentFilters struct {
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	From      time.Time
	To        time.Time
}
