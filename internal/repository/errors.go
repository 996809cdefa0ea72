package repository

import "errors"

// Sentinel errors shared by every backing implementation.
var (
	// ErrNotFound covers any missing row looked up by id.
	ErrNotFound = errors.New("record not found")

	// Conflict sentinels from the transactional re-check inside
	// appointment Create: an overlap appeared after the caller's own
	// conflict query.
	ErrDoctorConflict  = errors.New("doctor has a conflicting appointment")
	ErrPatientConflict = errors.New("patient has a conflicting appointment")
)
