package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/khairulanwar/clinic-api/internal/model"
)

// All repository interfaces in one file
type (
	// AppointmentRepository is the appointment directory. Conflict
	// queries use half-open [start, end) semantics and can exclude a
	// row so edits never collide with themselves.
	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		FindDoctorConflicts(ctx context.Context, doctorName string, start, end time.Time, excludeID *uuid.UUID) ([]*model.Appointment, error)
		FindPatientConflicts(ctx context.Context, patientID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]*model.Appointment, error)
	}

	PatientRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		GetRef(ctx context.Context, id uuid.UUID) (*model.PatientRef, error)
		Create(ctx context.Context, patient *model.Patient) error
	}

	DoctorRepository interface {
		FindByExactName(ctx context.Context, name string) (*model.Doctor, error)
		FindByPartialName(ctx context.Context, substr string) (*model.Doctor, error)
		Create(ctx context.Context, doctor *model.Doctor) error
	}

	// UserRepository is the credential store. Lookups are
	// case-sensitive exact matches; a missing username is (nil, nil),
	// not an error.
	UserRepository interface {
		GetByUsername(ctx context.Context, username string) (*model.User, error)
		Create(ctx context.Context, user *model.User) error
	}

	// LoginAttemptRepository backs the lockout ledger. Callers must
	// run PurgeBefore, then CountRecentFailures, then Insert, in that
	// order, within one evaluation.
	LoginAttemptRepository interface {
		PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
		CountRecentFailures(ctx context.Context, username string, since time.Time) (int, error)
		Insert(ctx context.Context, attempt *model.LoginAttempt) error
		ClearFailures(ctx context.Context, username string) error
		ActiveLockout(ctx context.Context, username string, now time.Time) (*model.LockoutInfo, error)
	}

	AuditRepository interface {
		Create(ctx context.Context, entry *model.AuditLogEntry) error
		ListPage(ctx context.Context, page int) ([]*model.AuditLogEntry, error)
		Count(ctx context.Context) (int64, error)
		DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}
)
