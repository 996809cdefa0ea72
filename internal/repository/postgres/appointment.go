package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/khairulanwar/clinic-api/internal/model"
	"github.com/khairulanwar/clinic-api/internal/repository"
	"github.com/khairulanwar/clinic-api/pkg/security"
)

type appointmentRepository struct {
	BaseRepository
	cipher security.Encryptor
}

// NewAppointmentRepository builds the appointment directory. The
// cipher is the record key; reasons are encrypted before they touch
// the database and decrypted on the way out.
func NewAppointmentRepository(db *sqlx.DB, cipher security.Encryptor) repository.AppointmentRepository {
	return &appointmentRepository{BaseRepository: NewBaseRepository(db), cipher: cipher}
}

// Overlap predicate shared by every conflict query. Half-open
// intervals: a row conflicts iff start < existing_end AND
// existing_start < end, so back-to-back bookings pass.
const overlapCond = `start_time < $3 AND $2 < end_time`

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	encrypted, err := security.EncryptString(r.cipher, appointment.Reason)
	if err != nil {
		return fmt.Errorf("failed to encrypt reason: %w", err)
	}
	appointment.EncryptedReason = encrypted

	// Re-check both overlap conditions inside the transaction so two
	// concurrent schedule calls cannot both pass the engine's check
	// and commit.
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var count int
		doctorQuery := `
			SELECT COUNT(*) FROM appointments
			WHERE doctor_name = $1 AND ` + overlapCond
		if err := tx.GetContext(ctx, &count, doctorQuery,
			appointment.DoctorName, appointment.StartTime, appointment.EndTime); err != nil {
			return fmt.Errorf("failed to check doctor conflicts: %w", err)
		}
		if count > 0 {
			return repository.ErrDoctorConflict
		}

		patientQuery := `
			SELECT COUNT(*) FROM appointments
			WHERE patient_id = $1 AND ` + overlapCond
		if err := tx.GetContext(ctx, &count, patientQuery,
			appointment.PatientID, appointment.StartTime, appointment.EndTime); err != nil {
			return fmt.Errorf("failed to check patient conflicts: %w", err)
		}
		if count > 0 {
			return repository.ErrPatientConflict
		}

		query := `
			INSERT INTO appointments (
				id, patient_id, doctor_id, doctor_name,
				start_time, end_time, reason, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		_, err := tx.ExecContext(ctx, query,
			appointment.ID,
			appointment.PatientID,
			appointment.DoctorID,
			appointment.DoctorName,
			appointment.StartTime,
			appointment.EndTime,
			appointment.EncryptedReason,
			appointment.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}
		return nil
	})
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, doctor_name,
			   start_time, end_time, reason, created_at
		FROM appointments
		WHERE id = $1
	`
	var appointment model.Appointment
	err := r.GetDB().GetContext(ctx, &appointment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	if err := r.decryptReason(&appointment); err != nil {
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	encrypted, err := security.EncryptString(r.cipher, appointment.Reason)
	if err != nil {
		return fmt.Errorf("failed to encrypt reason: %w", err)
	}
	appointment.EncryptedReason = encrypted

	query := `
		UPDATE appointments
		SET start_time = $1, end_time = $2, reason = $3
		WHERE id = $4
	`
	result, err := r.GetDB().ExecContext(ctx, query,
		appointment.StartTime,
		appointment.EndTime,
		appointment.EncryptedReason,
		appointment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM appointments
		WHERE id = $1
	`
	result, err := r.GetDB().ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, doctor_name,
			   start_time, end_time, reason, created_at
		FROM appointments
		WHERE 1=1
	`
	var args []interface{}

	if filters != nil {
		if filters.DoctorID != nil {
			args = append(args, *filters.DoctorID)
			query += fmt.Sprintf(" AND doctor_id = $%d", len(args))
		}
		if filters.PatientID != nil {
			args = append(args, *filters.PatientID)
			query += fmt.Sprintf(" AND patient_id = $%d", len(args))
		}
		if !filters.From.IsZero() {
			args = append(args, filters.From)
			query += fmt.Sprintf(" AND end_time > $%d", len(args))
		}
		if !filters.To.IsZero() {
			args = append(args, filters.To)
			query += fmt.Sprintf(" AND start_time < $%d", len(args))
		}
	}
	query += " ORDER BY start_time"

	var appointments []*model.Appointment
	if err := r.GetDB().SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	for _, a := range appointments {
		if err := r.decryptReason(a); err != nil {
			return nil, err
		}
	}
	return appointments, nil
}

func (r *appointmentRepository) FindDoctorConflicts(ctx context.Context, doctorName string, start, end time.Time, excludeID *uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, doctor_name,
			   start_time, end_time, reason, created_at
		FROM appointments
		WHERE doctor_name = $1 AND ` + overlapCond
	args := []interface{}{doctorName, start, end}
	if excludeID != nil {
		args = append(args, *excludeID)
		query += fmt.Sprintf(" AND id != $%d", len(args))
	}

	var conflicts []*model.Appointment
	if err := r.GetDB().SelectContext(ctx, &conflicts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to find doctor conflicts: %w", err)
	}
	return conflicts, nil
}

func (r *appointmentRepository) FindPatientConflicts(ctx context.Context, patientID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, doctor_name,
			   start_time, end_time, reason, created_at
		FROM appointments
		WHERE patient_id = $1 AND ` + overlapCond
	args := []interface{}{patientID, start, end}
	if excludeID != nil {
		args = append(args, *excludeID)
		query += fmt.Sprintf(" AND id != $%d", len(args))
	}

	var conflicts []*model.Appointment
	if err := r.GetDB().SelectContext(ctx, &conflicts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to find patient conflicts: %w", err)
	}
	return conflicts, nil
}

func (r *appointmentRepository) decryptReason(a *model.Appointment) error {
	plain, err := security.DecryptString(r.cipher, a.EncryptedReason)
	if err != nil {
		return fmt.Errorf("failed to decrypt reason for appointment %s: %w", a.ID, err)
	}
	a.Reason = plain
	return nil
}
