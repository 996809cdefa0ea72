package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/khairulanwar/clinic-api/internal/model"
	"github.com/khairulanwar/clinic-api/internal/repository"
	"github.com/khairulanwar/clinic-api/pkg/security"
)

type patientRepository struct {
	BaseRepository
	ciphers *security.FieldCiphers
}

// NewPatientRepository builds the patient directory. Diagnosis uses
// the record key, IC numbers the IC key.
func NewPatientRepository(db *sqlx.DB, ciphers *security.FieldCiphers) repository.PatientRepository {
	return &patientRepository{BaseRepository: NewBaseRepository(db), ciphers: ciphers}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	icEnc, err := security.EncryptString(r.ciphers.IC, patient.ICNumber)
	if err != nil {
		return fmt.Errorf("failed to encrypt ic number: %w", err)
	}
	diagEnc, err := security.EncryptString(r.ciphers.Record, patient.Diagnosis)
	if err != nil {
		return fmt.Errorf("failed to encrypt diagnosis: %w", err)
	}
	patient.EncryptedICNumber = icEnc
	patient.EncryptedDiagnosis = diagEnc

	query := `
		INSERT INTO patients (id, name, ic_number, diagnosis, phone, email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.GetDB().ExecContext(ctx, query,
		patient.ID,
		patient.Name,
		patient.EncryptedICNumber,
		patient.EncryptedDiagnosis,
		patient.Phone,
		patient.Email,
		patient.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `
		SELECT id, name, ic_number, diagnosis, phone, email, created_at
		FROM patients
		WHERE id = $1
	`
	var patient model.Patient
	err := r.GetDB().GetContext(ctx, &patient, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	ic, err := security.DecryptString(r.ciphers.IC, patient.EncryptedICNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt ic number for patient %s: %w", id, err)
	}
	diag, err := security.DecryptString(r.ciphers.Record, patient.EncryptedDiagnosis)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt diagnosis for patient %s: %w", id, err)
	}
	patient.ICNumber = ic
	patient.Diagnosis = diag
	return &patient, nil
}

// GetRef returns only the id and display name, skipping decryption.
// The scheduling engine uses this for existence checks.
func (r *patientRepository) GetRef(ctx context.Context, id uuid.UUID) (*model.PatientRef, error) {
	query := `
		SELECT id, name, email FROM patients WHERE id = $1
	`
	var ref model.PatientRef
	err := r.GetDB().GetContext(ctx, &ref, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient ref: %w", err)
	}
	return &ref, nil
}
