package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/khairulanwar/clinic-api/internal/model"
	"github.com/khairulanwar/clinic-api/internal/repository"
)

type doctorRepository struct {
	BaseRepository
}

func NewDoctorRepository(db *sqlx.DB) repository.DoctorRepository {
	return &doctorRepository{NewBaseRepository(db)}
}

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	query := `
		INSERT INTO doctors (id, name, specialization, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.GetDB().ExecContext(ctx, query,
		doctor.ID,
		doctor.Name,
		doctor.Specialization,
		doctor.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create doctor: %w", err)
	}
	return nil
}

// FindByExactName is case-sensitive; returns nil when no row matches.
func (r *doctorRepository) FindByExactName(ctx context.Context, name string) (*model.Doctor, error) {
	query := `
		SELECT id, name, specialization, created_at
		FROM doctors
		WHERE name = $1
	`
	return r.findOne(ctx, query, name)
}

// FindByPartialName matches a substring anywhere in the name. Used as
// the fallback when the display string carries extra decoration.
func (r *doctorRepository) FindByPartialName(ctx context.Context, substr string) (*model.Doctor, error) {
	query := `
		SELECT id, name, specialization, created_at
		FROM doctors
		WHERE name LIKE '%' || $1 || '%'
		ORDER BY name
		LIMIT 1
	`
	return r.findOne(ctx, query, substr)
}

func (r *doctorRepository) findOne(ctx context.Context, query string, arg interface{}) (*model.Doctor, error) {
	var doctor model.Doctor
	err := r.GetDB().GetContext(ctx, &doctor, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find doctor: %w", err)
	}
	return &doctor, nil
}
