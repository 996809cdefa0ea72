package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/khairulanwar/clinic-api/internal/model"
	"github.com/khairulanwar/clinic-api/internal/repository"
)

type auditRepository struct {
	BaseRepository
}

func NewAuditRepository(db *sqlx.DB) repository.AuditRepository {
	return &auditRepository{NewBaseRepository(db)}
}

func (r *auditRepository) Create(ctx context.Context, entry *model.AuditLogEntry) error {
	query := `
		INSERT INTO audit_logs (
			id, user_id, username, action, description, ip_address, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.GetDB().ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Username,
		entry.Action,
		entry.Description,
		entry.IPAddress,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// ListPage returns one fixed-size page, newest first. Pages are
// 1-based; out-of-range pages return an empty slice.
func (r *auditRepository) ListPage(ctx context.Context, page int) ([]*model.AuditLogEntry, error) {
	if page < 1 {
		page = 1
	}
	query := `
		SELECT id, user_id, username, action, description, ip_address, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	offset := (page - 1) * model.AuditPageSize

	var entries []*model.AuditLogEntry
	if err := r.GetDB().SelectContext(ctx, &entries, query, model.AuditPageSize, offset); err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return entries, nil
}

func (r *auditRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.GetDB().GetContext(ctx, &total, `SELECT COUNT(*) FROM audit_logs`); err != nil {
		return 0, fmt.Errorf("failed to count audit logs: %w", err)
	}
	return total, nil
}

func (r *auditRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM audit_logs
		WHERE created_at < $1
	`
	result, err := r.GetDB().ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup audit logs: %w", err)
	}
	return result.RowsAffected()
}
