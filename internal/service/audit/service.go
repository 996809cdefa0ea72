package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/khairulanwar/clinic-api/internal/model"
	"github.com/khairulanwar/clinic-api/internal/repository"
)

type Service struct {
	repo   repository.AuditRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo repository.AuditRepository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Entry carries the caller-supplied fields for one record.
type Entry struct {
	UserID      uuid.UUID
	Username    string
	Action      model.AuditAction
	Description string
	IPAddress   string
}

// Record appends one audit entry. Best effort: a storage failure is
// logged locally and reported as false, never propagated, so the
// primary operation always completes.
func (s *Service) Record(ctx context.Context, e Entry) bool {
	entry := &model.AuditLogEntry{
		ID:          uuid.New(),
		UserID:      e.UserID,
		Username:    e.Username,
		Action:      e.Action,
		Description: e.Description,
		IPAddress:   e.IPAddress,
		CreatedAt:   s.now(),
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Error().Err(err).
			Str("action", e.Action.Display()).
			Str("username", e.Username).
			Msg("failed to write audit log")
		return false
	}
	return true
}

// ListPage returns one newest-first page plus the page-count math the
// display layer needs.
func (s *Service) ListPage(ctx context.Context, page int) (*model.AuditPage, error) {
	if page < 1 {
		page = 1
	}

	entries, err := s.repo.ListPage(ctx, page)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + model.AuditPageSize - 1) / model.AuditPageSize)
	return &model.AuditPage{
		Entries:    entries,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	}, nil
}
