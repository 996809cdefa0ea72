package doctor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/khairulanwar/clinic-api/internal/model"
	"github.com/khairulanwar/clinic-api/internal/repository"
	"github.com/khairulanwar/clinic-api/internal/service/audit"
	apperrors "github.com/khairulanwar/clinic-api/pkg/errors"
)

// Service maintains the doctor directory the scheduling engine
// resolves names against.
type Service struct {
	repo    repository.DoctorRepository
	auditor *audit.Service
	now     func() time.Time
}

func NewService(repo repository.DoctorRepository, auditor *audit.Service) *Service {
	return &Service{repo: repo, auditor: auditor, now: time.Now}
}

func (s *Service) Register(ctx context.Context, actor *model.Session, req *model.RegisterDoctorRequest, clientIP string) (*model.Doctor, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.Validation("doctor name is required")
	}

	existing, err := s.repo.FindByExactName(ctx, name)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	if existing != nil {
		return nil, apperrors.Validation("doctor with this name already exists")
	}

	doctor := &model.Doctor{
		ID:             uuid.New(),
		Name:           name,
		Specialization: strings.TrimSpace(req.Specialization),
		CreatedAt:      s.now(),
	}

	if err := s.repo.Create(ctx, doctor); err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}

	s.auditor.Record(ctx, audit.Entry{
		UserID:      actor.UserID,
		Username:    actor.Username,
		Action:      model.AuditCreate,
		Description: fmt.Sprintf("added doctor %s to directory", doctor.Name),
		IPAddress:   clientIP,
	})
	return doctor, nil
}
