package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/khairulanwar/clinic-api/internal/model"
	"github.com/khairulanwar/clinic-api/internal/repository"
	"github.com/khairulanwar/clinic-api/internal/service/audit"
	apperrors "github.com/khairulanwar/clinic-api/pkg/errors"
)

// Service is the patient directory. Sensitive fields (IC number,
// diagnosis) are encrypted by the repository; this layer only
// validates and audits.
type Service struct {
	repo    repository.PatientRepository
	auditor *audit.Service
	now     func() time.Time
}

func NewService(repo repository.PatientRepository, auditor *audit.Service) *Service {
	return &Service{repo: repo, auditor: auditor, now: time.Now}
}

func (s *Service) Register(ctx context.Context, actor *model.Session, req *model.RegisterPatientRequest, clientIP string) (*model.Patient, error) {
	var messages []string
	if strings.TrimSpace(req.Name) == "" {
		messages = append(messages, "patient name is required")
	}
	if strings.TrimSpace(req.ICNumber) == "" {
		messages = append(messages, "ic number is required")
	}
	if len(messages) > 0 {
		s.auditor.Record(ctx, audit.Entry{
			UserID:      actor.UserID,
			Username:    actor.Username,
			Action:      model.AuditCreateFailed,
			Description: "rejected patient registration: " + strings.Join(messages, "; "),
			IPAddress:   clientIP,
		})
		return nil, apperrors.Validation(messages...)
	}

	patient := &model.Patient{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(req.Name),
		ICNumber:  strings.TrimSpace(req.ICNumber),
		Diagnosis: req.Diagnosis,
		Phone:     req.Phone,
		Email:     req.Email,
		CreatedAt: s.now(),
	}

	if err := s.repo.Create(ctx, patient); err != nil {
		s.auditor.Record(ctx, audit.Entry{
			UserID:      actor.UserID,
			Username:    actor.Username,
			Action:      model.AuditCreateFailed,
			Description: fmt.Sprintf("failed to register patient %s", patient.Name),
			IPAddress:   clientIP,
		})
		return nil, apperrors.StoreUnavailable(err)
	}

	s.auditor.Record(ctx, audit.Entry{
		UserID:      actor.UserID,
		Username:    actor.Username,
		Action:      model.AuditCreate,
		Description: fmt.Sprintf("registered patient %s", patient.Name),
		IPAddress:   clientIP,
	})
	return patient, nil
}

// Get returns the full decrypted record and audits the read; viewing
// medical data is itself an auditable event.
func (s *Service) Get(ctx context.Context, actor *model.Session, id uuid.UUID, clientIP string) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("patient")
	}
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}

	s.auditor.Record(ctx, audit.Entry{
		UserID:      actor.UserID,
		Username:    actor.Username,
		Action:      model.AuditRead,
		Description: fmt.Sprintf("viewed patient record %s", patient.Name),
		IPAddress:   clientIP,
	})
	return patient, nil
}
