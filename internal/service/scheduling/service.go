package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/khairulanwar/clinic-api/internal/model"
	"github.com/khairulanwar/clinic-api/internal/repository"
	"github.com/khairulanwar/clinic-api/internal/service/audit"
	"github.com/khairulanwar/clinic-api/internal/service/notification"
	apperrors "github.com/khairulanwar/clinic-api/pkg/errors"
	"github.com/khairulanwar/clinic-api/pkg/metrics"
)

const (
	msgPastStart       = "appointment cannot be scheduled in the past"
	msgPatientMissing  = "selected patient does not exist"
	msgDoctorBusy      = "doctor already has an appointment in this time slot"
	msgPatientBusy     = "patient already has an appointment in this time slot"
	msgInvalidDuration = "appointment duration must be 30, 60, 90 or 120 minutes"
	msgBadDateTime     = "invalid appointment date or time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Service validates proposed appointments against the directory and
// commits or rejects them.
type Service struct {
	repo     repository.AppointmentRepository
	patients repository.PatientRepository
	doctors  repository.DoctorRepository
	auditor  *audit.Service
	notifier notification.Service
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(repo repository.AppointmentRepository, patients repository.PatientRepository,
	doctors repository.DoctorRepository, auditor *audit.Service,
	notifier notification.Service, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		doctors:  doctors,
		auditor:  auditor,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Schedule validates the request and persists the appointment.
// Caller-correctable problems come back as a validation error with
// every message collected, and the attempt is audited SCHEDULE_FAILED.
func (s *Service) Schedule(ctx context.Context, actor *model.Session, req *model.ScheduleAppointmentRequest, clientIP string) (*model.Appointment, error) {
	var messages []string

	if req.PatientID == "" || req.DoctorName == "" || req.Date == "" || req.Time == "" || req.DurationMinutes <= 0 {
		messages = append(messages, "all fields are required")
	}

	start, end, timeErr := s.parseSlot(req.Date, req.Time, req.DurationMinutes)
	if timeErr != "" {
		messages = append(messages, timeErr)
	}

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil && req.PatientID != "" {
		messages = append(messages, msgPatientMissing)
	}

	var patient *model.PatientRef
	if err == nil {
		patient, err = s.patients.GetRef(ctx, patientID)
		if errors.Is(err, repository.ErrNotFound) {
			messages = append(messages, msgPatientMissing)
		} else if err != nil {
			return nil, apperrors.StoreUnavailable(err)
		}
	}

	if len(messages) > 0 {
		return nil, s.rejectSchedule(ctx, actor, clientIP, req.DoctorName, messages)
	}

	doctorID, doctorName := s.resolveDoctor(ctx, req.DoctorName)

	conflictMsgs, err := s.findConflicts(ctx, doctorName, patientID, start, end, nil)
	if err != nil {
		return nil, err
	}
	if len(conflictMsgs) > 0 {
		return nil, s.rejectSchedule(ctx, actor, clientIP, doctorName, conflictMsgs)
	}

	appointment := &model.Appointment{
		ID:         uuid.New(),
		PatientID:  patientID,
		DoctorID:   doctorID,
		DoctorName: doctorName,
		StartTime:  start,
		EndTime:    end,
		Reason:     req.Reason,
		CreatedAt:  s.now(),
	}

	if err := s.repo.Create(ctx, appointment); err != nil {
		switch {
		case errors.Is(err, repository.ErrDoctorConflict):
			return nil, s.rejectSchedule(ctx, actor, clientIP, doctorName, []string{msgDoctorBusy})
		case errors.Is(err, repository.ErrPatientConflict):
			return nil, s.rejectSchedule(ctx, actor, clientIP, doctorName, []string{msgPatientBusy})
		}
		s.auditor.Record(ctx, audit.Entry{
			UserID:      actor.UserID,
			Username:    actor.Username,
			Action:      model.AuditScheduleFailed,
			Description: fmt.Sprintf("failed to persist appointment with %s", doctorName),
			IPAddress:   clientIP,
		})
		return nil, apperrors.StoreUnavailable(err)
	}

	if s.metrics != nil {
		s.metrics.AppointmentsScheduled.Inc()
	}
	s.auditor.Record(ctx, audit.Entry{
		UserID:   actor.UserID,
		Username: actor.Username,
		Action:   model.AuditSchedule,
		Description: fmt.Sprintf("scheduled appointment for %s with %s at %s",
			patient.Name, doctorName, start.Format("2006-01-02 15:04")),
		IPAddress: clientIP,
	})

	if patient.Email != "" {
		if err := s.notifier.AppointmentScheduled(ctx, appointment, patient, patient.Email); err != nil {
			s.logger.Warn().Err(err).Str("appointment_id", appointment.ID.String()).
				Msg("confirmation mail not sent")
		}
	}

	return appointment, nil
}

// Cancel hard-deletes the appointment, capturing a description for
// the audit trail before the row disappears.
func (s *Service) Cancel(ctx context.Context, actor *model.Session, id uuid.UUID, clientIP string) error {
	appointment, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("appointment")
	}
	if err != nil {
		return apperrors.StoreUnavailable(err)
	}

	description := fmt.Sprintf("deleted appointment with %s at %s",
		appointment.DoctorName, appointment.StartTime.Format("2006-01-02 15:04"))

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("appointment")
		}
		s.auditor.Record(ctx, audit.Entry{
			UserID:      actor.UserID,
			Username:    actor.Username,
			Action:      model.AuditDeleteFailed,
			Description: description,
			IPAddress:   clientIP,
		})
		return apperrors.StoreUnavailable(err)
	}

	if s.metrics != nil {
		s.metrics.AppointmentsCancelled.Inc()
	}
	s.auditor.Record(ctx, audit.Entry{
		UserID:      actor.UserID,
		Username:    actor.Username,
		Action:      model.AuditDelete,
		Description: description,
		IPAddress:   clientIP,
	})

	if patient, perr := s.patients.GetRef(ctx, appointment.PatientID); perr == nil && patient.Email != "" {
		if err := s.notifier.AppointmentCancelled(ctx, appointment, patient, patient.Email); err != nil {
			s.logger.Warn().Err(err).Str("appointment_id", id.String()).
				Msg("cancellation mail not sent")
		}
	}
	return nil
}

// Edit moves an existing appointment. The new duration must come from
// the allowed set, the new start must not be in the past, and the
// conflict re-check excludes the appointment's own current row.
func (s *Service) Edit(ctx context.Context, actor *model.Session, id uuid.UUID, req *model.EditAppointmentRequest, clientIP string) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("appointment")
	}
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}

	var messages []string

	if !model.AllowedDurations[req.DurationMinutes] {
		messages = append(messages, msgInvalidDuration)
	}

	start, end, timeErr := s.parseSlot(req.Date, req.Time, req.DurationMinutes)
	if timeErr != "" {
		messages = append(messages, timeErr)
	}

	if len(messages) > 0 {
		return nil, s.rejectEdit(ctx, actor, clientIP, appointment, messages)
	}

	conflictMsgs, err := s.findConflicts(ctx, appointment.DoctorName, appointment.PatientID, start, end, &id)
	if err != nil {
		return nil, err
	}
	if len(conflictMsgs) > 0 {
		return nil, s.rejectEdit(ctx, actor, clientIP, appointment, conflictMsgs)
	}

	appointment.StartTime = start
	appointment.EndTime = end
	if req.Reason != "" {
		appointment.Reason = req.Reason
	}

	if err := s.repo.Update(ctx, appointment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment")
		}
		s.auditor.Record(ctx, audit.Entry{
			UserID:      actor.UserID,
			Username:    actor.Username,
			Action:      model.AuditUpdateFailed,
			Description: fmt.Sprintf("failed to update appointment %s", id),
			IPAddress:   clientIP,
		})
		return nil, apperrors.StoreUnavailable(err)
	}

	s.auditor.Record(ctx, audit.Entry{
		UserID:   actor.UserID,
		Username: actor.Username,
		Action:   model.AuditUpdate,
		Description: fmt.Sprintf("moved appointment with %s to %s",
			appointment.DoctorName, start.Format("2006-01-02 15:04")),
		IPAddress: clientIP,
	})
	return appointment, nil
}

func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	appointments, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	return appointments, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("appointment")
	}
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	return appointment, nil
}

// resolveDoctor maps the human-entered display string to a directory
// id. The parenthetical specialization suffix is stripped before the
// exact match; a substring match is the fallback. Resolution failure
// never blocks scheduling: the appointment keeps a nil doctor id and
// the entered display string exactly as typed, so nothing the user
// wrote is lost. Only a resolved match normalizes to the stripped
// name.
func (s *Service) resolveDoctor(ctx context.Context, display string) (*uuid.UUID, string) {
	name := stripSpecialization(display)

	doctor, err := s.doctors.FindByExactName(ctx, name)
	if err == nil && doctor == nil {
		doctor, err = s.doctors.FindByPartialName(ctx, name)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("doctor_name", name).Msg("doctor lookup failed")
		return nil, display
	}
	if doctor == nil {
		s.logger.Warn().Str("doctor_name", display).Msg("doctor not in directory, scheduling by name only")
		return nil, display
	}
	return &doctor.ID, name
}

// stripSpecialization drops the "(Specialization)" suffix from a
// doctor display string: "Dr. Ali Rahman (General Practice)" and
// "Dr. Ali Rahman" normalize to the same name.
func stripSpecialization(display string) string {
	if i := strings.Index(display, "("); i >= 0 {
		display = display[:i]
	}
	return strings.TrimSpace(display)
}

func (s *Service) parseSlot(date, timeOfDay string, durationMinutes int) (time.Time, time.Time, string) {
	start, err := time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+timeOfDay, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, msgBadDateTime
	}
	if start.Before(s.now()) {
		return time.Time{}, time.Time{}, msgPastStart
	}
	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	return start, end, ""
}

// findConflicts checks doctor and patient overlaps independently so
// the caller gets a distinct message for each.
func (s *Service) findConflicts(ctx context.Context, doctorName string, patientID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]string, error) {
	var messages []string

	doctorConflicts, err := s.repo.FindDoctorConflicts(ctx, doctorName, start, end, excludeID)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	if len(doctorConflicts) > 0 {
		messages = append(messages, msgDoctorBusy)
		s.countConflict("doctor")
	}

	patientConflicts, err := s.repo.FindPatientConflicts(ctx, patientID, start, end, excludeID)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	if len(patientConflicts) > 0 {
		messages = append(messages, msgPatientBusy)
		s.countConflict("patient")
	}
	return messages, nil
}

func (s *Service) rejectSchedule(ctx context.Context, actor *model.Session, clientIP, doctorName string, messages []string) error {
	s.auditor.Record(ctx, audit.Entry{
		UserID:   actor.UserID,
		Username: actor.Username,
		Action:   model.AuditScheduleFailed,
		Description: fmt.Sprintf("rejected appointment with %s: %s",
			doctorName, strings.Join(messages, "; ")),
		IPAddress: clientIP,
	})
	return apperrors.Validation(messages...)
}

func (s *Service) rejectEdit(ctx context.Context, actor *model.Session, clientIP string, appointment *model.Appointment, messages []string) error {
	s.auditor.Record(ctx, audit.Entry{
		UserID:   actor.UserID,
		Username: actor.Username,
		Action:   model.AuditUpdateFailed,
		Description: fmt.Sprintf("rejected edit of appointment %s: %s",
			appointment.ID, strings.Join(messages, "; ")),
		IPAddress: clientIP,
	})
	return apperrors.Validation(messages...)
}

func (s *Service) countConflict(kind string) {
	if s.metrics != nil {
		s.metrics.SchedulingConflicts.WithLabelValues(kind).Inc()
	}
}
