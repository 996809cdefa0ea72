package notification

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/khairulanwar/clinic-api/internal/config"
	"github.com/khairulanwar/clinic-api/internal/model"
)

// Service sends appointment mail. Callers treat every method as best
// effort; a send failure never blocks the scheduling operation.
type Service interface {
	AppointmentScheduled(ctx context.Context, appointment *model.Appointment, patient *model.PatientRef, to string) error
	AppointmentCancelled(ctx context.Context, appointment *model.Appointment, patient *model.PatientRef, to string) error
}

type mailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewMailService(cfg config.SMTPConfig) Service {
	return &mailService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *mailService) AppointmentScheduled(ctx context.Context, appointment *model.Appointment, patient *model.PatientRef, to string) error {
	subject := "Appointment confirmation"
	body := fmt.Sprintf(
		"Dear %s,\n\nYour appointment with %s is confirmed for %s until %s.\n\nPlease arrive 10 minutes early.",
		patient.Name,
		appointment.DoctorName,
		appointment.StartTime.Format("Mon, 2 Jan 2006 15:04"),
		appointment.EndTime.Format("15:04"),
	)
	return s.send(to, subject, body)
}

func (s *mailService) AppointmentCancelled(ctx context.Context, appointment *model.Appointment, patient *model.PatientRef, to string) error {
	subject := "Appointment cancelled"
	body := fmt.Sprintf(
		"Dear %s,\n\nYour appointment with %s on %s has been cancelled.",
		patient.Name,
		appointment.DoctorName,
		appointment.StartTime.Format("Mon, 2 Jan 2006 15:04"),
	)
	return s.send(to, subject, body)
}

func (s *mailService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

// NoopService is used when SMTP is not configured.
type NoopService struct{}

func (NoopService) AppointmentScheduled(context.Context, *model.Appointment, *model.PatientRef, string) error {
	return nil
}

func (NoopService) AppointmentCancelled(context.Context, *model.Appointment, *model.PatientRef, string) error {
	return nil
}
