package scheduling

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khairulanwar/clinic-api/internal/model"
	"github.com/khairulanwar/clinic-api/internal/repository"
	"github.com/khairulanwar/clinic-api/internal/service/audit"
	"github.com/khairulanwar/clinic-api/internal/service/notification"
	apperrors "github.com/khairulanwar/clinic-api/pkg/errors"
)

type fakeAppointmentRepo struct {
	rows      map[uuid.UUID]*model.Appointment
	createErr error
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{rows: make(map[uuid.UUID]*model.Appointment)}
}

func (f *fakeAppointmentRepo) Create(_ context.Context, appointment *model.Appointment) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.rows[appointment.ID] = appointment
	return nil
}

func (f *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	appointment, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *appointment
	return &copied, nil
}

func (f *fakeAppointmentRepo) Update(_ context.Context, appointment *model.Appointment) error {
	if _, ok := f.rows[appointment.ID]; !ok {
		return repository.ErrNotFound
	}
	f.rows[appointment.ID] = appointment
	return nil
}

func (f *fakeAppointmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeAppointmentRepo) List(_ context.Context, _ *model.AppointmentFilters) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range f.rows {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAppointmentRepo) FindDoctorConflicts(_ context.Context, doctorName string, start, end time.Time, excludeID *uuid.UUID) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range f.rows {
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if a.DoctorName == doctorName && a.Overlaps(start, end) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAppointmentRepo) FindPatientConflicts(_ context.Context, patientID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range f.rows {
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if a.PatientID == patientID && a.Overlaps(start, end) {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakePatientRepo struct {
	refs map[uuid.UUID]*model.PatientRef
}

func (f *fakePatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	ref, ok := f.refs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &model.Patient{ID: ref.ID, Name: ref.Name, Email: ref.Email}, nil
}

func (f *fakePatientRepo) GetRef(_ context.Context, id uuid.UUID) (*model.PatientRef, error) {
	ref, ok := f.refs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return ref, nil
}

func (f *fakePatientRepo) Create(_ context.Context, patient *model.Patient) error {
	f.refs[patient.ID] = &model.PatientRef{ID: patient.ID, Name: patient.Name, Email: patient.Email}
	return nil
}

type fakeDoctorRepo struct {
	doctors []*model.Doctor
}

func (f *fakeDoctorRepo) FindByExactName(_ context.Context, name string) (*model.Doctor, error) {
	for _, d := range f.doctors {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, nil
}

func (f *fakeDoctorRepo) FindByPartialName(_ context.Context, substr string) (*model.Doctor, error) {
	for _, d := range f.doctors {
		if strings.Contains(d.Name, substr) {
			return d, nil
		}
	}
	return nil, nil
}

func (f *fakeDoctorRepo) Create(_ context.Context, doctor *model.Doctor) error {
	f.doctors = append(f.doctors, doctor)
	return nil
}

type fakeAuditRepo struct {
	entries   []*model.AuditLogEntry
	createErr error
}

func (f *fakeAuditRepo) Create(_ context.Context, entry *model.AuditLogEntry) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAuditRepo) ListPage(_ context.Context, page int) ([]*model.AuditLogEntry, error) {
	return f.entries, nil
}

func (f *fakeAuditRepo) Count(_ context.Context) (int64, error) {
	return int64(len(f.entries)), nil
}

func (f *fakeAuditRepo) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeAuditRepo) lastAction() model.AuditAction {
	if len(f.entries) == 0 {
		return ""
	}
	return f.entries[len(f.entries)-1].Action
}

type schedulingFixture struct {
	svc          *Service
	appointments *fakeAppointmentRepo
	patients     *fakePatientRepo
	doctors      *fakeDoctorRepo
	auditRows    *fakeAuditRepo
	patientID    uuid.UUID
	otherPatient uuid.UUID
	doctorID     uuid.UUID
	actor        *model.Session
	base         time.Time
}

func newFixture(t *testing.T) *schedulingFixture {
	t.Helper()

	appointments := newFakeAppointmentRepo()
	patientID := uuid.New()
	otherPatient := uuid.New()
	patients := &fakePatientRepo{refs: map[uuid.UUID]*model.PatientRef{
		patientID:    {ID: patientID, Name: "Siti Aminah"},
		otherPatient: {ID: otherPatient, Name: "Lim Wei Jian"},
	}}
	doctorID := uuid.New()
	doctors := &fakeDoctorRepo{doctors: []*model.Doctor{
		{ID: doctorID, Name: "Dr. Ali Rahman", Specialization: "General Practice"},
	}}
	auditRows := &fakeAuditRepo{}
	auditor := audit.NewService(auditRows, zerolog.Nop())

	svc := NewService(appointments, patients, doctors, auditor, notification.NoopService{}, nil, zerolog.Nop())

	// Fixed clock at 09:00 local on the scheduling day.
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	svc.now = func() time.Time { return base }

	return &schedulingFixture{
		svc:          svc,
		appointments: appointments,
		patients:     patients,
		doctors:      doctors,
		auditRows:    auditRows,
		patientID:    patientID,
		otherPatient: otherPatient,
		doctorID:     doctorID,
		actor:        &model.Session{ID: "sess-1", UserID: uuid.New(), Username: "admin", Role: model.RoleAdmin},
		base:         base,
	}
}

func (fx *schedulingFixture) schedule(t *testing.T, patientID uuid.UUID, doctorName, timeOfDay string, minutes int) (*model.Appointment, error) {
	t.Helper()
	return fx.svc.Schedule(context.Background(), fx.actor, &model.ScheduleAppointmentRequest{
		PatientID:       patientID.String(),
		DoctorName:      doctorName,
		Date:            "2026-03-10",
		Time:            timeOfDay,
		DurationMinutes: minutes,
	}, "192.168.1.10")
}

func TestScheduleSuccess(t *testing.T) {
	fx := newFixture(t)

	appointment, err := fx.schedule(t, fx.patientID, "Dr. Ali Rahman", "10:00", 60)
	require.NoError(t, err)
	require.NotNil(t, appointment)

	assert.Equal(t, fx.patientID, appointment.PatientID)
	require.NotNil(t, appointment.DoctorID)
	assert.Equal(t, fx.doctorID, *appointment.DoctorID)
	assert.Equal(t, time.Date(2026, 3, 10, 10, 0, 0, 0, time.Local), appointment.StartTime)
	assert.Equal(t, time.Date(2026, 3, 10, 11, 0, 0, 0, time.Local), appointment.EndTime)
	assert.Equal(t, model.AuditSchedule, fx.auditRows.lastAction())
}

func TestScheduleDoctorConflict(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.schedule(t, fx.patientID, "Dr. Ali Rahman", "10:00", 60)
	require.NoError(t, err)

	// Overlapping slot for the same doctor with a different patient.
	_, err = fx.schedule(t, fx.otherPatient, "Dr. Ali Rahman", "10:30", 60)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, apperrors.UserMessages(err), msgDoctorBusy)
	assert.Equal(t, model.AuditScheduleFailed, fx.auditRows.lastAction())
}

func TestScheduleBackToBackAllowed(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.schedule(t, fx.patientID, "Dr. Ali Rahman", "10:00", 60)
	require.NoError(t, err)

	// Starts exactly when the previous one ends: no overlap.
	appointment, err := fx.schedule(t, fx.otherPatient, "Dr. Ali Rahman", "11:00", 60)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 11, 0, 0, 0, time.Local), appointment.StartTime)
}

func TestSchedulePatientConflict(t *testing.T) {
	fx := newFixture(t)

	fx.doctors.doctors = append(fx.doctors.doctors,
		&model.Doctor{ID: uuid.New(), Name: "Dr. Tan Mei Ling", Specialization: "Pediatrics"})

	_, err := fx.schedule(t, fx.patientID, "Dr. Ali Rahman", "10:00", 60)
	require.NoError(t, err)

	// Same patient, different doctor, overlapping slot.
	_, err = fx.schedule(t, fx.patientID, "Dr. Tan Mei Ling", "10:30", 60)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	messages := apperrors.UserMessages(err)
	assert.Contains(t, messages, msgPatientBusy)
	assert.NotContains(t, messages, msgDoctorBusy)
}

func TestSchedulePastRejected(t *testing.T) {
	fx := newFixture(t)

	// Clock is 09:00; 08:00 the same day is in the past.
	_, err := fx.schedule(t, fx.patientID, "Dr. Ali Rahman", "08:00", 60)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, apperrors.UserMessages(err), msgPastStart)
}

func TestScheduleUnknownPatient(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.schedule(t, uuid.New(), "Dr. Ali Rahman", "10:00", 60)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, apperrors.UserMessages(err), msgPatientMissing)
	assert.Equal(t, model.AuditScheduleFailed, fx.auditRows.lastAction())
}

func TestScheduleCollectsAllMessages(t *testing.T) {
	fx := newFixture(t)

	// Unknown patient and a past slot at once: both messages come back.
	_, err := fx.schedule(t, uuid.New(), "Dr. Ali Rahman", "08:00", 60)
	require.Error(t, err)
	messages := apperrors.UserMessages(err)
	assert.Contains(t, messages, msgPastStart)
	assert.Contains(t, messages, msgPatientMissing)
}

func TestDoctorNameResolutionStripsSpecialization(t *testing.T) {
	fx := newFixture(t)

	appointment, err := fx.schedule(t, fx.patientID, "Dr. Ali Rahman (General Practice)", "10:00", 60)
	require.NoError(t, err)
	require.NotNil(t, appointment.DoctorID)
	assert.Equal(t, fx.doctorID, *appointment.DoctorID)
	assert.Equal(t, "Dr. Ali Rahman", appointment.DoctorName)
}

func TestDoctorNameResolutionIdempotent(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.schedule(t, fx.patientID, "Dr. Ali Rahman (General Practice)", "10:00", 60)
	require.NoError(t, err)

	// The plain form of the same name hits the same doctor, so the
	// overlapping slot conflicts.
	_, err = fx.schedule(t, fx.otherPatient, "Dr. Ali Rahman", "10:30", 60)
	require.Error(t, err)
	assert.Contains(t, apperrors.UserMessages(err), msgDoctorBusy)
}

func TestDoctorPartialNameResolves(t *testing.T) {
	fx := newFixture(t)

	appointment, err := fx.schedule(t, fx.patientID, "Ali Rahman", "10:00", 60)
	require.NoError(t, err)
	require.NotNil(t, appointment.DoctorID)
	assert.Equal(t, fx.doctorID, *appointment.DoctorID)
}

func TestUnresolvedDoctorStillSchedules(t *testing.T) {
	fx := newFixture(t)

	// The entered display string survives as typed, specialization
	// suffix included; only a directory match normalizes the name.
	appointment, err := fx.schedule(t, fx.patientID, "Dr. Nobody (Cardiology)", "10:00", 60)
	require.NoError(t, err)
	assert.Nil(t, appointment.DoctorID)
	assert.Equal(t, "Dr. Nobody (Cardiology)", appointment.DoctorName)

	appointment, err = fx.schedule(t, fx.patientID, "Dr. Nobody", "14:00", 60)
	require.NoError(t, err)
	assert.Nil(t, appointment.DoctorID)
	assert.Equal(t, "Dr. Nobody", appointment.DoctorName)
}

func TestScheduleInsertRaceMapsToConflict(t *testing.T) {
	fx := newFixture(t)
	fx.appointments.createErr = repository.ErrDoctorConflict

	_, err := fx.schedule(t, fx.patientID, "Dr. Ali Rahman", "10:00", 60)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, apperrors.UserMessages(err), msgDoctorBusy)
}

func TestEditMovesAppointment(t *testing.T) {
	fx := newFixture(t)

	appointment, err := fx.schedule(t, fx.patientID, "Dr. Ali Rahman", "10:00", 60)
	require.NoError(t, err)

	moved, err := fx.svc.Edit(context.Background(), fx.actor, appointment.ID, &model.EditAppointmentRequest{
		Date:            "2026-03-10",
		Time:            "14:00",
		DurationMinutes: 90,
	}, "192.168.1.10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 14, 0, 0, 0, time.Local), moved.StartTime)
	assert.Equal(t, time.Date(2026, 3, 10, 15, 30, 0, 0, time.Local), moved.EndTime)
	assert.Equal(t, model.AuditUpdate, fx.auditRows.lastAction())
}

func TestEditRejectsDurationOutsideSet(t *testing.T) {
	fx := newFixture(t)

	appointment, err := fx.schedule(t, fx.patientID, "Dr. Ali Rahman", "10:00", 60)
	require.NoError(t, err)

	for _, minutes := range []int{15, 45, 75, 150} {
		_, err := fx.svc.Edit(context.Background(), fx.actor, appointment.ID, &model.EditAppointmentRequest{
			Date:            "2026-03-10",
			Time:            "14:00",
			DurationMinutes: minutes,
		}, "192.168.1.10")
		require.Error(t, err, "duration %d", minutes)
		assert.Contains(t, apperrors.UserMessages(err), msgInvalidDuration)
	}
}

func TestEditExcludesOwnRow(t *testing.T) {
	fx := newFixture(t)

	appointment, err := fx.schedule(t, fx.patientID, "Dr. Ali Rahman", "10:00", 60)
	require.NoError(t, err)

	// Shift by 15 minutes: overlaps only itself, which must not count.
	moved, err := fx.svc.Edit(context.Background(), fx.actor, appointment.ID, &model.EditAppointmentRequest{
		Date:            "2026-03-10",
		Time:            "10:15",
		DurationMinutes: 60,
	}, "192.168.1.10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 10, 15, 0, 0, time.Local), moved.StartTime)
}

func TestEditStillConflictsWithOthers(t *testing.T) {
	fx := newFixture(t)

	appointment, err := fx.schedule(t, fx.patientID, "Dr. Ali Rahman", "10:00", 60)
	require.NoError(t, err)
	_, err = fx.schedule(t, fx.otherPatient, "Dr. Ali Rahman", "11:30", 60)
	require.NoError(t, err)

	_, err = fx.svc.Edit(context.Background(), fx.actor, appointment.ID, &model.EditAppointmentRequest{
		Date:            "2026-03-10",
		Time:            "11:00",
		DurationMinutes: 60,
	}, "192.168.1.10")
	require.Error(t, err)
	assert.Contains(t, apperrors.UserMessages(err), msgDoctorBusy)
}

func TestEditMissingAppointment(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.Edit(context.Background(), fx.actor, uuid.New(), &model.EditAppointmentRequest{
		Date:            "2026-03-10",
		Time:            "14:00",
		DurationMinutes: 60,
	}, "192.168.1.10")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCancelDeletesAndAudits(t *testing.T) {
	fx := newFixture(t)

	appointment, err := fx.schedule(t, fx.patientID, "Dr. Ali Rahman", "10:00", 60)
	require.NoError(t, err)

	err = fx.svc.Cancel(context.Background(), fx.actor, appointment.ID, "192.168.1.10")
	require.NoError(t, err)
	assert.Empty(t, fx.appointments.rows)
	assert.Equal(t, model.AuditDelete, fx.auditRows.lastAction())

	// The slot is free again.
	_, err = fx.schedule(t, fx.otherPatient, "Dr. Ali Rahman", "10:00", 60)
	assert.NoError(t, err)
}

func TestCancelMissingAppointment(t *testing.T) {
	fx := newFixture(t)

	err := fx.svc.Cancel(context.Background(), fx.actor, uuid.New(), "192.168.1.10")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
